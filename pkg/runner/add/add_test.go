package add

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/memos/pkg/commands/options"
	"tableflip.dev/memos/pkg/errs"
	"tableflip.dev/memos/pkg/memo"
	"tableflip.dev/memos/pkg/mutation"
	"tableflip.dev/memos/pkg/printers"
	"tableflip.dev/memos/pkg/remote/remotetest"
)

func writePNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	path := filepath.Join(t.TempDir(), "dot.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestAddAttachesFiles(t *testing.T) {
	fake := remotetest.New()
	coord := mutation.New(fake, nil)
	var buf bytes.Buffer

	a := Add{
		Content:     "  lunch #food ",
		Tags:        []string{"food"},
		Files:       []string{writePNG(t)},
		Coordinator: coord,
		Printer:     &printers.PrettyPrint{Out: &buf},
	}
	require.NoError(t, a.Do(context.Background()))

	require.NotNil(t, a.Created)
	assert.Equal(t, "lunch #food", a.Created.Content)
	assert.Equal(t, memo.Private, a.Created.Visibility)
	assert.Len(t, a.Created.Resources, 1)
	assert.Equal(t, 0, coord.Staging.Len(), "staging is closed afterwards")
	assert.Contains(t, buf.String(), "lunch #food")
}

func TestAddRejectsEmptyContent(t *testing.T) {
	fake := remotetest.New()
	a := Add{Content: " \n", Coordinator: mutation.New(fake, nil)}
	err := a.Do(context.Background())
	assert.True(t, errs.Is(err, errs.CodeValidation))
	assert.Equal(t, 0, fake.CallCount("CreateMemo"))
}

func TestAddWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	a := Add{
		Content:     "hello",
		Visibility:  memo.Public,
		Coordinator: mutation.New(remotetest.New(), nil),
		Output:      &options.OutputOptions{JSON: true, Out: &buf},
	}
	require.NoError(t, a.Do(context.Background()))

	var got memo.Memo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "hello", got.Content)
	assert.Equal(t, memo.Public, got.Visibility)
}

func TestAddBadFileCreatesNothing(t *testing.T) {
	fake := remotetest.New()
	a := Add{Content: "x", Files: []string{filepath.Join(t.TempDir(), "missing.png")}, Coordinator: mutation.New(fake, nil)}
	require.Error(t, a.Do(context.Background()))
	assert.Equal(t, 0, fake.CallCount("CreateMemo"))
}
