package upload

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/memos/pkg/mutation"
	"tableflip.dev/memos/pkg/remote/remotetest"
)

func writePNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blank.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 3, 3))))
	require.NoError(t, f.Close())
	return path
}

func TestUploadToMemo(t *testing.T) {
	fake := remotetest.New()
	m := fake.Seed("receipt")[0]
	coord := mutation.New(fake, nil)

	u := Upload{Files: []string{writePNG(t), writePNG(t)}, MemoID: m.ID, Coordinator: coord}
	require.NoError(t, u.Do(context.Background()))

	require.Len(t, u.Uploaded, 2)
	for _, r := range u.Uploaded {
		assert.Equal(t, m.ID, r.MemoID)
		assert.Equal(t, "image/jpeg", r.MimeType)
	}
	assert.Equal(t, 0, coord.Staging.Len())
}

func TestUploadUnattached(t *testing.T) {
	fake := remotetest.New()
	u := Upload{Files: []string{writePNG(t)}, Coordinator: mutation.New(fake, nil)}
	require.NoError(t, u.Do(context.Background()))
	require.Len(t, u.Uploaded, 1)
	assert.False(t, u.Uploaded[0].Bound())
}

func TestUploadRequiresFiles(t *testing.T) {
	u := Upload{Coordinator: mutation.New(remotetest.New(), nil)}
	assert.Error(t, u.Do(context.Background()))
}
