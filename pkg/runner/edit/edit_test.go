package edit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/memos/pkg/errs"
	"tableflip.dev/memos/pkg/memo"
	"tableflip.dev/memos/pkg/mutation"
	"tableflip.dev/memos/pkg/remote"
	"tableflip.dev/memos/pkg/remote/remotetest"
)

func TestEditKeepsVisibilityAndAttachments(t *testing.T) {
	ctx := context.Background()
	fake := remotetest.New()
	created, err := fake.CreateMemo(ctx, remote.MemoCreate{Content: "old", Visibility: memo.Protected})
	require.NoError(t, err)
	res, err := fake.CreateResource(ctx, remote.ResourceCreate{Filename: "a.jpg", MimeType: "image/jpeg", Content: []byte{1}, MemoID: created.ID})
	require.NoError(t, err)

	coord := mutation.New(fake, nil)
	e := Edit{ID: created.ID, Content: "new #tag", Coordinator: coord}
	require.NoError(t, e.Do(ctx))

	got, err := fake.GetMemo(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new #tag", got.Content)
	assert.Equal(t, memo.Protected, got.Visibility)
	assert.Equal(t, []string{res.ID}, got.Resources)
	assert.Equal(t, []string{"tag"}, got.Tags)
	assert.Equal(t, "", coord.Staging.MemoID())
}

func TestEditOverridesVisibility(t *testing.T) {
	ctx := context.Background()
	fake := remotetest.New()
	seeded := fake.Seed("old")

	e := Edit{ID: seeded[0].ID, Content: "new", Visibility: memo.Public, Coordinator: mutation.New(fake, nil)}
	require.NoError(t, e.Do(ctx))

	got, err := fake.GetMemo(ctx, seeded[0].ID)
	require.NoError(t, err)
	assert.Equal(t, memo.Public, got.Visibility)
}

func TestEditMissingMemo(t *testing.T) {
	fake := remotetest.New()
	e := Edit{ID: "nope", Content: "x", Coordinator: mutation.New(fake, nil)}
	assert.True(t, errs.Is(e.Do(context.Background()), errs.CodeNotFound))
	assert.Equal(t, 0, fake.CallCount("UpdateMemo"))
}
