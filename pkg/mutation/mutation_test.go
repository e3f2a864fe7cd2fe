package mutation

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/memos/pkg/draft"
	"tableflip.dev/memos/pkg/errs"
	"tableflip.dev/memos/pkg/memo"
	"tableflip.dev/memos/pkg/remote"
	"tableflip.dev/memos/pkg/remote/remotetest"
	"tableflip.dev/memos/pkg/signal"
)

type recorder struct {
	mu      sync.Mutex
	signals []signal.Signal
}

func (r *recorder) Notify(_ context.Context, s signal.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, s)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.signals)
}

func setup() (*Coordinator, *remotetest.Fake, *recorder) {
	repo := remotetest.New()
	rec := &recorder{}
	return New(repo, rec), repo, rec
}

func photo() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.Black)
	return img
}

func TestCreateMemoSignalsOnceOnSuccess(t *testing.T) {
	c, _, rec := setup()

	m, err := c.CreateMemo(context.Background(), "hello", memo.Private, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", m.Content)
	assert.Equal(t, 1, rec.count())
	require.NotNil(t, rec.signals[0].Memo)
	assert.Equal(t, m.ID, rec.signals[0].Memo.ID)
}

func TestCreateMemoFailureEmitsNothingAndKeepsStaging(t *testing.T) {
	c, repo, rec := setup()
	require.NoError(t, c.Staging.Stage(memo.Resource{ID: "r1"}))

	want := errs.New(errs.CodeTransport, "offline")
	repo.Fail["CreateMemo"] = want

	_, err := c.CreateMemo(context.Background(), "hello", memo.Private, nil)
	assert.Same(t, want, err, "repository failures are returned verbatim")
	assert.Zero(t, rec.count())
	assert.Equal(t, []string{"r1"}, c.Staging.IDs())
}

func TestEditMemoSignalCarriesUpdatedMemo(t *testing.T) {
	c, repo, rec := setup()
	seeded := repo.Seed("before")

	m, err := c.EditMemo(context.Background(), seeded[0].ID, "after", memo.Public, []string{"#work", "work", " "})
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, m.Tags)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, "after", rec.signals[0].Memo.Content)
}

func TestEditMemoFailureEmitsNothing(t *testing.T) {
	for _, code := range []errs.Code{errs.CodeValidation, errs.CodeAuth, errs.CodeNotFound, errs.CodeTransport} {
		t.Run(string(code), func(t *testing.T) {
			c, repo, rec := setup()
			repo.Fail["UpdateMemo"] = errs.New(code, "rejected")
			_, err := c.EditMemo(context.Background(), "m1", "x", memo.Private, nil)
			assert.Equal(t, code, errs.GetCode(err))
			assert.Zero(t, rec.count())
		})
	}
}

func TestDeleteMemoSignals(t *testing.T) {
	c, repo, rec := setup()
	seeded := repo.Seed("gone soon")

	require.NoError(t, c.DeleteMemo(context.Background(), seeded[0].ID))
	assert.Equal(t, 1, rec.count())

	err := c.DeleteMemo(context.Background(), seeded[0].ID)
	assert.True(t, errs.Is(err, errs.CodeNotFound))
	assert.Equal(t, 1, rec.count())
}

func TestUploadThenCreateAttachesResource(t *testing.T) {
	c, repo, rec := setup()
	assert.Zero(t, c.Staging.Len())

	res, err := c.UploadResource(context.Background(), photo(), "")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", res.MimeType)
	assert.Regexp(t, `^[0-9a-f-]{36}\.jpg$`, res.Filename)
	assert.Equal(t, []memo.Resource{*res}, c.Staging.List())
	assert.Zero(t, rec.count(), "uploads do not signal")

	m, err := c.CreateMemo(context.Background(), "with photo", memo.Private, nil)
	require.NoError(t, err)
	assert.Contains(t, m.Resources, res.ID)

	stored, ok := repo.Resource(res.ID)
	require.True(t, ok)
	assert.Equal(t, m.ID, stored.MemoID)

	// Clearing the session after submit is the caller's responsibility.
	assert.Equal(t, []string{res.ID}, c.Staging.IDs())
	c.Staging.End()
	assert.Zero(t, c.Staging.Len())
}

func TestUploadFailureLeavesStagingUntouched(t *testing.T) {
	c, repo, _ := setup()
	require.NoError(t, c.Staging.Stage(memo.Resource{ID: "existing"}))

	repo.Fail["CreateResource"] = errs.New(errs.CodeAuth, "expired")
	_, err := c.UploadResource(context.Background(), photo(), "")
	assert.True(t, errs.Is(err, errs.CodeAuth))
	assert.Equal(t, []string{"existing"}, c.Staging.IDs())

	delete(repo.Fail, "CreateResource")
	_, err = c.UploadResource(context.Background(), image.NewRGBA(image.Rect(0, 0, 0, 0)), "")
	assert.True(t, errs.Is(err, errs.CodeEncoding))
	assert.Equal(t, []string{"existing"}, c.Staging.IDs())
	assert.Equal(t, 1, repo.CallCount("CreateResource"), "encoding failures never reach the remote")
}

func TestUploadForEditedMemo(t *testing.T) {
	c, repo, _ := setup()
	m := repo.Seed("editing")[0]
	require.NoError(t, c.Staging.Begin(m.ID))

	res, err := c.UploadResource(context.Background(), photo(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, res.MemoID)
	assert.Equal(t, []string{res.ID}, c.Staging.IDs())

	_, err = c.UploadResource(context.Background(), photo(), "other")
	assert.True(t, errs.Is(err, errs.CodeInvalidRequest))
	assert.ErrorIs(t, err, draft.ErrForeignResource)
	assert.Equal(t, 1, repo.CallCount("CreateResource"))
}

func TestUploadFile(t *testing.T) {
	c, _, _ := setup()
	path := filepath.Join(t.TempDir(), "shot.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, photo()))
	require.NoError(t, f.Close())

	res, err := c.UploadFile(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", res.MimeType)

	_, err = c.UploadFile(context.Background(), filepath.Join(t.TempDir(), "missing.png"), "")
	assert.True(t, errs.Is(err, errs.CodeInvalidRequest))
}

func TestDeleteResourceUnstages(t *testing.T) {
	c, _, _ := setup()
	res, err := c.UploadResource(context.Background(), photo(), "")
	require.NoError(t, err)

	require.NoError(t, c.DeleteResource(context.Background(), res.ID))
	assert.Zero(t, c.Staging.Len())
}

func TestDeleteResourceNotStagedIsFine(t *testing.T) {
	c, repo, _ := setup()
	other, err := repo.CreateResource(context.Background(), remote.ResourceCreate{Filename: "other.jpg", MimeType: "image/jpeg", Content: []byte{1}})
	require.NoError(t, err)
	require.NoError(t, c.Staging.Stage(memo.Resource{ID: "keep"}))

	require.NoError(t, c.DeleteResource(context.Background(), other.ID))
	assert.Equal(t, []string{"keep"}, c.Staging.IDs())
}

func TestDeleteResourceFailureKeepsStaging(t *testing.T) {
	c, repo, _ := setup()
	require.NoError(t, c.Staging.Stage(memo.Resource{ID: "r1"}))
	repo.Fail["DeleteResource"] = errs.New(errs.CodeTransport, "offline")

	assert.Error(t, c.DeleteResource(context.Background(), "r1"))
	assert.Equal(t, []string{"r1"}, c.Staging.IDs())
}

func TestNoRepository(t *testing.T) {
	c := &Coordinator{}
	_, err := c.CreateMemo(context.Background(), "x", memo.Private, nil)
	assert.Error(t, err)
}

func TestDeleteResourcePaddedIDUnstages(t *testing.T) {
	c, repo, _ := setup()
	res, err := c.UploadResource(context.Background(), photo(), "")
	require.NoError(t, err)

	require.NoError(t, c.DeleteResource(context.Background(), "  "+res.ID+"\n"))
	_, ok := repo.Resource(res.ID)
	assert.False(t, ok)
	assert.Zero(t, c.Staging.Len())
}

// misbindingRepo reports every new resource as owned by another memo.
type misbindingRepo struct {
	*remotetest.Fake
}

func (r misbindingRepo) CreateResource(ctx context.Context, in remote.ResourceCreate) (*memo.Resource, error) {
	res, err := r.Fake.CreateResource(ctx, in)
	if err != nil {
		return nil, err
	}
	res.MemoID = "elsewhere"
	return res, nil
}

func TestUploadThatCannotBeStagedIsRemoved(t *testing.T) {
	fake := remotetest.New()
	c := New(misbindingRepo{fake}, nil)

	_, err := c.UploadResource(context.Background(), photo(), "")
	assert.ErrorIs(t, err, draft.ErrForeignResource)
	assert.Zero(t, c.Staging.Len())
	assert.Equal(t, 1, fake.CallCount("DeleteResource"))
	left, err := fake.ListResources(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestForkHasItsOwnSession(t *testing.T) {
	c, repo, rec := setup()
	require.NoError(t, c.Staging.Stage(memo.Resource{ID: "shared"}))

	f := c.Fork()
	assert.Zero(t, f.Staging.Len())
	m, err := f.CreateMemo(context.Background(), "forked", memo.Private, nil)
	require.NoError(t, err)
	assert.Empty(t, m.Resources)
	assert.Equal(t, 1, rec.count(), "forks share the notifier")
	assert.Equal(t, 1, repo.CallCount("CreateMemo"))
	assert.Equal(t, []string{"shared"}, c.Staging.IDs())
}
