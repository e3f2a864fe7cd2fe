package devserver_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/memos/pkg/devserver"
	"tableflip.dev/memos/pkg/errs"
	"tableflip.dev/memos/pkg/memo"
	"tableflip.dev/memos/pkg/remote"
)

func TestMain(m *testing.M) {
	if !devserver.CGOEnabled {
		fmt.Println("skipping devserver tests: sqlite requires cgo")
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func newServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	store, err := devserver.OpenStore(filepath.Join(t.TempDir(), "memos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	srv := httptest.NewServer(devserver.New(store, token).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func newRepo(t *testing.T, url, token string) *remote.HTTPRepository {
	t.Helper()
	repo, err := remote.NewHTTPRepository(url, token)
	require.NoError(t, err)
	return repo
}

func TestMemoLifecycle(t *testing.T) {
	srv := newServer(t, "")
	repo := newRepo(t, srv.URL, "")
	ctx := context.Background()

	created, err := repo.CreateMemo(ctx, remote.MemoCreate{Content: "hello", Visibility: memo.Private, Tags: []string{"a"}})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "hello", created.Content)
	assert.Equal(t, []string{"a"}, created.Tags)

	updated, err := repo.UpdateMemo(ctx, created.ID, remote.MemoPatch{Content: "hello again", Visibility: memo.Public})
	require.NoError(t, err)
	assert.Equal(t, "hello again", updated.Content)
	assert.Equal(t, memo.Public, updated.Visibility)

	got, err := repo.GetMemo(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello again", got.Content)

	require.NoError(t, repo.DeleteMemo(ctx, created.ID))
	_, err = repo.GetMemo(ctx, created.ID)
	assert.True(t, errs.Is(err, errs.CodeNotFound), "got %v", err)
}

func TestListMemosMostRecentFirst(t *testing.T) {
	srv := newServer(t, "")
	repo := newRepo(t, srv.URL, "")
	ctx := context.Background()

	var ids []string
	for i := 0; i < 4; i++ {
		m, err := repo.CreateMemo(ctx, remote.MemoCreate{Content: fmt.Sprintf("m%d", i), Visibility: memo.Private})
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}
	list, err := repo.ListMemos(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	for i, m := range list {
		assert.Equal(t, ids[len(ids)-1-i], m.ID)
	}
}

func TestResourcesBindToMemo(t *testing.T) {
	srv := newServer(t, "")
	repo := newRepo(t, srv.URL, "")
	ctx := context.Background()

	r1, err := repo.CreateResource(ctx, remote.ResourceCreate{Filename: "a.jpg", MimeType: "image/jpeg", Content: []byte{1, 2, 3}})
	require.NoError(t, err)
	assert.False(t, r1.Bound())
	assert.EqualValues(t, 3, r1.Size)

	m, err := repo.CreateMemo(ctx, remote.MemoCreate{Content: "with image", Visibility: memo.Private, ResourceIDs: []string{r1.ID}})
	require.NoError(t, err)
	assert.Equal(t, []string{r1.ID}, m.Resources)

	list, err := repo.ListResources(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, m.ID, list[0].MemoID)

	// Dropping the resource from the list unbinds it.
	_, err = repo.UpdateMemo(ctx, m.ID, remote.MemoPatch{Content: "no image", Visibility: memo.Private})
	require.NoError(t, err)
	list, err = repo.ListResources(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	resp, err := http.Get(srv.URL + "/o/r/" + r1.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))

	require.NoError(t, repo.DeleteResource(ctx, r1.ID))
	err = repo.DeleteResource(ctx, r1.ID)
	assert.True(t, errs.Is(err, errs.CodeNotFound), "got %v", err)
}

func TestUnknownResourceIsValidationError(t *testing.T) {
	srv := newServer(t, "")
	repo := newRepo(t, srv.URL, "")

	_, err := repo.CreateMemo(context.Background(), remote.MemoCreate{
		Content: "x", Visibility: memo.Private, ResourceIDs: []string{"missing"},
	})
	assert.True(t, errs.Is(err, errs.CodeValidation), "got %v", err)

	list, err := repo.ListMemos(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list, "failed create must not leave a memo behind")
}

func TestTokenRequired(t *testing.T) {
	srv := newServer(t, "secret")

	_, err := newRepo(t, srv.URL, "").ListMemos(context.Background())
	assert.True(t, errs.Is(err, errs.CodeAuth), "got %v", err)

	_, err = newRepo(t, srv.URL, "wrong").ListMemos(context.Background())
	assert.True(t, errs.Is(err, errs.CodeAuth), "got %v", err)

	list, err := newRepo(t, srv.URL, "secret").ListMemos(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
