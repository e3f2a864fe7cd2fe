package draft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/memos/pkg/memo"
)

func TestStageIsSetLikeOnID(t *testing.T) {
	s := NewStaging()
	r := memo.Resource{ID: "r1", Filename: "a.jpg"}

	require.NoError(t, s.Stage(r))
	require.NoError(t, s.Stage(memo.Resource{ID: "r1", Filename: "renamed.jpg"}))
	assert.Equal(t, []string{"r1"}, s.IDs())
	assert.Equal(t, "renamed.jpg", s.List()[0].Filename)

	s.Unstage("r1")
	s.Unstage("r1")
	assert.Empty(t, s.IDs())

	require.NoError(t, s.Stage(r))
	assert.Equal(t, []string{"r1"}, s.IDs())
}

func TestStageKeepsOrder(t *testing.T) {
	s := NewStaging()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Stage(memo.Resource{ID: id}))
	}
	s.Unstage("b")
	require.NoError(t, s.Stage(memo.Resource{ID: "b"}))
	assert.Equal(t, []string{"a", "c", "b"}, s.IDs())
}

func TestStageRejectsResourceOfAnotherMemo(t *testing.T) {
	s := NewStaging()
	err := s.Stage(memo.Resource{ID: "r1", MemoID: "m9"})
	assert.ErrorIs(t, err, ErrForeignResource)

	require.NoError(t, s.Begin("m9"))
	require.NoError(t, s.Stage(memo.Resource{ID: "r1", MemoID: "m9"}))
	assert.ErrorIs(t, s.Stage(memo.Resource{ID: "r2", MemoID: "m1"}), ErrForeignResource)
	require.NoError(t, s.Stage(memo.Resource{ID: "r3"}))
	assert.Equal(t, []string{"r1", "r3"}, s.IDs())
}

func TestBeginSeedsAndEndClears(t *testing.T) {
	s := NewStaging()
	require.NoError(t, s.Stage(memo.Resource{ID: "leftover"}))

	require.NoError(t, s.Begin("m1", memo.Resource{ID: "r1", MemoID: "m1"}))
	assert.Equal(t, "m1", s.MemoID())
	assert.Equal(t, []string{"r1"}, s.IDs())

	s.End()
	assert.Equal(t, "", s.MemoID())
	assert.Zero(t, s.Len())
}

func TestBeginRejectsForeignSeed(t *testing.T) {
	s := NewStaging()
	err := s.Begin("m1", memo.Resource{ID: "r1", MemoID: "m2"})
	assert.ErrorIs(t, err, ErrForeignResource)
	assert.Zero(t, s.Len())
}

func TestListReturnsCopy(t *testing.T) {
	s := NewStaging()
	require.NoError(t, s.Stage(memo.Resource{ID: "r1"}))
	list := s.List()
	list[0].ID = "mutated"
	assert.Equal(t, []string{"r1"}, s.IDs())
}
