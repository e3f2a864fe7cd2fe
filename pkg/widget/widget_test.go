package widget

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/memos/pkg/errs"
	"tableflip.dev/memos/pkg/memo"
	"tableflip.dev/memos/pkg/remote/remotetest"
	"tableflip.dev/memos/pkg/signal"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingInstance struct {
	id     string
	mu     sync.Mutex
	frames []Frame
	err    error
}

func (r *recordingInstance) ID() string   { return r.id }
func (r *recordingInstance) Kind() string { return "test" }
func (r *recordingInstance) Draw(f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return r.err
}

func (r *recordingInstance) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func newCoordinator(src Source, limit int) *RefreshCoordinator {
	c := NewRefreshCoordinator(src, NewSurface(limit), NewRegistry())
	c.Now = func() time.Time { return epoch.Add(time.Hour) }
	return c
}

func contents(s Snapshot) []string {
	var out []string
	for _, m := range s.Memos {
		out = append(out, m.Content)
	}
	return out
}

func TestSurfaceReplaceIsBoundedCopy(t *testing.T) {
	s := NewSurface(2)
	in := []*memo.Memo{{ID: "c", Content: "c"}, {ID: "b", Content: "b"}, {ID: "a", Content: "a"}}
	snap := s.Replace(in, epoch)
	assert.Equal(t, []string{"c", "b"}, contents(snap))
	assert.EqualValues(t, 1, snap.Generation)

	in[0].Content = "mutated"
	got := s.Snapshot()
	assert.Equal(t, []string{"c", "b"}, contents(got))

	got.Memos[0].Content = "also mutated"
	assert.Equal(t, "c", s.Snapshot().Memos[0].Content)
}

func TestSurfaceDefaultCap(t *testing.T) {
	assert.Equal(t, DefaultCap, NewSurface(0).Cap())
	assert.Empty(t, NewSurface(0).Snapshot().Memos)
}

func TestFetchNeverExceedsCap(t *testing.T) {
	for _, total := range []int{0, 1, 3, 10} {
		t.Run(fmt.Sprint(total), func(t *testing.T) {
			repo := remotetest.New()
			for i := 0; i < total; i++ {
				repo.Seed(fmt.Sprintf("memo %d", i))
			}
			c := newCoordinator(repo, 3)
			require.NoError(t, c.Fetch(context.Background()))

			snap := c.Surface.Snapshot()
			assert.LessOrEqual(t, len(snap.Memos), 3)
			if total > 0 {
				assert.Equal(t, fmt.Sprintf("memo %d", total-1), snap.Memos[0].Content)
			}
		})
	}
}

func TestFailedFetchKeepsSnapshot(t *testing.T) {
	repo := remotetest.New()
	repo.Seed("one", "two")
	c := newCoordinator(repo, 3)
	inst := &recordingInstance{id: "v1"}
	require.NoError(t, c.Registry.Register(inst))
	require.NoError(t, c.Fetch(context.Background()))
	before := c.Surface.Snapshot()

	cause := errs.New(errs.CodeTransport, "offline")
	repo.SetError(cause)
	err := c.Fetch(context.Background())

	assert.Equal(t, errs.CodeStaleSnapshot, errs.GetCode(err))
	assert.True(t, errs.Is(err, errs.CodeTransport))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, before, c.Surface.Snapshot())
	assert.Equal(t, 1, inst.count(), "a failed fetch does not redraw")
}

func TestFetchRedrawsEveryInstance(t *testing.T) {
	repo := remotetest.New()
	repo.Seed("hello")
	c := newCoordinator(repo, 3)

	a := &recordingInstance{id: "a"}
	b := &recordingInstance{id: "b", err: errors.New("gone")}
	d := &recordingInstance{id: "d"}
	for _, inst := range []*recordingInstance{a, b, d} {
		require.NoError(t, c.Registry.Register(inst))
	}
	c.Metrics = NewMetrics(nil)

	require.NoError(t, c.Fetch(context.Background()))
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
	assert.Equal(t, 1, d.count(), "a failing instance does not stop the fan-out")
	assert.Equal(t, []string{"hello"}, contents(a.frames[0].Snapshot))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.Metrics.Redraws.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.Metrics.Redraws.WithLabelValues("error")))

	c.Registry.Unregister("d")
	require.NoError(t, c.Fetch(context.Background()))
	assert.Equal(t, 1, d.count())
	assert.Equal(t, 2, a.count())
}

// gatedSource blocks the first ListMemos until release is closed.
type gatedSource struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (g *gatedSource) ListMemos(ctx context.Context) ([]*memo.Memo, error) {
	g.mu.Lock()
	g.calls++
	call := g.calls
	g.mu.Unlock()

	if call == 1 {
		close(g.started)
		<-g.release
		return []*memo.Memo{{ID: "a", Content: "from fetch A", Created: epoch}}, nil
	}
	return []*memo.Memo{{ID: "b", Content: "from fetch B", Created: epoch.Add(time.Minute)}}, nil
}

func TestOverlappingFetchesLastWriterWins(t *testing.T) {
	src := &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
	c := newCoordinator(src, 3)

	done := make(chan error, 1)
	go func() { done <- c.Fetch(context.Background()) }()
	<-src.started

	require.NoError(t, c.Fetch(context.Background()))
	assert.Equal(t, []string{"from fetch B"}, contents(c.Surface.Snapshot()))

	close(src.release)
	require.NoError(t, <-done)

	snap := c.Surface.Snapshot()
	assert.Equal(t, []string{"from fetch A"}, contents(snap), "the fetch that finished last wins")
	assert.EqualValues(t, 2, snap.Generation)
}

func TestRunFetchesOnStartAndSignal(t *testing.T) {
	repo := remotetest.New()
	repo.Seed("first")
	c := newCoordinator(repo, 3)
	c.Interval = time.Hour
	c.Metrics = NewMetrics(prometheus.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan signal.Signal, 1)
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, signals) }()

	require.Eventually(t, func() bool { return repo.CallCount("ListMemos") == 1 }, 2*time.Second, 5*time.Millisecond)
	repo.Seed("second")
	signals <- signal.Signal{}
	require.Eventually(t, func() bool {
		snap := c.Surface.Snapshot()
		return len(snap.Memos) == 2 && snap.Memos[0].Content == "second"
	}, 2*time.Second, 5*time.Millisecond)

	close(signals)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, float64(1), testutil.ToFloat64(c.Metrics.Triggers.WithLabelValues(SourceSignal)))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.Metrics.Triggers.WithLabelValues(SourceSchedule)))
}

func TestRunFetchesOnEveryTick(t *testing.T) {
	repo := remotetest.New()
	c := newCoordinator(repo, 3)
	c.Interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, nil) }()

	require.Eventually(t, func() bool { return repo.CallCount("ListMemos") >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestRenderEmptyState(t *testing.T) {
	f := Render(Snapshot{}, 40, epoch)
	assert.Contains(t, f.Text, EmptyText)
	assert.Contains(t, f.Text, "[a]")
	assert.Empty(t, f.Slots)
}

func TestRenderCards(t *testing.T) {
	snap := Snapshot{Memos: []*memo.Memo{
		{ID: "m2", Content: "line one\nline two\nline three\nline four", Created: epoch.Add(-5 * time.Minute)},
		{ID: "m1", Content: "short", Created: epoch.Add(-3 * time.Hour)},
	}}
	f := Render(snap, 40, epoch)

	assert.Equal(t, []Slot{{Key: "1", MemoID: "m2"}, {Key: "2", MemoID: "m1"}}, f.Slots)
	assert.Contains(t, f.Text, "line three…")
	assert.NotContains(t, f.Text, "line four")
	assert.Contains(t, f.Text, "5m ago")
	assert.Contains(t, f.Text, "3h ago")
	for _, line := range strings.Split(f.Text, "\n") {
		assert.LessOrEqual(t, len([]rune(line)), 40, "line %q", line)
	}
}

func TestContentLines(t *testing.T) {
	assert.Empty(t, ContentLines("   ", 10, 3))
	assert.Equal(t, []string{"a", "b"}, ContentLines("a\n\n\nb", 10, 3))
	assert.Equal(t, []string{"aaaaaaaaa…"}, ContentLines("aaaaaaaaaaaaaaa", 10, 3))

	lines := ContentLines("one two three four five six seven", 9, 2)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[1], "…"), "%q", lines[1])
}

func TestFileSinkWritesFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "widget.txt")
	sink := NewFileSink("f1", path, 0)
	require.NoError(t, sink.Draw(Frame{Text: "hello"}))
	require.NoError(t, sink.Draw(Frame{Text: "again"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "again", string(data))
	assert.Equal(t, "file", sink.Kind())
}

func TestFileSinkRendersAtOwnWidth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widget.txt")
	sink := NewFileSink("f1", path, 30)
	frame := Render(Snapshot{Memos: []*memo.Memo{{ID: "m1", Content: "hi", Created: epoch}}}, 60, epoch)
	require.NoError(t, sink.Draw(frame))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, line := range strings.Split(string(data), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), 30)
	}
	assert.Equal(t, frame.Text, frame.Resize(60).Text)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&recordingInstance{id: "b"}))
	require.NoError(t, r.Register(&recordingInstance{id: "a"}))
	assert.Error(t, r.Register(&recordingInstance{id: "a"}))
	assert.Equal(t, []string{"a", "b"}, r.IDs())
	assert.Equal(t, []InstanceInfo{{ID: "a", Kind: "test"}, {ID: "b", Kind: "test"}}, r.List())

	assert.True(t, r.Unregister("a"))
	assert.False(t, r.Unregister("a"))
	assert.Error(t, r.Redraw("a", Frame{}))
	assert.Equal(t, 1, r.Len())
}
