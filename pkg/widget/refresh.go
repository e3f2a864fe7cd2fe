package widget

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"tableflip.dev/memos/pkg/errs"
	"tableflip.dev/memos/pkg/logging"
	"tableflip.dev/memos/pkg/memo"
	"tableflip.dev/memos/pkg/signal"
)

// DefaultInterval is the scheduled refresh cadence.
const DefaultInterval = 30 * time.Minute

// Trigger sources.
const (
	SourceSchedule = "schedule"
	SourceSignal   = "signal"
	SourceManual   = "manual"
)

// Source lists the remote collection.
type Source interface {
	ListMemos(ctx context.Context) ([]*memo.Memo, error)
}

// RefreshCoordinator refetches the snapshot on a schedule and whenever a
// refresh signal arrives, then redraws every registered instance.
//
// Every trigger starts its own fetch. Overlapping fetches are not
// deduplicated or ordered: whichever finishes last owns the snapshot.
type RefreshCoordinator struct {
	Source   Source
	Surface  *Surface
	Registry *Registry
	Interval time.Duration
	Width    int
	Metrics  *Metrics
	Now      func() time.Time

	log      *logrus.Entry
	inflight sync.WaitGroup
}

// NewRefreshCoordinator wires a coordinator with default interval and width.
func NewRefreshCoordinator(src Source, surface *Surface, reg *Registry) *RefreshCoordinator {
	return &RefreshCoordinator{
		Source:   src,
		Surface:  surface,
		Registry: reg,
		Interval: DefaultInterval,
		Width:    DefaultWidth,
		Now:      time.Now,
		log:      logging.NewLogger("widget"),
	}
}

func (c *RefreshCoordinator) logger() *logrus.Entry {
	if c.log == nil {
		c.log = logging.NewLogger("widget")
	}
	return c.log
}

func (c *RefreshCoordinator) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Fetch lists the collection, keeps the most recent Cap memos, replaces the
// snapshot and redraws all instances. On failure the previous snapshot stays
// as it was and the returned error is coded STALE_SNAPSHOT, wrapping the
// remote failure.
func (c *RefreshCoordinator) Fetch(ctx context.Context) error {
	list, err := c.Source.ListMemos(ctx)
	if err != nil {
		c.Metrics.fetch("error")
		c.logger().WithError(err).WithField("code", errs.GetCode(err)).Warn("widget refresh failed, keeping previous snapshot")
		return errs.Wrap(err, errs.CodeStaleSnapshot, "refresh failed, snapshot kept")
	}

	ordered := make([]*memo.Memo, 0, len(list))
	for _, m := range list {
		if m != nil {
			ordered = append(ordered, m)
		}
	}
	memo.SortRecent(ordered)
	snap := c.Surface.Replace(ordered, c.now())
	c.Metrics.fetch("ok")
	c.Metrics.size(len(snap.Memos))
	c.logger().WithFields(logrus.Fields{"memos": len(snap.Memos), "generation": snap.Generation}).Debug("snapshot replaced")

	c.RedrawAll()
	return nil
}

// RedrawAll renders the current snapshot and draws it on every instance the
// registry knows about right now.
func (c *RefreshCoordinator) RedrawAll() {
	if c.Registry == nil {
		return
	}
	frame := Render(c.Surface.Snapshot(), c.Width, c.now())
	for _, id := range c.Registry.IDs() {
		if err := c.Registry.Redraw(id, frame); err != nil {
			c.Metrics.redraw("error")
			c.logger().WithError(err).WithField("instance", id).Warn("redraw failed")
			continue
		}
		c.Metrics.redraw("ok")
	}
}

// Trigger starts a fetch in the background. The outcome is only logged.
func (c *RefreshCoordinator) Trigger(ctx context.Context, source string) {
	c.Metrics.trigger(source)
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		_ = c.Fetch(ctx)
	}()
}

// Run performs one scheduled fetch immediately, then triggers a fetch on
// every tick and every signal until ctx is done. It waits for in-flight
// fetches before returning.
func (c *RefreshCoordinator) Run(ctx context.Context, signals <-chan signal.Signal) error {
	interval := c.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer c.inflight.Wait()

	c.logger().WithField("interval", interval).Info("widget refresh running")
	c.Trigger(ctx, SourceSchedule)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Trigger(ctx, SourceSchedule)
		case _, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			c.Trigger(ctx, SourceSignal)
		}
	}
}
