// Package fswatch turns filesystem activity in a directory into coalesced
// change ticks.
package fswatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"tableflip.dev/memos/pkg/logging"
)

// DefaultDelay is the coalescing window used when none is given.
const DefaultDelay = 50 * time.Millisecond

// Dir watches dir and emits one tick per burst of events whose file name
// satisfies match (nil matches everything). Watcher errors are reported as a
// tick so consumers re-read rather than trust a possibly missed event. The
// channel is closed once ctx is done or the watcher stops.
func Dir(ctx context.Context, dir string, match func(name string) bool, delay time.Duration) (<-chan struct{}, error) {
	if dir == "" {
		return nil, fmt.Errorf("fswatch: directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fswatch: ensure %s: %w", dir, err)
	}
	if delay <= 0 {
		delay = DefaultDelay
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fswatch: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			if err := watcher.Close(); err != nil {
				logging.NewLogger("fswatch").WithError(err).Debug("watcher close")
			}
		})
	}
	if err := watcher.Add(dir); err != nil {
		closeWatcher()
		return nil, fmt.Errorf("fswatch: watch %s: %w", dir, err)
	}

	ticks := make(chan struct{}, 1)

	go func() {
		defer close(ticks)
		defer closeWatcher()

		log := logging.NewLogger("fswatch").WithField("dir", dir)
		send := func() {
			// Drop if the consumer still holds an unread tick; it will
			// re-read everything anyway.
			select {
			case ticks <- struct{}{}:
			default:
			}
		}

		throttle := newThrottle(delay)
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Debug("watcher error, forcing refresh")
				throttle.Enqueue()
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if match != nil && !match(filepath.Base(evt.Name)) {
					continue
				}
				throttle.Enqueue()
			case <-throttle.C():
				send()
			}
		}
	}()

	return ticks, nil
}

// throttle coalesces bursts of change notifications into one tick on C.
type throttle struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	fire  chan struct{}
}

func newThrottle(delay time.Duration) *throttle {
	return &throttle{delay: delay, fire: make(chan struct{}, 1)}
}

func (t *throttle) C() <-chan struct{} {
	return t.fire
}

func (t *throttle) Enqueue() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		return
	}
	t.timer = time.AfterFunc(t.delay, func() {
		t.mu.Lock()
		t.timer = nil
		t.mu.Unlock()
		select {
		case t.fire <- struct{}{}:
		default:
		}
	})
}

func (t *throttle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
