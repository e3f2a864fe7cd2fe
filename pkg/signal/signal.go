// Package signal carries the Refresh Signal: an unreliable, coalescing,
// payload-light "something changed" notification.
//
// Delivery is at most once. A consumer that is not listening misses the
// signal and must rely on its own periodic refresh.
package signal

import (
	"context"
	"sync"

	"tableflip.dev/memos/pkg/memo"
)

// Signal reports a change. Memo is advisory and may be nil.
type Signal struct {
	Memo *memo.Memo `json:"memo,omitempty"`
}

// Notifier emits refresh signals. Notify never blocks on a slow consumer and
// never reports failure.
type Notifier interface {
	Notify(ctx context.Context, s Signal)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, s Signal)

func (f NotifierFunc) Notify(ctx context.Context, s Signal) { f(ctx, s) }

// Nop drops every signal.
var Nop Notifier = NotifierFunc(func(context.Context, Signal) {})

// Bus broadcasts signals to in-process subscribers.
type Bus struct {
	mu   sync.Mutex
	subs map[chan Signal]struct{}
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[chan Signal]struct{})}
}

// Subscribe returns a channel that receives signals and a cancel func that
// removes and closes it. Each subscriber buffers one signal; further signals
// arriving before it is read coalesce into it.
func (b *Bus) Subscribe() (<-chan Signal, func()) {
	ch := make(chan Signal, 1)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Notify delivers s to every subscriber without blocking.
func (b *Bus) Notify(_ context.Context, s Signal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- s:
		default:
			// A signal is already pending for this subscriber.
		}
	}
}

// Subscribers reports how many consumers are listening.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Multi fans a signal out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, s Signal) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, s)
		}
	}
}
