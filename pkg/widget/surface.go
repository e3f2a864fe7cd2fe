// Package widget keeps the bounded snapshot shown by widget instances and
// refreshes it from the remote.
package widget

import (
	"sync"
	"time"

	"tableflip.dev/memos/pkg/memo"
)

// DefaultCap is the number of memos a widget shows.
const DefaultCap = 3

// Snapshot is the bounded, most-recent-first view of the collection.
type Snapshot struct {
	Memos      []*memo.Memo `json:"memos"`
	FetchedAt  time.Time    `json:"fetchedAt"`
	Generation uint64       `json:"generation"`
}

func (s Snapshot) clone() Snapshot {
	cp := s
	cp.Memos = make([]*memo.Memo, len(s.Memos))
	for i, m := range s.Memos {
		cp.Memos[i] = m.Clone()
	}
	return cp
}

// Surface owns the widget snapshot. Replace is the only way to change it.
type Surface struct {
	mu   sync.RWMutex
	cap  int
	snap Snapshot
}

// NewSurface returns an empty surface holding at most limit memos.
func NewSurface(limit int) *Surface {
	if limit <= 0 {
		limit = DefaultCap
	}
	return &Surface{cap: limit, snap: Snapshot{Memos: []*memo.Memo{}}}
}

// Cap is the snapshot bound.
func (s *Surface) Cap() int {
	return s.cap
}

// Replace swaps the whole snapshot for memos, which must already be ordered
// most-recent-first. Anything past the cap is dropped.
func (s *Surface) Replace(memos []*memo.Memo, fetchedAt time.Time) Snapshot {
	if len(memos) > s.cap {
		memos = memos[:s.cap]
	}
	next := Snapshot{Memos: memos, FetchedAt: fetchedAt}.clone()

	s.mu.Lock()
	next.Generation = s.snap.Generation + 1
	s.snap = next
	s.mu.Unlock()
	return next.clone()
}

// Snapshot returns a copy of the current snapshot.
func (s *Surface) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}
