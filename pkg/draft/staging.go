package draft

import (
	"errors"
	"sync"

	"tableflip.dev/memos/pkg/memo"
)

// ErrForeignResource is returned when staging a resource that already belongs
// to a memo other than the one being edited.
var ErrForeignResource = errors.New("draft: resource is bound to another memo")

// Staging is the ordered list of resources to attach on the next submit. It
// is scoped to one compose or edit session and lives only in memory.
type Staging struct {
	mu        sync.Mutex
	memoID    string
	resources []memo.Resource
}

// NewStaging returns an empty compose session.
func NewStaging() *Staging {
	return &Staging{}
}

// Begin starts a new session, discarding anything left from the previous one.
// memoID is empty for compose and the edited memo's id for edit; seed lists
// resources already attached to that memo.
func (s *Staging) Begin(memoID string, seed ...memo.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memoID = memoID
	s.resources = nil
	for _, r := range seed {
		if err := s.stageLocked(r); err != nil {
			s.resources = nil
			return err
		}
	}
	return nil
}

// End closes the session after submit or cancel.
func (s *Staging) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memoID = ""
	s.resources = nil
}

// MemoID is the memo the session edits, empty while composing.
func (s *Staging) MemoID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memoID
}

// Stage appends r, or replaces the entry with the same id in place.
func (s *Staging) Stage(r memo.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stageLocked(r)
}

func (s *Staging) stageLocked(r memo.Resource) error {
	if r.ID == "" {
		return errors.New("draft: resource id required")
	}
	if r.Bound() && r.MemoID != s.memoID {
		return ErrForeignResource
	}
	for i := range s.resources {
		if s.resources[i].ID == r.ID {
			s.resources[i] = r
			return nil
		}
	}
	s.resources = append(s.resources, r)
	return nil
}

// Unstage removes the resource with id. Unknown ids are ignored.
func (s *Staging) Unstage(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.resources {
		if s.resources[i].ID == id {
			s.resources = append(s.resources[:i], s.resources[i+1:]...)
			return
		}
	}
}

// List returns a copy of the staged resources in order.
func (s *Staging) List() []memo.Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]memo.Resource(nil), s.resources...)
}

// IDs returns the staged resource ids in order.
func (s *Staging) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.resources))
	for _, r := range s.resources {
		ids = append(ids, r.ID)
	}
	return ids
}

// Len is the number of staged resources.
func (s *Staging) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resources)
}
