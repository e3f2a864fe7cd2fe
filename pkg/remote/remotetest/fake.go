// Package remotetest provides an in-memory remote.Repository for tests.
package remotetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tableflip.dev/memos/pkg/errs"
	"tableflip.dev/memos/pkg/memo"
	"tableflip.dev/memos/pkg/remote"
)

// Fake is an in-memory repository. Set Err to make every call fail with it,
// or Fail to fail selected operations by name ("CreateMemo", "ListMemos", ...).
type Fake struct {
	mu        sync.Mutex
	memos     map[string]*memo.Memo
	resources map[string]memo.Resource
	seq       int
	clock     time.Time

	Err  error
	Fail map[string]error

	// BeforeList, when set, runs inside ListMemos after the collection has
	// been copied and before it is returned.
	BeforeList func(ctx context.Context)

	Calls []string
}

// New returns an empty fake whose clock starts at a fixed instant.
func New() *Fake {
	return &Fake{
		memos:     map[string]*memo.Memo{},
		resources: map[string]memo.Resource{},
		Fail:      map[string]error{},
		clock:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *Fake) enter(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, op)
	if f.Err != nil {
		return f.Err
	}
	return f.Fail[op]
}

// CallCount reports how often op was invoked.
func (f *Fake) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == op {
			n++
		}
	}
	return n
}

// SetError replaces Err under the fake's lock.
func (f *Fake) SetError(err error) {
	f.mu.Lock()
	f.Err = err
	f.mu.Unlock()
}

func (f *Fake) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

// Seed inserts memos created one minute apart in the given order, so the last
// one is the most recent.
func (f *Fake) Seed(contents ...string) []*memo.Memo {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*memo.Memo
	for _, c := range contents {
		out = append(out, f.insert(c, memo.Private, nil, nil).Clone())
	}
	return out
}

func (f *Fake) insert(content string, vis memo.Visibility, resources, tags []string) *memo.Memo {
	f.clock = f.clock.Add(time.Minute)
	m := &memo.Memo{
		ID:         f.nextID("m"),
		Content:    content,
		Visibility: vis,
		Created:    f.clock,
		Resources:  append([]string(nil), resources...),
		Tags:       append([]string(nil), tags...),
	}
	f.memos[m.ID] = m
	return m
}

func (f *Fake) bind(memoID string, ids []string) error {
	for _, id := range ids {
		r, ok := f.resources[id]
		if !ok {
			return errs.New(errs.CodeValidation, "unknown resource "+id)
		}
		r.MemoID = memoID
		f.resources[id] = r
	}
	return nil
}

func (f *Fake) CreateMemo(ctx context.Context, in remote.MemoCreate) (*memo.Memo, error) {
	if err := f.enter("CreateMemo"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range in.ResourceIDs {
		if _, ok := f.resources[id]; !ok {
			return nil, errs.New(errs.CodeValidation, "unknown resource "+id)
		}
	}
	m := f.insert(in.Content, in.Visibility, in.ResourceIDs, in.Tags)
	_ = f.bind(m.ID, in.ResourceIDs)
	return m.Clone(), nil
}

func (f *Fake) UpdateMemo(ctx context.Context, id string, in remote.MemoPatch) (*memo.Memo, error) {
	if err := f.enter("UpdateMemo"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memos[id]
	if !ok {
		return nil, errs.New(errs.CodeNotFound, "memo "+id+" not found")
	}
	for rid, r := range f.resources {
		if r.MemoID == id {
			r.MemoID = ""
			f.resources[rid] = r
		}
	}
	if err := f.bind(id, in.ResourceIDs); err != nil {
		return nil, err
	}
	m.Content = in.Content
	m.Visibility = in.Visibility
	m.Resources = append([]string(nil), in.ResourceIDs...)
	m.Tags = append([]string(nil), in.Tags...)
	return m.Clone(), nil
}

func (f *Fake) DeleteMemo(ctx context.Context, id string) error {
	if err := f.enter("DeleteMemo"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.memos[id]; !ok {
		return errs.New(errs.CodeNotFound, "memo "+id+" not found")
	}
	delete(f.memos, id)
	for rid, r := range f.resources {
		if r.MemoID == id {
			delete(f.resources, rid)
		}
	}
	return nil
}

func (f *Fake) GetMemo(ctx context.Context, id string) (*memo.Memo, error) {
	if err := f.enter("GetMemo"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memos[id]
	if !ok {
		return nil, errs.New(errs.CodeNotFound, "memo "+id+" not found")
	}
	return m.Clone(), nil
}

func (f *Fake) ListMemos(ctx context.Context) ([]*memo.Memo, error) {
	if err := f.enter("ListMemos"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	out := make([]*memo.Memo, 0, len(f.memos))
	for _, m := range f.memos {
		out = append(out, m.Clone())
	}
	hook := f.BeforeList
	f.mu.Unlock()

	memo.SortRecent(out)
	if hook != nil {
		hook(ctx)
	}
	return out, nil
}

func (f *Fake) CreateResource(ctx context.Context, in remote.ResourceCreate) (*memo.Resource, error) {
	if err := f.enter("CreateResource"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if in.MemoID != "" {
		if _, ok := f.memos[in.MemoID]; !ok {
			return nil, errs.New(errs.CodeNotFound, "memo "+in.MemoID+" not found")
		}
	}
	r := memo.Resource{
		ID:           f.nextID("r"),
		Filename:     in.Filename,
		MimeType:     in.MimeType,
		Size:         int64(len(in.Content)),
		ExternalLink: in.ExternalLink,
		MemoID:       in.MemoID,
	}
	f.resources[r.ID] = r
	return &r, nil
}

func (f *Fake) DeleteResource(ctx context.Context, id string) error {
	if err := f.enter("DeleteResource"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.resources[id]; !ok {
		return errs.New(errs.CodeNotFound, "resource "+id+" not found")
	}
	delete(f.resources, id)
	return nil
}

func (f *Fake) ListResources(ctx context.Context, memoID string) ([]memo.Resource, error) {
	if err := f.enter("ListResources"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []memo.Resource
	for _, r := range f.resources {
		if memoID == "" || r.MemoID == memoID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Resource returns a stored resource.
func (f *Fake) Resource(id string) (memo.Resource, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resources[id]
	return r, ok
}

var _ remote.Repository = (*Fake)(nil)
