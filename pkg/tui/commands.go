package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tableflip.dev/memos/pkg/memo"
	"tableflip.dev/memos/pkg/nav"
)

// draftDelay batches keystrokes into one draft write.
const draftDelay = 300 * time.Millisecond

type memosLoadedMsg struct {
	memos []*memo.Memo
	err   error
}

type memoLoadedMsg struct {
	memo      *memo.Memo
	resources []memo.Resource
	err       error
}

type draftLoadedMsg struct {
	text string
}

type draftTickMsg struct {
	seq int
}

type draftSavedMsg struct {
	err error
}

// savedMsg reports a submit. route and session are those of the screen the
// submit was made from.
type savedMsg struct {
	route   nav.Route
	session int
	memo    *memo.Memo
	err     error
}

type deletedMsg struct {
	id  string
	err error
}

// requestMsg carries a navigation request that arrived while running.
type requestMsg struct {
	request nav.Request
}

func (m Model) loadMemos() tea.Cmd {
	ctx, repo := m.ctx, m.coord.Repository
	return func() tea.Msg {
		memos, err := repo.ListMemos(ctx)
		if err == nil {
			memo.SortRecent(memos)
		}
		return memosLoadedMsg{memos: memos, err: err}
	}
}

func (m Model) loadMemo(id string) tea.Cmd {
	ctx, repo := m.ctx, m.coord.Repository
	return func() tea.Msg {
		found, err := repo.GetMemo(ctx, id)
		if err != nil {
			return memoLoadedMsg{err: err}
		}
		resources, err := repo.ListResources(ctx, id)
		return memoLoadedMsg{memo: found, resources: resources, err: err}
	}
}

func (m Model) loadDraft() tea.Cmd {
	if m.drafts == nil {
		return nil
	}
	drafts := m.drafts
	return func() tea.Msg {
		text, err := drafts.CurrentDraft()
		if err != nil {
			m.log.WithError(err).Debug("read draft")
		}
		return draftLoadedMsg{text: text}
	}
}

func (m Model) scheduleDraft() tea.Cmd {
	seq := m.draftSeq
	return tea.Tick(draftDelay, func(time.Time) tea.Msg { return draftTickMsg{seq: seq} })
}

// writeDraft persists text off the UI goroutine.
func (m Model) writeDraft(text string) tea.Cmd {
	if m.drafts == nil {
		return nil
	}
	drafts := m.drafts
	return func() tea.Msg {
		return draftSavedMsg{err: drafts.WriteCurrentDraft(text)}
	}
}

func (m Model) submit(content string, vis memo.Visibility) tea.Cmd {
	ctx, coord, route, session := m.ctx, m.coord, m.route, m.session
	tags := memo.ExtractTags(content)
	return func() tea.Msg {
		msg := savedMsg{route: route, session: session}
		if route.Screen == nav.ScreenEdit {
			msg.memo, msg.err = coord.EditMemo(ctx, route.MemoID, content, vis, tags)
			return msg
		}
		msg.memo, msg.err = coord.CreateMemo(ctx, content, vis, tags)
		return msg
	}
}

func (m Model) deleteMemo(id string) tea.Cmd {
	ctx, coord := m.ctx, m.coord
	return func() tea.Msg {
		return deletedMsg{id: id, err: coord.DeleteMemo(ctx, id)}
	}
}

// waitForRequest blocks on the inbox stream. A closed stream ends the wait
// for good.
func waitForRequest(ctx context.Context, requests <-chan nav.Request) tea.Cmd {
	if requests == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case r, ok := <-requests:
			if !ok {
				return nil
			}
			return requestMsg{request: r}
		case <-ctx.Done():
			return nil
		}
	}
}
