// Package tui hosts the Bubble Tea program for the main memo UI: a list of
// recent memos plus the compose and edit screens.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/sirupsen/logrus"

	"tableflip.dev/memos/pkg/draft"
	"tableflip.dev/memos/pkg/errs"
	"tableflip.dev/memos/pkg/logging"
	"tableflip.dev/memos/pkg/memo"
	"tableflip.dev/memos/pkg/mutation"
	"tableflip.dev/memos/pkg/nav"
	"tableflip.dev/memos/pkg/timeutil"
	"tableflip.dev/memos/pkg/tui/theme"
)

// Options wires the model to its collaborators.
type Options struct {
	Coordinator *mutation.Coordinator
	// Drafts is optional; without it compose starts empty and nothing is
	// persisted.
	Drafts *draft.Store
	// Requests delivers navigation requests that arrive while running.
	Requests <-chan nav.Request
	// Route is the first screen.
	Route nav.Route
	Now   func() time.Time
}

// Model contains UI state.
type Model struct {
	ctx      context.Context
	coord    *mutation.Coordinator
	drafts   *draft.Store
	requests <-chan nav.Request
	now      func() time.Time
	log      *logrus.Entry

	theme      theme.Theme
	listKeys   listKeys
	editorKeys editorKeys
	help       help.Model

	route nav.Route
	// session counts screen changes; replies tagged with an older value
	// belong to a screen the user already left.
	session int

	memos         []*memo.Memo
	cursor        int
	pendingDelete string

	editor     textarea.Model
	visibility memo.Visibility
	editing    *memo.Memo
	draftSeq   int
	draftDirty bool

	loading bool
	status  string
	err     error

	width  int
	height int
}

// New returns the model for ctx. Opening the first route happens in Init.
func New(ctx context.Context, opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	route := opts.Route
	if route.Screen == "" {
		route = nav.Home
	}
	ed := textarea.New()
	ed.Placeholder = "Any thoughts..."
	ed.ShowLineNumbers = false
	ed.CharLimit = 0
	if route.Screen == nav.ScreenCompose {
		ed.Focus()
	}

	return Model{
		ctx:        ctx,
		coord:      opts.Coordinator,
		drafts:     opts.Drafts,
		requests:   opts.Requests,
		now:        opts.Now,
		log:        logging.NewLogger("tui"),
		theme:      theme.Default(),
		listKeys:   defaultListKeys(),
		editorKeys: defaultEditorKeys(),
		help:       help.New(),
		route:      route,
		editor:     ed,
		visibility: memo.Private,
		loading:    route.Screen != nav.ScreenCompose,
	}
}

// Route is the screen currently shown.
func (m Model) Route() nav.Route {
	return m.route
}

// Memos is the list the list screen shows.
func (m Model) Memos() []*memo.Memo {
	return m.memos
}

// Content is the editor text.
func (m Model) Content() string {
	return m.editor.Value()
}

// Err is the last error shown in the footer.
func (m Model) Err() error {
	return m.err
}

// Init opens the first route and starts listening for navigation requests.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.openCmd(), waitForRequest(m.ctx, m.requests))
}

// openCmd loads whatever the current route needs.
func (m Model) openCmd() tea.Cmd {
	switch m.route.Screen {
	case nav.ScreenCompose:
		if err := m.coord.Staging.Begin(""); err != nil {
			m.log.WithError(err).Warn("begin compose session")
		}
		return tea.Batch(m.loadDraft(), textarea.Blink)
	case nav.ScreenEdit:
		return m.loadMemo(m.route.MemoID)
	}
	return m.loadMemos()
}

// navigate leaves the current screen and opens route. Any compose or edit
// session in progress ends.
func (m Model) navigate(route nav.Route) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.route.Screen == nav.ScreenCompose && m.draftDirty {
		cmds = append(cmds, m.writeDraft(m.editor.Value()))
	}
	if m.route.Screen != nav.ScreenList {
		m.coord.Staging.End()
	}

	m.route = route
	m.session++
	m.draftSeq++
	m.draftDirty = false
	m.pendingDelete = ""
	m.editing = nil
	m.err = nil
	m.status = ""
	m.editor.Reset()
	m.editor.Blur()
	m.visibility = memo.Private
	m.loading = false

	switch route.Screen {
	case nav.ScreenCompose:
		m.editor.Focus()
	default:
		m.loading = true
	}
	cmds = append(cmds, m.openCmd())
	return m, tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.editor.SetWidth(max(msg.Width-4, 10))
		m.editor.SetHeight(max(msg.Height-8, 3))
		return m, nil

	case requestMsg:
		next := waitForRequest(m.ctx, m.requests)
		route, err := nav.Resolve(msg.request)
		if err != nil {
			m.log.WithError(err).Warn("ignoring navigation request")
			return m, next
		}
		m.log.WithField("route", route.String()).Debug("navigation request")
		var cmd tea.Cmd
		m, cmd = m.navigate(route)
		return m, tea.Batch(cmd, next)

	case memosLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.memos = msg.memos
		if m.cursor >= len(m.memos) {
			m.cursor = max(len(m.memos)-1, 0)
		}
		return m, nil

	case memoLoadedMsg:
		return m.onMemoLoaded(msg)

	case draftLoadedMsg:
		if m.route.Screen == nav.ScreenCompose && m.editor.Value() == "" {
			m.editor.SetValue(msg.text)
		}
		return m, nil

	case draftTickMsg:
		if msg.seq != m.draftSeq || m.route.Screen != nav.ScreenCompose {
			return m, nil
		}
		m.draftDirty = false
		return m, m.writeDraft(m.editor.Value())

	case draftSavedMsg:
		if msg.err != nil {
			// Losing a draft write is not worth interrupting the user for.
			m.log.WithError(msg.err).Debug("draft write failed")
		}
		return m, nil

	case savedMsg:
		return m.onSaved(msg)

	case deletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.status = "deleted " + msg.id
		m.loading = true
		return m, m.loadMemos()

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.route.Screen == nav.ScreenList {
			return m.updateList(msg)
		}
		return m.updateEditor(msg)
	}

	if m.route.Screen != nav.ScreenList {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) onMemoLoaded(msg memoLoadedMsg) (tea.Model, tea.Cmd) {
	if m.route.Screen != nav.ScreenEdit || (msg.memo != nil && msg.memo.ID != m.route.MemoID) {
		return m, nil
	}
	m.loading = false
	if msg.err != nil {
		var cmd tea.Cmd
		m, cmd = m.navigate(nav.Home)
		m.err = msg.err
		return m, cmd
	}
	if err := m.coord.Staging.Begin(msg.memo.ID, msg.resources...); err != nil {
		m.err = err
		return m, nil
	}
	m.editing = msg.memo
	m.visibility = msg.memo.Visibility
	m.editor.SetValue(msg.memo.Content)
	cmd := m.editor.Focus()
	return m, cmd
}

func (m Model) onSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	var clearDraft tea.Cmd
	if msg.err == nil && msg.route.Screen == nav.ScreenCompose {
		clearDraft = m.writeDraft("")
	}
	if msg.session != m.session {
		// The user navigated away while the save was in flight; the screen
		// and staging session now belong to something else.
		if msg.err != nil {
			m.log.WithError(msg.err).WithField("route", msg.route.String()).Warn("save from a previous screen failed")
		} else {
			m.status = "saved " + msg.memo.ID
		}
		return m, clearDraft
	}

	m.loading = false
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}
	m.draftDirty = false
	m.coord.Staging.End()
	m, cmd := m.navigate(nav.Home)
	m.status = "saved " + msg.memo.ID
	return m, tea.Batch(clearDraft, cmd)
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pending := m.pendingDelete
	m.pendingDelete = ""

	switch {
	case key.Matches(msg, m.listKeys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.listKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.listKeys.Down):
		if m.cursor < len(m.memos)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.listKeys.Compose):
		return m.navigate(nav.Route{Screen: nav.ScreenCompose})
	case key.Matches(msg, m.listKeys.Open):
		if sel := m.selected(); sel != nil {
			return m.navigate(nav.Route{Screen: nav.ScreenEdit, MemoID: sel.ID})
		}
	case key.Matches(msg, m.listKeys.Reload):
		m.loading = true
		m.err = nil
		return m, m.loadMemos()
	case key.Matches(msg, m.listKeys.Delete):
		sel := m.selected()
		if sel == nil {
			return m, nil
		}
		if pending == sel.ID {
			m.status = ""
			return m, m.deleteMemo(sel.ID)
		}
		m.pendingDelete = sel.ID
		m.status = "press d again to delete " + sel.ID
	}
	return m, nil
}

func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.editorKeys.Cancel) {
		return m.navigate(nav.Home)
	}
	if m.loading {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.editorKeys.Visibility):
		m.visibility = nextVisibility(m.visibility)
		return m, nil
	case key.Matches(msg, m.editorKeys.Submit):
		content := strings.TrimSpace(m.editor.Value())
		if content == "" {
			m.err = errs.New(errs.CodeValidation, "memo is empty")
			return m, nil
		}
		m.err = nil
		m.loading = true
		return m, m.submit(content, m.visibility)
	}

	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if m.route.Screen == nav.ScreenCompose && m.editor.Value() != before {
		m.draftSeq++
		m.draftDirty = true
		return m, tea.Batch(cmd, m.scheduleDraft())
	}
	return m, cmd
}

func (m Model) selected() *memo.Memo {
	if m.cursor < 0 || m.cursor >= len(m.memos) {
		return nil
	}
	return m.memos[m.cursor]
}

func nextVisibility(v memo.Visibility) memo.Visibility {
	switch v {
	case memo.Private:
		return memo.Protected
	case memo.Protected:
		return memo.Public
	}
	return memo.Private
}

// View renders the current screen.
func (m Model) View() string {
	var body string
	var helpView string
	switch m.route.Screen {
	case nav.ScreenList:
		body = m.listView()
		helpView = m.help.View(m.listKeys)
	default:
		body = m.editorView()
		helpView = m.help.View(m.editorKeys)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.footer(), helpView)
}

func (m Model) listView() string {
	var b strings.Builder
	b.WriteString(m.theme.Panel.Title.Render("Memos"))
	b.WriteString("\n\n")
	if m.loading && len(m.memos) == 0 {
		b.WriteString(m.theme.List.Meta.Render("loading..."))
		return b.String()
	}
	if len(m.memos) == 0 {
		b.WriteString(m.theme.List.Meta.Render("No memos yet. Press a to write one."))
		return b.String()
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	now := m.now()
	for i, item := range m.memos {
		meta := fmt.Sprintf("%s · %s", timeutil.Ago(item.Created, now), item.Visibility.String())
		title := truncate.StringWithTail(item.Title(), uint(max(width-len(meta)-6, 8)), "…")
		row := title + "  " + m.theme.List.Meta.Render(meta)
		if i == m.cursor {
			b.WriteString(m.theme.List.Selected.Render(row))
		} else {
			b.WriteString(m.theme.List.Item.Render(row))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) editorView() string {
	title := "New memo"
	if m.route.Screen == nav.ScreenEdit {
		title = "Edit " + m.route.MemoID
	}
	if m.loading {
		return m.theme.Panel.Title.Render(title) + "\n\n" + m.theme.List.Meta.Render("loading...")
	}
	meta := m.visibility.String()
	if n := m.coord.Staging.Len(); n > 0 {
		meta += fmt.Sprintf(" · %d attachment(s)", n)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Panel.Title.Render(title)+"  "+m.theme.List.Meta.Render(meta),
		m.theme.Panel.Frame.Render(m.editor.View()),
	)
}

func (m Model) footer() string {
	if m.err != nil {
		return m.theme.Footer.Error.Render(m.err.Error())
	}
	return m.theme.Footer.Status.Render(m.status)
}
