// Package viewer is a live widget instance: a terminal program attached to
// the widget host over a websocket that draws every frame it receives and
// turns key presses into gestures.
package viewer

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"tableflip.dev/memos/pkg/host"
	"tableflip.dev/memos/pkg/logging"
	"tableflip.dev/memos/pkg/router"
	"tableflip.dev/memos/pkg/tui/theme"
	"tableflip.dev/memos/pkg/widget"
)

// Conn is the websocket surface the viewer needs.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

// link serializes writes; a websocket allows one writer at a time.
type link struct {
	mu   sync.Mutex
	conn Conn
}

func (l *link) send(m host.Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.WriteJSON(m)
}

type incomingMsg struct {
	msg host.Message
}

type closedMsg struct {
	err error
}

type sentMsg struct {
	err error
}

type keys struct {
	Add     key.Binding
	Open    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func defaultKeys() keys {
	return keys{
		Add:     key.NewBinding(key.WithKeys(widget.AddKey), key.WithHelp(widget.AddKey, "new memo")),
		Open:    key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "open")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Model draws frames pushed by the host.
type Model struct {
	link   *link
	keys   keys
	theme  theme.Theme
	log    *logrus.Entry
	id     string
	frame  *widget.Frame
	status string
	err    error
	closed bool
}

// New returns a viewer bound to conn.
func New(conn Conn) Model {
	return Model{
		link:  &link{conn: conn},
		keys:  defaultKeys(),
		theme: theme.Default(),
		log:   logging.NewLogger("viewer"),
	}
}

// Frame is the last frame received, if any.
func (m Model) Frame() *widget.Frame {
	return m.frame
}

// ID is the instance id the host assigned.
func (m Model) ID() string {
	return m.id
}

// Status is the footer line.
func (m Model) Status() string {
	return m.status
}

func (m Model) listen() tea.Cmd {
	l := m.link
	return func() tea.Msg {
		var msg host.Message
		if err := l.conn.ReadJSON(&msg); err != nil {
			return closedMsg{err: err}
		}
		return incomingMsg{msg: msg}
	}
}

func (m Model) send(msg host.Message) tea.Cmd {
	l := m.link
	return func() tea.Msg {
		return sentMsg{err: l.send(msg)}
	}
}

// Init starts reading from the host.
func (m Model) Init() tea.Cmd {
	return m.listen()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case incomingMsg:
		m.receive(msg.msg)
		return m, m.listen()

	case closedMsg:
		m.closed = true
		m.err = msg.err
		m.status = "disconnected from widget host"
		return m, tea.Quit

	case sentMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case tea.WindowSizeMsg:
		if msg.Width <= 0 {
			return m, nil
		}
		return m, m.send(host.Message{Type: host.MsgResize, Width: msg.Width})

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Add):
			return m, m.send(gesture(router.Gesture{Kind: router.GestureAdd}))
		case key.Matches(msg, m.keys.Refresh):
			m.status = "refreshing..."
			return m, m.send(host.Message{Type: host.MsgRefresh})
		case key.Matches(msg, m.keys.Open):
			id := m.slot(msg.String())
			if id == "" {
				return m, nil
			}
			return m, m.send(gesture(router.Gesture{Kind: router.GestureOpen, MemoID: id}))
		}
	}
	return m, nil
}

func gesture(g router.Gesture) host.Message {
	return host.Message{Type: host.MsgGesture, Gesture: &g}
}

func (m *Model) receive(msg host.Message) {
	switch msg.Type {
	case host.MsgHello:
		m.id = msg.ID
		m.log = m.log.WithField("instance", msg.ID)
	case host.MsgFrame:
		if msg.Frame != nil {
			m.frame = msg.Frame
			m.status = ""
		}
	case host.MsgDelivery:
		if msg.Delivery == nil {
			return
		}
		if msg.Delivery.Live {
			m.status = "sent to the running app"
		} else {
			m.status = "queued until the app starts"
		}
	case host.MsgError:
		m.err = errors.New(msg.Error)
	default:
		m.log.WithField("type", msg.Type).Debug("ignoring message")
	}
}

func (m Model) slot(k string) string {
	if m.frame == nil {
		return ""
	}
	for _, s := range m.frame.Slots {
		if s.Key == k {
			return s.MemoID
		}
	}
	return ""
}

// View renders the current frame.
func (m Model) View() string {
	body := m.theme.List.Meta.Render("waiting for the widget host...")
	if m.frame != nil {
		body = m.frame.Text
	}
	footer := m.theme.Footer.Status.Render(m.status)
	if m.err != nil {
		footer = m.theme.Footer.Error.Render(m.err.Error())
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

// Run attaches a viewer through client and blocks until the user
// quits or the host goes away.
func Run(ctx context.Context, client *host.Client, width int) error {
	conn, err := client.DialViewer(ctx, width)
	if err != nil {
		return err
	}
	defer conn.Close()

	p := tea.NewProgram(New(conn), tea.WithContext(ctx))
	final, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.closed && fm.err != nil &&
		!websocket.IsCloseError(fm.err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return fm.err
	}
	return nil
}
