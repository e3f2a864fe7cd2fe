package viewer

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/memos/pkg/host"
	"tableflip.dev/memos/pkg/launch"
	"tableflip.dev/memos/pkg/memo"
	"tableflip.dev/memos/pkg/nav"
	"tableflip.dev/memos/pkg/router"
	"tableflip.dev/memos/pkg/widget"
)

type fakeConn struct {
	in chan host.Message

	mu      sync.Mutex
	written []host.Message
	closed  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan host.Message, 8)}
}

func (c *fakeConn) ReadJSON(v interface{}) error {
	msg, ok := <-c.in
	if !ok {
		return io.EOF
	}
	data, _ := json.Marshal(msg)
	return json.Unmarshal(data, v)
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("closed")
	}
	c.written = append(c.written, v.(host.Message))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) sent() []host.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]host.Message(nil), c.written...)
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// receive runs the pending listen command and applies what it read.
func receive(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return step(t, m, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("viewer did not read a message")
	}
	return m, nil
}

func frameFor(width int, contents ...string) *widget.Frame {
	var memos []*memo.Memo
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, c := range contents {
		memos = append(memos, &memo.Memo{ID: "m" + string(rune('1'+i)), Content: c, Created: now})
	}
	f := widget.Render(widget.Snapshot{Memos: memos, FetchedAt: now, Generation: 1}, width, now)
	return &f
}

func TestDrawsFramesFromHost(t *testing.T) {
	conn := newFakeConn()
	m := New(conn)
	cmd := m.Init()

	assert.Contains(t, m.View(), "waiting")

	conn.in <- host.Message{Type: host.MsgHello, ID: "v1"}
	m, cmd = receive(t, m, cmd)
	assert.Equal(t, "v1", m.ID())

	conn.in <- host.Message{Type: host.MsgFrame, Frame: frameFor(40, "hello")}
	m, cmd = receive(t, m, cmd)
	require.NotNil(t, m.Frame())
	assert.Contains(t, m.View(), "hello")

	close(conn.in)
	m, cmd = receive(t, m, cmd)
	assert.True(t, m.closed)
	assert.NotNil(t, cmd, "a closed connection quits the program")
}

func TestKeysBecomeGestures(t *testing.T) {
	conn := newFakeConn()
	m := New(conn)
	m.frame = frameFor(40, "first", "second")

	_, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	require.NotNil(t, cmd)
	cmd()

	_, cmd = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	require.NotNil(t, cmd)
	cmd()

	_, cmd = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3")})
	assert.Nil(t, cmd, "no card behind key 3")

	sent := conn.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, host.MsgGesture, sent[0].Type)
	assert.Equal(t, router.Gesture{Kind: router.GestureAdd}, *sent[0].Gesture)
	assert.Equal(t, router.Gesture{Kind: router.GestureOpen, MemoID: "m2"}, *sent[1].Gesture)

	req, err := router.Request(*sent[1].Gesture)
	require.NoError(t, err)
	assert.Equal(t, nav.EditRequest("m2"), req)
}

func TestRefreshAndResize(t *testing.T) {
	conn := newFakeConn()
	m := New(conn)

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, "refreshing...", m.Status())

	_, cmd = step(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})
	require.NotNil(t, cmd)
	cmd()

	sent := conn.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, host.MsgRefresh, sent[0].Type)
	assert.Equal(t, host.Message{Type: host.MsgResize, Width: 60}, sent[1])
}

func TestDeliveryStatus(t *testing.T) {
	m := New(newFakeConn())
	m.receive(host.Message{Type: host.MsgDelivery, Delivery: &launch.Delivery{Request: nav.ComposeRequest(), Live: false}})
	assert.Equal(t, "queued until the app starts", m.Status())

	m.receive(host.Message{Type: host.MsgDelivery, Delivery: &launch.Delivery{Request: nav.ComposeRequest(), Live: true}})
	assert.Equal(t, "sent to the running app", m.Status())

	m.receive(host.Message{Type: host.MsgError, Error: "boom"})
	assert.Contains(t, m.View(), "boom")
}

func TestSendFailureIsShown(t *testing.T) {
	conn := newFakeConn()
	_ = conn.Close()
	m := New(conn)

	_, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	m, _ = step(t, m, cmd())
	assert.Error(t, m.err)
}
