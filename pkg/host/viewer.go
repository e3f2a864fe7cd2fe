package host

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"tableflip.dev/memos/pkg/widget"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// viewer is a websocket-attached widget instance.
type viewer struct {
	id   string
	conn *websocket.Conn
	send chan Message
	log  *logrus.Entry

	mu     sync.Mutex
	width  int
	closed bool
}

func newViewer(conn *websocket.Conn, width int, log *logrus.Entry) *viewer {
	id := uuid.New().String()
	return &viewer{
		id:    id,
		conn:  conn,
		send:  make(chan Message, 4),
		width: width,
		log:   log.WithField("instance", id),
	}
}

func (v *viewer) ID() string   { return v.id }
func (v *viewer) Kind() string { return "viewer" }

func (v *viewer) setWidth(w int) {
	v.mu.Lock()
	v.width = w
	v.mu.Unlock()
}

// Draw queues frame for the viewer, re-rendered at its width. Frames replace
// each other, so when the queue is full the oldest is dropped.
func (v *viewer) Draw(frame widget.Frame) error {
	v.mu.Lock()
	width := v.width
	v.mu.Unlock()
	f := frame.Resize(width)
	v.enqueue(Message{Type: MsgFrame, Frame: &f})
	return nil
}

func (v *viewer) enqueue(m Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	for {
		select {
		case v.send <- m:
			return
		default:
		}
		select {
		case <-v.send:
		default:
		}
	}
}

// Close stops the write pump; the registry calls it on unregister.
func (v *viewer) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.closed {
		v.closed = true
		close(v.send)
	}
	return nil
}

func (v *viewer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()
	for {
		select {
		case m, ok := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				v.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := v.conn.WriteJSON(m); err != nil {
				v.log.WithError(err).Debug("write to viewer failed")
				return
			}
		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleViewer upgrades the request and keeps the viewer registered until it
// disconnects. Viewers send gestures, refresh requests and resizes.
func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	width := s.refresh.Width
	if q := r.URL.Query().Get("width"); q != "" {
		if n, err := parseWidth(q); err == nil {
			width = n
		}
	}
	v := newViewer(conn, width, s.log)
	if err := s.refresh.Registry.Register(v); err != nil {
		conn.Close()
		return
	}
	v.log.Info("viewer attached")
	go v.writePump()

	v.enqueue(Message{Type: MsgHello, ID: v.id})
	v.Draw(s.currentFrame())

	defer func() {
		s.refresh.Registry.Unregister(v.id)
		v.log.Info("viewer detached")
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				v.log.WithError(err).Warn("viewer read error")
			}
			return
		}
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			v.enqueue(Message{Type: MsgError, Error: "malformed message"})
			continue
		}
		s.handleViewerMessage(r, v, m)
	}
}

func (s *Server) handleViewerMessage(r *http.Request, v *viewer, m Message) {
	switch m.Type {
	case MsgGesture:
		if m.Gesture == nil {
			v.enqueue(Message{Type: MsgError, Error: "gesture missing"})
			return
		}
		d, err := s.router.Handle(*m.Gesture)
		if err != nil {
			v.enqueue(Message{Type: MsgError, Error: err.Error()})
			return
		}
		v.enqueue(Message{Type: MsgDelivery, Delivery: &d})
	case MsgRefresh:
		s.refresh.Trigger(r.Context(), widget.SourceManual)
	case MsgResize:
		if m.Width > 0 {
			v.setWidth(m.Width)
			v.Draw(s.currentFrame())
		}
	default:
		v.enqueue(Message{Type: MsgError, Error: "unknown message type " + m.Type})
	}
}

func parseWidth(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("width must be positive, got %d", n)
	}
	return n, nil
}
