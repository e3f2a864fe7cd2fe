// Package host runs the widget host: a long-lived process that owns the
// widget snapshot, refreshes it, redraws registered instances and routes
// their gestures back to the main process. It listens on a unix socket.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"tableflip.dev/memos/pkg/errs"
	"tableflip.dev/memos/pkg/logging"
	"tableflip.dev/memos/pkg/router"
	"tableflip.dev/memos/pkg/signal"
	"tableflip.dev/memos/pkg/widget"
)

// Server is the widget host.
type Server struct {
	refresh  *widget.RefreshCoordinator
	router   *router.Router
	signals  *signal.Bus
	metrics  *prometheus.Registry
	valid    *validator.Validate
	upgrader websocket.Upgrader
	log      *logrus.Entry

	mu     sync.Mutex
	server *http.Server
}

// New returns a host around a refresh coordinator and a gesture router. The
// coordinator's metrics are registered on the host's /metrics registry.
func New(refresh *widget.RefreshCoordinator, r *router.Router) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	if refresh.Metrics == nil {
		refresh.Metrics = widget.NewMetrics(reg)
	}
	return &Server{
		refresh: refresh,
		router:  r,
		signals: signal.NewBus(),
		metrics: reg,
		valid:   validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 16384,
		},
		log: logging.NewLogger("host"),
	}
}

// Signals is the bus POST /refresh publishes to.
func (s *Server) Signals() *signal.Bus {
	return s.signals
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(PathHealth, func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]interface{}{
			"status":    "ok",
			"instances": s.refresh.Registry.Len(),
		})
	})
	r.Post(PathRefresh, s.handleRefresh)
	r.Post(PathActions, s.handleAction)
	r.Get(PathSnapshot, s.handleSnapshot)
	r.Get(PathInstances, s.handleListInstances)
	r.Post(PathInstances, s.handleAddInstance)
	r.Get(PathViewer, s.handleViewer)
	r.Delete(PathInstances+"/{id}", s.handleRemoveInstance)
	r.Method(http.MethodGet, PathMetrics, promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	return r
}

// Serve listens on socketPath and runs the refresh loop until ctx is done.
func (s *Server) Serve(ctx context.Context, socketPath string) error {
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("host: remove stale socket: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("host: create socket directory: %w", err)
	}
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("host: listen: %w", err)
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("host: socket permissions: %w", err)
	}
	defer os.Remove(socketPath)
	return s.ServeListener(ctx, listener)
}

// ServeListener is Serve on an existing listener.
func (s *Server) ServeListener(ctx context.Context, l net.Listener) error {
	ctx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	srv := &http.Server{
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	sub, cancel := s.signals.Subscribe()
	defer cancel()
	refreshDone := make(chan error, 1)
	go func() { refreshDone <- s.refresh.Run(ctx, sub) }()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(l) }()
	s.log.WithField("addr", l.Addr().String()).Info("widget host listening")

	select {
	case err := <-serveErr:
		cancelRun()
		<-refreshDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	err := srv.Shutdown(shutdownCtx)
	for _, id := range s.refresh.Registry.IDs() {
		s.refresh.Registry.Unregister(id)
	}
	<-refreshDone
	return err
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	render.Status(r, status)
	render.JSON(w, r, ErrorBody{Error: err.Error(), Code: string(errs.GetCode(err))})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var sig signal.Signal
	if r.ContentLength != 0 {
		// The payload is advisory; a bad body still counts as a signal.
		if err := json.NewDecoder(r.Body).Decode(&sig); err != nil {
			s.log.WithError(err).Debug("ignoring malformed signal body")
		}
	}
	s.signals.Notify(r.Context(), sig)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var g router.Gesture
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		s.fail(w, r, http.StatusBadRequest, errs.Wrap(err, errs.CodeInvalidRequest, "decode gesture"))
		return
	}
	d, err := s.router.Handle(g)
	if err != nil {
		status := http.StatusInternalServerError
		if errs.Is(err, errs.CodeInvalidRequest) {
			status = http.StatusBadRequest
		}
		s.fail(w, r, status, err)
		return
	}
	render.JSON(w, r, d)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.refresh.Surface.Snapshot()
	if r.URL.Query().Get("format") == "text" {
		var q SnapshotQuery
		if raw := r.URL.Query().Get("width"); raw != "" {
			width, err := strconv.Atoi(raw)
			if err != nil {
				s.fail(w, r, http.StatusBadRequest, errs.Wrap(err, errs.CodeInvalidRequest, "parse width"))
				return
			}
			q.Width = width
		}
		if err := s.valid.Struct(q); err != nil {
			s.fail(w, r, http.StatusBadRequest, errs.Wrap(err, errs.CodeInvalidRequest, "invalid width"))
			return
		}
		if q.Width == 0 {
			q.Width = s.refresh.Width
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(widget.Render(snap, q.Width, time.Now()).Text))
		return
	}
	render.JSON(w, r, snap)
}

func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.refresh.Registry.List())
}

func (s *Server) handleAddInstance(w http.ResponseWriter, r *http.Request) {
	var in FileSinkRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.fail(w, r, http.StatusBadRequest, errs.Wrap(err, errs.CodeInvalidRequest, "decode instance"))
		return
	}
	if err := s.valid.Struct(in); err != nil {
		s.fail(w, r, http.StatusBadRequest, errs.Wrap(err, errs.CodeInvalidRequest, "invalid instance"))
		return
	}
	sink := widget.NewFileSink(uuid.New().String(), in.Path, in.Width)
	if err := s.refresh.Registry.Register(sink); err != nil {
		s.fail(w, r, http.StatusConflict, err)
		return
	}
	if err := sink.Draw(s.currentFrame()); err != nil {
		s.refresh.Registry.Unregister(sink.ID())
		s.fail(w, r, http.StatusBadRequest, errs.Wrap(err, errs.CodeInvalidRequest, "write instance file"))
		return
	}
	s.log.WithFields(logrus.Fields{"instance": sink.ID(), "path": sink.Path()}).Info("file instance registered")
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, widget.InstanceInfo{ID: sink.ID(), Kind: sink.Kind()})
}

func (s *Server) handleRemoveInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.refresh.Registry.Unregister(id) {
		s.fail(w, r, http.StatusNotFound, errs.New(errs.CodeNotFound, "no instance "+id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) currentFrame() widget.Frame {
	return widget.Render(s.refresh.Surface.Snapshot(), s.refresh.Width, time.Now())
}
