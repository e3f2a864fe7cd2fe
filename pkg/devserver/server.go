// Package devserver is a small memo server backed by sqlite. It speaks the
// same API as pkg/remote and exists for local development and end-to-end
// tests.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"tableflip.dev/memos/pkg/logging"
	"tableflip.dev/memos/pkg/remote"
)

// Server serves the memo API from a Store.
type Server struct {
	store *Store
	token string
	valid *validator.Validate
	log   *logrus.Entry
}

// New returns a server. When token is non-empty every API request must carry
// it as a bearer token.
func New(store *Store, token string) *Server {
	return &Server{
		store: store,
		token: token,
		valid: validator.New(),
		log:   logging.NewLogger("devserver"),
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.auth)
		r.Route(remote.PathMemos, func(r chi.Router) {
			r.Get("/", s.listMemos)
			r.Post("/", s.createMemo)
			r.Get("/{id}", s.getMemo)
			r.Patch("/{id}", s.updateMemo)
			r.Delete("/{id}", s.deleteMemo)
		})
		r.Route(remote.PathResources, func(r chi.Router) {
			r.Get("/", s.listResources)
			r.Post("/", s.createResource)
			r.Get("/{id}", s.getResource)
			r.Delete("/{id}", s.deleteResource)
		})
		r.Get("/o/r/{id}", s.resourceBlob)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.WithField("addr", addr).Info("dev server listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			s.fail(w, r, http.StatusUnauthorized, "missing or invalid access token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listMemos(w http.ResponseWriter, r *http.Request) {
	memos, err := s.store.ListMemos(r.Context())
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if memos == nil {
		memos = []remote.MemoDTO{}
	}
	render.JSON(w, r, memos)
}

func (s *Server) createMemo(w http.ResponseWriter, r *http.Request) {
	var in remote.MemoCreate
	if !s.decode(w, r, &in) {
		return
	}
	m, err := s.store.CreateMemo(r.Context(), in)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, m)
}

func (s *Server) getMemo(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMemo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	render.JSON(w, r, m)
}

func (s *Server) updateMemo(w http.ResponseWriter, r *http.Request) {
	var in remote.MemoPatch
	if !s.decode(w, r, &in) {
		return
	}
	m, err := s.store.UpdateMemo(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	render.JSON(w, r, m)
}

func (s *Server) deleteMemo(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteMemo(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listResources(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListResources(r.Context(), r.URL.Query().Get("memoId"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if list == nil {
		list = []remote.ResourceDTO{}
	}
	render.JSON(w, r, list)
}

func (s *Server) createResource(w http.ResponseWriter, r *http.Request) {
	var in remote.ResourceCreate
	if !s.decode(w, r, &in) {
		return
	}
	res, err := s.store.CreateResource(r.Context(), in)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, res)
}

func (s *Server) getResource(w http.ResponseWriter, r *http.Request) {
	res, err := s.store.GetResource(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

func (s *Server) deleteResource(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteResource(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resourceBlob(w http.ResponseWriter, r *http.Request) {
	data, typ, err := s.store.ResourceBlob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", typ)
	_, _ = w.Write(data)
}

// decode reads and validates a JSON body, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := s.valid.Struct(v); err != nil {
		s.fail(w, r, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		s.fail(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnknownResource):
		s.fail(w, r, http.StatusBadRequest, err.Error())
	default:
		s.log.WithError(err).WithField("path", r.URL.Path).Error("store failure")
		s.fail(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, remote.ErrorDTO{Error: strings.TrimSpace(msg)})
}
