package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"

	"tableflip.dev/memos/pkg/logging"
)

// Transport selects the mechanism used to expose the MCP server.
type Transport string

const (
	// TransportHTTP serves MCP via the streamable HTTP transport.
	TransportHTTP Transport = "http"
	// TransportStdio serves MCP over stdio.
	TransportStdio Transport = "stdio"
)

// DefaultHTTPPath is where the streamable HTTP endpoint is mounted.
const DefaultHTTPPath = "/mcp"

// HTTPOptions configures the streamable HTTP transport. CertFile and KeyFile
// enable TLS and must be given together.
type HTTPOptions struct {
	Addr     string
	Path     string
	CertFile string
	KeyFile  string
	// OnListening is called with the bound address before serving.
	OnListening func(net.Addr)
}

func (o HTTPOptions) path() string {
	p := strings.TrimSpace(o.Path)
	if p == "" {
		return DefaultHTTPPath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// TLS reports whether the endpoint is served over HTTPS.
func (o HTTPOptions) TLS() bool {
	return o.CertFile != "" && o.KeyFile != ""
}

// Runner serves the memo tools over one transport.
type Runner struct {
	Service *Service
	Name    string
	Version string

	Transport Transport
	HTTP      HTTPOptions
}

// NewServer builds the MCP server with every memo tool and resource.
func NewServer(svc *Service, name, version string) *server.MCPServer {
	if name == "" {
		name = "memos"
	}
	if version == "" {
		version = "dev"
	}
	srv := server.NewMCPServer(
		fmt.Sprintf("%s MCP", name),
		version,
		server.WithResourceCapabilities(false, false),
		server.WithToolCapabilities(false),
		server.WithInstructions("Read, write and open memos. Writes refresh the home screen widget."),
		server.WithRecovery(),
	)
	registerResources(srv, svc)
	registerTools(srv, svc)
	return srv
}

// Do serves until ctx is done, or until stdin closes for stdio.
func (r Runner) Do(ctx context.Context) error {
	if r.Service == nil || r.Service.Coordinator == nil {
		return errors.New("mcp runner requires a memo service")
	}
	srv := NewServer(r.Service, r.Name, r.Version)

	switch r.Transport {
	case "", TransportHTTP:
		return r.serveHTTP(ctx, srv)
	case TransportStdio:
		return server.ServeStdio(srv)
	default:
		return fmt.Errorf("unknown MCP transport %q", r.Transport)
	}
}

func (r Runner) serveHTTP(ctx context.Context, srv *server.MCPServer) error {
	o := r.HTTP
	if (o.CertFile == "") != (o.KeyFile == "") {
		return errors.New("both http tls cert and key must be provided")
	}
	addr := o.Addr
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	router.Handle(o.path(), server.NewStreamableHTTPServer(srv))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if o.OnListening != nil {
		o.OnListening(ln.Addr())
	}
	logging.NewLogger("mcp").WithField("addr", ln.Addr().String()).WithField("path", o.path()).Info("mcp server listening")

	httpSrv := &http.Server{Handler: router}
	serveErr := make(chan error, 1)
	go func() {
		if o.TLS() {
			serveErr <- httpSrv.ServeTLS(ln, o.CertFile, o.KeyFile)
			return
		}
		serveErr <- httpSrv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
