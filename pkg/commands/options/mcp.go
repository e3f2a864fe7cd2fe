package options

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/memos/pkg/runner/mcp"
)

// MCPOptions holds the transport flags of the mcp command.
type MCPOptions struct {
	Transport string
	Host      string
	Port      int
	Path      string
	TLSCert   string
	TLSKey    string
}

func AddMCPArgs(cmd *cobra.Command, o *MCPOptions) {
	cmd.Flags().StringVar(&o.Transport, "transport", string(mcp.TransportHTTP), "Transport to serve on: http or stdio.")
	cmd.Flags().StringVar(&o.Host, "http-host", "127.0.0.1", "Interface the HTTP transport binds to.")
	cmd.Flags().IntVar(&o.Port, "http-port", 8080, "Port of the HTTP transport. 0 picks a free port.")
	cmd.Flags().StringVar(&o.Path, "http-path", mcp.DefaultHTTPPath, "Path the HTTP endpoint is mounted on.")
	cmd.Flags().StringVar(&o.TLSCert, "http-tls-cert", "", "TLS certificate file. Requires --http-tls-key.")
	cmd.Flags().StringVar(&o.TLSKey, "http-tls-key", "", "TLS key file. Requires --http-tls-cert.")
}

// TransportKind validates the --transport flag.
func (o *MCPOptions) TransportKind() (mcp.Transport, error) {
	switch t := mcp.Transport(strings.ToLower(strings.TrimSpace(o.Transport))); t {
	case "", mcp.TransportHTTP:
		return mcp.TransportHTTP, nil
	case mcp.TransportStdio:
		return t, nil
	default:
		return "", fmt.Errorf("unsupported transport %q, expected http or stdio", o.Transport)
	}
}

// HTTP converts the flags into runner options.
func (o *MCPOptions) HTTP() (mcp.HTTPOptions, error) {
	if o.Port < 0 || o.Port > 65535 {
		return mcp.HTTPOptions{}, fmt.Errorf("invalid http-port %d", o.Port)
	}
	host := strings.TrimSpace(o.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	return mcp.HTTPOptions{
		Addr:     net.JoinHostPort(host, strconv.Itoa(o.Port)),
		Path:     o.Path,
		CertFile: strings.TrimSpace(o.TLSCert),
		KeyFile:  strings.TrimSpace(o.TLSKey),
	}, nil
}

// EndpointURL is the URL clients reach the HTTP endpoint at once bound to
// addr. Wildcard binds are reported as loopback.
func EndpointURL(h mcp.HTTPOptions, addr net.Addr) string {
	scheme := "http"
	if h.TLS() {
		scheme = "https"
	}
	path := h.Path
	if path == "" {
		path = mcp.DefaultHTTPPath
	} else if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	hostport := addr.String()
	if tcp, ok := addr.(*net.TCPAddr); ok {
		ip := "127.0.0.1"
		if tcp.IP != nil && !tcp.IP.IsUnspecified() {
			ip = tcp.IP.String()
		}
		hostport = net.JoinHostPort(ip, strconv.Itoa(tcp.Port))
	}
	return scheme + "://" + hostport + path
}
