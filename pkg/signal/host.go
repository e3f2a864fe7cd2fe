package signal

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"tableflip.dev/memos/pkg/logging"
)

// RefreshPath is the widget host endpoint that accepts signals.
const RefreshPath = "/refresh"

// HostNotifier posts signals to a widget host listening on a unix socket.
// An absent or failing host is logged and ignored.
type HostNotifier struct {
	socketPath string
	client     *http.Client
	log        *logrus.Entry
}

// NewHostNotifier returns a notifier for the host at socketPath.
func NewHostNotifier(socketPath string) *HostNotifier {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
		MaxIdleConns:    2,
		IdleConnTimeout: 30 * time.Second,
	}
	return &HostNotifier{
		socketPath: socketPath,
		client:     &http.Client{Transport: transport, Timeout: 2 * time.Second},
		log:        logging.NewLogger("signal").WithField("socket", socketPath),
	}
}

// Notify sends s and returns once the host answered or the attempt failed.
func (h *HostNotifier) Notify(ctx context.Context, s Signal) {
	body, err := json.Marshal(s)
	if err != nil {
		h.log.WithError(err).Debug("encode signal")
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://unix"+RefreshPath, bytes.NewReader(body))
	if err != nil {
		h.log.WithError(err).Debug("build signal request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.client.Do(req)
	if err != nil {
		h.log.WithError(err).Debug("widget host not reachable, signal dropped")
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		h.log.WithField("status", resp.StatusCode).Debug("widget host rejected signal")
	}
}
