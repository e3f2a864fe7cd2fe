package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"tableflip.dev/memos/pkg/errs"
	"tableflip.dev/memos/pkg/launch"
	"tableflip.dev/memos/pkg/router"
	"tableflip.dev/memos/pkg/widget"
)

// baseURL is a placeholder host; connections go through the unix socket.
const baseURL = "http://unix"

// Client talks to a widget host over its unix socket.
type Client struct {
	socketPath string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// NewClient returns a client for the host at socketPath.
func NewClient(socketPath string) *Client {
	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "unix", socketPath)
	}
	return &Client{
		socketPath: socketPath,
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext:     dial,
				MaxIdleConns:    4,
				IdleConnTimeout: 90 * time.Second,
			},
			Timeout: 10 * time.Second,
		},
		dialer: &websocket.Dialer{
			NetDialContext:   dial,
			HandshakeTimeout: 5 * time.Second,
		},
	}
}

// SocketPath is the socket the client dials.
func (c *Client) SocketPath() string {
	return c.socketPath
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("widget host not reachable at %s: %w", c.socketPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var eb ErrorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		if eb.Error == "" {
			eb.Error = http.StatusText(resp.StatusCode)
		}
		code := errs.Code(eb.Code)
		if code == "" {
			code = errs.CodeInvalidRequest
		}
		return errs.New(code, eb.Error).WithDetail("status", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Health checks that the host is up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, PathHealth, nil, nil)
}

// Refresh sends a refresh signal.
func (c *Client) Refresh(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, PathRefresh, nil, nil)
}

// Gesture routes g through the host's action router.
func (c *Client) Gesture(ctx context.Context, g router.Gesture) (launch.Delivery, error) {
	var d launch.Delivery
	err := c.do(ctx, http.MethodPost, PathActions, g, &d)
	return d, err
}

// Snapshot fetches the current widget snapshot.
func (c *Client) Snapshot(ctx context.Context) (widget.Snapshot, error) {
	var s widget.Snapshot
	err := c.do(ctx, http.MethodGet, PathSnapshot, nil, &s)
	return s, err
}

// Instances lists registered instances.
func (c *Client) Instances(ctx context.Context) ([]widget.InstanceInfo, error) {
	var list []widget.InstanceInfo
	err := c.do(ctx, http.MethodGet, PathInstances, nil, &list)
	return list, err
}

// AddFileSink registers a file instance at path.
func (c *Client) AddFileSink(ctx context.Context, path string, width int) (widget.InstanceInfo, error) {
	var info widget.InstanceInfo
	err := c.do(ctx, http.MethodPost, PathInstances, FileSinkRequest{Path: path, Width: width}, &info)
	return info, err
}

// RemoveInstance unregisters id.
func (c *Client) RemoveInstance(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, PathInstances+"/"+url.PathEscape(id), nil, nil)
}

// DialViewer attaches a live viewer of the given width.
func (c *Client) DialViewer(ctx context.Context, width int) (*websocket.Conn, error) {
	u := "ws://unix" + PathViewer
	if width > 0 {
		u += "?width=" + strconv.Itoa(width)
	}
	conn, _, err := c.dialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("attach viewer at %s: %w", c.socketPath, err)
	}
	return conn, nil
}
