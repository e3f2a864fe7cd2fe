package host

import (
	"tableflip.dev/memos/pkg/launch"
	"tableflip.dev/memos/pkg/router"
	"tableflip.dev/memos/pkg/widget"
)

// Routes served by the widget host.
const (
	PathHealth    = "/health"
	PathRefresh   = "/refresh"
	PathActions   = "/actions"
	PathSnapshot  = "/snapshot"
	PathInstances = "/instances"
	PathViewer    = "/instances/ws"
	PathMetrics   = "/metrics"
)

// Message types exchanged with websocket viewers.
const (
	MsgFrame    = "frame"
	MsgGesture  = "gesture"
	MsgRefresh  = "refresh"
	MsgResize   = "resize"
	MsgDelivery = "delivery"
	MsgError    = "error"
	MsgHello    = "hello"
)

// Message is one websocket message in either direction.
type Message struct {
	Type     string           `json:"type"`
	ID       string           `json:"id,omitempty"`
	Frame    *widget.Frame    `json:"frame,omitempty"`
	Gesture  *router.Gesture  `json:"gesture,omitempty"`
	Width    int              `json:"width,omitempty"`
	Delivery *launch.Delivery `json:"delivery,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// FileSinkRequest registers a file instance.
type FileSinkRequest struct {
	Path  string `json:"path" validate:"required"`
	Width int    `json:"width,omitempty" validate:"omitempty,min=24,max=400"`
}

// SnapshotQuery is the query of a text snapshot request. Widths follow the
// same bounds as file sinks.
type SnapshotQuery struct {
	Width int `validate:"omitempty,min=24,max=400"`
}

// ErrorBody is the JSON body of a failed request.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
