// Package nav defines navigation requests delivered to the main process and
// the screens they resolve to.
package nav

import (
	"encoding/json"
	"net/url"
	"strings"

	"tableflip.dev/memos/pkg/errs"
)

// Action names what a request asks the main process to do.
type Action string

const (
	Compose Action = "compose"
	Edit    Action = "edit"
)

// Request is an app invocation. JSON: {"action":"compose"} or
// {"action":"edit","memoId":"m1"}.
type Request struct {
	Action Action `json:"action"`
	MemoID string `json:"memoId,omitempty"`
}

// ComposeRequest asks for the compose screen.
func ComposeRequest() Request {
	return Request{Action: Compose}
}

// EditRequest asks for the edit screen of memoID.
func EditRequest(memoID string) Request {
	return Request{Action: Edit, MemoID: memoID}
}

// Validate checks the request shape.
func (r Request) Validate() error {
	switch r.Action {
	case Compose:
		if r.MemoID != "" {
			return errs.New(errs.CodeInvalidRequest, "compose takes no memo id")
		}
		return nil
	case Edit:
		if strings.TrimSpace(r.MemoID) == "" {
			return errs.New(errs.CodeInvalidRequest, "edit requires a memo id")
		}
		return nil
	}
	return errs.New(errs.CodeInvalidRequest, "unknown action").WithDetail("action", string(r.Action))
}

// Decode parses and validates a JSON request.
func Decode(data []byte) (Request, error) {
	var r Request
	if err := json.Unmarshal(data, &r); err != nil {
		return Request{}, errs.Wrap(err, errs.CodeInvalidRequest, "decode navigation request")
	}
	return r, r.Validate()
}

// Screen is a main process screen.
type Screen string

const (
	ScreenList    Screen = "list"
	ScreenCompose Screen = "compose"
	ScreenEdit    Screen = "edit"
)

// Route is a resolved screen with its parameter.
type Route struct {
	Screen Screen
	MemoID string
}

// Home is where the main process starts without a request.
var Home = Route{Screen: ScreenList}

// Resolve maps a request to its route. The mapping is pure, so delivering the
// same request twice lands on the same screen.
func Resolve(r Request) (Route, error) {
	if err := r.Validate(); err != nil {
		return Route{}, err
	}
	if r.Action == Edit {
		return Route{Screen: ScreenEdit, MemoID: r.MemoID}, nil
	}
	return Route{Screen: ScreenCompose}, nil
}

// String renders the route, e.g. "compose" or "edit?memoId=m1".
func (r Route) String() string {
	if r.MemoID == "" {
		return string(r.Screen)
	}
	return string(r.Screen) + "?" + url.Values{"memoId": {r.MemoID}}.Encode()
}

// ParseRoute is the inverse of Route.String.
func ParseRoute(s string) (Route, error) {
	path, query, _ := strings.Cut(strings.TrimSpace(s), "?")
	q, err := url.ParseQuery(query)
	if err != nil {
		return Route{}, errs.Wrap(err, errs.CodeInvalidRequest, "parse route")
	}
	r := Route{Screen: Screen(path), MemoID: q.Get("memoId")}
	switch r.Screen {
	case ScreenList, ScreenCompose:
		return r, nil
	case ScreenEdit:
		if r.MemoID == "" {
			return Route{}, errs.New(errs.CodeInvalidRequest, "edit route requires memoId")
		}
		return r, nil
	}
	return Route{}, errs.New(errs.CodeInvalidRequest, "unknown route").WithDetail("route", s)
}
