// Package router turns widget gestures into navigation requests for the main
// process. It never touches memo data.
package router

import (
	"strings"

	"tableflip.dev/memos/pkg/errs"
	"tableflip.dev/memos/pkg/launch"
	"tableflip.dev/memos/pkg/nav"
)

// Gesture kinds sent by widget instances.
const (
	GestureAdd  = "add"
	GestureOpen = "open"
)

// Gesture is a user interaction on a widget instance.
type Gesture struct {
	Kind   string `json:"kind"`
	MemoID string `json:"memoId,omitempty"`
}

// Launcher delivers a request to the main process.
type Launcher interface {
	Launch(r nav.Request) (launch.Delivery, error)
}

// Router maps gestures to requests and hands them to a Launcher.
type Router struct {
	Launcher Launcher
}

// New returns a router delivering through l.
func New(l Launcher) *Router {
	return &Router{Launcher: l}
}

// Request is the navigation request for g.
func Request(g Gesture) (nav.Request, error) {
	switch strings.ToLower(strings.TrimSpace(g.Kind)) {
	case GestureAdd:
		return nav.ComposeRequest(), nil
	case GestureOpen:
		r := nav.EditRequest(strings.TrimSpace(g.MemoID))
		return r, r.Validate()
	}
	return nav.Request{}, errs.New(errs.CodeInvalidRequest, "unknown gesture").WithDetail("kind", g.Kind)
}

// Add handles the add gesture.
func (r *Router) Add() (launch.Delivery, error) {
	return r.Handle(Gesture{Kind: GestureAdd})
}

// OpenMemo handles a tap on memo id.
func (r *Router) OpenMemo(id string) (launch.Delivery, error) {
	return r.Handle(Gesture{Kind: GestureOpen, MemoID: id})
}

// Handle routes any gesture.
func (r *Router) Handle(g Gesture) (launch.Delivery, error) {
	req, err := Request(g)
	if err != nil {
		return launch.Delivery{}, err
	}
	return r.Launcher.Launch(req)
}
