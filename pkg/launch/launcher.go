package launch

import (
	"github.com/sirupsen/logrus"

	"tableflip.dev/memos/pkg/logging"
	"tableflip.dev/memos/pkg/nav"
)

// Delivery describes what happened to a launched request.
type Delivery struct {
	Request nav.Request `json:"request"`
	// Live is true when a main process was running to pick it up now.
	// Otherwise the request waits in the inbox for the next launch.
	Live bool `json:"live"`
}

// Launcher hands navigation requests to the main process.
type Launcher struct {
	Inbox   *Inbox
	PIDFile string
	log     *logrus.Entry
}

// NewLauncher returns a launcher over inbox, checking liveness via pidFile.
func NewLauncher(inbox *Inbox, pidFile string) *Launcher {
	return &Launcher{Inbox: inbox, PIDFile: pidFile, log: logging.NewLogger("launch")}
}

// Launch queues r. A running main process watching the inbox receives it
// right away; otherwise it is handled on the next start.
func (l *Launcher) Launch(r nav.Request) (Delivery, error) {
	if err := l.Inbox.Enqueue(r); err != nil {
		return Delivery{}, err
	}
	live := false
	if l.PIDFile != "" {
		live, _, _ = IsRunning(l.PIDFile)
	}
	if l.log != nil {
		l.log.WithFields(logrus.Fields{"action": r.Action, "memo_id": r.MemoID, "live": live}).Info("navigation request delivered")
	}
	return Delivery{Request: r, Live: live}, nil
}

// StartupRoute drains the inbox and resolves where a freshly started main
// process should open: the most recent queued request, or Home.
func StartupRoute(in *Inbox) (nav.Route, []nav.Request) {
	reqs := in.Drain()
	for i := len(reqs) - 1; i >= 0; i-- {
		if route, err := nav.Resolve(reqs[i]); err == nil {
			return route, reqs
		}
	}
	return nav.Home, reqs
}
