package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"tableflip.dev/memos/pkg/draft"
	"tableflip.dev/memos/pkg/launch"
	"tableflip.dev/memos/pkg/logging"
	"tableflip.dev/memos/pkg/mutation"
)

// RunOptions configures the main process.
type RunOptions struct {
	Coordinator *mutation.Coordinator
	Drafts      *draft.Store
	Inbox       *launch.Inbox
	PIDFile     string
}

// Run launches the interactive program. While it runs the pidfile marks the
// process as live and inbox arrivals navigate the UI; requests queued before
// launch pick the first screen.
func Run(ctx context.Context, opts RunOptions) error {
	log := logging.NewLogger("tui")
	if opts.PIDFile != "" {
		if err := launch.AcquirePID(opts.PIDFile); err != nil {
			return err
		}
		defer func() {
			if err := launch.ReleasePID(opts.PIDFile); err != nil {
				log.WithError(err).Warn("release pidfile")
			}
		}()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := Options{Coordinator: opts.Coordinator, Drafts: opts.Drafts}
	if opts.Inbox != nil {
		route, drained := launch.StartupRoute(opts.Inbox)
		log.WithField("route", route.String()).WithField("drained", len(drained)).Debug("startup route")
		m.Route = route
		requests, err := opts.Inbox.Watch(ctx)
		if err != nil {
			log.WithError(err).Warn("inbox watch unavailable; requests will wait for the next launch")
		}
		m.Requests = requests
	}

	p := tea.NewProgram(New(ctx, m), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
