package info

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/memos/pkg/config"
	"tableflip.dev/memos/pkg/host"
	"tableflip.dev/memos/pkg/launch"
	"tableflip.dev/memos/pkg/settings"
)

// Info reports where state lives and which processes are running.
type Info struct {
	Config   config.Config
	Settings *settings.Store
	Inbox    *launch.Inbox
	Out      io.Writer
}

func (n *Info) Do(ctx context.Context) error {
	out := n.Out
	if out == nil {
		out = color.Output
	}

	if override := os.Getenv("MEMOS_CONFIG_PATH"); override != "" {
		_, _ = fmt.Fprintln(out, "MEMOS_CONFIG_PATH found on env, using", override)
	} else {
		_, _ = fmt.Fprintln(out, "MEMOS_CONFIG_PATH env var not set")
	}

	if n.Config == nil {
		var err error
		n.Config, err = config.Load()
		if err != nil {
			return err
		}
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("Config.path:", n.Config.BasePath())
	tbl.AddRow("Settings:", n.Config.SettingsPath())
	hc := host.NewClient(n.Config.WidgetSocket())
	tbl.AddRow("Widget socket:", hc.SocketPath())

	if n.Settings != nil {
		s, err := n.Settings.Load()
		if err != nil {
			return err
		}
		if u, ok := s.Current(); ok {
			tbl.AddRow("Account:", fmt.Sprintf("%s (%s)", u.AccountKey, u.Host))
		} else {
			tbl.AddRow("Account:", "none")
		}
	}

	running, pid, err := launch.IsRunning(n.Config.PIDFile())
	switch {
	case err != nil:
		tbl.AddRow("UI:", "unknown: "+err.Error())
	case running:
		tbl.AddRow("UI:", fmt.Sprintf("running (pid %d)", pid))
	default:
		tbl.AddRow("UI:", "not running")
	}
	if n.Inbox != nil {
		tbl.AddRow("Queued requests:", n.Inbox.Pending())
	}

	hctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := hc.Health(hctx); err != nil {
		tbl.AddRow("Widget host:", "not running")
	} else {
		tbl.AddRow("Widget host:", "running")
	}

	_, _ = fmt.Fprintln(out, tbl)
	return nil
}
