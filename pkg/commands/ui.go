package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tableflip.dev/memos/pkg/logging"
	"tableflip.dev/memos/pkg/runner/info"
	"tableflip.dev/memos/pkg/runner/key"
	"tableflip.dev/memos/pkg/tui"
)

func addUI(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "open the full-screen memo editor",
		Example: `
memos ui
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			coord, err := e.coordinator()
			if err != nil {
				return err
			}
			inbox, err := e.inbox()
			if err != nil {
				return err
			}

			// The terminal belongs to the UI; logs go to a file.
			logFile, err := os.OpenFile(filepath.Join(e.cfg.BasePath(), "ui.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return err
			}
			defer logFile.Close()
			logging.SetOutput(logFile)
			defer logging.SetOutput(os.Stderr)

			return tui.Run(cmd.Context(), tui.RunOptions{
				Coordinator: coord,
				Drafts:      e.drafts(),
				Inbox:       inbox,
				PIDFile:     e.cfg.PIDFile(),
			})
		},
	}

	topLevel.AddCommand(cmd)

	topLevel.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "Show the key bindings of the full-screen editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k := key.Key{Out: cmd.OutOrStdout()}
			return k.Do(cmd.Context())
		},
	})

	topLevel.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show where memos keeps its state and what is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			inbox, err := e.inbox()
			if err != nil {
				return err
			}
			i := info.Info{Config: e.cfg, Settings: e.settings, Inbox: inbox, Out: cmd.OutOrStdout()}
			return i.Do(cmd.Context())
		},
	})
}
