package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"tableflip.dev/memos/pkg/commands/options"
	"tableflip.dev/memos/pkg/launch"
)

func addOpen(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Ask the full-screen UI to show a screen",
		Long: options.Wrap80(`If the UI is running it switches screens right away. Otherwise the request
waits in the inbox and the next "memos ui" starts on that screen.`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	compose := &cobra.Command{
		Use:   "compose",
		Short: "Open the editor for a new memo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return oo.HandleError(err)
			}
			r, err := e.router()
			if err != nil {
				return oo.HandleError(err)
			}
			d, err := r.Add()
			return oo.HandleError(reportDelivery(cmd, d, err))
		},
	}
	options.AddOutputArg(compose, oo)

	io := &options.IDOptions{}
	edit := &cobra.Command{
		Use:               "edit <memo id>",
		Short:             "Open the editor on an existing memo",
		Args:              options.MemoIDArg(io),
		ValidArgsFunction: memoCompletions,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return oo.HandleError(err)
			}
			r, err := e.router()
			if err != nil {
				return oo.HandleError(err)
			}
			d, err := r.OpenMemo(io.ID)
			return oo.HandleError(reportDelivery(cmd, d, err))
		},
	}
	options.AddOutputArg(edit, oo)

	cmd.AddCommand(compose, edit)
	topLevel.AddCommand(cmd)
}

func reportDelivery(cmd *cobra.Command, d launch.Delivery, err error) error {
	if err != nil {
		return err
	}
	if oo.JSON {
		return oo.Write(map[string]interface{}{
			"action": d.Request.Action,
			"memoId": d.Request.MemoID,
			"live":   d.Live,
		})
	}
	if d.Live {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "sent to the running UI")
	} else {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "queued; run `memos ui` to open it")
	}
	return nil
}
