package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/memos/pkg/commands/options"
	"tableflip.dev/memos/pkg/runner/draft"
)

func addDraft(topLevel *cobra.Command) {
	var account string

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Read or replace the compose draft",
		Long: options.Wrap80(`Each account keeps one draft. The full-screen editor saves it while you type
and clears it when the memo is saved.`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&account, "account", "", "Account to use instead of the current one.")

	get := &cobra.Command{
		Use:   "get",
		Short: "Print the draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return oo.HandleError(err)
			}
			g := draft.Get{Account: account, Drafts: e.drafts(), Out: cmd.OutOrStdout(), Output: oo}
			return oo.HandleError(g.Do(cmd.Context()))
		},
	}
	options.AddOutputArg(get, oo)

	set := &cobra.Command{
		Use:   "set [text...]",
		Short: "Replace the draft; no text clears it",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			text := ""
			if len(args) > 0 {
				if text, err = options.ReadContent(args, cmd.InOrStdin()); err != nil {
					return err
				}
			}
			s := draft.Set{Account: account, Text: text, Drafts: e.drafts()}
			return s.Do(cmd.Context())
		},
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Print the draft every time it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			w := draft.Watch{Account: account, Drafts: e.drafts(), Out: cmd.OutOrStdout()}
			return w.Do(cmd.Context())
		},
	}

	cmd.AddCommand(get, set, watch)
	topLevel.AddCommand(cmd)
}
