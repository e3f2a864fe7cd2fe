package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"tableflip.dev/memos/pkg/commands/options"
	"tableflip.dev/memos/pkg/runner/account"
)

func addAccount(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "account",
		Aliases: []string{"accounts"},
		Short:   "Manage server accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	a := &account.Add{}
	add := &cobra.Command{
		Use:   "add [key]",
		Short: "Register an account",
		Example: `
memos account add --host https://memos.example.com --token $MEMOS_TOKEN
memos account add work
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				a.Key = args[0]
			}
			if a.Host == "" {
				a.Host = e.cfg.ServerURL()
			}
			a.Prompt = true
			a.Settings = e.settings
			if err := a.Do(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added account %s\n", a.Key)
			return nil
		},
	}
	add.Flags().StringVar(&a.Host, "host", "", "Server URL. Defaults to server.url from the config.")
	add.Flags().StringVar(&a.Token, "token", "", "Access token.")
	add.Flags().BoolVar(&a.Current, "use", false, "Make this the current account.")

	use := &cobra.Command{
		Use:               "use [key]",
		Short:             "Switch the current account",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: accountCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			u := account.Use{Settings: e.settings}
			if len(args) == 1 {
				u.Key = args[0]
			}
			return u.Do(cmd.Context())
		},
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List accounts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return oo.HandleError(err)
			}
			l := account.List{Settings: e.settings, Printer: printer(false), Output: oo}
			return oo.HandleError(l.Do(cmd.Context()))
		},
	}
	options.AddOutputArg(list, oo)

	remove := &cobra.Command{
		Use:               "remove <key>",
		Aliases:           []string{"rm"},
		Short:             "Forget an account and its draft",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: accountCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			return e.settings.RemoveUser(args[0])
		},
	}

	cmd.AddCommand(add, use, list, remove)
	topLevel.AddCommand(cmd)
}
