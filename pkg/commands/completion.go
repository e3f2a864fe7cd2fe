package commands

import (
	"context"

	"github.com/spf13/cobra"
)

func addCompletions(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generates bash completion scripts",
		Long: `To load completion run

. <(memos completion)

To configure your bash shell to load completions for each session add to your bashrc

# ~/.bashrc or ~/.profile
. <(memos completion)
`,
		Run: func(cmd *cobra.Command, args []string) {
			_ = topLevel.GenBashCompletion(cmd.OutOrStdout())
		},
	}

	topLevel.AddCommand(cmd)
}

// memoCompletions offers the ids of recent memos.
func memoCompletions(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	e, err := loadEnv()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	repo, err := e.repository()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	memos, err := repo.ListMemos(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ids := make([]string, 0, len(memos))
	for _, m := range memos {
		ids = append(ids, m.ID+"\t"+m.Title())
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

func accountCompletions(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	e, err := loadEnv()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	s, err := e.settings.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	keys := make([]string, 0, len(s.Users))
	for _, u := range s.Users {
		keys = append(keys, u.AccountKey)
	}
	return keys, cobra.ShellCompDirectiveNoFileComp
}
