package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/memos/pkg/commands/options"
)

var (
	oo = &options.OutputOptions{}
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "memos",
		Short: options.Wrap80("Quick memos from the command line, a full-screen editor and a home screen widget."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addUI(topLevel)
	addAdd(topLevel)
	addEdit(topLevel)
	addDelete(topLevel)
	addList(topLevel)
	addShow(topLevel)
	addUpload(topLevel)
	addDraft(topLevel)
	addOpen(topLevel)
	addAccount(topLevel)
	addWidget(topLevel)
	addMCP(topLevel)
	addDevServer(topLevel)
	addCompletions(topLevel)
	addVersion(topLevel)
}
