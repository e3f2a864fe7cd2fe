package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/memos/pkg/commands/options"
	"tableflip.dev/memos/pkg/runner/add"
	"tableflip.dev/memos/pkg/runner/edit"
	"tableflip.dev/memos/pkg/runner/get"
	"tableflip.dev/memos/pkg/runner/remove"
	"tableflip.dev/memos/pkg/runner/upload"
	"tableflip.dev/memos/pkg/timeutil"
)

func addAdd(topLevel *cobra.Command) {
	mo := &options.MemoOptions{}

	cmd := &cobra.Command{
		Use:     "add [content...]",
		Aliases: []string{"new"},
		Short:   "Add a memo",
		Example: `
memos add remember the milk #errand
memos add --visibility public --file cat.png look at this cat
echo "from a pipe" | memos add
`,
		Args: func(cmd *cobra.Command, args []string) error {
			var err error
			mo.Content, err = options.ReadContent(args, cmd.InOrStdin())
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return oo.HandleError(err)
			}
			coord, err := e.coordinator()
			if err != nil {
				return oo.HandleError(err)
			}
			a := add.Add{
				Content:     mo.Content,
				Visibility:  mo.Visibility.Visibility,
				Tags:        mo.TagsFor(mo.Content),
				Files:       mo.Files,
				Coordinator: coord,
				Printer:     printer(false),
				Output:      oo,
			}
			return oo.HandleError(a.Do(cmd.Context()))
		},
	}

	options.AddMemoArgs(cmd, mo)
	options.AddFileArgs(cmd, mo)
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addEdit(topLevel *cobra.Command) {
	mo := &options.MemoOptions{}
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:   "edit <memo id> [content...]",
		Short: "Replace the content of a memo",
		Example: `
memos edit 01HV3M8Q2V5 remember the oat milk #errand
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := options.MemoIDArg(io)(cmd, args); err != nil {
				return err
			}
			var err error
			mo.Content, err = options.ReadContent(args[1:], cmd.InOrStdin())
			return err
		},
		ValidArgsFunction: memoCompletions,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return oo.HandleError(err)
			}
			coord, err := e.coordinator()
			if err != nil {
				return oo.HandleError(err)
			}
			ed := edit.Edit{
				ID:          io.ID,
				Content:     mo.Content,
				Visibility:  mo.Visibility.Visibility,
				Tags:        mo.Tags,
				Files:       mo.Files,
				Coordinator: coord,
				Printer:     printer(false),
				Output:      oo,
			}
			return oo.HandleError(ed.Do(cmd.Context()))
		},
	}

	options.AddMemoArgs(cmd, mo)
	options.AddFileArgs(cmd, mo)
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addDelete(topLevel *cobra.Command) {
	io := &options.IDOptions{}
	var (
		resource bool
		yes      bool
	)

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a memo or a resource",
		Example: `
memos delete 01HV3M8Q2V5
memos delete --resource 01HV3M9X7TZ --yes
`,
		Args:              options.MemoIDArg(io),
		ValidArgsFunction: memoCompletions,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return oo.HandleError(err)
			}
			coord, err := e.coordinator()
			if err != nil {
				return oo.HandleError(err)
			}
			r := remove.Remove{
				ID:          io.ID,
				Resource:    resource,
				Confirm:     !yes && !oo.JSON,
				Coordinator: coord,
				Output:      oo,
			}
			return oo.HandleError(r.Do(cmd.Context()))
		},
	}

	cmd.Flags().BoolVar(&resource, "resource", false, "Delete a resource instead of a memo.")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation.")
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addList(topLevel *cobra.Command) {
	io := &options.IDOptions{}
	lo := &options.ListOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "get"},
		Short:   "List memos, most recent first",
		Example: `
memos list --since 2d
memos list --tag errand -n 5
memos list --calendar
memos list --calendar --year
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l := get.List{
				Tag:      lo.Tag,
				Limit:    lo.Limit,
				Calendar: lo.Calendar,
				Year:     lo.Year,
				Printer:  printer(io.ShowID),
				Output:   oo,
			}
			if lo.Since != "" {
				d, err := timeutil.ParseWindow(lo.Since)
				if err != nil {
					return oo.HandleError(err)
				}
				l.Since = d
			}
			e, err := loadEnv()
			if err != nil {
				return oo.HandleError(err)
			}
			if l.Repository, err = e.repository(); err != nil {
				return oo.HandleError(err)
			}
			return oo.HandleError(l.Do(cmd.Context()))
		},
	}

	options.AddListArgs(cmd, lo)
	options.AddShowIDArgs(cmd, io)
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addShow(topLevel *cobra.Command) {
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:               "show <memo id>",
		Short:             "Show one memo with its content rendered",
		Args:              options.MemoIDArg(io),
		ValidArgsFunction: memoCompletions,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return oo.HandleError(err)
			}
			repo, err := e.repository()
			if err != nil {
				return oo.HandleError(err)
			}
			s := get.Show{
				ID:         io.ID,
				Repository: repo,
				Printer:    printer(true),
				Output:     oo,
			}
			return oo.HandleError(s.Do(cmd.Context()))
		},
	}

	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addUpload(topLevel *cobra.Command) {
	var memoID string

	cmd := &cobra.Command{
		Use:   "upload <image>...",
		Short: "Upload images as memo resources",
		Long: options.Wrap80(`Images are re-encoded as JPEG before they are sent. With --memo the
uploads are attached to that memo; otherwise they stay unattached.`),
		Example: `
memos upload --memo 01HV3M8Q2V5 receipt.png
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return oo.HandleError(err)
			}
			coord, err := e.coordinator()
			if err != nil {
				return oo.HandleError(err)
			}
			u := upload.Upload{
				Files:       args,
				MemoID:      memoID,
				Coordinator: coord,
				Printer:     printer(false),
				Output:      oo,
			}
			return oo.HandleError(u.Do(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&memoID, "memo", "", "Attach the uploads to this memo.")
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
