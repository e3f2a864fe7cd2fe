package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tableflip.dev/memos/pkg/commands/options"
	"tableflip.dev/memos/pkg/host"
	"tableflip.dev/memos/pkg/router"
	"tableflip.dev/memos/pkg/viewer"
	"tableflip.dev/memos/pkg/widget"
)

func addWidget(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "widget",
		Short: "Run and inspect the home screen widget host",
		Long: options.Wrap80(`The widget host keeps the most recent memos and draws them on every
registered widget instance: terminal viewers and files. It refreshes on a
timer and whenever a memo is written from any memos process.`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newWidgetServeCmd(),
		newWidgetViewCmd(),
		newWidgetShowCmd(),
		newWidgetInstancesCmd(),
		newWidgetAttachCmd(),
		newWidgetRemoveCmd(),
		newWidgetRefreshCmd(),
		newWidgetTapCmd(),
	)
	topLevel.AddCommand(cmd)
}

func widgetClient() (*host.Client, error) {
	e, err := loadEnv()
	if err != nil {
		return nil, err
	}
	return host.NewClient(e.cfg.WidgetSocket()), nil
}

func newWidgetServeCmd() *cobra.Command {
	var (
		files []string
		width int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the widget host",
		Example: `
memos widget serve --file ~/.cache/memos-widget.txt
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			repo, err := e.repository()
			if err != nil {
				return err
			}
			r, err := e.router()
			if err != nil {
				return err
			}

			reg := widget.NewRegistry()
			refresh := widget.NewRefreshCoordinator(repo, widget.NewSurface(e.cfg.WidgetCap()), reg)
			refresh.Interval = e.cfg.WidgetInterval()
			for _, f := range files {
				path, err := filepath.Abs(f)
				if err != nil {
					return err
				}
				if err := reg.Register(widget.NewFileSink(uuid.New().String(), path, width)); err != nil {
					return err
				}
			}

			srv := host.New(refresh, r)
			return srv.Serve(cmd.Context(), e.cfg.WidgetSocket())
		},
	}
	cmd.Flags().StringArrayVar(&files, "file", nil, "Draw the widget into this file. May be repeated.")
	cmd.Flags().IntVar(&width, "width", widget.DefaultWidth, "Width of file widgets.")
	return cmd
}

func newWidgetViewCmd() *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show a live widget in this terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := widgetClient()
			if err != nil {
				return err
			}
			return viewer.Run(cmd.Context(), c, width)
		},
	}
	cmd.Flags().IntVar(&width, "width", widget.DefaultWidth, "Initial widget width.")
	return cmd
}

func newWidgetShowCmd() *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the widget once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := widgetClient()
			if err != nil {
				return oo.HandleError(err)
			}
			snap, err := c.Snapshot(cmd.Context())
			if err != nil {
				return oo.HandleError(err)
			}
			if oo.JSON {
				return oo.Write(snap)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), widget.Render(snap, width, time.Now()).Text)
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", widget.DefaultWidth, "Widget width.")
	options.AddOutputArg(cmd, oo)
	return cmd
}

func newWidgetInstancesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "instances",
		Aliases: []string{"ls"},
		Short:   "List registered widget instances",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := widgetClient()
			if err != nil {
				return oo.HandleError(err)
			}
			infos, err := c.Instances(cmd.Context())
			if err != nil {
				return oo.HandleError(err)
			}
			if oo.JSON {
				return oo.Write(infos)
			}
			printer(false).Instances(infos...)
			return nil
		},
	}
	options.AddOutputArg(cmd, oo)
	return cmd
}

func newWidgetAttachCmd() *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "attach <file>",
		Short: "Add a file widget to the running host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := widgetClient()
			if err != nil {
				return oo.HandleError(err)
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return oo.HandleError(err)
			}
			info, err := c.AddFileSink(cmd.Context(), path, width)
			if err != nil {
				return oo.HandleError(err)
			}
			if oo.JSON {
				return oo.Write(info)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "attached %s as %s\n", path, info.ID)
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", widget.DefaultWidth, "Widget width.")
	options.AddOutputArg(cmd, oo)
	return cmd
}

func newWidgetRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <instance id>",
		Short: "Unregister a widget instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := widgetClient()
			if err != nil {
				return err
			}
			return c.RemoveInstance(cmd.Context(), args[0])
		},
	}
}

func newWidgetRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Ask the host to fetch memos now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := widgetClient()
			if err != nil {
				return err
			}
			return c.Refresh(cmd.Context())
		},
	}
}

func newWidgetTapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tap add | tap <memo id>",
		Short: "Send a gesture as if a widget was tapped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := widgetClient()
			if err != nil {
				return oo.HandleError(err)
			}
			g := router.Gesture{Kind: router.GestureOpen, MemoID: args[0]}
			if args[0] == router.GestureAdd {
				g = router.Gesture{Kind: router.GestureAdd}
			}
			d, err := c.Gesture(cmd.Context(), g)
			return oo.HandleError(reportDelivery(cmd, d, err))
		},
	}
	options.AddOutputArg(cmd, oo)
	return cmd
}
