package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/memos/pkg/commands/options"
	"tableflip.dev/memos/pkg/devserver"
)

func addDevServer(topLevel *cobra.Command) {
	var (
		addr  string
		db    string
		token string
	)
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run a local memo server for development",
		Long: options.Wrap80(`Serves the memo API from a SQLite file so the client, the widget host and
the MCP server can be tried without a real server.`),
		Example: `
memos devserver --token dev &
memos account add local --host http://127.0.0.1:5230 --token dev --use
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = e.cfg.DevServerAddr()
			}
			if db == "" {
				db = e.cfg.DevServerDB()
			}
			store, err := devserver.OpenStore(db)
			if err != nil {
				return err
			}
			defer store.Close()
			return devserver.New(store, token).ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address. Defaults to devserver.addr from the config.")
	cmd.Flags().StringVar(&db, "db", "", "SQLite file, or :memory:. Defaults to devserver.db from the config.")
	cmd.Flags().StringVar(&token, "token", "", "Require this bearer token.")
	topLevel.AddCommand(cmd)
}
