package commands

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"tableflip.dev/memos/pkg/commands/options"
	"tableflip.dev/memos/pkg/runner/mcp"
)

func addMCP(topLevel *cobra.Command) {
	mo := &options.MCPOptions{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve memo tools over the Model Context Protocol",
		Long: options.Wrap80(`Lets assistants list, read, write and open memos. Writes go through the
same path as the editor, so the widget refreshes after each one.`),
		Example: `
memos mcp --http-port 0
memos mcp --transport stdio
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			transport, err := mo.TransportKind()
			if err != nil {
				return err
			}
			e, err := loadEnv()
			if err != nil {
				return err
			}
			coord, err := e.coordinator()
			if err != nil {
				return err
			}
			r, err := e.router()
			if err != nil {
				return err
			}

			runner := mcp.Runner{
				Service:   mcp.NewService(coord, r),
				Name:      "memos",
				Version:   version,
				Transport: transport,
			}
			if transport == mcp.TransportHTTP {
				if runner.HTTP, err = mo.HTTP(); err != nil {
					return err
				}
				h := runner.HTTP
				runner.HTTP.OnListening = func(a net.Addr) {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "MCP endpoint at %s\n", options.EndpointURL(h, a))
				}
			}
			return runner.Do(cmd.Context())
		},
	}

	options.AddMCPArgs(cmd, mo)
	topLevel.AddCommand(cmd)
}
