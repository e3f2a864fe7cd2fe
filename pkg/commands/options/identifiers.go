package options

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

// IDOptions
type IDOptions struct {
	ShowID bool
	ID     string
}

func AddShowIDArgs(cmd *cobra.Command, o *IDOptions) {
	cmd.Flags().BoolVarP(&o.ShowID, "show-id", "k", false,
		"Show the ID of each memo.")
}

// MemoIDArg takes the memo id from the first argument.
func MemoIDArg(o *IDOptions) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < 1 || strings.TrimSpace(args[0]) == "" {
			return errors.New("requires a memo id")
		}
		o.ID = strings.TrimSpace(args[0])
		return nil
	}
}
