package options

import (
	"github.com/spf13/cobra"
)

// ListOptions filters the memo listing.
type ListOptions struct {
	Since    string
	Limit    int
	Tag      string
	Calendar bool
	Year     bool
}

func AddListArgs(cmd *cobra.Command, o *ListOptions) {
	cmd.Flags().StringVar(&o.Since, "since", "",
		`Only memos newer than this window, e.g. "36h", "2d" or "1w".`)
	cmd.Flags().IntVarP(&o.Limit, "limit", "n", 0,
		"Show at most this many memos.")
	cmd.Flags().StringVar(&o.Tag, "tag", "",
		"Only memos with this tag.")
	cmd.Flags().BoolVar(&o.Calendar, "calendar", false,
		"Show a calendar of memo activity for the month.")
	cmd.Flags().BoolVar(&o.Year, "year", false,
		"With --calendar, show every month of the year.")
}
