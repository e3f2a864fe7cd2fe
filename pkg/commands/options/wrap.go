package options

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

// Wrap80 reflows help text to 80 columns.
func Wrap80(text string) string {
	return Wrap(text, 80)
}

// Wrap joins the words of text with single spaces and breaks lines before
// width. Words longer than width are kept whole.
func Wrap(text string, width int) string {
	flat := strings.Join(strings.Fields(text), " ")
	if flat == "" {
		return text
	}
	return strings.TrimRight(wordwrap.String(flat, width), " \n")
}
