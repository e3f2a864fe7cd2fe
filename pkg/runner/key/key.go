// Package key prints the full-screen UI's key bindings.
package key

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/memos/pkg/tui"
)

// Key prints a legend of the bindings on each screen.
type Key struct {
	Out io.Writer
}

func (k *Key) out() io.Writer {
	if k.Out != nil {
		return k.Out
	}
	return color.Output
}

// Do renders one table per screen.
func (k *Key) Do(ctx context.Context) error {
	_, _ = fmt.Fprintln(k.out(), "")
	for _, s := range tui.Legend() {
		k.Key(ctx, s)
		_, _ = fmt.Fprintln(k.out(), "")
	}
	return nil
}

// Key renders the bindings of one screen.
func (k *Key) Key(_ context.Context, s tui.Section) {
	bold := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint(s.Screen), bold.Sprint("Action"))
	for _, b := range s.Bindings {
		h := b.Help()
		tbl.AddRow(h.Key, h.Desc)
	}
	tbl.RightAlign(0)

	_, _ = fmt.Fprintln(k.out(), tbl)
}
