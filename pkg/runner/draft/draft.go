// Package draft reads and writes the per-account compose draft from the
// command line.
package draft

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/memos/pkg/commands/options"
	"tableflip.dev/memos/pkg/draft"
)

type Get struct {
	// Account defaults to the current account.
	Account string

	Drafts *draft.Store
	Out    io.Writer
	Output *options.OutputOptions
}

func (n *Get) Do(ctx context.Context) error {
	if n.Drafts == nil {
		return errors.New("can not read draft, no settings store")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var text string
	if n.Account == "" {
		var err error
		if text, err = n.Drafts.CurrentDraft(); err != nil {
			return err
		}
	} else {
		// The first value on the stream is the stored draft.
		text = <-n.Drafts.ReadDraft(ctx, n.Account)
	}
	if n.Output != nil && n.Output.JSON {
		return n.Output.Write(map[string]string{"draft": text})
	}
	_, err := fmt.Fprintln(out(n.Out), text)
	return err
}

type Set struct {
	Account string
	Text    string

	Drafts *draft.Store
}

func (n *Set) Do(_ context.Context) error {
	if n.Drafts == nil {
		return errors.New("can not write draft, no settings store")
	}
	if n.Account == "" {
		return n.Drafts.WriteCurrentDraft(n.Text)
	}
	return n.Drafts.WriteDraft(n.Account, n.Text)
}

// Watch prints the draft every time another process changes it, until ctx is
// done.
type Watch struct {
	Account string

	Drafts *draft.Store
	Out    io.Writer
}

func (n *Watch) Do(ctx context.Context) error {
	if n.Drafts == nil {
		return errors.New("can not watch draft, no settings store")
	}
	var ch <-chan string
	if n.Account == "" {
		ch = n.Drafts.ReadCurrentDraft(ctx)
	} else {
		ch = n.Drafts.ReadDraft(ctx, n.Account)
	}
	sep := color.New(color.Faint)
	for text := range ch {
		_, _ = sep.Fprintln(out(n.Out), "---")
		if _, err := fmt.Fprintln(out(n.Out), text); err != nil {
			return err
		}
	}
	return nil
}

func out(w io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return color.Output
}
