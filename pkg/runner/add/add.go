package add

import (
	"context"
	"errors"
	"strings"

	"tableflip.dev/memos/pkg/commands/options"
	"tableflip.dev/memos/pkg/errs"
	"tableflip.dev/memos/pkg/memo"
	"tableflip.dev/memos/pkg/mutation"
	"tableflip.dev/memos/pkg/printers"
)

// Add creates one memo, uploading Files first so they are attached.
type Add struct {
	Content    string
	Visibility memo.Visibility
	Tags       []string
	Files      []string

	Coordinator *mutation.Coordinator
	Printer     *printers.PrettyPrint
	Output      *options.OutputOptions

	// Created is set once the memo exists.
	Created *memo.Memo
}

func (n *Add) Do(ctx context.Context) error {
	if n.Coordinator == nil {
		return errors.New("can not add, no server connection")
	}
	content := strings.TrimSpace(n.Content)
	if content == "" {
		return errs.New(errs.CodeValidation, "memo content is empty")
	}
	vis := n.Visibility
	if vis == "" {
		vis = memo.Private
	}

	if err := n.Coordinator.Staging.Begin(""); err != nil {
		return err
	}
	defer n.Coordinator.Staging.End()

	for _, f := range n.Files {
		if _, err := n.Coordinator.UploadFile(ctx, f, ""); err != nil {
			return err
		}
	}

	m, err := n.Coordinator.CreateMemo(ctx, content, vis, n.Tags)
	if err != nil {
		return err
	}
	n.Created = m

	if n.Output != nil && n.Output.JSON {
		return n.Output.Write(m)
	}
	if n.Printer != nil {
		n.Printer.Title("Added")
		n.Printer.Memos(m)
	}
	return nil
}
