package edit

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

// Edit replaces a memo's content. Existing attachments are kept and Files are
// added to them. An empty Visibility keeps the memo's current one.
type Edit struct {
	ID         string
	Content    string
	Visibility memo.Visibility
	Tags       []string
	Files      []string

	Coordinator *mutation.Coordinator
	Printer     *printers.PrettyPrint
	Output      *options.OutputOptions
}

func (n *Edit) Do(ctx context.Context) error {
	if n.Coordinator == nil {
		return errors.New("can not edit, no server connection")
	}
	content := strings.TrimSpace(n.Content)
	if content == "" {
		return errs.New(errs.CodeValidation, "memo content is empty")
	}

	repo := n.Coordinator.Repository
	current, err := repo.GetMemo(ctx, n.ID)
	if err != nil {
		return err
	}
	attached, err := repo.ListResources(ctx, current.ID)
	if err != nil {
		return err
	}
	if err := n.Coordinator.Staging.Begin(current.ID, attached...); err != nil {
		return err
	}
	defer n.Coordinator.Staging.End()

	for _, f := range n.Files {
		if _, err := n.Coordinator.UploadFile(ctx, f, current.ID); err != nil {
			return err
		}
	}

	vis := n.Visibility
	if vis == "" {
		vis = current.Visibility
	}
	tags := n.Tags
	if len(tags) == 0 {
		tags = memo.ExtractTags(content)
	}

	m, err := n.Coordinator.EditMemo(ctx, current.ID, content, vis, tags)
	if err != nil {
		return err
	}

	if n.Output != nil && n.Output.JSON {
		return n.Output.Write(m)
	}
	if n.Printer != nil {
		n.Printer.Title("Updated")
		n.Printer.Memos(m)
	}
	return nil
}
