package upload

import (
	"context"
	"errors"

	"tableflip.dev/memos/pkg/commands/options"
	"tableflip.dev/memos/pkg/memo"
	"tableflip.dev/memos/pkg/mutation"
	"tableflip.dev/memos/pkg/printers"
)

// Upload sends images as JPEG resources. With MemoID they are attached to
// that memo together with its existing resources; without, they stay
// unattached until a memo references them.
type Upload struct {
	Files  []string
	MemoID string

	Coordinator *mutation.Coordinator
	Printer     *printers.PrettyPrint
	Output      *options.OutputOptions

	Uploaded []memo.Resource
}

func (n *Upload) Do(ctx context.Context) error {
	if n.Coordinator == nil {
		return errors.New("can not upload, no server connection")
	}
	if len(n.Files) == 0 {
		return errors.New("requires at least one file")
	}

	var seed []memo.Resource
	if n.MemoID != "" {
		var err error
		if seed, err = n.Coordinator.Repository.ListResources(ctx, n.MemoID); err != nil {
			return err
		}
	}
	if err := n.Coordinator.Staging.Begin(n.MemoID, seed...); err != nil {
		return err
	}
	defer n.Coordinator.Staging.End()

	for _, f := range n.Files {
		r, err := n.Coordinator.UploadFile(ctx, f, n.MemoID)
		if err != nil {
			return err
		}
		n.Uploaded = append(n.Uploaded, *r)
	}

	if n.Output != nil && n.Output.JSON {
		return n.Output.Write(n.Uploaded)
	}
	if n.Printer != nil {
		n.Printer.Resources(n.Uploaded...)
	}
	return nil
}
