package remove

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"

	"tableflip.dev/memos/pkg/commands/options"
	"tableflip.dev/memos/pkg/mutation"
)

// Remove deletes a memo, or a resource when Resource is set.
type Remove struct {
	ID       string
	Resource bool
	// Confirm asks before deleting.
	Confirm bool

	Coordinator *mutation.Coordinator
	Output      *options.OutputOptions
}

func (n *Remove) Do(ctx context.Context) error {
	if n.Coordinator == nil {
		return errors.New("can not delete, no server connection")
	}
	kind := "memo"
	if n.Resource {
		kind = "resource"
	}

	if n.Confirm {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete %s %s", kind, n.ID),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			if errors.Is(err, promptui.ErrAbort) {
				return nil
			}
			return err
		}
	}

	var err error
	if n.Resource {
		err = n.Coordinator.DeleteResource(ctx, n.ID)
	} else {
		err = n.Coordinator.DeleteMemo(ctx, n.ID)
	}
	if err != nil {
		return err
	}

	if n.Output != nil && n.Output.JSON {
		return n.Output.Write(map[string]string{"deleted": n.ID, "kind": kind})
	}
	_, _ = color.New(color.Faint).Fprintf(color.Output, "deleted %s %s\n", kind, n.ID)
	return nil
}
