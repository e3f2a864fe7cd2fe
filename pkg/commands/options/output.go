package options

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/memos/pkg/errs"
)

// OutputOptions
type OutputOptions struct {
	JSON bool

	// Out defaults to color.Output.
	Out io.Writer
}

func AddOutputArg(cmd *cobra.Command, po *OutputOptions) {
	cmd.Flags().BoolVar(&po.JSON, "json", false,
		"Output as JSON.")
}

func (o *OutputOptions) out() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return color.Output
}

// Write prints v as indented JSON.
func (o *OutputOptions) Write(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(o.out(), string(b))
	return err
}

func (o *OutputOptions) HandleError(err error) error {
	if o.JSON && err != nil {
		out := map[string]interface{}{
			"error": err.Error(),
		}
		var coded *errs.Error
		if errors.As(err, &coded) {
			out["error"] = coded
		}
		b, err := json.Marshal(out)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(o.out(), string(b))
		return nil
	}
	return err
}
