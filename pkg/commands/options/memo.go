package options

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"tableflip.dev/memos/pkg/memo"
)

// VisibilityValue is a pflag.Value accepting private, protected or public.
type VisibilityValue struct {
	Visibility memo.Visibility
	set        bool
}

var _ pflag.Value = (*VisibilityValue)(nil)

func (v *VisibilityValue) String() string {
	if v.Visibility == "" {
		return ""
	}
	return v.Visibility.String()
}

func (v *VisibilityValue) Set(s string) error {
	parsed, err := memo.ParseVisibility(s)
	if err != nil {
		return err
	}
	v.Visibility = parsed
	v.set = true
	return nil
}

func (v *VisibilityValue) Type() string { return "visibility" }

// IsSet reports whether the flag was given.
func (v *VisibilityValue) IsSet() bool { return v.set }

// MemoOptions
type MemoOptions struct {
	Visibility VisibilityValue
	Tags       []string
	Files      []string
	Content    string
}

func AddMemoArgs(cmd *cobra.Command, o *MemoOptions) {
	cmd.Flags().VarP(&o.Visibility, "visibility", "v",
		"Memo visibility: private, protected or public.")
	cmd.Flags().StringSliceVarP(&o.Tags, "tag", "t", nil,
		"Tag the memo. Defaults to the #tags found in the content.")
}

func AddFileArgs(cmd *cobra.Command, o *MemoOptions) {
	cmd.Flags().StringArrayVarP(&o.Files, "file", "f", nil,
		"Attach an image. May be repeated.")
}

// TagsFor returns the explicit tags, or the ones found in content.
func (o *MemoOptions) TagsFor(content string) []string {
	if len(o.Tags) > 0 {
		return memo.NormalizeTags(o.Tags)
	}
	return memo.ExtractTags(content)
}

// ReadContent joins args, or reads stdin when there are none and stdin is not
// a terminal.
func ReadContent(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f, ok := stdin.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return "", errors.New("requires memo content as arguments or on stdin")
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\n"), nil
}
