package printers

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/muesli/reflow/truncate"

	"tableflip.dev/memos/pkg/memo"
	"tableflip.dev/memos/pkg/settings"
	"tableflip.dev/memos/pkg/timeutil"
	"tableflip.dev/memos/pkg/widget"
)

const titleWidth = 60

// PrettyPrint writes human-oriented listings.
type PrettyPrint struct {
	ShowID bool
	// Out defaults to color.Output.
	Out io.Writer
	// Now defaults to time.Now.
	Now func() time.Time
	// MarkdownStyle is a glamour style name; empty picks one from the
	// terminal.
	MarkdownStyle string
	// Width wraps rendered markdown; zero means 80.
	Width int
}

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out != nil {
		return pp.Out
	}
	return color.Output
}

func (pp *PrettyPrint) now() time.Time {
	if pp.Now != nil {
		return pp.Now()
	}
	return time.Now()
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out(), "")
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintln(pp.out(), " memo")
	default:
		_, _ = c.Fprintln(pp.out(), " memos")
	}
}

// Memos prints one row per memo: age, visibility and title.
func (pp *PrettyPrint) Memos(memos ...*memo.Memo) {
	if len(memos) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(pp.out(), " none\n\n")
		return
	}

	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	faint := color.New(color.Faint)
	now := pp.now()

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, m := range memos {
		title := truncate.StringWithTail(m.Title(), titleWidth, "…")
		if len(m.Resources) > 0 {
			title += faint.Sprintf(" [%d]", len(m.Resources))
		}
		row := []interface{}{faint.Sprint(timeutil.Ago(m.Created, now)), m.Visibility.String(), title}
		if pp.ShowID {
			row = append([]interface{}{y.Sprint(m.ID)}, row...)
		}
		tbl.AddRow(row...)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Memo prints one memo with its metadata and the content rendered as
// markdown.
func (pp *PrettyPrint) Memo(m *memo.Memo) error {
	b := color.New(color.Bold)
	faint := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(b.Sprint("ID"), m.ID)
	tbl.AddRow(b.Sprint("Created"), fmt.Sprintf("%s %s", m.Created.Local().Format(time.RFC1123), faint.Sprintf("(%s)", timeutil.Ago(m.Created, pp.now()))))
	tbl.AddRow(b.Sprint("Visibility"), m.Visibility.String())
	if len(m.Tags) > 0 {
		tbl.AddRow(b.Sprint("Tags"), "#"+strings.Join(m.Tags, " #"))
	}
	if len(m.Resources) > 0 {
		tbl.AddRow(b.Sprint("Resources"), strings.Join(m.Resources, ", "))
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)

	rendered, err := pp.Markdown(m.Content)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(pp.out(), rendered)
	return nil
}

// Markdown renders content for the terminal.
func (pp *PrettyPrint) Markdown(content string) (string, error) {
	width := pp.Width
	if width <= 0 {
		width = 80
	}
	style := glamour.WithAutoStyle()
	if pp.MarkdownStyle != "" {
		style = glamour.WithStandardStyle(pp.MarkdownStyle)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", err
	}
	return r.Render(content)
}

// Resources prints uploaded attachments.
func (pp *PrettyPrint) Resources(resources ...memo.Resource) {
	if len(resources) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(pp.out(), " none\n\n")
		return
	}
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Filename"), bold.Sprint("Type"), bold.Sprint("Size"), bold.Sprint("Memo"))
	for _, r := range resources {
		owner := r.MemoID
		if owner == "" {
			owner = "(staged)"
		}
		tbl.AddRow(r.ID, r.Filename, r.MimeType, r.Size, owner)
	}
	tbl.RightAlign(3)
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

// Accounts prints registered accounts, marking the current one.
func (pp *PrettyPrint) Accounts(st settings.Settings) {
	if len(st.Users) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(pp.out(), " no accounts; add one with `memos account add`\n")
		return
	}
	bold := color.New(color.Bold)
	current := color.New(color.FgGreen, color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("", bold.Sprint("Account"), bold.Sprint("Host"), bold.Sprint("Draft"))
	for _, u := range st.Users {
		mark := ""
		if u.AccountKey == st.CurrentUser {
			mark = current.Sprint("*")
		}
		draft := truncate.StringWithTail(strings.ReplaceAll(u.Settings.Draft, "\n", " "), 30, "…")
		tbl.AddRow(mark, u.AccountKey, u.Host, draft)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

// Instances prints widget instances registered with the host.
func (pp *PrettyPrint) Instances(infos ...widget.InstanceInfo) {
	if len(infos) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(pp.out(), " no widget instances\n")
		return
	}
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Kind"))
	for _, i := range infos {
		tbl.AddRow(i.ID, i.Kind)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
}
