package widget

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"tableflip.dev/memos/pkg/timeutil"
)

const (
	// DefaultWidth is the frame width used when an instance does not say.
	DefaultWidth = 40
	minWidth     = 24

	// MaxContentLines is how many lines of a memo a card shows.
	MaxContentLines = 3

	// EmptyText is shown when there are no memos.
	EmptyText = "No memos"

	// AddKey opens the compose screen from a widget.
	AddKey = "a"
)

// Slot ties a key shown on a card to the memo it opens.
type Slot struct {
	Key    string `json:"key"`
	MemoID string `json:"memoId"`
}

// Frame is what an instance draws: the rendered text plus the snapshot it
// came from, so interactive instances can re-render at their own size.
type Frame struct {
	Snapshot Snapshot  `json:"snapshot"`
	Text     string    `json:"text"`
	Slots    []Slot    `json:"slots"`
	Width    int       `json:"width"`
	Rendered time.Time `json:"rendered"`
}

// Resize renders the same snapshot at another width, keeping the render time
// so relative timestamps agree across instances.
func (f Frame) Resize(width int) Frame {
	if width <= 0 || width == f.Width {
		return f
	}
	return Render(f.Snapshot, width, f.Rendered)
}

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "248", Dark: "240"}).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true)
	addStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "25", Dark: "75"})
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "25", Dark: "75"}).Bold(true)
	timeStyle  = lipgloss.NewStyle().Faint(true)
	emptyStyle = lipgloss.NewStyle().Faint(true).Italic(true)
)

// Render lays out snap as a card list width cells wide.
func Render(snap Snapshot, width int, now time.Time) Frame {
	if width <= 0 {
		width = DefaultWidth
	}
	if width < minWidth {
		width = minWidth
	}
	// Border and padding take two cells each side.
	inner := width - 4

	title := titleStyle.Render("Memos")
	add := addStyle.Render("[" + AddKey + "] +")
	gap := inner - lipgloss.Width(title) - lipgloss.Width(add)
	if gap < 1 {
		gap = 1
	}
	rows := []string{title + strings.Repeat(" ", gap) + add}

	frame := Frame{Snapshot: snap, Width: width, Slots: []Slot{}, Rendered: now}
	if len(snap.Memos) == 0 {
		rows = append(rows, "", emptyStyle.Render(EmptyText))
	}
	for i, m := range snap.Memos {
		key := fmt.Sprintf("%d", i+1)
		frame.Slots = append(frame.Slots, Slot{Key: key, MemoID: m.ID})

		rows = append(rows, "")
		lines := ContentLines(m.Content, inner-2, MaxContentLines)
		if len(lines) == 0 {
			lines = []string{emptyStyle.Render("(empty)")}
		}
		for j, line := range lines {
			prefix := "  "
			if j == 0 {
				prefix = keyStyle.Render(key) + " "
			}
			rows = append(rows, prefix+line)
		}
		rows = append(rows, "  "+timeStyle.Render(timeutil.Ago(m.Created, now)))
	}

	frame.Text = frameStyle.Width(width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return frame
}

// ContentLines wraps content to width, drops blank lines and keeps at most
// limit lines, marking a cut with an ellipsis.
func ContentLines(content string, width, limit int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	for _, line := range strings.Split(wordwrap.String(strings.TrimSpace(content), width), "\n") {
		if line = strings.TrimRight(line, " "); line != "" {
			lines = append(lines, line)
		}
	}
	cut := len(lines) > limit
	if cut {
		lines = lines[:limit]
	}
	for i, line := range lines {
		lines[i] = truncate.StringWithTail(line, uint(width), "…")
	}
	if cut && limit > 0 {
		last := lines[limit-1]
		if lipgloss.Width(last) >= width {
			last = truncate.StringWithTail(last, uint(width-1), "")
		}
		lines[limit-1] = last + "…"
	}
	return lines
}
