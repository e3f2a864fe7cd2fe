package get

import (
	"context"
	"errors"
	"strings"
	"time"

	"tableflip.dev/memos/pkg/commands/options"
	"tableflip.dev/memos/pkg/memo"
	"tableflip.dev/memos/pkg/printers"
	"tableflip.dev/memos/pkg/remote"
	"tableflip.dev/memos/pkg/timeutil"
)

// List prints memos, most recent first.
type List struct {
	// Since limits the listing to memos newer than now minus Since.
	Since    time.Duration
	Tag      string
	Limit    int
	Calendar bool
	// Year widens the calendar to the whole year.
	Year bool
	Now  func() time.Time

	Repository remote.Repository
	Printer    *printers.PrettyPrint
	Output     *options.OutputOptions
}

func (n *List) Do(ctx context.Context) error {
	if n.Repository == nil {
		return errors.New("can not list, no server connection")
	}
	all, err := n.Repository.ListMemos(ctx)
	if err != nil {
		return err
	}
	memo.SortRecent(all)
	all = n.filtered(all)

	if n.Output != nil && n.Output.JSON {
		if all == nil {
			all = []*memo.Memo{}
		}
		return n.Output.Write(all)
	}

	pp := n.Printer
	if pp == nil {
		pp = &printers.PrettyPrint{}
	}
	switch {
	case n.Calendar && n.Year:
		pp.ActivityYear(n.now(), all...)
		return nil
	case n.Calendar:
		pp.Activity(n.now(), all...)
		return nil
	}
	title := "Memos"
	if n.Tag != "" {
		title = "#" + strings.TrimPrefix(n.Tag, "#")
	}
	if n.Since > 0 {
		title += " in the last " + timeutil.FormatWindow(n.Since)
	}
	pp.TitleWithCount(title, len(all))
	pp.Memos(all...)
	return nil
}

func (n *List) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

func (n *List) filtered(all []*memo.Memo) []*memo.Memo {
	tag := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(n.Tag), "#"))
	var cutoff time.Time
	if n.Since > 0 {
		cutoff = n.now().Add(-n.Since)
	}

	c := make([]*memo.Memo, 0, len(all))
	for _, m := range all {
		if !cutoff.IsZero() && m.Created.Before(cutoff) {
			continue
		}
		if tag != "" && !hasTag(m, tag) {
			continue
		}
		c = append(c, m)
		if n.Limit > 0 && len(c) == n.Limit {
			break
		}
	}
	return c
}

func hasTag(m *memo.Memo, tag string) bool {
	for _, t := range m.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Show prints one memo with its content rendered.
type Show struct {
	ID string

	Repository remote.Repository
	Printer    *printers.PrettyPrint
	Output     *options.OutputOptions
}

func (n *Show) Do(ctx context.Context) error {
	if n.Repository == nil {
		return errors.New("can not show, no server connection")
	}
	m, err := n.Repository.GetMemo(ctx, n.ID)
	if err != nil {
		return err
	}
	if n.Output != nil && n.Output.JSON {
		return n.Output.Write(m)
	}
	pp := n.Printer
	if pp == nil {
		pp = &printers.PrettyPrint{}
	}
	return pp.Memo(m)
}
