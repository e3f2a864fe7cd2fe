package printers

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/memos/pkg/memo"
)

const width = len("11 12 13 14 15 16 17") // an example week

// Activity prints a calendar of the month containing on with the days that
// have memos highlighted.
func (pp *PrettyPrint) Activity(on time.Time, memos ...*memo.Memo) {
	then := time.Date(on.Year(), on.Month(), 1, 1, 0, 0, 0, on.Location())
	pp.PrintMonthCount(then, CountByDay(then, memos...))
}

// ActivityYear prints every month of on's year.
func (pp *PrettyPrint) ActivityYear(on time.Time, memos ...*memo.Memo) {
	then := time.Date(on.Year(), 1, 1, 1, 0, 0, 0, on.Location())
	for i := 0; i < 12; i++ {
		pp.PrintMonthCount(then, CountByDay(then, memos...))
		then = NextMonth(then)
	}
}

// CountByDay counts memos created on each day of then's month, in then's
// location.
func CountByDay(then time.Time, memos ...*memo.Memo) []int {
	count := make([]int, DaysIn(then))
	for _, m := range memos {
		if m == nil {
			continue
		}
		c := m.Created.In(then.Location())
		if c.Year() == then.Year() && c.Month() == then.Month() {
			count[c.Day()-1]++
		}
	}
	return count
}

func (pp *PrettyPrint) PrintMonthCount(then time.Time, count []int) {
	out := pp.out()
	d := StartDay(then)

	tf := color.New(color.FgWhite, color.Italic)

	m := then.Month().String()
	mid := (width - len(m)) / 2
	_, _ = tf.Fprintf(out, "%s%s%s\n", strings.Repeat(" ", mid), m, strings.Repeat(" ", width-mid-len(m)))

	days := DaysIn(then)

	// Pad out the start of the month.
	_, _ = fmt.Fprint(out, strings.Repeat("   ", int(d)))

	l0 := color.New(color.Faint, color.FgWhite)
	l1 := color.New(color.FgGreen)
	l2 := color.New(color.Bold, color.FgHiGreen)

	for i := 0; i < days; i++ {
		n := 0
		if i < len(count) {
			n = count[i]
		}
		switch {
		case n == 0:
			_, _ = l0.Fprintf(out, "%2d ", i+1)
		case n < 3:
			_, _ = l1.Fprintf(out, "%2d ", i+1)
		default:
			_, _ = l2.Fprintf(out, "%2d ", i+1)
		}

		d++
		if d > time.Saturday {
			d = time.Sunday
			_, _ = fmt.Fprint(out, "\n")
		}
	}
	_, _ = fmt.Fprint(out, "\n\n")
}

func NextMonth(then time.Time) time.Time {
	return time.Date(then.Year(), then.Month()+1, 1, 1, 0, 0, 0, then.Location())
}

func DaysIn(then time.Time) int {
	return time.Date(then.Year(), then.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func StartDay(then time.Time) time.Weekday {
	return time.Date(then.Year(), then.Month(), 1, 1, 0, 0, 0, time.UTC).Weekday()
}
