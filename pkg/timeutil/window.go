package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	day  = 24 * time.Hour
	week = 7 * day
)

var windowUnits = map[string]time.Duration{
	"s": time.Second, "sec": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": day, "day": day, "days": day,
	"w": week, "wk": week, "week": week, "weeks": week,
}

// ParseWindow reads a look-back window such as "36h", "2d" or "1w2d". Empty
// input means no window and returns zero.
func ParseWindow(input string) (time.Duration, error) {
	s := strings.ToLower(strings.Join(strings.Fields(input), ""))
	if s == "" {
		return 0, nil
	}

	var total time.Duration
	for s != "" {
		n := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
		if n <= 0 {
			return 0, fmt.Errorf("invalid window %q: expected a number followed by a unit", input)
		}
		value, err := strconv.Atoi(s[:n])
		if err != nil {
			return 0, fmt.Errorf("invalid window %q: %w", input, err)
		}
		s = s[n:]

		u := strings.IndexFunc(s, unicode.IsDigit)
		if u < 0 {
			u = len(s)
		}
		unit, ok := windowUnits[s[:u]]
		if !ok {
			return 0, fmt.Errorf("invalid window %q: unknown unit %q", input, s[:u])
		}
		s = s[u:]
		total += time.Duration(value) * unit
	}
	if total <= 0 {
		return 0, fmt.Errorf("invalid window %q: must be positive", input)
	}
	return total, nil
}

// FormatWindow is the compact form of d, e.g. "1w2d" or "36m".
func FormatWindow(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	var b strings.Builder
	for _, u := range []struct {
		label string
		size  time.Duration
	}{{"w", week}, {"d", day}, {"h", time.Hour}, {"m", time.Minute}, {"s", time.Second}} {
		if n := d / u.size; n > 0 {
			fmt.Fprintf(&b, "%d%s", n, u.label)
			d -= n * u.size
		}
	}
	return b.String()
}
