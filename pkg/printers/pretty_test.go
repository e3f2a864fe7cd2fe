package printers

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/memos/pkg/memo"
	"tableflip.dev/memos/pkg/settings"
	"tableflip.dev/memos/pkg/widget"
)

func init() {
	color.NoColor = true
}

var now = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func newPrinter(buf *bytes.Buffer) *PrettyPrint {
	return &PrettyPrint{Out: buf, Now: func() time.Time { return now }, MarkdownStyle: "notty"}
}

func TestMemosListing(t *testing.T) {
	var buf bytes.Buffer
	pp := newPrinter(&buf)
	pp.ShowID = true
	pp.Memos(
		&memo.Memo{ID: "m2", Content: "\nsecond memo\nmore", Visibility: memo.Public, Created: now.Add(-2 * time.Hour), Resources: []string{"r1"}},
		&memo.Memo{ID: "m1", Content: "first", Visibility: memo.Private, Created: now.Add(-30 * time.Minute)},
	)
	out := buf.String()
	for _, want := range []string{"m2", "2h ago", "public", "second memo [1]", "m1", "30m ago", "private", "first"} {
		if !strings.Contains(out, want) {
			t.Fatalf("listing missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "more") {
		t.Fatalf("listing should only show titles:\n%s", out)
	}
}

func TestMemosEmpty(t *testing.T) {
	var buf bytes.Buffer
	newPrinter(&buf).Memos()
	if !strings.Contains(buf.String(), "none") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestMemoDetailRendersMarkdown(t *testing.T) {
	var buf bytes.Buffer
	err := newPrinter(&buf).Memo(&memo.Memo{
		ID: "m1", Content: "# Groceries\n\n- milk", Visibility: memo.Private, Created: now, Tags: []string{"errand"},
	})
	if err != nil {
		t.Fatalf("Memo failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"m1", "#errand", "Groceries", "milk"} {
		if !strings.Contains(out, want) {
			t.Fatalf("detail missing %q:\n%s", want, out)
		}
	}
}

func TestAccountsMarksCurrent(t *testing.T) {
	var buf bytes.Buffer
	newPrinter(&buf).Accounts(settings.Settings{
		CurrentUser: "bob",
		Users: []settings.User{
			{AccountKey: "alice", Host: "https://a.example"},
			{AccountKey: "bob", Host: "https://b.example", Settings: settings.UserSettings{Draft: "half\nwritten"}},
		},
	})
	lines := strings.Split(buf.String(), "\n")
	var bob string
	for _, l := range lines {
		if strings.Contains(l, "bob") {
			bob = l
		}
	}
	if !strings.HasPrefix(bob, "*") || !strings.Contains(bob, "half written") {
		t.Fatalf("current account not marked: %q", bob)
	}
}

func TestInstances(t *testing.T) {
	var buf bytes.Buffer
	newPrinter(&buf).Instances(widget.InstanceInfo{ID: "abc", Kind: "file"})
	if !strings.Contains(buf.String(), "abc") || !strings.Contains(buf.String(), "file") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestCountByDay(t *testing.T) {
	memos := []*memo.Memo{
		{Created: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)},
		{Created: time.Date(2024, time.March, 1, 18, 0, 0, 0, time.UTC)},
		{Created: time.Date(2024, time.March, 31, 9, 0, 0, 0, time.UTC)},
		{Created: time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC)},
		nil,
	}
	count := CountByDay(now, memos...)
	if len(count) != 31 {
		t.Fatalf("expected 31 days, got %d", len(count))
	}
	if count[0] != 2 || count[30] != 1 {
		t.Fatalf("unexpected counts %v", count)
	}
}

func TestCalendarHelpers(t *testing.T) {
	if DaysIn(time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)) != 29 {
		t.Fatalf("2024 is a leap year")
	}
	if StartDay(now) != time.Friday {
		t.Fatalf("March 2024 starts on a Friday")
	}
	next := NextMonth(time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC))
	if next.Month() != time.February {
		t.Fatalf("NextMonth skipped to %v", next.Month())
	}
}

func TestActivityPrintsMonth(t *testing.T) {
	var buf bytes.Buffer
	newPrinter(&buf).Activity(now, &memo.Memo{Created: now})
	out := buf.String()
	if !strings.Contains(out, "March") || !strings.Contains(out, "31") {
		t.Fatalf("unexpected calendar:\n%s", out)
	}
}
