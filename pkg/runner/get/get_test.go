package get

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/memos/pkg/commands/options"
	"tableflip.dev/memos/pkg/errs"
	"tableflip.dev/memos/pkg/memo"
	"tableflip.dev/memos/pkg/printers"
	"tableflip.dev/memos/pkg/remote"
	"tableflip.dev/memos/pkg/remote/remotetest"
)

func init() {
	color.NoColor = true
}

// The fake's clock puts seeded memos at 12:01, 12:02, ... on 2024-01-01.
var now = time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)

func seeded(t *testing.T) *remotetest.Fake {
	t.Helper()
	fake := remotetest.New()
	for _, c := range []string{"alpha #work", "beta #home", "gamma #work"} {
		_, err := fake.CreateMemo(context.Background(), remote.MemoCreate{Content: c, Visibility: memo.Private, Tags: memo.ExtractTags(c)})
		require.NoError(t, err)
	}
	return fake
}

func listJSON(t *testing.T, l *List) []*memo.Memo {
	t.Helper()
	var buf bytes.Buffer
	l.Output = &options.OutputOptions{JSON: true, Out: &buf}
	l.Now = func() time.Time { return now }
	require.NoError(t, l.Do(context.Background()))
	var got []*memo.Memo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	return got
}

func contents(memos []*memo.Memo) []string {
	out := make([]string, 0, len(memos))
	for _, m := range memos {
		out = append(out, m.Content)
	}
	return out
}

func TestListMostRecentFirst(t *testing.T) {
	got := listJSON(t, &List{Repository: seeded(t)})
	assert.Equal(t, []string{"gamma #work", "beta #home", "alpha #work"}, contents(got))
}

func TestListFilters(t *testing.T) {
	fake := seeded(t)
	assert.Equal(t, []string{"gamma #work", "alpha #work"}, contents(listJSON(t, &List{Repository: fake, Tag: "#Work"})))
	assert.Equal(t, []string{"gamma #work"}, contents(listJSON(t, &List{Repository: fake, Limit: 1})))
	// alpha is 59 minutes old, beta 58, gamma 57.
	assert.Equal(t, []string{"gamma #work", "beta #home"}, contents(listJSON(t, &List{Repository: fake, Since: 58*time.Minute + 30*time.Second})))
}

func TestListEmptyJSONIsArray(t *testing.T) {
	var buf bytes.Buffer
	l := List{Repository: remotetest.New(), Output: &options.OutputOptions{JSON: true, Out: &buf}}
	require.NoError(t, l.Do(context.Background()))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestListPretty(t *testing.T) {
	var buf bytes.Buffer
	l := List{Repository: seeded(t), Tag: "work", Now: func() time.Time { return now }, Printer: &printers.PrettyPrint{Out: &buf, Now: func() time.Time { return now }}}
	require.NoError(t, l.Do(context.Background()))
	out := buf.String()
	assert.Contains(t, out, "#work - 2 memos")
	assert.Contains(t, out, "57m ago")
	assert.NotContains(t, out, "beta")
}

func TestListCalendar(t *testing.T) {
	var buf bytes.Buffer
	l := List{Repository: seeded(t), Calendar: true, Now: func() time.Time { return now }, Printer: &printers.PrettyPrint{Out: &buf}}
	require.NoError(t, l.Do(context.Background()))
	assert.Contains(t, buf.String(), "January")
}

func TestListCalendarYear(t *testing.T) {
	var buf bytes.Buffer
	l := List{Repository: seeded(t), Calendar: true, Year: true, Now: func() time.Time { return now }, Printer: &printers.PrettyPrint{Out: &buf}}
	require.NoError(t, l.Do(context.Background()))
	assert.Contains(t, buf.String(), "January")
	assert.Contains(t, buf.String(), "December")
}

func TestListFailure(t *testing.T) {
	fake := remotetest.New()
	fake.SetError(errs.New(errs.CodeTransport, "down"))
	l := List{Repository: fake}
	assert.True(t, errs.Is(l.Do(context.Background()), errs.CodeTransport))
}

func TestShow(t *testing.T) {
	fake := seeded(t)
	var buf bytes.Buffer
	s := Show{ID: "m1", Repository: fake, Output: &options.OutputOptions{JSON: true, Out: &buf}}
	require.NoError(t, s.Do(context.Background()))
	var got memo.Memo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "alpha #work", got.Content)

	missing := Show{ID: "nope", Repository: fake}
	assert.True(t, errs.Is(missing.Do(context.Background()), errs.CodeNotFound))
}
