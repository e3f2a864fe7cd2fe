package account

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/memos/pkg/commands/options"
	"tableflip.dev/memos/pkg/settings"
)

func openStore(t *testing.T) *settings.Store {
	t.Helper()
	st, err := settings.Open(t.TempDir())
	require.NoError(t, err)
	return st
}

func TestAddDefaultsKeyToHost(t *testing.T) {
	st := openStore(t)
	a := Add{Host: "https://memos.example.com/", Token: "secret", Settings: st}
	require.NoError(t, a.Do(context.Background()))

	s, err := st.Load()
	require.NoError(t, err)
	u, ok := s.Current()
	require.True(t, ok, "first account becomes current")
	assert.Equal(t, "memos.example.com", u.AccountKey)
	assert.Equal(t, "https://memos.example.com", u.Host)
	assert.Equal(t, "secret", u.AccessToken)
}

func TestAddRejectsBadHost(t *testing.T) {
	a := Add{Key: "x", Host: "not a url", Settings: openStore(t)}
	assert.Error(t, a.Do(context.Background()))
}

func TestUseAndList(t *testing.T) {
	st := openStore(t)
	require.NoError(t, (&Add{Key: "home", Host: "https://a.example", Token: "tok", Settings: st}).Do(context.Background()))
	require.NoError(t, (&Add{Key: "work", Host: "https://b.example", Settings: st}).Do(context.Background()))

	require.NoError(t, (&Use{Key: "work", Settings: st}).Do(context.Background()))
	assert.Error(t, (&Use{Key: "nobody", Settings: st}).Do(context.Background()))

	var buf bytes.Buffer
	l := List{Settings: st, Output: &options.OutputOptions{JSON: true, Out: &buf}}
	require.NoError(t, l.Do(context.Background()))

	var got []accountJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.False(t, got[0].Current)
	assert.True(t, got[1].Current)
	assert.NotContains(t, buf.String(), "tok", "tokens are never printed")
}
