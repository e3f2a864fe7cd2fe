package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestCommandTree(t *testing.T) {
	root := New()
	for _, path := range [][]string{
		{"ui"}, {"add"}, {"edit"}, {"delete"}, {"list"}, {"show"}, {"upload"},
		{"draft", "get"}, {"draft", "set"}, {"draft", "watch"},
		{"open", "compose"}, {"open", "edit"},
		{"account", "add"}, {"account", "use"}, {"account", "list"}, {"account", "remove"},
		{"widget", "serve"}, {"widget", "view"}, {"widget", "show"}, {"widget", "instances"},
		{"widget", "attach"}, {"widget", "remove"}, {"widget", "refresh"}, {"widget", "tap"},
		{"mcp"}, {"devserver"}, {"keys"}, {"info"}, {"version"}, {"completion"},
	} {
		cmd, rest, err := root.Find(path)
		if err != nil || len(rest) != 0 || cmd.Name() != path[len(path)-1] {
			t.Errorf("command %q not found: %v", strings.Join(path, " "), err)
		}
	}
}

func TestKeysCommand(t *testing.T) {
	root := New()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"keys"})
	if err := root.Execute(); err != nil {
		t.Fatalf("keys failed: %v", err)
	}
	if !strings.Contains(buf.String(), "ctrl+s") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
