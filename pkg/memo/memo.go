package memo

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Visibility controls who can see a memo on the remote.
type Visibility string

const (
	Private   Visibility = "PRIVATE"
	Protected Visibility = "PROTECTED"
	Public    Visibility = "PUBLIC"
)

// ParseVisibility accepts any casing; empty defaults to Private.
func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(Private):
		return Private, nil
	case string(Protected):
		return Protected, nil
	case string(Public):
		return Public, nil
	}
	return "", fmt.Errorf("unknown visibility %q", s)
}

func (v Visibility) String() string {
	return strings.ToLower(string(v))
}

// Memo is a transient copy of a remote memo.
type Memo struct {
	ID         string     `json:"id"`
	Content    string     `json:"content"`
	Visibility Visibility `json:"visibility"`
	Created    time.Time  `json:"created"`
	Resources  []string   `json:"resources,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
}

// Clone returns a deep copy.
func (m *Memo) Clone() *Memo {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Resources = append([]string(nil), m.Resources...)
	cp.Tags = append([]string(nil), m.Tags...)
	return &cp
}

// Title is the first non-empty line of the content.
func (m *Memo) Title() string {
	for _, line := range strings.Split(m.Content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func (m *Memo) String() string {
	return fmt.Sprintf("%s [%s] %s", m.ID, m.Visibility.String(), m.Title())
}

// Resource is an uploaded attachment. MemoID is empty while staged.
type Resource struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size,omitempty"`
	ExternalLink string `json:"externalLink,omitempty"`
	MemoID       string `json:"memoId,omitempty"`
}

// Bound reports whether the resource is attached to a memo.
func (r Resource) Bound() bool {
	return r.MemoID != ""
}

// SortRecent orders memos most-recent-first. Ties fall back to id so the
// order is stable across fetches.
func SortRecent(memos []*Memo) {
	sort.SliceStable(memos, func(i, j int) bool {
		left, right := memos[i], memos[j]
		if left == nil || right == nil {
			return left != nil
		}
		if left.Created.Equal(right.Created) {
			return left.ID > right.ID
		}
		return left.Created.After(right.Created)
	})
}

// NormalizeTags trims, drops empties and a leading '#', and de-duplicates
// while keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimPrefix(strings.TrimSpace(t), "#")
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ExtractTags returns the #hashtags found in content, normalized. A lone '#'
// (a markdown heading marker) is not a tag.
func ExtractTags(content string) []string {
	var tags []string
	for _, word := range strings.Fields(content) {
		if !strings.HasPrefix(word, "#") {
			continue
		}
		tag := strings.TrimRight(strings.TrimLeft(word, "#"), ".,;:!?)")
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return NormalizeTags(tags)
}
