package remote

import (
	"time"

	"tableflip.dev/memos/pkg/memo"
)

// API paths served by memo servers and the dev server.
const (
	PathMemos     = "/api/v1/memos"
	PathResources = "/api/v1/resources"
)

// MemoDTO is the wire shape of a memo.
type MemoDTO struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Visibility  string   `json:"visibility"`
	CreatedTs   int64    `json:"createdTs"`
	ResourceIDs []string `json:"resourceIdList,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ResourceDTO is the wire shape of a resource.
type ResourceDTO struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	Type         string `json:"type"`
	Size         int64  `json:"size,omitempty"`
	ExternalLink string `json:"externalLink,omitempty"`
	MemoID       string `json:"memoId,omitempty"`
}

// ErrorDTO is the body of a failed request.
type ErrorDTO struct {
	Error string `json:"error"`
}

// ToMemo converts a wire memo.
func (d MemoDTO) ToMemo() *memo.Memo {
	vis, err := memo.ParseVisibility(d.Visibility)
	if err != nil {
		vis = memo.Private
	}
	return &memo.Memo{
		ID:         d.ID,
		Content:    d.Content,
		Visibility: vis,
		Created:    time.Unix(d.CreatedTs, 0).UTC(),
		Resources:  append([]string(nil), d.ResourceIDs...),
		Tags:       append([]string(nil), d.Tags...),
	}
}

// FromMemo converts a memo to its wire shape.
func FromMemo(m *memo.Memo) MemoDTO {
	return MemoDTO{
		ID:          m.ID,
		Content:     m.Content,
		Visibility:  string(m.Visibility),
		CreatedTs:   m.Created.Unix(),
		ResourceIDs: append([]string(nil), m.Resources...),
		Tags:        append([]string(nil), m.Tags...),
	}
}

// ToResource converts a wire resource.
func (d ResourceDTO) ToResource() memo.Resource {
	return memo.Resource{
		ID:           d.ID,
		Filename:     d.Filename,
		MimeType:     d.Type,
		Size:         d.Size,
		ExternalLink: d.ExternalLink,
		MemoID:       d.MemoID,
	}
}

// FromResource converts a resource to its wire shape.
func FromResource(r memo.Resource) ResourceDTO {
	return ResourceDTO{
		ID:           r.ID,
		Filename:     r.Filename,
		Type:         r.MimeType,
		Size:         r.Size,
		ExternalLink: r.ExternalLink,
		MemoID:       r.MemoID,
	}
}
