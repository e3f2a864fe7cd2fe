// Package remote defines the boundary to the memo server and an HTTP
// implementation of it.
//
// Every failure returned by a Repository is an *errs.Error coded TRANSPORT,
// VALIDATION, AUTH or NOT_FOUND. Callers forward these unchanged.
package remote

import (
	"context"

	"tableflip.dev/memos/pkg/memo"
)

// Repository is the remote memo collection.
type Repository interface {
	CreateMemo(ctx context.Context, in MemoCreate) (*memo.Memo, error)
	UpdateMemo(ctx context.Context, id string, in MemoPatch) (*memo.Memo, error)
	DeleteMemo(ctx context.Context, id string) error
	GetMemo(ctx context.Context, id string) (*memo.Memo, error)
	// ListMemos returns the collection most-recent-first.
	ListMemos(ctx context.Context) ([]*memo.Memo, error)

	CreateResource(ctx context.Context, in ResourceCreate) (*memo.Resource, error)
	DeleteResource(ctx context.Context, id string) error
	ListResources(ctx context.Context, memoID string) ([]memo.Resource, error)
}

// MemoCreate is the payload of CreateMemo.
type MemoCreate struct {
	Content     string          `json:"content" validate:"max=1048576"`
	Visibility  memo.Visibility `json:"visibility" validate:"required,oneof=PRIVATE PROTECTED PUBLIC"`
	ResourceIDs []string        `json:"resourceIdList,omitempty" validate:"dive,required"`
	Tags        []string        `json:"tags,omitempty" validate:"dive,required"`
}

// MemoPatch is the payload of UpdateMemo. The resource list replaces the
// memo's attachments.
type MemoPatch struct {
	Content     string          `json:"content" validate:"max=1048576"`
	Visibility  memo.Visibility `json:"visibility" validate:"required,oneof=PRIVATE PROTECTED PUBLIC"`
	ResourceIDs []string        `json:"resourceIdList" validate:"dive,required"`
	Tags        []string        `json:"tags,omitempty" validate:"dive,required"`
}

// ResourceCreate is the payload of CreateResource.
type ResourceCreate struct {
	Filename     string `json:"filename" validate:"required"`
	MimeType     string `json:"type" validate:"required"`
	Content      []byte `json:"content,omitempty" validate:"required_without=ExternalLink"`
	ExternalLink string `json:"externalLink,omitempty" validate:"omitempty,url"`
	MemoID       string `json:"memoId,omitempty"`
}
