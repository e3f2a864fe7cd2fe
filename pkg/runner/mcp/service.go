// Package mcp provides the Model Context Protocol server integration for memos.
package mcp

import (
	"context"
	"errors"
	"strings"
	"time"

	"tableflip.dev/memos/pkg/launch"
	"tableflip.dev/memos/pkg/memo"
	"tableflip.dev/memos/pkg/mutation"
	"tableflip.dev/memos/pkg/router"
)

// DefaultListLimit bounds list_memos when no limit is given.
const DefaultListLimit = 20

// Service coordinates the memo operations shared by the MCP tools and
// resources. Writes go through the mutation coordinator so the widget hears
// about them. Tool calls may run concurrently, so every write forks the
// coordinator and gets a staging session of its own.
type Service struct {
	Coordinator *mutation.Coordinator
	Router      *router.Router
}

var (
	errNoCoordinator = errors.New("memo repository is not configured")
	errNoRouter      = errors.New("opening memos in the app is not configured")
)

// WriteOptions captures the parameters of create_memo and edit_memo.
type WriteOptions struct {
	Content    string
	Visibility string
	Tags       []string
}

// ListOptions filters list_memos.
type ListOptions struct {
	Limit int
	Tag   string
	Query string
}

// MemoDTO is a transport-friendly projection of a memo.
type MemoDTO struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Visibility  string   `json:"visibility"`
	Tags        []string `json:"tags,omitempty"`
	ResourceIDs []string `json:"resourceIds,omitempty"`
	CreatedISO  string   `json:"created"`
	CreatedUnix int64    `json:"createdUnix"`
}

// DeliveryDTO reports where an open request went.
type DeliveryDTO struct {
	Action string `json:"action"`
	MemoID string `json:"memoId,omitempty"`
	Live   bool   `json:"live"`
}

// NewService builds a service over coord. r may be nil when no app
// invocation channel is available.
func NewService(coord *mutation.Coordinator, r *router.Router) *Service {
	return &Service{Coordinator: coord, Router: r}
}

func toDTO(m *memo.Memo) MemoDTO {
	return MemoDTO{
		ID:          m.ID,
		Title:       m.Title(),
		Content:     m.Content,
		Visibility:  m.Visibility.String(),
		Tags:        m.Tags,
		ResourceIDs: m.Resources,
		CreatedISO:  m.Created.Format(time.RFC3339),
		CreatedUnix: m.Created.Unix(),
	}
}

func (o WriteOptions) resolve() (string, memo.Visibility, []string, error) {
	content := strings.TrimSpace(o.Content)
	if content == "" {
		return "", "", nil, errors.New("content is required")
	}
	vis, err := memo.ParseVisibility(o.Visibility)
	if err != nil {
		return "", "", nil, err
	}
	tags := o.Tags
	if len(tags) == 0 {
		tags = memo.ExtractTags(content)
	}
	return content, vis, tags, nil
}

// CreateMemo creates a memo. Tags default to the #hashtags in the content.
func (s *Service) CreateMemo(ctx context.Context, opts WriteOptions) (MemoDTO, error) {
	if s.Coordinator == nil {
		return MemoDTO{}, errNoCoordinator
	}
	content, vis, tags, err := opts.resolve()
	if err != nil {
		return MemoDTO{}, err
	}
	m, err := s.Coordinator.Fork().CreateMemo(ctx, content, vis, tags)
	if err != nil {
		return MemoDTO{}, err
	}
	return toDTO(m), nil
}

// EditMemo replaces the content of memo id, keeping its attachments.
func (s *Service) EditMemo(ctx context.Context, id string, opts WriteOptions) (MemoDTO, error) {
	if s.Coordinator == nil {
		return MemoDTO{}, errNoCoordinator
	}
	content, vis, tags, err := opts.resolve()
	if err != nil {
		return MemoDTO{}, err
	}
	existing, err := s.Coordinator.Repository.GetMemo(ctx, id)
	if err != nil {
		return MemoDTO{}, err
	}
	if strings.TrimSpace(opts.Visibility) == "" {
		vis = existing.Visibility
	}
	resources, err := s.Coordinator.Repository.ListResources(ctx, id)
	if err != nil {
		return MemoDTO{}, err
	}
	coord := s.Coordinator.Fork()
	if err := coord.Staging.Begin(id, resources...); err != nil {
		return MemoDTO{}, err
	}
	defer coord.Staging.End()

	m, err := coord.EditMemo(ctx, id, content, vis, tags)
	if err != nil {
		return MemoDTO{}, err
	}
	return toDTO(m), nil
}

// DeleteMemo removes memo id.
func (s *Service) DeleteMemo(ctx context.Context, id string) error {
	if s.Coordinator == nil {
		return errNoCoordinator
	}
	return s.Coordinator.DeleteMemo(ctx, id)
}

// GetMemo fetches one memo.
func (s *Service) GetMemo(ctx context.Context, id string) (MemoDTO, error) {
	if s.Coordinator == nil {
		return MemoDTO{}, errNoCoordinator
	}
	m, err := s.Coordinator.Repository.GetMemo(ctx, id)
	if err != nil {
		return MemoDTO{}, err
	}
	return toDTO(m), nil
}

// ListMemos returns memos most recent first, filtered by tag and a
// case-insensitive substring query.
func (s *Service) ListMemos(ctx context.Context, opts ListOptions) ([]MemoDTO, error) {
	if s.Coordinator == nil {
		return nil, errNoCoordinator
	}
	memos, err := s.Coordinator.Repository.ListMemos(ctx)
	if err != nil {
		return nil, err
	}
	memo.SortRecent(memos)

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	tag := strings.TrimPrefix(strings.TrimSpace(opts.Tag), "#")
	query := strings.ToLower(strings.TrimSpace(opts.Query))

	out := make([]MemoDTO, 0, limit)
	for _, m := range memos {
		if tag != "" && !hasTag(m, tag) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(m.Content), query) {
			continue
		}
		out = append(out, toDTO(m))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func hasTag(m *memo.Memo, tag string) bool {
	for _, t := range m.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// OpenMemo asks the main app to open memo id for editing. When the app is
// not running the request waits for its next launch.
func (s *Service) OpenMemo(id string) (DeliveryDTO, error) {
	if s.Router == nil {
		return DeliveryDTO{}, errNoRouter
	}
	d, err := s.Router.OpenMemo(id)
	if err != nil {
		return DeliveryDTO{}, err
	}
	return deliveryDTO(d), nil
}

// Compose asks the main app to open the compose screen.
func (s *Service) Compose() (DeliveryDTO, error) {
	if s.Router == nil {
		return DeliveryDTO{}, errNoRouter
	}
	d, err := s.Router.Add()
	if err != nil {
		return DeliveryDTO{}, err
	}
	return deliveryDTO(d), nil
}

func deliveryDTO(d launch.Delivery) DeliveryDTO {
	return DeliveryDTO{Action: string(d.Request.Action), MemoID: d.Request.MemoID, Live: d.Live}
}
