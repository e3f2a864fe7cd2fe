// Package mutation performs memo and resource writes against the remote and
// announces successful memo writes with a refresh signal.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tableflip.dev/memos/pkg/draft"
	"tableflip.dev/memos/pkg/errs"
	"tableflip.dev/memos/pkg/imaging"
	"tableflip.dev/memos/pkg/logging"
	"tableflip.dev/memos/pkg/memo"
	"tableflip.dev/memos/pkg/remote"
	"tableflip.dev/memos/pkg/signal"
)

// Coordinator wraps a repository so the UI, the CLI and the MCP server share
// one write path. Repository failures are returned unchanged and never
// retried here.
type Coordinator struct {
	Repository remote.Repository
	Staging    *draft.Staging
	Notifier   signal.Notifier

	// Quality is the JPEG quality for uploaded images.
	Quality int

	log *logrus.Entry
}

var errNoRepository = errors.New("mutation: no repository configured")

// New returns a coordinator with a fresh staging session.
func New(repo remote.Repository, n signal.Notifier) *Coordinator {
	if n == nil {
		n = signal.Nop
	}
	return &Coordinator{
		Repository: repo,
		Staging:    draft.NewStaging(),
		Notifier:   n,
		Quality:    imaging.DefaultQuality,
	}
}

// Fork returns a coordinator sharing c's repository and notifier with its own
// empty staging session. Servers handling concurrent requests fork once per
// request so sessions never mix.
func (c *Coordinator) Fork() *Coordinator {
	cp := *c
	cp.Staging = draft.NewStaging()
	return &cp
}

func (c *Coordinator) logger() *logrus.Entry {
	if c.log == nil {
		c.log = logging.NewLogger("mutation")
	}
	return c.log
}

func (c *Coordinator) notify(ctx context.Context, m *memo.Memo) {
	if c.Notifier == nil {
		return
	}
	c.Notifier.Notify(ctx, signal.Signal{Memo: m.Clone()})
}

// CreateMemo creates a memo carrying the currently staged resources. On
// success exactly one refresh signal is emitted before returning. Staging is
// left as is either way; ending the session is the caller's job.
func (c *Coordinator) CreateMemo(ctx context.Context, content string, vis memo.Visibility, tags []string) (*memo.Memo, error) {
	if c.Repository == nil {
		return nil, errNoRepository
	}
	m, err := c.Repository.CreateMemo(ctx, remote.MemoCreate{
		Content:     content,
		Visibility:  vis,
		ResourceIDs: c.stagedIDs(),
		Tags:        memo.NormalizeTags(tags),
	})
	if err != nil {
		return nil, err
	}
	c.logger().WithField("memo_id", m.ID).Debug("memo created")
	c.notify(ctx, m)
	return m, nil
}

// EditMemo replaces the content of memo id. The staged resources become the
// memo's attachments.
func (c *Coordinator) EditMemo(ctx context.Context, id string, content string, vis memo.Visibility, tags []string) (*memo.Memo, error) {
	if c.Repository == nil {
		return nil, errNoRepository
	}
	m, err := c.Repository.UpdateMemo(ctx, id, remote.MemoPatch{
		Content:     content,
		Visibility:  vis,
		ResourceIDs: c.stagedIDs(),
		Tags:        memo.NormalizeTags(tags),
	})
	if err != nil {
		return nil, err
	}
	c.logger().WithField("memo_id", m.ID).Debug("memo updated")
	c.notify(ctx, m)
	return m, nil
}

// DeleteMemo removes memo id and emits one refresh signal on success.
func (c *Coordinator) DeleteMemo(ctx context.Context, id string) error {
	if c.Repository == nil {
		return errNoRepository
	}
	if err := c.Repository.DeleteMemo(ctx, id); err != nil {
		return err
	}
	c.logger().WithField("memo_id", id).Debug("memo deleted")
	c.notify(ctx, nil)
	return nil
}

// UploadResource encodes img as JPEG, uploads it under a fresh
// "<uuid>.jpg" name and stages the result. memoID is the memo being edited,
// or empty while composing. Any failure leaves staging untouched.
func (c *Coordinator) UploadResource(ctx context.Context, img image.Image, memoID string) (*memo.Resource, error) {
	if c.Repository == nil {
		return nil, errNoRepository
	}
	if memoID != "" && c.Staging != nil && c.Staging.MemoID() != memoID {
		return nil, errs.Wrap(draft.ErrForeignResource, errs.CodeInvalidRequest,
			fmt.Sprintf("upload targets memo %s outside the current session", memoID))
	}
	quality := c.Quality
	if quality == 0 {
		quality = imaging.DefaultQuality
	}
	data, err := imaging.EncodeJPEG(img, quality)
	if err != nil {
		return nil, err
	}
	res, err := c.Repository.CreateResource(ctx, remote.ResourceCreate{
		Filename: uuid.New().String() + ".jpg",
		MimeType: imaging.MimeJPEG,
		Content:  data,
		MemoID:   memoID,
	})
	if err != nil {
		return nil, err
	}
	if c.Staging != nil {
		if err := c.Staging.Stage(*res); err != nil {
			// Do not leave an upload behind that nothing will ever attach.
			if derr := c.Repository.DeleteResource(ctx, res.ID); derr != nil {
				c.logger().WithError(derr).WithField("resource_id", res.ID).Warn("remove unstaged upload")
			}
			return nil, errs.Wrap(err, errs.CodeInvalidRequest, "stage uploaded resource")
		}
	}
	c.logger().WithFields(logrus.Fields{"resource_id": res.ID, "bytes": len(data)}).Debug("resource uploaded")
	return res, nil
}

// UploadFile decodes the png, jpeg or gif at path and uploads it like
// UploadResource.
func (c *Coordinator) UploadFile(ctx context.Context, path string, memoID string) (*memo.Resource, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeInvalidRequest, "open image")
	}
	defer f.Close()
	img, _, err := imaging.Decode(f)
	if err != nil {
		return nil, err
	}
	return c.UploadResource(ctx, img, memoID)
}

// DeleteResource deletes resource id remotely and, on success, drops it from
// staging if it was there.
func (c *Coordinator) DeleteResource(ctx context.Context, id string) error {
	if c.Repository == nil {
		return errNoRepository
	}
	id = strings.TrimSpace(id)
	if err := c.Repository.DeleteResource(ctx, id); err != nil {
		return err
	}
	if c.Staging != nil {
		c.Staging.Unstage(id)
	}
	return nil
}

func (c *Coordinator) stagedIDs() []string {
	if c.Staging == nil {
		return nil
	}
	return c.Staging.IDs()
}
