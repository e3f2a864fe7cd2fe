// Package launch is the app-invocation channel: navigation requests are
// queued durably in an inbox directory and picked up by the main process
// when it starts or, while it runs, as they arrive.
package launch

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/peterbourgon/diskv/v3"
	"github.com/sirupsen/logrus"

	"tableflip.dev/memos/pkg/errs"
	"tableflip.dev/memos/pkg/fswatch"
	"tableflip.dev/memos/pkg/logging"
	"tableflip.dev/memos/pkg/nav"
)

const tempDirName = ".tmp"

// Inbox queues requests on disk, one file per request named by a ULID so
// lexical order is arrival order.
type Inbox struct {
	d        *diskv.Diskv
	basePath string
	log      *logrus.Entry

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// OpenInbox creates an inbox rooted at basePath.
func OpenInbox(basePath string) (*Inbox, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("launch: inbox path required")
	}
	if err := os.MkdirAll(filepath.Join(basePath, tempDirName), 0o755); err != nil {
		return nil, errs.Wrap(err, errs.CodePersistence, "launch: create inbox")
	}
	return &Inbox{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			TempDir:      filepath.Join(basePath, tempDirName),
			Transform:    func(string) []string { return []string{} },
			CacheSizeMax: 0,
		}),
		basePath: basePath,
		log:      logging.NewLogger("launch").WithField("inbox", basePath),
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Path is the inbox directory.
func (in *Inbox) Path() string {
	return in.basePath
}

func isRequestKey(name string) bool {
	_, err := ulid.ParseStrict(name)
	return err == nil
}

// Enqueue durably stores r.
func (in *Inbox) Enqueue(r nav.Request) error {
	if err := r.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return errs.Wrap(err, errs.CodePersistence, "launch: encode request")
	}
	in.mu.Lock()
	key := ulid.MustNew(ulid.Timestamp(time.Now()), in.entropy).String()
	in.mu.Unlock()

	if err := in.d.WriteStream(key, bytes.NewReader(data), true); err != nil {
		return errs.Wrap(err, errs.CodePersistence, "launch: write request")
	}
	in.log.WithFields(logrus.Fields{"key": key, "action": r.Action, "memo_id": r.MemoID}).Debug("request queued")
	return nil
}

func (in *Inbox) keys() []string {
	var keys []string
	for key := range in.d.Keys(nil) {
		if isRequestKey(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Pending reports how many requests are queued.
func (in *Inbox) Pending() int {
	return len(in.keys())
}

// Drain removes and returns every queued request, oldest first. Each request
// is returned at most once even when several processes drain concurrently.
// Unreadable entries are discarded.
func (in *Inbox) Drain() []nav.Request {
	var out []nav.Request
	for _, key := range in.keys() {
		data, err := in.d.Read(key)
		if err != nil {
			continue
		}
		if err := in.d.Erase(key); err != nil {
			// Another drainer got here first.
			continue
		}
		r, err := nav.Decode(data)
		if err != nil {
			in.log.WithError(err).WithField("key", key).Warn("discarding malformed request")
			continue
		}
		out = append(out, r)
	}
	return out
}

// Watch drains the inbox now and whenever a request file appears, sending
// requests in arrival order. The channel closes when ctx is done.
func (in *Inbox) Watch(ctx context.Context) (<-chan nav.Request, error) {
	ticks, err := fswatch.Dir(ctx, in.basePath, isRequestKey, fswatch.DefaultDelay)
	if err != nil {
		return nil, fmt.Errorf("launch: watch inbox: %w", err)
	}
	out := make(chan nav.Request, 8)
	go func() {
		defer close(out)
		deliver := func() bool {
			for _, r := range in.Drain() {
				select {
				case out <- r:
				case <-ctx.Done():
					return false
				}
			}
			return true
		}
		if !deliver() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ticks:
				if !ok {
					return
				}
				if !deliver() {
					return
				}
			}
		}
	}()
	return out, nil
}
