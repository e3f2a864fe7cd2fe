// Package draft holds the in-progress memo text of each account and the
// resources staged for the memo being composed.
package draft

import (
	"context"
	"errors"
	"time"

	"tableflip.dev/memos/pkg/logging"
	"tableflip.dev/memos/pkg/settings"
)

// DefaultPollInterval is used when change notification is unavailable.
const DefaultPollInterval = 500 * time.Millisecond

// SettingsStore is the subset of the settings store drafts need.
type SettingsStore interface {
	Load() (settings.Settings, error)
	UpdateUser(key string, fn func(*settings.UserSettings)) error
	Watch(ctx context.Context) (<-chan settings.Settings, error)
}

// Store reads and writes drafts.
type Store struct {
	Settings     SettingsStore
	PollInterval time.Duration
}

// New returns a Store over s.
func New(s SettingsStore) *Store {
	return &Store{Settings: s, PollInterval: DefaultPollInterval}
}

// ReadDraft streams the draft of account: the current value first, then
// every change made by any process. Repeated identical values are
// suppressed. The stream never fails; a missing account or record reads as
// empty. The channel is closed when ctx is done.
func (s *Store) ReadDraft(ctx context.Context, account string) <-chan string {
	return s.stream(ctx, func(st settings.Settings) string {
		u, _ := st.User(account)
		return u.Settings.Draft
	})
}

// ReadCurrentDraft is ReadDraft for whichever account is active at each read.
func (s *Store) ReadCurrentDraft(ctx context.Context) <-chan string {
	return s.stream(ctx, func(st settings.Settings) string {
		u, _ := st.Current()
		return u.Settings.Draft
	})
}

func (s *Store) stream(ctx context.Context, pick func(settings.Settings) string) <-chan string {
	out := make(chan string, 1)
	go func() {
		defer close(out)
		log := logging.NewLogger("draft")

		last, first := "", true
		emit := func(st settings.Settings) bool {
			v := pick(st)
			if !first && v == last {
				return true
			}
			first, last = false, v
			select {
			case out <- v:
				return true
			case <-ctx.Done():
				return false
			}
		}
		load := func() settings.Settings {
			st, err := s.Settings.Load()
			if err != nil {
				log.WithError(err).Debug("load settings")
			}
			return st
		}

		// Subscribe before the first load so a write landing in between is
		// still delivered.
		changes, err := s.Settings.Watch(ctx)
		if !emit(load()) {
			return
		}
		if err != nil {
			log.WithError(err).Info("change notification unavailable, polling")
			s.poll(ctx, load, emit)
			return
		}
		for st := range changes {
			if !emit(st) {
				return
			}
		}
	}()
	return out
}

func (s *Store) poll(ctx context.Context, load func() settings.Settings, emit func(settings.Settings) bool) {
	interval := s.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !emit(load()) {
				return
			}
		}
	}
}

// WriteDraft stores text as the draft of account and blocks until the write
// is durable. Drafts only attach to registered accounts: for an unknown
// account nothing is written and nil is returned. Writing the current value
// again does not touch the disk. Callers on a UI goroutine should run this
// off that goroutine.
func (s *Store) WriteDraft(account, text string) error {
	err := s.Settings.UpdateUser(account, func(us *settings.UserSettings) {
		us.Draft = text
	})
	if errors.Is(err, settings.ErrUnknownAccount) {
		logging.NewLogger("draft").WithField("account", account).Debug("draft for unregistered account dropped")
		return nil
	}
	return err
}

// WriteCurrentDraft is WriteDraft for the active account. With no active
// account it is a no-op.
func (s *Store) WriteCurrentDraft(text string) error {
	st, err := s.Settings.Load()
	if err != nil {
		return err
	}
	if st.CurrentUser == "" {
		return nil
	}
	return s.WriteDraft(st.CurrentUser, text)
}

// CurrentDraft returns the active account's draft once.
func (s *Store) CurrentDraft() (string, error) {
	st, err := s.Settings.Load()
	if err != nil {
		return "", err
	}
	u, _ := st.Current()
	return u.Settings.Draft, nil
}
