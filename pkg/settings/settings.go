package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/peterbourgon/diskv/v3"

	"tableflip.dev/memos/pkg/errs"
)

const (
	settingsKey = "settings.json"
	tempDirName = ".tmp"
)

// ErrUnknownAccount is returned when an update names an account that has not
// been registered.
var ErrUnknownAccount = errs.New(errs.CodePersistence, "settings: unknown account")

// Settings is the persisted record shared by every process of the client.
type Settings struct {
	CurrentUser string `json:"currentUser,omitempty"`
	Users       []User `json:"users,omitempty"`
}

// User is one registered account.
type User struct {
	AccountKey  string       `json:"accountKey"`
	Host        string       `json:"host,omitempty"`
	AccessToken string       `json:"accessToken,omitempty"`
	Settings    UserSettings `json:"settings"`
}

// UserSettings holds the per-account values.
type UserSettings struct {
	Draft string `json:"draft,omitempty"`
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	cp := s
	cp.Users = append([]User(nil), s.Users...)
	return cp
}

// User finds a registered account.
func (s Settings) User(key string) (User, bool) {
	if i := s.index(key); i >= 0 {
		return s.Users[i], true
	}
	return User{}, false
}

// Current returns the active account.
func (s Settings) Current() (User, bool) {
	if s.CurrentUser == "" {
		return User{}, false
	}
	return s.User(s.CurrentUser)
}

func (s Settings) index(key string) int {
	for i, u := range s.Users {
		if u.AccountKey == key {
			return i
		}
	}
	return -1
}

// Store persists Settings with diskv. Writes go through a temp file and a
// rename so readers in any process see either the old or the new record.
type Store struct {
	mu       sync.Mutex
	d        *diskv.Diskv
	basePath string
}

// Open creates a Store rooted at basePath.
func Open(basePath string) (*Store, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("settings: base path required")
	}
	if err := os.MkdirAll(filepath.Join(basePath, tempDirName), 0o755); err != nil {
		return nil, fmt.Errorf("settings: ensure base path: %w", err)
	}
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			TempDir:      filepath.Join(basePath, tempDirName),
			Transform:    func(string) []string { return []string{} },
			CacheSizeMax: 0, // other processes write here too
		}),
		basePath: basePath,
	}, nil
}

// Load reads the current record. A missing record is an empty Settings.
func (s *Store) Load() (Settings, error) {
	data, err := s.d.Read(settingsKey)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, errs.Wrap(err, errs.CodePersistence, "settings: read")
	}
	var out Settings
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return Settings{}, errs.Wrap(err, errs.CodePersistence, "settings: decode")
	}
	return out, nil
}

// Update runs fn against a copy of the current record and persists the result.
// Updaters in this process are serialized. When fn leaves the record unchanged
// nothing is written.
func (s *Store) Update(fn func(*Settings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Load()
	if err != nil {
		return err
	}
	before, err := json.Marshal(current)
	if err != nil {
		return errs.Wrap(err, errs.CodePersistence, "settings: encode")
	}
	next := current.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	after, err := json.Marshal(next)
	if err != nil {
		return errs.Wrap(err, errs.CodePersistence, "settings: encode")
	}
	if bytes.Equal(before, after) {
		return nil
	}
	if err := s.d.WriteStream(settingsKey, bytes.NewReader(after), true); err != nil {
		return errs.Wrap(err, errs.CodePersistence, "settings: write")
	}
	return nil
}

// UpdateUser overwrites fields of one account's settings. An unknown account
// yields ErrUnknownAccount and leaves the record untouched.
func (s *Store) UpdateUser(key string, fn func(*UserSettings)) error {
	return s.Update(func(st *Settings) error {
		i := st.index(key)
		if i < 0 {
			return ErrUnknownAccount
		}
		fn(&st.Users[i].Settings)
		return nil
	})
}

// AddUser registers an account, replacing an existing one with the same key
// but keeping its draft.
func (s *Store) AddUser(u User, makeCurrent bool) error {
	if strings.TrimSpace(u.AccountKey) == "" {
		return errs.New(errs.CodeInvalidRequest, "settings: account key required")
	}
	return s.Update(func(st *Settings) error {
		if i := st.index(u.AccountKey); i >= 0 {
			if u.Settings.Draft == "" {
				u.Settings.Draft = st.Users[i].Settings.Draft
			}
			st.Users[i] = u
		} else {
			st.Users = append(st.Users, u)
		}
		if makeCurrent || st.CurrentUser == "" {
			st.CurrentUser = u.AccountKey
		}
		return nil
	})
}

// SetCurrentUser switches the active account.
func (s *Store) SetCurrentUser(key string) error {
	return s.Update(func(st *Settings) error {
		if st.index(key) < 0 {
			return ErrUnknownAccount
		}
		st.CurrentUser = key
		return nil
	})
}

// RemoveUser forgets an account. Removing the active account clears the
// selection.
func (s *Store) RemoveUser(key string) error {
	return s.Update(func(st *Settings) error {
		i := st.index(key)
		if i < 0 {
			return ErrUnknownAccount
		}
		st.Users = append(st.Users[:i], st.Users[i+1:]...)
		if st.CurrentUser == key {
			st.CurrentUser = ""
		}
		return nil
	})
}

// BasePath is the directory holding the record.
func (s *Store) BasePath() string {
	return s.basePath
}
