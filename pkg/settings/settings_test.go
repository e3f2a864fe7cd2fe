package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func TestLoadMissingIsEmpty(t *testing.T) {
	s := openStore(t)
	st, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.CurrentUser != "" || len(st.Users) != 0 {
		t.Fatalf("expected empty settings, got %+v", st)
	}
}

func TestAddUserMakesFirstUserCurrent(t *testing.T) {
	s := openStore(t)
	if err := s.AddUser(User{AccountKey: "alice@memos"}, false); err != nil {
		t.Fatalf("add user: %v", err)
	}
	if err := s.AddUser(User{AccountKey: "bob@memos"}, false); err != nil {
		t.Fatalf("add user: %v", err)
	}
	st, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.CurrentUser != "alice@memos" {
		t.Fatalf("expected first user to be current, got %q", st.CurrentUser)
	}
	if len(st.Users) != 2 {
		t.Fatalf("expected two users, got %d", len(st.Users))
	}
}

func TestAddUserKeepsExistingDraft(t *testing.T) {
	s := openStore(t)
	if err := s.AddUser(User{AccountKey: "a", Settings: UserSettings{Draft: "wip"}}, true); err != nil {
		t.Fatalf("add user: %v", err)
	}
	if err := s.AddUser(User{AccountKey: "a", Host: "https://new"}, true); err != nil {
		t.Fatalf("re-add user: %v", err)
	}
	st, _ := s.Load()
	u, ok := st.User("a")
	if !ok || u.Settings.Draft != "wip" || u.Host != "https://new" {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestUpdateUserUnknownAccountLeavesStoreUnchanged(t *testing.T) {
	s := openStore(t)
	if err := s.AddUser(User{AccountKey: "a", Settings: UserSettings{Draft: "keep"}}, true); err != nil {
		t.Fatalf("add user: %v", err)
	}
	path := filepath.Join(s.BasePath(), settingsKey)
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	err = s.UpdateUser("ghost", func(us *UserSettings) { us.Draft = "lost" })
	if !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount, got %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("store changed:\nbefore %s\nafter  %s", before, after)
	}
}

func TestUpdateSkipsIdenticalWrite(t *testing.T) {
	s := openStore(t)
	if err := s.AddUser(User{AccountKey: "a"}, true); err != nil {
		t.Fatalf("add user: %v", err)
	}
	path := filepath.Join(s.BasePath(), settingsKey)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if err := s.AddUser(User{AccountKey: "a"}, true); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	again, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !again.ModTime().Equal(info.ModTime()) {
		t.Fatal("identical update rewrote the record")
	}
}

func TestSetAndRemoveCurrentUser(t *testing.T) {
	s := openStore(t)
	_ = s.AddUser(User{AccountKey: "a"}, true)
	_ = s.AddUser(User{AccountKey: "b"}, false)

	if err := s.SetCurrentUser("b"); err != nil {
		t.Fatalf("set current: %v", err)
	}
	if err := s.SetCurrentUser("nobody"); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount, got %v", err)
	}
	if err := s.RemoveUser("b"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	st, _ := s.Load()
	if st.CurrentUser != "" {
		t.Fatalf("expected selection cleared, got %q", st.CurrentUser)
	}
	if _, ok := st.Current(); ok {
		t.Fatal("expected no current user")
	}
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	s := openStore(t)
	for _, k := range []string{"a", "b"} {
		if err := s.AddUser(User{AccountKey: k}, false); err != nil {
			t.Fatalf("add user: %v", err)
		}
	}

	var wg sync.WaitGroup
	for _, k := range []string{"a", "b"} {
		k := k
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.UpdateUser(k, func(us *UserSettings) { us.Draft = "draft-" + k })
		}()
	}
	wg.Wait()

	st, _ := s.Load()
	for _, k := range []string{"a", "b"} {
		u, _ := st.User(k)
		if u.Settings.Draft != "draft-"+k {
			t.Fatalf("lost update for %s: %+v", k, st)
		}
	}
}

func TestWatchSeesWritesFromAnotherStore(t *testing.T) {
	base := t.TempDir()
	reader, err := Open(base)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	writer, err := Open(base)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := writer.AddUser(User{AccountKey: "a"}, true); err != nil {
		t.Fatalf("add user: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := reader.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if err := writer.UpdateUser("a", func(us *UserSettings) { us.Draft = "from elsewhere" }); err != nil {
		t.Fatalf("update: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-ch:
			if u, _ := st.User("a"); u.Settings.Draft == "from elsewhere" {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for settings change")
		}
	}
}
