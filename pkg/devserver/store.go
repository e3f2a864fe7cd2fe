package devserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"tableflip.dev/memos/pkg/remote"
)

// ErrNotFound is returned for unknown memo or resource ids.
var ErrNotFound = errors.New("not found")

// ErrUnknownResource is returned when a memo references a resource that does
// not exist.
var ErrUnknownResource = errors.New("unknown resource")

// Store persists memos and resources in sqlite.
type Store struct {
	db  *sql.DB
	now func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

const schema = `
CREATE TABLE IF NOT EXISTS memos (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	visibility TEXT NOT NULL,
	created_ts INTEGER NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS resources (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	type TEXT NOT NULL,
	size INTEGER NOT NULL,
	blob BLOB,
	external_link TEXT NOT NULL DEFAULT '',
	memo_id TEXT,
	created_ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS resources_memo ON resources(memo_id);
`

// OpenStore opens (creating if needed) the sqlite database at dsn.
func OpenStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{
		db:      db,
		now:     time.Now,
		entropy: ulid.Monotonic(cryptoReader{}, 0),
	}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// CreateMemo inserts a memo and binds the listed resources to it.
func (s *Store) CreateMemo(ctx context.Context, in remote.MemoCreate) (remote.MemoDTO, error) {
	now := s.now()
	id := s.newID(now)
	tags, _ := json.Marshal(nonNil(in.Tags))
	log := logrus.WithField("memo_id", id)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return remote.MemoDTO{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO memos (id, content, visibility, created_ts, tags) VALUES (?, ?, ?, ?, ?)",
		id, in.Content, string(in.Visibility), now.Unix(), string(tags)); err != nil {
		log.WithError(err).Error("insert memo")
		return remote.MemoDTO{}, err
	}
	if err := bindResources(ctx, tx, id, in.ResourceIDs); err != nil {
		return remote.MemoDTO{}, err
	}
	if err := tx.Commit(); err != nil {
		return remote.MemoDTO{}, err
	}
	log.Info("memo created")
	return s.GetMemo(ctx, id)
}

// UpdateMemo replaces content, visibility, tags and the attached resources.
func (s *Store) UpdateMemo(ctx context.Context, id string, in remote.MemoPatch) (remote.MemoDTO, error) {
	tags, _ := json.Marshal(nonNil(in.Tags))
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return remote.MemoDTO{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE memos SET content = ?, visibility = ?, tags = ? WHERE id = ?",
		in.Content, string(in.Visibility), string(tags), id)
	if err != nil {
		return remote.MemoDTO{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return remote.MemoDTO{}, ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, "UPDATE resources SET memo_id = NULL WHERE memo_id = ?", id); err != nil {
		return remote.MemoDTO{}, err
	}
	if err := bindResources(ctx, tx, id, in.ResourceIDs); err != nil {
		return remote.MemoDTO{}, err
	}
	if err := tx.Commit(); err != nil {
		return remote.MemoDTO{}, err
	}
	logrus.WithField("memo_id", id).Info("memo updated")
	return s.GetMemo(ctx, id)
}

func bindResources(ctx context.Context, tx *sql.Tx, memoID string, ids []string) error {
	for _, rid := range ids {
		res, err := tx.ExecContext(ctx, "UPDATE resources SET memo_id = ? WHERE id = ?", memoID, rid)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrUnknownResource, rid)
		}
	}
	return nil
}

// DeleteMemo removes a memo together with its resources.
func (s *Store) DeleteMemo(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx, "DELETE FROM memos WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM resources WHERE memo_id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// GetMemo loads one memo.
func (s *Store) GetMemo(ctx context.Context, id string) (remote.MemoDTO, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, content, visibility, created_ts, tags FROM memos WHERE id = ?", id)
	m, err := scanMemo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return remote.MemoDTO{}, ErrNotFound
	}
	if err != nil {
		return remote.MemoDTO{}, err
	}
	if m.ResourceIDs, err = s.resourceIDs(ctx, id); err != nil {
		return remote.MemoDTO{}, err
	}
	return m, nil
}

// ListMemos returns every memo, most recent first.
func (s *Store) ListMemos(ctx context.Context) ([]remote.MemoDTO, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, content, visibility, created_ts, tags FROM memos ORDER BY created_ts DESC, id DESC")
	if err != nil {
		return nil, err
	}
	var memos []remote.MemoDTO
	for rows.Next() {
		m, err := scanMemo(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		memos = append(memos, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range memos {
		if memos[i].ResourceIDs, err = s.resourceIDs(ctx, memos[i].ID); err != nil {
			return nil, err
		}
	}
	return memos, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMemo(row scanner) (remote.MemoDTO, error) {
	var m remote.MemoDTO
	var tags string
	if err := row.Scan(&m.ID, &m.Content, &m.Visibility, &m.CreatedTs, &tags); err != nil {
		return m, err
	}
	if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
		return m, fmt.Errorf("decode tags of %s: %w", m.ID, err)
	}
	return m, nil
}

func (s *Store) resourceIDs(ctx context.Context, memoID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM resources WHERE memo_id = ? ORDER BY created_ts, id", memoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateResource stores an upload. When MemoID is set the resource is bound
// immediately.
func (s *Store) CreateResource(ctx context.Context, in remote.ResourceCreate) (remote.ResourceDTO, error) {
	now := s.now()
	id := s.newID(now)
	var memoID interface{}
	if strings.TrimSpace(in.MemoID) != "" {
		if _, err := s.GetMemo(ctx, in.MemoID); err != nil {
			return remote.ResourceDTO{}, err
		}
		memoID = in.MemoID
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO resources (id, filename, type, size, blob, external_link, memo_id, created_ts) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		id, in.Filename, in.MimeType, len(in.Content), in.Content, in.ExternalLink, memoID, now.UnixNano())
	if err != nil {
		logrus.WithError(err).WithField("resource_id", id).Error("insert resource")
		return remote.ResourceDTO{}, err
	}
	logrus.WithFields(logrus.Fields{"resource_id": id, "size": len(in.Content)}).Info("resource created")
	return s.GetResource(ctx, id)
}

// GetResource loads resource metadata.
func (s *Store) GetResource(ctx context.Context, id string) (remote.ResourceDTO, error) {
	var r remote.ResourceDTO
	var memoID sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, filename, type, size, external_link, memo_id FROM resources WHERE id = ?", id).
		Scan(&r.ID, &r.Filename, &r.Type, &r.Size, &r.ExternalLink, &memoID)
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrNotFound
	}
	r.MemoID = memoID.String
	return r, err
}

// ResourceBlob returns the stored bytes and mime type.
func (s *Store) ResourceBlob(ctx context.Context, id string) ([]byte, string, error) {
	var data []byte
	var typ string
	err := s.db.QueryRowContext(ctx, "SELECT blob, type FROM resources WHERE id = ?", id).Scan(&data, &typ)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	return data, typ, err
}

// ListResources lists resources, optionally only those of one memo.
func (s *Store) ListResources(ctx context.Context, memoID string) ([]remote.ResourceDTO, error) {
	query := "SELECT id, filename, type, size, external_link, memo_id FROM resources"
	var args []interface{}
	if memoID != "" {
		query += " WHERE memo_id = ?"
		args = append(args, memoID)
	}
	query += " ORDER BY created_ts, id"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []remote.ResourceDTO
	for rows.Next() {
		var r remote.ResourceDTO
		var mid sql.NullString
		if err := rows.Scan(&r.ID, &r.Filename, &r.Type, &r.Size, &r.ExternalLink, &mid); err != nil {
			return nil, err
		}
		r.MemoID = mid.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteResource removes an upload.
func (s *Store) DeleteResource(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM resources WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
