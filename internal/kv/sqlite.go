package kv

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store over a single modernc.org/sqlite database.
// One process-wide table (scope, key) -> value backs every logical
// store the gateway needs (RouterCounter's single row, and one row per
// TTS jobId), namespaced by the scope column rather than one table per
// concern — a flat row-per-id table over per-feature schemas.
type SQLiteStore struct {
	db *sql.DB

	mu     sync.Mutex
	alarms map[string]*alarmEntry
}

type alarmEntry struct {
	timer *time.Timer
}

// Open creates/migrates the sqlite database at path ("" or ":memory:"
// for an in-memory store, useful in tests).
func Open(path string) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers across connections

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv_items (
			scope TEXT NOT NULL,
			key   TEXT NOT NULL,
			value BLOB NOT NULL,
			PRIMARY KEY (scope, key)
		)`); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, alarms: make(map[string]*alarmEntry)}, nil
}

// Close releases the underlying database handle and cancels pending
// alarms.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	for _, a := range s.alarms {
		a.timer.Stop()
	}
	s.alarms = map[string]*alarmEntry{}
	s.mu.Unlock()
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, scope, key string) ([]byte, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM kv_items WHERE scope = ? AND key = ?`, scope, key)
	var value []byte
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, scope, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_items (scope, key, value) VALUES (?, ?, ?)
		ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value`,
		scope, key, value)
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, scope, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_items WHERE scope = ? AND key = ?`, scope, key)
	return err
}

func (s *SQLiteStore) DeleteAll(ctx context.Context, scope string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_items WHERE scope = ?`, scope)
	return err
}

// SetAlarm schedules fn on an in-process timer keyed by scope. A
// previously pending alarm for the same scope is replaced. A zero `at`
// clears without firing. This keeps the alarm mechanism lightweight
// (no polling table scan) since the gateway runs as a single process;
// the durable KV contract itself stays storage-agnostic for
// implementations that do need to survive a restart.
func (s *SQLiteStore) SetAlarm(scope string, at int64, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.alarms[scope]; ok {
		existing.timer.Stop()
		delete(s.alarms, scope)
	}
	if at == 0 {
		return
	}

	delay := time.Until(time.Unix(at, 0))
	if delay < 0 {
		delay = 0
	}
	entry := &alarmEntry{}
	entry.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.alarms, scope)
		s.mu.Unlock()
		fn()
	})
	s.alarms[scope] = entry
}
