// Package state persists per-handler JSON state blobs in SQLite, so
// handlers that accumulate knowledge (wallpaper assignments, for one)
// survive daemon restarts. Each handler owns its own blob; there is no
// shared process-wide state.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"
)

// DefaultMaxStateBytes caps a single handler's state blob.
const DefaultMaxStateBytes = 1 << 20 // 1 MiB

type Store struct {
	db       *sql.DB
	maxBytes int
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:       db,
		maxBytes: DefaultMaxStateBytes,
	}
}

// Get returns the full state blob for a handler, or {} if missing.
func (s *Store) Get(ctx context.Context, handler string) (json.RawMessage, error) {
	if handler == "" {
		return nil, fmt.Errorf("handler name is empty")
	}

	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT state FROM handler_state WHERE handler = ?;", handler).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return json.RawMessage(`{}`), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read handler state: %w", err)
	}
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("stored state is invalid JSON for handler=%q", handler)
	}
	return json.RawMessage(raw), nil
}

// ShallowMerge applies updates as a shallow merge (top-level keys replaced).
// The merged state is persisted and returned.
func (s *Store) ShallowMerge(ctx context.Context, handler string, updates json.RawMessage) (json.RawMessage, error) {
	if handler == "" {
		return nil, fmt.Errorf("handler name is empty")
	}

	upd, err := decodeObjectOrEmpty(updates)
	if err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var curRaw string
	err = tx.QueryRowContext(ctx, "SELECT state FROM handler_state WHERE handler = ?;", handler).Scan(&curRaw)
	if errors.Is(err, sql.ErrNoRows) {
		curRaw = "{}"
	} else if err != nil {
		return nil, fmt.Errorf("read handler state: %w", err)
	}

	cur, err := decodeObjectOrEmpty(json.RawMessage(curRaw))
	if err != nil {
		return nil, fmt.Errorf("decode stored state: %w", err)
	}

	maps.Copy(cur, upd)

	merged, err := json.Marshal(cur)
	if err != nil {
		return nil, fmt.Errorf("marshal merged state: %w", err)
	}
	if len(merged) > s.maxBytes {
		return nil, fmt.Errorf("handler state exceeds max size (%d bytes)", s.maxBytes)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx, `
INSERT INTO handler_state(handler, state, updated_at)
VALUES(?, ?, ?)
ON CONFLICT(handler) DO UPDATE SET
  state = excluded.state,
  updated_at = excluded.updated_at;
`, handler, string(merged), now)
	if err != nil {
		return nil, fmt.Errorf("upsert handler state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return json.RawMessage(merged), nil
}

// Put replaces a handler's state blob wholesale.
func (s *Store) Put(ctx context.Context, handler string, state json.RawMessage) error {
	if handler == "" {
		return fmt.Errorf("handler name is empty")
	}
	if !json.Valid(state) {
		return fmt.Errorf("state is not valid JSON")
	}
	if len(state) > s.maxBytes {
		return fmt.Errorf("handler state exceeds max size (%d bytes)", s.maxBytes)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO handler_state(handler, state, updated_at)
VALUES(?, ?, ?)
ON CONFLICT(handler) DO UPDATE SET
  state = excluded.state,
  updated_at = excluded.updated_at;
`, handler, string(state), now)
	if err != nil {
		return fmt.Errorf("upsert handler state: %w", err)
	}
	return nil
}

func decodeObjectOrEmpty(b json.RawMessage) (map[string]json.RawMessage, error) {
	if len(b) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	if !json.Valid(b) {
		return nil, fmt.Errorf("invalid JSON")
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]json.RawMessage{}
	}
	return m, nil
}
