package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MoXuan9X/GoodSleep/pkg/logger"
	"github.com/MoXuan9X/GoodSleep/pkg/session"
)

// SQLiteStore is the canonical durable session slot.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates/opens the session database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create session db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single logical writer. One shared connection avoids writer lock
	// contention with SQLite under concurrent goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS session_slot (
			slot_key TEXT PRIMARY KEY,
			state_json TEXT NOT NULL,
			updated_at_ms INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init session db: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns the stored session, or a fresh empty one when the slot is
// absent or holds a payload that no longer parses.
func (s *SQLiteStore) Load(ctx context.Context) (session.State, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state_json FROM session_slot WHERE slot_key = ?`, SlotKey,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return session.NewState(), nil
	}
	if err != nil {
		return session.State{}, fmt.Errorf("read session slot: %w", err)
	}

	var st session.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		logger.WarnCF("store", "Stored session state is corrupt, reinitializing",
			map[string]interface{}{"error": err.Error()})
		return session.NewState(), nil
	}
	return st.Normalize(), nil
}

// Save overwrites the slot. Last writer wins.
func (s *SQLiteStore) Save(ctx context.Context, state session.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_slot (slot_key, state_json, updated_at_ms)
		 VALUES (?, ?, ?)
		 ON CONFLICT(slot_key) DO UPDATE SET
			state_json = excluded.state_json,
			updated_at_ms = excluded.updated_at_ms`,
		SlotKey, string(raw), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write session slot: %w", err)
	}
	return nil
}

// Clear removes the stored session. No-op when nothing is stored.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM session_slot WHERE slot_key = ?`, SlotKey); err != nil {
		return fmt.Errorf("clear session slot: %w", err)
	}
	return nil
}
