package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/MoXuan9X/GoodSleep/pkg/session"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_LoadEmptySlot(t *testing.T) {
	s := newTestStore(t)

	st, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(st.History) != 0 || st.Categories.Total() != 0 {
		t.Errorf("empty slot should yield fresh state, got %+v", st)
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st := session.NewState()
	st.History = append(st.History,
		session.NewMessage(session.RoleAssistant, "你好！我是小安"),
		session.NewMessage(session.RoleUser, "明天要交报告还没做"),
	)
	st.Categories.Unsolved = []string{"明天交报告"}
	st.Progress.CurrentStep = 1
	st.Progress.UserName = "小明"

	if err := s.Save(ctx, st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(loaded, st) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, st)
	}
}

func TestSQLiteStore_SaveOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := session.NewState()
	first.Categories.Gratitude = []string{"朋友请吃饭"}
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("Save first: %v", err)
	}

	second := session.NewState()
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ID != second.ID {
		t.Errorf("loaded session %q, want overwriting session %q", loaded.ID, second.ID)
	}
	if len(loaded.Categories.Gratitude) != 0 {
		t.Errorf("old slot content survived overwrite: %v", loaded.Categories.Gratitude)
	}
}

func TestSQLiteStore_CorruptSlotReinitializes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.db.Exec(
		`INSERT INTO session_slot (slot_key, state_json, updated_at_ms) VALUES (?, ?, 0)`,
		SlotKey, `{"conversationHistory": not-json`,
	); err != nil {
		t.Fatalf("inject corrupt slot: %v", err)
	}

	st, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load should not fail on corrupt slot: %v", err)
	}
	if len(st.History) != 0 || st.Categories.Total() != 0 {
		t.Errorf("corrupt slot should yield fresh state, got %+v", st)
	}
}

func TestSQLiteStore_ClearIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear on empty slot: %v", err)
	}

	if err := s.Save(ctx, session.NewState()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second Clear: %v", err)
	}

	st, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(st.History) != 0 {
		t.Errorf("slot should be empty after Clear, got %+v", st)
	}
}

func TestMemoryStore_Isolation(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	st := session.NewState()
	st.Categories.Unsolved = []string{"修电脑"}
	if err := m.Save(ctx, st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Mutating the caller's copy must not leak into the stored slot.
	st.Categories.Unsolved[0] = "mutated"

	loaded, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Categories.Unsolved[0] != "修电脑" {
		t.Errorf("stored state shares memory with caller: %v", loaded.Categories.Unsolved)
	}
}
