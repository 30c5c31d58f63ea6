// Package store persists the single reflection session slot.
package store

import (
	"context"

	"github.com/MoXuan9X/GoodSleep/pkg/session"
)

// SlotKey is the durable slot name. Kept identical to the key the original
// web client used in browser storage so exported payloads stay portable.
const SlotKey = "anxin-sleep-app-state"

// SessionStore is a stateless read/write facade over the durable session
// slot. Load never fails on an absent or corrupt slot: both yield a fresh
// empty state, since a broken slot must not block the conversation.
type SessionStore interface {
	Load(ctx context.Context) (session.State, error)
	Save(ctx context.Context, state session.State) error
	Clear(ctx context.Context) error
	Close() error
}
