package reflection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MoXuan9X/GoodSleep/pkg/logger"
	"github.com/MoXuan9X/GoodSleep/pkg/session"
	"github.com/MoXuan9X/GoodSleep/pkg/store"
)

// ErrTurnInFlight is returned when a turn is submitted while another one
// for the same session has not resolved yet.
var ErrTurnInFlight = errors.New("a turn is already in flight")

// Controller owns the canonical in-memory session state. It initializes
// and resets the session, serializes turns (at most one in flight), and
// invalidates saves of a superseded session after a mid-turn reset.
type Controller struct {
	store        store.SessionStore
	orchestrator *Orchestrator

	mu       sync.Mutex
	current  session.State
	loaded   bool
	inFlight bool
}

func NewController(st store.SessionStore, orch *Orchestrator) *Controller {
	c := &Controller{store: st, orchestrator: orch}
	if orch != nil {
		orch.Superseded = func(sessionID string) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.loaded && c.current.ID != sessionID
		}
	}
	return c
}

// Initialize loads the persisted session, seeding a fresh one with the
// assistant greeting when the history is empty.
func (c *Controller) Initialize(ctx context.Context) (session.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := c.store.Load(ctx)
	if err != nil {
		return session.State{}, fmt.Errorf("load session: %w", err)
	}

	if len(st.History) == 0 {
		st.History = append(st.History, session.NewMessage(session.RoleAssistant, Greeting))
		if err := c.store.Save(ctx, st); err != nil {
			logger.WarnCF("lifecycle", "Initial session save failed, continuing without persistence",
				map[string]interface{}{"error": err.Error()})
		}
	}

	c.current = st
	c.loaded = true
	return st.Clone(), nil
}

// Reset discards the session: persisted slot cleared, categories and
// history gone, a new greeted session minted. The only operation that ever
// removes accumulated items.
func (c *Controller) Reset(ctx context.Context) (session.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		logger.WarnCF("lifecycle", "Session clear failed, resetting in memory only",
			map[string]interface{}{"error": err.Error()})
	}

	st := session.NewState()
	st.History = append(st.History, session.NewMessage(session.RoleAssistant, Greeting))
	if err := c.store.Save(ctx, st); err != nil {
		logger.WarnCF("lifecycle", "Reset session save failed, continuing without persistence",
			map[string]interface{}{"error": err.Error()})
	}

	c.current = st
	c.loaded = true
	return st.Clone(), nil
}

// State returns a copy of the canonical state, initializing on first use.
func (c *Controller) State(ctx context.Context) (session.State, error) {
	c.mu.Lock()
	if c.loaded {
		st := c.current.Clone()
		c.mu.Unlock()
		return st, nil
	}
	c.mu.Unlock()
	return c.Initialize(ctx)
}

// RunTurn executes one turn against the canonical state. Submissions while
// a turn is in flight are rejected with ErrTurnInFlight; the UI disables
// input while waiting, so hitting this means a second surface raced us.
func (c *Controller) RunTurn(ctx context.Context, userText string) (session.State, error) {
	c.mu.Lock()
	if !c.loaded {
		c.mu.Unlock()
		if _, err := c.Initialize(ctx); err != nil {
			return session.State{}, err
		}
		c.mu.Lock()
	}
	if c.inFlight {
		c.mu.Unlock()
		return session.State{}, ErrTurnInFlight
	}
	c.inFlight = true
	before := c.current.Clone()
	c.mu.Unlock()

	next, err := c.orchestrator.RunTurn(ctx, before, userText)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	if err != nil {
		return session.State{}, err
	}

	// A reset mid-turn supersedes this result; the orchestrator already
	// skipped its save, so just keep the fresh session.
	if c.current.ID != next.ID {
		return c.current.Clone(), nil
	}

	c.current = next
	return next.Clone(), nil
}
