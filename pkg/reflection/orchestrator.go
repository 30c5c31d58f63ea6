package reflection

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MoXuan9X/GoodSleep/pkg/logger"
	"github.com/MoXuan9X/GoodSleep/pkg/session"
	"github.com/MoXuan9X/GoodSleep/pkg/store"
)

// Orchestrator drives one conversational turn: it joins the reply and
// classification capabilities, merges extracted items into the session's
// categories, advances the progress cursor, and persists the result.
type Orchestrator struct {
	store      store.SessionStore
	replier    Replier
	classifier Classifier
	timeout    time.Duration

	// Superseded reports whether the given session has been replaced by a
	// reset while the turn was in flight; a superseded save is skipped.
	// Optional.
	Superseded func(sessionID string) bool
}

// NewOrchestrator wires the turn engine. timeout bounds each external call;
// zero means no bound beyond the caller's context.
func NewOrchestrator(st store.SessionStore, replier Replier, classifier Classifier, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		store:      st,
		replier:    replier,
		classifier: classifier,
		timeout:    timeout,
	}
}

// RunTurn executes one turn against the given state and returns the new
// state. On failure the input state is returned unchanged and nothing has
// been persisted: the pre-turn state is the rollback point, so the caller
// may retry by resubmitting the same user text.
//
// The two capability calls run concurrently and join before anything is
// committed. A reply failure fails the whole turn; a classification
// failure degrades to an empty extraction for this turn.
func (o *Orchestrator) RunTurn(ctx context.Context, state session.State, userText string) (session.State, error) {
	next := state.Clone()
	next.History = append(next.History, session.NewMessage(session.RoleUser, userText))

	var (
		reply     string
		extracted session.Categories
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		callCtx, cancel := o.callContext(gctx)
		defer cancel()
		r, err := o.replier.GenerateReply(callCtx, next.History)
		if err != nil {
			return err
		}
		reply = r
		return nil
	})

	g.Go(func() error {
		callCtx, cancel := o.callContext(gctx)
		defer cancel()
		cats, err := o.classifier.Classify(callCtx, userText)
		if err != nil {
			// Extraction is best-effort: the reply still lands and the user
			// can restate the item next turn.
			logger.WarnCF("orchestrator", "Classification failed, continuing with empty extraction",
				map[string]interface{}{"error": err.Error()})
			extracted = session.Categories{}
			return nil
		}
		extracted = cats
		return nil
	})

	if err := g.Wait(); err != nil {
		return state, fmt.Errorf("run turn: %w", err)
	}

	merged, accepted := session.MergeCategories(next.Categories, extracted)
	next.Categories = merged
	next.Progress = session.AdvanceProgress(next.Progress, accepted)
	next.History = append(next.History, session.NewMessage(session.RoleAssistant, reply))

	o.persist(ctx, next)
	return next, nil
}

func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.timeout)
}

// persist commits the turn's state. Storage trouble degrades the session to
// in-memory-only operation; it never interrupts the conversation.
func (o *Orchestrator) persist(ctx context.Context, state session.State) {
	if o.Superseded != nil && o.Superseded(state.ID) {
		logger.InfoCF("orchestrator", "Session superseded during turn, skipping save",
			map[string]interface{}{"session_id": state.ID})
		return
	}
	if err := o.store.Save(ctx, state); err != nil {
		logger.WarnCF("orchestrator", "Session save failed, continuing without persistence",
			map[string]interface{}{"error": err.Error()})
	}
}
