package reflection

import (
	"context"
	"testing"
	"time"

	"github.com/MoXuan9X/GoodSleep/pkg/session"
	"github.com/MoXuan9X/GoodSleep/pkg/store"
)

func TestInitialize_EmptySlotSeedsGreeting(t *testing.T) {
	st := store.NewMemoryStore()
	controller := NewController(st, nil)

	state, err := controller.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if len(state.History) != 1 {
		t.Fatalf("history length = %d, want 1", len(state.History))
	}
	if state.History[0].Role != session.RoleAssistant || state.History[0].Content != Greeting {
		t.Errorf("greeting message = %+v", state.History[0])
	}

	// The seeded greeting must be durable.
	persisted, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(persisted.History) != 1 {
		t.Errorf("persisted history length = %d, want 1", len(persisted.History))
	}
}

func TestInitialize_ExistingSessionReturnedUnchanged(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	existing := session.NewState()
	existing.History = append(existing.History,
		session.NewMessage(session.RoleAssistant, Greeting),
		session.NewMessage(session.RoleUser, "明天要交报告"),
	)
	existing.Categories.Unsolved = []string{"明天交报告"}
	if err := st.Save(ctx, existing); err != nil {
		t.Fatalf("Save: %v", err)
	}

	controller := NewController(st, nil)
	state, err := controller.Initialize(ctx)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if state.ID != existing.ID {
		t.Errorf("Initialize replaced the stored session")
	}
	if len(state.History) != 2 || len(state.Categories.Unsolved) != 1 {
		t.Errorf("stored session mutated: %+v", state)
	}
}

func TestReset_DiscardsAccumulatedState(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	controller := NewController(st, nil)

	if _, err := controller.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	// Simulate accumulated state.
	dirty := session.NewState()
	dirty.History = append(dirty.History, session.NewMessage(session.RoleUser, "很多心事"))
	dirty.Categories.Unsolved = []string{"明天交报告"}
	dirty.Categories.Gratitude = []string{"朋友请吃饭"}
	if err := st.Save(ctx, dirty); err != nil {
		t.Fatalf("Save: %v", err)
	}

	state, err := controller.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if len(state.History) != 1 || state.History[0].Content != Greeting {
		t.Errorf("reset history = %+v, want only the greeting", state.History)
	}
	if state.Categories.Total() != 0 {
		t.Errorf("reset categories = %+v, want all empty", state.Categories)
	}
	if state.Progress.CurrentCategory != session.CategoryUnsolved || state.Progress.IsCompleted {
		t.Errorf("reset progress = %+v", state.Progress)
	}
	if state.ID == dirty.ID {
		t.Error("reset must mint a new session identity")
	}
}

func TestController_ResetMidTurnSupersedesResult(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	release := make(chan struct{})
	replier := &blockingReplier{release: release, reply: "记下来了。", started: make(chan struct{})}
	orch := NewOrchestrator(st, replier, &stubClassifier{}, time.Second)
	controller := NewController(st, orch)

	if _, err := controller.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	type result struct {
		state session.State
		err   error
	}
	done := make(chan result, 1)
	go func() {
		s, err := controller.RunTurn(ctx, "明天要交报告")
		done <- result{s, err}
	}()

	// Wait for the turn to reach the reply capability, then reset.
	<-replier.started
	fresh, err := controller.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	close(release)

	r := <-done
	if r.err != nil {
		t.Fatalf("RunTurn: %v", r.err)
	}
	if r.state.ID != fresh.ID {
		t.Errorf("superseded turn should yield the fresh session, got %q want %q", r.state.ID, fresh.ID)
	}

	persisted, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if persisted.ID != fresh.ID {
		t.Errorf("persisted session %q, want fresh session %q", persisted.ID, fresh.ID)
	}
	if len(persisted.History) != 1 {
		t.Errorf("persisted history = %d messages, want only the greeting", len(persisted.History))
	}
}

func TestRunTurn_RejectsConcurrentSubmission(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	release := make(chan struct{})
	replier := &blockingReplier{release: release, reply: "记下来了。", started: make(chan struct{})}
	orch := NewOrchestrator(st, replier, &stubClassifier{}, time.Second)
	controller := NewController(st, orch)

	if _, err := controller.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := controller.RunTurn(ctx, "今天好累")
		done <- err
	}()

	<-replier.started
	if _, err := controller.RunTurn(ctx, "还有一件事"); err != ErrTurnInFlight {
		t.Errorf("concurrent RunTurn error = %v, want ErrTurnInFlight", err)
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("first RunTurn: %v", err)
	}
}

type blockingReplier struct {
	release <-chan struct{}
	reply   string
	started chan struct{}
	once    bool
}

func (b *blockingReplier) GenerateReply(ctx context.Context, history []session.Message) (string, error) {
	if b.started == nil {
		panic("blockingReplier needs a started channel")
	}
	if !b.once {
		b.once = true
		close(b.started)
	}
	select {
	case <-b.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return b.reply, nil
}
