// Package reflection implements the bedtime reflection core: the turn
// orchestrator that joins the reply and classification capabilities, the
// categorization merge flow, and the session lifecycle controller.
package reflection

import (
	"context"

	"github.com/MoXuan9X/GoodSleep/pkg/session"
)

// Replier produces the assistant's next utterance from the full updated
// conversation history. Failures are transient service errors; the caller
// treats them as a failed turn.
type Replier interface {
	GenerateReply(ctx context.Context, history []session.Message) (string, error)
}

// Classifier extracts category items from the user's latest utterance.
// Implementations absorb malformed payloads into empty categories; a
// returned error indicates a transport failure, which the orchestrator
// also degrades to empty categories rather than failing the turn.
type Classifier interface {
	Classify(ctx context.Context, text string) (session.Categories, error)
}
