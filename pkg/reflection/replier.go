package reflection

import (
	"context"
	"fmt"
	"strings"

	"github.com/MoXuan9X/GoodSleep/pkg/providers"
	"github.com/MoXuan9X/GoodSleep/pkg/session"
)

// ReplierOptions carries the sampling parameters for the reply capability.
type ReplierOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// ProviderReplier drives the reply capability through an LLM provider with
// the 小安 system prompt prepended to the conversation.
type ProviderReplier struct {
	provider providers.LLMProvider
	opts     ReplierOptions
}

func NewProviderReplier(provider providers.LLMProvider, opts ReplierOptions) *ProviderReplier {
	return &ProviderReplier{provider: provider, opts: opts}
}

func (r *ProviderReplier) GenerateReply(ctx context.Context, history []session.Message) (string, error) {
	messages := make([]providers.Message, 0, len(history)+1)
	messages = append(messages, providers.Message{Role: "system", Content: systemPrompt})
	for _, m := range history {
		messages = append(messages, providers.Message{Role: m.Role, Content: m.Content})
	}

	resp, err := r.provider.Chat(ctx, messages, r.opts.Model, map[string]interface{}{
		"max_tokens":  r.opts.MaxTokens,
		"temperature": r.opts.Temperature,
		"top_p":       r.opts.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		reply = FallbackReply
	}
	return reply, nil
}
