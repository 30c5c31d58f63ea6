package reflection

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/MoXuan9X/GoodSleep/pkg/logger"
	"github.com/MoXuan9X/GoodSleep/pkg/providers"
	"github.com/MoXuan9X/GoodSleep/pkg/session"
)

// ProviderClassifier drives the classification capability. The raw model
// output is deliberately loose (fenced JSON, missing keys, string vs array
// values, alternate key spellings), so everything funnels through one
// tolerant adapter before it reaches the strictly-typed merge.
type ProviderClassifier struct {
	provider providers.LLMProvider
	model    string
}

func NewProviderClassifier(provider providers.LLMProvider, model string) *ProviderClassifier {
	return &ProviderClassifier{provider: provider, model: model}
}

// Classify extracts category items from one user utterance. Malformed
// payloads degrade to empty categories; only transport failures surface as
// errors, and callers absorb those too.
func (c *ProviderClassifier) Classify(ctx context.Context, text string) (session.Categories, error) {
	resp, err := c.provider.Chat(ctx, []providers.Message{
		{Role: "system", Content: classificationPrompt},
		{Role: "user", Content: text},
	}, c.model, nil)
	if err != nil {
		return session.Categories{}, err
	}

	return ParseClassification(resp.Content), nil
}

var (
	fenceOpenRegex  = regexp.MustCompile(`(?i)^` + "```" + `(?:json)?\s*`)
	fenceCloseRegex = regexp.MustCompile("```$")
)

// sanitizeJSONContent strips a surrounding markdown code fence, which some
// models add despite being told not to.
func sanitizeJSONContent(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = fenceOpenRegex.ReplaceAllString(trimmed, "")
		trimmed = fenceCloseRegex.ReplaceAllString(trimmed, "")
		trimmed = strings.TrimSpace(trimmed)
	}
	return trimmed
}

// ParseClassification normalizes the raw classification payload into
// trimmed, non-empty item lists. Unparseable payloads yield all-empty
// categories.
func ParseClassification(raw string) session.Categories {
	cleaned := sanitizeJSONContent(raw)

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		logger.WarnCF("classifier", "Classification payload is not valid JSON",
			map[string]interface{}{"error": err.Error()})
		return session.Categories{}
	}

	return session.Categories{
		Unsolved:     normalizeToList(fieldValue(parsed, "a", "unsolved")),
		Achievements: normalizeToList(fieldValue(parsed, "b", "achievements")),
		Gratitude:    normalizeToList(fieldValue(parsed, "c", "gratitude")),
	}
}

// fieldValue returns the first present key among the observed spellings.
func fieldValue(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

// normalizeToList flattens absent | string | sequence-of-strings into an
// ordered list of trimmed non-empty items. A single multi-line string is
// split on newlines.
func normalizeToList(value interface{}) []string {
	switch v := value.(type) {
	case nil:
		return []string{}
	case string:
		if strings.TrimSpace(v) == "" {
			return []string{}
		}
		var items []string
		for _, line := range strings.Split(v, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				items = append(items, line)
			}
		}
		if items == nil {
			items = []string{}
		}
		return items
	case []interface{}:
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if s != "" {
				items = append(items, s)
			}
		}
		return items
	default:
		return []string{}
	}
}
