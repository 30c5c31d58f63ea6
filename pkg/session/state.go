// Package session defines the durable shape of a bedtime reflection
// session: the conversation history, the three accumulated categories of
// disclosed items, and the guided-disclosure progress cursor.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Category names. The guided flow walks them in declaration order and ends
// at CategoryCompleted.
const (
	CategoryUnsolved     = "unsolved"
	CategoryAchievements = "achievements"
	CategoryGratitude    = "gratitude"
	CategoryCompleted    = "completed"
)

// MaxItemsPerCategory bounds how many items are solicited per category
// before the progress cursor moves on.
const MaxItemsPerCategory = 10

// Message is one conversation utterance. Messages are append-only and never
// mutated after creation.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// NewMessage stamps a message with the current wall clock in milliseconds.
func NewMessage(role, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Categories holds the three ordered, duplicate-free item collections.
type Categories struct {
	Unsolved     []string `json:"unsolved"`
	Achievements []string `json:"achievements"`
	Gratitude    []string `json:"gratitude"`
}

// Clone returns a deep copy.
func (c Categories) Clone() Categories {
	return Categories{
		Unsolved:     append([]string(nil), c.Unsolved...),
		Achievements: append([]string(nil), c.Achievements...),
		Gratitude:    append([]string(nil), c.Gratitude...),
	}
}

// Total counts accumulated items across all three categories.
func (c Categories) Total() int {
	return len(c.Unsolved) + len(c.Achievements) + len(c.Gratitude)
}

// Progress tracks where the guided-disclosure protocol stands.
type Progress struct {
	CurrentCategory string `json:"currentCategory"`
	CurrentStep     int    `json:"currentStep"`
	UserName        string `json:"userName"`
	IsCompleted     bool   `json:"isCompleted"`
}

// State is the unit of persistence: one continuous reflection session.
// ID is a session identity token; a reset mints a new one, which lets
// in-flight saves for the superseded session be discarded.
type State struct {
	ID         string     `json:"sessionId"`
	History    []Message  `json:"conversationHistory"`
	Categories Categories `json:"categories"`
	Progress   Progress   `json:"conversationProgress"`
}

// NewState returns an empty session positioned at the start of the guided
// flow.
func NewState() State {
	return State{
		ID:      uuid.NewString(),
		History: []Message{},
		Categories: Categories{
			Unsolved:     []string{},
			Achievements: []string{},
			Gratitude:    []string{},
		},
		Progress: Progress{
			CurrentCategory: CategoryUnsolved,
			CurrentStep:     0,
			UserName:        "",
			IsCompleted:     false,
		},
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.History = append([]Message(nil), s.History...)
	out.Categories = s.Categories.Clone()
	return out
}

// Normalize repairs a state decoded from storage: nil slices become empty
// ones and a blank cursor is reset to the first category. A missing ID is
// minted so pre-identity payloads stay loadable.
func (s State) Normalize() State {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.History == nil {
		s.History = []Message{}
	}
	if s.Categories.Unsolved == nil {
		s.Categories.Unsolved = []string{}
	}
	if s.Categories.Achievements == nil {
		s.Categories.Achievements = []string{}
	}
	if s.Categories.Gratitude == nil {
		s.Categories.Gratitude = []string{}
	}
	if s.Progress.CurrentCategory == "" {
		s.Progress.CurrentCategory = CategoryUnsolved
	}
	return s
}
