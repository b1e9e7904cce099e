package entity

import (
	"fmt"
	"strings"
	"time"
)

type TurnRole string

const (
	TurnRoleGenerate TurnRole = "generate"
	TurnRoleRefine   TurnRole = "refine"
	TurnRoleFeedback TurnRole = "feedback"
)

// ConversationTurn is one recorded event in a session. Immutable once appended.
type ConversationTurn struct {
	TurnNumber int      `json:"turnNumber"`
	Role       TurnRole `json:"role"`
	Timestamp  string   `json:"timestamp"`
	UserInput  string   `json:"userInput"`
	StyleId    string   `json:"styleId"`

	// Generate/refine-only fields. ImagePaths is slot-indexed and keeps nil
	// entries for failed slots so the failure record survives in history.
	RefinedIntent       string    `json:"refinedIntent,omitempty"`
	NegativeConstraints []string  `json:"negativeConstraints,omitempty"`
	ImagePaths          []*string `json:"imagePaths,omitempty"`
}

func (t ConversationTurn) ToMap() map[string]interface{} {
	d := map[string]interface{}{
		"turnNumber": t.TurnNumber,
		"role":       string(t.Role),
		"timestamp":  t.Timestamp,
		"userInput":  t.UserInput,
		"styleId":    t.StyleId,
	}
	if t.Role == TurnRoleGenerate || t.Role == TurnRoleRefine {
		d["refinedIntent"] = t.RefinedIntent
		d["negativeConstraints"] = t.NegativeConstraints
		d["imagePaths"] = t.ImagePaths
	}
	return d
}

// SessionKey identifies one conversation context. Using a composite struct
// key instead of a concatenated string avoids delimiter collisions.
type SessionKey struct {
	SessionId string
	StyleId   string
}

func (k SessionKey) String() string {
	return k.SessionId + "::" + k.StyleId
}

// ContextMessage is one chat message rendered from conversation history,
// provider-agnostic so entities stay free of LLM client imports.
type ContextMessage struct {
	Role    string
	Content string
}

// ConversationContext is the full turn history for one (session, style) pair.
// It is a plain value holder: callers must serialize concurrent appends for
// the same key (the session repository owns the per-key locks).
type ConversationContext struct {
	SessionId string
	StyleId   string
	CreatedAt time.Time
	Turns     []ConversationTurn
}

func NewConversationContext(sessionId, styleId string) *ConversationContext {
	return &ConversationContext{
		SessionId: sessionId,
		StyleId:   styleId,
		CreatedAt: time.Now().UTC(),
	}
}

func (c *ConversationContext) TurnCount() int {
	return len(c.Turns)
}

func (c *ConversationContext) FeedbackCount() int {
	n := 0
	for _, t := range c.Turns {
		if t.Role == TurnRoleFeedback {
			n++
		}
	}
	return n
}

func (c *ConversationContext) AddTurn(turn ConversationTurn) {
	c.Turns = append(c.Turns, turn)
}

// FeedbackTexts returns the raw user input of every feedback turn, in order.
func (c *ConversationContext) FeedbackTexts() []string {
	texts := make([]string, 0, len(c.Turns))
	for _, t := range c.Turns {
		if t.Role == TurnRoleFeedback {
			texts = append(texts, t.UserInput)
		}
	}
	return texts
}

// ToContextMessages renders the history into chat-message form. Generate
// turns become a user/assistant pair, refine and feedback turns a single
// user message. Turns whose role appears in excludeRoles are skipped.
func (c *ConversationContext) ToContextMessages(excludeRoles ...TurnRole) []ContextMessage {
	excluded := make(map[TurnRole]struct{}, len(excludeRoles))
	for _, r := range excludeRoles {
		excluded[r] = struct{}{}
	}

	messages := make([]ContextMessage, 0, len(c.Turns)*2)
	for _, turn := range c.Turns {
		if _, skip := excluded[turn.Role]; skip {
			continue
		}
		switch turn.Role {
		case TurnRoleGenerate:
			imageLabels := make([]string, len(turn.ImagePaths))
			for i := range turn.ImagePaths {
				imageLabels[i] = fmt.Sprintf("Image %d", i+1)
			}
			messages = append(messages, ContextMessage{
				Role:    "user",
				Content: fmt.Sprintf("[Generation Request] %s", turn.UserInput),
			})
			messages = append(messages, ContextMessage{
				Role: "assistant",
				Content: fmt.Sprintf(
					"[Compiled Prompt]\nRefined intent: %s\nNegative constraints: %s\nGenerated images: %s",
					turn.RefinedIntent,
					strings.Join(turn.NegativeConstraints, ", "),
					strings.Join(imageLabels, ", "),
				),
			})
		case TurnRoleRefine:
			messages = append(messages, ContextMessage{
				Role:    "user",
				Content: fmt.Sprintf("[Refinement Request] %s", turn.UserInput),
			})
		case TurnRoleFeedback:
			messages = append(messages, ContextMessage{
				Role:    "user",
				Content: fmt.Sprintf("[Feedback] %s", turn.UserInput),
			})
		}
	}
	return messages
}
