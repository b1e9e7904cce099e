package entity

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestToContextMessages(t *testing.T) {
	ctx := NewConversationContext("s1", "bold")
	ctx.AddTurn(ConversationTurn{
		TurnNumber:          1,
		Role:                TurnRoleGenerate,
		UserInput:           "angry beaver mascot",
		StyleId:             "bold",
		RefinedIntent:       "snarling cartoon beaver",
		NegativeConstraints: []string{"color", "gradients"},
		ImagePaths:          []*string{strPtr("a.png"), nil, strPtr("c.png")},
	})
	ctx.AddTurn(ConversationTurn{
		TurnNumber: 2,
		Role:       TurnRoleFeedback,
		UserInput:  "less fur detail",
		StyleId:    "bold",
	})
	ctx.AddTurn(ConversationTurn{
		TurnNumber: 3,
		Role:       TurnRoleRefine,
		UserInput:  "thicker outline",
		StyleId:    "bold",
	})

	messages := ctx.ToContextMessages()
	if len(messages) != 4 {
		t.Fatalf("len(messages) = %d, want 4", len(messages))
	}

	if messages[0].Role != "user" || messages[0].Content != "[Generation Request] angry beaver mascot" {
		t.Errorf("messages[0] = %+v, want generation request", messages[0])
	}
	if messages[1].Role != "assistant" {
		t.Errorf("messages[1].Role = %q, want assistant", messages[1].Role)
	}
	for _, want := range []string{"snarling cartoon beaver", "color, gradients", "Image 1, Image 2, Image 3"} {
		if !strings.Contains(messages[1].Content, want) {
			t.Errorf("messages[1].Content missing %q:\n%s", want, messages[1].Content)
		}
	}
	if messages[2].Content != "[Feedback] less fur detail" {
		t.Errorf("messages[2].Content = %q", messages[2].Content)
	}
	if messages[3].Content != "[Refinement Request] thicker outline" {
		t.Errorf("messages[3].Content = %q", messages[3].Content)
	}
}

func TestToContextMessagesExcludesRoles(t *testing.T) {
	ctx := NewConversationContext("s1", "bold")
	ctx.AddTurn(ConversationTurn{TurnNumber: 1, Role: TurnRoleGenerate, UserInput: "a", RefinedIntent: "ra"})
	ctx.AddTurn(ConversationTurn{TurnNumber: 2, Role: TurnRoleRefine, UserInput: "b"})
	ctx.AddTurn(ConversationTurn{TurnNumber: 3, Role: TurnRoleFeedback, UserInput: "c"})

	messages := ctx.ToContextMessages(TurnRoleRefine)
	for _, m := range messages {
		if strings.Contains(m.Content, "[Refinement Request]") {
			t.Errorf("excluded refine turn still rendered: %q", m.Content)
		}
	}
	if len(messages) != 3 {
		t.Errorf("len(messages) = %d, want 3 (generate pair + feedback)", len(messages))
	}
}

func TestFeedbackCountAndTexts(t *testing.T) {
	ctx := NewConversationContext("s1", "bold")
	ctx.AddTurn(ConversationTurn{TurnNumber: 1, Role: TurnRoleGenerate, UserInput: "a"})
	ctx.AddTurn(ConversationTurn{TurnNumber: 2, Role: TurnRoleFeedback, UserInput: "first note"})
	ctx.AddTurn(ConversationTurn{TurnNumber: 3, Role: TurnRoleFeedback, UserInput: "second note"})

	if got := ctx.FeedbackCount(); got != 2 {
		t.Errorf("FeedbackCount() = %d, want 2", got)
	}

	texts := ctx.FeedbackTexts()
	if len(texts) != 2 || texts[0] != "first note" || texts[1] != "second note" {
		t.Errorf("FeedbackTexts() = %v, want [first note, second note]", texts)
	}
}

func TestTurnToMapGatesRoleFields(t *testing.T) {
	generate := ConversationTurn{
		TurnNumber:    1,
		Role:          TurnRoleGenerate,
		UserInput:     "a",
		RefinedIntent: "ra",
		ImagePaths:    []*string{strPtr("a.png")},
	}
	m := generate.ToMap()
	if _, ok := m["refinedIntent"]; !ok {
		t.Error("generate turn map missing refinedIntent")
	}

	feedback := ConversationTurn{TurnNumber: 2, Role: TurnRoleFeedback, UserInput: "b"}
	m = feedback.ToMap()
	if _, ok := m["refinedIntent"]; ok {
		t.Error("feedback turn map should not carry refinedIntent")
	}
}
