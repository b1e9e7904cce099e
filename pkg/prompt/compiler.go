package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/clairexuu/SWAG-Golf/internal/entity"
	"github.com/clairexuu/SWAG-Golf/pkg/llm"
)

const compilerSystemPrompt = `You are a prompt compiler for a concept-sketch generation system used by apparel designers.

Given the designer's free-form input and the selected style's rules, produce a JSON object with these fields:
- "refinedIntent": one clear, self-contained sentence describing exactly what to draw. Resolve references to earlier conversation turns.
- "negativeConstraints": array of things the designer does not want (empty array if none).
- "placement": where the design sits on the garment, if stated.
- "subjectMatter": the main subject in a few words.
- "mood": emotional tone of the design, if inferable.
- "technique": drawing technique hints consistent with the style rules.
- "fidelity": "rough", "clean", or similar, if inferable.
- "compositionNotes": framing and cropping guidance, if any.
- "colorGuidance": leave empty unless the designer explicitly mentions tones; output is always grayscale.

Omit fields you cannot infer rather than inventing content. Output ONLY the JSON object.`

// compileResult is the JSON shape the model is instructed to return.
type compileResult struct {
	RefinedIntent       string   `json:"refinedIntent"`
	NegativeConstraints []string `json:"negativeConstraints"`
	Placement           string   `json:"placement"`
	SubjectMatter       string   `json:"subjectMatter"`
	Mood                string   `json:"mood"`
	Technique           string   `json:"technique"`
	Fidelity            string   `json:"fidelity"`
	CompositionNotes    string   `json:"compositionNotes"`
	ColorGuidance       string   `json:"colorGuidance"`
}

// Compiler turns raw designer language plus style context into a structured
// PromptSpec via an LLM call.
type Compiler struct {
	provider llm.LLMProvider
	logger   *log.Logger
}

func NewCompiler(provider llm.LLMProvider, logger *log.Logger) *Compiler {
	if logger == nil {
		logger = log.Default()
	}
	return &Compiler{provider: provider, logger: logger}
}

// Compile interprets userText against the style's rules and accumulated
// feedback. history carries prior conversation turns already rendered as
// chat messages; it sits between the system prompt and the new request.
func (c *Compiler) Compile(ctx context.Context, userText string, style *entity.Style, history []llm.Message) (entity.PromptSpec, error) {
	styleContext := map[string]interface{}{
		"styleId": style.Id,
		"visualRules": map[string]interface{}{
			"lineWeight":      style.VisualRules.LineWeight,
			"looseness":       style.VisualRules.Looseness,
			"complexity":      style.VisualRules.Complexity,
			"additionalRules": style.VisualRules.AdditionalRules,
		},
	}
	if style.FeedbackSummary != "" {
		styleContext["feedbackSummary"] = style.FeedbackSummary
	}

	contextJSON, err := json.MarshalIndent(styleContext, "", "  ")
	if err != nil {
		return entity.PromptSpec{}, fmt.Errorf("marshal style context: %w", err)
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: compilerSystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: fmt.Sprintf("Designer Input: %q\nStyle Context: %s", userText, contextJSON),
	})

	raw, err := c.provider.Chat(ctx, messages,
		llm.WithTemperature(0.7),
		llm.WithJSONResponse(),
	)
	if err != nil {
		return entity.PromptSpec{}, fmt.Errorf("prompt compilation failed: %w", err)
	}

	var result compileResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return entity.PromptSpec{}, fmt.Errorf("prompt compiler returned invalid JSON: %w", err)
	}

	refined := result.RefinedIntent
	if refined == "" {
		c.logger.Printf("[WARN] Compiler returned no refined intent, falling back to raw input")
		refined = userText
	}
	negatives := result.NegativeConstraints
	if negatives == nil {
		negatives = []string{}
	}

	return entity.PromptSpec{
		Intent:        userText,
		RefinedIntent: refined,
		StyleId:       style.Id,
		VisualConstraints: map[string]interface{}{
			"lineWeight":      style.VisualRules.LineWeight,
			"looseness":       style.VisualRules.Looseness,
			"complexity":      style.VisualRules.Complexity,
			"additionalRules": style.VisualRules.AdditionalRules,
		},
		NegativeConstraints: negatives,
		Placement:           result.Placement,
		SubjectMatter:       result.SubjectMatter,
		Mood:                result.Mood,
		Technique:           result.Technique,
		Fidelity:            result.Fidelity,
		CompositionNotes:    result.CompositionNotes,
		ColorGuidance:       result.ColorGuidance,
	}, nil
}
