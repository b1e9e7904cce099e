package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/clairexuu/SWAG-Golf/pkg/llm"
)

// Summarizer condenses accumulated designer feedback into a durable style
// directive via an LLM call.
type Summarizer struct {
	provider llm.LLMProvider
}

func NewSummarizer(provider llm.LLMProvider) *Summarizer {
	return &Summarizer{provider: provider}
}

// Summarize folds the new feedback entries, plus any previous summary, into
// one directive of at most ~200 words.
func (s *Summarizer) Summarize(ctx context.Context, styleName, existingSummary string, feedbackTexts []string) (string, error) {
	if len(feedbackTexts) == 0 {
		return "", fmt.Errorf("no feedback to summarize")
	}

	var feedbackList strings.Builder
	for i, text := range feedbackTexts {
		feedbackList.WriteString(fmt.Sprintf("%d. %s\n", i+1, text))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf(
		"You are summarizing designer feedback about generated concept sketches in the '%s' style.\n\n",
		styleName,
	))
	if existingSummary != "" {
		b.WriteString(fmt.Sprintf("Previous summary:\n%s\n\n", existingSummary))
	}
	b.WriteString(fmt.Sprintf("New feedback entries:\n%s\n", feedbackList.String()))
	b.WriteString(
		"Produce a concise summary of design directives that should guide future " +
			"image generation for this style. Incorporate the previous summary if present. " +
			"Focus on recurring stylistic preferences, specific corrections, and what to avoid. " +
			"Keep the summary under 200 words. Output only the summary text, no JSON.",
	)

	messages := []llm.Message{
		{Role: "system", Content: "You are a design feedback summarizer."},
		{Role: "user", Content: b.String()},
	}

	summary, err := s.provider.Chat(ctx, messages, llm.WithTemperature(0.3))
	if err != nil {
		return "", fmt.Errorf("feedback summarization failed: %w", err)
	}

	return strings.TrimSpace(summary), nil
}
