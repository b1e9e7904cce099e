// Exercises the prompt compiler and feedback summarizer against a real
// OpenAI-compatible endpoint. Skipped unless OPENAI_API_KEY is set.

package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/clairexuu/SWAG-Golf/internal/entity"
	"github.com/clairexuu/SWAG-Golf/pkg/llm/factory"
	"github.com/clairexuu/SWAG-Golf/pkg/prompt"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptSpecFor(styleId, refinedIntent string) entity.PromptSpec {
	return entity.PromptSpec{
		Intent:        refinedIntent,
		RefinedIntent: refinedIntent,
		StyleId:       styleId,
	}
}

func openAIKey(t *testing.T) string {
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}
	return key
}

func testStyle() *entity.Style {
	return &entity.Style{
		Id:          "bold_marker",
		Name:        "Bold Marker",
		Description: "Thick confident marker strokes, minimal detail",
		VisualRules: entity.VisualRules{
			LineWeight: "thick",
			Looseness:  "loose",
			Complexity: "low",
		},
	}
}

func TestCompileAgainstRealLLM(t *testing.T) {
	key := openAIKey(t)

	provider, err := factory.NewLLMProvider("openai", "gpt-4o-mini", key, "")
	require.NoError(t, err)

	compiler := prompt.NewCompiler(provider, nil)
	spec, err := compiler.Compile(context.Background(), "a golf club headcover shaped like a bulldog", testStyle(), nil)
	require.NoError(t, err)

	assert.Equal(t, "a golf club headcover shaped like a bulldog", spec.Intent)
	assert.NotEmpty(t, spec.RefinedIntent, "model should produce a refined intent")
	assert.Equal(t, "bold_marker", spec.StyleId)
}

func TestSummarizeAgainstRealLLM(t *testing.T) {
	key := openAIKey(t)

	provider, err := factory.NewLLMProvider("openai", "gpt-4o-mini", key, "")
	require.NoError(t, err)

	summarizer := prompt.NewSummarizer(provider)
	summary, err := summarizer.Summarize(context.Background(), "Bold Marker", "", []string{
		"lines are too thin, go heavier",
		"avoid any text in the image",
		"the second sketch was the right energy",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, summary)
}
