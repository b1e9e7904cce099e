package factory

import (
	"fmt"

	"github.com/clairexuu/SWAG-Golf/pkg/llm"
	"github.com/clairexuu/SWAG-Golf/pkg/llm/huggingface"
	"github.com/clairexuu/SWAG-Golf/pkg/llm/ollama"
	"github.com/clairexuu/SWAG-Golf/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, apiKey, baseURL string) (llm.LLMProvider, error) {
	switch providerType {
	case "openai":
		return openai.NewOpenAIProvider(apiKey, modelName)
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
