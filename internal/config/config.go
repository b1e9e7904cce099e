package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Paths      PathsConfig
	Generation GenerationConfig
	Embedding  EmbeddingConfig
	LLM        LLMConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	ConversationLog    string
	CorsAllowedOrigins string
	NatsURL            string
	RebuildTopic       string
	OtelEnabled        bool
}

type PathsConfig struct {
	StyleLibraryDir    string
	ReferenceImagesDir string
	OutputDir          string
	RagCacheDir        string
}

type GenerationConfig struct {
	ModelName        string
	AspectRatio      string
	ResolutionWidth  int
	ResolutionHeight int
	EnforceGrayscale bool
	RatePerMinute    int
	GeminiAPIKey     string
}

type EmbeddingConfig struct {
	BaseURL string
	ModelID string
	Dim     int
}

type LLMConfig struct {
	Provider    string // "openai", "ollama", "huggingface"
	Model       string // e.g. "gpt-4o-mini"
	APIKey      string
	BaseURL     string // only for self-hosted / router backends
	SummaryTurn int    // feedback turns before summarization
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			ConversationLog:    getEnv("CONVERSATION_LOG_PATH", "logs/conversations.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3001,http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RebuildTopic:       getEnv("EMBED_STYLE_IMAGES_TOPIC_NAME", "EMBED_STYLE_IMAGES"),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Paths: PathsConfig{
			StyleLibraryDir:    getEnv("STYLE_LIBRARY_DIR", "style_library"),
			ReferenceImagesDir: getEnv("REFERENCE_IMAGES_DIR", filepath.Join("rag", "reference_images")),
			OutputDir:          getEnv("GENERATED_OUTPUT_DIR", "generated_outputs"),
			RagCacheDir:        getEnv("RAG_CACHE_DIR", "rag_cache"),
		},
		Generation: GenerationConfig{
			ModelName:        getEnv("IMAGE_MODEL_NAME", "gemini-2.5-flash-image"),
			AspectRatio:      getEnv("IMAGE_ASPECT_RATIO", "1:1"),
			ResolutionWidth:  getEnvAsInt("IMAGE_RESOLUTION_WIDTH", 1024),
			ResolutionHeight: getEnvAsInt("IMAGE_RESOLUTION_HEIGHT", 1024),
			EnforceGrayscale: getEnvAsBool("ENFORCE_GRAYSCALE", true),
			RatePerMinute:    getEnvAsInt("IMAGE_CALLS_PER_MINUTE", 20),
			GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		},
		Embedding: EmbeddingConfig{
			BaseURL: getEnv("CLIP_SERVICE_URL", "http://localhost:8100"),
			ModelID: getEnv("CLIP_MODEL_ID", "clip-vit-base-patch32"),
			Dim:     getEnvAsInt("CLIP_EMBEDDING_DIM", 512),
		},
		LLM: LLMConfig{
			Provider:    getEnv("LLM_PROVIDER", "openai"),
			Model:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("LLM_BASE_URL", ""),
			SummaryTurn: getEnvAsInt("FEEDBACK_SUMMARY_THRESHOLD", 10),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
