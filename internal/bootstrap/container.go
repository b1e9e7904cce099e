package bootstrap

import (
	"context"
	"log"

	"github.com/clairexuu/SWAG-Golf/internal/config"
	"github.com/clairexuu/SWAG-Golf/internal/controller"
	"github.com/clairexuu/SWAG-Golf/internal/pkg/logger"
	"github.com/clairexuu/SWAG-Golf/internal/repository/filestore"
	"github.com/clairexuu/SWAG-Golf/internal/repository/memory"
	"github.com/clairexuu/SWAG-Golf/internal/service"
	"github.com/clairexuu/SWAG-Golf/internal/websocket"
	"github.com/clairexuu/SWAG-Golf/pkg/embedding"
	"github.com/clairexuu/SWAG-Golf/pkg/events"
	"github.com/clairexuu/SWAG-Golf/pkg/imagegen"
	"github.com/clairexuu/SWAG-Golf/pkg/llm/factory"
	pktNats "github.com/clairexuu/SWAG-Golf/pkg/nats"
	"github.com/clairexuu/SWAG-Golf/pkg/rag/index"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	// Controllers
	GenerationController controller.IGenerationController
	StyleController      controller.IStyleController
	FeedbackController   controller.IFeedbackController
	HistoryController    controller.IHistoryController
	HealthController     controller.IHealthController
	EventsController     controller.IEventsController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	WebSocketHub *websocket.Hub
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Repositories
	styleRepo := filestore.NewStyleRepository(cfg.Paths.StyleLibraryDir, cfg.Paths.ReferenceImagesDir)
	historyRepo := filestore.NewHistoryRepository(cfg.Paths.OutputDir)

	// In-Memory Session Storage
	sessionRepo := memory.NewSessionRepository()

	// 4. Model Providers
	embedder := embedding.NewCLIPProvider(cfg.Embedding.BaseURL, cfg.Embedding.ModelID, cfg.Embedding.Dim)
	indexes := index.NewRegistry(embedder, cfg.Paths.RagCacheDir, nil)

	llmProvider, err := factory.NewLLMProvider(
		cfg.LLM.Provider,
		cfg.LLM.Model,
		cfg.LLM.APIKey,
		cfg.LLM.BaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.LLM.Provider, cfg.LLM.Model)

	imageClient, err := imagegen.NewGeminiClient(
		context.Background(),
		cfg.Generation.GeminiAPIKey,
		cfg.Generation.ModelName,
		nil,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize image client: %v", err)
	}

	// 5. Infrastructure
	// NATS is optional: without a URL the lifecycle feed stays in-process.
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
			natsPub = nil
		}
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/events.log")
	wsHub := websocket.NewHub(wsLogger)
	go wsHub.Run()

	sinks := []events.Sink{wsHub}
	if natsPub != nil {
		sinks = append(sinks, natsPub)
	}
	eventSink := events.NewFanout(sinks...)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.App.RebuildTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.RebuildTopic,
		styleRepo,
		indexes,
	)

	styleService := service.NewStyleService(styleRepo, publisherService, eventSink, sysLogger)
	generationService := service.NewGenerationService(
		cfg,
		styleRepo,
		historyRepo,
		sessionRepo,
		indexes,
		llmProvider,
		embedder,
		imageClient,
		eventSink,
		sysLogger,
	)
	feedbackService := service.NewFeedbackService(
		cfg,
		styleRepo,
		sessionRepo,
		llmProvider,
		eventSink,
		sysLogger,
	)
	historyService := service.NewHistoryService(historyRepo)

	// 7. Controllers
	return &Container{
		GenerationController: controller.NewGenerationController(generationService),
		StyleController:      controller.NewStyleController(styleService),
		FeedbackController:   controller.NewFeedbackController(feedbackService),
		HistoryController:    controller.NewHistoryController(historyService),
		HealthController:     controller.NewHealthController(cfg),
		EventsController:     controller.NewEventsController(wsHub),

		ConsumerService: consumerService,
		WebSocketHub:    wsHub,
	}
}
