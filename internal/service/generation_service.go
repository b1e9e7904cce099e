package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clairexuu/SWAG-Golf/internal/config"
	"github.com/clairexuu/SWAG-Golf/internal/dto"
	"github.com/clairexuu/SWAG-Golf/internal/entity"
	"github.com/clairexuu/SWAG-Golf/internal/pkg/logger"
	"github.com/clairexuu/SWAG-Golf/internal/repository/contract"
	"github.com/clairexuu/SWAG-Golf/internal/repository/memory"
	"github.com/clairexuu/SWAG-Golf/pkg/embedding"
	"github.com/clairexuu/SWAG-Golf/pkg/events"
	"github.com/clairexuu/SWAG-Golf/pkg/imagegen"
	"github.com/clairexuu/SWAG-Golf/pkg/llm"
	"github.com/clairexuu/SWAG-Golf/pkg/prompt"
	"github.com/clairexuu/SWAG-Golf/pkg/rag"
	"github.com/clairexuu/SWAG-Golf/pkg/rag/index"
	"github.com/clairexuu/SWAG-Golf/pkg/rag/search"

	"golang.org/x/time/rate"
)

const (
	defaultNumImages       = 4
	generationTopK         = 3
	maxGenerationsPerStyle = 100
	timestampLayout        = "20060102_150405"
)

// ImageClient is the slice of the image model client the pipeline depends
// on. Narrowed to an interface so tests can run the fan-out without the API.
type ImageClient interface {
	Generate(ctx context.Context, prompt string, referencePaths []string, aspectRatio string, temperature float32) ([]byte, error)
	Refine(ctx context.Context, prompt string, sourcePath string, aspectRatio string, temperature float32) ([]byte, error)
}

// StreamEmitter writes one server-sent event frame. An error means the
// client is gone and the stream should stop.
type StreamEmitter func(event string, data interface{}) error

// ImageNotFoundError reports a selected image URL that resolves outside the
// output root or has no file behind it. It maps to a client error.
type ImageNotFoundError struct {
	Path string
}

func (e *ImageNotFoundError) Error() string {
	return fmt.Sprintf("image not found: %s", e.Path)
}

type IGenerationService interface {
	Generate(ctx context.Context, req *dto.GenerateRequest) (*dto.GenerateData, error)
	GenerateStream(ctx context.Context, req *dto.GenerateRequest, emit StreamEmitter) error
	Refine(ctx context.Context, req *dto.RefineRequest) (*dto.GenerateData, error)
	RefineStream(ctx context.Context, req *dto.RefineRequest, emit StreamEmitter) error
}

type generationService struct {
	styleRepo   contract.StyleRepository
	historyRepo contract.HistoryRepository
	sessionRepo *memory.SessionRepository

	compiler  *prompt.Compiler
	retriever *search.Orchestrator
	client    ImageClient
	worker    *generationWorker

	convLogger     *logger.ConversationLogger
	eventPublisher events.Sink
	logger         logger.ILogger

	outputRoot       string
	modelName        string
	aspectRatio      string
	resolution       [2]int
	enforceGrayscale bool
}

func NewGenerationService(
	cfg *config.Config,
	styleRepo contract.StyleRepository,
	historyRepo contract.HistoryRepository,
	sessionRepo *memory.SessionRepository,
	indexes *index.Registry,
	llmProvider llm.LLMProvider,
	embedder embedding.Provider,
	client ImageClient,
	eventPublisher events.Sink,
	sysLogger logger.ILogger,
) IGenerationService {
	pipelineLogger := initPipelineLogger()

	perMinute := cfg.Generation.RatePerMinute
	var limiter *rate.Limiter
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}

	return &generationService{
		styleRepo:   styleRepo,
		historyRepo: historyRepo,
		sessionRepo: sessionRepo,

		compiler:  prompt.NewCompiler(llmProvider, pipelineLogger),
		retriever: search.NewOrchestrator(indexes, embedder, pipelineLogger),
		client:    client,
		worker:    newGenerationWorker(limiter, sysLogger),

		convLogger:     logger.NewConversationLogger(cfg.App.ConversationLog),
		eventPublisher: eventPublisher,
		logger:         sysLogger,

		outputRoot:       cfg.Paths.OutputDir,
		modelName:        cfg.Generation.ModelName,
		aspectRatio:      cfg.Generation.AspectRatio,
		resolution:       [2]int{cfg.Generation.ResolutionWidth, cfg.Generation.ResolutionHeight},
		enforceGrayscale: cfg.Generation.EnforceGrayscale,
	}
}

func initPipelineLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_pipeline.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[PIPELINE] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

func (s *generationService) Generate(ctx context.Context, req *dto.GenerateRequest) (*dto.GenerateData, error) {
	return s.generate(ctx, req, nil)
}

// GenerateStream is Generate with per-stage progress frames and one image
// frame per completed slot, in completion order.
func (s *generationService) GenerateStream(ctx context.Context, req *dto.GenerateRequest, emit StreamEmitter) error {
	_, err := s.generate(ctx, req, emit)
	return err
}

func (s *generationService) generate(ctx context.Context, req *dto.GenerateRequest, emit StreamEmitter) (*dto.GenerateData, error) {
	// 1. Load style
	style, err := s.styleRepo.GetStyle(ctx, req.StyleId)
	if err != nil {
		return nil, err
	}

	key := entity.SessionKey{SessionId: req.SessionId, StyleId: req.StyleId}
	hasSession := req.SessionId != ""

	// 2. Conversation history. Refine turns are excluded: they belong to a
	// previous batch's editing cycle, not to new concept generation.
	var history []llm.Message
	if hasSession {
		history = s.conversationHistory(key, entity.TurnRoleRefine)
	}

	// 3. Compile prompt
	spec, err := s.compiler.Compile(ctx, req.Input, style, history)
	if err != nil {
		return nil, err
	}
	if emit != nil {
		if err := emit("progress", dto.StreamPromptCompiled{
			Stage:         "prompt_compiled",
			RefinedIntent: spec.RefinedIntent,
		}); err != nil {
			return nil, err
		}
	}

	// 4. Retrieve reference images
	retrievalConfig := search.DefaultConfig()
	retrievalConfig.TopK = generationTopK
	retrieval, err := s.retriever.Execute(ctx, spec, style, retrievalConfig)
	if err != nil {
		return nil, err
	}
	if emit != nil {
		if err := emit("progress", dto.StreamRagComplete{
			Stage:          "rag_complete",
			ReferenceCount: len(retrieval.Images),
		}); err != nil {
			return nil, err
		}
	}

	// 5. Generate
	numImages := req.NumImages
	if numImages == 0 {
		numImages = defaultNumImages
	}
	genConfig := s.newGenerationConfig(numImages)
	if err := imagegen.ValidateConfig(genConfig); err != nil {
		return nil, err
	}

	// The timestamp names the batch directory and every reference to the
	// batch from here on. One clock read, so they can never disagree.
	timestamp := time.Now().Format(timestampLayout)
	outputDir, err := s.createOutputDir(timestamp)
	if err != nil {
		return nil, err
	}

	referencePaths := retrieval.ImagePaths()
	formattedPrompt := imagegen.FormatPrompt(spec)
	invoke := func(ctx context.Context, index int) ([]byte, error) {
		return s.client.Generate(ctx, formattedPrompt, referencePaths, genConfig.AspectRatio, generationTemperature)
	}

	sketchMeta := dto.SketchMetadata{
		PromptSpec: dto.PromptSpecInfo{
			Intent:              spec.Intent,
			RefinedIntent:       spec.RefinedIntent,
			NegativeConstraints: orEmpty(spec.NegativeConstraints),
		},
		ReferenceImages: referencePaths,
		RetrievalScores: retrieval.Scores,
	}

	images, imageErrors, err := s.worker.runBatch(ctx, genConfig, outputDir, invoke, s.streamSink(emit, "stream", genConfig.Resolution, sketchMeta))
	if err != nil {
		return nil, err
	}

	// 6. Persist metadata. Skipped when every slot failed: there is no
	// output directory content worth indexing.
	if _, err := s.saveGenerateMetadata(ctx, timestamp, style, spec, retrieval, genConfig, images, imageErrors); err != nil {
		return nil, err
	}

	// 7. Record the turn
	if hasSession {
		s.recordTurn(key, entity.ConversationTurn{
			Role:                entity.TurnRoleGenerate,
			Timestamp:           timestamp,
			UserInput:           req.Input,
			StyleId:             req.StyleId,
			RefinedIntent:       spec.RefinedIntent,
			NegativeConstraints: spec.NegativeConstraints,
			ImagePaths:          images,
		})
	}

	s.pruneStyle(ctx, style.Id)

	successCount := countSuccesses(images)
	s.publishCompleted(ctx, style.Id, timestamp, "generate", genConfig.NumImages, successCount)

	if emit != nil {
		if err := emit("complete", dto.StreamComplete{
			Timestamp:    timestamp,
			TotalImages:  genConfig.NumImages,
			SuccessCount: successCount,
			StyleId:      style.Id,
		}); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return s.buildGenerateData(timestamp, style.Id, genConfig, images, imageErrors, sketchMeta), nil
}

func (s *generationService) Refine(ctx context.Context, req *dto.RefineRequest) (*dto.GenerateData, error) {
	return s.refine(ctx, req, nil)
}

func (s *generationService) RefineStream(ctx context.Context, req *dto.RefineRequest, emit StreamEmitter) error {
	_, err := s.refine(ctx, req, emit)
	return err
}

func (s *generationService) refine(ctx context.Context, req *dto.RefineRequest, emit StreamEmitter) (*dto.GenerateData, error) {
	// 1. Resolve the selected images before touching anything else
	sourcePaths := make([]string, 0, len(req.SelectedImagePaths))
	for _, relativeURL := range req.SelectedImagePaths {
		resolved, err := s.resolveImagePath(relativeURL)
		if err != nil {
			return nil, err
		}
		sourcePaths = append(sourcePaths, resolved)
	}

	// 2. Load style
	style, err := s.styleRepo.GetStyle(ctx, req.StyleId)
	if err != nil {
		return nil, err
	}

	key := entity.SessionKey{SessionId: req.SessionId, StyleId: req.StyleId}
	hasSession := req.SessionId != ""

	// 3. Pull the originating intent and this cycle's refine history
	var originalContext string
	var refineHistory []string
	if hasSession {
		originalContext, refineHistory = s.refineContext(key)
	}

	// 4. Refine 1:1. Batch size follows the selection, so the 3..6 batch
	// rule does not apply here; the request layer bounds it to 1..6.
	genConfig := s.newGenerationConfig(len(sourcePaths))

	timestamp := time.Now().Format(timestampLayout)
	outputDir, err := s.createOutputDir(timestamp)
	if err != nil {
		return nil, err
	}

	refinePrompt := imagegen.BuildRefinePrompt(req.RefinePrompt, originalContext, refineHistory)
	invoke := func(ctx context.Context, index int) ([]byte, error) {
		return s.client.Refine(ctx, refinePrompt, sourcePaths[index], genConfig.AspectRatio, generationTemperature)
	}

	sketchMeta := dto.SketchMetadata{
		PromptSpec: dto.PromptSpecInfo{
			Intent:              req.RefinePrompt,
			RefinedIntent:       originalContext,
			NegativeConstraints: []string{},
		},
		ReferenceImages: sourcePaths,
		RetrievalScores: []float64{},
	}

	images, imageErrors, err := s.worker.runBatch(ctx, genConfig, outputDir, invoke, s.streamSink(emit, "refine", genConfig.Resolution, sketchMeta))
	if err != nil {
		return nil, err
	}

	// 5. Persist metadata
	if _, err := s.saveRefineMetadata(ctx, timestamp, style, req.RefinePrompt, originalContext, refineHistory, sourcePaths, genConfig, images, imageErrors); err != nil {
		return nil, err
	}

	// 6. Record the turn. RefinedIntent carries the originating generate
	// turn's intent so later refines in this cycle can find it.
	if hasSession {
		s.recordTurn(key, entity.ConversationTurn{
			Role:          entity.TurnRoleRefine,
			Timestamp:     timestamp,
			UserInput:     req.RefinePrompt,
			StyleId:       req.StyleId,
			RefinedIntent: originalContext,
			ImagePaths:    images,
		})
	}

	s.pruneStyle(ctx, style.Id)

	successCount := countSuccesses(images)
	s.publishCompleted(ctx, style.Id, timestamp, "refine", genConfig.NumImages, successCount)

	if emit != nil {
		if err := emit("complete", dto.StreamComplete{
			Timestamp:    timestamp,
			TotalImages:  genConfig.NumImages,
			SuccessCount: successCount,
			StyleId:      style.Id,
		}); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return s.buildGenerateData(timestamp, style.Id, genConfig, images, imageErrors, sketchMeta), nil
}

func (s *generationService) newGenerationConfig(numImages int) entity.GenerationConfig {
	return entity.GenerationConfig{
		NumImages:        numImages,
		Resolution:       s.resolution,
		OutputDir:        s.outputRoot,
		ModelName:        s.modelName,
		AspectRatio:      s.aspectRatio,
		EnforceGrayscale: s.enforceGrayscale,
	}
}

// createOutputDir makes the timestamped batch directory under the output
// root. Workers write their slots straight into it.
func (s *generationService) createOutputDir(timestamp string) (string, error) {
	dir := filepath.Join(s.outputRoot, timestamp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return dir, nil
}

// streamSink adapts worker events to SSE frames. Returns nil when emit is
// nil so non-streaming callers skip event forwarding entirely.
func (s *generationService) streamSink(emit StreamEmitter, idPrefix string, resolution [2]int, meta dto.SketchMetadata) func(workerEvent) error {
	if emit == nil {
		return nil
	}
	return func(ev workerEvent) error {
		switch {
		case ev.Retry != nil:
			return emit("progress", dto.StreamRetry{
				Stage:      "retry",
				Index:      ev.Retry.Index,
				Attempt:    ev.Retry.Attempt,
				MaxRetries: ev.Retry.MaxRetries,
			})
		case ev.Outcome != nil:
			outcome := ev.Outcome
			if outcome.ImagePath != nil {
				publicPath := s.publicImagePath(*outcome.ImagePath)
				return emit("image", dto.StreamImage{
					Index: outcome.Index,
					Sketch: &dto.Sketch{
						Id:         fmt.Sprintf("%s_%d", idPrefix, outcome.Index),
						Resolution: resolution,
						Metadata:   meta,
						ImagePath:  &publicPath,
					},
				})
			}
			errMsg := "Unknown error"
			if outcome.Error != nil {
				errMsg = *outcome.Error
			}
			return emit("image", dto.StreamImage{Index: outcome.Index, Error: errMsg})
		}
		return nil
	}
}

func (s *generationService) saveGenerateMetadata(
	ctx context.Context,
	timestamp string,
	style *entity.Style,
	spec entity.PromptSpec,
	retrieval *rag.RetrievalResult,
	genConfig entity.GenerationConfig,
	images, imageErrors []*string,
) (string, error) {
	successPaths := compactPaths(images)
	if len(successPaths) == 0 {
		return "", nil
	}
	meta := &entity.GenerationMetadata{
		Timestamp:       timestamp,
		UserPrompt:      spec.Intent,
		CompiledPrompt:  spec.RefinedIntent,
		Style:           entity.StyleRef{Id: style.Id, Name: style.Name},
		PromptSpec:      &spec,
		ReferenceImages: retrieval.ImagePaths(),
		RetrievalScores: retrieval.Scores,
		Config:          genConfig,
		Images:          baseNames(successPaths),
		ImageErrors:     compactStrings(imageErrors),
	}
	return s.historyRepo.SaveMetadata(ctx, filepath.Dir(successPaths[0]), meta)
}

func (s *generationService) saveRefineMetadata(
	ctx context.Context,
	timestamp string,
	style *entity.Style,
	refinePrompt, originalContext string,
	refineHistory, sourcePaths []string,
	genConfig entity.GenerationConfig,
	images, imageErrors []*string,
) (string, error) {
	successPaths := compactPaths(images)
	if len(successPaths) == 0 {
		return "", nil
	}
	meta := &entity.GenerationMetadata{
		Timestamp:       timestamp,
		Mode:            "refine",
		RefinePrompt:    refinePrompt,
		OriginalContext: originalContext,
		RefineHistory:   refineHistory,
		SourceImages:    sourcePaths,
		Style:           entity.StyleRef{Id: style.Id, Name: style.Name},
		Config:          genConfig,
		Images:          baseNames(successPaths),
		ImageErrors:     compactStrings(imageErrors),
	}
	return s.historyRepo.SaveMetadata(ctx, filepath.Dir(successPaths[0]), meta)
}

func (s *generationService) buildGenerateData(
	timestamp, styleId string,
	genConfig entity.GenerationConfig,
	images, imageErrors []*string,
	meta dto.SketchMetadata,
) *dto.GenerateData {
	sketches := make([]dto.Sketch, 0, len(images))
	for i, imagePath := range images {
		sketch := dto.Sketch{
			Id:         fmt.Sprintf("%s_sketch_%d", timestamp, i),
			Resolution: genConfig.Resolution,
			Metadata:   meta,
		}
		if imagePath != nil {
			publicPath := s.publicImagePath(*imagePath)
			sketch.ImagePath = &publicPath
		} else if imageErrors[i] != nil {
			sketch.Error = *imageErrors[i]
		} else {
			sketch.Error = "Unknown error"
		}
		sketches = append(sketches, sketch)
	}

	return &dto.GenerateData{
		Timestamp: timestamp,
		Sketches:  sketches,
		GenerationMetadata: dto.GenerationMetadataInfo{
			StyleId: styleId,
			ConfigUsed: dto.ConfigUsed{
				NumImages:  genConfig.NumImages,
				Resolution: genConfig.Resolution,
				OutputDir:  genConfig.OutputDir,
				ModelName:  genConfig.ModelName,
				Seed:       genConfig.Seed,
			},
		},
	}
}

// conversationHistory snapshots the session's prior turns as chat messages.
// Nil when the session is fresh so the compiler sees no context block.
func (s *generationService) conversationHistory(key entity.SessionKey, exclude ...entity.TurnRole) []llm.Message {
	unlock := s.sessionRepo.Lock(key)
	defer unlock()

	conv := s.sessionRepo.GetOrCreate(key)
	if conv.TurnCount() == 0 {
		return nil
	}
	contextMessages := conv.ToContextMessages(exclude...)
	messages := make([]llm.Message, len(contextMessages))
	for i, m := range contextMessages {
		messages[i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	return messages
}

// refineContext walks the session history backwards twice: once past any
// interleaved turns for the last generate turn that recorded a refined
// intent, and once for the refine prompts issued since the last generate
// turn, oldest first.
func (s *generationService) refineContext(key entity.SessionKey) (string, []string) {
	unlock := s.sessionRepo.Lock(key)
	defer unlock()

	conv := s.sessionRepo.GetOrCreate(key)

	var originalContext string
	for i := len(conv.Turns) - 1; i >= 0; i-- {
		turn := conv.Turns[i]
		if turn.Role == entity.TurnRoleGenerate && turn.RefinedIntent != "" {
			originalContext = turn.RefinedIntent
			break
		}
	}

	lastGenerate := -1
	for i := len(conv.Turns) - 1; i >= 0; i-- {
		if conv.Turns[i].Role == entity.TurnRoleGenerate {
			lastGenerate = i
			break
		}
	}
	var refineHistory []string
	for _, turn := range conv.Turns[lastGenerate+1:] {
		if turn.Role == entity.TurnRoleRefine {
			refineHistory = append(refineHistory, turn.UserInput)
		}
	}

	return originalContext, refineHistory
}

func (s *generationService) recordTurn(key entity.SessionKey, turn entity.ConversationTurn) {
	unlock := s.sessionRepo.Lock(key)
	conv := s.sessionRepo.GetOrCreate(key)
	turn.TurnNumber = conv.TurnCount() + 1
	conv.AddTurn(turn)
	unlock()

	s.convLogger.LogTurn(key.SessionId, key.StyleId, turn.ToMap())
}

// pruneStyle trims the style's generation directories to the retention cap.
// Failures are logged, never surfaced: pruning is housekeeping, not part of
// the request.
func (s *generationService) pruneStyle(ctx context.Context, styleId string) {
	removed, err := s.historyRepo.Prune(ctx, styleId, maxGenerationsPerStyle)
	if err != nil {
		s.logger.Warn("generation", "prune failed", map[string]interface{}{
			"styleId": styleId,
			"error":   err.Error(),
		})
		return
	}
	if removed > 0 {
		s.logger.Info("generation", "pruned old generations", map[string]interface{}{
			"styleId": styleId,
			"removed": removed,
		})
	}
}

func (s *generationService) publishCompleted(ctx context.Context, styleId, timestamp, mode string, totalImages, successCount int) {
	if s.eventPublisher == nil {
		return
	}
	event := events.NewGenerationCompleted(styleId, timestamp, mode, totalImages, successCount)
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("generation", "failed to publish completion event", map[string]interface{}{
			"styleId": styleId,
			"error":   err.Error(),
		})
	}
}

// resolveImagePath maps a "/generated/..." URL back to a file under the
// output root. Unknown or escaping paths are a client error, not a pipeline
// failure.
func (s *generationService) resolveImagePath(relativeURL string) (string, error) {
	rel := strings.TrimPrefix(relativeURL, "/generated/")
	root := filepath.Clean(s.outputRoot)
	path := filepath.Join(root, filepath.FromSlash(rel))
	if path == root || !strings.HasPrefix(path, root+string(os.PathSeparator)) {
		return "", &ImageNotFoundError{Path: relativeURL}
	}
	if _, err := os.Stat(path); err != nil {
		return "", &ImageNotFoundError{Path: relativeURL}
	}
	return path, nil
}

// publicImagePath converts an on-disk sketch path to the URL the static
// mount serves it under.
func (s *generationService) publicImagePath(path string) string {
	rel, err := filepath.Rel(s.outputRoot, path)
	if err != nil {
		return "/generated/" + filepath.Base(path)
	}
	return "/generated/" + filepath.ToSlash(rel)
}

func countSuccesses(images []*string) int {
	n := 0
	for _, p := range images {
		if p != nil {
			n++
		}
	}
	return n
}

func compactPaths(images []*string) []string {
	paths := make([]string, 0, len(images))
	for _, p := range images {
		if p != nil {
			paths = append(paths, *p)
		}
	}
	return paths
}

func compactStrings(errs []*string) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			out = append(out, *e)
		}
	}
	return out
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
