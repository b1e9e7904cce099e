package service

import (
	"context"
	"time"

	"github.com/clairexuu/SWAG-Golf/internal/config"
	"github.com/clairexuu/SWAG-Golf/internal/dto"
	"github.com/clairexuu/SWAG-Golf/internal/entity"
	"github.com/clairexuu/SWAG-Golf/internal/pkg/logger"
	"github.com/clairexuu/SWAG-Golf/internal/repository/contract"
	"github.com/clairexuu/SWAG-Golf/internal/repository/memory"
	"github.com/clairexuu/SWAG-Golf/pkg/events"
	"github.com/clairexuu/SWAG-Golf/pkg/llm"
	"github.com/clairexuu/SWAG-Golf/pkg/prompt"
)

const defaultSummaryThreshold = 10

type IFeedbackService interface {
	AddFeedback(ctx context.Context, req *dto.FeedbackRequest) (*dto.FeedbackResponse, error)
	SummarizeFeedback(ctx context.Context, sessionId, styleId string) (string, error)
}

type feedbackService struct {
	styleRepo   contract.StyleRepository
	sessionRepo *memory.SessionRepository
	summarizer  *prompt.Summarizer

	convLogger     *logger.ConversationLogger
	eventPublisher events.Sink
	logger         logger.ILogger

	threshold int
}

func NewFeedbackService(
	cfg *config.Config,
	styleRepo contract.StyleRepository,
	sessionRepo *memory.SessionRepository,
	llmProvider llm.LLMProvider,
	eventPublisher events.Sink,
	sysLogger logger.ILogger,
) IFeedbackService {
	threshold := cfg.LLM.SummaryTurn
	if threshold <= 0 {
		threshold = defaultSummaryThreshold
	}
	return &feedbackService{
		styleRepo:      styleRepo,
		sessionRepo:    sessionRepo,
		summarizer:     prompt.NewSummarizer(llmProvider),
		convLogger:     logger.NewConversationLogger(cfg.App.ConversationLog),
		eventPublisher: eventPublisher,
		logger:         sysLogger,
		threshold:      threshold,
	}
}

// AddFeedback appends a feedback turn to the session. Crossing the
// accumulation threshold triggers summarization inline, so the caller
// learns whether the session was folded from the response.
func (s *feedbackService) AddFeedback(ctx context.Context, req *dto.FeedbackRequest) (*dto.FeedbackResponse, error) {
	key := entity.SessionKey{SessionId: req.SessionId, StyleId: req.StyleId}

	unlock := s.sessionRepo.Lock(key)
	conv := s.sessionRepo.GetOrCreate(key)
	turn := entity.ConversationTurn{
		TurnNumber: conv.TurnCount() + 1,
		Role:       entity.TurnRoleFeedback,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		UserInput:  req.Feedback,
		StyleId:    req.StyleId,
	}
	conv.AddTurn(turn)
	feedbackCount := conv.FeedbackCount()
	unlock()

	s.convLogger.LogTurn(req.SessionId, req.StyleId, turn.ToMap())

	summarized := false
	if feedbackCount >= s.threshold {
		if _, err := s.SummarizeFeedback(ctx, req.SessionId, req.StyleId); err != nil {
			return nil, err
		}
		summarized = true
	}

	return &dto.FeedbackResponse{
		Success:    true,
		TurnNumber: turn.TurnNumber,
		Summarized: summarized,
	}, nil
}

// SummarizeFeedback folds the session's accumulated feedback into the
// style's persistent summary and resets the session. Returns "" when the
// session has no feedback to summarize.
func (s *feedbackService) SummarizeFeedback(ctx context.Context, sessionId, styleId string) (string, error) {
	key := entity.SessionKey{SessionId: sessionId, StyleId: styleId}

	unlock := s.sessionRepo.Lock(key)
	conv := s.sessionRepo.GetOrCreate(key)
	feedbackTexts := conv.FeedbackTexts()
	unlock()

	if len(feedbackTexts) == 0 {
		return "", nil
	}

	style, err := s.styleRepo.GetStyle(ctx, styleId)
	if err != nil {
		return "", err
	}

	summary, err := s.summarizer.Summarize(ctx, style.Name, style.FeedbackSummary, feedbackTexts)
	if err != nil {
		return "", err
	}

	if err := s.styleRepo.SetFeedbackSummary(ctx, styleId, summary); err != nil {
		return "", err
	}

	// The feedback now lives on the style; the session starts over.
	unlock = s.sessionRepo.Lock(key)
	s.sessionRepo.Reset(key)
	unlock()

	s.logger.Info("feedback", "summarized session feedback", map[string]interface{}{
		"sessionId":     sessionId,
		"styleId":       styleId,
		"feedbackCount": len(feedbackTexts),
	})

	if s.eventPublisher != nil {
		event := events.NewFeedbackSummarized(styleId, sessionId, summary, len(feedbackTexts))
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("feedback", "failed to publish summary event", map[string]interface{}{
				"styleId": styleId,
				"error":   err.Error(),
			})
		}
	}

	return summary, nil
}
