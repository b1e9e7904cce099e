package service

import (
	"context"
	"encoding/json"

	"github.com/clairexuu/SWAG-Golf/internal/dto"
	"github.com/clairexuu/SWAG-Golf/internal/entity"
	"github.com/clairexuu/SWAG-Golf/internal/pkg/logger"
	"github.com/clairexuu/SWAG-Golf/internal/repository/contract"
	"github.com/clairexuu/SWAG-Golf/pkg/events"
)

type IStyleService interface {
	GetAll(ctx context.Context) ([]*dto.StyleResponse, error)
	Get(ctx context.Context, styleId string) (*entity.Style, error)
	Create(ctx context.Context, req *dto.CreateStyleRequest) (*entity.Style, error)
	ImportImages(ctx context.Context, styleId string, sourcePaths []string) (*dto.ImportImagesResult, error)
}

type styleService struct {
	styleRepo        contract.StyleRepository
	publisherService IPublisherService
	eventPublisher   events.Sink
	logger           logger.ILogger
}

func NewStyleService(
	styleRepo contract.StyleRepository,
	publisherService IPublisherService,
	eventPublisher events.Sink,
	sysLogger logger.ILogger,
) IStyleService {
	return &styleService{
		styleRepo:        styleRepo,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           sysLogger,
	}
}

// GetAll returns every style in wire form. Reference image paths never leave
// the server; the arrays stay empty on purpose.
func (s *styleService) GetAll(ctx context.Context) ([]*dto.StyleResponse, error) {
	styles, err := s.styleRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]*dto.StyleResponse, 0, len(styles))
	for _, style := range styles {
		responses = append(responses, &dto.StyleResponse{
			Id:          style.Id,
			Name:        style.Name,
			Description: style.Description,
			VisualRules: dto.VisualRulesInfo{
				LineWeight:      style.VisualRules.LineWeight,
				Looseness:       style.VisualRules.Looseness,
				Complexity:      style.VisualRules.Complexity,
				AdditionalRules: orEmpty(style.VisualRules.AdditionalRules),
			},
			ReferenceImages: []string{},
			DoNotUse:        []string{},
		})
	}
	return responses, nil
}

func (s *styleService) Get(ctx context.Context, styleId string) (*entity.Style, error) {
	return s.styleRepo.GetStyle(ctx, styleId)
}

func (s *styleService) Create(ctx context.Context, req *dto.CreateStyleRequest) (*entity.Style, error) {
	var rules *entity.VisualRules
	if req.LineWeight != "" || req.Looseness != "" || req.Complexity != "" {
		rules = &entity.VisualRules{
			LineWeight: req.LineWeight,
			Looseness:  req.Looseness,
			Complexity: req.Complexity,
		}
	}

	style, err := s.styleRepo.Create(ctx, req.Name, req.Description, rules)
	if err != nil {
		return nil, err
	}

	s.publishStyleUpdated(ctx, style.Id, "created")

	if len(req.ImagePaths) > 0 {
		if _, err := s.ImportImages(ctx, style.Id, req.ImagePaths); err != nil {
			return nil, err
		}
		// Reload so the returned style carries the imported images.
		return s.styleRepo.GetStyle(ctx, style.Id)
	}

	return style, nil
}

// ImportImages copies new reference images into the style and queues an
// embedding rebuild when anything was actually added.
func (s *styleService) ImportImages(ctx context.Context, styleId string, sourcePaths []string) (*dto.ImportImagesResult, error) {
	added, skipped, err := s.styleRepo.ImportReferenceImages(ctx, styleId, sourcePaths)
	if err != nil {
		return nil, err
	}

	s.logger.Info("style", "imported reference images", map[string]interface{}{
		"styleId": styleId,
		"added":   added,
		"skipped": skipped,
	})

	if added > 0 {
		payload, err := json.Marshal(dto.EmbedStyleImagesMessage{StyleId: styleId})
		if err != nil {
			return nil, err
		}
		if err := s.publisherService.Publish(ctx, payload); err != nil {
			return nil, err
		}
		s.publishStyleUpdated(ctx, styleId, "images_imported")
	}

	return &dto.ImportImagesResult{Added: added, Skipped: skipped}, nil
}

func (s *styleService) publishStyleUpdated(ctx context.Context, styleId, change string) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events.NewStyleUpdated(styleId, change)); err != nil {
		s.logger.Warn("style", "failed to publish style event", map[string]interface{}{
			"styleId": styleId,
			"change":  change,
			"error":   err.Error(),
		})
	}
}
