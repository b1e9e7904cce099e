package service

import (
	"context"

	"github.com/clairexuu/SWAG-Golf/internal/dto"
	"github.com/clairexuu/SWAG-Golf/internal/entity"
	"github.com/clairexuu/SWAG-Golf/internal/repository/contract"
)

type IHistoryService interface {
	// List returns past generations newest first, optionally filtered by
	// style, capped at the retention limit.
	List(ctx context.Context, styleId string) (*dto.GenerationsResponse, error)
	Prune(ctx context.Context, styleId string, keep int) (int, error)
}

type historyService struct {
	historyRepo contract.HistoryRepository
}

func NewHistoryService(historyRepo contract.HistoryRepository) IHistoryService {
	return &historyService{historyRepo: historyRepo}
}

func (s *historyService) List(ctx context.Context, styleId string) (*dto.GenerationsResponse, error) {
	records, err := s.historyRepo.List(ctx, styleId, maxGenerationsPerStyle)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*entity.GenerationRecord{}
	}
	return &dto.GenerationsResponse{
		Success:     true,
		Total:       len(records),
		Generations: records,
	}, nil
}

func (s *historyService) Prune(ctx context.Context, styleId string, keep int) (int, error) {
	return s.historyRepo.Prune(ctx, styleId, keep)
}
