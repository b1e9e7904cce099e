package dto

import "github.com/clairexuu/SWAG-Golf/internal/entity"

// GenerationsResponse is the GET /generations listing: newest first, capped
// at the retention limit.
type GenerationsResponse struct {
	Success     bool                       `json:"success"`
	Total       int                        `json:"total"`
	Generations []*entity.GenerationRecord `json:"generations"`
}
