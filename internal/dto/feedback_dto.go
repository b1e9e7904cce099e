package dto

type FeedbackRequest struct {
	SessionId string `json:"sessionId" validate:"required"`
	StyleId   string `json:"styleId" validate:"required"`
	Feedback  string `json:"feedback" validate:"required"`
}

type SummarizeRequest struct {
	SessionId string `json:"sessionId" validate:"required"`
	StyleId   string `json:"styleId" validate:"required"`
}

// FeedbackResponse is flat rather than data-wrapped; the envelope predates
// the nested format and the frontend still expects it.
type FeedbackResponse struct {
	Success    bool `json:"success"`
	TurnNumber int  `json:"turnNumber"`
	Summarized bool `json:"summarized"`
}

// SummarizeResponse carries a null summary when the session has no feedback
// to fold.
type SummarizeResponse struct {
	Success bool    `json:"success"`
	Summary *string `json:"summary"`
}
