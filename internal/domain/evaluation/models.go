package evaluation

import (
	"time"

	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/period"
)

type Assignment struct {
	ID               string    `json:"id"`
	PeriodID         string    `json:"periodId"`
	EvaluatorID      string    `json:"evaluatorId"`
	EvaluateeID      string    `json:"evaluateeId"`
	Type             string    `json:"type"`
	EvaluatorName    string    `json:"evaluatorName,omitempty"`
	EvaluateeName    string    `json:"evaluateeName,omitempty"`
	EvaluationStatus string    `json:"evaluationStatus"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Response is the answer to one item. A nil Score means unanswered.
type Response struct {
	Score   *float64 `json:"score"`
	Comment string   `json:"comment,omitempty"`
}

type Evaluation struct {
	ID             string              `json:"id"`
	AssignmentID   string              `json:"assignmentId"`
	PeriodID       string              `json:"periodId"`
	EvaluatorID    string              `json:"evaluatorId"`
	EvaluateeID    string              `json:"evaluateeId"`
	Type           string              `json:"type"`
	Status         string              `json:"status"`
	Responses      map[string]Response `json:"responses"`
	GeneralComment string              `json:"generalComment"`
	Version        int                 `json:"version"`
	UpdatedAt      time.Time           `json:"updatedAt"`
	SubmittedAt    *time.Time          `json:"submittedAt,omitempty"`
}

// View is everything a form needs to render one assignment.
type View struct {
	Assignment Assignment          `json:"assignment"`
	Evaluation Evaluation          `json:"evaluation"`
	Period     period.Period       `json:"period"`
	Dimensions []catalog.Dimension `json:"dimensions"`
	Editable   bool                `json:"editable"`
}

type AssignmentFilter struct {
	PeriodID    string
	EvaluatorID string
	EvaluateeID string
	Type        string
}

type AssignmentInput struct {
	EvaluatorID string `json:"evaluatorId" validate:"required,uuid"`
	EvaluateeID string `json:"evaluateeId" validate:"required,uuid"`
	Type        string `json:"type" validate:"required,oneof=self supervisor peer"`
}

// DraftInput is an autosave patch. Each entry in Responses replaces the stored
// answer for that item; an entry with a null score and no comment removes it.
type DraftInput struct {
	BaseVersion    *int                `json:"baseVersion"`
	Responses      map[string]Response `json:"responses"`
	GeneralComment *string             `json:"generalComment" validate:"omitempty,max=5000"`
}

// Completion counts assignments and submitted evaluations of one type.
type Completion struct {
	Type      string  `json:"type"`
	Total     int     `json:"total"`
	Submitted int     `json:"submitted"`
	Rate      float64 `json:"rate"`
}
