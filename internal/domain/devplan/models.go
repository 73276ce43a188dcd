package devplan

import "time"

type Action struct {
	Title         string `json:"title" validate:"required,max=200"`
	Description   string `json:"description" validate:"max=2000"`
	DimensionCode string `json:"dimensionCode" validate:"max=50"`
	Timeframe     string `json:"timeframe" validate:"max=50"`
}

// Content is the part of a plan that is encrypted at rest.
type Content struct {
	Summary          string   `json:"summary"`
	Strengths        []string `json:"strengths"`
	ImprovementAreas []string `json:"improvementAreas"`
	Actions          []Action `json:"actions"`
}

type Plan struct {
	ID         string     `json:"id"`
	PeriodID   string     `json:"periodId"`
	UserID     string     `json:"userId"`
	UserName   string     `json:"userName,omitempty"`
	Status     string     `json:"status"`
	Source     string     `json:"source"`
	Content
	CreatedBy  string     `json:"createdBy"`
	ApprovedBy *string    `json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type UpdateInput struct {
	Summary          string   `json:"summary" validate:"required,max=4000"`
	Strengths        []string `json:"strengths" validate:"max=10,dive,required,max=500"`
	ImprovementAreas []string `json:"improvementAreas" validate:"max=10,dive,required,max=500"`
	Actions          []Action `json:"actions" validate:"max=20,dive"`
}
