package results

import "time"

type DimensionResult struct {
	DimensionID string   `json:"dimensionId"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Axis        string   `json:"axis"`
	Weight      float64  `json:"weight"`
	Color       string   `json:"color"`
	Self        *float64 `json:"self"`
	Supervisor  *float64 `json:"supervisor"`
	Peer        *float64 `json:"peer"`
	Combined    *float64 `json:"combined"`
	Percentage  *float64 `json:"percentage"`
	ScoreColor  string   `json:"scoreColor,omitempty"`
	Complete    bool     `json:"complete"`
}

type FinalResult struct {
	PeriodID              string            `json:"periodId"`
	UserID                string            `json:"userId"`
	UserName              string            `json:"userName,omitempty"`
	GroupID               *string           `json:"groupId,omitempty"`
	Dimensions            []DimensionResult `json:"dimensions"`
	TotalScore            *float64          `json:"totalScore"`
	TotalPercentage       *float64          `json:"totalPercentage"`
	PerformancePercentage *float64          `json:"performancePercentage"`
	PotentialPercentage   *float64          `json:"potentialPercentage"`
	Box                   int               `json:"box"`
	BoxLabel              string            `json:"boxLabel,omitempty"`
	EvaluationCount       int               `json:"evaluationCount"`
	Complete              bool              `json:"complete"`
	Locked                bool              `json:"locked"`
	ComputedAt            time.Time         `json:"computedAt"`
}

// Gap is the self-minus-supervisor difference on one dimension.
type Gap struct {
	DimensionID string   `json:"dimensionId"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Self        *float64 `json:"self"`
	Supervisor  *float64 `json:"supervisor"`
	Difference  *float64 `json:"difference"`
}

type Filter struct {
	PeriodID string
	GroupID  string
	Box      int
	UserIDs  []string
}

type ComputeSummary struct {
	PeriodID string `json:"periodId"`
	Computed int    `json:"computed"`
	Skipped  int    `json:"skipped"`
}
