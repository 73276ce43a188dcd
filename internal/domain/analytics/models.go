package analytics

import "perfeval/internal/domain/evaluation"

// BoxCount is the number of people placed in one nine-box cell.
type BoxCount struct {
	Box   int    `json:"box"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Overview struct {
	PeriodID     string                  `json:"periodId"`
	Completion   []evaluation.Completion `json:"completion"`
	Results      int                     `json:"results"`
	Complete     int                     `json:"complete"`
	Total        Summary                 `json:"total"`
	TotalBoxPlot BoxPlot                 `json:"totalBoxPlot"`
	Gini         float64                 `json:"gini"`
	NineBox      []BoxCount              `json:"nineBox"`
	Unplaced     int                     `json:"unplaced"`
	Histogram    []Band                  `json:"histogram"`
	Ratings      map[int]int             `json:"ratings"`
}

type DimensionStats struct {
	DimensionID string  `json:"dimensionId"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Axis        string  `json:"axis"`
	Color       string  `json:"color"`
	Percentage  Summary `json:"percentage"`
	BoxPlot     BoxPlot `json:"boxPlot"`
	// SelfSupervisorGap is the mean of self minus supervisor over people scored by both.
	SelfSupervisorGap *float64 `json:"selfSupervisorGap"`
	GapCount          int      `json:"gapCount"`
}

type DimensionView struct {
	PeriodID    string           `json:"periodId"`
	Dimensions  []DimensionStats `json:"dimensions"`
	Codes       []string         `json:"codes"`
	Correlation [][]*float64     `json:"correlation"`
}

type GroupStats struct {
	GroupID   string  `json:"groupId"`
	GroupName string  `json:"groupName"`
	Total     Summary `json:"total"`
	Complete  int     `json:"complete"`
}

type TeamView struct {
	SupervisorID string   `json:"supervisorId"`
	Members      int      `json:"members"`
	Overview     Overview `json:"overview"`
}
