package period

import (
	"time"

	"perfeval/internal/domain/scoring"
)

type Period struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	StartDate        time.Time  `json:"startDate"`
	EndDate          time.Time  `json:"endDate"`
	Status           string     `json:"status"`
	ScaleMin         int        `json:"scaleMin"`
	ScaleMax         int        `json:"scaleMax"`
	SelfWeight       float64    `json:"selfWeight"`
	SupervisorWeight float64    `json:"supervisorWeight"`
	PeerWeight       float64    `json:"peerWeight"`
	LowThreshold     float64    `json:"lowThreshold"`
	HighThreshold    float64    `json:"highThreshold"`
	ActivatedAt      *time.Time `json:"activatedAt,omitempty"`
	ClosedAt         *time.Time `json:"closedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (p Period) Weights() scoring.Weights {
	return scoring.Weights{Self: p.SelfWeight, Supervisor: p.SupervisorWeight, Peer: p.PeerWeight}
}

func (p Period) Thresholds() scoring.Thresholds {
	return scoring.Thresholds{Low: p.LowThreshold, High: p.HighThreshold}
}

// AcceptsSubmissions reports whether evaluations can be submitted at now:
// the period is active and now falls on a day between start and end inclusive.
func (p Period) AcceptsSubmissions(now time.Time) bool {
	if p.Status != StatusActive {
		return false
	}
	day := now.UTC().Format(dateLayout)
	return day >= p.StartDate.UTC().Format(dateLayout) && day <= p.EndDate.UTC().Format(dateLayout)
}

// Input is the create/update payload. Omitted numeric fields take the
// service defaults on create and keep their stored value on update.
type Input struct {
	Name             string   `json:"name" validate:"required,max=200"`
	StartDate        string   `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate          string   `json:"endDate" validate:"required,datetime=2006-01-02"`
	ScaleMin         *int     `json:"scaleMin" validate:"omitempty,gte=0,lte=100"`
	ScaleMax         *int     `json:"scaleMax" validate:"omitempty,gte=1,lte=100"`
	SelfWeight       *float64 `json:"selfWeight" validate:"omitempty,gte=0,lte=1"`
	SupervisorWeight *float64 `json:"supervisorWeight" validate:"omitempty,gte=0,lte=1"`
	PeerWeight       *float64 `json:"peerWeight" validate:"omitempty,gte=0,lte=1"`
	LowThreshold     *float64 `json:"lowThreshold" validate:"omitempty,gt=0,lt=100"`
	HighThreshold    *float64 `json:"highThreshold" validate:"omitempty,gt=0,lt=100"`
}
