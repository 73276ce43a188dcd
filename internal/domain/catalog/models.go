package catalog

import "perfeval/internal/domain/scoring"

const (
	AxisPerformance = "performance"
	AxisPotential   = "potential"

	AppliesToAll = "all"
)

type Dimension struct {
	ID           string  `json:"id"`
	PeriodID     string  `json:"periodId"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Axis         string  `json:"axis"`
	Weight       float64 `json:"weight"`
	DisplayOrder int     `json:"displayOrder"`
	Color        string  `json:"color,omitempty"`
	DisplayColor string  `json:"displayColor"`
	Items        []Item  `json:"items"`
}

type Item struct {
	ID           string  `json:"id"`
	DimensionID  string  `json:"dimensionId"`
	Text         string  `json:"text"`
	Weight       float64 `json:"weight"`
	Required     bool    `json:"required"`
	DisplayOrder int     `json:"displayOrder"`
	AppliesTo    string  `json:"appliesTo"`
}

// AppliesToType reports whether the item is shown on an evaluation of the given type.
func (i Item) AppliesToType(evaluationType string) bool {
	return i.AppliesTo == "" || i.AppliesTo == AppliesToAll || i.AppliesTo == evaluationType
}

func (d *Dimension) resolveColor() {
	d.DisplayColor = scoring.DimensionColor(d.Color, d.DisplayOrder)
}

type DimensionInput struct {
	Code         string  `json:"code" validate:"required,max=40"`
	Name         string  `json:"name" validate:"required,max=200"`
	Description  string  `json:"description" validate:"max=2000"`
	Axis         string  `json:"axis" validate:"required,oneof=performance potential"`
	Weight       float64 `json:"weight" validate:"gt=0,lte=100"`
	DisplayOrder int     `json:"displayOrder" validate:"gte=0"`
	Color        string  `json:"color" validate:"hexrgb"`
}

type ItemInput struct {
	Text         string  `json:"text" validate:"required,max=1000"`
	Weight       float64 `json:"weight" validate:"gte=0,lte=100"`
	Required     bool    `json:"required"`
	DisplayOrder int     `json:"displayOrder" validate:"gte=0"`
	AppliesTo    string  `json:"appliesTo" validate:"omitempty,oneof=all self supervisor peer"`
}
