package period

const (
	StatusDraft  = "draft"
	StatusActive = "active"
	StatusClosed = "closed"
)

const (
	DefaultScaleMin = 1
	DefaultScaleMax = 5
)

const dateLayout = "2006-01-02"
