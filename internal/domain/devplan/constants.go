package devplan

const (
	StatusDraft    = "draft"
	StatusApproved = "approved"
)

const (
	SourceAI        = "ai"
	SourceHeuristic = "heuristic"
	SourceManual    = "manual"
)

// focusSize is how many dimensions are picked as strengths and as improvement areas.
const focusSize = 3

const (
	TimeframeShort  = "0-3 months"
	TimeframeMedium = "3-6 months"
	TimeframeLong   = "6-12 months"
)
