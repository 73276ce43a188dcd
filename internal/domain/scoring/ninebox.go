package scoring

const (
	LevelLow  = 0
	LevelMid  = 1
	LevelHigh = 2
)

const (
	DefaultLowThreshold  = 100.0 / 3
	DefaultHighThreshold = 200.0 / 3
)

type Thresholds struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Low: DefaultLowThreshold, High: DefaultHighThreshold}
}

func (t Thresholds) Valid() bool {
	return t.Low > 0 && t.Low < t.High && t.High < 100
}

// Indexed by box-1.
var nineBoxLabels = [9]string{
	"Underperformer",
	"Effective",
	"Trusted Professional",
	"Inconsistent Player",
	"Core Player",
	"High Performer",
	"Rough Diamond",
	"Future Star",
	"Star",
}

type Placement struct {
	Box              int    `json:"box"`
	Label            string `json:"label"`
	PerformanceLevel int    `json:"performanceLevel"`
	PotentialLevel   int    `json:"potentialLevel"`
}

// Level buckets a percentage; values on a threshold belong to the upper level.
func (t Thresholds) Level(pct float64) int {
	switch {
	case pct >= t.High:
		return LevelHigh
	case pct >= t.Low:
		return LevelMid
	default:
		return LevelLow
	}
}

// NineBox places a person by performance (x axis) and potential (y axis).
func NineBox(performancePct, potentialPct float64, t Thresholds) Placement {
	if !t.Valid() {
		t = DefaultThresholds()
	}
	perf := t.Level(performancePct)
	pot := t.Level(potentialPct)
	box := pot*3 + perf + 1
	return Placement{Box: box, Label: nineBoxLabels[box-1], PerformanceLevel: perf, PotentialLevel: pot}
}

func BoxLabel(box int) string {
	if box < 1 || box > 9 {
		return ""
	}
	return nineBoxLabels[box-1]
}
