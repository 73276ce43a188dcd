package analytics

import (
	"errors"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"perfeval/internal/domain/scoring"
)

var ErrNegativeValue = errors.New("gini requires non-negative values")

type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize returns zero values for empty input. StdDev is the population deviation.
func Summarize(values []float64) Summary {
	data := stats.Float64Data(finite(values))
	if data.Len() == 0 {
		return Summary{}
	}
	mean, _ := data.Mean()
	median, _ := data.Median()
	stdDev, _ := data.StandardDeviationPopulation()
	minV, _ := data.Min()
	maxV, _ := data.Max()
	return Summary{
		Count:  data.Len(),
		Mean:   scoring.Round(mean, 2),
		Median: scoring.Round(median, 2),
		StdDev: scoring.Round(stdDev, 2),
		Min:    scoring.Round(minV, 2),
		Max:    scoring.Round(maxV, 2),
	}
}

// Percentile interpolates linearly between the closest ranks
// (h = (n-1)·p/100), so the 50th percentile equals the median.
func Percentile(values []float64, p float64) float64 {
	sorted := sortedCopy(values)
	return percentileSorted(sorted, p)
}

func percentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	p = math.Max(0, math.Min(100, p))
	h := float64(n-1) * p / 100
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

type BoxPlot struct {
	Count        int       `json:"count"`
	Q1           float64   `json:"q1"`
	Median       float64   `json:"median"`
	Q3           float64   `json:"q3"`
	IQR          float64   `json:"iqr"`
	LowerWhisker float64   `json:"lowerWhisker"`
	UpperWhisker float64   `json:"upperWhisker"`
	Outliers     []float64 `json:"outliers"`
}

// NewBoxPlot uses Tukey fences at 1.5·IQR; whiskers end at the most extreme
// observations inside the fences.
func NewBoxPlot(values []float64) BoxPlot {
	sorted := sortedCopy(values)
	if len(sorted) == 0 {
		return BoxPlot{Outliers: []float64{}}
	}
	q1 := percentileSorted(sorted, 25)
	median := percentileSorted(sorted, 50)
	q3 := percentileSorted(sorted, 75)
	iqr := q3 - q1
	lowFence := q1 - 1.5*iqr
	highFence := q3 + 1.5*iqr

	box := BoxPlot{
		Count:        len(sorted),
		Q1:           scoring.Round(q1, 2),
		Median:       scoring.Round(median, 2),
		Q3:           scoring.Round(q3, 2),
		IQR:          scoring.Round(iqr, 2),
		LowerWhisker: scoring.Round(q1, 2),
		UpperWhisker: scoring.Round(q3, 2),
		Outliers:     []float64{},
	}
	lowerSet := false
	for _, v := range sorted {
		if v < lowFence || v > highFence {
			box.Outliers = append(box.Outliers, scoring.Round(v, 2))
			continue
		}
		if !lowerSet {
			box.LowerWhisker = scoring.Round(v, 2)
			lowerSet = true
		}
		box.UpperWhisker = scoring.Round(v, 2)
	}
	return box
}

// Gini is 0 for empty or all-zero input.
func Gini(values []float64) (float64, error) {
	sorted := sortedCopy(values)
	n := len(sorted)
	if n == 0 {
		return 0, nil
	}
	if sorted[0] < 0 {
		return 0, ErrNegativeValue
	}
	total, _ := stats.Sum(sorted)
	if total == 0 {
		return 0, nil
	}
	var weighted float64
	for i, v := range sorted {
		weighted += float64(i+1) * v
	}
	g := 2*weighted/(float64(n)*total) - float64(n+1)/float64(n)
	return scoring.Round(math.Max(0, g), 4), nil
}

// CorrelationMatrix computes Pearson coefficients between columns using the
// rows where both values are present (NaN marks a missing value). Coefficients
// that are undefined (fewer than two pairs or zero variance) are nil.
func CorrelationMatrix(columns [][]float64) [][]*float64 {
	k := len(columns)
	out := make([][]*float64, k)
	for i := range out {
		out[i] = make([]*float64, k)
	}
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			r, ok := pairwiseCorrelation(columns[i], columns[j])
			if !ok {
				continue
			}
			v := scoring.Round(r, 4)
			out[i][j] = &v
			out[j][i] = &v
		}
	}
	return out
}

func pairwiseCorrelation(a, b []float64) (float64, bool) {
	n := min(len(a), len(b))
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[i])
	}
	if len(xs) < 2 {
		return 0, false
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return math.Max(-1, math.Min(1, r)), true
}

type Band struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Count int     `json:"count"`
	Color string  `json:"color"`
}

// Histogram splits [0,100] into equal bands; the last band includes 100.
func Histogram(percentages []float64, width float64) []Band {
	if width <= 0 || width > 100 {
		width = 20
	}
	count := int(math.Ceil(100 / width))
	bands := make([]Band, count)
	for i := range bands {
		from := float64(i) * width
		to := math.Min(100, from+width)
		bands[i] = Band{From: from, To: to, Color: scoring.ScoreColor(from)}
	}
	for _, v := range finite(percentages) {
		idx := int(math.Floor(v / width))
		idx = max(0, min(count-1, idx))
		bands[idx].Count++
	}
	return bands
}

// RatingDistribution counts scores by nearest whole rating.
func RatingDistribution(scores []float64) map[int]int {
	out := map[int]int{}
	for _, s := range finite(scores) {
		out[scoring.RatingBucket(s)]++
	}
	return out
}

// MeanGap is the mean of a[i]-b[i] over indices where both are present.
func MeanGap(a, b []float64) (float64, int) {
	n := min(len(a), len(b))
	var diffs []float64
	for i := 0; i < n; i++ {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		diffs = append(diffs, a[i]-b[i])
	}
	if len(diffs) == 0 {
		return 0, 0
	}
	mean, _ := stats.Mean(diffs)
	return scoring.Round(mean, 2), len(diffs)
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func sortedCopy(values []float64) []float64 {
	out := finite(values)
	sort.Float64s(out)
	return out
}
