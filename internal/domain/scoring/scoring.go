// Package scoring holds the arithmetic that turns item answers into dimension,
// source and final scores.
package scoring

import "math"

const (
	SourceSelf       = "self"
	SourceSupervisor = "supervisor"
	SourcePeer       = "peer"
)

var Sources = []string{SourceSelf, SourceSupervisor, SourcePeer}

// ItemScore is one answered (or unanswered) item of a dimension.
type ItemScore struct {
	Score  *float64
	Weight float64
}

// Weights holds the contribution of each evaluation source to the final score.
type Weights struct {
	Self       float64 `json:"self"`
	Supervisor float64 `json:"supervisor"`
	Peer       float64 `json:"peer"`
}

func (w Weights) For(source string) float64 {
	switch source {
	case SourceSelf:
		return w.Self
	case SourceSupervisor:
		return w.Supervisor
	case SourcePeer:
		return w.Peer
	}
	return 0
}

func (w Weights) Sum() float64 {
	return w.Self + w.Supervisor + w.Peer
}

// Valid reports whether each weight is in [0,1] and they sum to 1.
func (w Weights) Valid() bool {
	for _, v := range []float64{w.Self, w.Supervisor, w.Peer} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return false
		}
	}
	return math.Abs(w.Sum()-1) <= 1e-6
}

// DimensionScore is the weighted mean of answered items. Items without a score
// are skipped; ok is false when nothing was answered.
func DimensionScore(items []ItemScore) (float64, bool) {
	values := make([]float64, 0, len(items))
	weights := make([]float64, 0, len(items))
	for _, item := range items {
		if item.Score == nil {
			continue
		}
		weight := item.Weight
		if weight <= 0 {
			weight = 1
		}
		values = append(values, *item.Score)
		weights = append(weights, weight)
	}
	return WeightedScore(values, weights)
}

// WeightedScore returns Σwv/Σw. Mismatched lengths use the shorter slice.
func WeightedScore(values, weights []float64) (float64, bool) {
	n := min(len(values), len(weights))
	var sum, total float64
	for i := 0; i < n; i++ {
		if weights[i] <= 0 || math.IsNaN(values[i]) {
			continue
		}
		sum += values[i] * weights[i]
		total += weights[i]
	}
	if total == 0 {
		return 0, false
	}
	return sum / total, true
}

// Combined is the result of merging source scores.
type Combined struct {
	Score    float64
	OK       bool
	Complete bool
}

// CombineSources merges per-source scores. Weights of missing sources are
// redistributed proportionally over the present ones; Complete is true only
// when every source with a positive weight contributed.
func CombineSources(scores map[string]float64, weights Weights) Combined {
	values := make([]float64, 0, len(Sources))
	ws := make([]float64, 0, len(Sources))
	complete := true
	for _, source := range Sources {
		w := weights.For(source)
		score, ok := scores[source]
		if !ok {
			if w > 0 {
				complete = false
			}
			continue
		}
		values = append(values, score)
		ws = append(ws, w)
	}
	score, ok := WeightedScore(values, ws)
	return Combined{Score: score, OK: ok, Complete: ok && complete}
}

// ToPercentage maps a score on [min,max] to [0,100].
func ToPercentage(score, minScale, maxScale float64) float64 {
	if maxScale <= minScale || math.IsNaN(score) {
		return 0
	}
	pct := (score - minScale) / (maxScale - minScale) * 100
	return math.Max(0, math.Min(100, pct))
}

// Round rounds half away from zero to the given number of decimal places.
func Round(x float64, places int) float64 {
	if places < 0 {
		places = 0
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	p := math.Pow10(places)
	scaled := x * p
	// x*p can land just below a decimal half (1.005*100 = 100.49999...).
	nudge := math.Max(math.Abs(scaled), 1) * 1e-12
	return math.Round(scaled+math.Copysign(nudge, scaled)) / p
}

// RatingBucket is the nearest whole rating, used for rating distributions.
func RatingBucket(score float64) int {
	return int(math.Round(score))
}
