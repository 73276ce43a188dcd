package results

import (
	"time"

	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/evaluation"
	"perfeval/internal/domain/period"
	"perfeval/internal/domain/scoring"
)

// Compute builds the final result of one evaluatee from their submitted
// evaluations. Evaluations that are not submitted are ignored.
func Compute(p period.Period, userID string, dims []catalog.Dimension, evals []evaluation.Evaluation, now time.Time) FinalResult {
	bySource := map[string][]evaluation.Evaluation{}
	count := 0
	for _, e := range evals {
		if e.Status != evaluation.StatusSubmitted || e.EvaluateeID != userID {
			continue
		}
		bySource[e.Type] = append(bySource[e.Type], e)
		count++
	}

	weights := p.Weights()
	out := FinalResult{
		PeriodID:        p.ID,
		UserID:          userID,
		Dimensions:      make([]DimensionResult, 0, len(dims)),
		EvaluationCount: count,
		ComputedAt:      now.UTC(),
		Complete:        len(dims) > 0,
	}

	var totalVals, totalWeights, perfVals, perfWeights, potVals, potWeights []float64
	for _, d := range dims {
		dr := DimensionResult{
			DimensionID: d.ID,
			Code:        d.Code,
			Name:        d.Name,
			Axis:        d.Axis,
			Weight:      d.Weight,
			Color:       scoring.DimensionColor(d.Color, d.DisplayOrder),
		}
		sourceScores := map[string]float64{}
		for _, source := range scoring.Sources {
			v, ok := sourceDimensionScore(d, source, bySource[source])
			if !ok {
				continue
			}
			sourceScores[source] = v
			rounded := scoring.Round(v, 2)
			switch source {
			case scoring.SourceSelf:
				dr.Self = &rounded
			case scoring.SourceSupervisor:
				dr.Supervisor = &rounded
			case scoring.SourcePeer:
				dr.Peer = &rounded
			}
		}
		combined := scoring.CombineSources(sourceScores, weights)
		dr.Complete = combined.Complete
		if !combined.Complete {
			out.Complete = false
		}
		if combined.OK {
			score := scoring.Round(combined.Score, 2)
			pct := scoring.Round(scoring.ToPercentage(combined.Score, float64(p.ScaleMin), float64(p.ScaleMax)), 2)
			dr.Combined = &score
			dr.Percentage = &pct
			dr.ScoreColor = scoring.ScoreColor(pct)

			totalVals = append(totalVals, combined.Score)
			totalWeights = append(totalWeights, d.Weight)
			if d.Axis == catalog.AxisPotential {
				potVals = append(potVals, combined.Score)
				potWeights = append(potWeights, d.Weight)
			} else {
				perfVals = append(perfVals, combined.Score)
				perfWeights = append(perfWeights, d.Weight)
			}
		}
		out.Dimensions = append(out.Dimensions, dr)
	}

	toPct := func(v float64) float64 {
		return scoring.Round(scoring.ToPercentage(v, float64(p.ScaleMin), float64(p.ScaleMax)), 2)
	}
	if total, ok := scoring.WeightedScore(totalVals, totalWeights); ok {
		score := scoring.Round(total, 2)
		pct := toPct(total)
		out.TotalScore = &score
		out.TotalPercentage = &pct
	}
	if perf, ok := scoring.WeightedScore(perfVals, perfWeights); ok {
		pct := toPct(perf)
		out.PerformancePercentage = &pct
	}
	if pot, ok := scoring.WeightedScore(potVals, potWeights); ok {
		pct := toPct(pot)
		out.PotentialPercentage = &pct
	}
	if out.PerformancePercentage != nil && out.PotentialPercentage != nil {
		placement := scoring.NineBox(*out.PerformancePercentage, *out.PotentialPercentage, p.Thresholds())
		out.Box = placement.Box
		out.BoxLabel = placement.Label
	}
	return out
}

// sourceDimensionScore averages the dimension score across all evaluations of one source.
func sourceDimensionScore(d catalog.Dimension, source string, evals []evaluation.Evaluation) (float64, bool) {
	var sum float64
	var n int
	for _, e := range evals {
		items := make([]scoring.ItemScore, 0, len(d.Items))
		for _, it := range d.Items {
			if !it.AppliesToType(source) {
				continue
			}
			items = append(items, scoring.ItemScore{Score: e.Responses[it.ID].Score, Weight: it.Weight})
		}
		if v, ok := scoring.DimensionScore(items); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Gaps lists self and supervisor scores side by side for every dimension.
func Gaps(r FinalResult) []Gap {
	out := make([]Gap, 0, len(r.Dimensions))
	for _, d := range r.Dimensions {
		g := Gap{DimensionID: d.DimensionID, Code: d.Code, Name: d.Name, Self: d.Self, Supervisor: d.Supervisor}
		if d.Self != nil && d.Supervisor != nil {
			diff := scoring.Round(*d.Self-*d.Supervisor, 2)
			g.Difference = &diff
		}
		out = append(out, g)
	}
	return out
}
