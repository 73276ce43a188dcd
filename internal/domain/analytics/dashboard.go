package analytics

import (
	"cmp"
	"log/slog"
	"math"
	"slices"

	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/results"
	"perfeval/internal/domain/scoring"
)

// BuildOverview summarises total percentages of a set of results.
func BuildOverview(periodID string, rs []results.FinalResult) Overview {
	totals := make([]float64, 0, len(rs))
	scores := make([]float64, 0, len(rs))
	counts := map[int]int{}
	out := Overview{PeriodID: periodID, Results: len(rs)}
	for _, r := range rs {
		if r.Complete {
			out.Complete++
		}
		if r.TotalPercentage != nil {
			totals = append(totals, *r.TotalPercentage)
		}
		if r.TotalScore != nil {
			scores = append(scores, *r.TotalScore)
		}
		if r.Box > 0 {
			counts[r.Box]++
		} else {
			out.Unplaced++
		}
	}

	out.Total = Summarize(totals)
	out.TotalBoxPlot = NewBoxPlot(totals)
	gini, err := Gini(totals)
	if err != nil {
		slog.Warn("gini failed", "periodId", periodID, "err", err)
	}
	out.Gini = gini
	out.Histogram = Histogram(totals, 0)
	out.Ratings = RatingDistribution(scores)
	out.NineBox = make([]BoxCount, 0, 9)
	for box := 1; box <= 9; box++ {
		out.NineBox = append(out.NineBox, BoxCount{Box: box, Label: scoring.BoxLabel(box), Count: counts[box]})
	}
	return out
}

// BuildDimensionView computes per-dimension statistics and the correlation of
// combined dimension scores across people.
func BuildDimensionView(periodID string, dims []catalog.Dimension, rs []results.FinalResult) DimensionView {
	out := DimensionView{
		PeriodID:   periodID,
		Dimensions: make([]DimensionStats, 0, len(dims)),
		Codes:      make([]string, 0, len(dims)),
	}
	columns := make([][]float64, len(dims))
	for i, d := range dims {
		var pcts, self, supervisor []float64
		column := make([]float64, len(rs))
		for j, r := range rs {
			column[j] = math.NaN()
			dr, ok := findDimension(r, d.ID)
			if !ok {
				continue
			}
			if dr.Combined != nil {
				column[j] = *dr.Combined
			}
			if dr.Percentage != nil {
				pcts = append(pcts, *dr.Percentage)
			}
			if dr.Self != nil && dr.Supervisor != nil {
				self = append(self, *dr.Self)
				supervisor = append(supervisor, *dr.Supervisor)
			}
		}
		columns[i] = column

		stats := DimensionStats{
			DimensionID: d.ID,
			Code:        d.Code,
			Name:        d.Name,
			Axis:        d.Axis,
			Color:       scoring.DimensionColor(d.Color, d.DisplayOrder),
			Percentage:  Summarize(pcts),
			BoxPlot:     NewBoxPlot(pcts),
		}
		if gap, n := MeanGap(self, supervisor); n > 0 {
			gap = scoring.Round(gap, 2)
			stats.SelfSupervisorGap = &gap
			stats.GapCount = n
		}
		out.Dimensions = append(out.Dimensions, stats)
		out.Codes = append(out.Codes, d.Code)
	}
	out.Correlation = CorrelationMatrix(columns)
	return out
}

// BuildGroupStats summarises total percentages per group. People without a
// group are reported under an empty group id.
func BuildGroupStats(groupNames map[string]string, rs []results.FinalResult) []GroupStats {
	totals := map[string][]float64{}
	complete := map[string]int{}
	order := []string{}
	for _, r := range rs {
		id := ""
		if r.GroupID != nil {
			id = *r.GroupID
		}
		if _, seen := totals[id]; !seen {
			totals[id] = nil
			order = append(order, id)
		}
		if r.Complete {
			complete[id]++
		}
		if r.TotalPercentage != nil {
			totals[id] = append(totals[id], *r.TotalPercentage)
		}
	}
	out := make([]GroupStats, 0, len(order))
	for _, id := range order {
		out = append(out, GroupStats{GroupID: id, GroupName: groupNames[id], Total: Summarize(totals[id]), Complete: complete[id]})
	}
	slices.SortStableFunc(out, groupOrder)
	return out
}

// groupOrder sorts by mean total descending, then name.
func groupOrder(a, b GroupStats) int {
	if c := cmp.Compare(b.Total.Mean, a.Total.Mean); c != 0 {
		return c
	}
	return cmp.Compare(a.GroupName, b.GroupName)
}

func findDimension(r results.FinalResult, dimensionID string) (results.DimensionResult, bool) {
	for _, d := range r.Dimensions {
		if d.DimensionID == dimensionID {
			return d, true
		}
	}
	return results.DimensionResult{}, false
}
