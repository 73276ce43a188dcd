package devplan

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"perfeval/internal/domain/results"
)

const systemPrompt = `You are an HR development advisor for a municipal administration.
Answer with one JSON object with the keys "summary" (string), "strengths" (array of strings),
"improvementAreas" (array of strings) and "actions" (array of objects with "title",
"description", "dimensionCode" and "timeframe"). Write in a supportive professional tone.
Use only the dimensions given. Suggest between 3 and 6 actions.`

// Focus is the input a plan is built from.
type Focus struct {
	Strengths    []results.DimensionResult
	Improvements []results.DimensionResult
	BoxLabel     string
	TotalPct     *float64
}

// SelectFocus ranks scored dimensions by combined score. The top ones are
// strengths and the bottom ones improvement areas; a dimension is never both.
func SelectFocus(r results.FinalResult) Focus {
	scored := make([]results.DimensionResult, 0, len(r.Dimensions))
	for _, d := range r.Dimensions {
		if d.Combined != nil {
			scored = append(scored, d)
		}
	}
	slices.SortStableFunc(scored, func(a, b results.DimensionResult) int {
		if c := cmp.Compare(*b.Combined, *a.Combined); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})

	top := min(focusSize, (len(scored)+1)/2)
	bottom := min(focusSize, len(scored)-top)
	improvements := slices.Clone(scored[len(scored)-bottom:])
	slices.Reverse(improvements)
	return Focus{
		Strengths:    scored[:top],
		Improvements: improvements,
		BoxLabel:     r.BoxLabel,
		TotalPct:     r.TotalPercentage,
	}
}

// BuildPrompt renders the user message sent to the model. No names or ids are included.
func BuildPrompt(f Focus) string {
	var b strings.Builder
	b.WriteString("Prepare an individual development plan for an employee.\n")
	if f.TotalPct != nil {
		fmt.Fprintf(&b, "Overall result: %.1f%%.\n", *f.TotalPct)
	}
	if f.BoxLabel != "" {
		fmt.Fprintf(&b, "Nine-box placement: %s.\n", f.BoxLabel)
	}
	writeDimensions(&b, "Strengths", f.Strengths)
	writeDimensions(&b, "Improvement areas", f.Improvements)
	return b.String()
}

func writeDimensions(b *strings.Builder, title string, dims []results.DimensionResult) {
	if len(dims) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, d := range dims {
		fmt.Fprintf(b, "- %s (%s): combined %.2f", d.Name, d.Code, *d.Combined)
		if d.Self != nil && d.Supervisor != nil {
			fmt.Fprintf(b, ", self %.2f, supervisor %.2f", *d.Self, *d.Supervisor)
		}
		b.WriteString("\n")
	}
}
