package devplan

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"perfeval/internal/domain/results"
)

// Heuristic builds a deterministic plan from the focus dimensions.
func Heuristic(f Focus) Content {
	out := Content{
		Strengths:        make([]string, 0, len(f.Strengths)),
		ImprovementAreas: make([]string, 0, len(f.Improvements)),
		Actions:          make([]Action, 0, len(f.Improvements)+len(f.Strengths)),
	}
	for _, d := range f.Strengths {
		out.Strengths = append(out.Strengths, fmt.Sprintf("%s: consistently rated %.2f.", d.Name, *d.Combined))
	}
	for i, d := range f.Improvements {
		area := fmt.Sprintf("%s: rated %.2f.", d.Name, *d.Combined)
		if d.Self != nil && d.Supervisor != nil && *d.Self-*d.Supervisor >= 1 {
			area = fmt.Sprintf("%s: rated %.2f; self-assessment is notably higher than the supervisor's.", d.Name, *d.Combined)
		}
		out.ImprovementAreas = append(out.ImprovementAreas, area)

		timeframe := TimeframeMedium
		if i == 0 {
			timeframe = TimeframeShort
		}
		out.Actions = append(out.Actions, Action{
			Title:         "Strengthen " + d.Name,
			Description:   fmt.Sprintf("Agree concrete goals for %s with the supervisor and review progress monthly.", d.Name),
			DimensionCode: d.Code,
			Timeframe:     timeframe,
		})
	}
	if len(f.Strengths) > 0 {
		d := f.Strengths[0]
		out.Actions = append(out.Actions, Action{
			Title:         "Share expertise in " + d.Name,
			Description:   fmt.Sprintf("Mentor colleagues or lead a knowledge-sharing session on %s.", d.Name),
			DimensionCode: d.Code,
			Timeframe:     TimeframeLong,
		})
	}

	switch {
	case len(f.Strengths) == 0 && len(f.Improvements) == 0:
		out.Summary = "No scored dimensions are available yet. Agree development goals in the next one-to-one."
	case f.BoxLabel != "":
		out.Summary = fmt.Sprintf("Placed as %s. Build on %s and focus development on %s.",
			f.BoxLabel, joinNames(f.Strengths), joinNames(f.Improvements))
	default:
		out.Summary = fmt.Sprintf("Build on %s and focus development on %s.", joinNames(f.Strengths), joinNames(f.Improvements))
	}
	return out
}

// ParseReply reads the model's JSON object. Unknown keys are ignored.
func ParseReply(raw string) (Content, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	if !gjson.Valid(raw) {
		return Content{}, ErrInvalidReply
	}
	doc := gjson.Parse(raw)
	out := Content{
		Summary:          strings.TrimSpace(doc.Get("summary").String()),
		Strengths:        stringList(doc.Get("strengths")),
		ImprovementAreas: stringList(doc.Get("improvementAreas")),
		Actions:          []Action{},
	}
	doc.Get("actions").ForEach(func(_, v gjson.Result) bool {
		a := Action{
			Title:         strings.TrimSpace(v.Get("title").String()),
			Description:   strings.TrimSpace(v.Get("description").String()),
			DimensionCode: strings.ToUpper(strings.TrimSpace(v.Get("dimensionCode").String())),
			Timeframe:     strings.TrimSpace(v.Get("timeframe").String()),
		}
		if a.Title != "" {
			out.Actions = append(out.Actions, a)
		}
		return true
	})
	if out.Summary == "" || len(out.Actions) == 0 {
		return Content{}, ErrInvalidReply
	}
	return out, nil
}

func stringList(v gjson.Result) []string {
	out := []string{}
	for _, item := range v.Array() {
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func joinNames(dims []results.DimensionResult) string {
	if len(dims) == 0 {
		return "current strengths"
	}
	names := make([]string, 0, len(dims))
	for _, d := range dims {
		names = append(names, d.Name)
	}
	return strings.Join(names, ", ")
}
