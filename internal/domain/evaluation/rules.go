package evaluation

import (
	"fmt"
	"math"
	"strings"

	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/period"
	"perfeval/internal/platform/validate"
)

const maxCommentLength = 2000

// MergeResponses applies patch on top of current. Items not in patch are kept,
// items in patch replace the stored answer, and a patch entry with neither a
// score nor a comment removes the item.
func MergeResponses(current, patch map[string]Response) map[string]Response {
	out := make(map[string]Response, len(current)+len(patch))
	for id, r := range current {
		out[id] = r
	}
	for id, r := range patch {
		r.Comment = strings.TrimSpace(r.Comment)
		if r.Score == nil && r.Comment == "" {
			delete(out, id)
			continue
		}
		out[id] = r
	}
	return out
}

// applicableItems indexes the items of dims that an evaluation of evalType shows.
func applicableItems(dims []catalog.Dimension, evalType string) map[string]catalog.Item {
	out := map[string]catalog.Item{}
	for _, d := range dims {
		for _, it := range d.Items {
			if it.AppliesToType(evalType) {
				out[it.ID] = it
			}
		}
	}
	return out
}

// FilterDimensions drops items that do not apply to evalType and dimensions left empty.
func FilterDimensions(dims []catalog.Dimension, evalType string) []catalog.Dimension {
	out := make([]catalog.Dimension, 0, len(dims))
	for _, d := range dims {
		items := make([]catalog.Item, 0, len(d.Items))
		for _, it := range d.Items {
			if it.AppliesToType(evalType) {
				items = append(items, it)
			}
		}
		if len(items) == 0 {
			continue
		}
		d.Items = items
		out = append(out, d)
	}
	return out
}

// CheckPatch validates the items and scores of a draft patch.
func CheckPatch(patch map[string]Response, items map[string]catalog.Item, p period.Period) []validate.Issue {
	var issues []validate.Issue
	for id, r := range patch {
		field := "responses." + id
		if _, ok := items[id]; !ok {
			issues = append(issues, validate.Issue{Field: field, Reason: "unknown item for this evaluation"})
			continue
		}
		if len(r.Comment) > maxCommentLength {
			issues = append(issues, validate.Issue{Field: field, Reason: fmt.Sprintf("comment must be at most %d characters", maxCommentLength)})
		}
		if r.Score != nil && !inScale(*r.Score, p) {
			issues = append(issues, validate.Issue{Field: field, Reason: fmt.Sprintf("score must be between %d and %d", p.ScaleMin, p.ScaleMax)})
		}
	}
	return issues
}

// CheckSubmission requires every required applicable item to carry an integer
// score on the period scale.
func CheckSubmission(e Evaluation, items map[string]catalog.Item, p period.Period) []validate.Issue {
	var issues []validate.Issue
	for id, it := range items {
		field := "responses." + id
		r, ok := e.Responses[id]
		if !ok || r.Score == nil {
			if it.Required {
				issues = append(issues, validate.Issue{Field: field, Reason: "is required"})
			}
			continue
		}
		score := *r.Score
		if score != math.Trunc(score) || !inScale(score, p) {
			issues = append(issues, validate.Issue{Field: field, Reason: fmt.Sprintf("score must be a whole number between %d and %d", p.ScaleMin, p.ScaleMax)})
		}
	}
	for id := range e.Responses {
		if _, ok := items[id]; !ok {
			issues = append(issues, validate.Issue{Field: "responses." + id, Reason: "unknown item for this evaluation"})
		}
	}
	return issues
}

func inScale(score float64, p period.Period) bool {
	return !math.IsNaN(score) && score >= float64(p.ScaleMin) && score <= float64(p.ScaleMax)
}

// CanView decides read access to an evaluation. supervisesEvaluatee tells
// whether the caller is the evaluatee's direct supervisor.
func CanView(user auth.UserContext, a Assignment, status string, supervisesEvaluatee bool) bool {
	switch {
	case auth.IsPrivileged(user.Role):
		return true
	case user.UserID == a.EvaluatorID:
		return true
	case user.UserID == a.EvaluateeID:
		return a.Type == TypeSupervisor && status == StatusSubmitted
	case supervisesEvaluatee:
		return status == StatusSubmitted
	}
	return false
}

// CanEdit is limited to the evaluator while the evaluation is a draft.
func CanEdit(user auth.UserContext, a Assignment, status string) bool {
	return user.UserID == a.EvaluatorID && status != StatusSubmitted
}
