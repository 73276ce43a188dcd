package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/evaluation"
	"perfeval/internal/domain/org"
	"perfeval/internal/domain/period"
	"perfeval/internal/domain/results"
)

func f(v float64) *float64 { return &v }

func strptr(v string) *string { return &v }

func result(userID, group string, total float64, box int, dims ...results.DimensionResult) results.FinalResult {
	r := results.FinalResult{PeriodID: "p1", UserID: userID, TotalPercentage: f(total), TotalScore: f(1 + total/25), Box: box, Complete: box > 0, Dimensions: dims}
	if group != "" {
		r.GroupID = strptr(group)
	}
	return r
}

func dim(id string, combined, self, supervisor float64) results.DimensionResult {
	return results.DimensionResult{DimensionID: id, Combined: f(combined), Percentage: f((combined - 1) * 25), Self: f(self), Supervisor: f(supervisor)}
}

func TestBuildOverviewEmpty(t *testing.T) {
	o := BuildOverview("p1", nil)
	assert.Equal(t, Summary{}, o.Total)
	assert.Equal(t, 0.0, o.Gini)
	require.Len(t, o.NineBox, 9)
	assert.Equal(t, "Star", o.NineBox[8].Label)
	assert.Len(t, o.Histogram, 5)
}

func TestBuildOverview(t *testing.T) {
	rs := []results.FinalResult{
		result("u1", "g1", 75, 6),
		result("u2", "g1", 75, 6),
		result("u3", "g2", 10, 0),
	}
	o := BuildOverview("p1", rs)
	assert.Equal(t, 3, o.Results)
	assert.Equal(t, 2, o.Complete)
	assert.Equal(t, 1, o.Unplaced)
	assert.Equal(t, 2, o.NineBox[5].Count)
	assert.Equal(t, 3, o.Total.Count)
	assert.Equal(t, 1, o.Histogram[0].Count)
	assert.Equal(t, 2, o.Histogram[3].Count)
	assert.Greater(t, o.Gini, 0.0)
	assert.Equal(t, 2, o.Ratings[4])
}

func TestBuildDimensionView(t *testing.T) {
	dims := []catalog.Dimension{{ID: "d1", Code: "LEAD"}, {ID: "d2", Code: "TEAM"}}
	rs := []results.FinalResult{
		result("u1", "", 50, 5, dim("d1", 3, 4, 3), dim("d2", 2, 2, 2)),
		result("u2", "", 50, 5, dim("d1", 4, 4, 4), dim("d2", 3, 3, 3)),
		result("u3", "", 50, 5, dim("d1", 5, 5, 4)),
	}
	v := BuildDimensionView("p1", dims, rs)
	require.Len(t, v.Dimensions, 2)
	assert.Equal(t, []string{"LEAD", "TEAM"}, v.Codes)
	assert.Equal(t, 3, v.Dimensions[0].Percentage.Count)
	require.NotNil(t, v.Dimensions[0].SelfSupervisorGap)
	assert.InDelta(t, 0.67, *v.Dimensions[0].SelfSupervisorGap, 1e-9)
	assert.Equal(t, 3, v.Dimensions[0].GapCount)
	assert.Equal(t, 0.0, *v.Dimensions[1].SelfSupervisorGap)

	require.Len(t, v.Correlation, 2)
	require.NotNil(t, v.Correlation[0][1])
	assert.InDelta(t, 1.0, *v.Correlation[0][1], 1e-9)
}

func TestBuildGroupStats(t *testing.T) {
	rs := []results.FinalResult{
		result("u1", "g1", 40, 5),
		result("u2", "g2", 80, 9),
		result("u3", "", 60, 5),
	}
	groups := BuildGroupStats(map[string]string{"g1": "Roads", "g2": "Parks"}, rs)
	require.Len(t, groups, 3)
	assert.Equal(t, "Parks", groups[0].GroupName)
	assert.Equal(t, "", groups[1].GroupID)
	assert.Equal(t, 40.0, groups[2].Total.Mean)
}

type fakeSources struct {
	results     []results.FinalResult
	lastFilter  results.Filter
	completion  []evaluation.Completion
	lastIDs     []string
	subordinate []org.User
}

func (f *fakeSources) Get(ctx context.Context, id string) (period.Period, error) {
	if id != "p1" {
		return period.Period{}, period.ErrNotFound
	}
	return period.Period{ID: id}, nil
}

func (f *fakeSources) List(ctx context.Context, filter results.Filter) ([]results.FinalResult, error) {
	f.lastFilter = filter
	return f.results, nil
}

func (f *fakeSources) Completion(ctx context.Context, periodID string, ids []string) ([]evaluation.Completion, error) {
	f.lastIDs = ids
	return f.completion, nil
}

func (f *fakeSources) ListDimensions(ctx context.Context, periodID string) ([]catalog.Dimension, error) {
	return []catalog.Dimension{{ID: "d1", Code: "LEAD"}}, nil
}

func (f *fakeSources) ListGroups(ctx context.Context) ([]org.Group, error) {
	return []org.Group{{ID: "g1", Name: "Roads"}}, nil
}

func (f *fakeSources) Subordinates(ctx context.Context, supervisorID string) ([]org.User, error) {
	return f.subordinate, nil
}

func TestServiceTeamLimitsToSubordinates(t *testing.T) {
	src := &fakeSources{
		results:     []results.FinalResult{result("u1", "g1", 50, 5)},
		completion:  []evaluation.Completion{{Type: "self", Total: 1, Submitted: 1, Rate: 1}},
		subordinate: []org.User{{ID: "u1"}, {ID: "u2"}},
	}
	svc := NewService(src, src, src, src, src)

	team, err := svc.Team(context.Background(), "p1", "boss")
	require.NoError(t, err)
	assert.Equal(t, 2, team.Members)
	assert.Equal(t, []string{"u1", "u2"}, src.lastFilter.UserIDs)
	assert.Equal(t, []string{"u1", "u2"}, src.lastIDs)
	assert.Len(t, team.Overview.Completion, 1)
}

func TestServiceTeamWithoutReportsIsEmpty(t *testing.T) {
	src := &fakeSources{}
	svc := NewService(src, src, src, src, src)
	team, err := svc.Team(context.Background(), "p1", "boss")
	require.NoError(t, err)
	assert.NotNil(t, src.lastFilter.UserIDs)
	assert.Equal(t, 0, team.Overview.Results)
}

func TestServiceUnknownPeriod(t *testing.T) {
	src := &fakeSources{}
	svc := NewService(src, src, src, src, src)
	_, err := svc.Overview(context.Background(), "nope")
	assert.ErrorIs(t, err, period.ErrNotFound)
	_, err = svc.Groups(context.Background(), "nope")
	assert.ErrorIs(t, err, period.ErrNotFound)
}
