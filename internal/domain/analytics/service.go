package analytics

import (
	"context"

	"golang.org/x/sync/errgroup"

	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/evaluation"
	"perfeval/internal/domain/org"
	"perfeval/internal/domain/period"
	"perfeval/internal/domain/results"
)

type PeriodReader interface {
	Get(ctx context.Context, id string) (period.Period, error)
}

type ResultReader interface {
	List(ctx context.Context, filter results.Filter) ([]results.FinalResult, error)
}

type CompletionReader interface {
	Completion(ctx context.Context, periodID string, evaluateeIDs []string) ([]evaluation.Completion, error)
}

type CatalogReader interface {
	ListDimensions(ctx context.Context, periodID string) ([]catalog.Dimension, error)
}

type OrgReader interface {
	ListGroups(ctx context.Context) ([]org.Group, error)
	Subordinates(ctx context.Context, supervisorID string) ([]org.User, error)
}

type Service struct {
	Periods    PeriodReader
	Results    ResultReader
	Completion CompletionReader
	Catalog    CatalogReader
	Org        OrgReader
}

func NewService(periods PeriodReader, resultReader ResultReader, completion CompletionReader, catalogReader CatalogReader, orgReader OrgReader) *Service {
	return &Service{Periods: periods, Results: resultReader, Completion: completion, Catalog: catalogReader, Org: orgReader}
}

func (s *Service) Overview(ctx context.Context, periodID string) (Overview, error) {
	if _, err := s.Periods.Get(ctx, periodID); err != nil {
		return Overview{}, err
	}
	return s.overview(ctx, periodID, nil)
}

// overview loads results and completion concurrently. A nil userIDs covers the
// whole period.
func (s *Service) overview(ctx context.Context, periodID string, userIDs []string) (Overview, error) {
	var rs []results.FinalResult
	var completion []evaluation.Completion
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rs, err = s.Results.List(gctx, results.Filter{PeriodID: periodID, UserIDs: userIDs})
		return err
	})
	g.Go(func() error {
		var err error
		completion, err = s.Completion.Completion(gctx, periodID, userIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	out := BuildOverview(periodID, rs)
	out.Completion = completion
	return out, nil
}

func (s *Service) Dimensions(ctx context.Context, periodID string) (DimensionView, error) {
	if _, err := s.Periods.Get(ctx, periodID); err != nil {
		return DimensionView{}, err
	}
	var dims []catalog.Dimension
	var rs []results.FinalResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dims, err = s.Catalog.ListDimensions(gctx, periodID)
		return err
	})
	g.Go(func() error {
		var err error
		rs, err = s.Results.List(gctx, results.Filter{PeriodID: periodID})
		return err
	})
	if err := g.Wait(); err != nil {
		return DimensionView{}, err
	}
	return BuildDimensionView(periodID, dims, rs), nil
}

func (s *Service) Groups(ctx context.Context, periodID string) ([]GroupStats, error) {
	if _, err := s.Periods.Get(ctx, periodID); err != nil {
		return nil, err
	}
	var groups []org.Group
	var rs []results.FinalResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		groups, err = s.Org.ListGroups(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rs, err = s.Results.List(gctx, results.Filter{PeriodID: periodID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	names := make(map[string]string, len(groups))
	for _, group := range groups {
		names[group.ID] = group.Name
	}
	return BuildGroupStats(names, rs), nil
}

// Team is the overview restricted to the supervisor's direct reports.
func (s *Service) Team(ctx context.Context, periodID, supervisorID string) (TeamView, error) {
	if _, err := s.Periods.Get(ctx, periodID); err != nil {
		return TeamView{}, err
	}
	members, err := s.Org.Subordinates(ctx, supervisorID)
	if err != nil {
		return TeamView{}, err
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	overview, err := s.overview(ctx, periodID, ids)
	if err != nil {
		return TeamView{}, err
	}
	return TeamView{SupervisorID: supervisorID, Members: len(ids), Overview: overview}, nil
}
