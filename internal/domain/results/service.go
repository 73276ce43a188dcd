package results

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/evaluation"
	"perfeval/internal/domain/period"
)

type PeriodReader interface {
	Get(ctx context.Context, id string) (period.Period, error)
}

type CatalogReader interface {
	ListDimensions(ctx context.Context, periodID string) ([]catalog.Dimension, error)
}

type EvaluationReader interface {
	SubmittedForPeriod(ctx context.Context, periodID, evaluateeID string) ([]evaluation.Evaluation, error)
}

type Service struct {
	Store       StoreAPI
	Periods     PeriodReader
	Catalog     CatalogReader
	Evaluations EvaluationReader
	Now         func() time.Time
}

func NewService(store StoreAPI, periods PeriodReader, catalogReader CatalogReader, evaluations EvaluationReader) *Service {
	return &Service{Store: store, Periods: periods, Catalog: catalogReader, Evaluations: evaluations, Now: time.Now}
}

// ComputeUser recomputes one evaluatee. Closed periods are frozen.
func (s *Service) ComputeUser(ctx context.Context, periodID, userID string) (FinalResult, error) {
	p, err := s.Periods.Get(ctx, periodID)
	if err != nil {
		return FinalResult{}, err
	}
	if p.Status == period.StatusClosed {
		return FinalResult{}, ErrLocked
	}
	dims, err := s.Catalog.ListDimensions(ctx, periodID)
	if err != nil {
		return FinalResult{}, err
	}
	evals, err := s.Evaluations.SubmittedForPeriod(ctx, periodID, userID)
	if err != nil {
		return FinalResult{}, err
	}
	r := Compute(p, userID, dims, evals, s.now())
	if err := s.Store.Upsert(ctx, r); err != nil {
		return FinalResult{}, err
	}
	return r, nil
}

// ComputePeriod recomputes every evaluatee of an open period.
func (s *Service) ComputePeriod(ctx context.Context, periodID string) (ComputeSummary, error) {
	p, err := s.Periods.Get(ctx, periodID)
	if err != nil {
		return ComputeSummary{}, err
	}
	if p.Status == period.StatusClosed {
		return ComputeSummary{}, ErrLocked
	}
	return s.computeAll(ctx, p)
}

func (s *Service) computeAll(ctx context.Context, p period.Period) (ComputeSummary, error) {
	summary := ComputeSummary{PeriodID: p.ID}
	dims, err := s.Catalog.ListDimensions(ctx, p.ID)
	if err != nil {
		return summary, err
	}
	userIDs, err := s.Store.Evaluatees(ctx, p.ID)
	if err != nil {
		return summary, err
	}
	evals, err := s.Evaluations.SubmittedForPeriod(ctx, p.ID, "")
	if err != nil {
		return summary, err
	}
	byUser := map[string][]evaluation.Evaluation{}
	for _, e := range evals {
		byUser[e.EvaluateeID] = append(byUser[e.EvaluateeID], e)
	}

	now := s.now()
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		r := Compute(p, userID, dims, byUser[userID], now)
		err := s.Store.Upsert(ctx, r)
		if errors.Is(err, ErrLocked) {
			summary.Skipped++
			continue
		}
		if err != nil {
			return summary, err
		}
		summary.Computed++
	}
	return summary, nil
}

// FinalizePeriod computes every result of a period that is being closed and locks them.
func (s *Service) FinalizePeriod(ctx context.Context, periodID string) error {
	p, err := s.Periods.Get(ctx, periodID)
	if err != nil {
		return err
	}
	summary, err := s.computeAll(ctx, p)
	if err != nil {
		return err
	}
	locked, err := s.Store.SetLocked(ctx, periodID, true)
	if err != nil {
		return err
	}
	slog.Info("period results finalized", "periodId", periodID, "computed", summary.Computed, "locked", locked)
	return nil
}

func (s *Service) UnlockPeriod(ctx context.Context, periodID string) error {
	_, err := s.Store.SetLocked(ctx, periodID, false)
	return err
}

func (s *Service) Get(ctx context.Context, periodID, userID string) (FinalResult, error) {
	return s.Store.Get(ctx, periodID, userID)
}

func (s *Service) List(ctx context.Context, filter Filter) ([]FinalResult, error) {
	if _, err := s.Periods.Get(ctx, filter.PeriodID); err != nil {
		return nil, err
	}
	return s.Store.List(ctx, filter)
}

func (s *Service) Gaps(ctx context.Context, periodID, userID string) ([]Gap, error) {
	r, err := s.Store.Get(ctx, periodID, userID)
	if err != nil {
		return nil, err
	}
	return Gaps(r), nil
}

// CanView lets users see their own result, supervisors their direct reports
// and privileged roles everyone.
func CanView(user auth.UserContext, userID string, supervises bool) bool {
	return auth.IsPrivileged(user.Role) || user.UserID == userID || supervises
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
