package period

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"perfeval/internal/domain/scoring"
	"perfeval/internal/platform/validate"
)

// AssignmentGenerator creates the self and supervisor assignments of a period.
type AssignmentGenerator interface {
	GenerateForPeriod(ctx context.Context, periodID string) (int, error)
}

// ResultFinalizer computes and locks results when a period closes.
type ResultFinalizer interface {
	FinalizePeriod(ctx context.Context, periodID string) error
	UnlockPeriod(ctx context.Context, periodID string) error
}

type Defaults struct {
	Weights scoring.Weights
}

type Service struct {
	Store       StoreAPI
	Defaults    Defaults
	Assignments AssignmentGenerator
	Results     ResultFinalizer
}

func NewService(store StoreAPI, defaults Defaults) *Service {
	if !defaults.Weights.Valid() {
		defaults.Weights = scoring.Weights{Self: 0.3, Supervisor: 0.7}
	}
	return &Service{Store: store, Defaults: defaults}
}

type Activation struct {
	Period             Period `json:"period"`
	AssignmentsCreated int    `json:"assignmentsCreated"`
}

func (s *Service) List(ctx context.Context, status string) ([]Period, error) {
	return s.Store.List(ctx, status)
}

func (s *Service) Get(ctx context.Context, id string) (Period, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) Active(ctx context.Context) (Period, error) {
	return s.Store.Active(ctx)
}

func (s *Service) Create(ctx context.Context, input Input) (Period, error) {
	p := Period{
		ScaleMin:         DefaultScaleMin,
		ScaleMax:         DefaultScaleMax,
		SelfWeight:       s.Defaults.Weights.Self,
		SupervisorWeight: s.Defaults.Weights.Supervisor,
		PeerWeight:       s.Defaults.Weights.Peer,
		LowThreshold:     scoring.DefaultLowThreshold,
		HighThreshold:    scoring.DefaultHighThreshold,
	}
	p, err := apply(p, input)
	if err != nil {
		return Period{}, err
	}
	return s.Store.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, id string, input Input) (Period, error) {
	current, err := s.Store.Get(ctx, id)
	if err != nil {
		return Period{}, err
	}
	if current.Status != StatusDraft {
		return Period{}, ErrNotEditable
	}
	next, err := apply(current, input)
	if err != nil {
		return Period{}, err
	}
	return s.Store.Update(ctx, next)
}

// Activate moves a draft period to active and generates its assignments.
func (s *Service) Activate(ctx context.Context, id string) (Activation, error) {
	current, err := s.Store.Get(ctx, id)
	if err != nil {
		return Activation{}, err
	}
	if current.Status != StatusDraft {
		return Activation{}, ErrInvalidState
	}
	if err := s.ensureNoOtherActive(ctx, id); err != nil {
		return Activation{}, err
	}
	activated, err := s.Store.Transition(ctx, id, StatusDraft, StatusActive)
	if err != nil {
		return Activation{}, err
	}
	out := Activation{Period: activated}
	if s.Assignments != nil {
		created, err := s.Assignments.GenerateForPeriod(ctx, id)
		if err != nil {
			slog.Warn("assignment generation failed", "periodId", id, "err", err)
		}
		out.AssignmentsCreated = created
	}
	return out, nil
}

// Close computes and locks the results of an active period, then moves it to
// closed. A failed transition unlocks the results again.
func (s *Service) Close(ctx context.Context, id string) (Period, error) {
	current, err := s.Store.Get(ctx, id)
	if err != nil {
		return Period{}, err
	}
	if current.Status != StatusActive {
		return Period{}, ErrInvalidState
	}
	if s.Results != nil {
		if err := s.Results.FinalizePeriod(ctx, id); err != nil {
			return Period{}, fmt.Errorf("finalize results: %w", err)
		}
	}
	closed, err := s.Store.Transition(ctx, id, StatusActive, StatusClosed)
	if err != nil {
		if s.Results != nil {
			if unlockErr := s.Results.UnlockPeriod(ctx, id); unlockErr != nil {
				slog.Warn("results unlock after failed close failed", "periodId", id, "err", unlockErr)
			}
		}
		return Period{}, err
	}
	return closed, nil
}

// Reopen moves a closed period back to active and unlocks its results.
func (s *Service) Reopen(ctx context.Context, id string) (Period, error) {
	current, err := s.Store.Get(ctx, id)
	if err != nil {
		return Period{}, err
	}
	if current.Status != StatusClosed {
		return Period{}, ErrInvalidState
	}
	if err := s.ensureNoOtherActive(ctx, id); err != nil {
		return Period{}, err
	}
	reopened, err := s.Store.Transition(ctx, id, StatusClosed, StatusActive)
	if err != nil {
		return Period{}, err
	}
	if s.Results != nil {
		if err := s.Results.UnlockPeriod(ctx, id); err != nil {
			return reopened, fmt.Errorf("unlock results: %w", err)
		}
	}
	return reopened, nil
}

func (s *Service) ensureNoOtherActive(ctx context.Context, id string) error {
	active, err := s.Store.Active(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if active.ID != id {
		return ErrActiveExists
	}
	return nil
}

func apply(p Period, input Input) (Period, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validate.Struct(input); err != nil {
		return Period{}, err
	}
	p.Name = input.Name
	p.StartDate, _ = time.Parse(dateLayout, input.StartDate)
	p.EndDate, _ = time.Parse(dateLayout, input.EndDate)
	if input.ScaleMin != nil {
		p.ScaleMin = *input.ScaleMin
	}
	if input.ScaleMax != nil {
		p.ScaleMax = *input.ScaleMax
	}
	if input.SelfWeight != nil {
		p.SelfWeight = *input.SelfWeight
	}
	if input.SupervisorWeight != nil {
		p.SupervisorWeight = *input.SupervisorWeight
	}
	if input.PeerWeight != nil {
		p.PeerWeight = *input.PeerWeight
	}
	if input.LowThreshold != nil {
		p.LowThreshold = *input.LowThreshold
	}
	if input.HighThreshold != nil {
		p.HighThreshold = *input.HighThreshold
	}
	if err := check(p); err != nil {
		return Period{}, err
	}
	return p, nil
}

// check enforces the cross-field rules the struct tags cannot express.
func check(p Period) error {
	var issues []validate.Issue
	if p.EndDate.Before(p.StartDate) {
		issues = append(issues,
			validate.Issue{Field: "endDate", Reason: "must be on or after startDate"},
			validate.Issue{Field: "startDate", Reason: "must be on or before endDate"})
	}
	if p.ScaleMin >= p.ScaleMax {
		issues = append(issues, validate.Issue{Field: "scaleMax", Reason: "must be greater than scaleMin"})
	}
	if !p.Weights().Valid() {
		issues = append(issues, validate.Issue{Field: "weights", Reason: "selfWeight, supervisorWeight and peerWeight must each be within 0..1 and sum to 1"})
	}
	if !p.Thresholds().Valid() {
		issues = append(issues, validate.Issue{Field: "highThreshold", Reason: "must satisfy 0 < lowThreshold < highThreshold < 100"})
	}
	if len(issues) > 0 {
		return validate.NewError(issues...)
	}
	return nil
}
