package evaluation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/notifications"
	"perfeval/internal/domain/org"
	"perfeval/internal/domain/period"
	"perfeval/internal/domain/scoring"
	"perfeval/internal/platform/validate"
)

type PeriodReader interface {
	Get(ctx context.Context, id string) (period.Period, error)
	Active(ctx context.Context) (period.Period, error)
}

type CatalogReader interface {
	ListDimensions(ctx context.Context, periodID string) ([]catalog.Dimension, error)
}

type OrgReader interface {
	ActiveUsers(ctx context.Context) ([]org.User, error)
	IsSupervisorOf(ctx context.Context, supervisorID, userID string) (bool, error)
}

type Notifier interface {
	Create(ctx context.Context, userID, notificationType, title, body string) error
}

// RecomputeQueue schedules a final-result recomputation for one evaluatee.
type RecomputeQueue interface {
	EnqueueRecompute(periodID, userID string)
}

type Service struct {
	Store     StoreAPI
	Periods   PeriodReader
	Catalog   CatalogReader
	Org       OrgReader
	Notify    Notifier
	Recompute RecomputeQueue
	Now       func() time.Time
}

func NewService(store StoreAPI, periods PeriodReader, catalogReader CatalogReader, orgReader OrgReader) *Service {
	return &Service{Store: store, Periods: periods, Catalog: catalogReader, Org: orgReader, Now: time.Now}
}

// GenerateForPeriod gives every active user a self assignment and, when they
// have an active supervisor, a supervisor assignment. Existing rows are kept.
func (s *Service) GenerateForPeriod(ctx context.Context, periodID string) (int, error) {
	users, err := s.Org.ActiveUsers(ctx)
	if err != nil {
		return 0, err
	}
	active := make(map[string]bool, len(users))
	for _, u := range users {
		active[u.ID] = true
	}
	planned := make([]Assignment, 0, len(users)*2)
	for _, u := range users {
		planned = append(planned, Assignment{PeriodID: periodID, EvaluatorID: u.ID, EvaluateeID: u.ID, Type: TypeSelf})
		if u.SupervisorID != nil && active[*u.SupervisorID] {
			planned = append(planned, Assignment{PeriodID: periodID, EvaluatorID: *u.SupervisorID, EvaluateeID: u.ID, Type: TypeSupervisor})
		}
	}
	created, err := s.Store.InsertAssignments(ctx, planned)
	if err != nil {
		return 0, err
	}

	perEvaluator := map[string]int{}
	for _, a := range created {
		perEvaluator[a.EvaluatorID]++
	}
	for evaluatorID, count := range perEvaluator {
		s.notify(ctx, evaluatorID, notifications.TypeAssignmentCreated, "New evaluations assigned",
			fmt.Sprintf("You have %d new evaluation(s) to complete.", count))
	}
	return len(created), nil
}

func (s *Service) ListAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error) {
	if _, err := s.Periods.Get(ctx, filter.PeriodID); err != nil {
		return nil, err
	}
	return s.Store.ListAssignments(ctx, filter)
}

func (s *Service) CreateAssignment(ctx context.Context, periodID string, input AssignmentInput) (Assignment, error) {
	input.Type = strings.ToLower(strings.TrimSpace(input.Type))
	if err := validate.Struct(input); err != nil {
		return Assignment{}, err
	}
	if input.Type == TypeSelf && input.EvaluatorID != input.EvaluateeID {
		return Assignment{}, validate.NewError(validate.Issue{Field: "evaluatorId", Reason: "must equal evaluateeId for self assignments"})
	}
	if input.Type != TypeSelf && input.EvaluatorID == input.EvaluateeID {
		return Assignment{}, validate.NewError(validate.Issue{Field: "evaluatorId", Reason: "must differ from evaluateeId"})
	}
	p, err := s.Periods.Get(ctx, periodID)
	if err != nil {
		return Assignment{}, err
	}
	if p.Status == period.StatusClosed {
		return Assignment{}, ErrPeriodNotOpen
	}
	a, err := s.Store.CreateAssignment(ctx, Assignment{PeriodID: periodID, EvaluatorID: input.EvaluatorID, EvaluateeID: input.EvaluateeID, Type: input.Type})
	if err != nil {
		return Assignment{}, err
	}
	if p.Status == period.StatusActive {
		s.notify(ctx, a.EvaluatorID, notifications.TypeAssignmentCreated, "New evaluation assigned",
			"A new "+a.Type+" evaluation has been assigned to you.")
	}
	return a, nil
}

func (s *Service) DeleteAssignment(ctx context.Context, id string) (Assignment, error) {
	a, err := s.Store.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if a.EvaluationStatus == StatusSubmitted {
		return Assignment{}, ErrHasSubmission
	}
	return a, s.Store.DeleteAssignment(ctx, id)
}

// Mine lists the caller's assignments as evaluator. An empty periodID means the active period.
func (s *Service) Mine(ctx context.Context, userID, periodID string) ([]Assignment, error) {
	if periodID == "" {
		active, err := s.Periods.Active(ctx)
		if errors.Is(err, period.ErrNotFound) {
			return []Assignment{}, nil
		}
		if err != nil {
			return nil, err
		}
		periodID = active.ID
	}
	return s.Store.ListAssignments(ctx, AssignmentFilter{PeriodID: periodID, EvaluatorID: userID})
}

func (s *Service) Get(ctx context.Context, user auth.UserContext, assignmentID string) (View, error) {
	a, err := s.Store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return View{}, err
	}
	e, err := s.current(ctx, a)
	if err != nil {
		return View{}, err
	}
	supervises := false
	if !auth.IsPrivileged(user.Role) && user.UserID != a.EvaluatorID && user.UserID != a.EvaluateeID {
		if supervises, err = s.Org.IsSupervisorOf(ctx, user.UserID, a.EvaluateeID); err != nil {
			return View{}, err
		}
	}
	if !CanView(user, a, e.Status, supervises) {
		return View{}, ErrForbidden
	}
	p, err := s.Periods.Get(ctx, a.PeriodID)
	if err != nil {
		return View{}, err
	}
	dims, err := s.Catalog.ListDimensions(ctx, a.PeriodID)
	if err != nil {
		return View{}, err
	}
	return View{
		Assignment: a,
		Evaluation: e,
		Period:     p,
		Dimensions: FilterDimensions(dims, a.Type),
		Editable:   CanEdit(user, a, e.Status) && p.Status == period.StatusActive,
	}, nil
}

// SaveDraft merges an autosave patch into the stored draft.
func (s *Service) SaveDraft(ctx context.Context, user auth.UserContext, assignmentID string, input DraftInput) (Evaluation, error) {
	if err := validate.Struct(input); err != nil {
		return Evaluation{}, err
	}
	a, p, items, err := s.prepareWrite(ctx, user, assignmentID)
	if err != nil {
		return Evaluation{}, err
	}
	if p.Status != period.StatusActive {
		return Evaluation{}, ErrPeriodNotOpen
	}
	if issues := CheckPatch(input.Responses, items, p); len(issues) > 0 {
		return Evaluation{}, validate.NewError(issues...)
	}
	return s.merge(ctx, a, input)
}

func (s *Service) merge(ctx context.Context, a Assignment, input DraftInput) (Evaluation, error) {
	for attempt := 0; attempt < draftRetries; attempt++ {
		current, err := s.current(ctx, a)
		if err != nil {
			return Evaluation{}, err
		}
		if current.Status == StatusSubmitted {
			return Evaluation{}, ErrAlreadySubmitted
		}
		if input.BaseVersion != nil && *input.BaseVersion != current.Version {
			return Evaluation{}, ErrConflict
		}
		next := current
		next.Responses = MergeResponses(current.Responses, input.Responses)
		if input.GeneralComment != nil {
			next.GeneralComment = strings.TrimSpace(*input.GeneralComment)
		}
		saved, err := s.Store.SaveDraft(ctx, next)
		if errors.Is(err, ErrConflict) && input.BaseVersion == nil {
			continue
		}
		return saved, err
	}
	return Evaluation{}, ErrConflict
}

// Submit flushes any pending patch, validates completeness and freezes the evaluation.
func (s *Service) Submit(ctx context.Context, user auth.UserContext, assignmentID string, input DraftInput) (Evaluation, error) {
	if err := validate.Struct(input); err != nil {
		return Evaluation{}, err
	}
	a, p, items, err := s.prepareWrite(ctx, user, assignmentID)
	if err != nil {
		return Evaluation{}, err
	}
	if !p.AcceptsSubmissions(s.now()) {
		return Evaluation{}, ErrPeriodNotOpen
	}
	if issues := CheckPatch(input.Responses, items, p); len(issues) > 0 {
		return Evaluation{}, validate.NewError(issues...)
	}

	current, err := s.current(ctx, a)
	if err != nil {
		return Evaluation{}, err
	}
	if current.Status == StatusSubmitted {
		return Evaluation{}, ErrAlreadySubmitted
	}
	if input.BaseVersion != nil && *input.BaseVersion != current.Version {
		return Evaluation{}, ErrConflict
	}
	if current.ID == "" || len(input.Responses) > 0 || input.GeneralComment != nil {
		input.BaseVersion = &current.Version
		if current, err = s.merge(ctx, a, input); err != nil {
			return Evaluation{}, err
		}
	}
	if issues := CheckSubmission(current, items, p); len(issues) > 0 {
		return Evaluation{}, validate.NewError(issues...)
	}

	submitted, err := s.Store.MarkSubmitted(ctx, current.ID, current.Version)
	if err != nil {
		return Evaluation{}, err
	}
	if s.Recompute != nil {
		s.Recompute.EnqueueRecompute(a.PeriodID, a.EvaluateeID)
	}
	if a.Type == TypeSupervisor {
		s.notify(ctx, a.EvaluateeID, notifications.TypeEvaluationSubmitted, "Supervisor evaluation available",
			"Your supervisor has submitted your evaluation for "+p.Name+".")
	}
	return submitted, nil
}

// Reopen returns a submitted evaluation to draft so its evaluator can change it.
func (s *Service) Reopen(ctx context.Context, assignmentID string) (Evaluation, error) {
	a, err := s.Store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Evaluation{}, err
	}
	p, err := s.Periods.Get(ctx, a.PeriodID)
	if err != nil {
		return Evaluation{}, err
	}
	if p.Status != period.StatusActive {
		return Evaluation{}, ErrPeriodNotOpen
	}
	current, err := s.Store.GetByAssignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Evaluation{}, ErrNotSubmitted
		}
		return Evaluation{}, err
	}
	reopened, err := s.Store.MarkDraft(ctx, current.ID)
	if err != nil {
		return Evaluation{}, err
	}
	if s.Recompute != nil {
		s.Recompute.EnqueueRecompute(a.PeriodID, a.EvaluateeID)
	}
	s.notify(ctx, a.EvaluatorID, notifications.TypeEvaluationReopened, "Evaluation reopened",
		"An evaluation you submitted for "+p.Name+" was reopened for changes.")
	return reopened, nil
}

func (s *Service) SubmittedForPeriod(ctx context.Context, periodID, evaluateeID string) ([]Evaluation, error) {
	return s.Store.ListSubmitted(ctx, periodID, evaluateeID)
}

// Completion reports submission progress per evaluation type. A nil
// evaluateeIDs covers the whole period.
func (s *Service) Completion(ctx context.Context, periodID string, evaluateeIDs []string) ([]Completion, error) {
	counts, err := s.Store.Completion(ctx, periodID, evaluateeIDs)
	if err != nil {
		return nil, err
	}
	for i := range counts {
		if counts[i].Total > 0 {
			counts[i].Rate = scoring.Round(float64(counts[i].Submitted)/float64(counts[i].Total)*100, 2)
		}
	}
	return counts, nil
}

func (s *Service) prepareWrite(ctx context.Context, user auth.UserContext, assignmentID string) (Assignment, period.Period, map[string]catalog.Item, error) {
	a, err := s.Store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Assignment{}, period.Period{}, nil, err
	}
	if user.UserID != a.EvaluatorID {
		return Assignment{}, period.Period{}, nil, ErrForbidden
	}
	p, err := s.Periods.Get(ctx, a.PeriodID)
	if err != nil {
		return Assignment{}, period.Period{}, nil, err
	}
	dims, err := s.Catalog.ListDimensions(ctx, a.PeriodID)
	if err != nil {
		return Assignment{}, period.Period{}, nil, err
	}
	return a, p, applicableItems(dims, a.Type), nil
}

// current loads the stored evaluation or an unsaved blank draft for a.
func (s *Service) current(ctx context.Context, a Assignment) (Evaluation, error) {
	e, err := s.Store.GetByAssignment(ctx, a.ID)
	if errors.Is(err, ErrNotFound) {
		return Evaluation{
			AssignmentID: a.ID,
			PeriodID:     a.PeriodID,
			EvaluatorID:  a.EvaluatorID,
			EvaluateeID:  a.EvaluateeID,
			Type:         a.Type,
			Status:       StatusDraft,
			Responses:    map[string]Response{},
		}, nil
	}
	return e, err
}

func (s *Service) notify(ctx context.Context, userID, notificationType, title, body string) {
	if s.Notify == nil {
		return
	}
	if err := s.Notify.Create(ctx, userID, notificationType, title, body); err != nil {
		slog.Warn("notification failed", "type", notificationType, "err", err)
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
