package devplan

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/notifications"
	"perfeval/internal/domain/org"
	"perfeval/internal/domain/results"
	"perfeval/internal/platform/ai"
	"perfeval/internal/platform/validate"
)

type ResultReader interface {
	Get(ctx context.Context, periodID, userID string) (results.FinalResult, error)
}

type OrgReader interface {
	IsSupervisorOf(ctx context.Context, supervisorID, userID string) (bool, error)
	Subordinates(ctx context.Context, supervisorID string) ([]org.User, error)
}

type Notifier interface {
	Create(ctx context.Context, userID, notificationType, title, body string) error
}

type GenerationRecorder interface {
	RecordPlanGeneration(source string)
}

type Service struct {
	Store   StoreAPI
	Results ResultReader
	Org     OrgReader
	// AI is nil when generation is disabled; plans then come from Heuristic.
	AI      ai.Completer
	Notify  Notifier
	Metrics GenerationRecorder
	Now     func() time.Time
}

func NewService(store StoreAPI, resultReader ResultReader, orgReader OrgReader, completer ai.Completer) *Service {
	return &Service{Store: store, Results: resultReader, Org: orgReader, AI: completer, Now: time.Now}
}

// Generate creates or replaces the draft plan of userID for the period.
func (s *Service) Generate(ctx context.Context, user auth.UserContext, periodID, userID string) (Plan, error) {
	if err := s.requireManager(ctx, user, userID); err != nil {
		return Plan{}, err
	}
	existing, err := s.Store.GetFor(ctx, periodID, userID)
	switch {
	case err == nil && existing.Status == StatusApproved:
		return Plan{}, ErrApproved
	case err != nil && !errors.Is(err, ErrNotFound):
		return Plan{}, err
	}

	r, err := s.Results.Get(ctx, periodID, userID)
	if errors.Is(err, results.ErrNotFound) {
		return Plan{}, ErrNoResult
	}
	if err != nil {
		return Plan{}, err
	}

	content, source := s.generate(ctx, SelectFocus(r))
	plan, err := s.Store.Save(ctx, Plan{
		PeriodID:  periodID,
		UserID:    userID,
		Source:    source,
		Content:   content,
		CreatedBy: user.UserID,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return Plan{}, err
	}
	if s.Metrics != nil {
		s.Metrics.RecordPlanGeneration(source)
	}
	s.notify(ctx, userID, notifications.TypePlanGenerated, "Development plan drafted", "A development plan draft is ready for review with your supervisor.")
	return plan, nil
}

// generate asks the model first and falls back to Heuristic on any failure.
func (s *Service) generate(ctx context.Context, f Focus) (Content, string) {
	if s.AI == nil || len(f.Strengths)+len(f.Improvements) == 0 {
		return Heuristic(f), SourceHeuristic
	}
	reply, err := s.AI.Complete(ctx, systemPrompt, BuildPrompt(f))
	if err != nil {
		slog.Warn("ai plan generation failed", "err", err)
		return Heuristic(f), SourceHeuristic
	}
	content, err := ParseReply(reply)
	if err != nil {
		slog.Warn("ai plan reply rejected", "err", err)
		return Heuristic(f), SourceHeuristic
	}
	return content, SourceAI
}

// Update replaces the plan content; the plan becomes manually sourced.
func (s *Service) Update(ctx context.Context, user auth.UserContext, id string, input UpdateInput) (Plan, error) {
	if err := validate.Struct(input); err != nil {
		return Plan{}, err
	}
	plan, err := s.Store.Get(ctx, id)
	if err != nil {
		return Plan{}, err
	}
	if err := s.requireManager(ctx, user, plan.UserID); err != nil {
		return Plan{}, err
	}
	if plan.Status == StatusApproved {
		return Plan{}, ErrApproved
	}
	content := Content{
		Summary:          input.Summary,
		Strengths:        nonNil(input.Strengths),
		ImprovementAreas: nonNil(input.ImprovementAreas),
		Actions:          input.Actions,
	}
	if content.Actions == nil {
		content.Actions = []Action{}
	}
	if err := s.Store.UpdateContent(ctx, id, content, SourceManual, s.now()); err != nil {
		return Plan{}, err
	}
	return s.Store.Get(ctx, id)
}

// Approve is allowed to the user's supervisor and privileged roles, never to
// the plan's own subject.
func (s *Service) Approve(ctx context.Context, user auth.UserContext, id string) (Plan, error) {
	plan, err := s.Store.Get(ctx, id)
	if err != nil {
		return Plan{}, err
	}
	if plan.UserID == user.UserID {
		return Plan{}, ErrForbidden
	}
	if err := s.requireManager(ctx, user, plan.UserID); err != nil {
		return Plan{}, err
	}
	if plan.Status == StatusApproved {
		return Plan{}, ErrApproved
	}
	if err := s.Store.Approve(ctx, id, user.UserID, s.now()); err != nil {
		return Plan{}, err
	}
	s.notify(ctx, plan.UserID, notifications.TypePlanApproved, "Development plan approved", "Your development plan has been approved.")
	return s.Store.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, user auth.UserContext, id string) (Plan, error) {
	plan, err := s.Store.Get(ctx, id)
	if err != nil {
		return Plan{}, err
	}
	if plan.UserID == user.UserID {
		return plan, nil
	}
	if err := s.requireManager(ctx, user, plan.UserID); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// List returns every plan of the period for privileged roles, otherwise the
// caller's own plan and those of their direct reports.
func (s *Service) List(ctx context.Context, user auth.UserContext, periodID string) ([]Plan, error) {
	if auth.IsPrivileged(user.Role) {
		return s.Store.List(ctx, periodID, nil)
	}
	ids := []string{user.UserID}
	reports, err := s.Org.Subordinates(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	for _, u := range reports {
		ids = append(ids, u.ID)
	}
	return s.Store.List(ctx, periodID, ids)
}

func (s *Service) requireManager(ctx context.Context, user auth.UserContext, userID string) error {
	if auth.IsPrivileged(user.Role) {
		return nil
	}
	ok, err := s.Org.IsSupervisorOf(ctx, user.UserID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
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

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
