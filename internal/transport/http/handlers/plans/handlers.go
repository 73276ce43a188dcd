package planshandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/devplan"
	"perfeval/internal/platform/jobs"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

// Runner records a synchronous job run.
type Runner interface {
	RunNow(ctx context.Context, jobType, key string, run func(context.Context) (any, error)) (any, error)
}

type Handler struct {
	Service     *devplan.Service
	Perms       middleware.PermissionStore
	Audit       shared.AuditRecorder
	Idempotency middleware.IdempotencyBackend
	Jobs        Runner
}

// Generated is the generate response. It carries no plan text because it is
// kept in the idempotency table; clients load the plan with GET /plans/{id}.
type Generated struct {
	ID       string `json:"id"`
	PeriodID string `json:"periodId"`
	UserID   string `json:"userId"`
	Status   string `json:"status"`
	Source   string `json:"source"`
}

func newGenerated(p devplan.Plan) Generated {
	return Generated{ID: p.ID, PeriodID: p.PeriodID, UserID: p.UserID, Status: p.Status, Source: p.Source}
}

func NewHandler(service *devplan.Service, perms middleware.PermissionStore, auditSvc shared.AuditRecorder, idempotency middleware.IdempotencyBackend, runner Runner) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Idempotency: idempotency, Jobs: runner}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermPlansRead, h.Perms)).Get("/periods/{periodID}/plans", h.handleList)
	r.With(
		middleware.RequirePermission(auth.PermPlansWrite, h.Perms),
		middleware.Idempotent(h.Idempotency, "devplans.generate"),
	).Post("/periods/{periodID}/plans/{userID}/generate", h.handleGenerate)

	r.Route("/plans/{planID}", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPlansRead, h.Perms)).Get("/", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermPlansWrite, h.Perms)).Put("/", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermPlansApprove, h.Perms)).Post("/approve", h.handleApprove)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	plans, err := h.Service.List(r.Context(), user, chi.URLParam(r, "periodID"))
	if err != nil {
		shared.FailError(w, r, err, "plan_list_failed", "failed to list plans")
		return
	}
	shared.SetTotal(w, len(plans))
	api.Success(w, plans, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	periodID := chi.URLParam(r, "periodID")
	userID := chi.URLParam(r, "userID")

	var generated Generated
	generate := func(ctx context.Context) (any, error) {
		plan, err := h.Service.Generate(ctx, user, periodID, userID)
		if err != nil {
			return nil, err
		}
		generated = newGenerated(plan)
		return generated, nil
	}
	var err error
	if h.Jobs != nil {
		_, err = h.Jobs.RunNow(r.Context(), jobs.JobPlanGenerate, periodID+"/"+userID, generate)
	} else {
		_, err = generate(r.Context())
	}
	if err != nil {
		shared.FailError(w, r, err, "plan_generate_failed", "failed to generate plan")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "devplans.generate", "development_plan", generated.ID, nil, map[string]string{"userId": userID, "source": generated.Source})
	api.Created(w, generated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	plan, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "planID"))
	if err != nil {
		shared.FailError(w, r, err, "plan_get_failed", "failed to load plan")
		return
	}
	api.Success(w, plan, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var input devplan.UpdateInput
	if !shared.Decode(w, r, &input) {
		return
	}
	planID := chi.URLParam(r, "planID")
	plan, err := h.Service.Update(r.Context(), user, planID, input)
	if err != nil {
		shared.FailError(w, r, err, "plan_update_failed", "failed to update plan")
		return
	}
	// Plan text is personal data; the audit trail only keeps the fact of the edit.
	shared.RecordAudit(r, h.Audit, user, "devplans.update", "development_plan", planID, nil, map[string]string{"source": plan.Source})
	api.Success(w, plan, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	planID := chi.URLParam(r, "planID")
	plan, err := h.Service.Approve(r.Context(), user, planID)
	if err != nil {
		shared.FailError(w, r, err, "plan_approve_failed", "failed to approve plan")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "devplans.approve", "development_plan", planID, nil, map[string]string{"status": plan.Status})
	api.Success(w, plan, middleware.GetRequestID(r.Context()))
}
