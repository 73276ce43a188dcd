package evaluationhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/evaluation"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

type Handler struct {
	Service *evaluation.Service
	Perms   middleware.PermissionStore
	Audit   shared.AuditRecorder
}

func NewHandler(service *evaluation.Service, perms middleware.PermissionStore, auditSvc shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	admin := middleware.RequirePermission(auth.PermEvaluationsAdmin, h.Perms)
	read := middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)
	write := middleware.RequirePermission(auth.PermEvaluationsWrite, h.Perms)

	r.With(admin).Get("/periods/{periodID}/assignments", h.handleListAssignments)
	r.With(admin).Post("/periods/{periodID}/assignments", h.handleCreateAssignment)
	r.With(admin).Post("/periods/{periodID}/assignments/generate", h.handleGenerate)
	r.With(admin).Delete("/assignments/{assignmentID}", h.handleDeleteAssignment)

	r.Route("/evaluations", func(r chi.Router) {
		r.With(read).Get("/mine", h.handleMine)
		r.With(read).Get("/{assignmentID}", h.handleGet)
		r.With(write).Put("/{assignmentID}/draft", h.handleSaveDraft)
		r.With(write).Post("/{assignmentID}/submit", h.handleSubmit)
		r.With(admin).Post("/{assignmentID}/reopen", h.handleReopen)
	})
}

func (h *Handler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v := shared.NewValidator()
	v.Enum("type", q.Get("type"), evaluation.Types)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	items, err := h.Service.ListAssignments(r.Context(), evaluation.AssignmentFilter{
		PeriodID:    chi.URLParam(r, "periodID"),
		EvaluatorID: q.Get("evaluatorId"),
		EvaluateeID: q.Get("evaluateeId"),
		Type:        q.Get("type"),
	})
	if err != nil {
		shared.FailError(w, r, err, "assignment_list_failed", "failed to list assignments")
		return
	}
	shared.SetTotal(w, len(items))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var input evaluation.AssignmentInput
	if !shared.Decode(w, r, &input) {
		return
	}
	created, err := h.Service.CreateAssignment(r.Context(), chi.URLParam(r, "periodID"), input)
	if err != nil {
		shared.FailError(w, r, err, "assignment_create_failed", "failed to create assignment")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "assignments.create", "assignment", created.ID, nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	periodID := chi.URLParam(r, "periodID")
	created, err := h.Service.GenerateForPeriod(r.Context(), periodID)
	if err != nil {
		shared.FailError(w, r, err, "assignment_generate_failed", "failed to generate assignments")
		return
	}
	summary := map[string]any{"periodId": periodID, "created": created}
	shared.RecordAudit(r, h.Audit, user, "assignments.generate", "period", periodID, nil, summary)
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	assignmentID := chi.URLParam(r, "assignmentID")
	deleted, err := h.Service.DeleteAssignment(r.Context(), assignmentID)
	if err != nil {
		shared.FailError(w, r, err, "assignment_delete_failed", "failed to delete assignment")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "assignments.delete", "assignment", assignmentID, deleted, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	items, err := h.Service.Mine(r.Context(), user.UserID, r.URL.Query().Get("periodId"))
	if err != nil {
		shared.FailError(w, r, err, "assignment_list_failed", "failed to list assignments")
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	view, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "assignmentID"))
	if err != nil {
		shared.FailError(w, r, err, "evaluation_get_failed", "failed to load evaluation")
		return
	}
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}

// handleSaveDraft is the autosave target. Drafts are not audited; submit is.
func (h *Handler) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var input evaluation.DraftInput
	if !shared.Decode(w, r, &input) {
		return
	}
	saved, err := h.Service.SaveDraft(r.Context(), user, chi.URLParam(r, "assignmentID"), input)
	if err != nil {
		shared.FailError(w, r, err, "evaluation_save_failed", "failed to save draft")
		return
	}
	api.Success(w, saved, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	var input evaluation.DraftInput
	if !shared.DecodeOptional(w, r, &input) {
		return
	}
	assignmentID := chi.URLParam(r, "assignmentID")
	submitted, err := h.Service.Submit(r.Context(), user, assignmentID, input)
	if err != nil {
		shared.FailError(w, r, err, "evaluation_submit_failed", "failed to submit evaluation")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "evaluations.submit", "evaluation", submitted.ID, nil, submitted)
	api.Success(w, submitted, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReopen(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	reopened, err := h.Service.Reopen(r.Context(), chi.URLParam(r, "assignmentID"))
	if err != nil {
		shared.FailError(w, r, err, "evaluation_reopen_failed", "failed to reopen evaluation")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "evaluations.reopen", "evaluation", reopened.ID, nil, reopened)
	api.Success(w, reopened, middleware.GetRequestID(r.Context()))
}
