package resultshandler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/org"
	"perfeval/internal/domain/period"
	"perfeval/internal/domain/results"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

type OrgReader interface {
	IsSupervisorOf(ctx context.Context, supervisorID, userID string) (bool, error)
	Subordinates(ctx context.Context, supervisorID string) ([]org.User, error)
}

// PeriodQueue runs period recomputation in the background.
type PeriodQueue interface {
	EnqueuePeriod(periodID string) bool
}

type Handler struct {
	Service *results.Service
	Org     OrgReader
	Perms   middleware.PermissionStore
	Audit   shared.AuditRecorder
	// Queue is optional; without it compute runs inline.
	Queue PeriodQueue
}

func NewHandler(service *results.Service, orgReader OrgReader, perms middleware.PermissionStore, auditSvc shared.AuditRecorder, queue PeriodQueue) *Handler {
	return &Handler{Service: service, Org: orgReader, Perms: perms, Audit: auditSvc, Queue: queue}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/periods/{periodID}/results", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermResultsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermResultsCompute, h.Perms)).Post("/compute", h.handleCompute)
		r.With(middleware.RequirePermission(auth.PermResultsRead, h.Perms)).Get("/{userID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermResultsRead, h.Perms)).Get("/{userID}/gaps", h.handleGaps)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := results.Filter{PeriodID: chi.URLParam(r, "periodID"), GroupID: q.Get("groupId")}
	if raw := q.Get("box"); raw != "" {
		box, err := strconv.Atoi(raw)
		if err != nil || box < 1 || box > 9 {
			v := shared.NewValidator()
			v.Add("box", "must be an integer between 1 and 9")
			v.Reject(w, middleware.GetRequestID(r.Context()))
			return
		}
		filter.Box = box
	}
	if !auth.IsPrivileged(user.Role) {
		ids, err := h.visibleUsers(r.Context(), user)
		if err != nil {
			shared.FailError(w, r, err, "result_list_failed", "failed to list results")
			return
		}
		filter.UserIDs = ids
	}

	items, err := h.Service.List(r.Context(), filter)
	if err != nil {
		shared.FailError(w, r, err, "result_list_failed", "failed to list results")
		return
	}
	shared.SetTotal(w, len(items))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) visibleUsers(ctx context.Context, user auth.UserContext) ([]string, error) {
	subs, err := h.Org.Subordinates(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(subs)+1)
	ids = append(ids, user.UserID)
	for _, s := range subs {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func (h *Handler) handleCompute(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	periodID := chi.URLParam(r, "periodID")
	if h.Queue != nil && r.URL.Query().Get("wait") != "true" {
		p, err := h.Service.Periods.Get(r.Context(), periodID)
		if err != nil {
			shared.FailError(w, r, err, "result_compute_failed", "failed to compute results")
			return
		}
		if p.Status == period.StatusClosed {
			shared.FailError(w, r, results.ErrLocked, "result_compute_failed", "failed to compute results")
			return
		}
		if !h.Queue.EnqueuePeriod(periodID) {
			api.Fail(w, http.StatusServiceUnavailable, "queue_full", "job queue is full, try again later", middleware.GetRequestID(r.Context()))
			return
		}
		shared.RecordAudit(r, h.Audit, user, "results.compute", "period", periodID, nil, map[string]string{"mode": "queued"})
		api.Accepted(w, map[string]string{"periodId": periodID, "status": "queued"}, middleware.GetRequestID(r.Context()))
		return
	}

	summary, err := h.Service.ComputePeriod(r.Context(), periodID)
	if err != nil {
		shared.FailError(w, r, err, "result_compute_failed", "failed to compute results")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "results.compute", "period", periodID, nil, summary)
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	result, err := h.Service.Get(r.Context(), chi.URLParam(r, "periodID"), userID)
	if err != nil {
		shared.FailError(w, r, err, "result_get_failed", "failed to load result")
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGaps(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}
	gaps, err := h.Service.Gaps(r.Context(), chi.URLParam(r, "periodID"), userID)
	if err != nil {
		shared.FailError(w, r, err, "result_gaps_failed", "failed to load gaps")
		return
	}
	api.Success(w, gaps, middleware.GetRequestID(r.Context()))
}

// authorize resolves the {userID} parameter and checks the caller may see it.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return "", false
	}
	userID := chi.URLParam(r, "userID")
	if userID == "me" {
		userID = user.UserID
	}
	supervises := false
	if !auth.IsPrivileged(user.Role) && user.UserID != userID {
		var err error
		if supervises, err = h.Org.IsSupervisorOf(r.Context(), user.UserID, userID); err != nil {
			shared.FailError(w, r, err, "result_get_failed", "failed to load result")
			return "", false
		}
	}
	if !results.CanView(user, userID, supervises) {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed to view this result", middleware.GetRequestID(r.Context()))
		return "", false
	}
	return userID, true
}
