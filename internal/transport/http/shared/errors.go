package shared

import (
	"errors"
	"log/slog"
	"net/http"

	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/devplan"
	"perfeval/internal/domain/evaluation"
	"perfeval/internal/domain/notifications"
	"perfeval/internal/domain/org"
	"perfeval/internal/domain/period"
	"perfeval/internal/domain/results"
	"perfeval/internal/platform/validate"
	"perfeval/internal/transport/http/api"
	"perfeval/internal/transport/http/middleware"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{org.ErrNotFound, http.StatusNotFound, "not_found"},
	{period.ErrNotFound, http.StatusNotFound, "not_found"},
	{catalog.ErrNotFound, http.StatusNotFound, "not_found"},
	{evaluation.ErrNotFound, http.StatusNotFound, "not_found"},
	{results.ErrNotFound, http.StatusNotFound, "not_found"},
	{devplan.ErrNotFound, http.StatusNotFound, "not_found"},
	{notifications.ErrNotFound, http.StatusNotFound, "not_found"},

	{evaluation.ErrForbidden, http.StatusForbidden, "forbidden"},
	{devplan.ErrForbidden, http.StatusForbidden, "forbidden"},

	{org.ErrSelfSupervisor, http.StatusBadRequest, "invalid_payload"},
	{org.ErrSupervisorUnknown, http.StatusBadRequest, "invalid_payload"},
	{org.ErrSupervisorCycle, http.StatusBadRequest, "invalid_payload"},
	{org.ErrGroupUnknown, http.StatusBadRequest, "invalid_payload"},

	{evaluation.ErrConflict, http.StatusConflict, "conflict"},
	{org.ErrDuplicateEmail, http.StatusConflict, "duplicate"},
	{catalog.ErrDuplicateCode, http.StatusConflict, "duplicate"},
	{evaluation.ErrDuplicate, http.StatusConflict, "duplicate"},
	{period.ErrActiveExists, http.StatusConflict, "active_period_exists"},

	{period.ErrInvalidState, http.StatusConflict, "invalid_state"},
	{period.ErrNotEditable, http.StatusConflict, "invalid_state"},
	{catalog.ErrPeriodLocked, http.StatusConflict, "period_locked"},
	{evaluation.ErrAlreadySubmitted, http.StatusConflict, "invalid_state"},
	{evaluation.ErrNotSubmitted, http.StatusConflict, "invalid_state"},
	{evaluation.ErrHasSubmission, http.StatusConflict, "invalid_state"},
	{evaluation.ErrPeriodNotOpen, http.StatusConflict, "period_not_open"},
	{results.ErrLocked, http.StatusConflict, "results_locked"},
	{devplan.ErrApproved, http.StatusConflict, "invalid_state"},
	{devplan.ErrNoResult, http.StatusConflict, "result_missing"},
}

// FailError answers with the status mapped from a domain error. Unmapped errors
// are logged and reported as 500 with the given code.
func FailError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	if issues, ok := validate.Issues(err); ok {
		FailValidation(w, requestID, issues)
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			api.Fail(w, m.status, m.code, m.err.Error(), requestID)
			return
		}
	}
	slog.Error(message, "err", err, "requestId", requestID, "path", r.URL.Path)
	api.Fail(w, http.StatusInternalServerError, code, message, requestID)
}
