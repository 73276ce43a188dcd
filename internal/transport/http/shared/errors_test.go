package shared

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tidwall/gjson"

	"perfeval/internal/domain/evaluation"
	"perfeval/internal/domain/period"
	"perfeval/internal/domain/results"
)

func TestFailErrorMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("save draft: %w", evaluation.ErrConflict), http.StatusConflict, "conflict"},
		{period.ErrInvalidState, http.StatusConflict, "invalid_state"},
		{results.ErrLocked, http.StatusConflict, "results_locked"},
		{period.ErrNotFound, http.StatusNotFound, "not_found"},
		{errors.New("db down"), http.StatusInternalServerError, "draft_failed"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/evaluations/a1/draft", nil)
		FailError(rec, req, tc.err, "draft_failed", "failed to save draft")
		if rec.Code != tc.status {
			t.Fatalf("%v: expected status %d, got %d", tc.err, tc.status, rec.Code)
		}
		if got := gjson.Get(rec.Body.String(), "error.code").String(); got != tc.code {
			t.Fatalf("%v: expected code %q, got %q", tc.err, tc.code, got)
		}
	}
}
