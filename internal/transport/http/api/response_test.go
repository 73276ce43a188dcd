package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tidwall/gjson"
)

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]int{"count": 2}, "req-1")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !gjson.Get(body, "success").Bool() || gjson.Get(body, "data.count").Int() != 2 {
		t.Fatalf("unexpected body: %s", body)
	}
	if gjson.Get(body, "requestId").String() != "req-1" {
		t.Fatalf("missing request id: %s", body)
	}
	if gjson.Get(body, "error").Exists() {
		t.Fatalf("error must be omitted: %s", body)
	}
}

func TestFailWithDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	FailWithDetails(rec, http.StatusBadRequest, "validation_error", "payload validation failed", map[string]any{"fields": []string{"name"}}, "")

	body := rec.Body.String()
	if rec.Code != http.StatusBadRequest || gjson.Get(body, "success").Bool() {
		t.Fatalf("unexpected response %d: %s", rec.Code, body)
	}
	if gjson.Get(body, "error.code").String() != "validation_error" || gjson.Get(body, "error.details.fields.0").String() != "name" {
		t.Fatalf("unexpected error: %s", body)
	}
}
