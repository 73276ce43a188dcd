package planshandler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/devplan"
	"perfeval/internal/domain/org"
	"perfeval/internal/domain/results"
	"perfeval/internal/transport/http/middleware"
)

type memPlans struct {
	mu    sync.Mutex
	plans map[string]devplan.Plan
	seq   int
}

func (m *memPlans) Get(ctx context.Context, id string) (devplan.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return devplan.Plan{}, devplan.ErrNotFound
	}
	return p, nil
}

func (m *memPlans) GetFor(ctx context.Context, periodID, userID string) (devplan.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.plans {
		if p.PeriodID == periodID && p.UserID == userID {
			return p, nil
		}
	}
	return devplan.Plan{}, devplan.ErrNotFound
}

func (m *memPlans) List(ctx context.Context, periodID string, userIDs []string) ([]devplan.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []devplan.Plan{}
	for _, p := range m.plans {
		if p.PeriodID == periodID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPlans) Save(ctx context.Context, p devplan.Plan) (devplan.Plan, error) {
	existing, err := m.GetFor(ctx, p.PeriodID, p.UserID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		if existing.Status == devplan.StatusApproved {
			return devplan.Plan{}, devplan.ErrApproved
		}
		p.ID = existing.ID
	} else {
		m.seq++
		p.ID = fmt.Sprintf("plan-%d", m.seq)
	}
	p.Status = devplan.StatusDraft
	m.plans[p.ID] = p
	return p, nil
}

func (m *memPlans) UpdateContent(ctx context.Context, id string, content devplan.Content, source string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.plans[id]
	p.Content = content
	p.Source = source
	m.plans[id] = p
	return nil
}

func (m *memPlans) Approve(ctx context.Context, id, approverID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.plans[id]
	p.Status = devplan.StatusApproved
	p.ApprovedBy = &approverID
	m.plans[id] = p
	return nil
}

type staticResults struct{}

func (staticResults) Get(ctx context.Context, periodID, userID string) (results.FinalResult, error) {
	high, low := 4.6, 2.1
	return results.FinalResult{
		PeriodID: periodID,
		UserID:   userID,
		Dimensions: []results.DimensionResult{
			{Code: "TEAM", Name: "Teamwork", Combined: &high},
			{Code: "PLAN", Name: "Planning", Combined: &low},
		},
	}, nil
}

type noReports struct{}

func (noReports) IsSupervisorOf(ctx context.Context, supervisorID, userID string) (bool, error) {
	return false, nil
}

func (noReports) Subordinates(ctx context.Context, supervisorID string) ([]org.User, error) {
	return nil, nil
}

type storedKey struct {
	hash     string
	response middleware.StoredResponse
}

type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]storedKey
}

func (m *memIdempotency) Check(ctx context.Context, userID, endpoint, key, requestHash string) (middleware.StoredResponse, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.keys[userID+"|"+endpoint+"|"+key]
	if !ok {
		return middleware.StoredResponse{}, false, nil
	}
	if stored.hash != requestHash {
		return middleware.StoredResponse{}, false, middleware.ErrIdempotencyConflict
	}
	return stored.response, true, nil
}

func (m *memIdempotency) Save(ctx context.Context, userID, endpoint, key, requestHash string, response middleware.StoredResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	body := append([]byte(nil), response.Body...)
	m.keys[userID+"|"+endpoint+"|"+key] = storedKey{hash: requestHash, response: middleware.StoredResponse{Status: response.Status, Body: body}}
	return nil
}

func (m *memIdempotency) bodies() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.keys))
	for _, stored := range m.keys {
		out = append(out, string(stored.response.Body))
	}
	return out
}

type fixture struct {
	router http.Handler
	keys   *memIdempotency
}

func newFixture() fixture {
	svc := devplan.NewService(&memPlans{plans: map[string]devplan.Plan{}}, staticResults{}, noReports{}, nil)
	keys := &memIdempotency{keys: map[string]storedKey{}}
	h := NewHandler(svc, auth.StaticPermissions{}, nil, keys, nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	h.RegisterRoutes(r)
	return fixture{router: r, keys: keys}
}

func (f fixture) do(t *testing.T, method, path, body, idempotencyKey string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "hr-1", Role: auth.RoleHR}))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestGenerateKeepsPlanTextOutOfIdempotencyStore(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/periods/p1/plans/u1/generate", "", "gen-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := rec.Body.String()
	planID := gjson.Get(body, "data.id").String()
	require.NotEmpty(t, planID)
	assert.Equal(t, devplan.SourceHeuristic, gjson.Get(body, "data.source").String())
	assert.False(t, gjson.Get(body, "data.summary").Exists())

	stored := f.keys.bodies()
	require.Len(t, stored, 1)
	for _, text := range []string{"Teamwork", "Planning", "summary", "actions"} {
		assert.NotContains(t, stored[0], text)
	}

	plan := f.do(t, http.MethodGet, "/plans/"+planID, "", "")
	require.Equal(t, http.StatusOK, plan.Code)
	assert.Contains(t, gjson.Get(plan.Body.String(), "data.summary").String(), "Planning")
}

func TestGenerateReplayAndConflict(t *testing.T) {
	f := newFixture()
	first := f.do(t, http.MethodPost, "/periods/p1/plans/u1/generate", "", "gen-1")
	require.Equal(t, http.StatusCreated, first.Code)

	edited := f.do(t, http.MethodPut, "/plans/"+gjson.Get(first.Body.String(), "data.id").String(),
		`{"summary":"Agreed in the one-to-one.","actions":[{"title":"Shadow a planner"}]}`, "")
	require.Equal(t, http.StatusOK, edited.Code, edited.Body.String())

	replay := f.do(t, http.MethodPost, "/periods/p1/plans/u1/generate", "", "gen-1")
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, gjson.Get(first.Body.String(), "data.id").String(), gjson.Get(replay.Body.String(), "data.id").String())
	assert.NotContains(t, replay.Body.String(), "Agreed in the one-to-one.")

	conflict := f.do(t, http.MethodPost, "/periods/p1/plans/u2/generate", "", "gen-1")
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, "idempotency_conflict", gjson.Get(conflict.Body.String(), "error.code").String())
}
