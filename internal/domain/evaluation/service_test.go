package evaluation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/catalog"
	"perfeval/internal/domain/notifications"
	"perfeval/internal/domain/org"
	"perfeval/internal/domain/period"
	"perfeval/internal/platform/validate"
)

type memStore struct {
	mu          sync.Mutex
	assignments map[string]Assignment
	evaluations map[string]Evaluation
	seq         int
	failSaves   int
}

func newMemStore() *memStore {
	return &memStore{assignments: map[string]Assignment{}, evaluations: map[string]Evaluation{}}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

func (m *memStore) status(assignmentID string) string {
	for _, e := range m.evaluations {
		if e.AssignmentID == assignmentID {
			return e.Status
		}
	}
	return StatusPending
}

func (m *memStore) InsertAssignments(ctx context.Context, in []Assignment) ([]Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := []Assignment{}
	for _, a := range in {
		dup := false
		for _, existing := range m.assignments {
			if existing.PeriodID == a.PeriodID && existing.EvaluatorID == a.EvaluatorID && existing.EvaluateeID == a.EvaluateeID && existing.Type == a.Type {
				dup = true
			}
		}
		if dup {
			continue
		}
		a.ID = m.nextID("a")
		m.assignments[a.ID] = a
		created = append(created, a)
	}
	return created, nil
}

func (m *memStore) ListAssignments(ctx context.Context, f AssignmentFilter) ([]Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Assignment{}
	for _, a := range m.assignments {
		if a.PeriodID != f.PeriodID || (f.EvaluatorID != "" && a.EvaluatorID != f.EvaluatorID) {
			continue
		}
		a.EvaluationStatus = m.status(a.ID)
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok {
		return Assignment{}, ErrNotFound
	}
	a.EvaluationStatus = m.status(id)
	return a, nil
}

func (m *memStore) CreateAssignment(ctx context.Context, a Assignment) (Assignment, error) {
	created, _ := m.InsertAssignments(ctx, []Assignment{a})
	if len(created) == 0 {
		return Assignment{}, ErrDuplicate
	}
	return created[0], nil
}

func (m *memStore) DeleteAssignment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.assignments, id)
	return nil
}

func (m *memStore) GetByAssignment(ctx context.Context, assignmentID string) (Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.evaluations {
		if e.AssignmentID == assignmentID {
			return copyEval(e), nil
		}
	}
	return Evaluation{}, ErrNotFound
}

func (m *memStore) SaveDraft(ctx context.Context, e Evaluation) (Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaves > 0 {
		m.failSaves--
		return Evaluation{}, ErrConflict
	}
	if e.ID == "" {
		e.ID = m.nextID("e")
		e.Version = 1
		m.evaluations[e.ID] = copyEval(e)
		return e, nil
	}
	stored, ok := m.evaluations[e.ID]
	if !ok || stored.Version != e.Version || stored.Status != StatusDraft {
		return Evaluation{}, ErrConflict
	}
	e.Version++
	m.evaluations[e.ID] = copyEval(e)
	return e, nil
}

func (m *memStore) MarkSubmitted(ctx context.Context, id string, version int) (Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.evaluations[id]
	if !ok || e.Version != version || e.Status != StatusDraft {
		return Evaluation{}, ErrConflict
	}
	now := time.Now()
	e.Status = StatusSubmitted
	e.SubmittedAt = &now
	e.Version++
	m.evaluations[id] = e
	return copyEval(e), nil
}

func (m *memStore) MarkDraft(ctx context.Context, id string) (Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.evaluations[id]
	if !ok || e.Status != StatusSubmitted {
		return Evaluation{}, ErrNotSubmitted
	}
	e.Status = StatusDraft
	e.SubmittedAt = nil
	e.Version++
	m.evaluations[id] = e
	return copyEval(e), nil
}

func (m *memStore) ListSubmitted(ctx context.Context, periodID, evaluateeID string) ([]Evaluation, error) {
	return nil, nil
}

func (m *memStore) Completion(ctx context.Context, periodID string, evaluateeIDs []string) ([]Completion, error) {
	return []Completion{{Type: TypeSelf, Total: 4, Submitted: 3}, {Type: TypeSupervisor, Total: 0}}, nil
}

func copyEval(e Evaluation) Evaluation {
	responses := make(map[string]Response, len(e.Responses))
	for k, v := range e.Responses {
		responses[k] = v
	}
	e.Responses = responses
	return e
}

type stubPeriods struct{ p period.Period }

func (s stubPeriods) Get(ctx context.Context, id string) (period.Period, error) {
	if id != s.p.ID {
		return period.Period{}, period.ErrNotFound
	}
	return s.p, nil
}

func (s stubPeriods) Active(ctx context.Context) (period.Period, error) {
	if s.p.Status != period.StatusActive {
		return period.Period{}, period.ErrNotFound
	}
	return s.p, nil
}

type stubCatalog struct{ dims []catalog.Dimension }

func (s stubCatalog) ListDimensions(ctx context.Context, periodID string) ([]catalog.Dimension, error) {
	return s.dims, nil
}

type stubOrg struct {
	users []org.User
}

func (s stubOrg) ActiveUsers(ctx context.Context) ([]org.User, error) {
	return s.users, nil
}

func (s stubOrg) IsSupervisorOf(ctx context.Context, supervisorID, userID string) (bool, error) {
	for _, u := range s.users {
		if u.ID == userID && u.SupervisorID != nil && *u.SupervisorID == supervisorID {
			return true, nil
		}
	}
	return false, nil
}

type sentNotification struct {
	userID, kind string
}

type stubNotifier struct {
	sent []sentNotification
}

func (s *stubNotifier) Create(ctx context.Context, userID, kind, title, body string) error {
	s.sent = append(s.sent, sentNotification{userID, kind})
	return nil
}

type stubQueue struct {
	jobs []string
}

func (s *stubQueue) EnqueueRecompute(periodID, userID string) {
	s.jobs = append(s.jobs, periodID+"/"+userID)
}

type fixture struct {
	svc    *Service
	store  *memStore
	notify *stubNotifier
	queue  *stubQueue
}

func strPtr(s string) *string { return &s }

func newFixture(t *testing.T) fixture {
	t.Helper()
	p := period.Period{
		ID: "p1", Name: "2026", Status: period.StatusActive, ScaleMin: 1, ScaleMax: 5,
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	dims := []catalog.Dimension{{ID: "d1", Items: []catalog.Item{
		{ID: "i1", Required: true, Weight: 1, AppliesTo: "all"},
		{ID: "i2", Required: false, Weight: 1, AppliesTo: "all"},
		{ID: "i3", Required: true, Weight: 1, AppliesTo: "supervisor"},
	}}}
	users := []org.User{
		{ID: "boss", Active: true},
		{ID: "emp", Active: true, SupervisorID: strPtr("boss")},
		{ID: "orphan", Active: true, SupervisorID: strPtr("gone")},
	}
	store := newMemStore()
	notify := &stubNotifier{}
	queue := &stubQueue{}
	svc := NewService(store, stubPeriods{p}, stubCatalog{dims}, stubOrg{users})
	svc.Notify = notify
	svc.Recompute = queue
	svc.Now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }
	return fixture{svc: svc, store: store, notify: notify, queue: queue}
}

func (f fixture) assignment(t *testing.T, evaluatorID, evaluateeID, kind string) Assignment {
	t.Helper()
	for _, a := range f.store.assignments {
		if a.EvaluatorID == evaluatorID && a.EvaluateeID == evaluateeID && a.Type == kind {
			return a
		}
	}
	t.Fatalf("assignment %s->%s %s not found", evaluatorID, evaluateeID, kind)
	return Assignment{}
}

func TestGenerateForPeriodIsIdempotent(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.GenerateForPeriod(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, created, "three self assignments plus one supervisor assignment")

	again, err := f.svc.GenerateForPeriod(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, again)

	f.assignment(t, "boss", "emp", TypeSupervisor)
	notified := map[string]bool{}
	for _, n := range f.notify.sent {
		assert.Equal(t, notifications.TypeAssignmentCreated, n.kind)
		notified[n.userID] = true
	}
	assert.Equal(t, map[string]bool{"boss": true, "emp": true, "orphan": true}, notified)
}

func TestSaveDraftMergesAndChecksVersion(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GenerateForPeriod(context.Background(), "p1")
	require.NoError(t, err)
	a := f.assignment(t, "emp", "emp", TypeSelf)
	emp := auth.UserContext{UserID: "emp", Role: auth.RoleEmployee}

	first, err := f.svc.SaveDraft(context.Background(), emp, a.ID, DraftInput{Responses: map[string]Response{"i1": {Score: score(3)}}})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	second, err := f.svc.SaveDraft(context.Background(), emp, a.ID, DraftInput{
		BaseVersion: &first.Version,
		Responses:   map[string]Response{"i2": {Score: score(4)}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	assert.Len(t, second.Responses, 2)

	stale := 1
	_, err = f.svc.SaveDraft(context.Background(), emp, a.ID, DraftInput{BaseVersion: &stale, Responses: map[string]Response{"i2": {Score: score(1)}}})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSaveDraftRetriesWithoutBaseVersion(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GenerateForPeriod(context.Background(), "p1")
	require.NoError(t, err)
	a := f.assignment(t, "emp", "emp", TypeSelf)
	emp := auth.UserContext{UserID: "emp"}

	f.store.failSaves = draftRetries - 1
	saved, err := f.svc.SaveDraft(context.Background(), emp, a.ID, DraftInput{Responses: map[string]Response{"i1": {Score: score(2)}}})
	require.NoError(t, err)
	assert.Equal(t, 2.0, *saved.Responses["i1"].Score)

	f.store.failSaves = draftRetries
	_, err = f.svc.SaveDraft(context.Background(), emp, a.ID, DraftInput{Responses: map[string]Response{"i1": {Score: score(3)}}})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSaveDraftRejectsOtherUsersAndBadScores(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GenerateForPeriod(context.Background(), "p1")
	require.NoError(t, err)
	a := f.assignment(t, "boss", "emp", TypeSupervisor)

	_, err = f.svc.SaveDraft(context.Background(), auth.UserContext{UserID: "emp"}, a.ID, DraftInput{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.SaveDraft(context.Background(), auth.UserContext{UserID: "boss"}, a.ID, DraftInput{Responses: map[string]Response{"i1": {Score: score(9)}}})
	_, isValidation := validate.Issues(err)
	assert.True(t, isValidation)
}

func TestSubmitSupervisorEvaluation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GenerateForPeriod(context.Background(), "p1")
	require.NoError(t, err)
	f.notify.sent = nil
	a := f.assignment(t, "boss", "emp", TypeSupervisor)
	boss := auth.UserContext{UserID: "boss", Role: auth.RoleSupervisor}

	_, err = f.svc.Submit(context.Background(), boss, a.ID, DraftInput{Responses: map[string]Response{"i1": {Score: score(4)}}})
	issues, ok := validate.Issues(err)
	require.True(t, ok, "missing required item must fail: %v", err)
	assert.Equal(t, "responses.i3", issues[0].Field)

	submitted, err := f.svc.Submit(context.Background(), boss, a.ID, DraftInput{Responses: map[string]Response{"i3": {Score: score(5)}}})
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, submitted.Status)
	assert.Equal(t, []string{"p1/emp"}, f.queue.jobs)
	require.Len(t, f.notify.sent, 1)
	assert.Equal(t, sentNotification{"emp", notifications.TypeEvaluationSubmitted}, f.notify.sent[0])

	_, err = f.svc.SaveDraft(context.Background(), boss, a.ID, DraftInput{Responses: map[string]Response{"i1": {Score: score(1)}}})
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	_, err = f.svc.Submit(context.Background(), boss, a.ID, DraftInput{})
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestSubmitOutsideWindow(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GenerateForPeriod(context.Background(), "p1")
	require.NoError(t, err)
	a := f.assignment(t, "emp", "emp", TypeSelf)
	f.svc.Now = func() time.Time { return time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC) }

	_, err = f.svc.Submit(context.Background(), auth.UserContext{UserID: "emp"}, a.ID, DraftInput{Responses: map[string]Response{"i1": {Score: score(3)}}})
	assert.ErrorIs(t, err, ErrPeriodNotOpen)
}

func TestReopenReturnsToDraft(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GenerateForPeriod(context.Background(), "p1")
	require.NoError(t, err)
	a := f.assignment(t, "emp", "emp", TypeSelf)
	emp := auth.UserContext{UserID: "emp"}

	_, err = f.svc.Reopen(context.Background(), a.ID)
	assert.ErrorIs(t, err, ErrNotSubmitted)

	_, err = f.svc.Submit(context.Background(), emp, a.ID, DraftInput{Responses: map[string]Response{"i1": {Score: score(3)}}})
	require.NoError(t, err)
	reopened, err := f.svc.Reopen(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, reopened.Status)
	assert.Nil(t, reopened.SubmittedAt)
	assert.Equal(t, []string{"p1/emp", "p1/emp"}, f.queue.jobs)
}

func TestGetEnforcesVisibility(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GenerateForPeriod(context.Background(), "p1")
	require.NoError(t, err)
	a := f.assignment(t, "boss", "emp", TypeSupervisor)

	_, err = f.svc.Get(context.Background(), auth.UserContext{UserID: "emp", Role: auth.RoleEmployee}, a.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	view, err := f.svc.Get(context.Background(), auth.UserContext{UserID: "boss", Role: auth.RoleSupervisor}, a.ID)
	require.NoError(t, err)
	assert.True(t, view.Editable)
	require.Len(t, view.Dimensions, 1)
	assert.Len(t, view.Dimensions[0].Items, 3)

	self := f.assignment(t, "emp", "emp", TypeSelf)
	view, err = f.svc.Get(context.Background(), auth.UserContext{UserID: "hr", Role: auth.RoleHR}, self.ID)
	require.NoError(t, err)
	assert.False(t, view.Editable)
	assert.Len(t, view.Dimensions[0].Items, 2)
}

func TestCreateAssignmentRules(t *testing.T) {
	f := newFixture(t)
	const a = "6f1c7a64-0d55-4c0b-9a3e-5b2a1c9d0e01"
	const b = "6f1c7a64-0d55-4c0b-9a3e-5b2a1c9d0e02"

	_, err := f.svc.CreateAssignment(context.Background(), "p1", AssignmentInput{EvaluatorID: a, EvaluateeID: b, Type: "self"})
	_, isValidation := validate.Issues(err)
	assert.True(t, isValidation)

	peer, err := f.svc.CreateAssignment(context.Background(), "p1", AssignmentInput{EvaluatorID: a, EvaluateeID: b, Type: "Peer"})
	require.NoError(t, err)
	assert.Equal(t, TypePeer, peer.Type)

	_, err = f.svc.CreateAssignment(context.Background(), "p1", AssignmentInput{EvaluatorID: a, EvaluateeID: b, Type: "peer"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCompletionRates(t *testing.T) {
	f := newFixture(t)
	counts, err := f.svc.Completion(context.Background(), "p1", nil)
	require.NoError(t, err)
	assert.Equal(t, 75.0, counts[0].Rate)
	assert.Equal(t, 0.0, counts[1].Rate)
}

func TestMineDefaultsToActivePeriod(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GenerateForPeriod(context.Background(), "p1")
	require.NoError(t, err)
	mine, err := f.svc.Mine(context.Background(), "boss", "")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
