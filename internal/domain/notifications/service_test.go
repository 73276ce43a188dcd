package notifications

import (
	"context"
	"errors"
	"testing"
)

type memoryStore struct {
	created []Notification
	emails  map[string]string
}

func (m *memoryStore) CreateNotification(ctx context.Context, userID, ntype, title, body string) error {
	m.created = append(m.created, Notification{UserID: userID, Type: ntype, Title: title, Body: body})
	return nil
}

func (m *memoryStore) UserEmail(ctx context.Context, userID string) (string, error) {
	email, ok := m.emails[userID]
	if !ok {
		return "", errors.New("no rows")
	}
	return email, nil
}

func (m *memoryStore) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	return m.created, nil
}

func (m *memoryStore) CountNotifications(ctx context.Context, userID string) (Counts, error) {
	return Counts{Total: len(m.created), Unread: len(m.created)}, nil
}

func (m *memoryStore) MarkRead(ctx context.Context, userID, notificationID string) error {
	return nil
}

func (m *memoryStore) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return int64(len(m.created)), nil
}

type recordingMailer struct {
	sent []string
	err  error
}

func (r *recordingMailer) Send(ctx context.Context, from, to, subject, body string) error {
	r.sent = append(r.sent, from+"->"+to+":"+subject)
	return r.err
}

func TestCreateStoresAndMails(t *testing.T) {
	store := &memoryStore{emails: map[string]string{"u1": "u1@city.example"}}
	mailer := &recordingMailer{}
	svc := New(store, mailer, "eval@city.example")

	if err := svc.Create(context.Background(), "u1", TypePlanApproved, "Plan approved", "Your plan was approved."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.created) != 1 || store.created[0].Type != TypePlanApproved {
		t.Fatalf("expected stored notification, got %+v", store.created)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "eval@city.example->u1@city.example:Plan approved" {
		t.Fatalf("unexpected mail %v", mailer.sent)
	}
}

func TestCreateIgnoresMailFailures(t *testing.T) {
	store := &memoryStore{emails: map[string]string{}}
	mailer := &recordingMailer{err: errors.New("smtp down")}
	svc := New(store, mailer, "")

	if err := svc.Create(context.Background(), "missing", TypeAssignmentCreated, "t", "b"); err != nil {
		t.Fatalf("lookup failure must not fail create: %v", err)
	}
	store.emails["u2"] = "u2@city.example"
	if err := svc.Create(context.Background(), "u2", TypeAssignmentCreated, "t", "b"); err != nil {
		t.Fatalf("send failure must not fail create: %v", err)
	}
	if svc.From != "no-reply@example.com" {
		t.Fatalf("expected default sender, got %s", svc.From)
	}
}
