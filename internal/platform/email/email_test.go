package email

import (
	"context"
	"strings"
	"testing"
	"time"

	"perfeval/internal/platform/config"
)

func TestBuildMessageEncodesSubject(t *testing.T) {
	msg := string(buildMessage("hr@city.example", "ana@city.example", "Evaluación enviada", "body", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))
	if !strings.Contains(msg, "Subject: =?utf-8?q?") {
		t.Fatalf("expected encoded subject, got %q", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\nbody") {
		t.Fatalf("expected body after blank line, got %q", msg)
	}
}

func TestNewReturnsNoopWhenDisabled(t *testing.T) {
	mailer := New(config.Config{EmailEnabled: false})
	if err := mailer.Send(context.Background(), "a@example.com", "b@example.com", "s", "b"); err != nil {
		t.Fatalf("expected noop send, got %v", err)
	}
}
