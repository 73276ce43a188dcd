package devplan

import (
	"context"
	"time"
)

type StoreAPI interface {
	Get(ctx context.Context, id string) (Plan, error)
	GetFor(ctx context.Context, periodID, userID string) (Plan, error)
	List(ctx context.Context, periodID string, userIDs []string) ([]Plan, error)
	// Save inserts a plan or replaces the draft of the same period and user.
	// It returns ErrApproved when the existing plan is approved.
	Save(ctx context.Context, p Plan) (Plan, error)
	UpdateContent(ctx context.Context, id string, content Content, source string, now time.Time) error
	Approve(ctx context.Context, id, approverID string, now time.Time) error
}
