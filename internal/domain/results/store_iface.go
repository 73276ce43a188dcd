package results

import "context"

type StoreAPI interface {
	// Upsert writes r unless the stored row is locked, in which case it returns ErrLocked.
	Upsert(ctx context.Context, r FinalResult) error
	Get(ctx context.Context, periodID, userID string) (FinalResult, error)
	List(ctx context.Context, filter Filter) ([]FinalResult, error)
	SetLocked(ctx context.Context, periodID string, locked bool) (int64, error)
	Evaluatees(ctx context.Context, periodID string) ([]string, error)
}
