package period

import "context"

type StoreAPI interface {
	List(ctx context.Context, status string) ([]Period, error)
	Get(ctx context.Context, id string) (Period, error)
	Active(ctx context.Context) (Period, error)
	Create(ctx context.Context, p Period) (Period, error)
	Update(ctx context.Context, p Period) (Period, error)
	// Transition moves id from one status to another and fails with
	// ErrInvalidState when the stored status is not from.
	Transition(ctx context.Context, id, from, to string) (Period, error)
}
