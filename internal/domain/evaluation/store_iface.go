package evaluation

import "context"

type StoreAPI interface {
	InsertAssignments(ctx context.Context, assignments []Assignment) ([]Assignment, error)
	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error)
	GetAssignment(ctx context.Context, id string) (Assignment, error)
	CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
	DeleteAssignment(ctx context.Context, id string) error
	GetByAssignment(ctx context.Context, assignmentID string) (Evaluation, error)
	// SaveDraft inserts e when e.ID is empty, otherwise updates it if the stored
	// version still equals e.Version. Both paths fail with ErrConflict on a race.
	SaveDraft(ctx context.Context, e Evaluation) (Evaluation, error)
	MarkSubmitted(ctx context.Context, id string, version int) (Evaluation, error)
	MarkDraft(ctx context.Context, id string) (Evaluation, error)
	ListSubmitted(ctx context.Context, periodID, evaluateeID string) ([]Evaluation, error)
	Completion(ctx context.Context, periodID string, evaluateeIDs []string) ([]Completion, error)
}
