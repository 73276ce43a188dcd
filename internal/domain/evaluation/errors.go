package evaluation

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("evaluation was modified concurrently")
	ErrAlreadySubmitted = errors.New("evaluation already submitted")
	ErrNotSubmitted     = errors.New("evaluation is not submitted")
	ErrPeriodNotOpen    = errors.New("period is not accepting evaluations")
	ErrDuplicate        = errors.New("assignment already exists")
	ErrHasSubmission    = errors.New("assignment has a submitted evaluation")
)
