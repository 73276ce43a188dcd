package results

import "errors"

var (
	ErrNotFound = errors.New("result not found")
	ErrLocked   = errors.New("results are locked for this period")
)
