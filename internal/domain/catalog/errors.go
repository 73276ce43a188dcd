package catalog

import "errors"

var (
	ErrNotFound      = errors.New("catalog entry not found")
	ErrPeriodLocked  = errors.New("catalog can only change while the period is in draft")
	ErrDuplicateCode = errors.New("dimension code already used in this period")
)
