package period

import "errors"

var (
	ErrNotFound     = errors.New("period not found")
	ErrInvalidState = errors.New("invalid period state")
	ErrActiveExists = errors.New("another period is already active")
	ErrNotEditable  = errors.New("period can only be edited while in draft")
)
