package devplan

import "errors"

var (
	ErrNotFound     = errors.New("development plan not found")
	ErrNoResult     = errors.New("no computed result for this user and period")
	ErrApproved     = errors.New("development plan is already approved")
	ErrForbidden    = errors.New("not allowed to manage this development plan")
	ErrInvalidReply = errors.New("ai reply is not a usable plan")
)
