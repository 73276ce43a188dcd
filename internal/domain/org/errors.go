package org

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrSelfSupervisor    = errors.New("a user cannot supervise themselves")
	ErrSupervisorUnknown = errors.New("supervisor not found")
	ErrSupervisorCycle   = errors.New("supervisor chain would form a cycle")
	ErrGroupUnknown      = errors.New("group not found")
	ErrDuplicateEmail    = errors.New("email already in use")
)
