package models

import "errors"

// Every failure the core returns wraps one of these sentinels. Callers
// branch with errors.Is; the UI decides whether to reprompt.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already taken")
	ErrForbidden       = errors.New("operation not permitted")
	ErrInvalidInput    = errors.New("invalid input")
	ErrAlreadyAssigned = errors.New("member already assigned")
	ErrNotAMember      = errors.New("not a project member")
	ErrStorage         = errors.New("storage failure")
	ErrCorrupt         = errors.New("document corrupt")
)
