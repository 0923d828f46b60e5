package domain

import "errors"

var ErrInternal = errors.New("internal error")

var (
	ErrEmptySearchTerm    = errors.New("search term is required")
	ErrInvalidSortMode    = errors.New("unsupported sort mode")
	ErrInvalidResultLimit = errors.New("result limit must be positive")
)

var (
	ErrEmptyAgentName       = errors.New("agent name is required")
	ErrInvalidActivityState = errors.New("invalid activity status")
	ErrAgentNotFound        = errors.New("agent not found")
	ErrDuplicateActivity    = errors.New("activity already recorded")
)
