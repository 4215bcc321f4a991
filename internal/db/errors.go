package db

import "errors"

// Domain-level database error sentinels.
var (
	ErrUnavailable   = errors.New("database unavailable")
	ErrInvalidLookup = errors.New("keyword and outcome are required")
)
