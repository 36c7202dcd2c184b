package domain

import "errors"

var (
	// ErrSessionComplete is returned when a digit is submitted after the
	// last step was answered.
	ErrSessionComplete = errors.New("session already complete")

	// ErrInvalidRanges is returned when generator ranges cannot produce a
	// valid problem.
	ErrInvalidRanges = errors.New("invalid generator ranges")
)
