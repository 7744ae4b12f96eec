package repository

import "errors"

// Sentinel kinds for evaluation store errors.
var (
	// ErrDuplicateID rejects an append whose id was committed before.
	ErrDuplicateID = errors.New("evaluation id already exists")

	// ErrNotFound reports a lookup of an unknown evaluation id.
	ErrNotFound = errors.New("evaluation not found")

	// ErrUnknownDriver reports a store driver Open does not support.
	ErrUnknownDriver = errors.New("unknown store driver")
)
