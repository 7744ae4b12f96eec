package criteria

import "errors"

// Sentinel kinds for criterion errors.
var (
	ErrUnknownCriterion = errors.New("unknown criterion")
)
