package weights

import "errors"

// Sentinel kinds for weight configuration errors.
var (
	// ErrInvalidWeights marks a weight profile rejected at construction.
	// It is fatal for the call that supplied the profile and never
	// surfaces mid-evaluation.
	ErrInvalidWeights = errors.New("invalid weight configuration")
)
