package scoring

import "errors"

var (
	// ErrInvalidRules reports a rule set that fails validation and
	// cannot be used for grading.
	ErrInvalidRules = errors.New("invalid scoring rules")

	// ErrMissingWeights reports a scoring input without a weight
	// snapshot. Weights are fixed at startup, so this is a wiring bug
	// rather than bad user input.
	ErrMissingWeights = errors.New("scoring input carries no weight snapshot")
)
