package normalize

import "errors"

// ErrInvalidStrategy reports a strategy table that cannot be applied:
// an unknown kind, unusable parameters, or a missing criterion.
var ErrInvalidStrategy = errors.New("invalid normalization strategy")
