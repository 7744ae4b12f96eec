package service

import "errors"

var (
	// ErrNotStarted reports an operation on a service that has not been
	// started or was already stopped.
	ErrNotStarted = errors.New("service not started")

	// ErrInvalidSubmission rejects a submission with missing required
	// fields or unknown criteria.
	ErrInvalidSubmission = errors.New("invalid submission")
)
