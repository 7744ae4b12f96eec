package testevals

import "time"

// HTTP status code constants.
const (
	StatusOK       = 200
	StatusAccepted = 202
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	BatchSize               = 100
)

// Runner configuration constants.
const (
	DrainPollInterval    = 500 * time.Millisecond
	PercentageMultiplier = 100
	PercentageTolerance  = 1e-6
)
