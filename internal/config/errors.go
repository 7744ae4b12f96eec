package config

import (
	"errors"
)

// Sentinel error kinds for this package, checked with errors.Is.
var (
	// ErrLoadConfig marks a failure reading or merging a configuration
	// source (file, environment).
	ErrLoadConfig = errors.New("load config failed")

	// ErrInvalidConfig marks a loaded configuration that fails
	// validation: empty listen address, unknown store driver,
	// non-positive sizes or an unparseable weight profile.
	ErrInvalidConfig = errors.New("invalid config")
)
