// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep the struct flat and koanf-tagged; values layer defaults, file, env.
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's sentinel errors.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the evaluation store backend: memory, sqlite, postgres.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is the data source name for the selected driver.
	// Empty means the driver's default.
	StoreDSN string `koanf:"store_dsn"`

	// QueueSize bounds the in-memory submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of evaluation workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the duplicate submission cache.
	DedupeSize int `koanf:"dedupe_size"`

	// Weights maps criterion tags to their scoring weights. The penalty
	// weight is given as a non-negative magnitude; magnitudes must sum
	// to 1.0.
	Weights map[string]float64 `koanf:"weights"`

	// RulesFile points to an optional YAML file overriding grade bands,
	// thresholds, normalization strategies, and recommendation texts.
	RulesFile string `koanf:"rules_file"`
}

// New creates a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:    "info",
		Addr:        ":8080",
		StoreDriver: "sqlite",
		StoreDSN:    "",
		QueueSize:   1024,
		WorkerCount: runtime.NumCPU(),
		DedupeSize:  65_536,
		Weights: map[string]float64{
			"ps_similarity":  0.25,
			"feasibility":    0.20,
			"attractiveness": 0.15,
			"image_analysis": 0.15,
			"link_analysis":  0.10,
			"llm_penalty":    0.15,
		},
		RulesFile: "",
	}
	return c
}
