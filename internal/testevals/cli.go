package testevals

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "eval_run_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the evaluation load tool.
func ShowHelp() {
	os.Stdout.WriteString(`Evaluation Load Tool
====================

A concurrent tool for load testing and verifying the presentation
evaluation service.

Usage:
  go run cmd/test-evals/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -evals int
        Number of submissions to generate and submit (default 5000)
  -teams int
        Number of distinct team names (default 200)
  -problems int
        Number of problem-statement cohorts (default 8)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated submissions (default: generated_evals_TIMESTAMP.json)
  -log string
        Log file for run output (default: eval_run_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run with default settings
  go run cmd/test-evals/main.go

  # Run with custom parameters
  go run cmd/test-evals/main.go -evals 20000 -workers 16 -url http://localhost:8080

  # Concentrate submissions in two cohorts
  go run cmd/test-evals/main.go -evals 10000 -problems 2

  # Run with verbose output and a custom log file
  go run cmd/test-evals/main.go -verbose -evals 5000 -log my_run.log
`)
}
