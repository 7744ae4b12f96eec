package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/testevals"
)

// Default configuration constants.
const (
	defaultNumEvals   = 5000
	defaultTeams      = 200
	defaultProblems   = 8
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8080", "Base URL of the service")
		numEvals   = flag.Int("evals", defaultNumEvals, "Number of submissions to generate and submit")
		teams      = flag.Int("teams", defaultTeams, "Number of distinct team names")
		problems   = flag.Int("problems", defaultProblems, "Number of problem-statement cohorts")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for generated submissions (default: generated_evals_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for run output (default: eval_run_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testevals.ShowHelp()
		return
	}

	// Setup logging
	if err := testevals.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Create run configuration
	config := &testevals.Config{
		BaseURL:    *baseURL,
		NumEvals:   *numEvals,
		Teams:      *teams,
		Problems:   *problems,
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	// Run the load and verification sequence
	if err := testevals.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
