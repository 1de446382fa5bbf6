package playtest

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/patabol/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging initializes the logger to write to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		logFile = "playtest_" + time.Now().Format("20060102_150405") + ".log"
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the playtest tool.
func ShowHelp() {
	os.Stdout.WriteString(`PATABOL Playtest
================

Plays many complete matches against a running server, each against the
scripted opponent, and reports setup and match latencies.

Usage:
  go run ./cmd/playtest [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -sessions int
        Number of sessions to play (default 50)
  -workers int
        Sessions played at once (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -poll duration
        Delay between session polls (default 250ms)
  -match-timeout duration
        Maximum time one match may take (default 5m)
  -retries int
        Confirm retries when the match queue is full (default 10)
  -log string
        Log file (default: playtest_TIMESTAMP.log)
  -verbose
        Enable debug logging
  -help
        Show this help message

Run the server with a short event delay for fast playtests:
  PATABOL_EVENT_DELAY_MS=10 go run ./cmd
`)
}
