// Command playtest plays many complete matches against a running server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/patabol/internal/playtest"
)

// Default configuration constants.
const (
	defaultSessions     = 50
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 10 * time.Second
	defaultPoll         = 250 * time.Millisecond
	defaultMatchTimeout = 5 * time.Minute
	defaultRetries      = 10
	defaultTestTimeout  = 30 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		sessions     = flag.Int("sessions", defaultSessions, "Number of sessions to play")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Sessions played at once")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		poll         = flag.Duration("poll", defaultPoll, "Delay between session polls")
		matchTimeout = flag.Duration("match-timeout", defaultMatchTimeout, "Maximum time one match may take")
		retries      = flag.Int("retries", defaultRetries, "Confirm retries when the match queue is full")
		logFile      = flag.String("log", "", "Log file (default: playtest_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Enable debug logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		playtest.ShowHelp()
		return
	}

	if err := playtest.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
	defer cancel()

	cfg := &playtest.Config{
		BaseURL:      *baseURL,
		Sessions:     *sessions,
		Workers:      *workers,
		Timeout:      *timeout,
		PollInterval: *poll,
		MatchTimeout: *matchTimeout,
		Retries:      *retries,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}

	if _, err := playtest.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Playtest failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
