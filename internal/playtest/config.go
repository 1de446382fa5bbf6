package playtest

import "time"

// Config holds configuration for a playtest run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Sessions     int           // Number of sessions to play
	Workers      int           // Number of sessions played at once
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // Delay between session polls
	MatchTimeout time.Duration // How long one match may take to finish
	Retries      int           // Confirm retries on backpressure
	LogFile      string        // Log file for test output
	Verbose      bool          // Enable verbose logging
}

type commandRequest struct {
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
	MessageID string `json:"message_id,omitempty"`
}

type commandResult struct {
	Messages       []string `json:"messages"`
	MatchScheduled bool     `json:"match_scheduled"`
	Duplicate      bool     `json:"duplicate"`
}

// Outcome is what happened to one session.
type Outcome struct {
	Code      string
	Scheduled bool
	Completed bool
	Retries   int
	// Setup covers create through confirm; Match covers confirm until the
	// session was closed by the server.
	Setup time.Duration
	Match time.Duration
	Err   error
}

// Stats holds run statistics.
type Stats struct {
	SessionsStarted  int
	MatchesScheduled int
	MatchesCompleted int
	SessionsFailed   int
	Backpressure     int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration

	setup []time.Duration
	match []time.Duration
}
