package playtest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/patabol/pkg/logger"
)

var (
	// ErrNotScheduled is reported when a confirm did not schedule a match.
	ErrNotScheduled = errors.New("confirm did not schedule a match")
	// ErrMatchTimeout is reported when a session outlived MatchTimeout.
	ErrMatchTimeout = errors.New("match did not finish in time")
	// ErrFailures is returned by Run when at least one session failed.
	ErrFailures = errors.New("playtest had failures")
)

var codePattern = regexp.MustCompile(`\*([A-Z0-9]{6})\*`)

// Run plays cfg.Sessions complete matches against the service and reports
// latencies. Every session creates, adds the scripted opponent, auto-selects,
// confirms and then waits until the server closes it.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting patabol playtest",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sessions", cfg.Sessions),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()),
		logger.String("matchTimeout", cfg.MatchTimeout.String()),
		logger.Bool("verbose", cfg.Verbose))

	client := newHTTPClient(cfg.Timeout)
	if err := checkServiceHealth(ctx, client, cfg); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	outcomes := playSessions(ctx, client, cfg)
	for _, o := range outcomes {
		stats.add(o)
		if o.Err != nil {
			logger.Get().Warn(ctx, "session failed", logger.SessionCode(o.Code), logger.Error(o.Err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if stats.SessionsFailed > 0 {
		return stats, fmt.Errorf("%w: %d of %d sessions", ErrFailures, stats.SessionsFailed, stats.SessionsStarted)
	}
	logger.Get().Info(ctx, "playtest completed successfully")
	return stats, nil
}

func checkServiceHealth(ctx context.Context, client *HTTPClient, cfg *Config) error {
	resp, err := client.Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	_, _ = readResponseBody(resp)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// playSessions runs the sessions on a bounded set of workers.
func playSessions(ctx context.Context, client *HTTPClient, cfg *Config) []Outcome {
	workers := max(1, cfg.Workers)
	jobs := make(chan int, workers*WorkerChannelMultiplier)
	outcomes := make([]Outcome, cfg.Sessions)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = playSession(ctx, client, cfg, i)
				if cfg.Verbose {
					logger.Get().Debug(ctx, "session finished", logger.Int("index", i),
						logger.SessionCode(outcomes[i].Code), logger.Bool("completed", outcomes[i].Completed))
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < cfg.Sessions; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()
	for i := range outcomes {
		if outcomes[i].Code == "" && outcomes[i].Err == nil {
			outcomes[i].Err = ctx.Err()
		}
	}
	return outcomes
}

func playSession(ctx context.Context, client *HTTPClient, cfg *Config, i int) Outcome {
	var out Outcome
	user := "playtest-" + uuid.NewString()
	send := func(text string) (commandResult, int, error) {
		return client.command(ctx, cfg.BaseURL, commandRequest{UserID: user, Text: text, MessageID: uuid.NewString()})
	}

	start := time.Now()
	res, _, err := send(fmt.Sprintf("/sesion Tester%d Equipo%d", i, i))
	if err != nil {
		out.Err = err
		return out
	}
	if len(res.Messages) == 0 {
		out.Err = errors.New("create returned no reply")
		return out
	}
	code, ok := extractCode(res.Messages[0])
	if !ok {
		out.Err = fmt.Errorf("no session code in reply %q", res.Messages[0])
		return out
	}
	out.Code = code

	for _, text := range []string{"/u ia", "/a"} {
		if _, _, err := send(text); err != nil {
			out.Err = err
			return out
		}
	}

	for attempt := 0; ; attempt++ {
		res, status, err := send("/c")
		if err != nil {
			out.Err = err
			return out
		}
		if status == StatusTooManyRequests && attempt < cfg.Retries {
			out.Retries++
			select {
			case <-ctx.Done():
				out.Err = ctx.Err()
				return out
			case <-time.After(RetryBackoff):
			}
			continue
		}
		if !res.MatchScheduled {
			out.Err = ErrNotScheduled
			return out
		}
		break
	}
	out.Scheduled = true
	out.Setup = time.Since(start)

	confirmed := time.Now()
	deadline := confirmed.Add(cfg.MatchTimeout)
	for {
		exists, err := client.sessionExists(ctx, cfg.BaseURL, code)
		if err != nil {
			out.Err = err
			return out
		}
		if !exists {
			out.Completed = true
			out.Match = time.Since(confirmed)
			return out
		}
		if time.Now().After(deadline) {
			out.Err = ErrMatchTimeout
			return out
		}
		select {
		case <-ctx.Done():
			out.Err = ctx.Err()
			return out
		case <-time.After(cfg.PollInterval):
		}
	}
}

// extractCode finds the session code, printed in bold, in the create reply.
func extractCode(msg string) (string, bool) {
	m := codePattern.FindStringSubmatch(msg)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func (s *Stats) add(o Outcome) {
	s.SessionsStarted++
	s.Backpressure += o.Retries
	if o.Scheduled {
		s.MatchesScheduled++
		s.setup = append(s.setup, o.Setup)
	}
	if o.Completed {
		s.MatchesCompleted++
		s.match = append(s.match, o.Match)
	}
	if o.Err != nil {
		s.SessionsFailed++
	}
}

// percentile returns the p-th percentile (0-100) by nearest rank.
func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), d...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(p/PercentageMultiplier*float64(len(sorted))+0.5) - 1
	idx = min(max(idx, 0), len(sorted)-1)
	return sorted[idx]
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, matchesPerSecond float64
	if stats.SessionsStarted > 0 {
		successRate = float64(stats.MatchesCompleted) / float64(stats.SessionsStarted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		matchesPerSecond = float64(stats.MatchesCompleted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("sessionsStarted", stats.SessionsStarted),
		logger.Int("matchesScheduled", stats.MatchesScheduled),
		logger.Int("matchesCompleted", stats.MatchesCompleted),
		logger.Int("sessionsFailed", stats.SessionsFailed),
		logger.Int("backpressureRetries", stats.Backpressure),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("matchesPerSecond", matchesPerSecond),
		logger.String("setupP50", percentile(stats.setup, 50).String()),
		logger.String("setupP95", percentile(stats.setup, 95).String()),
		logger.String("matchP50", percentile(stats.match, 50).String()),
		logger.String("matchP95", percentile(stats.match, 95).String()),
		logger.String("matchMax", percentile(stats.match, 100).String()))
}
