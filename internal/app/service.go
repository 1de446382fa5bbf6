// Package service is the session lifecycle coordinator. It owns the session
// store, serializes every mutation of a session behind that session's lock,
// keeps the participant index in sync, and plays scheduled matches on the
// worker pool.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	eventqueue "github.com/okian/patabol/internal/adapters/mq/queue"
	workerpool "github.com/okian/patabol/internal/adapters/mq/worker"
	"github.com/okian/patabol/internal/adapters/notify"
	"github.com/okian/patabol/internal/config"
	repository "github.com/okian/patabol/internal/adapters/repository"
	"github.com/okian/patabol/internal/domain/dedupe"
	"github.com/okian/patabol/internal/domain/match"
	"github.com/okian/patabol/internal/domain/pool"
	"github.com/okian/patabol/internal/domain/random"
	"github.com/okian/patabol/internal/router"
	"github.com/okian/patabol/pkg/logger"
	"github.com/okian/patabol/pkg/metrics"
)

var (
	// ErrNotStarted is returned by commands issued before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrQueueFull is returned when a match could not be scheduled. The
	// session is rolled back so both sides can confirm again.
	ErrQueueFull = errors.New("match queue is full")
)

// Command is one inbound chat message.
type Command struct {
	UserID string
	Text   string
	// MessageID is the channel's message id. Redeliveries of the same id
	// are answered without running the command again.
	MessageID string
}

// Result is the reply to a Command.
type Result struct {
	Messages       []string `json:"messages,omitempty"`
	MatchScheduled bool     `json:"match_scheduled"`
	Duplicate      bool     `json:"duplicate,omitempty"`
}

// Service coordinates sessions and matches.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     *repository.SessionStore
	deduper   dedupe.Deduper
	jobs      *eventqueue.InMemoryQueue
	workers   *workerpool.Pool
	generator *pool.Generator
	engine    *match.Engine
	router    *router.Router
	notifier  notify.Notifier
	src       random.Source

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	shardCount     int
	poolSize       int
	maxPoolListing int
	eventDelay     time.Duration
	seed           int64

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of match workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the match job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many inbound message ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the number of session store shards.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithPoolSize sets the number of players generated per session.
func WithPoolSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.poolSize = size
		}
	}
}

// WithMaxPoolListing caps an unfiltered pool listing.
func WithMaxPoolListing(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPoolListing = n
		}
	}
}

// WithEventDelay paces match feeds. Zero delivers without pauses.
func WithEventDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.eventDelay = d
		}
	}
}

// WithSeed fixes the random source. Zero draws a fresh seed.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithNotifier sets where notifications and match feeds go.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    4,
		queueSize:      1024,
		dedupeSize:     50_000,
		shardCount:     16,
		poolSize:       pool.DefaultSize,
		maxPoolListing: router.DefaultMaxPoolListing,
		eventDelay:     2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the components and starts the worker pool. The workers
// outlive ctx; Stop ends them.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(s.logger.Named("notify"))
	}

	src, err := s.newSource()
	if err != nil {
		return fmt.Errorf("random source: %w", err)
	}
	s.src = src

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.store = repository.NewSessionStore(runCtx,
		repository.WithShardCount(s.shardCount),
		repository.WithSource(src),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobs = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.generator = pool.New(pool.WithSource(src))
	s.engine = match.New(match.WithSource(src))
	s.router = router.New(s,
		router.WithSource(src),
		router.WithMaxPoolListing(s.maxPoolListing),
		router.WithLogger(s.logger.Named("router")),
	)

	s.workers = workerpool.NewPool(s.workerCount, s.jobs, s)
	s.workers.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "patabol service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("poolSize", s.poolSize),
		logger.Int("shards", s.shardCount),
		logger.Int("eventDelayMs", int(s.eventDelay.Milliseconds())),
	)
	return nil
}

func (s *Service) newSource() (random.Source, error) {
	if s.seed != 0 {
		return random.New(s.seed), nil
	}
	return random.NewFromCrypto()
}

// Stop closes the queue and waits for the workers to finish their current
// match. Paced feeds still in flight are cut short.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping patabol service...")

	s.cancel()
	if err := s.workers.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	_ = s.store.Close()

	s.started = false
	s.logger.Info(ctx, "patabol service stopped")
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Handle runs one chat command and delivers the notifications it produced.
// A confirm that completes both sides schedules the match; if the queue is
// full the session is rolled back and ErrQueueFull is returned together with
// a reply asking the user to retry.
func (s *Service) Handle(ctx context.Context, cmd Command) (Result, error) {
	if !s.running() {
		return Result{}, ErrNotStarted
	}

	var dedupeKey string
	if cmd.MessageID != "" {
		dedupeKey = cmd.UserID + ":" + cmd.MessageID
		if s.deduper.SeenAndRecord(ctx, dedupeKey) {
			metrics.RecordDuplicateMessage()
			s.logger.Debug(ctx, "duplicate message", logger.Participant(cmd.UserID),
				logger.String("message_id", cmd.MessageID))
			return Result{Duplicate: true}, nil
		}
	}

	rep := s.router.Route(ctx, cmd.UserID, cmd.Text)
	metrics.RecordCommand(rep.Command, rep.Outcome)

	res := Result{Messages: rep.Messages}
	if rep.Trigger != nil {
		if err := s.Schedule(ctx, rep.Trigger.SessionCode); err != nil {
			if dedupeKey != "" {
				s.deduper.Unrecord(ctx, dedupeKey)
			}
			return Result{Messages: []string{router.MsgQueueFull}}, err
		}
		res.MatchScheduled = true
	}

	for _, n := range rep.Notifications {
		if err := s.notifier.Notify(ctx, n.Recipients, n.Text); err != nil {
			s.logger.Warn(ctx, "notification failed", logger.Participant(cmd.UserID), logger.Error(err))
		}
	}
	return res, nil
}

// Schedule enqueues the match of a session that reached its trigger.
func (s *Service) Schedule(ctx context.Context, code string) error {
	if s.jobs.Enqueue(ctx, eventqueue.NewJob(code)) {
		metrics.RecordMatchScheduled()
		s.logger.Info(ctx, "match scheduled", logger.SessionCode(code))
		return nil
	}
	metrics.RecordMatchFailed("queue_full")
	if e, ok := s.store.Get(code); ok {
		e.Lock()
		reverted := e.Session().RevertTrigger()
		e.Unlock()
		s.logger.Warn(ctx, "match queue full, trigger reverted",
			logger.SessionCode(code), logger.Bool("reverted", reverted))
	}
	return ErrQueueFull
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"poolSize":    s.poolSize,
	}
	if s.started {
		sessions := s.store.Len()
		stats["queueLength"] = s.jobs.Len()
		stats["sessions"] = sessions
		stats["participants"] = s.store.Bound()
		stats["matchesProcessed"] = s.workers.Processed()
		stats["messageIds"] = s.deduper.Size()

		metrics.UpdateSessionsActive(sessions)
	}
	return stats
}

// ConfigOptions maps a loaded configuration onto service options.
func ConfigOptions(cfg *config.Config) []Option {
	return []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithShardCount(cfg.ShardCount),
		WithPoolSize(cfg.PoolSize),
		WithMaxPoolListing(cfg.MaxPoolListing),
		WithEventDelay(cfg.EventDelay()),
		WithSeed(cfg.Seed),
	}
}
