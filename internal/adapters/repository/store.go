package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/patabol/internal/domain/random"
	"github.com/okian/patabol/internal/domain/session"
	"github.com/okian/patabol/pkg/metrics"
)

const (
	defaultShardCount            = 16
	defaultMaxCodeAttempts       = 64
	defaultMetricsUpdateInterval = 5 * time.Second
)

// Entry guards one session. Every read or mutation of the session must hold
// the entry lock; entries of different sessions never contend.
type Entry struct {
	mu      sync.Mutex
	code    string
	session *session.Session
	removed bool
}

// Lock acquires the session lock.
func (e *Entry) Lock() { e.mu.Lock() }

// Unlock releases the session lock.
func (e *Entry) Unlock() { e.mu.Unlock() }

// Code returns the session code. It never changes.
func (e *Entry) Code() string { return e.code }

// Session returns the guarded session. The caller must hold the lock.
func (e *Entry) Session() *session.Session { return e.session }

// Removed reports whether the entry was deleted from the store after the
// caller looked it up. The caller must hold the lock.
func (e *Entry) Removed() bool { return e.removed }

type shard struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// SessionStore is an in-memory, sharded session repository with a reverse
// index from participant to session code.
//
// Lock order: entry lock, then shard or index lock. Shard and index locks are
// never held while acquiring an entry lock.
type SessionStore struct {
	shards     []*shard
	shardCount int
	src        random.Source

	indexMu sync.RWMutex
	index   map[string]string

	count  atomic.Int64
	closed atomic.Bool

	maxCodeAttempts       int
	metricsUpdateInterval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSessionStore creates a store and starts its metrics updater, which stops
// when ctx is done or Close is called.
func NewSessionStore(ctx context.Context, opts ...Option) *SessionStore {
	s := &SessionStore{
		shardCount:            defaultShardCount,
		maxCodeAttempts:       defaultMaxCodeAttempts,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		index:                 make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.src == nil {
		src, err := random.NewFromCrypto()
		if err != nil {
			src = random.New(time.Now().UnixNano())
		}
		s.src = src
	}
	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*Entry)}
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.startMetricsUpdater(ctx)
	return s
}

func (s *SessionStore) shardFor(code string) *shard {
	return s.shards[xxhash.Sum64String(code)%uint64(len(s.shards))]
}

// Create allocates a fresh unique code and stores the session built for it.
// The code is checked and inserted under the owning shard's lock, so two
// concurrent creations can never share a code.
func (s *SessionStore) Create(build func(code string) *session.Session) (*Entry, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	for attempt := 0; attempt < s.maxCodeAttempts; attempt++ {
		code := session.NewCode(s.src)
		sh := s.shardFor(code)

		sh.mu.Lock()
		if _, taken := sh.entries[code]; taken {
			sh.mu.Unlock()
			continue
		}
		e := &Entry{code: code, session: build(code)}
		sh.entries[code] = e
		sh.mu.Unlock()

		s.count.Add(1)
		metrics.RecordSessionCreated()
		return e, nil
	}
	return nil, ErrCodeExhausted
}

// Get returns the entry for a code. The code is normalized first.
func (s *SessionStore) Get(code string) (*Entry, bool) {
	code = session.NormalizeCode(code)
	sh := s.shardFor(code)
	sh.mu.RLock()
	e, ok := sh.entries[code]
	sh.mu.RUnlock()
	return e, ok
}

// Remove deletes the entry from the store. The caller must hold e's lock;
// concurrent holders of e observe Removed() once they acquire it.
func (s *SessionStore) Remove(e *Entry) {
	if e.removed {
		return
	}
	e.removed = true
	sh := s.shardFor(e.code)
	sh.mu.Lock()
	if cur, ok := sh.entries[e.code]; ok && cur == e {
		delete(sh.entries, e.code)
		s.count.Add(-1)
		metrics.RecordSessionEnded()
	}
	sh.mu.Unlock()
}

// Bind maps participant to code unless the participant is already bound to
// a different session. Binding to the same code again succeeds.
func (s *SessionStore) Bind(participant, code string) bool {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	if cur, ok := s.index[participant]; ok {
		return cur == code
	}
	s.index[participant] = code
	return true
}

// Unbind removes the participant's mapping if it points at code.
func (s *SessionStore) Unbind(participant, code string) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	if cur, ok := s.index[participant]; ok && cur == code {
		delete(s.index, participant)
	}
}

// Lookup returns the code of the participant's current session.
func (s *SessionStore) Lookup(participant string) (string, bool) {
	s.indexMu.RLock()
	defer s.indexMu.RUnlock()
	code, ok := s.index[participant]
	return code, ok
}

// Resolve returns the entry of the participant's current session.
func (s *SessionStore) Resolve(participant string) (*Entry, bool) {
	code, ok := s.Lookup(participant)
	if !ok {
		return nil, false
	}
	return s.Get(code)
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	return int(s.count.Load())
}

// Bound returns the number of participants currently mapped to a session.
func (s *SessionStore) Bound() int {
	s.indexMu.RLock()
	defer s.indexMu.RUnlock()
	return len(s.index)
}

// Close stops the background updater. Stored sessions stay readable.
func (s *SessionStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.cancel()
	s.wg.Wait()
	return nil
}

func (s *SessionStore) startMetricsUpdater(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateSessionsActive(s.Len())
		}
	}
}
