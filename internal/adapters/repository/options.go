// Package repository holds live sessions in memory.
package repository

import "github.com/okian/patabol/internal/domain/random"

// Option applies a configuration option to the SessionStore.
type Option func(*SessionStore)

// WithShardCount sets the number of shards. Values below 1 are ignored.
func WithShardCount(n int) Option {
	return func(s *SessionStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithSource sets the random source used to draw session codes.
func WithSource(src random.Source) Option {
	return func(s *SessionStore) {
		if src != nil {
			s.src = src
		}
	}
}

// WithMaxCodeAttempts bounds how many codes are drawn before giving up.
func WithMaxCodeAttempts(n int) Option {
	return func(s *SessionStore) {
		if n > 0 {
			s.maxCodeAttempts = n
		}
	}
}
