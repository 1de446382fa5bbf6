package router

import (
	"github.com/okian/patabol/internal/domain/random"
	"github.com/okian/patabol/pkg/logger"
)

// Option configures a Router.
type Option func(*Router)

// WithSource sets the random source used to sample long pool listings.
func WithSource(src random.Source) Option {
	return func(r *Router) {
		if src != nil {
			r.src = src
		}
	}
}

// WithMaxPoolListing caps an unfiltered pool listing.
func WithMaxPoolListing(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.maxPoolListing = n
		}
	}
}

// WithLogger sets the router logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}
