package pool

import "github.com/okian/patabol/internal/domain/random"

// Option configures a Generator.
type Option func(*Generator)

// WithSource sets the random source. Equal seeds produce equal pools.
func WithSource(src random.Source) Option {
	return func(g *Generator) {
		if src != nil {
			g.src = src
		}
	}
}
