package match

import "github.com/okian/patabol/internal/domain/random"

// Option configures an Engine.
type Option func(*Engine)

// WithSource sets the random source driving every draw of a simulation.
func WithSource(src random.Source) Option {
	return func(e *Engine) {
		if src != nil {
			e.src = src
		}
	}
}
