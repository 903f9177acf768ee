package strategy

import (
	"fmt"

	"golang-backtest/internal/backtest"
)

// Factory builds a fresh strategy instance. Each run gets its own instance
// so parallel sweeps never share strategy state.
type Factory func() (backtest.Strategy, error)

// Registry maps strategy names to factories, used by the HTTP API and the
// CLI to select strategies by name.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry preloaded with the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}

	r.Register("sma_cross", func() (backtest.Strategy, error) {
		return NewSMACross(10, 30)
	})
	r.Register("sma_cross_fast", func() (backtest.Strategy, error) {
		return NewSMACross(5, 15)
	})
	r.Register("rsi_reversal", func() (backtest.Strategy, error) {
		return NewRSIReversal(14, 30, 70)
	})

	return r
}

// Register adds or replaces a named factory.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// Build instantiates the named strategy.
func (r *Registry) Build(name string) (backtest.Strategy, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	return factory()
}

// Names lists the registered strategy names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}
