// Package circuitbreaker wraps sony/gobreaker with one breaker instance
// per BackendWorker, opening after a run of consecutive failures and
// probing again after a cooldown window.
package circuitbreaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// Config tunes one breaker instance.
type Config struct {
	Name                string
	FailureThreshold    uint32        // consecutive failures before opening
	OpenTimeout         time.Duration // time spent OPEN before probing HALF_OPEN
	HalfOpenMaxRequests uint32        // requests allowed through while HALF_OPEN
}

// DefaultConfig is the suggested breaker tuning for a TTS backend
// worker: open after 5 consecutive failures, cool down 30s.
func DefaultConfig(name string) Config {
	return Config{
		Name:                name,
		FailureThreshold:    5,
		OpenTimeout:         30 * time.Second,
		HalfOpenMaxRequests: 1,
	}
}

// Breaker wraps gobreaker.CircuitBreaker for a single backend worker.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New builds a breaker from cfg.
func New(cfg Config) *Breaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenMaxRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn through the breaker. If the breaker is OPEN, fn is
// never called and gobreaker.ErrOpenState is returned.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	return b.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
}

// State reports the breaker's current state for health/metrics
// reporting.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Pool is one Breaker per BackendWorker index, built once at startup.
type Pool struct {
	breakers []*Breaker
}

// NewPool builds n breakers named "<namePrefix>-<index>".
func NewPool(namePrefix string, n int) *Pool {
	p := &Pool{breakers: make([]*Breaker, n)}
	for i := 0; i < n; i++ {
		cfg := DefaultConfig(namePrefixedName(namePrefix, i))
		p.breakers[i] = New(cfg)
	}
	return p
}

func namePrefixedName(prefix string, i int) string {
	if prefix == "" {
		prefix = "worker"
	}
	return prefix + "-" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// For returns the breaker at index i. Callers must ensure i is within
// range; index comes from Router-Counter's modulo selection so it is
// always valid for a correctly sized pool.
func (p *Pool) For(i int) *Breaker {
	return p.breakers[i]
}

// Len reports how many breakers the pool holds.
func (p *Pool) Len() int {
	return len(p.breakers)
}
