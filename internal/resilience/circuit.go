// Package resilience keeps checkout responsive when a side channel fails.
// The breaker fronts the notifier fan-out: when the task queue misbehaves
// the bus stops hammering it and sales keep flowing, with the outbox rows
// left behind for replay.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/events"
)

// ErrOpen is returned while the breaker refuses calls.
var ErrOpen = errors.New("resilience: circuit open")

type state int

const (
	closed state = iota
	open
	halfOpen
)

func (s state) String() string {
	switch s {
	case closed:
		return "closed"
	case open:
		return "open"
	case halfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker is a consecutive-failure circuit breaker. It opens after
// Threshold failures in a row and probes again after Cooldown.
type Breaker struct {
	Threshold int
	Cooldown  time.Duration
	Now       func() time.Time

	mu       sync.Mutex
	state    state
	failures int
	openedAt time.Time
}

func (b *Breaker) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Breaker) threshold() int {
	if b.Threshold <= 0 {
		return 5
	}
	return b.Threshold
}

func (b *Breaker) cooldown() time.Duration {
	if b.Cooldown <= 0 {
		return 30 * time.Second
	}
	return b.Cooldown
}

// Do runs fn unless the breaker is open, and records the outcome.
func (b *Breaker) Do(fn func() error) error {
	if !b.allow() {
		return ErrOpen
	}
	err := fn()
	b.report(err == nil)
	return err
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == open {
		if b.now().Sub(b.openedAt) >= b.cooldown() {
			b.state = halfOpen
			return true
		}
		return false
	}
	return true
}

func (b *Breaker) report(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case halfOpen:
		if success {
			b.state = closed
			b.failures = 0
		} else {
			b.state = open
			b.openedAt = b.now()
		}
	case closed:
		if success {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.threshold() {
			b.state = open
			b.openedAt = b.now()
		}
	}
}

// GuardedNotifier wraps a notifier behind a breaker so a dead queue cannot
// slow every checkout down to its timeout.
type GuardedNotifier struct {
	Next    events.Notifier
	Breaker *Breaker
	Log     zerolog.Logger
}

// Notify implements events.Notifier.
func (g *GuardedNotifier) Notify(ctx context.Context, event db.DomainEvent) error {
	err := g.Breaker.Do(func() error { return g.Next.Notify(ctx, event) })
	if errors.Is(err, ErrOpen) {
		g.Log.Warn().Str("topic", event.Topic).Msg("notifier circuit open, event kept in outbox only")
	}
	return err
}
