package concurrency

import (
	"context"
	"sync"

	rferrors "github.com/AdamDotNet/recflow/pkg/common/errors"
	"github.com/AdamDotNet/recflow/pkg/metrics"
)

// Limiter bounds the number of operations that hold a slot at the same time.
type Limiter interface {
	// TryAcquire takes a slot if one is free. It never blocks.
	TryAcquire() bool

	// Acquire waits for a slot until ctx is done.
	Acquire(ctx context.Context) error

	// Release returns a slot. It panics when no slot is held.
	Release()

	// Capacity returns the number of slots.
	Capacity() int

	// InUse returns the number of slots currently held.
	InUse() int
}

// Config holds configuration options for a Limiter.
type Config struct {
	// Capacity is the number of slots.
	// Default: 8
	Capacity int

	// Name labels the in-use gauge.
	// Default: "default"
	Name string

	// Metrics reports slots in use when enabled.
	Metrics metrics.Config
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Capacity: 8,
		Name:     "default",
		Metrics:  metrics.DefaultConfig(),
	}
}

// Waiters are served in arrival order: a slot freed while others wait is
// handed to the oldest waiter instead of returning to the pool.
type limiter struct {
	mu       sync.Mutex
	capacity int
	inUse    int
	waiters  []chan struct{}

	name     string
	registry *metrics.Registry
}

// New creates a Limiter with capacity slots and default settings otherwise.
func New(capacity int) (Limiter, error) {
	config := DefaultConfig()
	config.Capacity = capacity
	return NewWithConfig(config)
}

// NewWithConfig creates a Limiter from config.
func NewWithConfig(config Config) (Limiter, error) {
	if config.Capacity <= 0 {
		return nil, rferrors.NewValidationError("concurrency", "capacity", config.Capacity, "capacity must be positive").
			WithHint("capacity determines how many operations may run at once")
	}
	if config.Name == "" {
		config.Name = DefaultConfig().Name
	}
	return &limiter{
		capacity: config.Capacity,
		name:     config.Name,
		registry: config.Metrics.Resolve(),
	}, nil
}

func (l *limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inUse >= l.capacity || len(l.waiters) > 0 {
		return false
	}
	l.take()
	return true
}

func (l *limiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	if l.inUse < l.capacity && len(l.waiters) == 0 {
		l.take()
		l.mu.Unlock()
		return nil
	}
	ready := make(chan struct{})
	l.waiters = append(l.waiters, ready)
	l.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, w := range l.waiters {
			if w == ready {
				l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
				return ctx.Err()
			}
		}
		// Handed a slot after ctx ended; give it back.
		l.release()
		return ctx.Err()
	}
}

func (l *limiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.release()
}

func (l *limiter) Capacity() int {
	return l.capacity
}

func (l *limiter) InUse() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inUse
}

// take and release must be called with l.mu held.
func (l *limiter) take() {
	l.inUse++
	if l.registry != nil {
		l.registry.SlotsInUse.WithLabelValues(l.name).Inc()
	}
}

func (l *limiter) release() {
	if l.inUse == 0 {
		panic("concurrency: release without acquire")
	}
	if len(l.waiters) > 0 {
		next := l.waiters[0]
		l.waiters = l.waiters[1:]
		close(next)
		return
	}
	l.inUse--
	if l.registry != nil {
		l.registry.SlotsInUse.WithLabelValues(l.name).Dec()
	}
}
