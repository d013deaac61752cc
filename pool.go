package mugshot

import (
	"errors"
	"io"
	"sync"
)

// Factory builds and configures a detector instance.
type Factory func() (Detector, error)

type poolEntry struct {
	once sync.Once
	det  Detector
	err  error
}

// Pool lazily holds one detector per worker id. Each instance is built and
// configured exactly once, on the first request of its worker, and is never shared.
type Pool struct {
	factory Factory

	mu      sync.Mutex
	entries map[int]*poolEntry
}

// NewPool creates a pool building detectors through factory.
func NewPool(factory Factory) *Pool {
	return &Pool{
		factory: factory,
		entries: make(map[int]*poolEntry),
	}
}

// Get returns the detector owned by the worker, constructing it on first use.
// A construction failure is remembered and reported as a *ConfigError on every call.
func (p *Pool) Get(worker int) (Detector, error) {
	p.mu.Lock()
	e, ok := p.entries[worker]
	if !ok {
		e = &poolEntry{}
		p.entries[worker] = e
	}
	p.mu.Unlock()

	e.once.Do(func() {
		if p.factory == nil {
			e.err = &ConfigError{Op: "detector", Err: errors.New("no detector factory")}
			return
		}
		det, err := p.factory()
		switch {
		case err != nil:
			e.err = asConfigError("detector", err)
		case det == nil:
			e.err = &ConfigError{Op: "detector", Err: errors.New("factory returned no detector")}
		default:
			e.det = det
		}
	})
	return e.det, e.err
}

// Len returns the number of workers known to the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.entries)
}

// Close releases the detectors implementing io.Closer and empties the pool.
func (p *Pool) Close() error {
	p.mu.Lock()
	entries := p.entries
	p.entries = make(map[int]*poolEntry)
	p.mu.Unlock()

	var errs []error
	for _, e := range entries {
		if c, ok := e.det.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
