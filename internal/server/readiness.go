package server

import (
	"sync"
	"sync/atomic"
)

// Readiness tracks whether the database is usable. Until MarkReady is
// called every /api route except /api/healthz answers 503.
type Readiness struct {
	ready atomic.Bool

	mu  sync.Mutex
	err error
}

func NewReadiness() *Readiness {
	return &Readiness{}
}

// MarkReady opens the API and clears any recorded failure.
func (r *Readiness) MarkReady() {
	r.mu.Lock()
	r.err = nil
	r.mu.Unlock()
	r.ready.Store(true)
}

// MarkFailed closes the API and records why.
func (r *Readiness) MarkFailed(err error) {
	r.ready.Store(false)
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// State returns the readiness flag and the last recorded failure.
func (r *Readiness) State() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready.Load(), r.err
}
