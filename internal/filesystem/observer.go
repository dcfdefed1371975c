package filesystem

import (
	"sync"
	"time"
)

// Operation reports one retried filesystem call after it has finished.
type Operation struct {
	// Name is "stat", "open" or "remove"
	Name string
	// Volume is the label from the volume resolver, or "unknown"
	Volume string
	// Elapsed covers every attempt including backoff sleeps
	Elapsed time.Duration
	// Stale counts ESTALE failures seen across attempts
	Stale int
	// Retries counts attempts after the first
	Retries int
	// Exhausted is set when the last permitted attempt still hit ESTALE
	Exhausted bool
	Err       error
}

// Recovered reports whether the call succeeded only after retrying.
func (op Operation) Recovered() bool {
	return op.Err == nil && op.Retries > 0
}

// Observer receives a report for every retried filesystem call. The metrics
// package provides the Prometheus implementation; filesystem itself never
// imports it.
type Observer interface {
	Observe(op Operation)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(op Operation)

// Observe calls f(op).
func (f ObserverFunc) Observe(op Operation) { f(op) }

var (
	observerMu      sync.RWMutex
	defaultObserver Observer
)

// SetObserver installs the package-level observer. nil disables reporting.
func SetObserver(o Observer) {
	observerMu.Lock()
	defaultObserver = o
	observerMu.Unlock()
}

func report(op Operation) {
	observerMu.RLock()
	o := defaultObserver
	observerMu.RUnlock()
	if o != nil {
		o.Observe(op)
	}
}
