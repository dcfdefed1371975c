package handlers

import (
	"time"

	"mediasweep/internal/cleaner"
	"mediasweep/internal/recyclebin"
)

// Handlers holds the dependencies of the HTTP handlers.
type Handlers struct {
	cleaner   *cleaner.Cleaner
	bin       *recyclebin.Store
	startedAt time.Time
}

// New creates the handler set.
func New(c *cleaner.Cleaner, bin *recyclebin.Store) *Handlers {
	return &Handlers{cleaner: c, bin: bin, startedAt: time.Now()}
}
