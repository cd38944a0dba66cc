package history

import (
	"context"
	"time"
)

// Cycle outcomes recorded in the journal.
const (
	OutcomeUpdated  = "updated"
	OutcomeUpToDate = "up-to-date"
	OutcomeFailed   = "failed"
)

// Cycle represents one recorded update cycle
type Cycle struct {
	ID          int64     // Assigned by the store
	Mode        string    // "auto", "manual" or "fix"
	FromVersion string    // Local version when the cycle started
	ToVersion   string    // Remote version the cycle targeted
	Outcome     string    // One of the Outcome constants; empty while running
	Error       string    // Failure detail, empty on success
	StartedAt   time.Time // When the cycle started
	FinishedAt  time.Time // When the cycle finished; zero while running
}

// Store defines the interface for the update-cycle journal
type Store interface {
	// Initialize initializes the store (e.g., creates tables)
	Initialize(ctx context.Context) error

	// BeginCycle records the start of a cycle and assigns its ID
	BeginCycle(ctx context.Context, cycle *Cycle) error

	// FinishCycle records a cycle's outcome
	FinishCycle(ctx context.Context, id int64, outcome, errDetail string) error

	// ListCycles lists the most recent cycles, newest first
	ListCycles(ctx context.Context, limit int) ([]*Cycle, error)

	// Close closes the store
	Close() error
}
