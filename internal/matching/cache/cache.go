// Package cache holds per-opportunity match results with get-or-compute
// semantics. Concurrent callers for the same opportunity share one
// computation and never observe a half-built entry.
package cache

import (
	"context"
	"time"

	"rfq-workers/internal/models"
)

// DefaultTTL is how long a match result stays fresh.
const DefaultTTL = 5 * time.Minute

// ComputeFunc produces a fresh result on a miss.
type ComputeFunc func(ctx context.Context) (*models.MatchResult, error)

// MatchCache is the engine's view of the cache.
type MatchCache interface {
	// GetOrCompute returns the cached result for opportunityID, or runs
	// compute once for all concurrent callers and stores its result. hit is
	// true when no computation ran for this caller.
	GetOrCompute(ctx context.Context, opportunityID string, compute ComputeFunc) (result *models.MatchResult, hit bool, err error)
	// Invalidate drops the entry so the next call recomputes.
	Invalidate(ctx context.Context, opportunityID string) error
}
