// Package engine retrieves candidates, scores them and ranks the results.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/common/metrics"
	"rfq-workers/internal/common/observability"
	"rfq-workers/internal/matching/cache"
	"rfq-workers/internal/matching/gaps"
	"rfq-workers/internal/matching/scoring"
	"rfq-workers/internal/models"
)

// BusinessRepository supplies candidate snapshots.
type BusinessRepository interface {
	FindEligible(ctx context.Context, filters models.EligibilityFilters) ([]models.Candidate, error)
	GetByID(ctx context.Context, id string) (*models.Candidate, error)
}

// OpportunityRepository supplies published opportunities.
type OpportunityRepository interface {
	GetByID(ctx context.Context, id string) (*models.Opportunity, error)
	ListOpen(ctx context.Context, asOf time.Time) ([]models.Opportunity, error)
}

const (
	DefaultConcurrency = 8
	DefaultLimit       = 10
)

// Engine is safe for concurrent use.
type Engine struct {
	businesses    BusinessRepository
	opportunities OpportunityRepository
	cache         cache.MatchCache
	model         *scoring.Model
	concurrency   int
	defaultLimit  int
	now           func() time.Time
	logger        logger.Logger
}

type Option func(*Engine)

func WithModel(m *scoring.Model) Option {
	return func(e *Engine) { e.model = m }
}

func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

func WithDefaultLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.defaultLimit = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New wires an Engine. A nil cache gets an in-memory cache with the default
// TTL.
func New(businesses BusinessRepository, opportunities OpportunityRepository, c cache.MatchCache, log logger.Logger, opts ...Option) *Engine {
	if c == nil {
		c = cache.NewMemory(cache.DefaultTTL)
	}
	e := &Engine{
		businesses:    businesses,
		opportunities: opportunities,
		cache:         c,
		model:         scoring.Default(),
		concurrency:   DefaultConcurrency,
		defaultLimit:  DefaultLimit,
		now:           time.Now,
		logger:        log.WithFields(map[string]interface{}{"component": "match-engine"}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FindMatches returns the ranked matches for opp, from cache when fresh.
func (e *Engine) FindMatches(ctx context.Context, opp *models.Opportunity) ([]models.Match, error) {
	r, _, err := e.Evaluate(ctx, opp)
	if err != nil {
		return nil, err
	}
	return append([]models.Match(nil), r.Matches...), nil
}

// Evaluate is FindMatches plus pass metadata. hit is false only for the
// caller whose pass produced the result. The returned result is shared with
// the cache and must not be modified.
func (e *Engine) Evaluate(ctx context.Context, opp *models.Opportunity) (*models.MatchResult, bool, error) {
	if err := opp.Validate(); err != nil {
		return nil, false, err
	}

	r, hit, err := e.cache.GetOrCompute(ctx, opp.ID, func(ctx context.Context) (*models.MatchResult, error) {
		return e.compute(ctx, opp)
	})
	if err != nil {
		metrics.MatchCacheRequests.WithLabelValues(metrics.CacheError).Inc()
		return nil, false, err
	}
	if hit {
		metrics.MatchCacheRequests.WithLabelValues(metrics.CacheHit).Inc()
	} else {
		metrics.MatchCacheRequests.WithLabelValues(metrics.CacheMiss).Inc()
	}
	return r, hit, nil
}

// Invalidate drops any cached result for the opportunity.
func (e *Engine) Invalidate(ctx context.Context, opportunityID string) error {
	return e.cache.Invalidate(ctx, opportunityID)
}

// Refresh recomputes opp regardless of cache state.
func (e *Engine) Refresh(ctx context.Context, opp *models.Opportunity) (*models.MatchResult, error) {
	if err := e.Invalidate(ctx, opp.ID); err != nil {
		return nil, err
	}
	r, _, err := e.Evaluate(ctx, opp)
	return r, err
}

func (e *Engine) compute(ctx context.Context, opp *models.Opportunity) (result *models.MatchResult, err error) {
	ctx, span := observability.StartSpan(ctx, "engine.compute", attribute.String("opportunityId", opp.ID))
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	defer func() { metrics.MatchPassDuration.Observe(time.Since(start).Seconds()) }()

	candidates, err := e.businesses.FindEligible(ctx, models.EligibilityFilters{
		Status:                     models.CandidateStatusActive,
		Verified:                   true,
		DesignatedSupplierRequired: opp.RequiresDesignatedSupplier,
	})
	if err != nil {
		return nil, repositoryError("business repository", err)
	}

	eligible, skipped := e.filterEligible(candidates, opp)
	matches := make([]models.Match, len(eligible))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i := range eligible {
		g.Go(func() error {
			matches[i] = e.BuildMatch(&eligible[i], opp)
			return nil
		})
	}
	_ = g.Wait() // scoring never fails

	sortByOverall(matches)

	metrics.CandidatesScored.Add(float64(len(matches)))
	metrics.CandidatesSkipped.Add(float64(skipped))
	span.SetAttributes(
		attribute.Int("candidates.retrieved", len(candidates)),
		attribute.Int("candidates.scored", len(matches)),
		attribute.Int("candidates.skipped", skipped),
	)

	e.logger.Info("match pass complete", map[string]interface{}{
		"opportunityId": opp.ID,
		"retrieved":     len(candidates),
		"matched":       len(matches),
		"skipped":       skipped,
	})

	return &models.MatchResult{
		OpportunityID: opp.ID,
		Matches:       matches,
		Skipped:       skipped,
		ComputedAt:    e.now().UTC(),
	}, nil
}

// filterEligible applies the hard gates again, independent of how well the
// repository honoured the filters. Malformed profiles are counted, not fatal.
func (e *Engine) filterEligible(candidates []models.Candidate, opp *models.Opportunity) ([]models.Candidate, int) {
	eligible := make([]models.Candidate, 0, len(candidates))
	skipped := 0
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			skipped++
			e.logger.Warn("skipping malformed candidate", map[string]interface{}{
				"candidateId":   c.ID,
				"opportunityId": opp.ID,
				"error":         err,
			})
			continue
		}
		if !c.IsActive() {
			continue
		}
		if opp.RequiresDesignatedSupplier && !c.DesignatedSupplier {
			continue
		}
		eligible = append(eligible, c)
	}
	return eligible, skipped
}

// BuildMatch scores one pair and attaches its classification and advice.
func (e *Engine) BuildMatch(c *models.Candidate, opp *models.Opportunity) models.Match {
	score := e.model.Score(c, opp)
	analysis := gaps.Analyze(score)
	return models.Match{
		Candidate:             *c,
		OpportunityID:         opp.ID,
		Score:                 score,
		Strengths:             analysis.Strengths,
		Gaps:                  analysis.Gaps,
		Recommendations:       scoring.Recommendations(analysis.Gaps),
		MissingCertifications: scoring.MissingCertifications(c, opp),
	}
}

// MatchCandidateToOpportunities scores one candidate against every open
// opportunity and returns at most opts.Limit matches at or above
// opts.MinScore.
func (e *Engine) MatchCandidateToOpportunities(ctx context.Context, candidateID string, opts models.MatchOptions) (result []models.Match, err error) {
	ctx, span := observability.StartSpan(ctx, "engine.match_candidate", attribute.String("candidateId", candidateID))
	defer func() { observability.EndSpan(span, err) }()

	c, err := e.businesses.GetByID(ctx, candidateID)
	if err != nil {
		return nil, repositoryError("business repository", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("candidate %s cannot be scored: %w", candidateID, err)
	}
	if !c.IsActive() {
		return []models.Match{}, nil
	}

	opps, err := e.opportunities.ListOpen(ctx, e.now())
	if err != nil {
		return nil, repositoryError("opportunity repository", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = e.defaultLimit
	}

	matches := make([]models.Match, 0, len(opps))
	scored := 0
	for i := range opps {
		opp := &opps[i]
		if err := opp.Validate(); err != nil {
			e.logger.Warn("skipping invalid opportunity", map[string]interface{}{
				"opportunityId": opp.ID,
				"error":         err,
			})
			continue
		}
		if opp.RequiresDesignatedSupplier && !c.DesignatedSupplier {
			continue
		}
		scored++
		m := e.BuildMatch(c, opp)
		if m.Score.Overall < opts.MinScore {
			continue
		}
		matches = append(matches, m)
	}
	metrics.CandidatesScored.Add(float64(scored))

	sortByOverall(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// ScorePair loads both sides and builds their Match. Neither the cache nor
// the eligibility gates apply.
func (e *Engine) ScorePair(ctx context.Context, candidateID, opportunityID string) (*models.Match, *models.Opportunity, error) {
	c, err := e.businesses.GetByID(ctx, candidateID)
	if err != nil {
		return nil, nil, repositoryError("business repository", err)
	}
	opp, err := e.opportunities.GetByID(ctx, opportunityID)
	if err != nil {
		return nil, nil, repositoryError("opportunity repository", err)
	}
	if err := opp.Validate(); err != nil {
		return nil, nil, err
	}
	m := e.BuildMatch(c, opp)
	return &m, opp, nil
}

// sortByOverall orders descending; ties keep their input order.
func sortByOverall(matches []models.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score.Overall > matches[j].Score.Overall
	})
}

// repositoryError keeps typed errors from the repository and wraps anything
// else as RepositoryUnavailable.
func repositoryError(source string, err error) error {
	var se *apperrors.StandardError
	if errors.As(err, &se) {
		return err
	}
	return apperrors.NewRepositoryUnavailableError(source, err)
}
