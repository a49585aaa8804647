package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/common/metrics"
	"rfq-workers/internal/matching/cache"
	"rfq-workers/internal/models"
	"rfq-workers/internal/repository/memory"
)

var now = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

// rawRepo returns its candidates without honouring any filter.
type rawRepo struct {
	candidates []models.Candidate
	calls      int32
	release    chan struct{}
	err        error
}

func (r *rawRepo) FindEligible(context.Context, models.EligibilityFilters) ([]models.Candidate, error) {
	atomic.AddInt32(&r.calls, 1)
	if r.release != nil {
		<-r.release
	}
	if r.err != nil {
		return nil, r.err
	}
	return append([]models.Candidate(nil), r.candidates...), nil
}

func (r *rawRepo) GetByID(_ context.Context, id string) (*models.Candidate, error) {
	for _, c := range r.candidates {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, apperrors.NewCandidateNotFoundError(id)
}

func opportunity() *models.Opportunity {
	return &models.Opportunity{
		ID:             "opp-1",
		Industry:       "Construction",
		Geography:      models.Geography{Province: "ON", City: "Toronto"},
		EstimatedValue: 250000,
		ClosingDate:    now.AddDate(0, 1, 0),
		Complexity:     models.ComplexityMedium,
	}
}

func candidate(id string, employees int) models.Candidate {
	return models.Candidate{
		ID:             id,
		Name:           "Business " + id,
		Status:         models.CandidateStatusActive,
		Verified:       true,
		Industry:       "Construction",
		Geography:      models.Geography{Province: "ON", City: "Toronto"},
		EmployeeCount:  employees,
		MaxProjectSize: 1000000,
	}
}

func newEngine(t *testing.T, repo BusinessRepository, opps OpportunityRepository, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return now }), WithConcurrency(4)}, opts...)
	return New(repo, opps, cache.NewMemory(cache.DefaultTTL), logger.NewTestLogger(t), opts...)
}

func TestFindMatches_SortedDescendingWithStableTies(t *testing.T) {
	// Employees below 20 cost 20 capacity points on a medium opportunity.
	repo := &rawRepo{candidates: []models.Candidate{
		candidate("small-1", 5),
		candidate("large-1", 100),
		candidate("small-2", 5),
		candidate("small-3", 5),
		candidate("large-2", 100),
		candidate("small-4", 5),
	}}
	e := newEngine(t, repo, memory.NewOpportunityRepository())

	matches, err := e.FindMatches(context.Background(), opportunity())
	require.NoError(t, err)

	var got []string
	for _, m := range matches {
		got = append(got, m.Candidate.ID)
	}
	assert.Equal(t, []string{"large-1", "large-2", "small-1", "small-2", "small-3", "small-4"}, got)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score.Overall, matches[i].Score.Overall)
	}
}

func TestFindMatches_DesignatedSupplierHardGate(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	var pool []models.Candidate
	for i := 0; i < 200; i++ {
		c := candidate(fmt.Sprintf("c-%03d", i), 1+r.Intn(300))
		c.DesignatedSupplier = r.Intn(3) == 0
		c.YearsInBusiness = r.Intn(40)
		c.HasBonding = r.Intn(2) == 0
		pool = append(pool, c)
	}
	opp := opportunity()
	opp.RequiresDesignatedSupplier = true

	e := newEngine(t, &rawRepo{candidates: pool}, memory.NewOpportunityRepository())
	matches, err := e.FindMatches(context.Background(), opp)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	for _, m := range matches {
		assert.True(t, m.Candidate.DesignatedSupplier, "candidate %s lacks designated status", m.Candidate.ID)
	}
}

func TestFindMatches_InactiveAndUnverifiedExcluded(t *testing.T) {
	inactive := candidate("inactive", 30)
	inactive.Status = models.CandidateStatusInactive
	unverified := candidate("unverified", 30)
	unverified.Verified = false

	e := newEngine(t, &rawRepo{candidates: []models.Candidate{inactive, unverified, candidate("ok", 30)}}, memory.NewOpportunityRepository())
	result, _, err := e.Evaluate(context.Background(), opportunity())
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "ok", result.Matches[0].Candidate.ID)
	assert.Zero(t, result.Skipped)
}

func TestEvaluate_SkipsMalformedCandidates(t *testing.T) {
	broken := candidate("broken", -1)
	noID := candidate("", 10)

	e := newEngine(t, &rawRepo{candidates: []models.Candidate{broken, candidate("ok", 30), noID}}, memory.NewOpportunityRepository())
	result, _, err := e.Evaluate(context.Background(), opportunity())
	require.NoError(t, err)
	assert.Len(t, result.Matches, 1)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, now, result.ComputedAt)
}

func TestEvaluate_NoEligibleCandidatesIsEmpty(t *testing.T) {
	e := newEngine(t, &rawRepo{}, memory.NewOpportunityRepository())
	matches, err := e.FindMatches(context.Background(), opportunity())
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestEvaluate_InvalidOpportunityRejectedBeforeRetrieval(t *testing.T) {
	repo := &rawRepo{}
	e := newEngine(t, repo, memory.NewOpportunityRepository())

	opp := opportunity()
	opp.Budget = models.BudgetRange{Min: 500, Max: 100}
	_, err := e.FindMatches(context.Background(), opp)

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidOpportunity))
	assert.Zero(t, atomic.LoadInt32(&repo.calls))
}

func TestEvaluate_RepositoryUnavailable(t *testing.T) {
	e := newEngine(t, &rawRepo{err: errors.New("dial tcp 10.0.0.5:5432: i/o timeout")}, memory.NewOpportunityRepository())

	_, err := e.FindMatches(context.Background(), opportunity())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRepositoryUnavailable))
	assert.ErrorIs(t, err, apperrors.ErrRepositoryUnavailable)
}

func TestEvaluate_CacheHitIgnoresNewData(t *testing.T) {
	repo := memory.NewBusinessRepository(candidate("a", 30))
	e := newEngine(t, repo, memory.NewOpportunityRepository())
	ctx := context.Background()

	first, hit, err := e.Evaluate(ctx, opportunity())
	require.NoError(t, err)
	require.Len(t, first.Matches, 1)
	assert.False(t, hit)

	repo.Put(candidate("b", 30))
	second, hit, err := e.Evaluate(ctx, opportunity())
	require.NoError(t, err)
	assert.Len(t, second.Matches, 1)
	assert.True(t, hit)

	refreshed, err := e.Refresh(ctx, opportunity())
	require.NoError(t, err)
	assert.Len(t, refreshed.Matches, 2)
}

func TestEvaluate_ConcurrentCallersShareOnePass(t *testing.T) {
	repo := &rawRepo{
		candidates: []models.Candidate{candidate("a", 30), candidate("b", 60)},
		release:    make(chan struct{}),
	}
	e := newEngine(t, repo, memory.NewOpportunityRepository())

	const callers = 16
	results := make([]*models.MatchResult, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, _, err := e.Evaluate(context.Background(), opportunity())
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(repo.release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&repo.calls))
	for _, r := range results {
		require.NotNil(t, r)
		assert.Same(t, results[0], r)
		assert.Len(t, r.Matches, 2)
	}
}

func TestMatchCandidateToOpportunities(t *testing.T) {
	c := candidate("c-1", 30)
	businesses := memory.NewBusinessRepository(c)

	easy := *opportunity()
	easy.ID = "easy"

	designated := *opportunity()
	designated.ID = "designated"
	designated.RequiresDesignatedSupplier = true

	hard := *opportunity()
	hard.ID = "hard"
	hard.EstimatedValue = 5000000
	hard.RequiresBonding = true
	hard.MinYearsExperience = 10

	closed := *opportunity()
	closed.ID = "closed"
	closed.ClosingDate = now.Add(-time.Hour)

	invalid := *opportunity()
	invalid.ID = "invalid"
	invalid.EstimatedValue = -1

	opps := memory.NewOpportunityRepository(hard, designated, easy, closed, invalid)
	e := newEngine(t, businesses, opps)
	ctx := context.Background()

	all, err := e.MatchCandidateToOpportunities(ctx, "c-1", models.MatchOptions{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "easy", all[0].OpportunityID)
	assert.Equal(t, "hard", all[1].OpportunityID)

	strong, err := e.MatchCandidateToOpportunities(ctx, "c-1", models.MatchOptions{MinScore: all[0].Score.Overall})
	require.NoError(t, err)
	require.Len(t, strong, 1)
	assert.Equal(t, "easy", strong[0].OpportunityID)

	limited, err := e.MatchCandidateToOpportunities(ctx, "c-1", models.MatchOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = e.MatchCandidateToOpportunities(ctx, "ghost", models.MatchOptions{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCandidateNotFound))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestMatchCandidateToOpportunities_CountsOnlyScoredPairs(t *testing.T) {
	designated := *opportunity()
	designated.ID = "designated"
	designated.RequiresDesignatedSupplier = true

	invalid := *opportunity()
	invalid.ID = "invalid"
	invalid.EstimatedValue = -1

	opps := memory.NewOpportunityRepository(*opportunity(), designated, invalid)
	e := newEngine(t, memory.NewBusinessRepository(candidate("c-1", 30)), opps)

	before := counterValue(t, metrics.CandidatesScored)
	_, err := e.MatchCandidateToOpportunities(context.Background(), "c-1", models.MatchOptions{MinScore: 101})
	require.NoError(t, err)
	assert.Equal(t, 1.0, counterValue(t, metrics.CandidatesScored)-before)
}

func TestMatchCandidateToOpportunities_RepositoryFailure(t *testing.T) {
	opps := memory.NewOpportunityRepository()
	opps.FailWith(errors.New("timeout"))
	e := newEngine(t, memory.NewBusinessRepository(candidate("c-1", 30)), opps)

	_, err := e.MatchCandidateToOpportunities(context.Background(), "c-1", models.MatchOptions{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRepositoryUnavailable))
}

func TestScorePair(t *testing.T) {
	opp := opportunity()
	e := newEngine(t, memory.NewBusinessRepository(candidate("c-1", 30)), memory.NewOpportunityRepository(*opp))

	m, gotOpp, err := e.ScorePair(context.Background(), "c-1", opp.ID)
	require.NoError(t, err)
	assert.Equal(t, opp.ID, gotOpp.ID)
	assert.Equal(t, "c-1", m.Candidate.ID)
	assert.NotEmpty(t, m.Strengths)

	_, _, err = e.ScorePair(context.Background(), "c-1", "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeOpportunityNotFound))
}
