package guidance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfq-workers/internal/matching/gaps"
	"rfq-workers/internal/models"
)

var clock = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

func TestPricing_RoundsToCents(t *testing.T) {
	band := Pricing(decimal.NewFromFloat(123456.78), 0.5)

	assert.Equal(t, "101234.56", band.Aggressive.StringFixed(2))
	assert.Equal(t, "113580.24", band.Competitive.StringFixed(2))
	assert.Equal(t, "116049.37", band.Optimal.StringFixed(2))
	assert.Equal(t, "133333.32", band.Premium.StringFixed(2))
	assert.Equal(t, StrategyCompetitive, band.Recommended)

	assert.True(t, band.Aggressive.LessThan(band.Competitive))
	assert.True(t, band.Competitive.LessThan(band.Optimal))
	assert.True(t, band.Optimal.LessThan(band.Premium))
}

func TestStrategy(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{0.95, StrategyPremium},
		{0.81, StrategyPremium},
		{0.8, StrategyOptimal},
		{0.6, StrategyOptimal},
		{0.59, StrategyCompetitive},
		{0.4, StrategyCompetitive},
		{0.39, StrategyAggressive},
		{0, StrategyAggressive},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Strategy(tt.p), "p=%v", tt.p)
	}
}

func TestThemes(t *testing.T) {
	t.Run("strengths and gaps in dimension order", func(t *testing.T) {
		a := gaps.Analyze(models.ScoreBreakdown{
			Technical: 90, Financial: 40, Experience: 70, Capacity: 85, Location: 50, Cultural: 65,
		})
		themes := Themes(a)
		require.Len(t, themes, 4)
		assert.Equal(t, strengthThemes[models.DimensionTechnical], themes[0])
		assert.Equal(t, gapThemes[models.DimensionFinancial], themes[1])
		assert.Equal(t, strengthThemes[models.DimensionCapacity], themes[2])
		assert.Equal(t, gapThemes[models.DimensionLocation], themes[3])
	})

	t.Run("capped", func(t *testing.T) {
		a := gaps.Analyze(models.ScoreBreakdown{
			Technical: 100, Financial: 100, Experience: 100, Capacity: 100, Location: 100, Cultural: 100,
		})
		themes := Themes(a)
		assert.Len(t, themes, MaxThemes)
		assert.NotContains(t, themes, strengthThemes[models.DimensionCultural])
	})

	t.Run("middling scores give no themes", func(t *testing.T) {
		a := gaps.Analyze(models.ScoreBreakdown{
			Technical: 70, Financial: 70, Experience: 70, Capacity: 70, Location: 70, Cultural: 70,
		})
		assert.Empty(t, Themes(a))
	})
}

func TestPlanFor(t *testing.T) {
	tests := []struct {
		days       int
		wantPhases []int
		wantUrgent bool
	}{
		{30, []int{3, 5, 4, 2}, false},
		{15, []int{3, 5, 4, 2}, false},
		{14, []int{1, 3, 2, 1}, false},
		{7, []int{1, 3, 2, 1}, false},
		{6, []int{6}, true},
		{0, []int{0}, true},
		{-3, []int{0}, true},
	}

	for _, tt := range tests {
		plan := PlanFor(tt.days)
		var got []int
		for _, p := range plan.Phases {
			got = append(got, p.Days)
		}
		assert.Equal(t, tt.wantPhases, got, "days=%d", tt.days)
		assert.Equal(t, tt.wantUrgent, plan.Urgent, "days=%d", tt.days)
		assert.LessOrEqual(t, plan.TotalDays(), max(tt.days, 0), "days=%d", tt.days)
	}
}

func TestPlanFor_PhaseNames(t *testing.T) {
	plan := PlanFor(20)
	names := make([]string, len(plan.Phases))
	for i, p := range plan.Phases {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"research", "solution design", "proposal writing", "review"}, names)
	assert.Equal(t, "urgent response", PlanFor(2).Phases[0].Name)
}

func TestPlanFor_ReturnsIndependentPhases(t *testing.T) {
	a := PlanFor(20)
	a.Phases[0].Days = 99
	assert.Equal(t, 3, PlanFor(20).Phases[0].Days)
}

func TestTimeline_UsesClock(t *testing.T) {
	g := NewGenerator(WithClock(func() time.Time { return clock }))

	assert.Equal(t, 10, g.Timeline(clock.AddDate(0, 0, 10)).DaysAvailable)
	assert.False(t, g.Timeline(clock.AddDate(0, 0, 10)).Urgent)
	assert.True(t, g.Timeline(clock.Add(36*time.Hour)).Urgent)
	assert.Equal(t, 0, g.Timeline(clock.Add(-48*time.Hour)).DaysAvailable)

	open := g.Timeline(time.Time{})
	assert.Len(t, open.Phases, 4)
	assert.Equal(t, open.TotalDays(), open.DaysAvailable)
}

func TestGuidance(t *testing.T) {
	g := NewGenerator(WithClock(func() time.Time { return clock }))
	opp := &models.Opportunity{
		ID:             "opp-9",
		EstimatedValue: 250000,
		ClosingDate:    clock.AddDate(0, 0, 21),
	}
	m := &models.Match{
		Candidate: models.Candidate{ID: "c-9"},
		Score: models.ScoreBreakdown{
			Technical: 100, Financial: 80, Experience: 70, Capacity: 80, Location: 100, Cultural: 100,
			Overall: 87, WinProbability: 0.95,
		},
	}

	b := g.Guidance(opp, m)
	assert.Equal(t, "c-9", b.CandidateID)
	assert.Equal(t, "opp-9", b.OpportunityID)
	assert.Equal(t, "205000.00", b.PricingBand.Aggressive.StringFixed(2))
	assert.Equal(t, "270000.00", b.PricingBand.Premium.StringFixed(2))
	assert.Equal(t, StrategyPremium, b.PricingBand.Recommended)
	assert.Len(t, b.ProposalThemes, MaxThemes)
	assert.Equal(t, 21, b.TimelinePlan.DaysAvailable)
	assert.Equal(t, 14, b.TimelinePlan.TotalDays())
}
