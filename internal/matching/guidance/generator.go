// Package guidance turns a scored match into bid advice: a pricing band,
// proposal themes and a response timeline.
package guidance

import (
	"time"

	"github.com/shopspring/decimal"

	"rfq-workers/internal/matching/gaps"
	"rfq-workers/internal/models"
)

// Pricing strategies, from cheapest to most expensive.
const (
	StrategyAggressive  = "aggressive"
	StrategyCompetitive = "competitive"
	StrategyOptimal     = "optimal"
	StrategyPremium     = "premium"
)

// MaxThemes caps the proposal themes in one bundle.
const MaxThemes = 5

var (
	aggressiveMultiplier  = decimal.RequireFromString("0.82")
	competitiveMultiplier = decimal.RequireFromString("0.92")
	optimalMultiplier     = decimal.RequireFromString("0.94")
	premiumMultiplier     = decimal.RequireFromString("1.08")
)

const (
	standardMinDays   = 15
	compressedMinDays = 7
)

var (
	standardPlan = []models.TimelinePhase{
		{Name: "research", Days: 3},
		{Name: "solution design", Days: 5},
		{Name: "proposal writing", Days: 4},
		{Name: "review", Days: 2},
	}
	compressedPlan = []models.TimelinePhase{
		{Name: "research", Days: 1},
		{Name: "solution design", Days: 3},
		{Name: "proposal writing", Days: 2},
		{Name: "review", Days: 1},
	}
)

const urgentPhase = "urgent response"

var strengthThemes = map[models.Dimension]string{
	models.DimensionTechnical:  "Lead with certified technical expertise and directly relevant capabilities",
	models.DimensionFinancial:  "Emphasize financial stability, bonding and insurance coverage",
	models.DimensionExperience: "Showcase a track record of comparable completed projects",
	models.DimensionCapacity:   "Commit a dedicated team with immediate availability",
	models.DimensionLocation:   "Stress local presence and fast on-site response",
	models.DimensionCultural:   "Highlight community benefit and supplier diversity commitments",
}

var gapThemes = map[models.Dimension]string{
	models.DimensionTechnical:  "Address technical requirements with named specialists or a qualified partner",
	models.DimensionFinancial:  "Reassure on delivery risk with a phased payment schedule or surety support",
	models.DimensionExperience: "Offset limited history with references and key-personnel experience",
	models.DimensionCapacity:   "Show a staffing plan that covers peak workload",
	models.DimensionLocation:   "Explain how remote delivery and travel will meet site needs",
	models.DimensionCultural:   "Describe concrete community and diversity outcomes for this contract",
}

// Generator builds RecommendationBundles. Its only state is the clock.
type Generator struct {
	now func() time.Time
}

type Option func(*Generator)

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Guidance produces the bid advice for one match against its opportunity.
func (g *Generator) Guidance(opp *models.Opportunity, m *models.Match) models.RecommendationBundle {
	analysis := gaps.Analyze(m.Score)
	return models.RecommendationBundle{
		CandidateID:    m.Candidate.ID,
		OpportunityID:  opp.ID,
		Score:          m.Score,
		PricingBand:    Pricing(decimal.NewFromFloat(opp.EstimatedValue), m.Score.WinProbability),
		ProposalThemes: Themes(analysis),
		TimelinePlan:   g.Timeline(opp.ClosingDate),
	}
}

// Pricing scales value by the fixed band multipliers, rounded to cents.
func Pricing(value decimal.Decimal, winProbability float64) models.PricingBand {
	return models.PricingBand{
		Aggressive:  value.Mul(aggressiveMultiplier).Round(2),
		Competitive: value.Mul(competitiveMultiplier).Round(2),
		Optimal:     value.Mul(optimalMultiplier).Round(2),
		Premium:     value.Mul(premiumMultiplier).Round(2),
		Recommended: Strategy(winProbability),
	}
}

// Strategy picks a pricing position from the win probability.
func Strategy(winProbability float64) string {
	switch {
	case winProbability > 0.8:
		return StrategyPremium
	case winProbability >= 0.6:
		return StrategyOptimal
	case winProbability >= 0.4:
		return StrategyCompetitive
	}
	return StrategyAggressive
}

// Themes walks dimensions in order, adding a theme for each strength and a
// mitigation for each gap.
func Themes(a gaps.Analysis) []string {
	strong := make(map[models.Dimension]bool, len(a.Strengths))
	for _, d := range a.Strengths {
		strong[d] = true
	}
	weak := make(map[models.Dimension]bool, len(a.Gaps))
	for _, d := range a.Gaps {
		weak[d] = true
	}

	themes := make([]string, 0, MaxThemes)
	for _, d := range models.Dimensions {
		if len(themes) == MaxThemes {
			break
		}
		switch {
		case strong[d]:
			themes = append(themes, strengthThemes[d])
		case weak[d]:
			themes = append(themes, gapThemes[d])
		}
	}
	return themes
}

// Timeline plans the response for a deadline. A zero closing date gets the
// standard plan.
func (g *Generator) Timeline(closing time.Time) models.TimelinePlan {
	if closing.IsZero() {
		return models.TimelinePlan{DaysAvailable: totalDays(standardPlan), Phases: clonePhases(standardPlan)}
	}
	return PlanFor(DaysUntil(g.now(), closing))
}

// DaysUntil counts whole days from now to closing, negative once passed.
func DaysUntil(now, closing time.Time) int {
	return int(closing.Sub(now).Hours() / 24)
}

// PlanFor picks the plan for the given number of days. Phase days never
// exceed max(days, 0).
func PlanFor(days int) models.TimelinePlan {
	switch {
	case days >= standardMinDays:
		return models.TimelinePlan{DaysAvailable: days, Phases: clonePhases(standardPlan)}
	case days >= compressedMinDays:
		return models.TimelinePlan{DaysAvailable: days, Phases: clonePhases(compressedPlan)}
	}
	if days < 0 {
		days = 0
	}
	return models.TimelinePlan{
		DaysAvailable: days,
		Urgent:        true,
		Phases:        []models.TimelinePhase{{Name: urgentPhase, Days: days}},
	}
}

func clonePhases(p []models.TimelinePhase) []models.TimelinePhase {
	return append([]models.TimelinePhase(nil), p...)
}

func totalDays(p []models.TimelinePhase) int {
	return models.TimelinePlan{Phases: p}.TotalDays()
}
