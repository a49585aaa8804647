// Package compatibility scores how well two businesses would work together.
package compatibility

import (
	"context"
	"math"
	"strings"

	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/models"
)

// PastCollaborationLookup returns a [0,1] score for prior work between two
// businesses, 0 when they never worked together.
type PastCollaborationLookup interface {
	Get(ctx context.Context, idA, idB string) (float64, error)
}

// NoHistory is a lookup that knows no collaborations.
type NoHistory struct{}

func (NoHistory) Get(context.Context, string, string) (float64, error) { return 0, nil }

// Factor weights. They sum to 1.0.
const (
	weightIndustry      = 0.25
	weightSize          = 0.20
	weightCulture       = 0.20
	weightGeography     = 0.20
	weightCollaboration = 0.15
)

const (
	industrySame      = 1.0
	industryRelated   = 0.7
	industryUnrelated = 0.4

	sizeFloor = 0.3

	cultureBothDesignated = 0.9
	cultureDefault        = 0.7

	geoSameProvince = 0.9
	geoNational     = 0.7
	geoApart        = 0.4
)

// Recommendation tiers.
const (
	TierExcellent = "Excellent partnership potential"
	TierGood      = "Good partnership potential"
	TierModerate  = "Moderate partnership potential"
	TierWeak      = "Consider alternative partners"
)

// relatedIndustries is symmetric; see related.
var relatedIndustries = map[string][]string{
	"construction":          {"engineering", "architecture", "facilities management", "environmental services"},
	"engineering":           {"manufacturing", "environmental services"},
	"it services":           {"software development", "telecommunications", "consulting"},
	"consulting":            {"professional services"},
	"logistics":             {"transportation", "warehousing"},
	"healthcare":            {"medical supplies"},
	"facilities management": {"janitorial services", "security services"},
}

// Evaluator computes CompatibilityResult values. Only the history lookup
// touches I/O; everything else is pure.
type Evaluator struct {
	history PastCollaborationLookup
	logger  logger.Logger
}

// NewEvaluator returns an Evaluator. A nil history means no collaborations.
func NewEvaluator(history PastCollaborationLookup, log logger.Logger) *Evaluator {
	if history == nil {
		history = NoHistory{}
	}
	return &Evaluator{
		history: history,
		logger:  log.WithFields(map[string]interface{}{"component": "compatibility"}),
	}
}

// Evaluate scores a against b. Lookup failures count as no history.
func (e *Evaluator) Evaluate(ctx context.Context, a, b *models.Candidate) models.CompatibilityResult {
	past, err := e.history.Get(ctx, a.ID, b.ID)
	if err != nil {
		e.logger.Warn("past collaboration lookup failed", map[string]interface{}{
			"candidateA": a.ID,
			"candidateB": b.ID,
			"error":      err,
		})
		past = 0
	}
	return Score(a, b, past)
}

// Score is the pure part of Evaluate.
func Score(a, b *models.Candidate, pastCollaboration float64) models.CompatibilityResult {
	f := models.CompatibilityFactors{
		IndustryAlignment: IndustryAlignment(a, b),
		SizeCompatibility: SizeCompatibility(a.EmployeeCount, b.EmployeeCount),
		CultureFit:        cultureFit(a, b),
		GeographicSynergy: geographicSynergy(a, b),
		PastCollaboration: clampUnit(pastCollaboration),
	}
	score := f.IndustryAlignment*weightIndustry +
		f.SizeCompatibility*weightSize +
		f.CultureFit*weightCulture +
		f.GeographicSynergy*weightGeography +
		f.PastCollaboration*weightCollaboration
	score = clampUnit(score)

	return models.CompatibilityResult{
		Score:          score,
		Factors:        f,
		Recommendation: Recommendation(score),
	}
}

// IndustryAlignment is 1.0 for the same primary industry, 0.7 for related
// industries (including a shared secondary industry) and 0.4 otherwise.
func IndustryAlignment(a, b *models.Candidate) float64 {
	ai, bi := normalize(a.Industry), normalize(b.Industry)
	if ai != "" && ai == bi {
		return industrySame
	}
	if related(ai, bi) {
		return industryRelated
	}
	for _, s := range a.SecondaryIndustries {
		if normalize(s) == bi && bi != "" {
			return industryRelated
		}
	}
	for _, s := range b.SecondaryIndustries {
		if normalize(s) == ai && ai != "" {
			return industryRelated
		}
	}
	return industryUnrelated
}

// SizeCompatibility is smaller/larger employee count, floored at 0.3.
func SizeCompatibility(x, y int) float64 {
	lo, hi := math.Min(float64(x), float64(y)), math.Max(float64(x), float64(y))
	if hi <= 0 {
		return 1
	}
	return math.Max(sizeFloor, math.Max(0, lo)/hi)
}

func cultureFit(a, b *models.Candidate) float64 {
	if a.DesignatedSupplier && b.DesignatedSupplier {
		return cultureBothDesignated
	}
	return cultureDefault
}

func geographicSynergy(a, b *models.Candidate) float64 {
	if a.Geography.Province != "" && strings.EqualFold(a.Geography.Province, b.Geography.Province) {
		return geoSameProvince
	}
	if a.OperatesNationally || b.OperatesNationally {
		return geoNational
	}
	return geoApart
}

// Recommendation maps a score to its tier text.
func Recommendation(score float64) string {
	switch {
	case score >= 0.8:
		return TierExcellent
	case score >= 0.7:
		return TierGood
	case score >= 0.6:
		return TierModerate
	default:
		return TierWeak
	}
}

func related(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	for _, r := range relatedIndustries[a] {
		if r == b {
			return true
		}
	}
	for _, r := range relatedIndustries[b] {
		if r == a {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
