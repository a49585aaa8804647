// Package partnership pairs matches that have gaps with partners who fill
// them, and records which pairings were offered.
package partnership

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/common/metrics"
	"rfq-workers/internal/matching/gaps"
	"rfq-workers/internal/matching/scoring"
	"rfq-workers/internal/models"
)

// Thresholds for synthesis.
const (
	NeedsHelpMin     = 50.0
	NeedsHelpMax     = 80.0
	MinCoverage      = 0.6
	MinCompatibility = 0.7
	MinViability     = 70.0

	capacityPooling   = 0.7
	primeSizeMultiple = 2

	viabilityCombined      = 0.5
	viabilitySynergy       = 0.3
	viabilityCompatibility = 0.2

	synergyCoverage  = 50.0
	synergyStrengths = 30.0
	synergyFit       = 20.0
)

// CompatibilityEvaluator is satisfied by compatibility.Evaluator.
type CompatibilityEvaluator interface {
	Evaluate(ctx context.Context, a, b *models.Candidate) models.CompatibilityResult
}

// Synthesizer is stateless apart from its collaborators.
type Synthesizer struct {
	evaluator CompatibilityEvaluator
	weights   scoring.Weights
	logger    logger.Logger
}

func NewSynthesizer(evaluator CompatibilityEvaluator, weights scoring.Weights, log logger.Logger) *Synthesizer {
	return &Synthesizer{
		evaluator: evaluator,
		weights:   weights,
		logger:    log.WithFields(map[string]interface{}{"component": "partnership-synthesizer"}),
	}
}

type candidatePartner struct {
	match    *models.Match
	coverage float64
	covered  []models.GapType
	compat   models.CompatibilityResult
}

// IdentifyOpportunities proposes at most one partnership per match in the
// needs-help band, sorted by combined score descending.
func (s *Synthesizer) IdentifyOpportunities(ctx context.Context, opp *models.Opportunity, matches []models.Match) []models.Partnership {
	var out []models.Partnership

	for i := range matches {
		primary := &matches[i]
		if primary.Score.Overall < NeedsHelpMin || primary.Score.Overall >= NeedsHelpMax {
			continue
		}
		need := gaps.CapabilityGaps(primary.Score, primary.MissingCertifications)
		if len(need) == 0 {
			continue
		}

		best, ok := s.bestPartner(ctx, primary, matches, need)
		if !ok {
			continue
		}

		p := s.build(opp, primary, best)
		if p.Viability < MinViability {
			s.logger.Debug("partnership below viability floor", map[string]interface{}{
				"opportunityId": opp.ID,
				"primaryId":     primary.Candidate.ID,
				"partnerId":     best.match.Candidate.ID,
				"viability":     p.Viability,
			})
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CombinedScore > out[j].CombinedScore
	})
	metrics.PartnershipsEmitted.Add(float64(len(out)))
	return out
}

func (s *Synthesizer) bestPartner(ctx context.Context, primary *models.Match, pool []models.Match, need []models.GapType) (candidatePartner, bool) {
	var survivors []candidatePartner
	for j := range pool {
		other := &pool[j]
		if other.Candidate.ID == primary.Candidate.ID {
			continue
		}
		coverage, covered := gaps.Coverage(need, other.Score, other.MissingCertifications)
		if coverage < MinCoverage {
			continue
		}
		compat := s.evaluator.Evaluate(ctx, &primary.Candidate, &other.Candidate)
		if compat.Score < MinCompatibility {
			continue
		}
		survivors = append(survivors, candidatePartner{match: other, coverage: coverage, covered: covered, compat: compat})
	}
	if len(survivors) == 0 {
		return candidatePartner{}, false
	}
	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].coverage*survivors[i].compat.Score > survivors[j].coverage*survivors[j].compat.Score
	})
	return survivors[0], true
}

func (s *Synthesizer) build(opp *models.Opportunity, primary *models.Match, partner candidatePartner) models.Partnership {
	combined := Combine(primary.Score, partner.match.Score)
	combined.Overall = s.weights.Overall(combined)
	combined.WinProbability = scoring.WinProbability(combined)

	synergy := SynergyScore(opp, primary, partner.match, partner.coverage)
	viability := viabilityCombined*combined.Overall +
		viabilitySynergy*synergy +
		viabilityCompatibility*(partner.compat.Score*100)

	structure, prime := RecommendStructure(&primary.Candidate, &partner.match.Candidate)

	return models.Partnership{
		ID:            fmt.Sprintf("%s:%s:%s", opp.ID, primary.Candidate.ID, partner.match.Candidate.ID),
		OpportunityID: opp.ID,
		Primary:       *primary,
		Partners: []models.Partner{{
			Candidate:     partner.match.Candidate,
			Score:         partner.match.Score,
			Coverage:      partner.coverage,
			Compatibility: partner.compat,
		}},
		CoveredGaps:   partner.covered,
		Combined:      combined,
		CombinedScore: combined.Overall,
		SynergyScore:  synergy,
		Viability:     viability,
		Structure:     structure,
		PrimeID:       prime,
	}
}

// Combine merges two breakdowns: the better party per dimension, except
// capacity which pools.
func Combine(primary, partner models.ScoreBreakdown) models.ScoreBreakdown {
	var out models.ScoreBreakdown
	for _, d := range models.Dimensions {
		if d == models.DimensionCapacity {
			out.Capacity = math.Min(100, primary.Capacity+capacityPooling*partner.Capacity)
			continue
		}
		out.Set(d, math.Max(primary.Get(d), partner.Get(d)))
	}
	return out
}

// SynergyScore rates the pairing on a 0-100 scale from coverage, joint
// strengths and how well the pair meets the opportunity's hard requirements.
func SynergyScore(opp *models.Opportunity, primary, partner *models.Match, coverage float64) float64 {
	strong := 0
	for _, d := range models.Dimensions {
		if math.Max(primary.Score.Get(d), partner.Score.Get(d)) >= gaps.StrengthThreshold {
			strong++
		}
	}
	share := float64(strong) / float64(len(models.Dimensions))
	s := synergyCoverage*coverage + synergyStrengths*share + synergyFit*OpportunityFit(opp, primary, partner)
	return math.Max(0, math.Min(100, s))
}

// OpportunityFit is 1 when the pair jointly meets the designated-supplier
// and certification requirements, 0.5 when it meets one, 0 otherwise.
func OpportunityFit(opp *models.Opportunity, primary, partner *models.Match) float64 {
	designated := !opp.RequiresDesignatedSupplier ||
		primary.Candidate.DesignatedSupplier || partner.Candidate.DesignatedSupplier

	partnerMissing := make(map[string]bool, len(partner.MissingCertifications))
	for _, c := range partner.MissingCertifications {
		partnerMissing[strings.ToLower(c)] = true
	}
	certs := true
	for _, c := range primary.MissingCertifications {
		if partnerMissing[strings.ToLower(c)] {
			certs = false
			break
		}
	}

	switch {
	case designated && certs:
		return 1
	case designated || certs:
		return 0.5
	}
	return 0
}

// RecommendStructure picks prime/sub when one side is more than twice the
// other's headcount, with the larger as prime. Otherwise a joint venture led
// by the primary.
func RecommendStructure(primary, partner *models.Candidate) (models.Structure, string) {
	switch {
	case primary.EmployeeCount > primeSizeMultiple*partner.EmployeeCount:
		return models.StructurePrimeSub, primary.ID
	case partner.EmployeeCount > primeSizeMultiple*primary.EmployeeCount:
		return models.StructurePrimeSub, partner.ID
	}
	return models.StructureJointVenture, primary.ID
}
