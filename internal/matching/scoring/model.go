// Package scoring turns a (candidate, opportunity) pair into a ScoreBreakdown.
// Everything here is a pure function of its inputs.
package scoring

import (
	"math"
	"strings"

	"rfq-workers/internal/models"
)

// Base scores and adjustments, one block per dimension.
const (
	technicalBase         = 70.0
	technicalCertsMet     = 20.0
	technicalCertsMissing = -20.0
	technicalIndustry     = 10.0
	technicalSkillsSpan   = 20.0
	technicalSkillsOffset = -10.0

	financialBase         = 80.0
	financialOverMax      = -40.0
	financialNearMax      = -20.0
	financialNearMaxRatio = 0.7
	financialNoBonding    = -30.0
	financialNoInsurance  = -20.0

	experienceBase           = 60.0
	experienceSurplusPerYear = 2.0
	experienceSurplusCap     = 20.0
	experienceDeficitPerYear = -10.0
	experienceProjectEach    = 5.0
	experienceProjectCap     = 20.0
	experienceNeutralRating  = 3.0
	experienceRatingPerPoint = 10.0

	capacityBase               = 80.0
	capacityHighMinEmployees   = 50
	capacityHighPenalty        = -30.0
	capacityMediumMinEmployees = 20
	capacityMediumPenalty      = -20.0
	capacityScarceBelow        = 20.0
	capacityScarcePenalty      = -40.0
	capacityTightBelow         = 40.0
	capacityTightPenalty       = -20.0
	capacityImmediateBonus     = 10.0

	locationBase            = 100.0
	locationProvinceMiss    = -30.0
	locationNationalOffset  = 20.0
	locationCityMiss        = -20.0
	locationServiceOffset   = 15.0
	locationLocalPreference = 20.0

	culturalBase             = 70.0
	culturalDesignated       = 30.0
	culturalDesignatedCert   = 10.0
	culturalNotDesignated    = -50.0
	culturalCommunity        = 15.0
	culturalLocalEmployment  = 10.0
	culturalLocalEmployRatio = 0.7
	culturalSustainability   = 15.0
)

// Win-probability modifiers.
const (
	winCeiling           = 0.95
	winWeakTechnical     = 50.0
	winWeakTechnicalMul  = 0.5
	winWeakFinancial     = 40.0
	winWeakFinancialMul  = 0.6
	winWeakExperience    = 30.0
	winWeakExperienceMul = 0.7
	winStrongOverall     = 85.0
	winStrongOverallMul  = 1.2
	winStrongTechnical   = 90.0
	winStrongTechMul     = 1.1
)

// Model scores candidates against opportunities with a fixed weight vector.
type Model struct {
	weights Weights
}

// NewModel returns a Model bound to w.
func NewModel(w Weights) *Model {
	return &Model{weights: w}
}

// Weights returns the weight vector the model scores with.
func (m *Model) Weights() Weights { return m.weights }

var defaultModel = NewModel(MustDefaultWeights())

// Default returns the model built on the production weights.
func Default() *Model { return defaultModel }

// Score evaluates c against o with the production weights.
func Score(c *models.Candidate, o *models.Opportunity) models.ScoreBreakdown {
	return defaultModel.Score(c, o)
}

// Score evaluates c against o. Missing optional candidate data falls back to
// neutral values rather than failing.
func (m *Model) Score(c *models.Candidate, o *models.Opportunity) models.ScoreBreakdown {
	b := models.ScoreBreakdown{
		Technical:  Clamp(technical(c, o)),
		Financial:  Clamp(financial(c, o)),
		Experience: Clamp(experience(c, o)),
		Capacity:   Clamp(capacity(c, o)),
		Location:   Clamp(location(c, o)),
		Cultural:   Clamp(cultural(c, o)),
	}
	b.Overall = m.weights.Overall(b)
	b.WinProbability = WinProbability(b)
	return b
}

func technical(c *models.Candidate, o *models.Opportunity) float64 {
	s := technicalBase
	if len(MissingCertifications(c, o)) == 0 {
		s += technicalCertsMet
	} else {
		s += technicalCertsMissing
	}
	if o.Industry != "" && strings.EqualFold(c.Industry, o.Industry) {
		s += technicalIndustry
	}
	if len(o.RequiredSkills) > 0 {
		s += SkillMatchRatio(c.Capabilities, o.RequiredSkills)*technicalSkillsSpan + technicalSkillsOffset
	}
	return s
}

func financial(c *models.Candidate, o *models.Opportunity) float64 {
	s := financialBase
	if c.MaxProjectSize > 0 {
		switch {
		case o.EstimatedValue > c.MaxProjectSize:
			s += financialOverMax
		case o.EstimatedValue > c.MaxProjectSize*financialNearMaxRatio:
			s += financialNearMax
		}
	}
	if o.RequiresBonding && !c.HasBonding {
		s += financialNoBonding
	}
	if o.RequiresInsurance && !c.HasInsurance {
		s += financialNoInsurance
	}
	return s
}

func experience(c *models.Candidate, o *models.Opportunity) float64 {
	s := experienceBase
	if c.YearsInBusiness >= o.MinYearsExperience {
		surplus := float64(c.YearsInBusiness - o.MinYearsExperience)
		s += math.Min(experienceSurplusCap, experienceSurplusPerYear*surplus)
	} else {
		deficit := float64(o.MinYearsExperience - c.YearsInBusiness)
		s += experienceDeficitPerYear * deficit
	}

	similar := 0
	for _, p := range c.PastProjects {
		if o.Industry != "" && strings.EqualFold(p.Industry, o.Industry) {
			similar++
		}
	}
	s += math.Min(experienceProjectCap, experienceProjectEach*float64(similar))

	rating := experienceNeutralRating
	if c.PerformanceRating != nil {
		rating = math.Max(0, math.Min(5, *c.PerformanceRating))
	}
	s += (rating - experienceNeutralRating) * experienceRatingPerPoint
	return s
}

func capacity(c *models.Candidate, o *models.Opportunity) float64 {
	s := capacityBase
	switch o.Complexity {
	case models.ComplexityHigh:
		if c.EmployeeCount < capacityHighMinEmployees {
			s += capacityHighPenalty
		}
	case models.ComplexityMedium:
		if c.EmployeeCount < capacityMediumMinEmployees {
			s += capacityMediumPenalty
		}
	}
	if c.CapacityUtilization != nil {
		available := 100 - math.Max(0, math.Min(100, *c.CapacityUtilization))
		switch {
		case available < capacityScarceBelow:
			s += capacityScarcePenalty
		case available < capacityTightBelow:
			s += capacityTightPenalty
		}
	}
	if c.AvailableImmediately && o.TimelineDays > 0 {
		s += capacityImmediateBonus
	}
	return s
}

func location(c *models.Candidate, o *models.Opportunity) float64 {
	s := locationBase
	if o.Geography.IsNational() {
		return s
	}
	if o.Geography.Province != "" && !strings.EqualFold(c.Geography.Province, o.Geography.Province) {
		s += locationProvinceMiss
		if c.OperatesNationally {
			s += locationNationalOffset
		}
	}
	if o.Geography.City != "" {
		if strings.EqualFold(c.Geography.City, o.Geography.City) {
			if o.LocalPreference {
				s += locationLocalPreference
			}
		} else {
			s += locationCityMiss
			if containsFold(c.ServiceAreas, o.Geography.City) {
				s += locationServiceOffset
			}
		}
	}
	return s
}

func cultural(c *models.Candidate, o *models.Opportunity) float64 {
	s := culturalBase
	if o.RequiresDesignatedSupplier {
		if c.DesignatedSupplier {
			s += culturalDesignated
			if c.DesignatedCertified {
				s += culturalDesignatedCert
			}
		} else {
			s += culturalNotDesignated
		}
	}
	if o.RequiresCommunityBenefit {
		if c.CommunityInvolvement {
			s += culturalCommunity
		}
		if c.LocalEmploymentRatio > culturalLocalEmployRatio {
			s += culturalLocalEmployment
		}
	}
	if o.RequiresSustainability && c.SustainabilityCertified {
		s += culturalSustainability
	}
	return s
}

// WinProbability derives the capped bid-success estimate from a breakdown.
func WinProbability(b models.ScoreBreakdown) float64 {
	p := b.Overall / 100
	if b.Technical < winWeakTechnical {
		p *= winWeakTechnicalMul
	}
	if b.Financial < winWeakFinancial {
		p *= winWeakFinancialMul
	}
	if b.Experience < winWeakExperience {
		p *= winWeakExperienceMul
	}
	if b.Overall > winStrongOverall {
		p *= winStrongOverallMul
	}
	if b.Technical > winStrongTechnical {
		p *= winStrongTechMul
	}
	return math.Max(0, math.Min(winCeiling, p))
}

// MissingCertifications lists required certifications c does not hold in a
// form valid at the opportunity's closing date, in requirement order.
func MissingCertifications(c *models.Candidate, o *models.Opportunity) []string {
	var missing []string
	for _, req := range o.RequiredCertifications {
		found := false
		for _, cert := range c.Certifications {
			if strings.EqualFold(cert.Type, req) && cert.ValidAt(o.ClosingDate) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, req)
		}
	}
	return missing
}

// SkillMatchRatio is |have ∩ want| / |want|, case-insensitive. Duplicate
// entries in want count once.
func SkillMatchRatio(have, want []string) float64 {
	wanted := make(map[string]struct{}, len(want))
	for _, w := range want {
		wanted[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	if len(wanted) == 0 {
		return 0
	}
	matched := make(map[string]struct{}, len(wanted))
	for _, h := range have {
		k := strings.ToLower(strings.TrimSpace(h))
		if _, ok := wanted[k]; ok {
			matched[k] = struct{}{}
		}
	}
	return float64(len(matched)) / float64(len(wanted))
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
