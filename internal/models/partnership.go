// internal/models/partnership.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Structure string

const (
	StructurePrimeSub     Structure = "prime-sub"
	StructureJointVenture Structure = "joint-venture"
)

type CompatibilityFactors struct {
	IndustryAlignment float64 `json:"industryAlignment"`
	SizeCompatibility float64 `json:"sizeCompatibility"`
	CultureFit        float64 `json:"cultureFit"`
	GeographicSynergy float64 `json:"geographicSynergy"`
	PastCollaboration float64 `json:"pastCollaboration"`
}

type CompatibilityResult struct {
	Score          float64              `json:"score"`
	Factors        CompatibilityFactors `json:"factors"`
	Recommendation string               `json:"recommendation"`
}

// GapType is a capability gap a partnership is measured against.
type GapType string

const (
	GapTechnicalExpertise GapType = "technical-expertise"
	GapFinancialCapacity  GapType = "financial-capacity"
	GapCapacity           GapType = "capacity"
	GapGeographicPresence GapType = "geographic-presence"
	GapCertifications     GapType = "certifications"

	// No partner fills these two; they only count against coverage.
	GapExperience GapType = "experience"
	GapCultural   GapType = "cultural-fit"
)

type Partner struct {
	Candidate     Candidate           `json:"candidate"`
	Score         ScoreBreakdown      `json:"score"`
	Coverage      float64             `json:"coverage"`
	Compatibility CompatibilityResult `json:"compatibility"`
}

// Partnership is recomputed per run; it has no lifecycle of its own.
type Partnership struct {
	ID            string         `json:"id"`
	OpportunityID string         `json:"opportunityId"`
	Primary       Match          `json:"primary"`
	Partners      []Partner      `json:"partners"`
	CoveredGaps   []GapType      `json:"coveredGaps"`
	Combined      ScoreBreakdown `json:"combined"`
	CombinedScore float64        `json:"combinedScore"`
	SynergyScore  float64        `json:"synergyScore"`
	Viability     float64        `json:"viability"`
	Structure     Structure      `json:"structure"`
	PrimeID       string         `json:"primeId"`
}

type Introduction struct {
	PartnershipID    string   `json:"partnershipId"`
	Parties          []string `json:"parties"`
	ValueProposition string   `json:"valueProposition"`
	Message          string   `json:"message"`
	NextSteps        []string `json:"nextSteps"`
}

const FacilitationStatusIntroduced = "introduced"

// FacilitationRecord remembers which partnerships were offered.
type FacilitationRecord struct {
	ID                  string    `json:"id"`
	PartnershipID       string    `json:"partnershipId"`
	OpportunityID       string    `json:"opportunityId"`
	PartyIDs            []string  `json:"partyIds"`
	Status              string    `json:"status"`
	Viability           float64   `json:"viability"`
	CreatedAt           time.Time `json:"createdAt"`
	TargetAgreementDate time.Time `json:"targetAgreementDate"`
}

// ==========================
// Bid guidance
// ==========================

type PricingBand struct {
	Aggressive  decimal.Decimal `json:"aggressive"`
	Competitive decimal.Decimal `json:"competitive"`
	Optimal     decimal.Decimal `json:"optimal"`
	Premium     decimal.Decimal `json:"premium"`
	Recommended string          `json:"recommended"`
}

type TimelinePhase struct {
	Name string `json:"name"`
	Days int    `json:"days"`
}

type TimelinePlan struct {
	DaysAvailable int             `json:"daysAvailable"`
	Urgent        bool            `json:"urgent"`
	Phases        []TimelinePhase `json:"phases"`
}

// TotalDays sums the phase durations.
func (p TimelinePlan) TotalDays() int {
	total := 0
	for _, ph := range p.Phases {
		total += ph.Days
	}
	return total
}

type RecommendationBundle struct {
	CandidateID    string         `json:"candidateId"`
	OpportunityID  string         `json:"opportunityId"`
	Score          ScoreBreakdown `json:"score"`
	PricingBand    PricingBand    `json:"pricingBand"`
	ProposalThemes []string       `json:"proposalThemes"`
	TimelinePlan   TimelinePlan   `json:"timelinePlan"`
}
