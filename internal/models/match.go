// internal/models/match.go
package models

import "time"

// Dimension names one axis of a ScoreBreakdown.
type Dimension string

const (
	DimensionTechnical  Dimension = "technical"
	DimensionFinancial  Dimension = "financial"
	DimensionExperience Dimension = "experience"
	DimensionCapacity   Dimension = "capacity"
	DimensionLocation   Dimension = "location"
	DimensionCultural   Dimension = "cultural"
)

// Dimensions is the fixed iteration order used for tie-breaking everywhere.
var Dimensions = []Dimension{
	DimensionTechnical,
	DimensionFinancial,
	DimensionExperience,
	DimensionCapacity,
	DimensionLocation,
	DimensionCultural,
}

type ScoreBreakdown struct {
	Technical      float64 `json:"technical"`
	Financial      float64 `json:"financial"`
	Experience     float64 `json:"experience"`
	Capacity       float64 `json:"capacity"`
	Location       float64 `json:"location"`
	Cultural       float64 `json:"cultural"`
	Overall        float64 `json:"overall"`
	WinProbability float64 `json:"winProbability"`
}

// Get returns the value of one dimension.
func (b ScoreBreakdown) Get(d Dimension) float64 {
	switch d {
	case DimensionTechnical:
		return b.Technical
	case DimensionFinancial:
		return b.Financial
	case DimensionExperience:
		return b.Experience
	case DimensionCapacity:
		return b.Capacity
	case DimensionLocation:
		return b.Location
	case DimensionCultural:
		return b.Cultural
	}
	return 0
}

// Set writes one dimension. Overall and WinProbability are left untouched.
func (b *ScoreBreakdown) Set(d Dimension, v float64) {
	switch d {
	case DimensionTechnical:
		b.Technical = v
	case DimensionFinancial:
		b.Financial = v
	case DimensionExperience:
		b.Experience = v
	case DimensionCapacity:
		b.Capacity = v
	case DimensionLocation:
		b.Location = v
	case DimensionCultural:
		b.Cultural = v
	}
}

// Match pairs one candidate with one opportunity. Immutable once built.
type Match struct {
	Candidate             Candidate      `json:"candidate"`
	OpportunityID         string         `json:"opportunityId"`
	Score                 ScoreBreakdown `json:"score"`
	Strengths             []Dimension    `json:"strengths"`
	Gaps                  []Dimension    `json:"gaps"`
	Recommendations       []string       `json:"recommendations"`
	MissingCertifications []string       `json:"missingCertifications,omitempty"`
}

// MatchResult is one matching pass for an opportunity, as cached.
type MatchResult struct {
	OpportunityID string    `json:"opportunityId"`
	Matches       []Match   `json:"matches"`
	Skipped       int       `json:"skipped"`
	ComputedAt    time.Time `json:"computedAt"`
}

// MatchOptions bounds matchCandidate results.
type MatchOptions struct {
	Limit    int     `json:"limit"`
	MinScore float64 `json:"minScore"`
}

// MatchSummary is the payload handed to a Notifier.
type MatchSummary struct {
	CandidateID      string      `json:"candidateId"`
	CandidateName    string      `json:"candidateName,omitempty"`
	ContactEmail     string      `json:"contactEmail,omitempty"`
	OpportunityID    string      `json:"opportunityId"`
	OpportunityTitle string      `json:"opportunityTitle,omitempty"`
	Kind             string      `json:"kind"` // match or partnership
	OverallScore     float64     `json:"overallScore"`
	WinProbability   float64     `json:"winProbability"`
	Strengths        []Dimension `json:"strengths,omitempty"`
	Gaps             []Dimension `json:"gaps,omitempty"`
	Message          string      `json:"message,omitempty"`
}

const (
	SummaryKindMatch       = "match"
	SummaryKindPartnership = "partnership"
)
