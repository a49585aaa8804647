// internal/workers/rfq/process-opportunity/models.go
package processopportunity

import (
	"rfq-workers/internal/common/validation"
	"rfq-workers/internal/models"
)

// Input carries the opportunity inline, or only its ID to load it from the
// opportunity repository.
type Input struct {
	OpportunityID string              `json:"opportunityId"`
	Opportunity   *models.Opportunity `json:"opportunity"`
}

type Output struct {
	OpportunityID   string             `json:"opportunityId"`
	MatchCount      int                `json:"matchCount"`
	TopMatches      []MatchSummary     `json:"topMatches"`
	Partnerships    []PartnershipBrief `json:"partnerships"`
	FacilitationIDs []string           `json:"facilitationIds,omitempty"`
	Skipped         int                `json:"skipped"`
	ComputedAt      string             `json:"computedAt"`
}

type MatchSummary struct {
	CandidateID    string             `json:"candidateId"`
	CandidateName  string             `json:"candidateName"`
	OverallScore   float64            `json:"overallScore"`
	WinProbability float64            `json:"winProbability"`
	Strengths      []models.Dimension `json:"strengths"`
	Gaps           []models.Dimension `json:"gaps"`
}

type PartnershipBrief struct {
	ID            string           `json:"id"`
	PrimaryID     string           `json:"primaryId"`
	PartnerIDs    []string         `json:"partnerIds"`
	Structure     models.Structure `json:"structure"`
	PrimeID       string           `json:"primeId"`
	CoveredGaps   []models.GapType `json:"coveredGaps"`
	CombinedScore float64          `json:"combinedScore"`
	Viability     float64          `json:"viability"`
}

// InputSchema describes the job variables the worker reads.
var InputSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"opportunityId": {
			Type:        "string",
			Description: "ID of a stored opportunity, used when none is inline",
			MinLength:   validation.Int(1),
		},
		"opportunity": {
			Type:     "object",
			Required: []string{"id", "estimatedValue", "complexity"},
			Properties: map[string]validation.Property{
				"id":             {Type: "string", MinLength: validation.Int(1)},
				"estimatedValue": {Type: "number"},
				"complexity":     {Type: "string", Enum: []string{"low", "medium", "high"}},
			},
		},
	},
}

var inputSchema = validation.MustCompile(InputSchema)
