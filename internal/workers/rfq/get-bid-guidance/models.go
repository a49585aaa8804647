// internal/workers/rfq/get-bid-guidance/models.go
package getbidguidance

import (
	"rfq-workers/internal/common/validation"
	"rfq-workers/internal/models"
)

type Input struct {
	CandidateID   string `json:"candidateId"`
	OpportunityID string `json:"opportunityId"`
}

type Output struct {
	Guidance models.RecommendationBundle `json:"guidance"`
	// RecommendedPrice is the band matching the recommended strategy, as a
	// plain string so BPMN gateways can read it without decimal handling.
	RecommendedPrice string `json:"recommendedPrice"`
}

// InputSchema describes the job variables the worker reads.
var InputSchema = validation.JSONSchema{
	Type:     "object",
	Required: []string{"candidateId", "opportunityId"},
	Properties: map[string]validation.Property{
		"candidateId":   {Type: "string", MinLength: validation.Int(1)},
		"opportunityId": {Type: "string", MinLength: validation.Int(1)},
	},
}

var inputSchema = validation.MustCompile(InputSchema)
