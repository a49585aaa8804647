// internal/workers/rfq/match-candidate/models.go
package matchcandidate

import (
	"rfq-workers/internal/common/validation"
	"rfq-workers/internal/models"
)

type Input struct {
	CandidateID string  `json:"candidateId"`
	Limit       int     `json:"limit"`
	MinScore    float64 `json:"minScore"`
}

type Output struct {
	CandidateID string             `json:"candidateId"`
	Matches     []OpportunityMatch `json:"matches"`
}

type OpportunityMatch struct {
	OpportunityID   string             `json:"opportunityId"`
	OverallScore    float64            `json:"overallScore"`
	WinProbability  float64            `json:"winProbability"`
	Strengths       []models.Dimension `json:"strengths"`
	Gaps            []models.Dimension `json:"gaps"`
	Recommendations []string           `json:"recommendations"`
}

// InputSchema describes the job variables the worker reads.
var InputSchema = validation.JSONSchema{
	Type:     "object",
	Required: []string{"candidateId"},
	Properties: map[string]validation.Property{
		"candidateId": {
			Type:      "string",
			MinLength: validation.Int(1),
		},
		"limit": {
			Type:        "integer",
			Description: "Maximum matches to return; the configured default when absent",
			Minimum:     validation.Float(1),
		},
		"minScore": {
			Type:    "number",
			Minimum: validation.Float(0),
			Maximum: validation.Float(100),
		},
	},
}

var inputSchema = validation.MustCompile(InputSchema)
