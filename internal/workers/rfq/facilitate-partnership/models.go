// internal/workers/rfq/facilitate-partnership/models.go
package facilitatepartnership

import (
	"rfq-workers/internal/common/validation"
	"rfq-workers/internal/models"
)

type Input struct {
	OpportunityID string `json:"opportunityId"`
	PartnershipID string `json:"partnershipId"`
}

type Output struct {
	Introduction models.Introduction       `json:"introduction"`
	Facilitation models.FacilitationRecord `json:"facilitation"`
}

// InputSchema describes the job variables the worker reads.
var InputSchema = validation.JSONSchema{
	Type:     "object",
	Required: []string{"opportunityId", "partnershipId"},
	Properties: map[string]validation.Property{
		"opportunityId": {Type: "string", MinLength: validation.Int(1)},
		"partnershipId": {
			Type:        "string",
			Description: "Partnership ID as emitted by process-opportunity",
			MinLength:   validation.Int(1),
		},
	},
}

var inputSchema = validation.MustCompile(InputSchema)
