// Package rfq describes the RFQ job types as a registry that BPMN authors
// can read without the Go source.
package rfq

import (
	"sort"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/validation"
	"rfq-workers/pkg/registry"

	fp "rfq-workers/internal/workers/rfq/facilitate-partnership"
	gbg "rfq-workers/internal/workers/rfq/get-bid-guidance"
	mc "rfq-workers/internal/workers/rfq/match-candidate"
	po "rfq-workers/internal/workers/rfq/process-opportunity"
)

// RegistryVersion changes whenever a job's inputs or error codes change.
const RegistryVersion = "1.0.0"

const category = "rfq"

// Every job can fail these ways regardless of what it does.
var commonErrorCodes = []apperrors.ErrorCode{
	apperrors.ErrCodeInvalidJobInput,
	apperrors.ErrCodeRepositoryUnavailable,
	apperrors.ErrCodeInternal,
}

// Catalog returns the registry for the job types this module implements.
func Catalog() *registry.ActivityRegistry {
	return &registry.ActivityRegistry{
		Version: RegistryVersion,
		Activities: []registry.Activity{
			activity(po.TaskType, "Process Opportunity",
				"Ranks eligible candidates for an opportunity, synthesizes partnerships for candidates with gaps and notifies strong matches.",
				po.LoadConfig().Timeout.String(), po.InputSchema,
				apperrors.ErrCodeInvalidOpportunity, apperrors.ErrCodeOpportunityNotFound),
			activity(mc.TaskType, "Match Candidate",
				"Lists the open opportunities a candidate matches best.",
				mc.LoadConfig().Timeout.String(), mc.InputSchema,
				apperrors.ErrCodeCandidateNotFound),
			activity(gbg.TaskType, "Get Bid Guidance",
				"Pricing band, proposal themes and timeline plan for one candidate and opportunity.",
				gbg.LoadConfig().Timeout.String(), gbg.InputSchema,
				apperrors.ErrCodeCandidateNotFound, apperrors.ErrCodeOpportunityNotFound),
			activity(fp.TaskType, "Facilitate Partnership",
				"Drafts and records the introduction between the members of a proposed partnership.",
				fp.LoadConfig().Timeout.String(), fp.InputSchema,
				apperrors.ErrCodeOpportunityNotFound, apperrors.ErrCodePartnershipNotFound, apperrors.ErrCodeFacilitationFailed),
		},
	}
}

func activity(taskType, name, description, timeout string, schema validation.JSONSchema, codes ...apperrors.ErrorCode) registry.Activity {
	return registry.Activity{
		ID:          taskType,
		DisplayName: name,
		Description: description,
		Category:    category,
		Version:     RegistryVersion,
		TaskType:    taskType,
		InputSchema: schema,
		ErrorCodes:  bpmnCodes(append(codes, commonErrorCodes...)),
		Timeout:     timeout,
	}
}

// bpmnCodes maps to the codes a boundary event sees, deduplicated and sorted.
func bpmnCodes(codes []apperrors.ErrorCode) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		b, ok := apperrors.BPMNErrorMapping[c]
		if !ok {
			b = string(c)
		}
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	sort.Strings(out)
	return out
}
