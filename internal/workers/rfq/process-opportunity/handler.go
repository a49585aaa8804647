// internal/workers/rfq/process-opportunity/handler.go
package processopportunity

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rfq-workers/internal/common/camunda"
	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/common/observability"
	"rfq-workers/internal/matching/service"
	"rfq-workers/internal/models"
)

const TaskType = "process-opportunity"

// Processor is satisfied by service.Service.
type Processor interface {
	ProcessOpportunity(ctx context.Context, opp *models.Opportunity) (*service.OpportunityOutcome, error)
}

type OpportunityLoader interface {
	GetByID(ctx context.Context, id string) (*models.Opportunity, error)
}

type Handler struct {
	config        *Config
	processor     Processor
	opportunities OpportunityLoader
	runner        *camunda.JobRunner
	logger        logger.Logger
}

func NewHandler(config *Config, processor Processor, opportunities OpportunityLoader, obs *observability.Observability, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	defaults := LoadConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxMatchesInOutput <= 0 {
		config.MaxMatchesInOutput = defaults.MaxMatchesInOutput
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:        config,
		processor:     processor,
		opportunities: opportunities,
		runner:        camunda.NewJobRunner(TaskType, obs, log),
		logger:        log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	defer h.runner.Begin()()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := camunda.DecodeVariables(job.Variables, inputSchema, &input); err != nil {
		h.runner.Fail(ctx, client, job, err, started)
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.runner.Fail(ctx, client, job, err, started)
		return
	}
	h.runner.Complete(ctx, client, job, output, started)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	opp, err := h.resolveOpportunity(ctx, input)
	if err != nil {
		return nil, err
	}

	outcome, err := h.processor.ProcessOpportunity(ctx, opp)
	if err != nil {
		return nil, err
	}

	out := &Output{
		OpportunityID: outcome.OpportunityID,
		MatchCount:    len(outcome.Matches),
		TopMatches:    make([]MatchSummary, 0, min(len(outcome.Matches), h.config.MaxMatchesInOutput)),
		Partnerships:  make([]PartnershipBrief, 0, len(outcome.Partnerships)),
		Skipped:       outcome.Skipped,
		ComputedAt:    outcome.ComputedAt.UTC().Format(time.RFC3339),
	}
	for i, m := range outcome.Matches {
		if i == h.config.MaxMatchesInOutput {
			break
		}
		out.TopMatches = append(out.TopMatches, MatchSummary{
			CandidateID:    m.Candidate.ID,
			CandidateName:  m.Candidate.Name,
			OverallScore:   m.Score.Overall,
			WinProbability: m.Score.WinProbability,
			Strengths:      m.Strengths,
			Gaps:           m.Gaps,
		})
	}
	for _, p := range outcome.Partnerships {
		out.Partnerships = append(out.Partnerships, briefOf(p))
	}
	for _, rec := range outcome.Facilitations {
		out.FacilitationIDs = append(out.FacilitationIDs, rec.ID)
	}

	h.logger.Info("opportunity matched", map[string]interface{}{
		"opportunityId": out.OpportunityID,
		"matches":       out.MatchCount,
		"partnerships":  len(out.Partnerships),
		"skipped":       out.Skipped,
	})
	return out, nil
}

func (h *Handler) resolveOpportunity(ctx context.Context, input *Input) (*models.Opportunity, error) {
	if input.Opportunity != nil {
		return input.Opportunity, nil
	}
	if input.OpportunityID == "" {
		return nil, apperrors.NewInvalidJobInputError("either opportunity or opportunityId is required")
	}
	if h.opportunities == nil {
		return nil, apperrors.NewInvalidJobInputError("opportunityId given but no opportunity repository is configured")
	}
	return h.opportunities.GetByID(ctx, input.OpportunityID)
}

func briefOf(p models.Partnership) PartnershipBrief {
	partnerIDs := make([]string, 0, len(p.Partners))
	for _, pt := range p.Partners {
		partnerIDs = append(partnerIDs, pt.Candidate.ID)
	}
	return PartnershipBrief{
		ID:            p.ID,
		PrimaryID:     p.Primary.Candidate.ID,
		PartnerIDs:    partnerIDs,
		Structure:     p.Structure,
		PrimeID:       p.PrimeID,
		CoveredGaps:   p.CoveredGaps,
		CombinedScore: p.CombinedScore,
		Viability:     p.Viability,
	}
}
