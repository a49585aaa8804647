// internal/workers/rfq/get-bid-guidance/handler.go
package getbidguidance

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rfq-workers/internal/common/camunda"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/common/observability"
	"rfq-workers/internal/matching/guidance"
	"rfq-workers/internal/models"
)

const TaskType = "get-bid-guidance"

// Advisor is satisfied by service.Service.
type Advisor interface {
	GetBidGuidance(ctx context.Context, candidateID, opportunityID string) (*models.RecommendationBundle, error)
}

type Handler struct {
	config  *Config
	advisor Advisor
	runner  *camunda.JobRunner
	logger  logger.Logger
}

func NewHandler(config *Config, advisor Advisor, obs *observability.Observability, log logger.Logger) *Handler {
	if config == nil || config.Timeout <= 0 {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		advisor: advisor,
		runner:  camunda.NewJobRunner(TaskType, obs, log),
		logger:  log,
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
	bundle, err := h.advisor.GetBidGuidance(ctx, input.CandidateID, input.OpportunityID)
	if err != nil {
		return nil, err
	}

	out := &Output{
		Guidance:         *bundle,
		RecommendedPrice: recommendedPrice(bundle.PricingBand),
	}

	h.logger.Info("bid guidance generated", map[string]interface{}{
		"candidateId":   input.CandidateID,
		"opportunityId": input.OpportunityID,
		"strategy":      bundle.PricingBand.Recommended,
		"urgent":        bundle.TimelinePlan.Urgent,
	})
	return out, nil
}

func recommendedPrice(b models.PricingBand) string {
	switch b.Recommended {
	case guidance.StrategyAggressive:
		return b.Aggressive.StringFixed(2)
	case guidance.StrategyCompetitive:
		return b.Competitive.StringFixed(2)
	case guidance.StrategyPremium:
		return b.Premium.StringFixed(2)
	default:
		return b.Optimal.StringFixed(2)
	}
}
