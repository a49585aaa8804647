// internal/workers/rfq/facilitate-partnership/handler.go
package facilitatepartnership

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rfq-workers/internal/common/camunda"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/common/observability"
	"rfq-workers/internal/models"
)

const TaskType = "facilitate-partnership"

// Facilitator is satisfied by service.Service.
type Facilitator interface {
	FacilitatePartnership(ctx context.Context, opportunityID, partnershipID string) (*models.Introduction, *models.FacilitationRecord, error)
}

type Handler struct {
	config      *Config
	facilitator Facilitator
	runner      *camunda.JobRunner
	logger      logger.Logger
}

func NewHandler(config *Config, facilitator Facilitator, obs *observability.Observability, log logger.Logger) *Handler {
	if config == nil || config.Timeout <= 0 {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:      config,
		facilitator: facilitator,
		runner:      camunda.NewJobRunner(TaskType, obs, log),
		logger:      log,
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
	intro, rec, err := h.facilitator.FacilitatePartnership(ctx, input.OpportunityID, input.PartnershipID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("partnership introduced", map[string]interface{}{
		"partnershipId":  rec.PartnershipID,
		"facilitationId": rec.ID,
		"parties":        rec.PartyIDs,
	})
	return &Output{Introduction: *intro, Facilitation: *rec}, nil
}
