// internal/workers/rfq/match-candidate/handler.go
package matchcandidate

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

const TaskType = "match-candidate"

// Matcher is satisfied by service.Service.
type Matcher interface {
	MatchCandidate(ctx context.Context, candidateID string, opts models.MatchOptions) ([]models.Match, error)
}

type Handler struct {
	config  *Config
	matcher Matcher
	runner  *camunda.JobRunner
	logger  logger.Logger
}

func NewHandler(config *Config, matcher Matcher, obs *observability.Observability, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	defaults := LoadConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = defaults.DefaultLimit
	}
	if config.MaxLimit < config.DefaultLimit {
		config.MaxLimit = max(defaults.MaxLimit, config.DefaultLimit)
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		matcher: matcher,
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
	opts := models.MatchOptions{
		Limit:    h.limit(input.Limit),
		MinScore: input.MinScore,
	}

	matches, err := h.matcher.MatchCandidate(ctx, input.CandidateID, opts)
	if err != nil {
		return nil, err
	}

	out := &Output{
		CandidateID: input.CandidateID,
		Matches:     make([]OpportunityMatch, 0, len(matches)),
	}
	for _, m := range matches {
		out.Matches = append(out.Matches, OpportunityMatch{
			OpportunityID:   m.OpportunityID,
			OverallScore:    m.Score.Overall,
			WinProbability:  m.Score.WinProbability,
			Strengths:       m.Strengths,
			Gaps:            m.Gaps,
			Recommendations: m.Recommendations,
		})
	}

	h.logger.Info("candidate matched", map[string]interface{}{
		"candidateId": input.CandidateID,
		"matches":     len(out.Matches),
		"limit":       opts.Limit,
	})
	return out, nil
}

func (h *Handler) limit(requested int) int {
	switch {
	case requested <= 0:
		return h.config.DefaultLimit
	case requested > h.config.MaxLimit:
		return h.config.MaxLimit
	default:
		return requested
	}
}
