package camunda

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/common/metrics"
	"rfq-workers/internal/common/observability"
	"rfq-workers/internal/common/validation"
)

const (
	statusCompleted = "completed"
	statusFailed    = "failed"
)

// DecodeVariables validates the job's variables against schema and decodes
// them into dst. Any failure is INVALID_JOB_INPUT.
func DecodeVariables(variables string, schema *validation.Schema, dst interface{}) error {
	if schema != nil {
		res, err := schema.ValidateJSON(variables)
		if err != nil {
			return errors.NewInvalidJobInputError(err.Error())
		}
		if !res.Valid {
			return errors.NewInvalidJobInputError(res.Summary())
		}
	}
	if err := json.Unmarshal([]byte(variables), dst); err != nil {
		return errors.NewInvalidJobInputError("parse variables: " + err.Error())
	}
	return nil
}

// JobRunner finishes jobs for one task type: it completes them with an
// output object or hands the error to the shared ErrorHandler, and records
// job metrics either way.
type JobRunner struct {
	taskType string
	errors   *errors.ErrorHandler
	obs      *observability.Observability
	logger   logger.Logger
}

// NewJobRunner builds a runner. obs may be nil.
func NewJobRunner(taskType string, obs *observability.Observability, log logger.Logger) *JobRunner {
	return &JobRunner{
		taskType: taskType,
		errors:   errors.NewErrorHandler(log),
		obs:      obs,
		logger:   log,
	}
}

// Begin marks a job active and returns the function that unmarks it.
func (r *JobRunner) Begin() func() {
	metrics.WorkerJobsActive.WithLabelValues(r.taskType).Inc()
	return func() { metrics.WorkerJobsActive.WithLabelValues(r.taskType).Dec() }
}

func (r *JobRunner) Complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}, started time.Time) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		r.Fail(ctx, client, job, errors.NewWorkflowEngineError("complete-job", err), started)
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		r.record(ctx, statusFailed, string(errors.ErrCodeWorkflowEngine), started)
		return
	}

	r.logger.Info("job completed", map[string]interface{}{
		"jobKey":   job.Key,
		"duration": time.Since(started).String(),
	})
	r.record(ctx, statusCompleted, "", started)
}

func (r *JobRunner) Fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, started time.Time) {
	// fail/throw must still reach the broker when the job's own deadline expired
	r.errors.HandleJobError(context.WithoutCancel(ctx), client, job, err)
	r.record(ctx, statusFailed, string(errors.Normalize(err).Code), started)
}

func (r *JobRunner) record(ctx context.Context, status, code string, started time.Time) {
	elapsed := time.Since(started)
	metrics.WorkerJobDuration.WithLabelValues(r.taskType).Observe(elapsed.Seconds())
	if status == statusCompleted {
		metrics.WorkerJobsCompleted.WithLabelValues(r.taskType).Inc()
	} else {
		metrics.WorkerJobsFailed.WithLabelValues(r.taskType, code).Inc()
	}
	r.obs.RecordJobProcessed(ctx, r.taskType, status)
	r.obs.RecordJobDuration(ctx, r.taskType, elapsed, status)
}
