// internal/workers/revenue/build-business-insights/handler.go
package buildbusinessinsights

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"rms-insight-workers/internal/common/errors"
	"rms-insight-workers/internal/common/logger"
	"rms-insight-workers/internal/common/metrics"
	"rms-insight-workers/internal/common/observability"
	"rms-insight-workers/internal/common/validation"
	"rms-insight-workers/internal/insights"
	"rms-insight-workers/internal/models"
)

const TaskType = "build-business-insights"

type Handler struct {
	config    *Config
	redis     *redis.Client
	obs       *observability.Observability
	validator *validation.Validator
	errors    *errors.ErrorHandler
	logger    logger.Logger
}

// NewHandler builds the handler. A nil redis client disables the result cache.
func NewHandler(config *Config, rdb *redis.Client, obs *observability.Observability, validator *validation.Validator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		redis:     rdb,
		obs:       obs,
		validator: validator,
		errors:    errors.NewErrorHandler(log),
		logger:    log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	if err := h.validator.ValidateInput(TaskType, []byte(job.Variables)); err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, errors.NewInputInvalidError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	start := time.Now()
	output, err := h.execute(ctx, &input)
	if err != nil {
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.failJob(ctx, client, job, err)
		return
	}
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInputInvalidError("input cannot be nil")
	}

	opts := h.options(input)
	runID := uuid.NewString()

	ctx, span := h.obs.StartSpan(ctx, "insights.build",
		attribute.String("run.id", runID),
		attribute.String("property.id", input.PropertyID),
		attribute.Int("channels", len(opts.Channels)),
	)
	defer span.End()

	key, err := cacheKey(input.Inputs, opts)
	if err != nil {
		return nil, errors.NewInputInvalidError(fmt.Sprintf("unencodable input: %v", err))
	}

	if table, ok := h.lookup(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		h.logger.Info("insight table served from cache", map[string]interface{}{
			"runId": runID,
			"rows":  len(table.Rows),
		})
		return &Output{
			RunID:    runID,
			Rows:     table.Rows,
			RowCount: len(table.Rows),
			Summary:  table.Summary,
			Cached:   true,
		}, nil
	}

	start := time.Now()
	rows := insights.SortRows(insights.BuildRows(input.Inputs, opts))
	elapsed := time.Since(start)

	summary := insights.Summarize(rows)
	h.record(rows, summary, elapsed)
	span.SetAttributes(
		attribute.Bool("cache.hit", false),
		attribute.Int("rows", len(rows)),
		attribute.Int("statements", summary.Statements),
	)

	fields := map[string]interface{}{
		"runId":       runID,
		"rows":        len(rows),
		"statements":  summary.Statements,
		"duration_ms": elapsed.Milliseconds(),
	}
	if elapsed > h.config.SlowBuildThreshold {
		h.logger.Warn("slow insight build", fields)
	} else {
		h.logger.Info("insight table built", fields)
	}

	h.store(ctx, key, &cachedTable{Rows: rows, Summary: summary}, h.config.CacheTTL)

	return &Output{
		RunID:    runID,
		Rows:     rows,
		RowCount: len(rows),
		Summary:  summary,
	}, nil
}

func (h *Handler) options(input *Input) insights.Options {
	otaRank := h.config.OtaRankEnabled
	if input.OtaRankEnabled != nil {
		otaRank = *input.OtaRankEnabled
	}
	return insights.Options{
		Channels:             input.Channels,
		SelectedProperty:     input.SelectedProperty.String(),
		BenchmarkChannel:     h.config.BenchmarkChannel,
		OtaRankEnabled:       otaRank,
		MaxRankedCompetitors: h.config.MaxRankedCompetitors,
	}
}

func (h *Handler) record(rows []models.InsightRow, summary insights.Summary, elapsed time.Duration) {
	metrics.InsightBuildDuration.Observe(elapsed.Seconds())
	metrics.InsightRowsBuilt.Add(float64(len(rows)))
	for priority, count := range summary.ByPriority {
		metrics.InsightStatements.WithLabelValues(strconv.Itoa(priority)).Add(float64(count))
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.failJob(ctx, client, job, errors.NewInternalError(fmt.Errorf("encode output: %w", err)))
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
