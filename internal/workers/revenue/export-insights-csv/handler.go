// internal/workers/revenue/export-insights-csv/handler.go
package exportinsightscsv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rms-insight-workers/internal/common/errors"
	"rms-insight-workers/internal/common/logger"
	"rms-insight-workers/internal/common/metrics"
	"rms-insight-workers/internal/common/validation"
	"rms-insight-workers/internal/insights"
)

const TaskType = "export-insights-csv"

// Mailer sends a raw MIME message. *aws.SESClient satisfies it.
type Mailer interface {
	SendRaw(ctx context.Context, recipients []string, message []byte) (string, error)
	From() string
}

type Handler struct {
	config    *Config
	mailer    Mailer
	validator *validation.Validator
	errors    *errors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, mailer Mailer, validator *validation.Validator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		mailer:    mailer,
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

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInputInvalidError("input cannot be nil")
	}

	var buf bytes.Buffer
	if err := insights.WriteCSV(&buf, input.Rows); err != nil {
		return nil, errors.NewExportFailedError(err)
	}

	output := &Output{
		CSV:      buf.String(),
		RowCount: len(input.Rows),
	}

	if len(input.Recipients) == 0 {
		return output, nil
	}
	if !h.config.EmailEnabled || h.mailer == nil {
		h.logger.Warn("recipients given but email delivery is disabled", map[string]interface{}{
			"recipients": len(input.Recipients),
		})
		return output, nil
	}

	message, err := buildMessage(digest{
		From:           h.mailer.From(),
		To:             input.Recipients,
		Subject:        h.subject(input),
		Body:           h.body(input),
		AttachmentName: h.config.AttachmentName,
		Attachment:     buf.Bytes(),
	})
	if err != nil {
		return nil, errors.NewExportFailedError(fmt.Errorf("build email: %w", err))
	}

	messageID, err := h.mailer.SendRaw(ctx, input.Recipients, message)
	if err != nil {
		return nil, errors.NewExportFailedError(fmt.Errorf("send email: %w", err))
	}

	h.logger.Info("insight digest emailed", map[string]interface{}{
		"messageId":  messageID,
		"recipients": len(input.Recipients),
		"rows":       output.RowCount,
	})
	output.Emailed = true
	output.MessageID = messageID
	return output, nil
}

func (h *Handler) subject(input *Input) string {
	if input.Subject != "" {
		return input.Subject
	}
	if input.PropertyName != "" {
		return h.config.DefaultSubject + ": " + input.PropertyName
	}
	return h.config.DefaultSubject
}

func (h *Handler) body(input *Input) string {
	summary := insights.Summarize(input.Rows)
	return fmt.Sprintf(
		"Attached are %d days of business insights.\r\n\r\nClosed while the compset sells: %d\r\nCompset mostly closed: %d\r\nEvent days: %d\r\nOTA rank drops: %d\r\n",
		summary.Rows, summary.ClosedVsAvgCompset, summary.ClosedCompsetDays, summary.EventDays, summary.OtaRankDrops,
	)
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
