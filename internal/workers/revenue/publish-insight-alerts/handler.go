// internal/workers/revenue/publish-insight-alerts/handler.go
package publishinsightalerts

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rms-insight-workers/internal/common/errors"
	"rms-insight-workers/internal/common/logger"
	"rms-insight-workers/internal/common/metrics"
	"rms-insight-workers/internal/common/validation"
	"rms-insight-workers/internal/insights"
	"rms-insight-workers/internal/models"
)

const TaskType = "publish-insight-alerts"

// Publisher delivers one alert. *aws.SNSClient satisfies it.
type Publisher interface {
	PublishAlert(ctx context.Context, subject, message string, attributes map[string]string) (string, error)
}

type Handler struct {
	config    *Config
	publisher Publisher
	validator *validation.Validator
	errors    *errors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, publisher Publisher, validator *validation.Validator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		publisher: publisher,
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

	urgent := insights.UrgentRows(insights.SortRows(input.Rows))
	output := &Output{MessageIDs: []string{}}

	if len(urgent) == 0 {
		return output, nil
	}
	if !h.config.Enabled || h.publisher == nil {
		h.logger.Info("alert publishing disabled", map[string]interface{}{"urgentRows": len(urgent)})
		output.Skipped = len(urgent)
		return output, nil
	}

	if h.config.MaxAlerts > 0 && len(urgent) > h.config.MaxAlerts {
		output.Skipped = len(urgent) - h.config.MaxAlerts
		urgent = urgent[:h.config.MaxAlerts]
	}

	for _, row := range urgent {
		subject, message := composeAlert(input.PropertyName, row)
		id, err := h.publisher.PublishAlert(ctx, subject, message, alertAttributes(input.PropertyID, row))
		if err != nil {
			return nil, errors.NewAlertFailedError("sns", err).
				WithMetadata("published", len(output.MessageIDs)).
				WithMetadata("checkInDate", row.FormattedCheckInDate)
		}
		metrics.InsightAlertsPublished.Inc()
		output.MessageIDs = append(output.MessageIDs, id)
	}
	output.Published = len(output.MessageIDs)

	h.logger.Info("insight alerts published", map[string]interface{}{
		"published": output.Published,
		"skipped":   output.Skipped,
	})
	return output, nil
}

func composeAlert(propertyName string, row models.InsightRow) (string, string) {
	day := row.FormatDate
	if day == "" {
		day = row.FormattedCheckInDate
	}

	subject := "Closed inventory on " + day
	if propertyName != "" {
		subject = propertyName + ": " + subject
	}
	subject = truncateSubject(subject, maxSubjectBytes)

	var b strings.Builder
	if propertyName != "" {
		fmt.Fprintf(&b, "%s, %s\n\n", propertyName, row.FormattedCheckInDate)
	} else {
		fmt.Fprintf(&b, "%s\n\n", row.FormattedCheckInDate)
	}
	for _, s := range row.Statements {
		fmt.Fprintf(&b, "- %s\n", insights.PlainStatement(s.Statement))
	}
	return subject, b.String()
}

// maxSubjectBytes is the SNS subject limit.
const maxSubjectBytes = 100

// truncateSubject cuts s to at most limit bytes without splitting a rune.
func truncateSubject(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func alertAttributes(propertyID string, row models.InsightRow) map[string]string {
	attrs := map[string]string{
		"checkInDate": row.FormattedCheckInDate,
	}
	if top, ok := row.TopPriority(); ok {
		attrs["priority"] = strconv.Itoa(top)
	}
	if propertyID != "" {
		attrs["propertyId"] = propertyID
	}
	return attrs
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
