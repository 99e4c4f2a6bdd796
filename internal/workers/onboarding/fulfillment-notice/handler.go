// internal/workers/onboarding/fulfillment-notice/handler.go
package fulfillmentnotice

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"membership-signup/internal/common/errors"
	"membership-signup/internal/common/logger"
	"membership-signup/internal/common/metrics"
	"membership-signup/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "membership.fulfillment-notice"
)

// Publisher is satisfied by aws.TopicPublisher.
type Publisher interface {
	Publish(ctx context.Context, subject, eventType, message string) (string, error)
}

type Handler struct {
	config    *Config
	publisher Publisher
	logger    logger.Logger
	errors    *errors.JobErrorHandler
}

// NewHandler builds the worker. publisher may be nil when SNS is disabled.
func NewHandler(config *Config, publisher Publisher, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		publisher: publisher,
		logger:    l,
		errors:    errors.NewJobErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, errors.NewValidationError(map[string]string{"variables": err.Error()}))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	missing := map[string]string{}
	if input.MembershipID == "" {
		missing["membershipId"] = "required"
	}
	if input.ShirtSize == "" {
		missing["shirtSize"] = "required"
	}
	if input.JacketSize == "" {
		missing["jacketSize"] = "required"
	}
	if len(missing) > 0 {
		return nil, errors.NewValidationError(missing)
	}

	if !h.config.Enabled || h.publisher == nil {
		h.logger.Info("fulfillment notice disabled", map[string]interface{}{"membershipId": input.MembershipID})
		return &Output{FulfillmentStatus: StatusDisabled}, nil
	}

	notice := models.FulfillmentNotice{
		MembershipID:    input.MembershipID,
		Name:            strings.TrimSpace(input.FirstName + " " + input.LastName),
		Email:           input.Email,
		MembershipLevel: input.MembershipLevel,
		ShirtSize:       input.ShirtSize,
		JacketSize:      input.JacketSize,
		ShippingAddress: shippingAddress(input),
	}
	body, err := json.Marshal(notice)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	id, err := h.publisher.Publish(ctx, "Membership apparel request", models.EventFulfillmentRequested, string(body))
	if err != nil {
		return nil, errors.NewNotificationSendFailedError("sns", err)
	}

	h.logger.Info("fulfillment notice published", map[string]interface{}{
		"membershipId": input.MembershipID,
		"messageId":    id,
	})
	return &Output{FulfillmentMessageID: id, FulfillmentStatus: StatusRequested}, nil
}

func shippingAddress(in *Input) string {
	lines := []string{in.Address1}
	if in.Address2 != "" {
		lines = append(lines, in.Address2)
	}
	lines = append(lines, strings.TrimSpace(in.City+", "+in.State+" "+in.ZipCode))
	return strings.Join(lines, "\n")
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
	h.errors.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
