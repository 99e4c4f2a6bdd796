// internal/workers/onboarding/welcome-email/handler.go
package welcomeemail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"
	"time"

	"membership-signup/internal/common/errors"
	"membership-signup/internal/common/logger"
	"membership-signup/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "membership.welcome-email"
)

// Mailer is satisfied by aws.Mailer.
type Mailer interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) (string, error)
}

var (
	subjectTmpl = template.Must(template.New("subject").Parse(
		`Welcome to the fan club, {{.Name}}!`))
	textTmpl = template.Must(template.New("text").Parse(`Hi {{.Name}},

Thanks for joining! Your {{.Level}} membership ({{.Price}}) is confirmed.
Payment reference: {{.PaymentIntentID}}

Your welcome pack will ship to the address on your application.
Questions? Contact {{.Support}}.
`))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(`<p>Hi {{.Name}},</p>
<p>Thanks for joining! Your <strong>{{.Level}}</strong> membership ({{.Price}}) is confirmed.</p>
<p>Payment reference: <code>{{.PaymentIntentID}}</code></p>
<p>Your welcome pack will ship to the address on your application.<br>Questions? Contact {{.Support}}.</p>
`))
)

type emailData struct {
	Name            string
	Level           string
	Price           string
	PaymentIntentID string
	Support         string
}

type Handler struct {
	config *Config
	mailer Mailer
	logger logger.Logger
	errors *errors.JobErrorHandler
}

// NewHandler builds the worker. mailer may be nil when SES is disabled.
func NewHandler(config *Config, mailer Mailer, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		mailer: mailer,
		logger: l,
		errors: errors.NewJobErrorHandler(l),
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
	if strings.TrimSpace(input.Email) == "" {
		return nil, errors.NewValidationError(map[string]string{"email": "recipient email is required"})
	}
	if !h.config.Enabled || h.mailer == nil {
		h.logger.Info("welcome email disabled", map[string]interface{}{"membershipId": input.MembershipID})
		return &Output{WelcomeStatus: StatusDisabled}, nil
	}

	subject, text, html, err := render(input, h.config.SupportContact)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	id, err := h.mailer.Send(ctx, input.Email, subject, text, html)
	if err != nil {
		return nil, errors.NewNotificationSendFailedError("email", err)
	}

	h.logger.Info("welcome email sent", map[string]interface{}{
		"membershipId": input.MembershipID,
		"messageId":    id,
	})
	return &Output{
		WelcomeMessageID: id,
		WelcomeStatus:    StatusSent,
		WelcomeSentAt:    time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func render(input *Input, support string) (string, string, string, error) {
	name := input.FirstName
	if input.Nickname != "" && !strings.EqualFold(input.Nickname, "N/A") {
		name = input.Nickname
	}
	if support == "" {
		support = "our membership team"
	}
	level := input.MembershipLevel
	if level != "" {
		level = strings.ToUpper(level[:1]) + level[1:]
	}
	data := emailData{
		Name:            name,
		Level:           level,
		Price:           fmt.Sprintf("$%.2f", input.TotalPrice),
		PaymentIntentID: input.PaymentIntentID,
		Support:         support,
	}

	var subject, text, html bytes.Buffer
	if err := subjectTmpl.Execute(&subject, data); err != nil {
		return "", "", "", err
	}
	if err := textTmpl.Execute(&text, data); err != nil {
		return "", "", "", err
	}
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return "", "", "", err
	}
	return subject.String(), text.String(), html.String(), nil
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
