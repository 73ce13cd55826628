// internal/workers/loan/send-sanction-notification/handler.go
package sendsanctionnotification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	commonaws "loan-intake/internal/common/aws"
	"loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/validation"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-sanction-notification"
)

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"reference": {"type": "string", "minLength": 1},
		"name": {"type": "string"},
		"email": {"type": "string", "format": "email"},
		"letter": {"type": "string", "minLength": 1}
	},
	"required": ["reference", "letter"]
}`)

type Handler struct {
	config    *Config
	logger    logger.Logger
	sesClient commonaws.EmailSender
	now       func() time.Time
}

// NewHandler builds the worker. sender may be nil when email is disabled.
func NewHandler(config *Config, sender commonaws.EmailSender, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient: sender,
		now:       time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := parseInput(job.Variables)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		return err
	}

	return h.completeJob(ctx, client, job, output)
}

func parseInput(variables string) (*Input, error) {
	result, err := inputSchema.ValidateBytes([]byte(variables))
	if err != nil {
		return nil, errors.NewInvalidRequestError("Invalid job variables", err.Error())
	}
	if !result.Valid {
		return nil, errors.NewInvalidRequestError("Invalid job variables", result.Summary())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidRequestError("Invalid job variables", err.Error())
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         h.now().UTC().Format(time.RFC3339),
	}

	recipients := h.recipients(input.Email)
	if !h.config.EmailEnabled || h.sesClient == nil || len(recipients) == 0 {
		h.logger.Info("sanction notification skipped", map[string]interface{}{
			"reference":  input.Reference,
			"enabled":    h.config.EmailEnabled,
			"recipients": len(recipients),
		})
		return output, nil
	}

	if err := h.sendEmail(ctx, recipients, subject(input), input.Letter); err != nil {
		return nil, errors.NewNotificationSendFailedError("email", err)
	}

	h.logger.Info("sanction notification sent", map[string]interface{}{
		"reference":      input.Reference,
		"notificationId": output.NotificationID,
		"recipients":     len(recipients),
	})

	output.Status = StatusSent
	output.Recipients = recipients
	return output, nil
}

func (h *Handler) recipients(applicant string) []string {
	var out []string
	if applicant = strings.TrimSpace(applicant); applicant != "" {
		out = append(out, applicant)
	}
	if ops := strings.TrimSpace(h.config.OpsEmail); ops != "" && !strings.EqualFold(ops, applicant) {
		out = append(out, ops)
	}
	return out
}

func subject(input *Input) string {
	if name := strings.TrimSpace(input.Name); name != "" {
		return fmt.Sprintf("Loan sanctioned for %s (%s)", name, input.Reference)
	}
	return fmt.Sprintf("Loan sanctioned (%s)", input.Reference)
}

func (h *Handler) sendEmail(ctx context.Context, to []string, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: to,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return errors.NewWorkflowUnavailableError("complete-job", err)
	}
	return nil
}
