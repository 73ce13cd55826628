// internal/workers/loan/generate-sanction-letter/handler.go
package generatesanctionletter

import (
	"context"
	"encoding/json"
	"time"

	"loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/validation"
	"loan-intake/internal/intake/sanction"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-sanction-letter"
)

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"purpose": {"type": "string"},
		"reference": {"type": "string", "pattern": "^SX/[0-9A-F]{12}$"},
		"sanctionedAt": {"type": "string", "format": "date-time"},
		"offer": {
			"type": "object",
			"properties": {
				"amount": {"type": "integer", "minimum": 1},
				"months": {"type": "integer", "minimum": 1},
				"rate": {"type": "number", "minimum": 0},
				"emi": {"type": "integer", "minimum": 0}
			},
			"required": ["amount", "months", "rate", "emi"]
		}
	},
	"required": ["name", "offer"]
}`)

type Handler struct {
	config *Config
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	reference := input.Reference
	if reference == "" {
		reference = sanction.NewReference()
	}

	date := h.now()
	if input.SanctionedAt != "" {
		parsed, err := time.Parse(time.RFC3339, input.SanctionedAt)
		if err != nil {
			return nil, errors.NewInvalidRequestError("Invalid sanctionedAt", err.Error())
		}
		date = parsed
	}

	letter, err := sanction.Render(sanction.Letter{
		Reference: reference,
		Date:      date,
		Name:      input.Name,
		Offer:     input.Offer,
		Purpose:   input.Purpose,
	})
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	h.logger.Info("sanction letter generated", map[string]interface{}{
		"reference": reference,
		"amount":    input.Offer.Amount,
	})

	return &Output{
		Reference: reference,
		Letter:    letter,
		Filename:  sanction.Filename(input.Name),
	}, nil
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
