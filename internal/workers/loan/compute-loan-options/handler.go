// internal/workers/loan/compute-loan-options/handler.go
package computeloanoptions

import (
	"context"
	"encoding/json"

	"loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/validation"
	"loan-intake/internal/intake/eligibility"
	"loan-intake/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "compute-loan-options"
)

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"income": {"type": "integer", "minimum": 0},
		"gender": {"type": "string", "enum": ["", "male", "female", "other"]}
	},
	"required": ["income"]
}`)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	options := eligibility.ComputeOptions(input.Income, input.Gender)
	if options == nil {
		options = []models.LoanOption{}
	}

	output := &Output{
		Eligible:          len(options) > 0,
		Options:           options,
		MaxEligibleAmount: eligibility.MaxEligibleAmount(input.Income),
	}

	h.logger.Info("loan options computed", map[string]interface{}{
		"income":  input.Income,
		"options": len(options),
	})
	return output, nil
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
