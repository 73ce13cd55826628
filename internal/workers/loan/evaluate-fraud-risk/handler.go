// internal/workers/loan/evaluate-fraud-risk/handler.go
package evaluatefraudrisk

import (
	"context"
	"encoding/json"

	"loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/validation"
	"loan-intake/internal/intake/fraud"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "evaluate-fraud-risk"
)

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"profile": {
			"type": "object",
			"properties": {
				"age": {"type": "integer"},
				"declaredIncome": {"type": "integer"},
				"docIncome": {"type": "integer"},
				"employment": {"type": "string"}
			}
		},
		"flags": {
			"type": "object",
			"properties": {
				"panVerified": {"type": "boolean"},
				"kycVerified": {"type": "boolean"}
			}
		}
	},
	"required": ["profile", "flags"]
}`)

type Handler struct {
	config    *Config
	evaluator *fraud.Evaluator
	logger    logger.Logger
}

func NewHandler(config *Config, evaluator *fraud.Evaluator, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		evaluator: evaluator,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	result, err := h.evaluator.Evaluate(input.Profile, input.Flags)
	if err != nil {
		return nil, errors.NewRuleEvaluationFailedError(err)
	}

	h.logger.Info("fraud risk evaluated", map[string]interface{}{
		"passed":    result.Passed,
		"riskScore": result.RiskScore,
		"reasons":   len(result.Reasons),
	})

	return &Output{
		FraudResult:   result,
		FraudDetected: !result.Passed,
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
