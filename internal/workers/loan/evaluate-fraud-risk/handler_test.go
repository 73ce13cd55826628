// internal/workers/loan/evaluate-fraud-risk/handler_test.go
package evaluatefraudrisk

import (
	"context"
	"encoding/json"
	"testing"

	"loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/intake/fraud"
	"loan-intake/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	evaluator, err := fraud.NewEvaluator()
	require.NoError(t, err)
	return NewHandler(LoadConfig(), evaluator, logger.NewTestLogger(t))
}

// ==========================
// Input parsing
// ==========================

func TestParseInput(t *testing.T) {
	t.Run("profile and flags", func(t *testing.T) {
		input, err := parseInput(`{
			"profile": {"name": "Asha", "age": 30, "declaredIncome": 50000, "docIncome": 48000, "employment": "salaried"},
			"flags": {"panVerified": true, "kycVerified": false}
		}`)
		require.NoError(t, err)
		assert.Equal(t, 30, *input.Profile.Age)
		assert.Equal(t, 48000, *input.Profile.DocIncome)
		assert.True(t, input.Flags.PANVerified)
		assert.False(t, input.Flags.KYCVerified)
	})

	tests := []struct {
		name      string
		variables string
	}{
		{"missing flags", `{"profile": {}}`},
		{"missing profile", `{"flags": {}}`},
		{"age as string", `{"profile": {"age": "30"}, "flags": {}}`},
		{"flag as string", `{"profile": {}, "flags": {"panVerified": "yes"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseInput(tt.variables)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidRequest, errors.AsStandardError(err).Code)
		})
	}
}

// ==========================
// Execution
// ==========================

func TestExecute(t *testing.T) {
	h := newTestHandler(t)

	t.Run("clean profile passes", func(t *testing.T) {
		out, err := h.execute(context.Background(), &Input{
			Profile: models.Profile{
				Age:            models.IntPtr(30),
				Employment:     "salaried",
				DeclaredIncome: models.IntPtr(50000),
				DocIncome:      models.IntPtr(50000),
			},
			Flags: models.Flags{PANVerified: true, KYCVerified: true},
		})
		require.NoError(t, err)
		assert.True(t, out.Passed)
		assert.False(t, out.FraudDetected)
		assert.Equal(t, 0, out.RiskScore)
	})

	t.Run("unverified applicant is flagged", func(t *testing.T) {
		out, err := h.execute(context.Background(), &Input{
			Profile: models.Profile{
				Age:            models.IntPtr(30),
				Employment:     "salaried",
				DeclaredIncome: models.IntPtr(50000),
				DocIncome:      models.IntPtr(50000),
			},
		})
		require.NoError(t, err)
		assert.False(t, out.Passed)
		assert.True(t, out.FraudDetected)
		assert.Equal(t, 50, out.RiskScore)
		assert.Len(t, out.Reasons, 2)
	})
}

func TestOutput_FlattensResult(t *testing.T) {
	payload, err := json.Marshal(Output{
		FraudResult:   models.FraudResult{Passed: false, Reasons: []string{"r"}, RiskScore: 60},
		FraudDetected: true,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"passed": false, "reasons": ["r"], "riskScore": 60, "fraudDetected": true}`, string(payload))
}
