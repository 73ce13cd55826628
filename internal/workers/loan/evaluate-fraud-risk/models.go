// internal/workers/loan/evaluate-fraud-risk/models.go
package evaluatefraudrisk

import "loan-intake/internal/models"

type Input struct {
	Profile models.Profile `json:"profile"`
	Flags   models.Flags   `json:"flags"`
}

// Output extends the evaluation result with the flag the process gateway
// branches on.
type Output struct {
	models.FraudResult
	FraudDetected bool `json:"fraudDetected"`
}
