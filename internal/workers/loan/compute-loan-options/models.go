// internal/workers/loan/compute-loan-options/models.go
package computeloanoptions

import "loan-intake/internal/models"

type Input struct {
	Income int    `json:"income"`
	Gender string `json:"gender,omitempty"`
}

type Output struct {
	Eligible          bool                `json:"eligible"`
	Options           []models.LoanOption `json:"options"`
	MaxEligibleAmount int                 `json:"maxEligibleAmount"`
}
