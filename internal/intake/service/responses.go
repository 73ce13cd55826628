// internal/intake/service/responses.go
package service

import (
	"github.com/shopspring/decimal"

	"loan-intake/internal/intake/eligibility"
	"loan-intake/internal/models"
)

type ChatResponse struct {
	Reply string      `json:"reply"`
	Step  models.Step `json:"step"`
}

type PANResponse struct {
	Valid   bool   `json:"valid"`
	PAN     string `json:"pan,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// Aadhaar verification outcomes reported in AadhaarResponse.Step.
const (
	AadhaarOTPSent     = "otp_sent"
	AadhaarInvalid     = "aadhaar_invalid"
	AadhaarOTPVerified = "otp_verified"
	AadhaarOTPFailed   = "otp_failed"
)

type AadhaarResponse struct {
	Valid   bool   `json:"valid"`
	Step    string `json:"step"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type UploadResponse struct {
	Valid   bool        `json:"valid"`
	Income  int         `json:"income,omitempty"`
	Message string      `json:"message,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	Step    models.Step `json:"step"`
}

type FraudResponse struct {
	Passed    bool        `json:"passed"`
	Reasons   []string    `json:"reasons"`
	RiskScore int         `json:"riskScore"`
	Message   string      `json:"message"`
	Step      models.Step `json:"step"`
}

// OptionSchedule is the amortization of one menu entry.
type OptionSchedule struct {
	Option        int                       `json:"option"`
	TotalInterest decimal.Decimal           `json:"totalInterest"`
	Installments  []eligibility.Installment `json:"installments"`
}

type LoanOptionsResponse struct {
	Options           []models.LoanOption `json:"options"`
	MaxEligibleAmount int                 `json:"maxEligibleAmount"`
	Message           string              `json:"message"`
	Reply             string              `json:"reply"`
	Step              models.Step         `json:"step"`
	Schedules         []OptionSchedule    `json:"schedules,omitempty"`
}

type SanctionResponse struct {
	Success        bool   `json:"success"`
	SanctionLetter string `json:"sanctionLetter"`
	Reference      string `json:"reference"`
	Filename       string `json:"filename"`
	Message        string `json:"message"`
}

type ResetResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
