// Package verification holds the identity and document collaborators the
// intake conversation consults: PAN check, Aadhaar OTP channel and income
// extraction. Each has a demo implementation and a live one.
package verification

import (
	"context"
	"errors"
)

// ErrNoIncome means the document was processed but no income could be read.
// It is an outcome for the applicant, not a provider failure.
var ErrNoIncome = errors.New("no income detected in document")

// Reasons shown to the applicant.
const (
	ReasonInvalidPAN     = "Invalid PAN format. Please enter a valid PAN number (e.g., ABCDE1234F)."
	ReasonPANNotFound    = "PAN could not be verified with the registry. Please check the number and try again."
	ReasonInvalidAadhaar = "Invalid Aadhaar number. Please enter a valid 12-digit Aadhaar number."
	ReasonInvalidOTP     = "Invalid OTP. Please try again."
	ReasonNoIncome       = "Unable to detect income from document. Please upload a clear salary slip, bank statement, or ITR."
)

// PANResult is the outcome of a PAN check. PAN is the normalized number when
// Valid is true; Reason explains a rejection.
type PANResult struct {
	Valid  bool   `json:"valid"`
	PAN    string `json:"pan,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// PANVerifier checks a PAN. A rejected PAN is a result with Valid false; an
// error means the provider could not answer.
type PANVerifier interface {
	VerifyPAN(ctx context.Context, pan string) (PANResult, error)
}

// OTPService dispatches and checks Aadhaar one-time passwords.
type OTPService interface {
	SendOTP(ctx context.Context, sessionID, aadhaar string) error
	VerifyOTP(ctx context.Context, sessionID, code string) (bool, error)
}

// Document is an uploaded income proof.
type Document struct {
	SessionID      string
	Filename       string
	ContentType    string
	Content        []byte
	DeclaredIncome int
}

// IncomeExtractor reads the monthly income from a document. It returns
// ErrNoIncome when nothing usable is found.
type IncomeExtractor interface {
	ExtractIncome(ctx context.Context, doc Document) (int, error)
}
