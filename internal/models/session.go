// internal/models/session.go
package models

import (
	"sync"
	"time"
)

// Step is one state of the intake conversation.
type Step string

const (
	StepStart        Step = "START"
	StepName         Step = "NAME"
	StepAge          Step = "AGE"
	StepGender       Step = "GENDER"
	StepLoan         Step = "LOAN"
	StepEmployment   Step = "EMPLOYMENT"
	StepIncome       Step = "INCOME"
	StepAccountType  Step = "ACCOUNT_TYPE"
	StepPAN          Step = "PAN"
	StepAadhaar      Step = "AADHAAR"
	StepOTP          Step = "OTP"
	StepDocument     Step = "DOCUMENT"
	StepFraudCheck   Step = "FRAUD_CHECK"
	StepChooseOption Step = "CHOOSE_OPTION"
	StepConfirmEMI   Step = "CONFIRM_EMI"
	StepSanction     Step = "SANCTION"
	StepRejected     Step = "REJECTED"
	StepEnd          Step = "END"
)

// IsTerminal reports whether no further input changes the session.
func (s Step) IsTerminal() bool {
	return s == StepRejected || s == StepEnd || s == StepSanction
}

// Session is one applicant conversation. Callers hold the session lock
// (Lock/Unlock) for the whole of one request.
type Session struct {
	ID          string       `json:"id"`
	Step        Step         `json:"step"`
	Profile     Profile      `json:"profile"`
	Flags       Flags        `json:"flags"`
	LoanOptions []LoanOption `json:"loanOptions,omitempty"`
	Fraud       *FraudResult `json:"fraud,omitempty"`
	SanctionRef string       `json:"sanctionRef,omitempty"`
	// SanctionedAt is the date printed on the sanction letter.
	SanctionedAt time.Time `json:"sanctionedAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	mu sync.Mutex
}

// NewSession returns a session at the entry step.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Step:      StepStart,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Clear restores the initial state. Caller must hold the lock.
func (s *Session) Clear() {
	s.Step = StepStart
	s.Profile = Profile{}
	s.Flags = Flags{}
	s.LoanOptions = nil
	s.Fraud = nil
	s.SanctionRef = ""
	s.SanctionedAt = time.Time{}
	s.UpdatedAt = time.Now().UTC()
}

// Touch records a mutation.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
}

// Snapshot copies the session state without the lock, for responses and tests.
func (s *Session) Snapshot() SessionView {
	view := SessionView{
		ID:          s.ID,
		Step:        s.Step,
		Profile:     s.Profile,
		Flags:       s.Flags,
		SanctionRef: s.SanctionRef,
	}
	if len(s.LoanOptions) > 0 {
		view.LoanOptions = append([]LoanOption(nil), s.LoanOptions...)
	}
	if s.Fraud != nil {
		fraud := *s.Fraud
		view.Fraud = &fraud
	}
	return view
}

// SessionView is a lock-free copy of a Session.
type SessionView struct {
	ID          string       `json:"id"`
	Step        Step         `json:"step"`
	Profile     Profile      `json:"profile"`
	Flags       Flags        `json:"flags"`
	LoanOptions []LoanOption `json:"loanOptions,omitempty"`
	Fraud       *FraudResult `json:"fraud,omitempty"`
	SanctionRef string       `json:"sanctionRef,omitempty"`
}

// Flags are the verification outcomes of a session.
type Flags struct {
	PANVerified   bool `json:"panVerified"`
	KYCVerified   bool `json:"kycVerified"`
	FraudDetected bool `json:"fraudDetected"`
}
