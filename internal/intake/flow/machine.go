// Package flow is the intake state machine. One transition table, keyed by
// step, serves every caller: the HTTP API and the workflow workers.
package flow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	commonerrors "loan-intake/internal/common/errors"
	"loan-intake/internal/intake/sanction"
	"loan-intake/internal/intake/validators"
	"loan-intake/internal/intake/verification"
	"loan-intake/internal/models"
)

// Result describes what one operation did to a session.
type Result struct {
	Reply string
	From  models.Step
	Step  models.Step
	// RejectReason is set when the operation moved the session to REJECTED.
	RejectReason string
}

// Transitioned reports whether the step changed.
func (r Result) Transitioned() bool {
	return r.From != r.Step
}

// outcome is what a step handler decided. A zero next means stay.
type outcome struct {
	reply  string
	next   models.Step
	reject string
}

func stay(reply string) outcome { return outcome{reply: reply} }

func move(next models.Step, reply string) outcome {
	return outcome{reply: reply, next: next}
}

func reject(reason, reply string) outcome {
	return outcome{reply: reply, next: models.StepRejected, reject: reason}
}

type stepHandler func(ctx context.Context, s *models.Session, input string) (outcome, error)

// Config wires the collaborators the conversation consults.
type Config struct {
	PAN verification.PANVerifier
	OTP verification.OTPService
	// OTPHint is appended to the wrong-OTP reply, e.g. the demo code.
	OTPHint string
	// NewReference issues sanction reference numbers.
	NewReference func() string
}

// Machine advances sessions. It holds no session state and is safe for
// concurrent use; callers serialize operations on one session.
type Machine struct {
	pan          verification.PANVerifier
	otp          verification.OTPService
	otpHint      string
	newReference func() string
	table        map[models.Step]stepHandler
}

func NewMachine(cfg Config) *Machine {
	m := &Machine{
		pan:          cfg.PAN,
		otp:          cfg.OTP,
		otpHint:      cfg.OTPHint,
		newReference: cfg.NewReference,
	}
	if m.pan == nil {
		m.pan = verification.DemoPANVerifier{}
	}
	if m.otp == nil {
		m.otp = verification.NewDemoOTPService("")
	}
	if m.newReference == nil {
		m.newReference = sanction.NewReference
	}

	m.table = map[models.Step]stepHandler{
		models.StepStart:        m.start,
		models.StepName:         m.name,
		models.StepAge:          m.age,
		models.StepGender:       m.gender,
		models.StepLoan:         m.loan,
		models.StepEmployment:   m.employment,
		models.StepIncome:       m.income,
		models.StepAccountType:  m.accountType,
		models.StepPAN:          m.panStep,
		models.StepAadhaar:      m.aadhaar,
		models.StepOTP:          m.otpStep,
		models.StepDocument:     fixed(msgAwaitDocument),
		models.StepFraudCheck:   fixed(msgAwaitFraudCheck),
		models.StepChooseOption: m.chooseOption,
		models.StepConfirmEMI:   m.confirmEMI,
	}
	return m
}

func fixed(reply string) stepHandler {
	return func(context.Context, *models.Session, string) (outcome, error) {
		return stay(reply), nil
	}
}

// Advance applies one chat message. A rejected answer re-prompts without
// touching the session. Errors are collaborator failures and leave the
// session unchanged.
func (m *Machine) Advance(ctx context.Context, s *models.Session, input string) (Result, error) {
	if s.Step.IsTerminal() {
		return Result{Reply: msgFinished, From: s.Step, Step: s.Step}, nil
	}
	handler, ok := m.table[s.Step]
	if !ok {
		return Result{}, commonerrors.NewInternalError(fmt.Errorf("no transition for step %q", s.Step))
	}

	from := s.Step
	out, err := handler(ctx, s, input)
	if err != nil {
		return Result{From: from, Step: from}, err
	}
	return m.apply(s, from, out), nil
}

func (m *Machine) apply(s *models.Session, from models.Step, out outcome) Result {
	if out.next != "" && out.next != from {
		s.Step = out.next
		s.Touch()
	}
	return Result{Reply: out.reply, From: from, Step: s.Step, RejectReason: out.reject}
}

// ==========================
// Conversational steps
// ==========================

func (m *Machine) start(context.Context, *models.Session, string) (outcome, error) {
	return move(models.StepName, msgWelcome), nil
}

func (m *Machine) name(_ context.Context, s *models.Session, input string) (outcome, error) {
	name, err := validators.Name(input)
	if err != nil {
		return stay(msgAskName), nil
	}
	s.Profile.Name = name
	return move(models.StepAge, msgAskAge), nil
}

func (m *Machine) age(_ context.Context, s *models.Session, input string) (outcome, error) {
	age, err := validators.Age(input)
	if err != nil {
		return stay(msgBadAge), nil
	}
	switch err := validators.CheckAge(age); {
	case errors.Is(err, validators.ErrUnderage):
		return reject(RejectUnderage, msgUnderage), nil
	case errors.Is(err, validators.ErrOverage):
		return reject(RejectOverage, msgOverage), nil
	}
	s.Profile.Age = models.IntPtr(age)
	return move(models.StepGender, msgAskGender), nil
}

func (m *Machine) gender(_ context.Context, s *models.Session, input string) (outcome, error) {
	gender, err := validators.Gender(input)
	if err != nil {
		return stay(msgBadGender), nil
	}
	s.Profile.Gender = gender
	return move(models.StepLoan, msgAskLoan), nil
}

func (m *Machine) loan(_ context.Context, s *models.Session, input string) (outcome, error) {
	purpose, err := validators.FreeText(input)
	if err != nil {
		return stay(msgBadLoan), nil
	}
	s.Profile.LoanType = purpose
	return move(models.StepEmployment, msgAskEmployment), nil
}

func (m *Machine) employment(_ context.Context, s *models.Session, input string) (outcome, error) {
	status, err := validators.Employment(input)
	if err != nil {
		return stay(msgBadEmployment), nil
	}
	if !validators.EligibleEmployment(status) {
		return reject(RejectUnemployed, msgUnemployed), nil
	}
	s.Profile.Employment = status
	return move(models.StepIncome, msgAskIncome), nil
}

func (m *Machine) income(_ context.Context, s *models.Session, input string) (outcome, error) {
	income, err := validators.Income(input)
	if err != nil {
		return stay(msgBadIncome), nil
	}
	if err := validators.CheckIncome(income); err != nil {
		return reject(RejectLowIncome, msgIncomeTooLow), nil
	}
	s.Profile.DeclaredIncome = models.IntPtr(income)
	return move(models.StepAccountType, msgAskAccountType), nil
}

func (m *Machine) accountType(_ context.Context, s *models.Session, input string) (outcome, error) {
	account, err := validators.AccountType(input)
	if err != nil {
		return stay(msgBadAccountType), nil
	}
	s.Profile.AccountType = account
	return move(models.StepPAN, msgAskPAN), nil
}

func (m *Machine) panStep(ctx context.Context, s *models.Session, input string) (outcome, error) {
	result, err := m.VerifyPAN(ctx, s, input)
	if err != nil {
		return outcome{}, err
	}
	if !result.Valid {
		return stay(result.Reason), nil
	}
	return move(models.StepAadhaar, msgPANVerified), nil
}

func (m *Machine) aadhaar(ctx context.Context, s *models.Session, input string) (outcome, error) {
	sent, reason, err := m.SendOTP(ctx, s, input)
	if err != nil {
		return outcome{}, err
	}
	if !sent {
		return stay(reason), nil
	}
	return move(models.StepOTP, msgOTPSent), nil
}

func (m *Machine) otpStep(ctx context.Context, s *models.Session, input string) (outcome, error) {
	ok, err := m.VerifyOTP(ctx, s, input)
	if err != nil {
		return outcome{}, err
	}
	if !ok {
		return stay(m.invalidOTPReply()), nil
	}
	return move(models.StepDocument, msgKYCCompleted), nil
}

func (m *Machine) chooseOption(_ context.Context, s *models.Session, input string) (outcome, error) {
	choice, err := validators.Choice(input, len(s.LoanOptions))
	if err != nil {
		return stay(fmt.Sprintf(msgBadChoiceFmt, choiceList(len(s.LoanOptions)))), nil
	}
	selected := s.LoanOptions[choice-1]
	s.Profile.SelectedLoan = &selected
	return move(models.StepConfirmEMI, fmt.Sprintf(msgConfirmFmt,
		sanction.GroupDigits(selected.EMI), selected.Months)), nil
}

func (m *Machine) confirmEMI(_ context.Context, s *models.Session, input string) (outcome, error) {
	accepted, err := validators.Confirm(input)
	if err != nil {
		return stay(msgBadConfirm), nil
	}
	if !accepted {
		return move(models.StepEnd, msgDeclined), nil
	}
	if s.SanctionRef == "" {
		s.SanctionRef = m.newReference()
		s.SanctionedAt = time.Now().UTC()
	}
	return move(models.StepSanction, msgSanctioned), nil
}

func (m *Machine) invalidOTPReply() string {
	if m.otpHint == "" {
		return verification.ReasonInvalidOTP
	}
	return verification.ReasonInvalidOTP + " " + m.otpHint
}

// choiceList renders "(1)", "(1 or 2)" or "(1, 2, or 3)".
func choiceList(n int) string {
	switch {
	case n <= 1:
		return "(1)"
	case n == 2:
		return "(1 or 2)"
	}
	nums := make([]string, 0, n)
	for i := 1; i < n; i++ {
		nums = append(nums, strconv.Itoa(i))
	}
	return "(" + strings.Join(nums, ", ") + ", or " + strconv.Itoa(n) + ")"
}

// ==========================
// Verification
// ==========================

// VerifyPAN runs the PAN check. An accepted PAN is stored and marks the
// session PAN-verified; the step is left alone so the standalone endpoint and
// the PAN step share it.
func (m *Machine) VerifyPAN(ctx context.Context, s *models.Session, raw string) (verification.PANResult, error) {
	result, err := m.pan.VerifyPAN(ctx, raw)
	if err != nil {
		return verification.PANResult{}, commonerrors.NewVerificationUnavailableError("pan", err)
	}
	if !result.Valid {
		if result.Reason == "" {
			result.Reason = verification.ReasonInvalidPAN
		}
		return result, nil
	}

	s.Profile.PAN = result.PAN
	s.Flags.PANVerified = true
	s.Touch()
	return result, nil
}

// SendOTP validates the Aadhaar number and dispatches an OTP. It returns
// false with a reason for a malformed number. The number is stored only once
// the OTP went out.
func (m *Machine) SendOTP(ctx context.Context, s *models.Session, raw string) (bool, string, error) {
	aadhaar, err := validators.Aadhaar(raw)
	if err != nil {
		return false, verification.ReasonInvalidAadhaar, nil
	}
	if err := m.otp.SendOTP(ctx, s.ID, aadhaar); err != nil {
		return false, "", commonerrors.NewOTPDispatchFailedError(err)
	}

	s.Profile.Aadhaar = aadhaar
	s.Touch()
	return true, "", nil
}

// VerifyOTP checks a code against the OTP service and marks the session
// KYC-verified on success.
func (m *Machine) VerifyOTP(ctx context.Context, s *models.Session, raw string) (bool, error) {
	code, err := validators.OTP(raw)
	if err != nil {
		return false, nil
	}
	ok, err := m.otp.VerifyOTP(ctx, s.ID, code)
	if err != nil {
		return false, commonerrors.NewVerificationUnavailableError("otp", err)
	}
	if !ok {
		return false, nil
	}

	s.Flags.KYCVerified = true
	s.Touch()
	return true, nil
}

// InvalidOTPReply is the re-prompt for a wrong code.
func (m *Machine) InvalidOTPReply() string {
	return m.invalidOTPReply()
}

// ==========================
// Document, risk and offer
// ==========================

// SubmitDocument records the outcome of income extraction. ok false means no
// income was found: the applicant is asked to upload again and the session
// stays at DOCUMENT.
func (m *Machine) SubmitDocument(s *models.Session, income int, ok bool) (Result, error) {
	if s.Step != models.StepDocument {
		return Result{}, commonerrors.NewStepMismatchError("upload-doc", string(s.Step))
	}
	if s.Profile.DeclaredIncome == nil {
		return Result{}, commonerrors.NewProfileIncompleteError("declaredIncome")
	}
	if !ok {
		return m.apply(s, s.Step, stay(verification.ReasonNoIncome)), nil
	}

	s.Profile.DocIncome = models.IntPtr(income)
	return m.apply(s, s.Step, move(models.StepFraudCheck, msgDocumentOK)), nil
}

// ApplyFraudResult stores a risk evaluation. A failed check flags the session
// and rejects it.
func (m *Machine) ApplyFraudResult(s *models.Session, result models.FraudResult) (Result, error) {
	if s.Step != models.StepFraudCheck {
		return Result{}, commonerrors.NewStepMismatchError("run-fraud", string(s.Step))
	}

	stored := result
	stored.Reasons = append([]string{}, result.Reasons...)
	s.Fraud = &stored

	if !result.Passed {
		s.Flags.FraudDetected = true
		return m.apply(s, s.Step, reject(RejectFraud, msgFraudFailed)), nil
	}
	s.Touch()
	return m.apply(s, s.Step, stay(msgFraudPassed)), nil
}

// PresentOptions stores the loan menu and moves to CHOOSE_OPTION. An empty
// menu rejects the application.
func (m *Machine) PresentOptions(s *models.Session, options []models.LoanOption, maxEligible int) (Result, error) {
	if s.Step != models.StepFraudCheck {
		return Result{}, commonerrors.NewStepMismatchError("loan-options", string(s.Step))
	}
	if s.Fraud == nil || !s.Fraud.Passed {
		return Result{}, commonerrors.NewStepMismatchError("loan-options", string(s.Step)).
			WithMetadata("reason", "fraud check not passed")
	}
	if len(options) == 0 {
		return m.apply(s, s.Step, reject(RejectNoAffordable, msgNoAffordable)), nil
	}

	s.LoanOptions = append([]models.LoanOption(nil), options...)
	return m.apply(s, s.Step, move(models.StepChooseOption, OptionsReply(options, maxEligible))), nil
}

// OptionsReply lists the menu the way the chat presents it.
func OptionsReply(options []models.LoanOption, maxEligible int) string {
	lines := make([]string, 0, len(options)+2)
	lines = append(lines, EligibilityMessage(maxEligible))
	for i, o := range options {
		lines = append(lines, fmt.Sprintf(msgOptionFmt,
			i+1,
			sanction.GroupDigits(o.Amount),
			o.Months,
			strconv.FormatFloat(o.Rate, 'f', -1, 64),
			sanction.GroupDigits(o.EMI),
		))
	}
	lines = append(lines, fmt.Sprintf(msgChooseFmt, choiceList(len(options))))
	return strings.Join(lines, "\n")
}

// SanctionReady checks that a sanction letter may be produced.
func (m *Machine) SanctionReady(s *models.Session) error {
	if s.Profile.SelectedLoan == nil {
		return commonerrors.NewNoLoanSelectedError()
	}
	if s.Step != models.StepSanction {
		return commonerrors.NewStepMismatchError("generate-sanction", string(s.Step))
	}
	return nil
}

// EligibilityMessage states the maximum loan for an income.
func EligibilityMessage(maxEligible int) string {
	return fmt.Sprintf(msgEligibleFmt, sanction.GroupDigits(maxEligible))
}
