// Package service composes the session store, the state machine and the
// verification collaborators into the operations exposed over HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	commonerrors "loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/metrics"
	"loan-intake/internal/intake/eligibility"
	"loan-intake/internal/intake/flow"
	"loan-intake/internal/intake/fraud"
	"loan-intake/internal/intake/sanction"
	"loan-intake/internal/intake/store"
	"loan-intake/internal/intake/verification"
	"loan-intake/internal/models"
)

const (
	msgPANVerified      = "PAN verified successfully."
	msgOTPSent          = "OTP has been sent to your Aadhaar-linked mobile number."
	msgKYCCompleted     = "Aadhaar eKYC completed successfully."
	msgSanctionReady    = "Sanction letter generated successfully."
	msgSessionReset     = "Session %s has been reset."
	msgAllSessionsReset = "All sessions have been reset."
)

// Dependencies are the collaborators of a Service. Nil fields get the demo
// implementations.
type Dependencies struct {
	Store     *store.Store
	PAN       verification.PANVerifier
	OTP       verification.OTPService
	Extractor verification.IncomeExtractor
	Fraud     *fraud.Evaluator
	// OTPHint is appended to wrong-OTP replies.
	OTPHint string
	// Sanctions, when set, is told about every accepted offer.
	Sanctions SanctionPublisher
}

// SanctionPublisher hands an accepted offer to the back-office process.
type SanctionPublisher interface {
	PublishSanction(ctx context.Context, event SanctionEvent) error
}

// SanctionEvent is published once per session on entering SANCTION. Field
// names are the process variables the sanction workers read.
type SanctionEvent struct {
	SessionID    string            `json:"sessionId"`
	Reference    string            `json:"reference"`
	Name         string            `json:"name"`
	Purpose      string            `json:"purpose,omitempty"`
	Offer        models.LoanOption `json:"offer"`
	SanctionedAt string            `json:"sanctionedAt"`
}

type Service struct {
	store     *store.Store
	machine   *flow.Machine
	extractor verification.IncomeExtractor
	fraud     *fraud.Evaluator
	sanctions SanctionPublisher
	log       logger.Logger
}

func New(deps Dependencies, log logger.Logger) (*Service, error) {
	if deps.Store == nil {
		deps.Store = store.New()
	}
	if deps.Extractor == nil {
		deps.Extractor = verification.DemoIncomeExtractor{}
	}
	if deps.Fraud == nil {
		evaluator, err := fraud.NewEvaluator()
		if err != nil {
			return nil, fmt.Errorf("failed to build fraud evaluator: %w", err)
		}
		deps.Fraud = evaluator
	}

	return &Service{
		store: deps.Store,
		machine: flow.NewMachine(flow.Config{
			PAN:     deps.PAN,
			OTP:     deps.OTP,
			OTPHint: deps.OTPHint,
		}),
		extractor: deps.Extractor,
		fraud:     deps.Fraud,
		sanctions: deps.Sanctions,
		log:       log,
	}, nil
}

// Sessions returns the number of sessions in the store.
func (s *Service) Sessions() int {
	return s.store.Len()
}

// acquire looks up or creates the session and locks it. The caller unlocks.
func (s *Service) acquire(sessionID string) (*models.Session, logger.Logger, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, nil, commonerrors.NewMissingSessionIDError()
	}

	sess, created := s.store.GetOrCreate(sessionID)
	log := logger.ForSession(s.log, sessionID)
	if created {
		log.Info("Session created", nil)
	}
	sess.Lock()
	return sess, log, nil
}

func (s *Service) record(log logger.Logger, op string, res flow.Result) {
	if !res.Transitioned() {
		return
	}
	metrics.IntakeTransitions.WithLabelValues(string(res.From), string(res.Step)).Inc()
	fields := map[string]interface{}{
		"operation": op,
		"from":      string(res.From),
		"to":        string(res.Step),
	}
	if res.RejectReason != "" {
		metrics.IntakeRejections.WithLabelValues(res.RejectReason).Inc()
		fields["reason"] = res.RejectReason
	}
	log.Info("Session transitioned", fields)
}

func (s *Service) collaboratorFailed(log logger.Logger, collaborator string, err error) {
	metrics.IntakeCollaboratorErrors.WithLabelValues(collaborator).Inc()
	log.Error("Collaborator call failed", map[string]interface{}{
		"collaborator": collaborator,
		"error":        err,
	})
}

// ==========================
// Conversation
// ==========================

// Chat feeds one message to the state machine.
func (s *Service) Chat(ctx context.Context, sessionID, message string) (*ChatResponse, error) {
	sess, log, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}

	metrics.IntakeMessages.WithLabelValues(string(sess.Step)).Inc()

	res, err := s.machine.Advance(ctx, sess, message)
	if err != nil {
		s.collaboratorFailed(log, collaboratorFor(sess.Step), err)
		sess.Unlock()
		return nil, err
	}
	s.record(log, "chat", res)

	var event *SanctionEvent
	if res.Transitioned() && res.Step == models.StepSanction {
		event = newSanctionEvent(sess)
	}
	sess.Unlock()

	if event != nil {
		s.publishSanction(ctx, log, *event)
	}
	return &ChatResponse{Reply: res.Reply, Step: res.Step}, nil
}

func newSanctionEvent(sess *models.Session) *SanctionEvent {
	event := &SanctionEvent{
		SessionID:    sess.ID,
		Reference:    sess.SanctionRef,
		Name:         sess.Profile.Name,
		Purpose:      sess.Profile.LoanType,
		SanctionedAt: sess.SanctionedAt.UTC().Format(time.RFC3339),
	}
	if sess.Profile.SelectedLoan != nil {
		event.Offer = *sess.Profile.SelectedLoan
	}
	return event
}

// publishSanction runs outside the session lock. A failure is logged and
// counted; the applicant's conversation is already complete.
func (s *Service) publishSanction(ctx context.Context, log logger.Logger, event SanctionEvent) {
	if s.sanctions == nil {
		return
	}
	if err := s.sanctions.PublishSanction(ctx, event); err != nil {
		s.collaboratorFailed(log, "workflow", err)
		return
	}
	log.Info("Sanction published", map[string]interface{}{"reference": event.Reference})
}

func collaboratorFor(step models.Step) string {
	switch step {
	case models.StepPAN:
		return "pan"
	case models.StepAadhaar, models.StepOTP:
		return "otp"
	default:
		return "flow"
	}
}

// ==========================
// Standalone verification
// ==========================

// VerifyPAN checks a PAN outside the chat. It records the outcome on the
// session but does not move the step.
func (s *Service) VerifyPAN(ctx context.Context, sessionID, pan string) (*PANResponse, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(pan) == "" {
		return nil, commonerrors.NewInvalidRequestError("Missing sessionId or PAN number", "")
	}
	sess, log, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	result, err := s.machine.VerifyPAN(ctx, sess, pan)
	if err != nil {
		s.collaboratorFailed(log, "pan", err)
		return nil, err
	}
	if !result.Valid {
		log.Info("PAN rejected", nil)
		return &PANResponse{Valid: false, Reason: result.Reason}, nil
	}

	log.Info("PAN verified", nil)
	return &PANResponse{Valid: true, PAN: result.PAN, Message: msgPANVerified}, nil
}

// VerifyAadhaar verifies otp when given, otherwise dispatches an OTP for
// aadhaar.
func (s *Service) VerifyAadhaar(ctx context.Context, sessionID, aadhaar, otp string) (*AadhaarResponse, error) {
	sess, log, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	switch {
	case otp != "":
		ok, err := s.machine.VerifyOTP(ctx, sess, otp)
		if err != nil {
			s.collaboratorFailed(log, "otp", err)
			return nil, err
		}
		if !ok {
			return &AadhaarResponse{Valid: false, Step: AadhaarOTPFailed, Reason: s.machine.InvalidOTPReply()}, nil
		}
		log.Info("Aadhaar eKYC completed", nil)
		return &AadhaarResponse{Valid: true, Step: AadhaarOTPVerified, Message: msgKYCCompleted}, nil

	case aadhaar != "":
		sent, reason, err := s.machine.SendOTP(ctx, sess, aadhaar)
		if err != nil {
			s.collaboratorFailed(log, "otp", err)
			return nil, err
		}
		if !sent {
			return &AadhaarResponse{Valid: false, Step: AadhaarInvalid, Reason: reason}, nil
		}
		log.Info("OTP dispatched", nil)
		return &AadhaarResponse{Valid: true, Step: AadhaarOTPSent, Message: msgOTPSent}, nil

	default:
		return nil, commonerrors.NewInvalidRequestError("Missing aadhaar or otp parameter", "")
	}
}

// ==========================
// Document and risk
// ==========================

// UploadDocument extracts the income from an uploaded proof and hands the
// outcome to the state machine.
func (s *Service) UploadDocument(ctx context.Context, sessionID string, doc verification.Document) (*UploadResponse, error) {
	if len(doc.Content) == 0 {
		return nil, commonerrors.NewDocumentMissingError()
	}
	sess, log, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	if sess.Profile.DeclaredIncome == nil {
		return nil, commonerrors.NewProfileIncompleteError("declaredIncome")
	}
	if sess.Step != models.StepDocument {
		return nil, commonerrors.NewStepMismatchError("upload-doc", string(sess.Step))
	}

	doc.SessionID = sess.ID
	doc.DeclaredIncome = sess.Profile.Income()

	start := time.Now()
	income, extractErr := s.extractor.ExtractIncome(ctx, doc)
	found := extractErr == nil
	if extractErr != nil && !errors.Is(extractErr, verification.ErrNoIncome) {
		s.collaboratorFailed(log, "ocr", extractErr)
		return nil, commonerrors.NewOCRFailedError(extractErr)
	}

	res, err := s.machine.SubmitDocument(sess, income, found)
	if err != nil {
		return nil, err
	}
	s.record(log, "upload-doc", res)
	log.Info("Document processed", map[string]interface{}{
		"filename":   doc.Filename,
		"bytes":      len(doc.Content),
		"found":      found,
		"durationMs": time.Since(start).Milliseconds(),
	})

	if !found {
		return &UploadResponse{Valid: false, Reason: res.Reply, Step: res.Step}, nil
	}
	return &UploadResponse{Valid: true, Income: income, Message: res.Reply, Step: res.Step}, nil
}

// RunFraud evaluates the risk rules and applies the outcome.
func (s *Service) RunFraud(ctx context.Context, sessionID string) (*FraudResponse, error) {
	sess, log, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	if sess.Step != models.StepFraudCheck {
		return nil, commonerrors.NewStepMismatchError("run-fraud", string(sess.Step))
	}

	result, err := s.fraud.Evaluate(sess.Profile, sess.Flags)
	if err != nil {
		log.Error("Fraud evaluation failed", map[string]interface{}{"error": err})
		return nil, commonerrors.NewRuleEvaluationFailedError(err)
	}
	metrics.IntakeFraudEvaluations.WithLabelValues(fraudOutcome(result)).Inc()

	res, err := s.machine.ApplyFraudResult(sess, result)
	if err != nil {
		return nil, err
	}
	s.record(log, "run-fraud", res)
	log.Info("Fraud evaluated", map[string]interface{}{
		"passed":    result.Passed,
		"riskScore": result.RiskScore,
		"reasons":   result.Reasons,
	})

	return &FraudResponse{
		Passed:    result.Passed,
		Reasons:   result.Reasons,
		RiskScore: result.RiskScore,
		Message:   res.Reply,
		Step:      res.Step,
	}, nil
}

func fraudOutcome(r models.FraudResult) string {
	if r.Passed {
		return "passed"
	}
	return "failed"
}

// ==========================
// Offer and sanction
// ==========================

// LoanOptions builds the menu once and moves the session to CHOOSE_OPTION.
// Later calls return the stored menu unchanged.
func (s *Service) LoanOptions(ctx context.Context, sessionID string, withSchedule bool) (*LoanOptionsResponse, error) {
	sess, log, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	income := sess.Profile.Income()
	if income == 0 {
		return nil, commonerrors.NewProfileIncompleteError("declaredIncome")
	}
	maxEligible := eligibility.MaxEligibleAmount(income)

	resp := &LoanOptionsResponse{
		MaxEligibleAmount: maxEligible,
		Message:           flow.EligibilityMessage(maxEligible),
	}

	if len(sess.LoanOptions) > 0 {
		resp.Options = append([]models.LoanOption(nil), sess.LoanOptions...)
		resp.Reply = flow.OptionsReply(resp.Options, maxEligible)
		resp.Step = sess.Step
	} else {
		options := eligibility.ComputeOptions(income, sess.Profile.Gender)
		res, err := s.machine.PresentOptions(sess, options, maxEligible)
		if err != nil {
			return nil, err
		}
		s.record(log, "loan-options", res)
		log.Info("Loan options generated", map[string]interface{}{"count": len(options)})

		resp.Options = options
		resp.Reply = res.Reply
		resp.Step = res.Step
	}

	if withSchedule {
		for i, o := range resp.Options {
			installments := eligibility.Schedule(o)
			resp.Schedules = append(resp.Schedules, OptionSchedule{
				Option:        i + 1,
				TotalInterest: eligibility.TotalInterest(installments),
				Installments:  installments,
			})
		}
	}
	return resp, nil
}

// GenerateSanction renders the sanction letter of an accepted offer.
func (s *Service) GenerateSanction(ctx context.Context, sessionID string) (*SanctionResponse, error) {
	sess, log, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	text, err := s.renderLetter(sess)
	if err != nil {
		return nil, err
	}
	log.Info("Sanction letter generated", map[string]interface{}{"reference": sess.SanctionRef})

	return &SanctionResponse{
		Success:        true,
		SanctionLetter: text,
		Reference:      sess.SanctionRef,
		Filename:       sanction.Filename(sess.Profile.Name),
		Message:        msgSanctionReady,
	}, nil
}

// Session returns a copy of an existing session's state. Unlike the other
// operations it never creates the session.
func (s *Service) Session(sessionID string) (models.SessionView, error) {
	if strings.TrimSpace(sessionID) == "" {
		return models.SessionView{}, commonerrors.NewMissingSessionIDError()
	}
	sess, ok := s.store.Get(sessionID)
	if !ok {
		return models.SessionView{}, commonerrors.NewSessionNotFoundError(sessionID)
	}
	sess.Lock()
	defer sess.Unlock()
	return sess.Snapshot(), nil
}

// SanctionDownload returns the letter with its download filename.
func (s *Service) SanctionDownload(ctx context.Context, sessionID string) (filename, text string, err error) {
	sess, _, err := s.acquire(sessionID)
	if err != nil {
		return "", "", err
	}
	defer sess.Unlock()

	text, err = s.renderLetter(sess)
	if err != nil {
		return "", "", err
	}
	return sanction.Filename(sess.Profile.Name), text, nil
}

func (s *Service) renderLetter(sess *models.Session) (string, error) {
	if err := s.machine.SanctionReady(sess); err != nil {
		return "", err
	}
	text, err := sanction.Render(sanction.Letter{
		Reference: sess.SanctionRef,
		Date:      sess.SanctionedAt,
		Name:      sess.Profile.Name,
		Offer:     *sess.Profile.SelectedLoan,
		Purpose:   sess.Profile.LoanType,
	})
	if err != nil {
		return "", commonerrors.NewInternalError(err)
	}
	return text, nil
}

// ==========================
// Reset
// ==========================

// Reset clears one session, or every session when sessionID is empty.
func (s *Service) Reset(sessionID string) *ResetResponse {
	if strings.TrimSpace(sessionID) == "" {
		n := s.store.ResetAll()
		s.log.Info("All sessions reset", map[string]interface{}{"count": n})
		return &ResetResponse{Status: "reset", Message: msgAllSessionsReset}
	}

	s.store.Reset(sessionID)
	logger.ForSession(s.log, sessionID).Info("Session reset", nil)
	return &ResetResponse{Status: "reset", Message: fmt.Sprintf(msgSessionReset, sessionID)}
}
