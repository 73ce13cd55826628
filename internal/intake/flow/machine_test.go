package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "loan-intake/internal/common/errors"
	"loan-intake/internal/intake/verification"
	"loan-intake/internal/models"
)

// ==========================
// Mocks
// ==========================

type MockPANVerifier struct {
	VerifyPANFunc func(ctx context.Context, pan string) (verification.PANResult, error)
}

func (m *MockPANVerifier) VerifyPAN(ctx context.Context, pan string) (verification.PANResult, error) {
	return m.VerifyPANFunc(ctx, pan)
}

type MockOTPService struct {
	SendOTPFunc   func(ctx context.Context, sessionID, aadhaar string) error
	VerifyOTPFunc func(ctx context.Context, sessionID, code string) (bool, error)
}

func (m *MockOTPService) SendOTP(ctx context.Context, sessionID, aadhaar string) error {
	return m.SendOTPFunc(ctx, sessionID, aadhaar)
}

func (m *MockOTPService) VerifyOTP(ctx context.Context, sessionID, code string) (bool, error) {
	return m.VerifyOTPFunc(ctx, sessionID, code)
}

func newTestMachine() *Machine {
	return NewMachine(Config{
		OTPHint:      "(Hint: Use 123456 for demo)",
		NewReference: func() string { return "SX/0123456789AB" },
	})
}

func sessionAt(step models.Step) *models.Session {
	s := models.NewSession("s-1")
	s.Step = step
	return s
}

func drive(t *testing.T, m *Machine, s *models.Session, inputs ...string) Result {
	t.Helper()
	var res Result
	for _, in := range inputs {
		var err error
		res, err = m.Advance(context.Background(), s, in)
		require.NoError(t, err, "input %q", in)
	}
	return res
}

var happyPath = []string{
	"", "Asha Rao", "30", "male", "car loan", "salaried", "50000", "savings",
	"ABCDE1234F", "123456789012", "123456",
}

// ==========================
// Advance
// ==========================

func TestAdvance_HappyPathReachesDocument(t *testing.T) {
	m := newTestMachine()
	s := models.NewSession("s-1")

	res := drive(t, m, s, happyPath...)

	assert.Equal(t, models.StepDocument, s.Step)
	assert.Equal(t, msgKYCCompleted, res.Reply)
	assert.Equal(t, "Asha Rao", s.Profile.Name)
	require.NotNil(t, s.Profile.Age)
	assert.Equal(t, 30, *s.Profile.Age)
	assert.Equal(t, "male", s.Profile.Gender)
	assert.Equal(t, "car loan", s.Profile.LoanType)
	assert.Equal(t, "salaried", s.Profile.Employment)
	assert.Equal(t, 50000, s.Profile.Income())
	assert.Equal(t, "savings", s.Profile.AccountType)
	assert.Equal(t, "ABCDE1234F", s.Profile.PAN)
	assert.Equal(t, "123456789012", s.Profile.Aadhaar)
	assert.True(t, s.Flags.PANVerified)
	assert.True(t, s.Flags.KYCVerified)
	assert.False(t, s.Flags.FraudDetected)
}

func TestAdvance_StepReplies(t *testing.T) {
	m := newTestMachine()
	s := models.NewSession("s-1")

	steps := []struct {
		input string
		reply string
		step  models.Step
	}{
		{"hi", msgWelcome, models.StepName},
		{"  Asha   Rao ", msgAskAge, models.StepAge},
		{"30", msgAskGender, models.StepGender},
		{"FEMALE", msgAskLoan, models.StepLoan},
		{"home loan", msgAskEmployment, models.StepEmployment},
		{"Self-Employed", msgAskIncome, models.StepIncome},
		{"1,00,000", msgAskAccountType, models.StepAccountType},
		{"Current", msgAskPAN, models.StepPAN},
		{"abcde1234f", msgPANVerified, models.StepAadhaar},
		{"123456789012", msgOTPSent, models.StepOTP},
	}
	for _, st := range steps {
		res, err := m.Advance(context.Background(), s, st.input)
		require.NoError(t, err)
		assert.Equal(t, st.reply, res.Reply, "input %q", st.input)
		assert.Equal(t, st.step, res.Step, "input %q", st.input)
		assert.True(t, res.Transitioned())
	}

	assert.Equal(t, "Asha Rao", s.Profile.Name)
	assert.Equal(t, "female", s.Profile.Gender)
	assert.Equal(t, "self-employed", s.Profile.Employment)
	assert.Equal(t, 100000, s.Profile.Income())
	assert.Equal(t, "current", s.Profile.AccountType)
	assert.Equal(t, "ABCDE1234F", s.Profile.PAN)
}

func TestAdvance_RepromptsLeaveSessionUnchanged(t *testing.T) {
	tests := []struct {
		name  string
		step  models.Step
		input string
		reply string
	}{
		{"blank name", models.StepName, "   ", msgAskName},
		{"non-numeric age", models.StepAge, "thirty", msgBadAge},
		{"unknown gender", models.StepGender, "robot", msgBadGender},
		{"blank loan", models.StepLoan, "", msgBadLoan},
		{"unknown employment", models.StepEmployment, "student", msgBadEmployment},
		{"non-numeric income", models.StepIncome, "lots", msgBadIncome},
		{"unknown account", models.StepAccountType, "crypto", msgBadAccountType},
		{"malformed pan", models.StepPAN, "ABCD1234F", verification.ReasonInvalidPAN},
		{"short aadhaar", models.StepAadhaar, "12345", verification.ReasonInvalidAadhaar},
		{"wrong otp", models.StepOTP, "000000", "Invalid OTP. Please try again. (Hint: Use 123456 for demo)"},
		{"malformed otp", models.StepOTP, "abc", "Invalid OTP. Please try again. (Hint: Use 123456 for demo)"},
		{"yes or no", models.StepConfirmEMI, "maybe", msgBadConfirm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine()
			s := sessionAt(tt.step)
			before := s.Snapshot()

			res, err := m.Advance(context.Background(), s, tt.input)

			require.NoError(t, err)
			assert.Equal(t, tt.reply, res.Reply)
			assert.Equal(t, tt.step, res.Step)
			assert.False(t, res.Transitioned())
			assert.Equal(t, before, s.Snapshot())
		})
	}
}

func TestAdvance_OTPHintIsOptional(t *testing.T) {
	m := NewMachine(Config{})
	s := sessionAt(models.StepOTP)

	res := drive(t, m, s, "999999")

	assert.Equal(t, verification.ReasonInvalidOTP, res.Reply)
}

func TestAdvance_AgeBounds(t *testing.T) {
	tests := []struct {
		age    string
		step   models.Step
		reason string
		reply  string
	}{
		{"17", models.StepRejected, RejectUnderage, msgUnderage},
		{"0", models.StepRejected, RejectUnderage, msgUnderage},
		{"18", models.StepGender, "", msgAskGender},
		{"70", models.StepGender, "", msgAskGender},
		{"71", models.StepRejected, RejectOverage, msgOverage},
	}

	for _, tt := range tests {
		t.Run(tt.age, func(t *testing.T) {
			s := sessionAt(models.StepAge)
			res := drive(t, newTestMachine(), s, tt.age)

			assert.Equal(t, tt.step, s.Step)
			assert.Equal(t, tt.reason, res.RejectReason)
			assert.Equal(t, tt.reply, res.Reply)
			if tt.step == models.StepRejected {
				assert.Nil(t, s.Profile.Age)
			} else {
				require.NotNil(t, s.Profile.Age)
			}
		})
	}
}

func TestAdvance_IncomeThreshold(t *testing.T) {
	tests := []struct {
		income string
		step   models.Step
	}{
		{"9999", models.StepRejected},
		{"10000", models.StepAccountType},
		{"10,000", models.StepAccountType},
		{"40,000", models.StepAccountType},
	}

	for _, tt := range tests {
		t.Run(tt.income, func(t *testing.T) {
			s := sessionAt(models.StepIncome)
			res := drive(t, newTestMachine(), s, tt.income)

			assert.Equal(t, tt.step, s.Step)
			if tt.step == models.StepRejected {
				assert.Equal(t, RejectLowIncome, res.RejectReason)
				assert.Equal(t, msgIncomeTooLow, res.Reply)
				assert.Nil(t, s.Profile.DeclaredIncome)
			}
		})
	}
}

func TestAdvance_UnemployedIsRejected(t *testing.T) {
	s := sessionAt(models.StepEmployment)
	res := drive(t, newTestMachine(), s, "Unemployed")

	assert.Equal(t, models.StepRejected, s.Step)
	assert.Equal(t, RejectUnemployed, res.RejectReason)
	assert.Empty(t, s.Profile.Employment)
}

func TestAdvance_TerminalStepsIgnoreInput(t *testing.T) {
	for _, step := range []models.Step{models.StepRejected, models.StepEnd, models.StepSanction} {
		t.Run(string(step), func(t *testing.T) {
			s := sessionAt(step)
			before := s.Snapshot()

			res := drive(t, newTestMachine(), s, "hello", "yes", "1")

			assert.Equal(t, msgFinished, res.Reply)
			assert.Equal(t, before, s.Snapshot())
		})
	}
}

func TestAdvance_DocumentAndFraudStepsInstruct(t *testing.T) {
	s := sessionAt(models.StepDocument)
	res := drive(t, newTestMachine(), s, "here is my salary")
	assert.Equal(t, msgAwaitDocument, res.Reply)
	assert.Equal(t, models.StepDocument, s.Step)

	s = sessionAt(models.StepFraudCheck)
	res = drive(t, newTestMachine(), s, "any update?")
	assert.Equal(t, msgAwaitFraudCheck, res.Reply)
	assert.Equal(t, models.StepFraudCheck, s.Step)
}

func TestAdvance_UnknownStep(t *testing.T) {
	s := sessionAt(models.Step("BOGUS"))

	_, err := newTestMachine().Advance(context.Background(), s, "x")

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInternal, commonerrors.AsStandardError(err).Code)
}

// ==========================
// Collaborator failures
// ==========================

func TestAdvance_PANProviderFailure(t *testing.T) {
	m := NewMachine(Config{PAN: &MockPANVerifier{
		VerifyPANFunc: func(context.Context, string) (verification.PANResult, error) {
			return verification.PANResult{}, errors.New("registry timeout")
		},
	}})
	s := sessionAt(models.StepPAN)

	res, err := m.Advance(context.Background(), s, "ABCDE1234F")

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeVerificationUnavailable, commonerrors.AsStandardError(err).Code)
	assert.Equal(t, models.StepPAN, res.Step)
	assert.False(t, s.Flags.PANVerified)
	assert.Empty(t, s.Profile.PAN)
}

func TestAdvance_PANRegistryRejection(t *testing.T) {
	m := NewMachine(Config{PAN: &MockPANVerifier{
		VerifyPANFunc: func(context.Context, string) (verification.PANResult, error) {
			return verification.PANResult{Valid: false, Reason: verification.ReasonPANNotFound}, nil
		},
	}})
	s := sessionAt(models.StepPAN)

	res := drive(t, m, s, "ABCDE1234F")

	assert.Equal(t, verification.ReasonPANNotFound, res.Reply)
	assert.Equal(t, models.StepPAN, s.Step)
	assert.False(t, s.Flags.PANVerified)
}

func TestAdvance_OTPDispatchFailure(t *testing.T) {
	m := NewMachine(Config{OTP: &MockOTPService{
		SendOTPFunc: func(context.Context, string, string) error { return errors.New("sns down") },
	}})
	s := sessionAt(models.StepAadhaar)

	_, err := m.Advance(context.Background(), s, "123456789012")

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeOTPDispatchFailed, commonerrors.AsStandardError(err).Code)
	assert.Equal(t, models.StepAadhaar, s.Step)
	assert.Empty(t, s.Profile.Aadhaar)
}

func TestAdvance_OTPVerifyFailure(t *testing.T) {
	m := NewMachine(Config{OTP: &MockOTPService{
		VerifyOTPFunc: func(context.Context, string, string) (bool, error) { return false, errors.New("redis down") },
	}})
	s := sessionAt(models.StepOTP)

	_, err := m.Advance(context.Background(), s, "123456")

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeVerificationUnavailable, commonerrors.AsStandardError(err).Code)
	assert.False(t, s.Flags.KYCVerified)
}

func TestAdvance_OTPUsesSessionID(t *testing.T) {
	var sentFor, verifiedFor string
	m := NewMachine(Config{OTP: &MockOTPService{
		SendOTPFunc: func(_ context.Context, id, _ string) error { sentFor = id; return nil },
		VerifyOTPFunc: func(_ context.Context, id, code string) (bool, error) {
			verifiedFor = id
			return code == "4321", nil
		},
	}})
	s := sessionAt(models.StepAadhaar)

	drive(t, m, s, "123456789012", "4321")

	assert.Equal(t, "s-1", sentFor)
	assert.Equal(t, "s-1", verifiedFor)
	assert.Equal(t, models.StepDocument, s.Step)
}

// ==========================
// Standalone verification
// ==========================

func TestVerifyPAN_DoesNotMoveStep(t *testing.T) {
	m := newTestMachine()
	s := sessionAt(models.StepName)

	result, err := m.VerifyPAN(context.Background(), s, "abcde1234f")

	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "ABCDE1234F", result.PAN)
	assert.True(t, s.Flags.PANVerified)
	assert.Equal(t, models.StepName, s.Step)
}

func TestSendAndVerifyOTP_Standalone(t *testing.T) {
	m := newTestMachine()
	s := sessionAt(models.StepStart)

	sent, reason, err := m.SendOTP(context.Background(), s, "12345")
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Equal(t, verification.ReasonInvalidAadhaar, reason)

	sent, _, err = m.SendOTP(context.Background(), s, "123456789012")
	require.NoError(t, err)
	assert.True(t, sent)

	ok, err := m.VerifyOTP(context.Background(), s, "123456")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, s.Flags.KYCVerified)
	assert.Equal(t, models.StepStart, s.Step)
}

// ==========================
// Document, fraud, options, confirmation
// ==========================

func documentSession() *models.Session {
	s := sessionAt(models.StepDocument)
	s.Profile.DeclaredIncome = models.IntPtr(50000)
	s.Flags = models.Flags{PANVerified: true, KYCVerified: true}
	return s
}

func TestSubmitDocument(t *testing.T) {
	m := newTestMachine()

	t.Run("income found", func(t *testing.T) {
		s := documentSession()
		res, err := m.SubmitDocument(s, 49000, true)

		require.NoError(t, err)
		assert.Equal(t, models.StepFraudCheck, res.Step)
		assert.Equal(t, msgDocumentOK, res.Reply)
		require.NotNil(t, s.Profile.DocIncome)
		assert.Equal(t, 49000, *s.Profile.DocIncome)
	})

	t.Run("no income stays", func(t *testing.T) {
		s := documentSession()
		res, err := m.SubmitDocument(s, 0, false)

		require.NoError(t, err)
		assert.Equal(t, models.StepDocument, res.Step)
		assert.Equal(t, verification.ReasonNoIncome, res.Reply)
		assert.Nil(t, s.Profile.DocIncome)
	})

	t.Run("wrong step", func(t *testing.T) {
		_, err := m.SubmitDocument(sessionAt(models.StepPAN), 1, true)
		assert.Equal(t, commonerrors.ErrCodeStepMismatch, commonerrors.AsStandardError(err).Code)
	})

	t.Run("income not declared", func(t *testing.T) {
		_, err := m.SubmitDocument(sessionAt(models.StepDocument), 1, true)
		stdErr := commonerrors.AsStandardError(err)
		assert.Equal(t, commonerrors.ErrCodeProfileIncomplete, stdErr.Code)
		assert.Equal(t, "Income not declared", stdErr.Message)
	})
}

func TestApplyFraudResult(t *testing.T) {
	m := newTestMachine()

	t.Run("passed", func(t *testing.T) {
		s := sessionAt(models.StepFraudCheck)
		res, err := m.ApplyFraudResult(s, models.FraudResult{Passed: true, Reasons: []string{}})

		require.NoError(t, err)
		assert.Equal(t, models.StepFraudCheck, res.Step)
		assert.Equal(t, msgFraudPassed, res.Reply)
		require.NotNil(t, s.Fraud)
		assert.True(t, s.Fraud.Passed)
		assert.False(t, s.Flags.FraudDetected)
	})

	t.Run("failed rejects", func(t *testing.T) {
		s := sessionAt(models.StepFraudCheck)
		res, err := m.ApplyFraudResult(s, models.FraudResult{Reasons: []string{"x"}, RiskScore: 40})

		require.NoError(t, err)
		assert.Equal(t, models.StepRejected, res.Step)
		assert.Equal(t, RejectFraud, res.RejectReason)
		assert.Equal(t, msgFraudFailed, res.Reply)
		assert.True(t, s.Flags.FraudDetected)
	})

	t.Run("wrong step", func(t *testing.T) {
		_, err := m.ApplyFraudResult(sessionAt(models.StepDocument), models.FraudResult{Passed: true})
		assert.Equal(t, commonerrors.ErrCodeStepMismatch, commonerrors.AsStandardError(err).Code)
	})
}

var menu = []models.LoanOption{
	{Amount: 200000, Months: 24, Rate: 11, EMI: 9322},
	{Amount: 300000, Months: 36, Rate: 12, EMI: 9964},
	{Amount: 500000, Months: 48, Rate: 13, EMI: 13414},
}

func passedSession() *models.Session {
	s := sessionAt(models.StepFraudCheck)
	s.Fraud = &models.FraudResult{Passed: true, Reasons: []string{}}
	return s
}

func TestPresentOptions(t *testing.T) {
	m := newTestMachine()

	t.Run("menu", func(t *testing.T) {
		s := passedSession()
		res, err := m.PresentOptions(s, menu, 1000000)

		require.NoError(t, err)
		assert.Equal(t, models.StepChooseOption, res.Step)
		assert.Equal(t, menu, s.LoanOptions)
		assert.Equal(t, "You are eligible for a loan up to Rs. 10,00,000.\n"+
			"1. Rs. 2,00,000 for 24 months at 11% p.a. (EMI Rs. 9,322)\n"+
			"2. Rs. 3,00,000 for 36 months at 12% p.a. (EMI Rs. 9,964)\n"+
			"3. Rs. 5,00,000 for 48 months at 13% p.a. (EMI Rs. 13,414)\n"+
			"Please select an option (1, 2, or 3).", res.Reply)
	})

	t.Run("empty menu rejects", func(t *testing.T) {
		s := passedSession()
		res, err := m.PresentOptions(s, []models.LoanOption{}, 300000)

		require.NoError(t, err)
		assert.Equal(t, models.StepRejected, res.Step)
		assert.Equal(t, RejectNoAffordable, res.RejectReason)
		assert.Empty(t, s.LoanOptions)
	})

	t.Run("fraud not run", func(t *testing.T) {
		_, err := m.PresentOptions(sessionAt(models.StepFraudCheck), menu, 1)
		assert.Equal(t, commonerrors.ErrCodeStepMismatch, commonerrors.AsStandardError(err).Code)
	})
}

func TestChooseAndConfirm(t *testing.T) {
	m := newTestMachine()
	s := passedSession()
	_, err := m.PresentOptions(s, menu, 1000000)
	require.NoError(t, err)

	res := drive(t, m, s, "7")
	assert.Equal(t, "Please select a valid option (1, 2, or 3).", res.Reply)
	assert.Nil(t, s.Profile.SelectedLoan)

	res = drive(t, m, s, "Option 2")
	assert.Equal(t, models.StepConfirmEMI, s.Step)
	assert.Equal(t, "Your EMI will be Rs. 9,964 per month for 36 months. Do you accept this offer? (Yes / No)", res.Reply)
	require.NotNil(t, s.Profile.SelectedLoan)
	assert.Equal(t, menu[1], *s.Profile.SelectedLoan)

	require.Error(t, m.SanctionReady(s))

	res = drive(t, m, s, "YES")
	assert.Equal(t, models.StepSanction, s.Step)
	assert.Equal(t, msgSanctioned, res.Reply)
	assert.Equal(t, "SX/0123456789AB", s.SanctionRef)
	assert.NoError(t, m.SanctionReady(s))
}

func TestConfirmNoEnds(t *testing.T) {
	s := sessionAt(models.StepConfirmEMI)
	s.LoanOptions = menu
	s.Profile.SelectedLoan = &menu[0]

	res := drive(t, newTestMachine(), s, "no")

	assert.Equal(t, models.StepEnd, s.Step)
	assert.Equal(t, msgDeclined, res.Reply)
	assert.Empty(t, s.SanctionRef)
}

func TestSanctionReady_NoSelection(t *testing.T) {
	err := newTestMachine().SanctionReady(sessionAt(models.StepSanction))
	assert.Equal(t, commonerrors.ErrCodeNoLoanSelected, commonerrors.AsStandardError(err).Code)
}

func TestChoiceList(t *testing.T) {
	assert.Equal(t, "(1)", choiceList(1))
	assert.Equal(t, "(1 or 2)", choiceList(2))
	assert.Equal(t, "(1, 2, or 3)", choiceList(3))
}
