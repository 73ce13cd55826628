// internal/intake/verification/demo.go
package verification

import (
	"context"
	"crypto/subtle"
	"hash/fnv"
	"math"
	"math/rand"

	"loan-intake/internal/intake/validators"
)

// DefaultDemoOTP is the code the demo OTP service accepts.
const DefaultDemoOTP = "123456"

// DemoPANVerifier accepts every well-formed PAN.
type DemoPANVerifier struct{}

func (DemoPANVerifier) VerifyPAN(_ context.Context, pan string) (PANResult, error) {
	normalized, err := validators.PAN(pan)
	if err != nil {
		return PANResult{Valid: false, Reason: ReasonInvalidPAN}, nil
	}
	return PANResult{Valid: true, PAN: normalized}, nil
}

// DemoOTPService accepts one fixed code for every session and sends nothing.
type DemoOTPService struct {
	Code string
}

func NewDemoOTPService(code string) *DemoOTPService {
	if code == "" {
		code = DefaultDemoOTP
	}
	return &DemoOTPService{Code: code}
}

func (d *DemoOTPService) SendOTP(context.Context, string, string) error {
	return nil
}

func (d *DemoOTPService) VerifyOTP(_ context.Context, _ string, code string) (bool, error) {
	return subtle.ConstantTimeCompare([]byte(code), []byte(d.Code)) == 1, nil
}

// DemoIncomeExtractor stands in for OCR. It reports the declared income with
// up to 5% variance, or ErrNoIncome for a FailureRate share of documents. The
// outcome is derived from the session id and document bytes, so the same
// upload always gives the same answer.
type DemoIncomeExtractor struct {
	FailureRate float64
}

func (d DemoIncomeExtractor) ExtractIncome(_ context.Context, doc Document) (int, error) {
	if doc.DeclaredIncome <= 0 {
		return 0, ErrNoIncome
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(doc.SessionID))
	_, _ = h.Write(doc.Content)
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	if rng.Float64() < d.FailureRate {
		return 0, ErrNoIncome
	}

	variance := 0.95 + rng.Float64()*0.1
	return int(math.Round(float64(doc.DeclaredIncome) * variance)), nil
}
