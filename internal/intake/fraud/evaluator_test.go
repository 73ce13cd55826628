package fraud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-intake/internal/models"
)

func cleanProfile() models.Profile {
	return models.Profile{
		Name:           "Asha Rao",
		Age:            models.IntPtr(30),
		Gender:         "female",
		Employment:     "salaried",
		DeclaredIncome: models.IntPtr(50000),
		DocIncome:      models.IntPtr(50000),
	}
}

func verified() models.Flags {
	return models.Flags{PANVerified: true, KYCVerified: true}
}

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator()
	require.NoError(t, err)
	return e
}

func TestEvaluate_CleanProfilePasses(t *testing.T) {
	result, err := newEvaluator(t).Evaluate(cleanProfile(), verified())

	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Empty(t, result.Reasons)
	assert.NotNil(t, result.Reasons)
	assert.Equal(t, 0, result.RiskScore)
}

func TestEvaluate_Rules(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(p *models.Profile, f *models.Flags)
		wantPassed bool
		wantScore  int
		wantReason string
	}{
		{
			name:       "major income mismatch",
			mutate:     func(p *models.Profile, f *models.Flags) { p.DocIncome = models.IntPtr(30000) },
			wantScore:  40,
			wantReason: "Income mismatch between declared income and document exceeds 25%.",
		},
		{
			name:       "minor income mismatch adds points only",
			mutate:     func(p *models.Profile, f *models.Flags) { p.DocIncome = models.IntPtr(40000) },
			wantPassed: true,
			wantScore:  15,
		},
		{
			name:       "exactly 25 percent is minor",
			mutate:     func(p *models.Profile, f *models.Flags) { p.DocIncome = models.IntPtr(62500) },
			wantPassed: true,
			wantScore:  15,
		},
		{
			name:       "exactly 15 percent is clean",
			mutate:     func(p *models.Profile, f *models.Flags) { p.DocIncome = models.IntPtr(57500) },
			wantPassed: true,
			wantScore:  0,
		},
		{
			name:       "missing document income skips mismatch",
			mutate:     func(p *models.Profile, f *models.Flags) { p.DocIncome = nil },
			wantPassed: true,
			wantScore:  0,
		},
		{
			name: "income below minimum",
			mutate: func(p *models.Profile, f *models.Flags) {
				p.DeclaredIncome = models.IntPtr(8000)
				p.DocIncome = models.IntPtr(8000)
			},
			wantScore:  30,
			wantReason: "Monthly income below minimum threshold of Rs. 10,000.",
		},
		{
			name:       "unemployed with income",
			mutate:     func(p *models.Profile, f *models.Flags) { p.Employment = "unemployed" },
			wantScore:  35,
			wantReason: "Employment status does not match declared income.",
		},
		{
			name:       "underage",
			mutate:     func(p *models.Profile, f *models.Flags) { p.Age = models.IntPtr(17) },
			wantScore:  50,
			wantReason: "Applicant must be at least 18 years old.",
		},
		{
			name:       "missing age counts as zero",
			mutate:     func(p *models.Profile, f *models.Flags) { p.Age = nil },
			wantScore:  50,
			wantReason: "Applicant must be at least 18 years old.",
		},
		{
			name:       "overage",
			mutate:     func(p *models.Profile, f *models.Flags) { p.Age = models.IntPtr(71) },
			wantScore:  30,
			wantReason: "Applicant age exceeds maximum limit of 70 years.",
		},
		{
			name:       "pan unverified",
			mutate:     func(p *models.Profile, f *models.Flags) { f.PANVerified = false },
			wantScore:  25,
			wantReason: "PAN verification failed or not completed.",
		},
		{
			name:       "kyc unverified",
			mutate:     func(p *models.Profile, f *models.Flags) { f.KYCVerified = false },
			wantScore:  25,
			wantReason: "Aadhaar eKYC verification not completed.",
		},
		{
			name: "very high income adds points only",
			mutate: func(p *models.Profile, f *models.Flags) {
				p.DeclaredIncome = models.IntPtr(2000000)
				p.DocIncome = models.IntPtr(2000000)
			},
			wantPassed: true,
			wantScore:  10,
		},
	}

	e := newEvaluator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, flags := cleanProfile(), verified()
			tt.mutate(&profile, &flags)

			result, err := e.Evaluate(profile, flags)
			require.NoError(t, err)

			assert.Equal(t, tt.wantPassed, result.Passed)
			assert.Equal(t, tt.wantScore, result.RiskScore)
			if tt.wantReason != "" {
				assert.Equal(t, []string{tt.wantReason}, result.Reasons)
			} else {
				assert.Empty(t, result.Reasons)
			}
		})
	}
}

func TestEvaluate_UnverifiedIdentityNeverPasses(t *testing.T) {
	e := newEvaluator(t)
	for _, flags := range []models.Flags{{}, {PANVerified: true}, {KYCVerified: true}} {
		result, err := e.Evaluate(cleanProfile(), flags)
		require.NoError(t, err)
		assert.False(t, result.Passed, "flags %+v", flags)
	}
}

func TestEvaluate_ScoreCapped(t *testing.T) {
	profile := models.Profile{
		Age:            models.IntPtr(15),
		Employment:     "unemployed",
		DeclaredIncome: models.IntPtr(5000),
		DocIncome:      models.IntPtr(50000),
	}

	result, err := newEvaluator(t).Evaluate(profile, models.Flags{})
	require.NoError(t, err)

	assert.False(t, result.Passed)
	assert.Equal(t, MaxScore, result.RiskScore)
	assert.Len(t, result.Reasons, 6)
}

func TestNewEvaluatorWithRules_RejectsBadExpressions(t *testing.T) {
	_, err := NewEvaluatorWithRules([]Rule{{ID: "syntax", Expression: "age >"}})
	assert.Error(t, err)

	_, err = NewEvaluatorWithRules([]Rule{{ID: "not_bool", Expression: "age + 1"}})
	assert.Error(t, err)

	_, err = NewEvaluatorWithRules([]Rule{{ID: "unknown_var", Expression: "salary > 10"}})
	assert.Error(t, err)
}

func TestMismatchRatio(t *testing.T) {
	assert.InDelta(t, 0.2, MismatchRatio(50000, 40000), 1e-9)
	assert.InDelta(t, 0.2, MismatchRatio(50000, 60000), 1e-9)
	assert.Equal(t, 0.0, MismatchRatio(0, 40000))
	assert.Equal(t, 0.0, MismatchRatio(50000, 0))
}
