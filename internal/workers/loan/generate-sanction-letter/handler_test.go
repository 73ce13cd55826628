// internal/workers/loan/generate-sanction-letter/handler_test.go
package generatesanctionletter

import (
	"context"
	"strings"
	"testing"
	"time"

	"loan-intake/internal/common/errors"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/intake/sanction"
	"loan-intake/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var offer = models.LoanOption{Amount: 200000, Months: 24, Rate: 10.5, EMI: 9275}

func newTestHandler(t *testing.T, now time.Time) *Handler {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))
	h.now = func() time.Time { return now }
	return h
}

func TestParseInput(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		input, err := parseInput(`{
			"name": "Asha Rao",
			"purpose": "Home renovation",
			"reference": "SX/0123456789AB",
			"sanctionedAt": "2026-03-01T10:00:00Z",
			"offer": {"amount": 200000, "months": 24, "rate": 10.5, "emi": 9275}
		}`)
		require.NoError(t, err)
		assert.Equal(t, offer, input.Offer)
		assert.Equal(t, "SX/0123456789AB", input.Reference)
	})

	tests := []struct {
		name      string
		variables string
	}{
		{"missing offer", `{"name": "Asha"}`},
		{"offer without emi", `{"name": "Asha", "offer": {"amount": 1, "months": 1, "rate": 1}}`},
		{"zero amount", `{"name": "Asha", "offer": {"amount": 0, "months": 24, "rate": 11, "emi": 1}}`},
		{"bad reference", `{"name": "Asha", "reference": "REF-1", "offer": {"amount": 1, "months": 1, "rate": 1, "emi": 1}}`},
		{"bad date", `{"name": "Asha", "sanctionedAt": "yesterday", "offer": {"amount": 1, "months": 1, "rate": 1, "emi": 1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseInput(tt.variables)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidRequest, errors.AsStandardError(err).Code)
		})
	}
}

func TestExecute_UsesSuppliedReferenceAndDate(t *testing.T) {
	h := newTestHandler(t, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))

	out, err := h.execute(context.Background(), &Input{
		Name:         "Asha  Rao",
		Purpose:      "Education",
		Offer:        offer,
		Reference:    "SX/0123456789AB",
		SanctionedAt: "2026-03-01T10:00:00Z",
	})
	require.NoError(t, err)

	assert.Equal(t, "SX/0123456789AB", out.Reference)
	assert.Equal(t, "sanction_letter_Asha_Rao.txt", out.Filename)

	want, err := sanction.Render(sanction.Letter{
		Reference: "SX/0123456789AB",
		Date:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Name:      "Asha  Rao",
		Offer:     offer,
		Purpose:   "Education",
	})
	require.NoError(t, err)
	assert.Equal(t, want, out.Letter)
}

func TestExecute_AssignsReferenceAndToday(t *testing.T) {
	now := time.Date(2026, 5, 17, 9, 0, 0, 0, time.UTC)
	h := newTestHandler(t, now)

	out, err := h.execute(context.Background(), &Input{Name: "", Offer: offer})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.Reference, sanction.ReferencePrefix))
	assert.Len(t, out.Reference, len(sanction.ReferencePrefix)+12)
	assert.Contains(t, out.Letter, now.Format(sanction.DateLayout))
	assert.Equal(t, "sanction_letter_applicant.txt", out.Filename)
}
