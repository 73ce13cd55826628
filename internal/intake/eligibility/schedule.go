// internal/intake/eligibility/schedule.go
package eligibility

import (
	"github.com/shopspring/decimal"

	"loan-intake/internal/models"
)

// Installment is one period of an amortization schedule.
type Installment struct {
	Period    int             `json:"period"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Payment   decimal.Decimal `json:"payment"`
	Balance   decimal.Decimal `json:"balance"`
}

// Schedule splits every instalment of option into principal and interest.
// Amounts are rounded to paise; the last period absorbs the rounding so the
// balance ends at exactly zero.
func Schedule(option models.LoanOption) []Installment {
	if option.Months <= 0 || option.Amount <= 0 {
		return nil
	}

	remaining := decimal.NewFromInt(int64(option.Amount))
	payment := decimal.NewFromInt(int64(option.EMI))
	if option.EMI == 0 {
		payment = decimal.NewFromInt(int64(EMI(option.Amount, option.Rate, option.Months)))
	}
	monthlyRate := decimal.NewFromFloat(option.Rate).Div(decimal.NewFromInt(1200))

	schedule := make([]Installment, 0, option.Months)
	for period := 1; period <= option.Months; period++ {
		interest := remaining.Mul(monthlyRate).Round(2)
		principal := payment.Sub(interest)

		if period == option.Months || principal.GreaterThan(remaining) {
			principal = remaining
		}

		remaining = remaining.Sub(principal)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}

		schedule = append(schedule, Installment{
			Period:    period,
			Principal: principal,
			Interest:  interest,
			Payment:   principal.Add(interest),
			Balance:   remaining,
		})
	}
	return schedule
}

// TotalInterest sums the interest column of a schedule.
func TotalInterest(schedule []Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range schedule {
		total = total.Add(inst.Interest)
	}
	return total
}
