// internal/intake/eligibility/eligibility.go
package eligibility

import (
	"math"

	"github.com/shopspring/decimal"

	"loan-intake/internal/intake/validators"
	"loan-intake/internal/models"
)

const (
	// BaseRate is the annual rate of the first tier, in percent.
	BaseRate = 11.0
	// TierStep is added to the rate for every tier above the first.
	TierStep = 1.0
	// FemaleDiscount is subtracted from every tier's rate for female applicants.
	FemaleDiscount = 0.5
	// MaxDTI is the share of monthly income an EMI may take.
	MaxDTI = 0.5
	// EligibilityMultiplier gives the headline maximum loan from monthly income.
	EligibilityMultiplier = 20
)

// Tier is one fixed amount and tenure of the menu.
type Tier struct {
	Amount int
	Months int
}

// Tiers in ascending order.
var Tiers = []Tier{
	{Amount: 200000, Months: 24},
	{Amount: 300000, Months: 36},
	{Amount: 500000, Months: 48},
}

// EMI returns the equated monthly instalment for principal at an annual rate
// in percent over months, rounded half away from zero to a whole rupee.
func EMI(principal int, rate float64, months int) int {
	if principal <= 0 || months <= 0 {
		return 0
	}

	p := decimal.NewFromInt(int64(principal))
	monthlyRate := rate / 1200.0
	if monthlyRate == 0 {
		return int(p.Div(decimal.NewFromInt(int64(months))).Round(0).IntPart())
	}

	factor := math.Pow(1+monthlyRate, float64(months))
	payment := p.InexactFloat64() * monthlyRate * factor / (factor - 1)
	return int(decimal.NewFromFloat(payment).Round(0).IntPart())
}

// RateFor returns the annual rate of the tier at index for the given gender.
func RateFor(index int, gender string) float64 {
	rate := BaseRate + float64(index)*TierStep
	if gender == validators.GenderFemale {
		rate -= FemaleDiscount
	}
	return rate
}

// ComputeOptions builds the menu for a monthly income, dropping every tier
// whose EMI exceeds MaxDTI of income. The result keeps ascending amount order
// and may be empty.
func ComputeOptions(income int, gender string) []models.LoanOption {
	ceiling := decimal.NewFromInt(int64(income)).Mul(decimal.NewFromFloat(MaxDTI))

	options := make([]models.LoanOption, 0, len(Tiers))
	for i, tier := range Tiers {
		rate := RateFor(i, gender)
		emi := EMI(tier.Amount, rate, tier.Months)
		if decimal.NewFromInt(int64(emi)).GreaterThan(ceiling) {
			continue
		}
		options = append(options, models.LoanOption{
			Amount: tier.Amount,
			Months: tier.Months,
			Rate:   rate,
			EMI:    emi,
		})
	}
	return options
}

// MaxEligibleAmount is the headline figure shown next to the menu. It
// saturates at math.MaxInt for incomes whose multiple does not fit an int.
func MaxEligibleAmount(income int) int {
	if income <= 0 {
		return 0
	}
	amount := decimal.NewFromInt(int64(income)).Mul(decimal.NewFromInt(EligibilityMultiplier))
	if amount.GreaterThan(decimal.NewFromInt(int64(math.MaxInt))) {
		return math.MaxInt
	}
	return int(amount.IntPart())
}
