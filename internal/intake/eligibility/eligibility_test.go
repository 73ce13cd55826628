package eligibility

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-intake/internal/models"
)

// ==========================
// EMI
// ==========================

func TestEMI(t *testing.T) {
	tests := []struct {
		name      string
		principal int
		rate      float64
		months    int
		want      int
	}{
		{"tier one base rate", 200000, 11, 24, 9322},
		{"tier two base rate", 300000, 11, 36, 9822},
		{"tier two plus step", 300000, 12, 36, 9964},
		{"tier three", 500000, 13, 48, 13414},
		{"female tier three", 500000, 12.5, 48, 13290},
		{"zero rate splits evenly", 120000, 0, 12, 10000},
		{"zero rate rounds", 100000, 0, 12, 8333},
		{"zero principal", 0, 11, 24, 0},
		{"zero months", 200000, 11, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EMI(tt.principal, tt.rate, tt.months))
		})
	}
}

func TestEMI_MonotonicInPrincipalAndRate(t *testing.T) {
	prev := 0
	for p := 50000; p <= 1000000; p += 50000 {
		emi := EMI(p, 12, 36)
		assert.GreaterOrEqual(t, emi, prev, "principal %d", p)
		prev = emi
	}

	prev = 0
	for rate := 1.0; rate <= 30; rate += 0.5 {
		emi := EMI(300000, rate, 36)
		assert.GreaterOrEqual(t, emi, prev, "rate %.1f", rate)
		prev = emi
	}
}

// ==========================
// ComputeOptions
// ==========================

func TestComputeOptions_AllTiers(t *testing.T) {
	options := ComputeOptions(50000, "male")

	require.Len(t, options, 3)
	assert.Equal(t, models.LoanOption{Amount: 200000, Months: 24, Rate: 11, EMI: 9322}, options[0])
	assert.Equal(t, models.LoanOption{Amount: 300000, Months: 36, Rate: 12, EMI: 9964}, options[1])
	assert.Equal(t, models.LoanOption{Amount: 500000, Months: 48, Rate: 13, EMI: 13414}, options[2])
}

func TestComputeOptions_DTICeiling(t *testing.T) {
	options := ComputeOptions(20000, "male")
	require.Len(t, options, 2)
	assert.Equal(t, 200000, options[0].Amount)
	assert.Equal(t, 300000, options[1].Amount)

	assert.Empty(t, ComputeOptions(18000, "male"))
}

func TestComputeOptions_FemaleDiscount(t *testing.T) {
	options := ComputeOptions(50000, "female")
	require.Len(t, options, 3)
	assert.Equal(t, 10.5, options[0].Rate)
	assert.Equal(t, 11.5, options[1].Rate)
	assert.Equal(t, 12.5, options[2].Rate)
	assert.Equal(t, 9275, options[0].EMI)

	// The discount alone decides eligibility at this income.
	assert.Empty(t, ComputeOptions(18600, "male"))
	assert.Len(t, ComputeOptions(18600, "female"), 1)
}

func TestComputeOptions_Invariants(t *testing.T) {
	for income := 10000; income <= 200000; income += 1500 {
		for _, gender := range []string{"male", "female", "other"} {
			options := ComputeOptions(income, gender)
			for i, opt := range options {
				assert.LessOrEqual(t, float64(opt.EMI), MaxDTI*float64(income))
				if i > 0 {
					assert.Greater(t, opt.Amount, options[i-1].Amount)
				}
			}
		}
	}
}

func TestComputeOptions_MonotonicInIncome(t *testing.T) {
	const delta = 750
	for _, gender := range []string{"male", "female", "other"} {
		for income := 10000; income <= 60000; income += delta {
			smaller := ComputeOptions(income, gender)
			larger := ComputeOptions(income+delta, gender)

			require.GreaterOrEqual(t, len(larger), len(smaller), "%s at %d", gender, income)
			assert.Equal(t, smaller, larger[:len(smaller)], "%s at %d", gender, income)
		}
	}
}

func TestMaxEligibleAmount(t *testing.T) {
	tests := []struct {
		name   string
		income int
		want   int
	}{
		{"typical", 50000, 1000000},
		{"zero", 0, 0},
		{"negative", -5, 0},
		{"largest exact", math.MaxInt / EligibilityMultiplier, (math.MaxInt / EligibilityMultiplier) * EligibilityMultiplier},
		{"saturates", math.MaxInt/EligibilityMultiplier + 1, math.MaxInt},
		{"saturates at max int", math.MaxInt, math.MaxInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaxEligibleAmount(tt.income))
		})
	}
}

// ==========================
// Schedule
// ==========================

func TestSchedule(t *testing.T) {
	option := models.LoanOption{Amount: 300000, Months: 36, Rate: 12, EMI: 9964}
	schedule := Schedule(option)

	require.Len(t, schedule, 36)

	first := schedule[0]
	assert.Equal(t, 1, first.Period)
	assert.True(t, first.Interest.Equal(decimal.NewFromInt(3000)), "first interest %s", first.Interest)
	assert.True(t, first.Principal.Equal(decimal.NewFromInt(6964)), "first principal %s", first.Principal)

	last := schedule[len(schedule)-1]
	assert.True(t, last.Balance.IsZero(), "final balance %s", last.Balance)

	totalPrincipal := decimal.Zero
	for _, inst := range schedule {
		totalPrincipal = totalPrincipal.Add(inst.Principal)
	}
	assert.True(t, totalPrincipal.Equal(decimal.NewFromInt(300000)), "principal sum %s", totalPrincipal)

	assert.True(t, TotalInterest(schedule).IsPositive())
}

func TestSchedule_InvalidOption(t *testing.T) {
	assert.Nil(t, Schedule(models.LoanOption{}))
	assert.Nil(t, Schedule(models.LoanOption{Amount: 100000}))
}
