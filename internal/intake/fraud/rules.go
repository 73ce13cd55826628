// internal/intake/fraud/rules.go
package fraud

// Rule is one additive risk check. A rule with an empty Reason only adds
// points and never fails an application on its own.
type Rule struct {
	ID         string
	Expression string
	Reason     string
	Points     int
}

// DefaultRules is the production rule set, evaluated in order.
var DefaultRules = []Rule{
	{
		ID:         "income_mismatch_major",
		Expression: "mismatchRatio > 0.25",
		Reason:     "Income mismatch between declared income and document exceeds 25%.",
		Points:     40,
	},
	{
		ID:         "income_mismatch_minor",
		Expression: "mismatchRatio > 0.15 && mismatchRatio <= 0.25",
		Points:     15,
	},
	{
		ID:         "income_below_minimum",
		Expression: "declaredIncome < 10000",
		Reason:     "Monthly income below minimum threshold of Rs. 10,000.",
		Points:     30,
	},
	{
		ID:         "employment_income_mismatch",
		Expression: "!(employment in ['salaried', 'self-employed']) && declaredIncome > 0",
		Reason:     "Employment status does not match declared income.",
		Points:     35,
	},
	{
		ID:         "age_below_minimum",
		Expression: "age < 18",
		Reason:     "Applicant must be at least 18 years old.",
		Points:     50,
	},
	{
		ID:         "age_above_maximum",
		Expression: "age > 70",
		Reason:     "Applicant age exceeds maximum limit of 70 years.",
		Points:     30,
	},
	{
		ID:         "pan_unverified",
		Expression: "!panVerified",
		Reason:     "PAN verification failed or not completed.",
		Points:     25,
	},
	{
		ID:         "kyc_unverified",
		Expression: "!kycVerified",
		Reason:     "Aadhaar eKYC verification not completed.",
		Points:     25,
	},
	{
		ID:         "income_unusually_high",
		Expression: "declaredIncome > 1000000",
		Points:     10,
	},
}
