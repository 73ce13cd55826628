// internal/models/application.go
package models

// Profile accumulates applicant answers. Pointer fields stay nil until the
// step that collects them has accepted input.
type Profile struct {
	Name           string      `json:"name,omitempty"`
	Age            *int        `json:"age,omitempty"`
	Gender         string      `json:"gender,omitempty"`
	LoanType       string      `json:"loanType,omitempty"`
	Employment     string      `json:"employment,omitempty"`
	DeclaredIncome *int        `json:"declaredIncome,omitempty"`
	AccountType    string      `json:"accountType,omitempty"`
	PAN            string      `json:"pan,omitempty"`
	Aadhaar        string      `json:"aadhaar,omitempty"`
	DocIncome      *int        `json:"docIncome,omitempty"`
	SelectedLoan   *LoanOption `json:"selectedLoan,omitempty"`
}

// Income returns the declared income or 0.
func (p Profile) Income() int {
	if p.DeclaredIncome == nil {
		return 0
	}
	return *p.DeclaredIncome
}

// LoanOption is one offer of the eligibility menu.
type LoanOption struct {
	Amount int     `json:"amount"`
	Months int     `json:"months"`
	Rate   float64 `json:"rate"`
	EMI    int     `json:"emi"`
}

// FraudResult is the outcome of a risk evaluation.
type FraudResult struct {
	Passed    bool     `json:"passed"`
	Reasons   []string `json:"reasons"`
	RiskScore int      `json:"riskScore"`
}

// IntPtr is a small helper for optional profile fields.
func IntPtr(v int) *int {
	return &v
}
