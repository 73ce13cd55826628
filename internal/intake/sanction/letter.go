// internal/intake/sanction/letter.go
package sanction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"

	"loan-intake/internal/models"
)

const (
	DefaultName     = "Applicant"
	DefaultPurpose  = "Personal Loan"
	DateLayout      = "02 January 2006"
	ReferencePrefix = "SX/"
)

// Letter carries everything the rendered text depends on. Reference and Date
// are supplied by the caller so rendering is reproducible.
type Letter struct {
	Reference string
	Date      time.Time
	Name      string
	Offer     models.LoanOption
	Purpose   string
}

var whitespace = regexp.MustCompile(`\s+`)

var letterTemplate = template.Must(template.New("sanction").Funcs(template.FuncMap{
	"inr":  FormatINR,
	"date": func(t time.Time) string { return t.Format(DateLayout) },
	"rate": func(r float64) string { return strconv.FormatFloat(r, 'f', -1, 64) },
}).Parse(letterText))

// Render produces the plain-text sanction letter.
func Render(l Letter) (string, error) {
	if l.Name = strings.TrimSpace(l.Name); l.Name == "" {
		l.Name = DefaultName
	}
	if l.Purpose = strings.TrimSpace(l.Purpose); l.Purpose == "" {
		l.Purpose = DefaultPurpose
	}

	var b strings.Builder
	if err := letterTemplate.Execute(&b, l); err != nil {
		return "", fmt.Errorf("failed to render sanction letter: %w", err)
	}
	return strings.TrimSpace(b.String()), nil
}

// Filename is the download name for an applicant's letter.
func Filename(name string) string {
	slug := whitespace.ReplaceAllString(strings.TrimSpace(name), "_")
	if slug == "" {
		slug = strings.ToLower(DefaultName)
	}
	return "sanction_letter_" + slug + ".txt"
}

// NewReference returns a fresh reference number of the form SX/<12 hex>.
func NewReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return ReferencePrefix + strings.ToUpper(id[:12])
}

// FormatINR formats whole rupees with Indian digit grouping, e.g. ₹12,34,567.
func FormatINR(amount int) string {
	if amount < 0 {
		return "-₹" + GroupDigits(-amount)
	}
	return "₹" + GroupDigits(amount)
}

// GroupDigits writes a non-negative amount in lakh/crore grouping:
// 1234567 becomes 12,34,567.
func GroupDigits(amount int) string {
	digits := strconv.Itoa(amount)
	if len(digits) <= 3 {
		return digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}

const letterText = `
================================================================================
                              SANCTION LETTER
================================================================================

Reference No: {{.Reference}}
Date: {{date .Date}}

Dear {{.Name}},

Subject: Sanction of Personal Loan Application

We are pleased to inform you that your loan application has been approved by
SanctionX Digital Loan Processing System.

================================================================================
                              LOAN DETAILS
================================================================================

Loan Amount          : {{inr .Offer.Amount}}
Interest Rate        : {{rate .Offer.Rate}}% per annum (reducing balance)
Tenure               : {{.Offer.Months}} months
EMI Amount           : {{inr .Offer.EMI}} per month
Purpose              : {{.Purpose}}

================================================================================
                           TERMS AND CONDITIONS
================================================================================

1. This sanction is valid for 30 days from the date of this letter.

2. The loan is subject to verification of original documents at the branch.

3. Processing fee and other applicable charges will be deducted at the time
   of disbursement.

4. EMI will be debited from your registered bank account on the 5th of every
   month.

5. Pre-closure of the loan is allowed after 6 months with applicable charges.

6. In case of default, penal interest at 2% per month will be applicable.

================================================================================
                             IMPORTANT NOTICE
================================================================================

Please visit your nearest bank branch for disbursement of the loan amount.

You will need to bring the following documents:
- Original ID proof (Aadhaar/PAN/Passport)
- Address proof
- Income documents
- 2 passport size photographs
- Cancelled cheque from your salary account

================================================================================

This is a system-generated letter and does not require a signature.

Thank you for choosing SanctionX.

Regards,
SanctionX Loan Processing System
www.sanctionx.in

================================================================================
                         CONFIDENTIAL & PROPRIETARY
================================================================================
`
