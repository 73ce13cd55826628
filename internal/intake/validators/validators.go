// Package validators parses and checks the raw answers of the intake
// conversation. Every function is pure.
package validators

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

const (
	MinAge    = 18
	MaxAge    = 70
	MinIncome = 10000
)

var (
	ErrEmpty      = errors.New("value is empty")
	ErrNotNumber  = errors.New("value is not a number")
	ErrNotAllowed = errors.New("value is not one of the allowed options")
	ErrFormat     = errors.New("value does not match the required format")
	ErrOutOfRange = errors.New("value is out of range")

	ErrUnderage     = errors.New("applicant is below the minimum age")
	ErrOverage      = errors.New("applicant is above the maximum age")
	ErrIncomeTooLow = errors.New("income is below the minimum requirement")
)

var (
	panRegex     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	aadhaarRegex = regexp.MustCompile(`^\d{12}$`)
	otpRegex     = regexp.MustCompile(`^\d{4,8}$`)
	nonDigits    = regexp.MustCompile(`[^0-9]`)
)

// Genders, employment statuses and account types in canonical lower case.
var (
	Genders         = []string{"male", "female", "other"}
	EmploymentTypes = []string{"salaried", "self-employed", "unemployed"}
	AccountTypes    = []string{"savings", "current", "salary"}
)

const (
	EmploymentSalaried     = "salaried"
	EmploymentSelfEmployed = "self-employed"
	EmploymentUnemployed   = "unemployed"
	GenderFemale           = "female"
)

// Name trims the input and rejects empty names.
func Name(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return "", ErrEmpty
	}
	return name, nil
}

// FreeText accepts any non-blank answer.
func FreeText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}

// Age parses an integer age. Bounds are checked separately by CheckAge so the
// caller can tell a typo from a disqualification.
func Age(raw string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrNotNumber
	}
	return age, nil
}

// CheckAge returns ErrUnderage or ErrOverage outside [MinAge, MaxAge].
func CheckAge(age int) error {
	switch {
	case age < MinAge:
		return ErrUnderage
	case age > MaxAge:
		return ErrOverage
	default:
		return nil
	}
}

// Gender normalizes to one of Genders.
func Gender(raw string) (string, error) {
	return oneOf(raw, Genders)
}

// Employment normalizes to one of EmploymentTypes. "unemployed" is a valid
// answer; EligibleEmployment decides whether it qualifies.
func Employment(raw string) (string, error) {
	return oneOf(raw, EmploymentTypes)
}

// EligibleEmployment reports whether the status qualifies for a loan.
func EligibleEmployment(status string) bool {
	return status == EmploymentSalaried || status == EmploymentSelfEmployed
}

// Income parses a monthly income, accepting thousands separators in either
// western (40,000) or Indian (1,00,000) grouping.
func Income(raw string) (int, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0, ErrEmpty
	}
	income, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, ErrNotNumber
	}
	return income, nil
}

// CheckIncome returns ErrIncomeTooLow under MinIncome.
func CheckIncome(income int) error {
	if income < MinIncome {
		return ErrIncomeTooLow
	}
	return nil
}

// AccountType normalizes to one of AccountTypes.
func AccountType(raw string) (string, error) {
	return oneOf(raw, AccountTypes)
}

// PAN upper-cases the input and checks the 5 letters, 4 digits, 1 letter
// layout.
func PAN(raw string) (string, error) {
	pan := strings.ToUpper(strings.TrimSpace(raw))
	if !panRegex.MatchString(pan) {
		return "", ErrFormat
	}
	return pan, nil
}

// Aadhaar accepts exactly twelve digits.
func Aadhaar(raw string) (string, error) {
	aadhaar := strings.TrimSpace(raw)
	if !aadhaarRegex.MatchString(aadhaar) {
		return "", ErrFormat
	}
	return aadhaar, nil
}

// OTP checks the shape of a one-time password. Whether it is the right code
// is up to the OTP service.
func OTP(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if !otpRegex.MatchString(code) {
		return "", ErrFormat
	}
	return code, nil
}

// Choice extracts a 1-based option index from input such as "Option 2" and
// checks it against the number of options.
func Choice(raw string, count int) (int, error) {
	digits := nonDigits.ReplaceAllString(raw, "")
	if digits == "" {
		return 0, ErrNotNumber
	}
	choice, err := strconv.Atoi(digits)
	if err != nil {
		return 0, ErrNotNumber
	}
	if choice < 1 || choice > count {
		return 0, ErrOutOfRange
	}
	return choice, nil
}

// Confirm parses yes or no.
func Confirm(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	default:
		return false, ErrNotAllowed
	}
}

func oneOf(raw string, allowed []string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	for _, a := range allowed {
		if value == a {
			return value, nil
		}
	}
	return "", ErrNotAllowed
}
