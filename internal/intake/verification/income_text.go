// internal/intake/verification/income_text.go
package verification

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	minDocumentIncome = 5000
	maxDocumentIncome = 5000000
)

// Label patterns in priority order. Text is lower-cased and stripped of
// rupee signs and commas before matching.
var incomePatterns = []*regexp.Regexp{
	regexp.MustCompile(`net\s*pay[:\s]*(?:rs\.?\s*)?(\d+)`),
	regexp.MustCompile(`gross\s*salary[:\s]*(?:rs\.?\s*)?(\d+)`),
	regexp.MustCompile(`salary[:\s]*(?:rs\.?\s*)?(\d+)`),
	regexp.MustCompile(`income[:\s]*(?:rs\.?\s*)?(\d+)`),
	regexp.MustCompile(`total\s*earnings[:\s]*(?:rs\.?\s*)?(\d+)`),
	regexp.MustCompile(`net\s*income[:\s]*(?:rs\.?\s*)?(\d+)`),
}

var textCleaner = strings.NewReplacer("₹", "", ",", "", "inr", "rs")

// ExtractIncomeFromText finds the first labelled amount within the plausible
// monthly range. It returns ErrNoIncome when none matches.
func ExtractIncomeFromText(text string) (int, error) {
	cleaned := textCleaner.Replace(strings.ToLower(text))

	for _, pattern := range incomePatterns {
		for _, match := range pattern.FindAllStringSubmatch(cleaned, -1) {
			income, err := strconv.Atoi(match[1])
			if err != nil {
				continue
			}
			if income >= minDocumentIncome && income <= maxDocumentIncome {
				return income, nil
			}
		}
	}
	return 0, ErrNoIncome
}
