// internal/workers/loan/generate-sanction-letter/models.go
package generatesanctionletter

import "loan-intake/internal/models"

type Input struct {
	Name      string            `json:"name"`
	Purpose   string            `json:"purpose,omitempty"`
	Offer     models.LoanOption `json:"offer"`
	Reference string            `json:"reference,omitempty"`
	// SanctionedAt is RFC 3339; the letter is dated with it when present.
	SanctionedAt string `json:"sanctionedAt,omitempty"`
}

type Output struct {
	Reference string `json:"reference"`
	Letter    string `json:"letter"`
	Filename  string `json:"filename"`
}
