// internal/api/schemas.go
package api

import "loan-intake/internal/common/validation"

var (
	sessionSchema = validation.MustCompile(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string", "minLength": 1}
		},
		"required": ["sessionId"]
	}`)

	chatSchema = validation.MustCompile(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string", "minLength": 1},
			"message": {"type": "string", "maxLength": 2000}
		},
		"required": ["sessionId", "message"]
	}`)

	panSchema = validation.MustCompile(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string", "minLength": 1},
			"pan": {"type": "string", "maxLength": 32}
		},
		"required": ["sessionId"]
	}`)

	aadhaarSchema = validation.MustCompile(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string", "minLength": 1},
			"aadhaar": {"type": "string", "maxLength": 32},
			"otp": {"type": "string", "maxLength": 16}
		},
		"required": ["sessionId"]
	}`)

	loanOptionsSchema = validation.MustCompile(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string", "minLength": 1},
			"schedule": {"type": "boolean"}
		},
		"required": ["sessionId"]
	}`)

	resetSchema = validation.MustCompile(`{
		"type": "object",
		"properties": {
			"sessionId": {"type": "string"}
		}
	}`)
)
