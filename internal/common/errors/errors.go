// Package errors provides the structured error type shared by the HTTP API and
// the workflow workers, plus its mapping to BPMN errors and HTTP statuses.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Request / correlation errors
const (
	ErrCodeMissingSessionID  ErrorCode = "MISSING_SESSION_ID"
	ErrCodeSessionNotFound   ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrCodeProfileIncomplete ErrorCode = "PROFILE_INCOMPLETE"
	ErrCodeNoLoanSelected    ErrorCode = "NO_LOAN_SELECTED"
	ErrCodeStepMismatch      ErrorCode = "STEP_MISMATCH"
	ErrCodeDocumentMissing   ErrorCode = "DOCUMENT_MISSING"
	ErrCodeRateLimited       ErrorCode = "RATE_LIMITED"
)

// Collaborator / technical errors
const (
	ErrCodeVerificationUnavailable ErrorCode = "VERIFICATION_UNAVAILABLE"
	ErrCodeOTPDispatchFailed       ErrorCode = "OTP_DISPATCH_FAILED"
	ErrCodeOCRFailed               ErrorCode = "OCR_FAILED"
	ErrCodeNotificationSendFailed  ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeRuleEvaluationFailed    ErrorCode = "RULE_EVALUATION_FAILED"
	ErrCodeWorkflowUnavailable     ErrorCode = "WORKFLOW_UNAVAILABLE"
	ErrCodeInternal                ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error and returns it.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingSessionIDError is returned when a request carries no session id.
func NewMissingSessionIDError() *StandardError {
	return newError(ErrCodeMissingSessionID, "Missing sessionId", "", false)
}

// NewSessionNotFoundError is returned by lookups that never create a session.
func NewSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeSessionNotFound, "Session not found", fmt.Sprintf("sessionId: %s", sessionID), false)
}

// NewInvalidRequestError wraps a malformed body or failed schema validation.
func NewInvalidRequestError(message, details string) *StandardError {
	return newError(ErrCodeInvalidRequest, message, details, false)
}

// NewProfileIncompleteError names the profile field an operation needs.
func NewProfileIncompleteError(field string) *StandardError {
	msg := "Profile incomplete"
	if field == "declaredIncome" {
		msg = "Income not declared"
	}
	return newError(ErrCodeProfileIncomplete, msg, fmt.Sprintf("missing field: %s", field), false)
}

// NewNoLoanSelectedError is returned by sanction generation without a selection.
func NewNoLoanSelectedError() *StandardError {
	return newError(ErrCodeNoLoanSelected, "No loan option selected", "", false)
}

// NewStepMismatchError reports an operation invoked at the wrong step.
func NewStepMismatchError(operation, current string) *StandardError {
	return newError(ErrCodeStepMismatch,
		fmt.Sprintf("Operation %s is not allowed at step %s", operation, current),
		fmt.Sprintf("operation: %s, step: %s", operation, current),
		false,
	)
}

// NewDocumentMissingError is returned by upload without a file.
func NewDocumentMissingError() *StandardError {
	return newError(ErrCodeDocumentMissing, "No document uploaded", "", false)
}

// NewRateLimitedError is returned when a client exceeds the request budget.
func NewRateLimitedError() *StandardError {
	return newError(ErrCodeRateLimited, "Too many requests", "", true)
}

// NewVerificationUnavailableError wraps a failing PAN or KYC provider.
func NewVerificationUnavailableError(provider string, err error) *StandardError {
	return newError(ErrCodeVerificationUnavailable,
		fmt.Sprintf("Verification provider '%s' unavailable", provider),
		err.Error(),
		true,
	)
}

// NewOTPDispatchFailedError wraps a failure to send or store an OTP.
func NewOTPDispatchFailedError(err error) *StandardError {
	return newError(ErrCodeOTPDispatchFailed, "Failed to dispatch OTP", err.Error(), true)
}

// NewOCRFailedError wraps an extraction backend failure.
func NewOCRFailedError(err error) *StandardError {
	return newError(ErrCodeOCRFailed, "Document processing failed", err.Error(), true)
}

// NewNotificationSendFailedError wraps a failed outbound notification.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed,
		"Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		true,
	)
}

// NewRuleEvaluationFailedError wraps a risk rule that could not be evaluated.
func NewRuleEvaluationFailedError(err error) *StandardError {
	return newError(ErrCodeRuleEvaluationFailed, "Risk evaluation failed", err.Error(), false)
}

// NewWorkflowUnavailableError wraps a Zeebe call that failed on a transient
// broker or connection problem.
func NewWorkflowUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeWorkflowUnavailable,
		"Workflow engine unavailable",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		true,
	).WithMetadata("operation", operation)
}

// NewInternalError wraps anything unexpected.
func NewInternalError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return newError(ErrCodeInternal, "Internal server error", details, false)
}

// AsStandardError unwraps err into a StandardError, falling back to
// INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// ==========================
// 4. Error Conversion to BPMN / HTTP
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes caught by
// boundary events in the loan process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeMissingSessionID:        "MISSING_SESSION_ID",
	ErrCodeInvalidRequest:          "INVALID_REQUEST",
	ErrCodeProfileIncomplete:       "PROFILE_INCOMPLETE",
	ErrCodeNoLoanSelected:          "NO_LOAN_SELECTED",
	ErrCodeStepMismatch:            "STEP_MISMATCH",
	ErrCodeDocumentMissing:         "DOCUMENT_MISSING",
	ErrCodeVerificationUnavailable: "VERIFICATION_UNAVAILABLE",
	ErrCodeOTPDispatchFailed:       "OTP_DISPATCH_FAILED",
	ErrCodeOCRFailed:               "OCR_FAILED",
	ErrCodeNotificationSendFailed:  "NOTIFICATION_SEND_FAILED",
	ErrCodeRuleEvaluationFailed:    "RULE_EVALUATION_FAILED",
	ErrCodeWorkflowUnavailable:     "WORKFLOW_UNAVAILABLE",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeNotificationSendFailed,
		ErrCodeOTPDispatchFailed:
		return 3

	case ErrCodeVerificationUnavailable,
		ErrCodeOCRFailed,
		ErrCodeWorkflowUnavailable:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// HTTPStatus maps a code to the status the API answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeMissingSessionID,
		ErrCodeInvalidRequest,
		ErrCodeProfileIncomplete,
		ErrCodeNoLoanSelected,
		ErrCodeDocumentMissing:
		return http.StatusBadRequest
	case ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeStepMismatch:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeVerificationUnavailable,
		ErrCodeOTPDispatchFailed,
		ErrCodeOCRFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeWorkflowUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SESSION") || strings.Contains(codeStr, "STEP"):
		return "SESSION"
	case strings.Contains(codeStr, "VERIFICATION") || strings.Contains(codeStr, "OTP"):
		return "VERIFICATION"
	case strings.Contains(codeStr, "OCR") || strings.Contains(codeStr, "DOCUMENT"):
		return "DOCUMENT"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "WORKFLOW"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "RULE"):
		return "RISK"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "INCOMPLETE") || strings.Contains(codeStr, "SELECTED"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
