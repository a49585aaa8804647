// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Matching errors
const (
	ErrCodeRepositoryUnavailable  ErrorCode = "REPOSITORY_UNAVAILABLE"
	ErrCodeInvalidOpportunity     ErrorCode = "INVALID_OPPORTUNITY"
	ErrCodeWeightVectorInvariant  ErrorCode = "WEIGHT_VECTOR_INVARIANT_VIOLATION"
	ErrCodeCandidateNotFound      ErrorCode = "CANDIDATE_NOT_FOUND"
	ErrCodeOpportunityNotFound    ErrorCode = "OPPORTUNITY_NOT_FOUND"
	ErrCodePartnershipNotFound    ErrorCode = "PARTNERSHIP_NOT_FOUND"
	ErrCodeInvalidJobInput        ErrorCode = "INVALID_JOB_INPUT"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeFacilitationFailed     ErrorCode = "FACILITATION_FAILED"
	ErrCodeWorkflowEngine         ErrorCode = "WORKFLOW_ENGINE_UNAVAILABLE"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a StandardError carrying the same code.
func (e *StandardError) Is(target error) bool {
	var t *StandardError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// HasCode reports whether any error in err's chain is a StandardError with code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if !stderrors.As(err, &stdErr) {
		return false
	}
	return stdErr.Code == code
}

// Sentinels usable with errors.Is.
var (
	ErrRepositoryUnavailable = &StandardError{Code: ErrCodeRepositoryUnavailable}
	ErrInvalidOpportunity    = &StandardError{Code: ErrCodeInvalidOpportunity}
	ErrCandidateNotFound     = &StandardError{Code: ErrCodeCandidateNotFound}
	ErrOpportunityNotFound   = &StandardError{Code: ErrCodeOpportunityNotFound}
)

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

// NewRepositoryUnavailableError wraps a data source failure. No retry happens
// inside the matching core; the job is retried by the workflow engine.
func NewRepositoryUnavailableError(source string, err error) *StandardError {
	details := fmt.Sprintf("source: %s", source)
	if err != nil {
		details = fmt.Sprintf("source: %s, error: %s", source, err.Error())
	}
	return &StandardError{
		Code:      ErrCodeRepositoryUnavailable,
		Message:   "Candidate data source unavailable",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInvalidOpportunityError rejects a malformed opportunity before scoring.
func NewInvalidOpportunityError(opportunityID, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidOpportunity,
		Message:   "Opportunity failed validation",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"opportunityId": opportunityID},
		Timestamp: time.Now().UTC(),
	}
}

// NewWeightVectorInvariantError signals a code defect in a weight table.
func NewWeightVectorInvariantError(table string, sum float64) *StandardError {
	return &StandardError{
		Code:      ErrCodeWeightVectorInvariant,
		Message:   "Weight vector does not sum to 1.0",
		Details:   fmt.Sprintf("table: %s, sum: %.6f", table, sum),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewCandidateNotFoundError(candidateID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCandidateNotFound,
		Message:   "Candidate not found",
		Details:   fmt.Sprintf("candidateId: %s", candidateID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewOpportunityNotFoundError(opportunityID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeOpportunityNotFound,
		Message:   "Opportunity not found",
		Details:   fmt.Sprintf("opportunityId: %s", opportunityID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPartnershipNotFoundError is returned when a partnership is no longer
// proposed for its opportunity.
func NewPartnershipNotFoundError(partnershipID string) *StandardError {
	return &StandardError{
		Code:      ErrCodePartnershipNotFound,
		Message:   "Partnership not proposed",
		Details:   fmt.Sprintf("partnershipId: %s", partnershipID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidJobInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidJobInput,
		Message:   "Job variables failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewFacilitationFailedError(partnershipID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFacilitationFailed,
		Message:   "Partnership facilitation failed",
		Details:   fmt.Sprintf("partnershipId: %s, error: %s", partnershipID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewWorkflowEngineError wraps a failed Zeebe command.
func NewWorkflowEngineError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkflowEngine,
		Message:   "Workflow engine command failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. BPMN Mapping & Retries
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeRepositoryUnavailable:  "REPOSITORY_UNAVAILABLE",
	ErrCodeInvalidOpportunity:     "INVALID_OPPORTUNITY",
	ErrCodeWeightVectorInvariant:  "INTERNAL_ERROR",
	ErrCodeCandidateNotFound:      "CANDIDATE_NOT_FOUND",
	ErrCodeOpportunityNotFound:    "OPPORTUNITY_NOT_FOUND",
	ErrCodePartnershipNotFound:    "PARTNERSHIP_NOT_FOUND",
	ErrCodeInvalidJobInput:        "INVALID_JOB_INPUT",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
	ErrCodeFacilitationFailed:     "FACILITATION_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeRepositoryUnavailable,
		ErrCodeNotificationSendFailed,
		ErrCodeFacilitationFailed,
		ErrCodeWorkflowEngine:
		return 3

	default:
		return 0 // Business errors: no retry
	}
}

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

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "REPOSITORY"):
		return "DATA_SOURCE"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "LOOKUP"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "FACILITATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "WORKFLOW"):
		return "EXTERNAL_SERVICE"
	case strings.Contains(codeStr, "INVARIANT"):
		return "DEFECT"
	default:
		return "OTHER"
	}
}
