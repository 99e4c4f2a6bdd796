// Package errors provides the structured error taxonomy shared by the signup
// flow, the admin surface and the onboarding job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Signup flow
	ErrCodeConfiguration     ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount     ErrorCode = "INVALID_AMOUNT"
	ErrCodeProvider          ErrorCode = "PROVIDER_ERROR"
	ErrCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeOperationInFlight ErrorCode = "OPERATION_IN_FLIGHT"
	ErrCodeRecordFrozen      ErrorCode = "RECORD_FROZEN"
	ErrCodeRunNotFound       ErrorCode = "RUN_NOT_FOUND"
	ErrCodePaymentNotReady   ErrorCode = "PAYMENT_NOT_READY"
	ErrCodePaymentClosed     ErrorCode = "PAYMENT_CLOSED"

	// Admin
	ErrCodeAuthentication  ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeTooManyAttempts ErrorCode = "TOO_MANY_ATTEMPTS"

	// Infrastructure
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexNotFound            ErrorCode = "INDEX_NOT_FOUND"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeExternalService          ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout                  ErrorCode = "TIMEOUT"
	ErrCodeResourceNotFound         ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
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
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any StandardError carrying the same code, so package level
// sentinels below work with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata sets a metadata key and returns e.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// Sentinels for errors.Is comparisons.
var (
	ErrConfiguration     = &StandardError{Code: ErrCodeConfiguration}
	ErrValidation        = &StandardError{Code: ErrCodeValidationFailed}
	ErrInvalidAmount     = &StandardError{Code: ErrCodeInvalidAmount}
	ErrProvider          = &StandardError{Code: ErrCodeProvider}
	ErrPersistence       = &StandardError{Code: ErrCodePersistenceFailed}
	ErrOperationInFlight = &StandardError{Code: ErrCodeOperationInFlight}
	ErrRecordFrozen      = &StandardError{Code: ErrCodeRecordFrozen}
	ErrRunNotFound       = &StandardError{Code: ErrCodeRunNotFound}
	ErrPaymentNotReady   = &StandardError{Code: ErrCodePaymentNotReady}
	ErrPaymentClosed     = &StandardError{Code: ErrCodePaymentClosed}
	ErrAuthentication    = &StandardError{Code: ErrCodeAuthentication}
	ErrTooManyAttempts   = &StandardError{Code: ErrCodeTooManyAttempts}
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

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"retryable":    e.Retryable,
	}
	if e.Details != "" {
		vars["errorDetails"] = e.Details
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewConfigurationError reports a missing or unusable credential or setting.
func NewConfigurationError(details string) *StandardError {
	return newError(ErrCodeConfiguration, "Server configuration error", details, false, nil)
}

// NewValidationError carries per-field messages in Metadata["fields"].
func NewValidationError(fields map[string]string) *StandardError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	e := newError(ErrCodeValidationFailed, "Validation failed", strings.Join(names, ","), false, nil)
	return e.WithMetadata("fields", fields)
}

func NewInvalidAmountError(amount float64) *StandardError {
	return newError(ErrCodeInvalidAmount, "Invalid amount", fmt.Sprintf("amount %v must be greater than zero", amount), false, nil)
}

// NewProviderError wraps a payment provider failure. The wizard keeps the user
// on the terms step and lets them retry.
func NewProviderError(operation string, err error) *StandardError {
	return newError(ErrCodeProvider, fmt.Sprintf("Payment provider %s failed", operation), errString(err), true, err)
}

// NewPersistenceError is raised when a confirmed payment could not be
// recorded. It is never retried automatically.
func NewPersistenceError(paymentIntentID string, err error) *StandardError {
	e := newError(ErrCodePersistenceFailed,
		fmt.Sprintf("Payment succeeded, but we could not save your application. Please contact support with payment ID %s", paymentIntentID),
		errString(err), false, err)
	return e.WithMetadata("paymentIntentId", paymentIntentID)
}

func NewOperationInFlightError(operation string) *StandardError {
	return newError(ErrCodeOperationInFlight, "Another request is already in progress", operation, true, nil)
}

func NewRecordFrozenError() *StandardError {
	return newError(ErrCodeRecordFrozen, "Application can no longer be edited after payment", "", false, nil)
}

func NewRunNotFoundError(runID string) *StandardError {
	return newError(ErrCodeRunNotFound, "Signup run not found", runID, false, nil)
}

func NewPaymentNotReadyError() *StandardError {
	return newError(ErrCodePaymentNotReady, "Payment form is not ready", "no client secret for this run", true, nil)
}

func NewPaymentClosedError(status string) *StandardError {
	return newError(ErrCodePaymentClosed, "Payment can no longer be submitted from this form", status, false, nil)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthentication, "Authentication failed", details, false, nil)
}

func NewTooManyAttemptsError(retryAfter time.Duration) *StandardError {
	e := newError(ErrCodeTooManyAttempts, "Too many sign-in attempts", retryAfter.String(), true, nil)
	return e.WithMetadata("retryAfterSeconds", int(retryAfter.Seconds()))
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection failed", errString(err), true, err)
}

func NewQueryExecutionFailedError(query string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, fmt.Sprintf("Query %s failed", query), errString(err), true, err)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert failed", errString(err), true, err)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, fmt.Sprintf("Search on %s failed", index), errString(err), true, err)
}

func NewIndexNotFoundError(index string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Search index not found", index, false, nil)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, fmt.Sprintf("Failed to send %s notification", channel), errString(err), true, err)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("%s request failed", service), errString(err), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("%s request timed out", service), errString(err), true, err)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("%s resource not found", service), details, false, nil)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", errString(err), false, err)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the job retry budget for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeTimeout:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
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

// ==========================
// 5. Utility Functions
// ==========================

// AsStandard returns the StandardError in err's chain, or wraps err as an
// internal error.
func AsStandard(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// CodeOf returns the code of the first StandardError in err's chain.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// HTTPStatus maps an error code to the response status used by the API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeInvalidAmount:
		return http.StatusBadRequest
	case ErrCodeAuthentication:
		return http.StatusUnauthorized
	case ErrCodeRunNotFound, ErrCodeResourceNotFound, ErrCodeIndexNotFound:
		return http.StatusNotFound
	case ErrCodeOperationInFlight, ErrCodeRecordFrozen, ErrCodePaymentNotReady, ErrCodePaymentClosed:
		return http.StatusConflict
	case ErrCodeTooManyAttempts:
		return http.StatusTooManyRequests
	case ErrCodeProvider, ErrCodeExternalService:
		return http.StatusBadGateway
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PAYMENT") || code == ErrCodeProvider || code == ErrCodeInvalidAmount:
		return "PAYMENT"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || code == ErrCodePersistenceFailed:
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "AUTH") || code == ErrCodeTooManyAttempts:
		return "AUTH"
	case strings.Contains(codeStr, "VALIDATION") || code == ErrCodeRecordFrozen:
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
