package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeMalformedResponse           ErrorCode = "MALFORMED_RESPONSE"
	ErrCodeClassificationFailed        ErrorCode = "CLASSIFICATION_FAILED"
	ErrCodeCommandInterpretationFailed ErrorCode = "COMMAND_INTERPRETATION_FAILED"
	ErrCodeTranscriptionFailed         ErrorCode = "TRANSCRIPTION_FAILED"
	ErrCodeContactResolutionFailed     ErrorCode = "CONTACT_RESOLUTION_FAILED"
	ErrCodeResponseGenerationFailed    ErrorCode = "RESPONSE_GENERATION_FAILED"

	ErrCodeCompletionFailed      ErrorCode = "COMPLETION_FAILED"
	ErrCodeCompletionTimeout     ErrorCode = "COMPLETION_TIMEOUT"
	ErrCodeCompletionUnavailable ErrorCode = "COMPLETION_UNAVAILABLE"

	ErrCodeTransactionBuildFailed ErrorCode = "TRANSACTION_BUILD_FAILED"
	ErrCodeBalanceQueryFailed     ErrorCode = "BALANCE_QUERY_FAILED"

	ErrCodeInvalidRequest           ErrorCode = "INVALID_REQUEST"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeExternalService          ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout                  ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError carries diagnostic detail for logs and job variables.
// It is never shown to end users; see UserMessage.
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
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches another StandardError by code so errors.Is works against the
// exported sentinels below.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == ""
}

// WithMetadata returns e after attaching a metadata entry.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Code sentinels for errors.Is.
var (
	ErrMalformedResponse           = &StandardError{Code: ErrCodeMalformedResponse}
	ErrClassificationFailed        = &StandardError{Code: ErrCodeClassificationFailed}
	ErrCommandInterpretationFailed = &StandardError{Code: ErrCodeCommandInterpretationFailed}
	ErrTranscriptionFailed         = &StandardError{Code: ErrCodeTranscriptionFailed}
	ErrContactResolutionFailed     = &StandardError{Code: ErrCodeContactResolutionFailed}
	ErrResponseGenerationFailed    = &StandardError{Code: ErrCodeResponseGenerationFailed}
	ErrCompletionTimeout           = &StandardError{Code: ErrCodeCompletionTimeout}
	ErrCompletionUnavailable       = &StandardError{Code: ErrCodeCompletionUnavailable}
	ErrInvalidRequest              = &StandardError{Code: ErrCodeInvalidRequest}
)

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
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewMalformedResponseError(raw string, err error) *StandardError {
	e := newError(ErrCodeMalformedResponse, "Model output is not valid JSON", err, false)
	return e.WithMetadata("rawLength", len(raw))
}

func NewClassificationFailedError(err error) *StandardError {
	return newError(ErrCodeClassificationFailed, "Intent classification failed", err, true)
}

func NewUnknownClassificationError(value string) *StandardError {
	e := newError(ErrCodeClassificationFailed, "Intent classification returned an unknown value", nil, false)
	e.Details = fmt.Sprintf("intent: %q", value)
	return e
}

func NewCommandInterpretationFailedError(err error) *StandardError {
	return newError(ErrCodeCommandInterpretationFailed, "Command interpretation failed", err, true)
}

func NewTranscriptionFailedError(stage string, err error) *StandardError {
	e := newError(ErrCodeTranscriptionFailed, "Audio transcription failed", err, true)
	return e.WithMetadata("stage", stage)
}

func NewContactResolutionFailedError(token string) *StandardError {
	e := newError(ErrCodeContactResolutionFailed,
		fmt.Sprintf("%q is not a saved contact and does not appear to be a valid Sui address.", token),
		nil, false)
	return e.WithMetadata("token", token)
}

func NewResponseGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeResponseGenerationFailed, "Conversational response generation failed", err, true)
}

func NewCompletionFailedError(backend string, err error) *StandardError {
	e := newError(ErrCodeCompletionFailed, "Completion service error", err, true)
	return e.WithMetadata("backend", backend)
}

func NewCompletionTimeoutError(backend string) *StandardError {
	e := newError(ErrCodeCompletionTimeout, "Completion service timeout", nil, true)
	e.Details = "call exceeded the configured timeout or was cancelled"
	return e.WithMetadata("backend", backend)
}

func NewCompletionUnavailableError(err error) *StandardError {
	return newError(ErrCodeCompletionUnavailable, "Completion service unavailable", err, true)
}

func NewTransactionBuildFailedError(err error) *StandardError {
	return newError(ErrCodeTransactionBuildFailed, "Transaction builder error", err, true)
}

func NewBalanceQueryFailedError(err error) *StandardError {
	return newError(ErrCodeBalanceQueryFailed, "Balance query error", err, true)
}

func NewInvalidRequestError(details string) *StandardError {
	e := newError(ErrCodeInvalidRequest, "Invalid request", nil, false)
	e.Details = details
	return e
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err, true)
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	e := newError(ErrCodeQueryExecutionFailed, "Database query execution error", err, true)
	return e.WithMetadata("queryType", queryType)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalService,
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// As extracts the first StandardError in err's chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code of the outermost StandardError in err's chain, or
// ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := As(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

var userMessages = map[ErrorCode]string{
	ErrCodeMalformedResponse:           "AI generated an invalid response.",
	ErrCodeClassificationFailed:        "Failed to classify intent",
	ErrCodeCommandInterpretationFailed: "Failed to process command",
	ErrCodeTranscriptionFailed:         "Failed to transcribe audio",
	ErrCodeResponseGenerationFailed:    "Failed to generate conversational response",
	ErrCodeTransactionBuildFailed:      "Failed to build transaction",
	ErrCodeBalanceQueryFailed:          "Failed to fetch balance",
	ErrCodeInvalidRequest:              "Invalid request",
}

const DefaultUserMessage = "Failed to process request"

// UserMessage maps err to a short non-technical message. Stage wrappers win
// over their causes: a malformed response inside a command interpretation
// reads as "Failed to process command".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	stdErr, ok := As(err)
	if !ok {
		return DefaultUserMessage
	}
	if stdErr.Code == ErrCodeContactResolutionFailed {
		return stdErr.Message
	}
	if msg, ok := userMessages[stdErr.Code]; ok {
		return msg
	}
	return DefaultUserMessage
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeMalformedResponse:           "MALFORMED_RESPONSE",
	ErrCodeClassificationFailed:        "CLASSIFICATION_FAILED",
	ErrCodeCommandInterpretationFailed: "COMMAND_INTERPRETATION_FAILED",
	ErrCodeTranscriptionFailed:         "TRANSCRIPTION_FAILED",
	ErrCodeContactResolutionFailed:     "CONTACT_RESOLUTION_FAILED",
	ErrCodeResponseGenerationFailed:    "RESPONSE_GENERATION_FAILED",
	ErrCodeCompletionFailed:            "COMPLETION_FAILED",
	ErrCodeCompletionTimeout:           "COMPLETION_TIMEOUT",
	ErrCodeCompletionUnavailable:       "COMPLETION_UNAVAILABLE",
	ErrCodeTransactionBuildFailed:      "TRANSACTION_BUILD_FAILED",
	ErrCodeBalanceQueryFailed:          "BALANCE_QUERY_FAILED",
	ErrCodeInvalidRequest:              "INVALID_REQUEST",
	ErrCodeDatabaseConnectionFailed:    "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:        "QUERY_EXECUTION_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCompletionFailed,
		ErrCodeCommandInterpretationFailed,
		ErrCodeClassificationFailed,
		ErrCodeResponseGenerationFailed,
		ErrCodeTranscriptionFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeTransactionBuildFailed,
		ErrCodeBalanceQueryFailed:
		return 3

	case ErrCodeCompletionTimeout,
		ErrCodeCompletionUnavailable,
		ErrCodeExternalService,
		ErrCodeTimeout:
		return 2

	case ErrCodeMalformedResponse:
		return 1 // a second sample may decode

	default:
		return 0
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
			"userMessage":       UserMessage(stdErr),
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
	case strings.Contains(codeStr, "COMPLETION") || strings.Contains(codeStr, "MALFORMED"):
		return "AI"
	case strings.Contains(codeStr, "CLASSIFICATION") ||
		strings.Contains(codeStr, "INTERPRETATION") ||
		strings.Contains(codeStr, "RESPONSE_GENERATION") ||
		strings.Contains(codeStr, "TRANSCRIPTION"):
		return "PIPELINE"
	case strings.Contains(codeStr, "CONTACT"):
		return "CONTACTS"
	case strings.Contains(codeStr, "TRANSACTION") || strings.Contains(codeStr, "BALANCE"):
		return "WALLET"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
