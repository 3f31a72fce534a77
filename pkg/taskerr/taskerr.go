// Package taskerr defines the closed error taxonomy shared by the routing
// core. Every failure carries a stable code; severity, recoverability and
// default retryability are looked up from a static registry rather than
// re-derived at call sites.
package taskerr

import (
	"errors"
	"fmt"
	"time"
)

// Code is a stable error identifier.
type Code string

const (
	CodeClassification Code = "AS001" // classification failed or ambiguous
	CodeCloudAuth      Code = "AS002" // missing or invalid API key
	CodeCloudRateLimit Code = "AS003" // cloud rate limit hit
	CodeCloudQuota     Code = "AS004" // provider quota exhausted
	CodeCloudTimeout   Code = "AS005" // cloud call deadline exceeded
	CodeCloudServer    Code = "AS006" // provider 5xx
	CodeNetwork        Code = "AS007" // transport-level failure
	CodeFileSystem     Code = "AS010"
	CodeSystemQuery    Code = "AS011"
	CodeAppIntegration Code = "AS012"
	CodeLocalExecution Code = "AS013"
	CodeValidation     Code = "AS020"
	CodeWorkflow       Code = "AS021"
	CodePermission     Code = "AS022"
	CodeBudgetExceeded Code = "AS030"
	CodeCircuitOpen    Code = "AS031"
)

// Severity indicates how serious an error kind is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type meta struct {
	Severity    Severity
	Recoverable bool
	Retryable   bool
	Message     string // default user-facing message
}

// registry is the closed lookup table from code to error metadata.
var registry = map[Code]meta{
	CodeClassification: {SeverityLow, true, false, "I couldn't work out what you meant. Try rephrasing your request."},
	CodeCloudAuth:      {SeverityHigh, true, false, "The cloud service rejected the API key. Check your configuration."},
	CodeCloudRateLimit: {SeverityMedium, true, true, "The cloud service is rate limiting requests. Please wait a moment."},
	CodeCloudQuota:     {SeverityHigh, true, false, "The cloud service quota is exhausted."},
	CodeCloudTimeout:   {SeverityMedium, true, true, "The cloud service took too long to respond."},
	CodeCloudServer:    {SeverityMedium, true, true, "The cloud service had a problem. Please try again."},
	CodeNetwork:        {SeverityMedium, true, true, "A network error occurred."},
	CodeFileSystem:     {SeverityMedium, true, false, "The file operation failed."},
	CodeSystemQuery:    {SeverityLow, true, false, "The system query failed."},
	CodeAppIntegration: {SeverityMedium, true, false, "The application could not be controlled."},
	CodeLocalExecution: {SeverityMedium, true, false, "The local task failed."},
	CodeValidation:     {SeverityLow, true, false, "The request was invalid."},
	CodeWorkflow:       {SeverityMedium, true, false, "The workflow step failed."},
	CodePermission:     {SeverityHigh, false, false, "Permission was denied."},
	CodeBudgetExceeded: {SeverityHigh, true, false, "The spending limit has been reached. Raise the budget ceiling to continue."},
	CodeCircuitOpen:    {SeverityHigh, true, false, "The cloud service appears to be down. Requests are paused while it recovers."},
}

// Error is the taxonomy's error value: a code plus structured context.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "task error"
	}
	msg := e.Message
	if msg == "" {
		msg = registry[e.Code].Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Severity returns the registered severity for the error's code.
func (e *Error) Severity() Severity {
	return registry[e.Code].Severity
}

// Recoverable reports whether the error kind is recoverable.
func (e *Error) Recoverable() bool {
	return registry[e.Code].Recoverable
}

// Retryable reports whether the error kind is retryable by default.
func (e *Error) Retryable() bool {
	return registry[e.Code].Retryable
}

// UserMessage returns a message suitable for showing to the user.
func (e *Error) UserMessage() string {
	if e == nil {
		return registry[CodeLocalExecution].Message
	}
	if e.Message != "" {
		return e.Message
	}
	return registry[e.Code].Message
}

// WithDetail attaches a structured context value and returns the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a taxonomy error with a custom message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a taxonomy error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code to an underlying error. The registered default
// message is used for presentation.
func Wrap(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// CodeOf extracts the taxonomy code from an error chain.
func CodeOf(err error) (Code, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Code, true
	}
	return "", false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsRetryable reports whether an error is retryable per the registry.
// Unknown errors are not retryable.
func IsRetryable(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Retryable()
	}
	return false
}

// IsRecoverable reports whether an error is recoverable per the registry.
func IsRecoverable(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Recoverable()
	}
	return false
}

// RetryAfter extracts a provider-supplied retry-after hint, if present.
func RetryAfter(err error) (time.Duration, bool) {
	var te *Error
	if !errors.As(err, &te) || te.Details == nil {
		return 0, false
	}
	if d, ok := te.Details["retry_after"].(time.Duration); ok {
		return d, true
	}
	return 0, false
}

// Codes returns every registered code. Useful for exhaustive checks in tests.
func Codes() []Code {
	codes := make([]Code, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}
