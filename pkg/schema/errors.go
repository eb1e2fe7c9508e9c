package schema

import (
	"errors"
	"fmt"
)

// Error codes for structured error reporting.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeExecution         = "EXECUTION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeVendor            = "VENDOR_ERROR"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeActionUnavailable = "ACTION_UNAVAILABLE"
	ErrCodeStore             = "STORE_ERROR"
	ErrCodeVault             = "VAULT_ERROR"
	ErrCodeConfig            = "CONFIG_ERROR"
)

// ToolsetError is the structured error type for all composiotools operations.
type ToolsetError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Field   string         `json:"field,omitempty"`
	Cause   error          `json:"-"`
}

func (e *ToolsetError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] field %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ToolsetError) Unwrap() error {
	return e.Cause
}

// NewError creates a new ToolsetError.
func NewError(code, message string) *ToolsetError {
	return &ToolsetError{Code: code, Message: message}
}

// NewErrorf creates a new ToolsetError with a formatted message.
func NewErrorf(code, format string, args ...any) *ToolsetError {
	return &ToolsetError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithField attaches the name of the configuration field the error relates to.
func (e *ToolsetError) WithField(field string) *ToolsetError {
	e.Field = field
	return e
}

// WithCause attaches an underlying cause.
func (e *ToolsetError) WithCause(err error) *ToolsetError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *ToolsetError) WithDetails(details map[string]any) *ToolsetError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first ToolsetError in err's chain, or "".
func CodeOf(err error) string {
	var te *ToolsetError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// IsNotFound reports whether err carries ErrCodeNotFound anywhere in its chain.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}
