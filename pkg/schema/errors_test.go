package schema

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolsetError_Error(t *testing.T) {
	err := NewError(ErrCodeVendor, "catalog down")
	assert.Equal(t, "[VENDOR_ERROR] catalog down", err.Error())

	err = NewErrorf(ErrCodeValidation, "bad %s", "value").WithField("api_key")
	assert.Equal(t, "[VALIDATION_ERROR] field api_key: bad value", err.Error())
}

func TestToolsetError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewError(ErrCodeVendor, "request failed").WithCause(cause)

	assert.True(t, errors.Is(err, cause))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "", CodeOf(nil))
	assert.Equal(t, "", CodeOf(errors.New("plain")))

	wrapped := fmt.Errorf("list apps: %w", NewError(ErrCodeUnauthorized, "invalid api key"))
	assert.Equal(t, ErrCodeUnauthorized, CodeOf(wrapped))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", NewError(ErrCodeNotFound, "no items found"))))
	assert.False(t, IsNotFound(NewError(ErrCodeVendor, "boom")))
	assert.False(t, IsNotFound(nil))
}

func TestToolsetError_WithDetails(t *testing.T) {
	err := NewError(ErrCodeVendor, "bad").WithDetails(map[string]any{"status_code": 502})
	require.NotNil(t, err.Details)
	assert.Equal(t, 502, err.Details["status_code"])
}

func TestCheckResult(t *testing.T) {
	r := &CheckResult{}
	assert.True(t, r.OK())
	assert.Nil(t, r.ToError())

	r.AddWarning("auth_status", ErrCodeUnauthorized, "app not connected")
	assert.True(t, r.OK(), "warnings alone do not block")
	assert.Nil(t, r.ToError())

	r.AddError("api_key", ErrCodeValidation, "api key is required")
	err := r.ToError()
	require.Error(t, err)

	var te *ToolsetError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "api_key", te.Field)
	assert.Equal(t, "api key is required", te.Message)

	r.AddError("action_names", ErrCodeValidation, "no action selected")
	require.ErrorAs(t, r.ToError(), &te)
	assert.Contains(t, te.Message, "2 errors")
	assert.Equal(t, "2 error(s), 1 warning(s)", r.String())
}
