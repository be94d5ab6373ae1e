// Package errors provides structured error handling for netscan operations.
// It defines error codes for target and port specification failures, a typed
// error carrying the offending input, and helpers for classifying errors.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents different types of errors that can occur.
type ErrorCode string

const (
	// General errors.
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeValidation    ErrorCode = "VALIDATION"
	CodeConfiguration ErrorCode = "CONFIGURATION"
	CodeTimeout       ErrorCode = "TIMEOUT"
	CodeCanceled      ErrorCode = "CANCELED"

	// Target errors.
	CodeInvalidAddress     ErrorCode = "INVALID_ADDRESS"
	CodeInvalidCIDRFormat  ErrorCode = "INVALID_CIDR_FORMAT"
	CodeInvalidCIDRAddress ErrorCode = "INVALID_CIDR_ADDRESS"
	CodeInvalidCIDRSize    ErrorCode = "INVALID_CIDR_SIZE"
	CodeTargetTooLarge     ErrorCode = "TARGET_TOO_LARGE"

	// Port specification errors.
	CodeInvalidPortValue  ErrorCode = "INVALID_PORT_VALUE"
	CodeInvalidPortFormat ErrorCode = "INVALID_PORT_FORMAT"
)

// messages holds the user facing diagnostic for each input error code.
var messages = map[ErrorCode]string{
	CodeInvalidAddress:     "Invalid IP address",
	CodeInvalidCIDRFormat:  "Invalid CIDR format",
	CodeInvalidCIDRAddress: "Invalid IP of CIDR address",
	CodeInvalidCIDRSize:    "Invalid size of CIDR address",
	CodeTargetTooLarge:     "Target range exceeds the configured host limit",
	CodeInvalidPortValue:   "Invalid port value",
	CodeInvalidPortFormat:  "Invalid port format",
}

// ScanError represents an error that occurred while preparing or running a scan.
type ScanError struct {
	Code    ErrorCode
	Message string
	// Input is the target or port specification that was rejected.
	Input string
	Cause error
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("[%s] %s (input: %q)", e.Code, e.Message, e.Input)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// NewScanError creates a new scan error with the specified code and message.
func NewScanError(code ErrorCode, message string) *ScanError {
	return &ScanError{Code: code, Message: message}
}

// NewInputError creates an error for rejected user input using the standard
// diagnostic for the code.
func NewInputError(code ErrorCode, input string) *ScanError {
	msg, ok := messages[code]
	if !ok {
		msg = "Invalid input"
	}
	return &ScanError{Code: code, Message: msg, Input: input}
}

// WrapScanError wraps an existing error as a scan error.
func WrapScanError(code ErrorCode, message string, err error) *ScanError {
	return &ScanError{Code: code, Message: message, Cause: err}
}

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Code    ErrorCode
	Message string
	Field   string
	Value   interface{}
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigFieldError creates a configuration error for a specific field.
func NewConfigFieldError(code ErrorCode, message, field string, value interface{}) *ConfigError {
	return &ConfigError{Code: code, Message: message, Field: field, Value: value}
}

// WrapConfigError wraps an existing error as a configuration error.
func WrapConfigError(code ErrorCode, message string, err error) *ConfigError {
	return &ConfigError{Code: code, Message: message, Cause: err}
}

// GetCode extracts the error code from an error chain if it has one.
func GetCode(err error) ErrorCode {
	var scanErr *ScanError
	if stderrors.As(err, &scanErr) {
		return scanErr.Code
	}
	var cfgErr *ConfigError
	if stderrors.As(err, &cfgErr) {
		return cfgErr.Code
	}
	return CodeUnknown
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && GetCode(err) == code
}

// IsInputError reports whether err was caused by a malformed target, port
// specification, or configuration value supplied by the user.
func IsInputError(err error) bool {
	switch GetCode(err) {
	case CodeInvalidAddress, CodeInvalidCIDRFormat, CodeInvalidCIDRAddress, CodeInvalidCIDRSize,
		CodeTargetTooLarge, CodeInvalidPortValue, CodeInvalidPortFormat,
		CodeValidation, CodeConfiguration:
		return true
	default:
		return false
	}
}

// Diagnostic returns the short message shown to users for err.
func Diagnostic(err error) string {
	var scanErr *ScanError
	if stderrors.As(err, &scanErr) {
		return "ERROR: " + scanErr.Message
	}
	var cfgErr *ConfigError
	if stderrors.As(err, &cfgErr) {
		if cfgErr.Field != "" {
			return fmt.Sprintf("ERROR: %s (%s)", cfgErr.Message, cfgErr.Field)
		}
		return "ERROR: " + cfgErr.Message
	}
	return "ERROR: " + err.Error()
}

// ErrTargetTooLarge creates an error for targets exceeding the host limit.
func ErrTargetTooLarge(target string, hosts uint64, limit int) *ScanError {
	e := NewInputError(CodeTargetTooLarge, target)
	e.Message = fmt.Sprintf("%s (%d hosts, limit %d)", e.Message, hosts, limit)
	return e
}

// ErrConfigInvalid creates an error for invalid configuration.
func ErrConfigInvalid(field string, value interface{}) *ConfigError {
	return NewConfigFieldError(CodeValidation, "Invalid configuration value", field, value)
}
