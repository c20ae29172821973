// Package errors defines the structured error type used across sitemin.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeContract ErrorType = "contract"
	ErrorTypeEngine   ErrorType = "engine"
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeInternal ErrorType = "internal"
)

// Error codes.
const (
	ErrCodeConfigInvalid  = "ERR_CONFIG_INVALID"
	ErrCodePatternInvalid = "ERR_PATTERN_INVALID"
	ErrCodeContentMissing = "ERR_CONTENT_MISSING"
	ErrCodeHTMLMinify     = "ERR_HTML_MINIFY"
	ErrCodeFileRead       = "ERR_FILE_READ"
	ErrCodeFileWrite      = "ERR_FILE_WRITE"
	ErrCodePluginInit     = "ERR_PLUGIN_INIT"
)

// SiteminError is a structured error type with context.
type SiteminError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	FilePath    string
	Recoverable bool
}

// Error implements the error interface.
func (e *SiteminError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath+":")
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *SiteminError) Unwrap() error {
	return e.Cause
}

// Is matches errors with the same type and code.
func (e *SiteminError) Is(target error) bool {
	var t *SiteminError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *SiteminError) WithContext(key string, value interface{}) *SiteminError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithFile records the file the error is about.
func (e *SiteminError) WithFile(path string) *SiteminError {
	e.FilePath = path

	return e
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string, cause error) *SiteminError {
	return &SiteminError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewContractError creates an error for input that breaks the pipeline
// contract, such as a file reaching a plugin without content.
func NewContractError(code, message string) *SiteminError {
	return &SiteminError{
		Type:    ErrorTypeContract,
		Code:    code,
		Message: message,
	}
}

// NewEngineError creates a minification engine error.
func NewEngineError(code, message string, cause error) *SiteminError {
	return &SiteminError{
		Type:        ErrorTypeEngine,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *SiteminError {
	return &SiteminError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *SiteminError {
	return &SiteminError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var se *SiteminError
	if errors.As(err, &se) {
		return se.Recoverable
	}

	return false
}

// IsConfigError checks if an error is a configuration error.
func IsConfigError(err error) bool {
	return hasType(err, ErrorTypeConfig)
}

// IsContractError checks if an error is a contract violation.
func IsContractError(err error) bool {
	return hasType(err, ErrorTypeContract)
}

// IsEngineError checks if an error came from a minification engine.
func IsEngineError(err error) bool {
	return hasType(err, ErrorTypeEngine)
}

func hasType(err error, t ErrorType) bool {
	var se *SiteminError
	if errors.As(err, &se) {
		return se.Type == t
	}

	return false
}
