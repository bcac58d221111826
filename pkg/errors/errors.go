package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Connection errors (1xxx)
	ErrCodeConnectionFailed     ErrorCode = "RGLD1001"
	ErrCodeConnectionTimeout    ErrorCode = "RGLD1002"
	ErrCodeAuthenticationFailed ErrorCode = "RGLD1003"
	ErrCodeNetworkUnavailable   ErrorCode = "RGLD1004"

	// Configuration errors (2xxx)
	ErrCodeConfigNotFound ErrorCode = "RGLD2001"
	ErrCodeConfigInvalid  ErrorCode = "RGLD2002"

	// Repository errors (3xxx)
	ErrCodeRepoNotFound    ErrorCode = "RGLD3001"
	ErrCodeRepoAccessDenied ErrorCode = "RGLD3002"
	ErrCodeRepoSyncFailed  ErrorCode = "RGLD3003"
	ErrCodeGit             ErrorCode = "RGLD3004"

	// Remote API errors (4xxx)
	ErrCodeAPIRequest        ErrorCode = "RGLD4001"
	ErrCodeAPIRateLimited    ErrorCode = "RGLD4002"
	ErrCodeAPIServer         ErrorCode = "RGLD4003"
	ErrCodeCollectionFailed  ErrorCode = "RGLD4004"
	ErrCodeUploadFailed      ErrorCode = "RGLD4005"
	ErrCodeDuplicateDocument ErrorCode = "RGLD4006"

	// File system errors (5xxx)
	ErrCodeFileNotFound   ErrorCode = "RGLD5001"
	ErrCodeFilePermission ErrorCode = "RGLD5002"
	ErrCodeFileOperation  ErrorCode = "RGLD5003"

	// Validation errors (6xxx)
	ErrCodeValidationFailed ErrorCode = "RGLD6001"
	ErrCodeInvalidInput     ErrorCode = "RGLD6002"

	// Security errors (7xxx)
	ErrCodeCredentialStorage ErrorCode = "RGLD7001"
	ErrCodeEncryptionFailed  ErrorCode = "RGLD7002"

	// System errors (9xxx)
	ErrCodeInternal           ErrorCode = "RGLD9001"
	ErrCodeTimeout            ErrorCode = "RGLD9002"
	ErrCodeResourceExhausted  ErrorCode = "RGLD9003"
	ErrCodeServiceUnavailable ErrorCode = "RGLD9004"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL" // System failure, requires immediate attention
	SeverityError    ErrorSeverity = "ERROR"    // Operation failed, but system continues
	SeverityWarning  ErrorSeverity = "WARNING"  // Operation succeeded with issues
	SeverityInfo     ErrorSeverity = "INFO"     // Informational, not an error
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Recoverable bool
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:        code,
		Message:     message,
		Severity:    SeverityError,
		Context:     make(map[string]interface{}),
		Stack:       captureStack(),
		Timestamp:   time.Now(),
		Recoverable: false,
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	// If wrapping another AppError, inherit its context
	if ae, ok := err.(*AppError); ok {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// AsRecoverable marks the error as recoverable
func (e *AppError) AsRecoverable() *AppError {
	e.Recoverable = true
	return e
}

// captureStack captures the current stack trace
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// GitError creates a git-operation error. Git failures are treated as
// non-transient and are never retried.
func GitError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeGit, message).
		WithSuggestions(
			"Verify the repository URL and branch name",
			"Check your Git credentials and network connectivity",
			"Try cloning the repository manually to verify access",
		)
}

// AuthError creates an authentication error. Authentication failures are
// fatal to a load run.
func AuthError(message string, cause error) *AppError {
	err := Wrap(cause, ErrCodeAuthenticationFailed, message)
	if err == nil {
		err = New(ErrCodeAuthenticationFailed, message)
	}
	return err.
		WithSuggestions(
			"Check the configured email and password",
			"Run 'ragloader setup' to reconfigure credentials",
			"Verify the API URL points at a reachable server",
		)
}

// ConfigError creates a configuration-related error
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'ragloader setup' to reconfigure",
		)
}

// APIError creates a remote-API error carrying the HTTP status code.
func APIError(message string, status int, cause error) *AppError {
	err := Wrap(cause, ErrCodeAPIRequest, message)
	if err == nil {
		err = New(ErrCodeAPIRequest, message)
	}
	err = err.WithContext("http_status", status)

	switch {
	case status == 429:
		err.Code = ErrCodeAPIRateLimited
		err.Recoverable = true
	case status >= 500:
		err.Code = ErrCodeAPIServer
		err.Recoverable = true
	}

	return err
}

// ValidationError creates a validation error
func ValidationError(field string, value interface{}, reason string) *AppError {
	return New(ErrCodeValidationFailed, fmt.Sprintf("Validation failed for %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("value", value).
		WithSeverity(SeverityWarning).
		AsRecoverable()
}

// IsRecoverable checks if an error is recoverable
func IsRecoverable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Recoverable
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// HTTPStatus extracts the http_status context value, or 0 when absent.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if v, ok := appErr.Context["http_status"].(int); ok {
			return v
		}
	}
	return 0
}
