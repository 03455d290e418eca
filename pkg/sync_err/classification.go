// pkg/sync_err/classification.go
//
// Error classification with exit codes and remediation steps.

package sync_err

import (
	"fmt"
	"strings"

	cerr "github.com/cockroachdb/errors"
)

// ErrorCategory classifies errors for appropriate handling
type ErrorCategory int

const (
	// CategoryInternal - bugs in stretchsync itself (exit 3)
	CategoryInternal ErrorCategory = iota
	// CategoryValidation - input validation failures (exit 2)
	CategoryValidation
	// CategoryConfig - missing or invalid configuration (exit 2)
	CategoryConfig
	// CategoryNetwork - transport failures before a response arrived (exit 1)
	CategoryNetwork
	// CategoryRemote - the backend answered with a failure envelope (exit 4)
	CategoryRemote
	// CategoryUser - user cancelled/interrupted (exit 130)
	CategoryUser
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryValidation:
		return "validation"
	case CategoryConfig:
		return "config"
	case CategoryNetwork:
		return "network"
	case CategoryRemote:
		return "remote"
	case CategoryUser:
		return "user"
	default:
		return "internal"
	}
}

// ClassifiedError wraps an error with category and remediation info
type ClassifiedError struct {
	Category    ErrorCategory
	Message     string
	Cause       error
	Remediation []string
}

func (e *ClassifiedError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Cause != nil && e.Cause.Error() != e.Message {
		sb.WriteString(fmt.Sprintf("\n\nCause: %v", e.Cause))
	}

	if len(e.Remediation) > 0 {
		sb.WriteString("\n\nHow to fix:")
		for i, step := range e.Remediation {
			sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, step))
		}
	}
	return sb.String()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error category
func (e *ClassifiedError) ExitCode() int {
	switch e.Category {
	case CategoryUser:
		return 130
	case CategoryValidation, CategoryConfig:
		return 2
	case CategoryInternal:
		return 3
	case CategoryRemote:
		return 4
	default:
		return 1
	}
}

// GetExitCode extracts exit code from any error.
// Returns 0 for nil and for expected user errors, 1 for unclassified errors.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	var classified *ClassifiedError
	if cerr.As(err, &classified) {
		return classified.ExitCode()
	}

	if IsExpectedUserError(err) {
		return 0
	}
	return 1
}

// NewValidationError creates an error for input validation failures
func NewValidationError(message string, remediation ...string) error {
	return &ClassifiedError{
		Category:    CategoryValidation,
		Message:     message,
		Remediation: remediation,
	}
}

// NewConfigError creates an error for configuration problems
func NewConfigError(message string, cause error, remediation ...string) error {
	return &ClassifiedError{
		Category:    CategoryConfig,
		Message:     message,
		Cause:       cause,
		Remediation: remediation,
	}
}

// NewNetworkError creates an error for network issues
func NewNetworkError(message string, cause error, remediation ...string) error {
	return &ClassifiedError{
		Category:    CategoryNetwork,
		Message:     message,
		Cause:       cause,
		Remediation: remediation,
	}
}

// NewRemoteError creates an error for a failure reported by the backend
func NewRemoteError(message string, cause error, remediation ...string) error {
	return &ClassifiedError{
		Category:    CategoryRemote,
		Message:     message,
		Cause:       cause,
		Remediation: remediation,
	}
}

// NewInternalError creates an error for stretchsync bugs
func NewInternalError(message string, cause error) error {
	return &ClassifiedError{
		Category: CategoryInternal,
		Message:  message,
		Cause:    cause,
		Remediation: []string{
			"This is likely a bug in stretchsync",
			"Rerun with --log-level debug and include the output when reporting it",
		},
	}
}

// NewUserCancelledError creates an error for user-initiated cancellation
func NewUserCancelledError(operation string) error {
	return &ClassifiedError{
		Category:    CategoryUser,
		Message:     fmt.Sprintf("Operation cancelled by user: %s", operation),
		Remediation: []string{"Run the command again to retry"},
	}
}

// statusCarrier is implemented by errors that carry a backend status.
type statusCarrier interface {
	Status() int
}

// ClassifyError attempts to classify an existing error.
// Errors carrying a backend status become remote errors; a zero status
// means no response arrived and is treated as a network error.
func ClassifyError(err error, context string) error {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if cerr.As(err, &classified) {
		return err
	}

	var sc statusCarrier
	if cerr.As(err, &sc) {
		if status := sc.Status(); status != 0 {
			return NewRemoteError(
				fmt.Sprintf("%s: backend returned status %d", context, status),
				err,
				"Check the resource path and parameters",
				"Verify the API key has access to the project",
			)
		}
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "context canceled"):
		return NewUserCancelledError(context)

	case strings.Contains(errStr, "timeout"),
		strings.Contains(errStr, "connection refused"),
		strings.Contains(errStr, "no such host"),
		strings.Contains(errStr, "circuit breaker"):
		return NewNetworkError(
			fmt.Sprintf("%s: network error", context),
			err,
			"Check your network connection",
			"Verify base_url points at a reachable Stretchr endpoint",
		)

	case sc != nil:
		return NewNetworkError(fmt.Sprintf("%s: request failed", context), err)
	}

	return err
}
