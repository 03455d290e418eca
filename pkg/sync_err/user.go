// pkg/sync_err/user.go

package sync_err

import (
	"fmt"
	"io"

	cerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// UserError marks an error as expected and recoverable by the user.
type UserError struct {
	cause error
}

func (e *UserError) Error() string {
	return e.cause.Error()
}

func (e *UserError) Unwrap() error {
	return e.cause
}

// NewExpectedError wraps an error for softer UX handling.
func NewExpectedError(err error) error {
	if err == nil {
		return nil
	}
	return &UserError{cause: err}
}

// IsExpectedUserError checks if the error is marked as expected.
func IsExpectedUserError(err error) bool {
	var e *UserError
	return cerr.As(err, &e)
}

// PrintError writes a human-readable error to w and logs it.
func PrintError(w io.Writer, userMessage string, err error) {
	if err == nil {
		return
	}
	if IsExpectedUserError(err) {
		zap.L().Warn(userMessage, zap.Error(err))
		fmt.Fprintf(w, "Notice: %s: %v\n", userMessage, err)
		return
	}
	zap.L().Error(userMessage, zap.Error(err))
	fmt.Fprintf(w, "Error: %s: %v\n", userMessage, err)
	for _, hint := range cerr.GetAllHints(err) {
		fmt.Fprintf(w, "Hint: %s\n", hint)
	}
}
