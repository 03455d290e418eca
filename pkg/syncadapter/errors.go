// pkg/syncadapter/errors.go

package syncadapter

import (
	"fmt"

	cerr "github.com/cockroachdb/errors"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/envelope"
)

// MethodUndefinedMessage is the payload of the error event emitted for an
// intent without a handler.
const MethodUndefinedMessage = "Method undefined!"

var (
	// ErrNoSession means neither the entity nor its collection carries a session.
	ErrNoSession = cerr.New("no remote session attached to entity or its collection")

	// ErrMethodUndefined means the intent has no registered handler.
	ErrMethodUndefined = cerr.New(MethodUndefinedMessage)
)

// RemoteError is returned by Sync when a dispatched request failed. Value is
// the same normalized error content passed to the error callback.
type RemoteError struct {
	Intent string
	Path   string
	Value  any

	// StatusCode is the envelope status, zero when no envelope was produced.
	StatusCode int
}

func (e *RemoteError) Error() string {
	if err, ok := e.Value.(error); ok {
		return fmt.Sprintf("%s %s failed: %v", e.Intent, e.Path, err)
	}
	if status := e.Status(); status != 0 {
		return fmt.Sprintf("%s %s failed with status %d", e.Intent, e.Path, status)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Intent, e.Path, e.Value)
}

// Unwrap exposes a transport error carried as the failure value.
func (e *RemoteError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Status is the backend status of the failed request, or zero.
func (e *RemoteError) Status() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	if m, ok := e.Value.(map[string]any); ok {
		return envelope.Raw(m).Status()
	}
	return 0
}
