// pkg/envelope/envelope.go
//
// Normalized view over Stretchr response envelopes.
//
// Two backend SDK revisions exist: one exposes responses through accessor
// methods (StatusCode/Data/Changes/ErrorMessage), the other hands back the raw
// keyed document ("~status", "~data", "~changes", ...). Both are adapted to the
// Envelope interface here so the sync adapter has a single code path.

package envelope

import (
	"encoding/json"
	"strings"

	cerr "github.com/cockroachdb/errors"
)

// Response keys used by the Stretchr wire format.
const (
	KeyStatus   = "~status"
	KeyData     = "~data"
	KeyItems    = "~items"
	KeyCount    = "~count"
	KeyChanges  = "~changes"
	KeyDeltas   = "~deltas"
	KeyErrors   = "~errors"
	KeyMessage  = "~message"
	KeyID       = "~id"
	KeyCreated  = "~created"
	KeyUpdated  = "~updated"
	KeyDeleted  = "~deleted"
	KeyReplaced = "~replaced"
)

// Envelope is the backend response as seen by the sync adapter.
type Envelope interface {
	// Status is the backend status code carried by the envelope.
	Status() int
	// OK reports whether Status is in the 2xx range.
	OK() bool
	// Data is the payload of a single read.
	Data() any
	// Items is the list nested under the data payload of a collection read.
	Items() []any
	// Deltas are the change records returned by write operations.
	Deltas() []map[string]any
	// Failure is the error content reported to callers on a failed request.
	Failure() any
}

// Shape selects which backend adapter decodes responses.
type Shape string

const (
	// ShapeAccessor wraps responses exposing accessor methods.
	ShapeAccessor Shape = "accessor"
	// ShapeRaw uses the raw keyed document as-is.
	ShapeRaw Shape = "raw"
)

// ParseShape converts a configuration string into a Shape.
func ParseShape(s string) (Shape, error) {
	switch Shape(strings.ToLower(strings.TrimSpace(s))) {
	case ShapeAccessor, "":
		return ShapeAccessor, nil
	case ShapeRaw:
		return ShapeRaw, nil
	default:
		return "", cerr.Newf("unknown envelope shape %q (want %q or %q)", s, ShapeAccessor, ShapeRaw)
	}
}

// FirstDelta returns the first delta record, or nil when there is none.
// Multi-create responses carry several records; only the first is used.
func FirstDelta(deltas []map[string]any) map[string]any {
	if len(deltas) == 0 {
		return nil
	}
	return deltas[0]
}

func isOK(status int) bool {
	return status >= 200 && status < 300
}

// itemsOf extracts the "~items" list from a data payload.
func itemsOf(data any) []any {
	m, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	switch items := m[KeyItems].(type) {
	case []any:
		return items
	case []map[string]any:
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = item
		}
		return out
	default:
		return nil
	}
}

// normalizeDeltas accepts a list of records or a single record.
func normalizeDeltas(v any) []map[string]any {
	switch d := v.(type) {
	case []map[string]any:
		return d
	case []any:
		out := make([]map[string]any, 0, len(d))
		for _, item := range d {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		return []map[string]any{d}
	default:
		return nil
	}
}

// toInt converts JSON-decoded numbers to int.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0
		}
		return int(i)
	default:
		return 0
	}
}
