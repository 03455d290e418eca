// pkg/envelope/raw.go

package envelope

// Raw is an envelope read directly from the keyed response document.
type Raw map[string]any

var _ Envelope = Raw(nil)

func (r Raw) Status() int {
	return toInt(r[KeyStatus])
}

func (r Raw) OK() bool {
	return isOK(r.Status())
}

func (r Raw) Data() any {
	return r[KeyData]
}

func (r Raw) Items() []any {
	return itemsOf(r[KeyData])
}

// Deltas reads "~changes.~deltas", falling back to a top-level "~deltas"
// used by older SDK revisions.
func (r Raw) Deltas() []map[string]any {
	if changes, ok := r[KeyChanges].(map[string]any); ok {
		if d, ok := changes[KeyDeltas]; ok {
			return normalizeDeltas(d)
		}
	}
	return normalizeDeltas(r[KeyDeltas])
}

// Failure returns the whole envelope so callers can inspect status and errors.
func (r Raw) Failure() any {
	return map[string]any(r)
}
