// pkg/envelope/accessor.go

package envelope

// AccessorResponse is a backend response exposing accessor methods.
type AccessorResponse interface {
	StatusCode() int
	Data() any
	Changes() map[string]any
	ErrorMessage() any
}

type accessor struct {
	resp AccessorResponse
}

// FromAccessor adapts an accessor-style response to Envelope.
func FromAccessor(resp AccessorResponse) Envelope {
	return accessor{resp: resp}
}

func (a accessor) Status() int {
	return a.resp.StatusCode()
}

func (a accessor) OK() bool {
	return isOK(a.resp.StatusCode())
}

func (a accessor) Data() any {
	return a.resp.Data()
}

func (a accessor) Items() []any {
	return itemsOf(a.resp.Data())
}

func (a accessor) Deltas() []map[string]any {
	changes := a.resp.Changes()
	if changes == nil {
		return nil
	}
	return normalizeDeltas(changes[KeyDeltas])
}

func (a accessor) Failure() any {
	return a.resp.ErrorMessage()
}
