// pkg/stretchr/response.go

package stretchr

import (
	"net/http"
	"strings"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/envelope"
)

// Payload is what a Transport hands back: the HTTP status and the decoded
// response document.
type Payload struct {
	StatusCode int
	Body       map[string]any
}

// Response exposes a decoded document through accessor methods.
type Response struct {
	payload *Payload
}

var _ envelope.AccessorResponse = (*Response)(nil)

// NewResponse wraps p.
func NewResponse(p *Payload) *Response {
	if p == nil {
		p = &Payload{}
	}
	if p.Body == nil {
		p.Body = map[string]any{}
	}
	return &Response{payload: p}
}

// StatusCode prefers the "~status" field over the transport status.
func (r *Response) StatusCode() int {
	if s, ok := r.payload.Body[envelope.KeyStatus]; ok {
		return envelope.Raw{envelope.KeyStatus: s}.Status()
	}
	return r.payload.StatusCode
}

// Data is the "~data" field.
func (r *Response) Data() any {
	return r.payload.Body[envelope.KeyData]
}

// Changes is the "~changes" field, or nil.
func (r *Response) Changes() map[string]any {
	changes, _ := r.payload.Body[envelope.KeyChanges].(map[string]any)
	return changes
}

// ErrorMessage joins the "~message" of every "~errors" entry. Without
// errors it falls back to the HTTP status text.
func (r *Response) ErrorMessage() any {
	var msgs []string
	if list, ok := r.payload.Body[envelope.KeyErrors].([]any); ok {
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				if msg, ok := m[envelope.KeyMessage].(string); ok && msg != "" {
					msgs = append(msgs, msg)
				}
			}
		}
	}
	if len(msgs) > 0 {
		return strings.Join(msgs, "; ")
	}
	return http.StatusText(r.StatusCode())
}

// Raw returns the decoded document.
func (r *Response) Raw() map[string]any {
	return r.payload.Body
}

// decode adapts a payload to the configured envelope shape.
func decode(shape envelope.Shape, p *Payload) envelope.Envelope {
	if shape == envelope.ShapeRaw {
		doc := make(envelope.Raw, len(p.Body)+1)
		for k, v := range p.Body {
			doc[k] = v
		}
		if _, ok := doc[envelope.KeyStatus]; !ok {
			doc[envelope.KeyStatus] = p.StatusCode
		}
		return doc
	}
	return envelope.FromAccessor(NewResponse(p))
}
