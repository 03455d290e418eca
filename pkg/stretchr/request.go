// pkg/stretchr/request.go

package stretchr

import (
	"context"

	cerr "github.com/cockroachdb/errors"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/envelope"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/remote"
)

// Request is a single pending call against a resource path.
type Request struct {
	client *Client
	method string
	path   string
	query  *ParamSet
	body   map[string]any
}

var _ remote.RequestBuilder = (*Request)(nil)

// Param appends one value for key.
func (r *Request) Param(key string, value any) remote.RequestBuilder {
	r.query.Add(key, value)
	return r
}

// Params appends every value for key.
func (r *Request) Params(key string, values ...any) *Request {
	for _, v := range values {
		r.query.Add(key, v)
	}
	return r
}

// Body sets the request document.
func (r *Request) Body(body map[string]any) *Request {
	r.body = body
	return r
}

func (r *Request) Method() string { return r.method }

func (r *Request) Path() string { return r.path }

func (r *Request) Query() *ParamSet { return r.query }

func (r *Request) Payload() map[string]any { return r.body }

func (r *Request) Client() *Client { return r.client }

// Read issues a GET.
func (r *Request) Read(ctx context.Context) (envelope.Envelope, error) {
	return r.do(ctx, GET, nil)
}

// Create issues a POST with body.
func (r *Request) Create(ctx context.Context, body map[string]any) (envelope.Envelope, error) {
	return r.do(ctx, POST, body)
}

// Update issues a PUT, replacing the resource with body.
func (r *Request) Update(ctx context.Context, body map[string]any) (envelope.Envelope, error) {
	return r.do(ctx, PUT, body)
}

// Patch issues a PATCH, merging body into the resource.
func (r *Request) Patch(ctx context.Context, body map[string]any) (envelope.Envelope, error) {
	return r.do(ctx, PATCH, body)
}

// Remove issues a DELETE.
func (r *Request) Remove(ctx context.Context) (envelope.Envelope, error) {
	return r.do(ctx, DELETE, nil)
}

func (r *Request) do(ctx context.Context, method string, body map[string]any) (envelope.Envelope, error) {
	if r.client.transport == nil {
		return nil, ErrNoTransport
	}
	r.method = method
	if body != nil {
		r.body = body
	}

	payload, err := r.client.transport.Do(ctx, r)
	if err != nil {
		return nil, cerr.Wrapf(err, "%s %s", method, r.path)
	}
	if payload == nil {
		return nil, cerr.Newf("%s %s: transport returned no payload", method, r.path)
	}
	return decode(r.client.shape, payload), nil
}
