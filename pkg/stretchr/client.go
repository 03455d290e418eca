// Package stretchr is a small request-builder SDK for the Stretchr data
// service. A Client is bound to a project and API key; At returns a
// Request for a resource path that accumulates query parameters and issues
// exactly one CRUD call through a pluggable Transport.
package stretchr

import (
	"context"

	cerr "github.com/cockroachdb/errors"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/envelope"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/remote"
)

// HTTP methods used by the SDK.
const (
	GET    = "GET"
	POST   = "POST"
	PUT    = "PUT"
	PATCH  = "PATCH"
	DELETE = "DELETE"
)

// ErrNoTransport is returned when a request is issued on a client without
// a transport.
var ErrNoTransport = cerr.New("stretchr client has no transport")

// Transport executes a built request.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Payload, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Payload, error)

func (f TransportFunc) Do(ctx context.Context, req *Request) (*Payload, error) {
	return f(ctx, req)
}

// Client is a session bound to one project and API key.
type Client struct {
	project   string
	apiKey    string
	transport Transport
	shape     envelope.Shape
}

var _ remote.Session = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the transport used to issue requests.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithEnvelopeShape selects how responses are handed to callers.
func WithEnvelopeShape(s envelope.Shape) Option {
	return func(c *Client) { c.shape = s }
}

// NewClient returns a client using the accessor envelope shape unless
// told otherwise.
func NewClient(project, apiKey string, opts ...Option) *Client {
	c := &Client{
		project: project,
		apiKey:  apiKey,
		shape:   envelope.ShapeAccessor,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// At returns a request builder for path.
func (c *Client) At(path string) remote.RequestBuilder {
	return c.NewRequest(path)
}

// NewRequest is At with the concrete type.
func (c *Client) NewRequest(path string) *Request {
	return &Request{client: c, path: path, query: NewParamSet()}
}

// SetTransport replaces the transport.
func (c *Client) SetTransport(t Transport) {
	c.transport = t
}

func (c *Client) Transport() Transport { return c.transport }

func (c *Client) Project() string { return c.project }

func (c *Client) APIKey() string { return c.apiKey }

func (c *Client) EnvelopeShape() envelope.Shape { return c.shape }
