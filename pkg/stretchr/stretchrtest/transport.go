// Package stretchrtest provides an in-memory Transport that records
// requests and serves canned responses.
package stretchrtest

import (
	"context"
	"net/http"
	"sync"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/envelope"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/stretchr"
)

// Recorded is a snapshot of one request as it was sent.
type Recorded struct {
	Method string
	Path   string
	Query  map[string][]string
	Body   map[string]any
}

// TestTransport records every request it receives. FakeResponse, when set,
// returns the response document for a request; otherwise {"~status":200}
// is served.
type TestTransport struct {
	mu           sync.Mutex
	requests     []Recorded
	FakeResponse func(req *stretchr.Request) map[string]any
	// Err, when set, is returned instead of a response.
	Err error
}

var _ stretchr.Transport = (*TestTransport)(nil)

// New returns a transport serving the default response.
func New() *TestTransport {
	return &TestTransport{}
}

// Respond returns a transport that always serves doc.
func Respond(doc map[string]any) *TestTransport {
	return &TestTransport{FakeResponse: func(*stretchr.Request) map[string]any { return doc }}
}

// NewClient returns a client wired to t.
func NewClient(t *TestTransport, opts ...stretchr.Option) *stretchr.Client {
	opts = append([]stretchr.Option{stretchr.WithTransport(t)}, opts...)
	return stretchr.NewClient("test", "test-key", opts...)
}

func (t *TestTransport) Do(ctx context.Context, req *stretchr.Request) (*stretchr.Payload, error) {
	query := make(map[string][]string, req.Query().Len())
	for _, k := range req.Query().Keys() {
		query[k] = append([]string(nil), req.Query().Get(k)...)
	}

	t.mu.Lock()
	t.requests = append(t.requests, Recorded{
		Method: req.Method(),
		Path:   req.Path(),
		Query:  query,
		Body:   copyDoc(req.Payload()),
	})
	respond, fail := t.FakeResponse, t.Err
	t.mu.Unlock()

	if fail != nil {
		return nil, fail
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := map[string]any{envelope.KeyStatus: http.StatusOK}
	if respond != nil {
		doc = respond(req)
	}
	status := http.StatusOK
	if s := (envelope.Raw(doc)).Status(); s != 0 {
		status = s
	}
	return &stretchr.Payload{StatusCode: status, Body: doc}, nil
}

// Requests returns the recorded requests in order.
func (t *TestTransport) Requests() []Recorded {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Recorded(nil), t.requests...)
}

// Last returns the most recent request, or the zero value.
func (t *TestTransport) Last() Recorded {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.requests) == 0 {
		return Recorded{}
	}
	return t.requests[len(t.requests)-1]
}

// Reset forgets recorded requests.
func (t *TestTransport) Reset() {
	t.mu.Lock()
	t.requests = nil
	t.mu.Unlock()
}

func copyDoc(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
