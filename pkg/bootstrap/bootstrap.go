// pkg/bootstrap/bootstrap.go
//
// Wires configuration into a ready session: HTTP client, Stretchr client,
// sync adapter and the router installed on entities.

package bootstrap

import (
	"strings"

	cerr "github.com/cockroachdb/errors"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/config"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/entity"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/httpclient"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/stretchr"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/syncadapter"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/telemetry"
)

// Stack is everything a command needs to sync entities.
type Stack struct {
	Client  *stretchr.Client
	Adapter *syncadapter.Adapter
	Router  *syncadapter.Router
}

// Option adjusts how the stack is built.
type Option func(*options)

type options struct {
	transport stretchr.Transport
	fallback  entity.Syncer
	metrics   *telemetry.SyncMetrics
}

// WithTransport replaces the HTTP transport, typically with a test fake.
func WithTransport(t stretchr.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithFallback routes entities without a session to s.
func WithFallback(s entity.Syncer) Option {
	return func(o *options) { o.fallback = s }
}

// WithMetrics records sync metrics on m instead of the global meter.
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// New builds a Stack from cfg.
func New(cfg *config.Config, opts ...Option) (*Stack, error) {
	if cfg == nil {
		return nil, cerr.AssertionFailedf("bootstrap: nil config")
	}
	o := &options{metrics: telemetry.DefaultSyncMetrics()}
	for _, opt := range opts {
		opt(o)
	}

	transport := o.transport
	if transport == nil {
		hc, err := httpclient.NewClient(cfg.HTTPClientConfig())
		if err != nil {
			return nil, cerr.Wrap(err, "failed to build HTTP client")
		}
		transport = stretchr.NewHTTPTransport(cfg.BaseURL, hc)
	}

	client := stretchr.NewClient(cfg.Project, cfg.APIKey,
		stretchr.WithTransport(transport),
		stretchr.WithEnvelopeShape(cfg.EnvelopeShape()))

	adapter := syncadapter.New(syncadapter.WithMetrics(o.metrics))
	return &Stack{
		Client:  client,
		Adapter: adapter,
		Router:  syncadapter.NewRouter(adapter, o.fallback),
	}, nil
}

// Target is a resource path split into its collection path and optional id.
type Target struct {
	Collection string
	ID         string
}

// ParseTarget splits path. Paths with an odd number of segments name a
// collection ("people", "groups/1/people"); an even number means the last
// segment is a resource id ("people/1").
func ParseTarget(path string) (Target, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return Target{}, cerr.WithHint(cerr.New("empty resource path"), "pass a path such as people or people/1")
	}
	segments := strings.Split(trimmed, "/")
	for _, s := range segments {
		if s == "" {
			return Target{}, cerr.Newf("resource path %q has an empty segment", path)
		}
	}
	if len(segments)%2 == 1 {
		return Target{Collection: trimmed}, nil
	}
	return Target{
		Collection: strings.Join(segments[:len(segments)-1], "/"),
		ID:         segments[len(segments)-1],
	}, nil
}

// IsCollection reports whether the target names a collection.
func (t Target) IsCollection() bool {
	return t.ID == ""
}

// Collection returns a collection at path with the stack's session and router.
func (s *Stack) Collection(path string, params map[string]any) *entity.Collection {
	return entity.NewCollection(path,
		entity.WithCollectionSession(s.Client),
		entity.WithCollectionSyncer(s.Router),
		entity.WithCollectionParams(params))
}

// Model returns a model for the target with the stack's session and router.
// A collection target yields a new model rooted at the collection.
func (s *Stack) Model(t Target, attrs map[string]any, params map[string]any) *entity.Model {
	opts := []entity.ModelOption{
		entity.WithURLRoot(t.Collection),
		entity.WithSession(s.Client),
		entity.WithSyncer(s.Router),
		entity.WithParams(params),
	}
	if t.ID != "" {
		opts = append(opts, entity.WithID(t.ID))
	}
	return entity.NewModel(attrs, opts...)
}
