// pkg/entity/model.go

package entity

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/envelope"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/remote"
)

// DefaultIDAttribute is the attribute holding a model's identifier.
const DefaultIDAttribute = envelope.KeyID

// Model is a single resource with an attribute bag.
type Model struct {
	Events

	mu          sync.RWMutex
	attrs       map[string]any
	changed     map[string]any
	idAttribute string
	urlRoot     string
	url         string
	collection  *Collection
	session     remote.Session
	params      map[string]any
	syncer      Syncer
}

var _ Entity = (*Model)(nil)

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithURLRoot sets the path the model URL is built from.
func WithURLRoot(root string) ModelOption {
	return func(m *Model) { m.urlRoot = root }
}

// WithURL overrides the model URL entirely.
func WithURL(u string) ModelOption {
	return func(m *Model) { m.url = u }
}

// WithID sets the identifier attribute.
func WithID(id string) ModelOption {
	return func(m *Model) { m.attrs[m.idAttribute] = id }
}

// WithIDAttribute changes which attribute holds the identifier.
func WithIDAttribute(name string) ModelOption {
	return func(m *Model) {
		if name != "" {
			m.idAttribute = name
		}
	}
}

// WithSession attaches a remote session to the model.
func WithSession(s remote.Session) ModelOption {
	return func(m *Model) { m.session = s }
}

// WithParams declares query parameters sent with reads.
func WithParams(params map[string]any) ModelOption {
	return func(m *Model) { m.params = copyMap(params) }
}

// WithSyncer sets the persistence hook used by the model.
func WithSyncer(s Syncer) ModelOption {
	return func(m *Model) { m.syncer = s }
}

// NewModel creates a model. Initial attributes are not marked as changed.
// Options apply in order, so WithIDAttribute must precede WithID.
func NewModel(attrs map[string]any, opts ...ModelOption) *Model {
	m := &Model{
		attrs:       make(map[string]any, len(attrs)),
		changed:     make(map[string]any),
		idAttribute: DefaultIDAttribute,
	}
	for k, v := range attrs {
		m.attrs[k] = v
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns one attribute.
func (m *Model) Get(key string) any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attrs[key]
}

// Set assigns attributes and records them as changed.
func (m *Model) Set(attrs map[string]any) {
	if len(attrs) == 0 {
		return
	}
	m.mu.Lock()
	for k, v := range attrs {
		m.attrs[k] = v
		m.changed[k] = v
	}
	m.mu.Unlock()
	m.Trigger(EventChange, m, copyMap(attrs))
}

// Unset removes an attribute. The removal is recorded as a nil change so a
// patch clears the remote field.
func (m *Model) Unset(key string) {
	m.mu.Lock()
	_, existed := m.attrs[key]
	delete(m.attrs, key)
	if existed {
		m.changed[key] = nil
	}
	m.mu.Unlock()
	if existed {
		m.Trigger(EventChange, m, map[string]any{key: nil})
	}
}

// ID returns the identifier attribute as a string, or "".
func (m *Model) ID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.attrs[m.idAttribute]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// SetID assigns the identifier without marking it changed.
func (m *Model) SetID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attrs[m.idAttribute] = id
}

// IsNew reports whether the model has never been persisted.
func (m *Model) IsNew() bool {
	return m.ID() == ""
}

// URL is the explicit URL, else root[/id] where root is the URL root or the
// owning collection's URL.
func (m *Model) URL() string {
	m.mu.RLock()
	explicit, root, coll := m.url, m.urlRoot, m.collection
	m.mu.RUnlock()

	if explicit != "" {
		return explicit
	}
	if root == "" && coll != nil {
		root = coll.URL()
	}
	id := m.ID()
	if id == "" {
		return root
	}
	return strings.TrimSuffix(root, "/") + "/" + url.PathEscape(id)
}

// Attributes returns a copy of the full attribute bag.
func (m *Model) Attributes() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyMap(m.attrs)
}

// ChangedAttributes returns the attributes changed since the last sync.
func (m *Model) ChangedAttributes() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyMap(m.changed)
}

// HasChanged reports whether any attribute changed since the last sync.
func (m *Model) HasChanged() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.changed) > 0
}

func (m *Model) Params() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyMap(m.params)
}

// SetParams replaces the declared query parameters.
func (m *Model) SetParams(params map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params = copyMap(params)
}

func (m *Model) Session() remote.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// SetSession attaches a remote session.
func (m *Model) SetSession(s remote.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
}

// Collection returns the owning collection, or nil.
func (m *Model) Collection() Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.collection == nil {
		return nil
	}
	return m.collection
}

// Owner returns the owning collection as its concrete type.
func (m *Model) Owner() *Collection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collection
}

func (m *Model) setCollection(c *Collection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection = c
}

func (m *Model) resolveSyncer() (Syncer, error) {
	m.mu.RLock()
	s, coll := m.syncer, m.collection
	m.mu.RUnlock()
	if s != nil {
		return s, nil
	}
	if coll != nil {
		if cs := coll.syncerOrNil(); cs != nil {
			return cs, nil
		}
	}
	return nil, ErrNoSyncer
}

// merge applies server state and clears change tracking.
func (m *Model) merge(data any) {
	attrs, ok := data.(map[string]any)
	if !ok {
		return
	}
	m.mu.Lock()
	for k, v := range attrs {
		m.attrs[k] = v
	}
	m.changed = make(map[string]any)
	m.mu.Unlock()
	if len(attrs) > 0 {
		m.Trigger(EventChange, m, copyMap(attrs))
	}
}

// saved clears pending changes and merges the returned delta record.
func (m *Model) saved(data any) {
	m.mu.Lock()
	m.changed = make(map[string]any)
	m.mu.Unlock()
	m.merge(data)
}

// Fetch reads the model and merges the returned attributes. A model without
// an id is read as a collection; a list result leaves the model untouched.
func (m *Model) Fetch(ctx context.Context, opts *Options) error {
	s, err := m.resolveSyncer()
	if err != nil {
		return err
	}
	return s.Sync(ctx, MethodRead, m, wrapOptions(opts, m.merge))
}

// Save sets attrs and persists the model: create when new, patch when
// opts.Patch is set, otherwise a full update. The returned delta record
// (new id, timestamps) is merged into the model.
func (m *Model) Save(ctx context.Context, attrs map[string]any, opts *Options) error {
	s, err := m.resolveSyncer()
	if err != nil {
		return err
	}
	m.Set(attrs)

	method := MethodUpdate
	switch {
	case m.IsNew():
		method = MethodCreate
	case opts != nil && opts.Patch:
		method = MethodPatch
	}
	return s.Sync(ctx, method, m, wrapOptions(opts, m.saved))
}

// Destroy deletes the model remotely, then removes it from its collection.
// A new model is removed locally without a request.
func (m *Model) Destroy(ctx context.Context, opts *Options) error {
	finish := func(any) {
		m.Trigger(EventDestroy, m)
		if coll := m.Owner(); coll != nil {
			coll.Remove(m)
		}
	}

	if m.IsNew() {
		wrapped := wrapOptions(opts, finish)
		wrapped.Success(nil)
		return nil
	}

	s, err := m.resolveSyncer()
	if err != nil {
		return err
	}
	return s.Sync(ctx, MethodDelete, m, wrapOptions(opts, finish))
}
