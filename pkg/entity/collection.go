// pkg/entity/collection.go

package entity

import (
	"context"
	"sync"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/remote"
)

// Collection is an ordered set of models sharing a resource path.
type Collection struct {
	Events

	mu          sync.RWMutex
	url         string
	models      []*Model
	session     remote.Session
	params      map[string]any
	syncer      Syncer
	idAttribute string
}

var _ Entity = (*Collection)(nil)

// CollectionOption configures a Collection.
type CollectionOption func(*Collection)

// WithCollectionSession attaches a remote session shared by member models.
func WithCollectionSession(s remote.Session) CollectionOption {
	return func(c *Collection) { c.session = s }
}

// WithCollectionParams declares query parameters sent with collection reads.
func WithCollectionParams(params map[string]any) CollectionOption {
	return func(c *Collection) { c.params = copyMap(params) }
}

// WithCollectionSyncer sets the persistence hook for the collection and
// models that do not have their own.
func WithCollectionSyncer(s Syncer) CollectionOption {
	return func(c *Collection) { c.syncer = s }
}

// WithModelIDAttribute sets the id attribute of models built by the collection.
func WithModelIDAttribute(name string) CollectionOption {
	return func(c *Collection) { c.idAttribute = name }
}

// NewCollection creates an empty collection at url.
func NewCollection(url string, opts ...CollectionOption) *Collection {
	c := &Collection{url: url, idAttribute: DefaultIDAttribute}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Collection) URL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.url
}

// ID is always empty; reads on a collection are collection reads.
func (c *Collection) ID() string { return "" }

func (c *Collection) Attributes() map[string]any { return nil }

func (c *Collection) ChangedAttributes() map[string]any { return nil }

func (c *Collection) Params() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyMap(c.params)
}

// SetParams replaces the declared query parameters.
func (c *Collection) SetParams(params map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = copyMap(params)
}

func (c *Collection) Session() remote.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// SetSession attaches a remote session.
func (c *Collection) SetSession(s remote.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// Collection is nil; collections are not nested.
func (c *Collection) Collection() Entity { return nil }

func (c *Collection) syncerOrNil() Syncer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.syncer
}

// Models returns a snapshot of the member models.
func (c *Collection) Models() []*Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Model(nil), c.models...)
}

// Len is the number of member models.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

// At returns the model at index i, or nil when out of range.
func (c *Collection) At(i int) *Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.models) {
		return nil
	}
	return c.models[i]
}

// Get finds a member model by id.
func (c *Collection) Get(id string) *Model {
	if id == "" {
		return nil
	}
	for _, m := range c.Models() {
		if m.ID() == id {
			return m
		}
	}
	return nil
}

// NewMember builds a model owned by the collection without adding it.
func (c *Collection) NewMember(attrs map[string]any) *Model {
	c.mu.RLock()
	idAttr := c.idAttribute
	c.mu.RUnlock()
	m := NewModel(attrs, WithIDAttribute(idAttr))
	m.setCollection(c)
	return m
}

// Add appends models and takes ownership of them.
func (c *Collection) Add(models ...*Model) {
	for _, m := range models {
		if m == nil {
			continue
		}
		m.setCollection(c)
		c.mu.Lock()
		c.models = append(c.models, m)
		c.mu.Unlock()
		c.Trigger(EventAdd, m, c)
	}
}

// Remove drops a model from the collection.
func (c *Collection) Remove(m *Model) {
	c.mu.Lock()
	idx := -1
	for i, existing := range c.models {
		if existing == m {
			idx = i
			break
		}
	}
	if idx >= 0 {
		c.models = append(c.models[:idx], c.models[idx+1:]...)
	}
	c.mu.Unlock()
	if idx >= 0 {
		m.setCollection(nil)
		c.Trigger(EventRemove, m, c)
	}
}

// Reset replaces the members with models built from items.
func (c *Collection) Reset(items []any) {
	models := make([]*Model, 0, len(items))
	for _, item := range items {
		attrs, ok := item.(map[string]any)
		if !ok {
			continue
		}
		models = append(models, c.NewMember(attrs))
	}
	c.mu.Lock()
	c.models = models
	c.mu.Unlock()
	c.Trigger(EventReset, c)
}

// Fetch reads the collection and resets its members from the returned items.
func (c *Collection) Fetch(ctx context.Context, opts *Options) error {
	s := c.syncerOrNil()
	if s == nil {
		return ErrNoSyncer
	}
	return s.Sync(ctx, MethodRead, c, wrapOptions(opts, func(data any) {
		items, _ := data.([]any)
		c.Reset(items)
	}))
}

// Create adds a new model built from attrs and saves it.
func (c *Collection) Create(ctx context.Context, attrs map[string]any, opts *Options) (*Model, error) {
	m := c.NewMember(nil)
	m.Set(attrs)
	c.Add(m)
	if err := m.Save(ctx, nil, opts); err != nil {
		return m, err
	}
	return m, nil
}
