// Package entity is the framework side of synchronization: models and
// collections with attribute bags, change tracking and an event bus, whose
// persistence operations (Fetch, Save, Destroy, Create) are delegated to a
// Syncer.
//
// A Syncer never mutates the entity. Model and Collection wrap the caller's
// success callback so that normalized results are merged into the entity
// before the caller sees them.
package entity

import (
	"context"

	cerr "github.com/cockroachdb/errors"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/remote"
)

// ErrNoSyncer is returned when neither a model nor its collection has a Syncer.
var ErrNoSyncer = cerr.New("no syncer configured for entity")

// Entity is the capability set a Syncer relies on.
type Entity interface {
	// URL is the resource path of the entity.
	URL() string
	// ID is the identifier, or "" when the entity has none.
	ID() string
	Attributes() map[string]any
	ChangedAttributes() map[string]any
	// Params are declared query parameters merged into outgoing requests.
	Params() map[string]any
	// Session is the remote session attached to the entity itself, or nil.
	Session() remote.Session
	// Collection is the owning collection, or nil.
	Collection() Entity
	Trigger(event string, args ...any)
}

// Options carries optional completion callbacks.
type Options struct {
	Success func(data any)
	Error   func(errValue any)

	// Patch asks Save to send only changed attributes.
	Patch bool
}

// Syncer is the persistence hook.
type Syncer interface {
	Sync(ctx context.Context, method Method, e Entity, opts *Options) error
}

// SyncerFunc adapts a function to Syncer.
type SyncerFunc func(ctx context.Context, method Method, e Entity, opts *Options) error

func (f SyncerFunc) Sync(ctx context.Context, method Method, e Entity, opts *Options) error {
	return f(ctx, method, e, opts)
}

// wrapOptions returns a copy of opts whose Success first runs apply.
func wrapOptions(opts *Options, apply func(data any)) *Options {
	wrapped := &Options{}
	if opts != nil {
		*wrapped = *opts
	}
	userSuccess := wrapped.Success
	wrapped.Success = func(data any) {
		apply(data)
		if userSuccess != nil {
			userSuccess(data)
		}
	}
	return wrapped
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
