// pkg/syncadapter/router.go

package syncadapter

import (
	"context"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/entity"
)

// Router is the persistence hook installed on entities. Entities with a
// resolvable session go through the remote syncer; everything else goes to
// the fallback, the framework's original sync.
type Router struct {
	remote   entity.Syncer
	fallback entity.Syncer
}

var _ entity.Syncer = (*Router)(nil)

// NewRouter routes to remote when a session resolves, else to fallback.
// fallback may be nil.
func NewRouter(remote entity.Syncer, fallback entity.Syncer) *Router {
	return &Router{remote: remote, fallback: fallback}
}

func (r *Router) Sync(ctx context.Context, method entity.Method, e entity.Entity, opts *entity.Options) error {
	if HasSession(e) {
		return r.remote.Sync(ctx, method, e, opts)
	}
	if r.fallback != nil {
		return r.fallback.Sync(ctx, method, e, opts)
	}
	return ErrNoSession
}
