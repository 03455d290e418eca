// pkg/syncadapter/session.go

package syncadapter

import (
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/entity"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/remote"
)

// ResolveSession returns the session attached to the entity, else the one
// attached to its owning collection, else ErrNoSession.
func ResolveSession(e entity.Entity) (remote.Session, error) {
	if e == nil {
		return nil, ErrNoSession
	}
	if s := e.Session(); s != nil {
		return s, nil
	}
	if coll := e.Collection(); coll != nil {
		if s := coll.Session(); s != nil {
			return s, nil
		}
	}
	return nil, ErrNoSession
}

// HasSession reports whether ResolveSession would succeed.
func HasSession(e entity.Entity) bool {
	_, err := ResolveSession(e)
	return err == nil
}
