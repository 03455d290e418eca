// pkg/syncadapter/intent.go

package syncadapter

import "github.com/CodeMonkeyCybersecurity/stretchsync/pkg/entity"

// intent is the adapter's dispatch key. It extends entity.Method with the
// collection-level readAll.
type intent int

const (
	intentUndefined intent = iota
	intentRead
	intentReadAll
	intentCreate
	intentUpdate
	intentPatch
	intentDelete
)

func (i intent) String() string {
	switch i {
	case intentRead:
		return "read"
	case intentReadAll:
		return "readAll"
	case intentCreate:
		return "create"
	case intentUpdate:
		return "update"
	case intentPatch:
		return "patch"
	case intentDelete:
		return "delete"
	default:
		return "undefined"
	}
}

// resolveIntent promotes a read without an identifier to readAll.
func resolveIntent(method entity.Method, e entity.Entity) intent {
	switch method {
	case entity.MethodRead:
		if e.ID() == "" {
			return intentReadAll
		}
		return intentRead
	case entity.MethodCreate:
		return intentCreate
	case entity.MethodUpdate:
		return intentUpdate
	case entity.MethodPatch:
		return intentPatch
	case entity.MethodDelete:
		return intentDelete
	default:
		return intentUndefined
	}
}
