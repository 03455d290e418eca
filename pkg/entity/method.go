// pkg/entity/method.go

package entity

import (
	"fmt"
	"strings"

	cerr "github.com/cockroachdb/errors"
)

// Method is a persistence intent passed to a Syncer.
type Method int

const (
	MethodUnknown Method = iota
	MethodRead
	MethodCreate
	MethodUpdate
	MethodDelete
	MethodPatch
)

var methodNames = map[Method]string{
	MethodRead:   "read",
	MethodCreate: "create",
	MethodUpdate: "update",
	MethodDelete: "delete",
	MethodPatch:  "patch",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// ParseMethod maps a method name to a Method.
func ParseMethod(s string) (Method, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range methodNames {
		if n == name {
			return m, nil
		}
	}
	return MethodUnknown, cerr.Newf("unknown sync method %q", s)
}
