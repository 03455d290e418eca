// pkg/syncadapter/params.go

package syncadapter

import (
	"reflect"
	"sort"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/remote"
)

// applyParams attaches declared parameters. Keys are applied in sorted order;
// slice and array values become one entry per element, in element order.
func applyParams(req remote.RequestBuilder, params map[string]any) remote.RequestBuilder {
	if len(params) == 0 {
		return req
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		for _, v := range expandValue(params[key]) {
			req = req.Param(key, v)
		}
	}
	return req
}

// expandValue flattens one level of slice or array. Byte slices are scalars.
func expandValue(v any) []any {
	switch t := v.(type) {
	case nil:
		return []any{nil}
	case []any:
		return t
	case []byte:
		return []any{string(t)}
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
