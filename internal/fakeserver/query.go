// internal/fakeserver/query.go

package fakeserver

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	cerr "github.com/cockroachdb/errors"
)

// query holds the filters and paging of a collection read. Parameters
// prefixed with ":" filter on a field; repeated values are alternatives.
type query struct {
	filters map[string][]condition
	limit   int
	skip    int
}

type condition struct {
	op    string
	value string
}

var operators = []string{">=", "<=", "!", ">", "<"}

func parseQuery(values url.Values) (*query, error) {
	q := &query{filters: make(map[string][]condition), limit: -1}
	for key, vals := range values {
		switch {
		case strings.HasPrefix(key, ":") && len(key) > 1:
			field := key[1:]
			for _, v := range vals {
				q.filters[field] = append(q.filters[field], parseCondition(v))
			}
		case key == "limit":
			n, err := nonNegative(key, vals)
			if err != nil {
				return nil, err
			}
			q.limit = n
		case key == "skip" || key == "offset":
			n, err := nonNegative(key, vals)
			if err != nil {
				return nil, err
			}
			q.skip = n
		}
	}
	return q, nil
}

func nonNegative(key string, vals []string) (int, error) {
	n, err := strconv.Atoi(vals[len(vals)-1])
	if err != nil || n < 0 {
		return 0, cerr.Newf("Parameter %s must be a non-negative integer.", key)
	}
	return n, nil
}

func parseCondition(v string) condition {
	for _, op := range operators {
		if strings.HasPrefix(v, op) {
			return condition{op: op, value: v[len(op):]}
		}
	}
	return condition{op: "=", value: v}
}

// matches reports whether doc satisfies every field filter.
func (q *query) matches(doc map[string]any) bool {
	for field, conds := range q.filters {
		v, ok := doc[field]
		if !ok {
			return false
		}
		hit := false
		for _, c := range conds {
			if c.test(v) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func (q *query) page(items []map[string]any) []map[string]any {
	if q.skip >= len(items) {
		return []map[string]any{}
	}
	items = items[q.skip:]
	if q.limit >= 0 && q.limit < len(items) {
		items = items[:q.limit]
	}
	return items
}

func (c condition) test(v any) bool {
	cmp, ok := compare(v, c.value)
	switch c.op {
	case "=":
		return ok && cmp == 0
	case "!":
		return !ok || cmp != 0
	case ">":
		return ok && cmp > 0
	case "<":
		return ok && cmp < 0
	case ">=":
		return ok && cmp >= 0
	case "<=":
		return ok && cmp <= 0
	default:
		return false
	}
}

// compare orders a stored value against a query literal, numerically when
// both are numbers and as strings otherwise.
func compare(v any, literal string) (int, bool) {
	if i, ok := v.(int64); ok {
		v = float64(i)
	}
	switch n := v.(type) {
	case float64:
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return 0, false
		}
		switch {
		case n < f:
			return -1, true
		case n > f:
			return 1, true
		default:
			return 0, true
		}
	case nil:
		return 0, false
	default:
		return strings.Compare(fmt.Sprint(v), literal), true
	}
}
