// pkg/stretchr/params.go

package stretchr

import (
	"fmt"
	"net/url"
	"strings"
)

// ParamSet is an ordered multi-value query parameter set. Keys keep the
// order of their first insertion; values keep the order they were added.
type ParamSet struct {
	keys   []string
	values map[string][]string
}

// NewParamSet returns an empty set.
func NewParamSet() *ParamSet {
	return &ParamSet{values: make(map[string][]string)}
}

// Add appends value to key.
func (p *ParamSet) Add(key string, value any) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = append(p.values[key], formatValue(value))
}

// Set replaces all values of key.
func (p *ParamSet) Set(key string, value any) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = []string{formatValue(value)}
}

// Get returns the values for key.
func (p *ParamSet) Get(key string) []string {
	return p.values[key]
}

// Keys returns keys in insertion order.
func (p *ParamSet) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len is the number of distinct keys.
func (p *ParamSet) Len() int {
	return len(p.keys)
}

// Encode renders the set as a query string, repeating keys that carry
// several values.
func (p *ParamSet) Encode() string {
	var b strings.Builder
	for _, k := range p.keys {
		for _, v := range p.values[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
