package syncadapter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/entity"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/stretchr"
)

func TestExpandValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []any
	}{
		{"nil", nil, []any{nil}},
		{"scalar", 100, []any{100}},
		{"string", "~parent", []any{"~parent"}},
		{"any slice", []any{"a", 1}, []any{"a", 1}},
		{"typed slice", []string{"Ryan", "Mat"}, []any{"Ryan", "Mat"}},
		{"array", [2]int{1, 2}, []any{1, 2}},
		{"bytes", []byte("raw"), []any{"raw"}},
		{"empty slice", []string{}, []any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandValue(tt.in))
		})
	}
}

func TestApplyParamsSortsKeys(t *testing.T) {
	client := stretchr.NewClient("p", "k")
	req := client.NewRequest("people")

	applyParams(req, map[string]any{
		"offset":  100,
		":name":   []string{"Ryan", "Mat"},
		"include": "~parent",
	})

	assert.Equal(t, []string{":name", "include", "offset"}, req.Query().Keys())
	assert.Equal(t, []string{"Ryan", "Mat"}, req.Query().Get(":name"))
	decoded, err := url.QueryUnescape(req.Query().Encode())
	assert.NoError(t, err)
	assert.Equal(t, ":name=Ryan&:name=Mat&include=~parent&offset=100", decoded)
}

func TestApplyParamsWithoutParams(t *testing.T) {
	req := stretchr.NewClient("p", "k").NewRequest("people")
	assert.Same(t, req, applyParams(req, nil))
	assert.Equal(t, 0, req.Query().Len())
}

func TestResolveIntent(t *testing.T) {
	withID := entity.NewModel(nil, entity.WithID("1"))
	withoutID := entity.NewModel(nil)
	coll := entity.NewCollection("people")

	tests := []struct {
		method entity.Method
		e      entity.Entity
		want   intent
	}{
		{entity.MethodRead, withID, intentRead},
		{entity.MethodRead, withoutID, intentReadAll},
		{entity.MethodRead, coll, intentReadAll},
		{entity.MethodCreate, withoutID, intentCreate},
		{entity.MethodUpdate, withID, intentUpdate},
		{entity.MethodPatch, withID, intentPatch},
		{entity.MethodDelete, withID, intentDelete},
		{entity.MethodUnknown, withID, intentUndefined},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, resolveIntent(tt.method, tt.e))
		})
	}
}
