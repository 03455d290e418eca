package stretchr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamSetKeepsInsertionOrder(t *testing.T) {
	p := NewParamSet()
	p.Add("include", "~parent")
	p.Add(":name", "Ryan")
	p.Add("offset", 100)
	p.Add(":name", "Mat")

	assert.Equal(t, []string{"include", ":name", "offset"}, p.Keys())
	assert.Equal(t, []string{"Ryan", "Mat"}, p.Get(":name"))
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, "include=~parent&%3Aname=Ryan&%3Aname=Mat&offset=100", p.Encode())
}

func TestParamSetSetReplaces(t *testing.T) {
	p := NewParamSet()
	p.Add("limit", 10)
	p.Add("limit", 20)
	p.Set("limit", 5)

	assert.Equal(t, []string{"5"}, p.Get("limit"))
	assert.Equal(t, "limit=5", p.Encode())
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{[]byte("raw"), "raw"},
		{true, "true"},
		{21, "21"},
		{1.5, "1.5"},
		{">21", ">21"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatValue(tt.in))
	}
}

func TestEmptyParamSetEncodesEmpty(t *testing.T) {
	assert.Equal(t, "", NewParamSet().Encode())
	assert.Empty(t, NewParamSet().Keys())
}
