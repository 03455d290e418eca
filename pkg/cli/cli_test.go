package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyValues(t *testing.T) {
	tests := []struct {
		name  string
		pairs []string
		want  map[string]any
	}{
		{
			name:  "strings and numbers",
			pairs: []string{"name=Mat", "age=30"},
			want:  map[string]any{"name": "Mat", "age": float64(30)},
		},
		{
			name:  "repeated key collects values",
			pairs: []string{":name=Ryan", ":name=Mat"},
			want:  map[string]any{":name": []any{"Ryan", "Mat"}},
		},
		{
			name:  "operator values stay strings",
			pairs: []string{":age=>21", "include=~parent"},
			want:  map[string]any{":age": ">21", "include": "~parent"},
		},
		{
			name:  "json array is a single value",
			pairs: []string{"tags=[\"a\",\"b\"]"},
			want:  map[string]any{"tags": []any{"a", "b"}},
		},
		{
			name:  "value may contain equals",
			pairs: []string{"expr=a=b"},
			want:  map[string]any{"expr": "a=b"},
		},
		{
			name:  "null then value",
			pairs: []string{"x=null", "x=1", "x=2"},
			want:  map[string]any{"x": []any{nil, float64(1), float64(2)}},
		},
		{
			name:  "empty",
			pairs: nil,
			want:  map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKeyValues(tt.pairs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKeyValuesReportsEveryBadPair(t *testing.T) {
	_, err := ParseKeyValues([]string{"ok=1", "broken", "=nokey"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"broken"`)
	assert.Contains(t, err.Error(), `"=nokey"`)
}

func TestBindFlagsToViper(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	AddStringFlag(cmd, "project", "p", "", "project", false)
	AddBoolFlag(cmd, "insecure-tls", "", false, "skip tls")
	cmd.PersistentFlags().String("log-level", "info", "level")

	require.NoError(t, cmd.Flags().Set("project", "acme"))
	require.NoError(t, cmd.Flags().Set("insecure-tls", "true"))

	v := viper.New()
	require.NoError(t, BindFlagsToViper(cmd, v))

	assert.Equal(t, "acme", v.GetString("project"))
	assert.True(t, v.GetBool("insecure_tls"))
	assert.Equal(t, "info", v.GetString("log_level"))
}

func TestSetViperEnvPrefix(t *testing.T) {
	t.Setenv("STRETCHSYNC_HTTP_TIMEOUT", "3s")
	t.Setenv("STRETCHSYNC_PROJECT", "acme")

	v := viper.New()
	SetViperEnvPrefix(v, "STRETCHSYNC")

	assert.Equal(t, "acme", v.GetString("project"))
	assert.Equal(t, "3s", v.GetString("http.timeout"))
}

func TestGetRequiredString(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	AddStringFlag(cmd, "path", "", "", "path", false)

	_, err := GetRequiredString(cmd, "path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--path is empty")

	require.NoError(t, cmd.Flags().Set("path", "people"))
	got, err := GetRequiredString(cmd, "path")
	require.NoError(t, err)
	assert.Equal(t, "people", got)

	_, err = GetRequiredString(cmd, "missing")
	assert.Error(t, err)
}

func TestAddStringArrayFlagKeepsCommas(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	AddStringArrayFlag(cmd, "set", "s", "attributes")
	require.NoError(t, cmd.Flags().Set("set", "tags=a,b"))
	require.NoError(t, cmd.Flags().Set("set", "name=Mat"))

	got, err := cmd.Flags().GetStringArray("set")
	require.NoError(t, err)
	assert.Equal(t, []string{"tags=a,b", "name=Mat"}, got)
}
