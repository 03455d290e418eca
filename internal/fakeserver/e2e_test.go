package fakeserver_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeMonkeyCybersecurity/stretchsync/internal/fakeserver"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/bootstrap"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/config"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/entity"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/syncadapter"
)

func newStack(t *testing.T, shape string) (*bootstrap.Stack, *fakeserver.Server) {
	t.Helper()
	srv := fakeserver.New(
		fakeserver.WithAPIKey("k3y"),
		fakeserver.WithClock(func() time.Time { return time.UnixMilli(1234) }))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	cfg := &config.Config{
		Project:  "acme",
		APIKey:   "k3y",
		BaseURL:  ts.URL + fakeserver.PathPrefix,
		Envelope: shape,
		HTTP:     config.HTTPConfig{Timeout: 5 * time.Second},
		LogLevel: "info",
	}
	require.NoError(t, cfg.Validate())

	stack, err := bootstrap.New(cfg)
	require.NoError(t, err)
	return stack, srv
}

func TestModelLifecycleOverHTTP(t *testing.T) {
	for _, shape := range []string{"accessor", "raw"} {
		t.Run(shape, func(t *testing.T) {
			ctx := context.Background()
			stack, srv := newStack(t, shape)
			people := stack.Collection("people", nil)

			var events []string
			m, err := people.Create(ctx, map[string]any{"name": "Mat", "age": 30}, nil)
			require.NoError(t, err)
			require.False(t, m.IsNew())
			assert.Equal(t, int64(1234), toInt64(m.Get("~created")))
			assert.Equal(t, "people/"+m.ID(), m.URL())
			assert.Equal(t, 1, people.Len())

			m.On(entity.EventAll, func(args ...any) { events = append(events, args[0].(string)) })

			require.NoError(t, m.Save(ctx, map[string]any{"age": 31}, &entity.Options{Patch: true}))
			stored, ok := srv.Store().Get("acme/people", m.ID())
			require.True(t, ok)
			assert.Equal(t, "Mat", stored["name"])
			assert.Equal(t, float64(31), stored["age"])
			assert.False(t, m.HasChanged())
			assert.Contains(t, events, entity.EventRequest)
			assert.Contains(t, events, entity.EventSync)

			m.Unset("age")
			require.NoError(t, m.Save(ctx, nil, nil))
			stored, _ = srv.Store().Get("acme/people", m.ID())
			assert.NotContains(t, stored, "age")

			fresh := stack.Model(bootstrap.Target{Collection: "people", ID: m.ID()}, nil, nil)
			require.NoError(t, fresh.Fetch(ctx, nil))
			assert.Equal(t, "Mat", fresh.Get("name"))

			require.NoError(t, m.Destroy(ctx, nil))
			assert.Equal(t, 0, people.Len())
			_, ok = srv.Store().Get("acme/people", m.ID())
			assert.False(t, ok)
		})
	}
}

func TestCollectionFetchWithFilters(t *testing.T) {
	ctx := context.Background()
	stack, _ := newStack(t, "accessor")

	people := stack.Collection("people", nil)
	for _, p := range []map[string]any{
		{"name": "Ryan", "age": 35},
		{"name": "Mat", "age": 20},
		{"name": "Tyler", "age": 40},
	} {
		_, err := people.Create(ctx, p, nil)
		require.NoError(t, err)
	}

	older := stack.Collection("people", map[string]any{":age": ">21", "limit": 5})
	var got any
	require.NoError(t, older.Fetch(ctx, &entity.Options{Success: func(data any) { got = data }}))
	require.Equal(t, 2, older.Len())
	assert.Equal(t, "Ryan", older.At(0).Get("name"))
	assert.Equal(t, "Tyler", older.At(1).Get("name"))
	assert.Len(t, got, 2)

	named := stack.Collection("people", map[string]any{":name": []string{"Ryan", "Mat"}})
	require.NoError(t, named.Fetch(ctx, nil))
	assert.Equal(t, 2, named.Len())
}

func TestMissingResourceReportsRemoteError(t *testing.T) {
	for _, shape := range []string{"accessor", "raw"} {
		t.Run(shape, func(t *testing.T) {
			stack, _ := newStack(t, shape)
			m := stack.Model(bootstrap.Target{Collection: "people", ID: "asdf"}, nil, nil)

			var eventValue, callbackValue any
			m.On(entity.EventError, func(args ...any) { eventValue = args[1] })
			err := m.Fetch(context.Background(), &entity.Options{Error: func(v any) { callbackValue = v }})

			var remoteErr *syncadapter.RemoteError
			require.True(t, errors.As(err, &remoteErr))
			assert.Equal(t, 404, remoteErr.Status())
			assert.Equal(t, "read", remoteErr.Intent)
			assert.Equal(t, callbackValue, eventValue)
			assert.NotNil(t, callbackValue)
			if shape == "accessor" {
				assert.Equal(t, "Resource not found.", callbackValue)
			}
		})
	}
}

func TestWrongKeyIsRejected(t *testing.T) {
	srv := fakeserver.New(fakeserver.WithAPIKey("other"))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	cfg := &config.Config{
		Project:  "acme",
		APIKey:   "k3y",
		BaseURL:  ts.URL + fakeserver.PathPrefix,
		Envelope: "accessor",
		HTTP:     config.HTTPConfig{Timeout: 5 * time.Second},
		LogLevel: "info",
	}
	stack, err := bootstrap.New(cfg)
	require.NoError(t, err)

	err = stack.Collection("people", nil).Fetch(context.Background(), nil)
	var remoteErr *syncadapter.RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, 401, remoteErr.Status())
	assert.Equal(t, "Invalid API key.", remoteErr.Value)
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	default:
		return 0
	}
}
