package entity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncCall struct {
	method Method
	url    string
	attrs  map[string]any
}

// recorder is a Syncer that records calls and completes them with result.
type recorder struct {
	calls  []syncCall
	result any
	fail   any
}

func (r *recorder) Sync(_ context.Context, method Method, e Entity, opts *Options) error {
	r.calls = append(r.calls, syncCall{method: method, url: e.URL(), attrs: e.Attributes()})
	if r.fail != nil {
		if opts.Error != nil {
			opts.Error(r.fail)
		}
		return errors.New("sync failed")
	}
	if opts.Success != nil {
		opts.Success(r.result)
	}
	return nil
}

func TestMethodString(t *testing.T) {
	assert.Equal(t, "read", MethodRead.String())
	assert.Equal(t, "patch", MethodPatch.String())
	assert.Equal(t, "method(42)", Method(42).String())

	m, err := ParseMethod(" Update ")
	require.NoError(t, err)
	assert.Equal(t, MethodUpdate, m)
	_, err = ParseMethod("upsert")
	assert.Error(t, err)
}

func TestEvents(t *testing.T) {
	var bus Events
	var got []string
	bus.On(EventSync, func(args ...any) { got = append(got, "sync:"+args[0].(string)) })
	bus.On(EventAll, func(args ...any) { got = append(got, "all:"+args[0].(string)) })
	bus.On(EventSync, nil)

	bus.Trigger(EventSync, "a")
	bus.Trigger(EventError, "b")
	assert.Equal(t, []string{"sync:a", "all:sync", "all:error"}, got)

	bus.Off(EventSync)
	got = nil
	bus.Trigger(EventSync, "c")
	assert.Equal(t, []string{"all:sync"}, got)
}

func TestModelAttributes(t *testing.T) {
	m := NewModel(map[string]any{"name": "Mat"})
	assert.True(t, m.IsNew())
	assert.False(t, m.HasChanged())

	var changes []any
	m.On(EventChange, func(args ...any) { changes = append(changes, args[1]) })

	m.Set(map[string]any{"age": 30})
	m.Set(nil)
	assert.Equal(t, 30, m.Get("age"))
	assert.Equal(t, map[string]any{"age": 30}, m.ChangedAttributes())

	m.Unset("name")
	m.Unset("missing")
	assert.Nil(t, m.Get("name"))
	assert.Equal(t, map[string]any{"age": 30, "name": nil}, m.ChangedAttributes())
	assert.Len(t, changes, 2)

	attrs := m.Attributes()
	attrs["age"] = 99
	assert.Equal(t, 30, m.Get("age"))
}

func TestModelURL(t *testing.T) {
	tests := []struct {
		name string
		m    *Model
		want string
	}{
		{"new with root", NewModel(nil, WithURLRoot("people")), "people"},
		{"with id", NewModel(nil, WithURLRoot("people/"), WithID("asdf")), "people/asdf"},
		{"escaped id", NewModel(nil, WithURLRoot("people"), WithID("a b")), "people/a%20b"},
		{"explicit", NewModel(nil, WithURLRoot("people"), WithID("1"), WithURL("custom/path")), "custom/path"},
		{"custom id attribute", NewModel(map[string]any{"key": 7}, WithURLRoot("things"), WithIDAttribute("key")), "things/7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.URL())
		})
	}

	c := NewCollection("groups/1/people")
	member := c.NewMember(map[string]any{"~id": "2"})
	assert.Equal(t, "groups/1/people/2", member.URL())
	assert.Equal(t, c, member.Owner())
}

func TestModelWithoutSyncer(t *testing.T) {
	m := NewModel(nil, WithURLRoot("people"), WithID("1"))
	assert.ErrorIs(t, m.Fetch(context.Background(), nil), ErrNoSyncer)
	assert.ErrorIs(t, m.Save(context.Background(), nil, nil), ErrNoSyncer)
	assert.ErrorIs(t, m.Destroy(context.Background(), nil), ErrNoSyncer)
}

func TestModelFetchMergesData(t *testing.T) {
	rec := &recorder{result: map[string]any{"name": "Ryan", "age": 26}}
	m := NewModel(nil, WithURLRoot("people"), WithID("asdf"), WithSyncer(rec))
	m.Set(map[string]any{"draft": true})

	var seen any
	require.NoError(t, m.Fetch(context.Background(), &Options{Success: func(d any) {
		seen = d
		assert.Equal(t, "Ryan", m.Get("name"), "merged before the caller runs")
	}}))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, MethodRead, rec.calls[0].method)
	assert.Equal(t, "people/asdf", rec.calls[0].url)
	assert.Equal(t, rec.result, seen)
	assert.Equal(t, 26, m.Get("age"))
	assert.True(t, m.Get("draft").(bool))
	assert.False(t, m.HasChanged())
}

func TestModelFetchWithoutIDKeepsChanges(t *testing.T) {
	rec := &recorder{result: []any{map[string]any{"~id": "1"}, map[string]any{"~id": "2"}}}
	m := NewModel(nil, WithURLRoot("people"), WithSyncer(rec))
	m.Set(map[string]any{"draft": true})

	require.NoError(t, m.Fetch(context.Background(), nil))
	require.Len(t, rec.calls, 1)
	assert.Equal(t, "people", rec.calls[0].url)
	assert.True(t, m.HasChanged())
	assert.Equal(t, map[string]any{"draft": true}, m.ChangedAttributes())
	assert.Empty(t, m.ID())
}

func TestModelSaveWithoutDeltaClearsChanges(t *testing.T) {
	rec := &recorder{}
	m := NewModel(nil, WithURLRoot("people"), WithID("1"), WithSyncer(rec))

	require.NoError(t, m.Save(context.Background(), map[string]any{"age": 2}, nil))
	assert.False(t, m.HasChanged())
	assert.Equal(t, 2, m.Get("age"))
}

func TestModelSaveChoosesMethod(t *testing.T) {
	rec := &recorder{result: map[string]any{"~id": "new-id", "~created": 1234}}
	m := NewModel(nil, WithURLRoot("people"), WithSyncer(rec))

	require.NoError(t, m.Save(context.Background(), map[string]any{"name": "Mat"}, nil))
	assert.Equal(t, "new-id", m.ID())
	assert.Equal(t, 1234, m.Get("~created"))

	rec.result = map[string]any{"~id": "new-id", "~updated": 1500}
	require.NoError(t, m.Save(context.Background(), map[string]any{"age": 30}, &Options{Patch: true}))
	require.NoError(t, m.Save(context.Background(), nil, nil))

	require.Len(t, rec.calls, 3)
	assert.Equal(t, MethodCreate, rec.calls[0].method)
	assert.Equal(t, "people", rec.calls[0].url)
	assert.Equal(t, map[string]any{"name": "Mat"}, rec.calls[0].attrs)
	assert.Equal(t, MethodPatch, rec.calls[1].method)
	assert.Equal(t, "people/new-id", rec.calls[1].url)
	assert.Equal(t, MethodUpdate, rec.calls[2].method)
	assert.Equal(t, 1500, m.Get("~updated"))
}

func TestModelSaveFailureKeepsChanges(t *testing.T) {
	rec := &recorder{fail: "HTTP Method not supported."}
	m := NewModel(nil, WithURLRoot("people"), WithID("1"), WithSyncer(rec))

	var failure any
	err := m.Save(context.Background(), map[string]any{"age": 1}, &Options{Error: func(v any) { failure = v }})
	assert.Error(t, err)
	assert.Equal(t, "HTTP Method not supported.", failure)
	assert.True(t, m.HasChanged())
}

func TestModelDestroy(t *testing.T) {
	rec := &recorder{}
	c := NewCollection("people", WithCollectionSyncer(rec))
	m := c.NewMember(map[string]any{"~id": "1"})
	c.Add(m)

	destroyed := false
	m.On(EventDestroy, func(...any) { destroyed = true })
	require.NoError(t, m.Destroy(context.Background(), nil))

	assert.True(t, destroyed)
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, m.Collection())
	require.Len(t, rec.calls, 1)
	assert.Equal(t, MethodDelete, rec.calls[0].method)
	assert.Equal(t, "people/1", rec.calls[0].url)
}

func TestModelDestroyNewSkipsRequest(t *testing.T) {
	rec := &recorder{}
	c := NewCollection("people", WithCollectionSyncer(rec))
	m := c.NewMember(nil)
	c.Add(m)

	called := false
	require.NoError(t, m.Destroy(context.Background(), &Options{Success: func(any) { called = true }}))
	assert.True(t, called)
	assert.Empty(t, rec.calls)
	assert.Equal(t, 0, c.Len())
}

func TestCollectionMembership(t *testing.T) {
	c := NewCollection("people", WithModelIDAttribute("key"))
	var added, removed int
	c.On(EventAdd, func(...any) { added++ })
	c.On(EventRemove, func(...any) { removed++ })

	a := c.NewMember(map[string]any{"key": "a"})
	b := c.NewMember(map[string]any{"key": "b"})
	c.Add(a, nil, b)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, b, c.Get("b"))
	assert.Nil(t, c.Get(""))
	assert.Equal(t, a, c.At(0))
	assert.Nil(t, c.At(5))

	c.Remove(a)
	c.Remove(a)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 2, added)
	assert.Equal(t, 1, removed)
	assert.Nil(t, a.Owner())

	assert.Equal(t, "", c.ID())
	assert.Nil(t, c.Collection())
	assert.Nil(t, c.Attributes())
}

func TestCollectionFetchResets(t *testing.T) {
	rec := &recorder{result: []any{
		map[string]any{"~id": "1", "name": "Ryan"},
		"not a record",
		map[string]any{"~id": "2", "name": "Mat"},
	}}
	c := NewCollection("people", WithCollectionSyncer(rec), WithCollectionParams(map[string]any{"limit": 2}))
	c.Add(c.NewMember(map[string]any{"~id": "stale"}))

	reset := false
	c.On(EventReset, func(...any) { reset = true })
	require.NoError(t, c.Fetch(context.Background(), nil))

	assert.True(t, reset)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, "Ryan", c.At(0).Get("name"))
	assert.Equal(t, "Mat", c.Get("2").Get("name"))
	assert.Equal(t, c, c.At(0).Owner())
	assert.Equal(t, map[string]any{"limit": 2}, c.Params())
	assert.Equal(t, MethodRead, rec.calls[0].method)
}

func TestCollectionWithoutSyncer(t *testing.T) {
	c := NewCollection("people")
	assert.ErrorIs(t, c.Fetch(context.Background(), nil), ErrNoSyncer)
}

func TestCollectionCreate(t *testing.T) {
	rec := &recorder{result: map[string]any{"~id": "9"}}
	c := NewCollection("people", WithCollectionSyncer(rec))

	m, err := c.Create(context.Background(), map[string]any{"name": "Tyler"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "9", m.ID())
	assert.Equal(t, "people/9", m.URL())
	assert.Equal(t, m, c.Get("9"))
	require.Len(t, rec.calls, 1)
	assert.Equal(t, MethodCreate, rec.calls[0].method)
	assert.Equal(t, "people", rec.calls[0].url)
}

func TestParamsAreCopied(t *testing.T) {
	params := map[string]any{"include": "~parent"}
	m := NewModel(nil, WithParams(params))
	params["include"] = "other"
	assert.Equal(t, "~parent", m.Params()["include"])

	m.SetParams(nil)
	assert.Nil(t, m.Params())
}

func TestSyncerFunc(t *testing.T) {
	var got Method
	s := SyncerFunc(func(_ context.Context, method Method, _ Entity, _ *Options) error {
		got = method
		return nil
	})
	require.NoError(t, NewModel(nil, WithID("1"), WithSyncer(s)).Destroy(context.Background(), nil))
	assert.Equal(t, MethodDelete, got)
}
