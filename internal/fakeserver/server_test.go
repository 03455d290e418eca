package fakeserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time { return time.UnixMilli(1234) }

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	ts := httptest.NewServer(New(opts...).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var doc map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, float64(resp.StatusCode), doc["~status"])
	return resp.StatusCode, doc
}

func firstDelta(t *testing.T, doc map[string]any) map[string]any {
	t.Helper()
	changes, ok := doc["~changes"].(map[string]any)
	require.True(t, ok, "missing ~changes")
	deltas, ok := changes["~deltas"].([]any)
	require.True(t, ok, "missing ~deltas")
	require.NotEmpty(t, deltas)
	return deltas[0].(map[string]any)
}

func errorMessage(doc map[string]any) string {
	errs, _ := doc["~errors"].([]any)
	if len(errs) == 0 {
		return ""
	}
	msg, _ := errs[0].(map[string]any)["~message"].(string)
	return msg
}

func TestCreateThenRead(t *testing.T) {
	ts := newTestServer(t)

	status, doc := call(t, ts, http.MethodPost, "/api/v1.1/acme/people", map[string]any{"name": "Mat", "age": 30})
	require.Equal(t, http.StatusCreated, status)
	delta := firstDelta(t, doc)
	id, _ := delta["~id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, float64(1234), delta["~created"])
	assert.Equal(t, float64(1234), delta["~updated"])

	status, doc = call(t, ts, http.MethodGet, "/api/v1.1/acme/people/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	data := doc["~data"].(map[string]any)
	assert.Equal(t, "Mat", data["name"])
	assert.Equal(t, id, data["~id"])
}

func TestCreateKeepsGivenID(t *testing.T) {
	ts := newTestServer(t)
	_, doc := call(t, ts, http.MethodPost, "/api/v1.1/acme/people", map[string]any{"~id": "asdf"})
	assert.Equal(t, "asdf", firstDelta(t, doc)["~id"])
}

func TestCreateMany(t *testing.T) {
	ts := newTestServer(t)
	status, doc := call(t, ts, http.MethodPost, "/api/v1.1/acme/people",
		[]any{map[string]any{"name": "Ryan"}, map[string]any{"name": "Mat"}})
	require.Equal(t, http.StatusCreated, status)
	changes := doc["~changes"].(map[string]any)
	assert.Equal(t, float64(2), changes["~created"])
	assert.Len(t, changes["~deltas"], 2)
}

func TestListFiltersAndPaging(t *testing.T) {
	ts := newTestServer(t)
	for _, p := range []map[string]any{
		{"~id": "1", "name": "Ryan", "age": 35},
		{"~id": "2", "name": "Mat", "age": 20},
		{"~id": "3", "name": "Tyler", "age": 40},
	} {
		status, _ := call(t, ts, http.MethodPost, "/api/v1.1/acme/people", p)
		require.Equal(t, http.StatusCreated, status)
	}

	tests := []struct {
		name  string
		query string
		ids   []any
	}{
		{"all", "", []any{"1", "2", "3"}},
		{"numeric operator", "?%3Aage=%3E21", []any{"1", "3"}},
		{"alternatives", "?%3Aname=Ryan&%3Aname=Mat", []any{"1", "2"}},
		{"not equal", "?%3Aname=%21Mat", []any{"1", "3"}},
		{"limit", "?limit=2", []any{"1", "2"}},
		{"skip", "?skip=1&limit=1", []any{"2"}},
		{"offset alias", "?offset=100", []any{}},
		{"unknown params ignored", "?include=~parent", []any{"1", "2", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, doc := call(t, ts, http.MethodGet, "/api/v1.1/acme/people"+tt.query, nil)
			require.Equal(t, http.StatusOK, status)
			data := doc["~data"].(map[string]any)
			items := data["~items"].([]any)
			ids := make([]any, len(items))
			for i, item := range items {
				ids[i] = item.(map[string]any)["~id"]
			}
			assert.Equal(t, tt.ids, ids)
			assert.Equal(t, float64(len(tt.ids)), data["~count"])
		})
	}
}

func TestListRejectsBadLimit(t *testing.T) {
	ts := newTestServer(t)
	status, doc := call(t, ts, http.MethodGet, "/api/v1.1/acme/people?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errorMessage(doc), "limit")
}

func TestReplace(t *testing.T) {
	ts := newTestServer(t)
	call(t, ts, http.MethodPost, "/api/v1.1/acme/people", map[string]any{"~id": "1", "name": "Mat", "age": 30})

	status, doc := call(t, ts, http.MethodPut, "/api/v1.1/acme/people/1", map[string]any{"name": "Matt"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1234), firstDelta(t, doc)["~updated"])
	assert.Equal(t, float64(1), doc["~changes"].(map[string]any)["~replaced"])

	_, doc = call(t, ts, http.MethodGet, "/api/v1.1/acme/people/1", nil)
	data := doc["~data"].(map[string]any)
	assert.Equal(t, "Matt", data["name"])
	assert.NotContains(t, data, "age")
}

func TestReplaceUpserts(t *testing.T) {
	ts := newTestServer(t)
	status, doc := call(t, ts, http.MethodPut, "/api/v1.1/acme/people/9", map[string]any{"name": "New"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), doc["~changes"].(map[string]any)["~created"])
}

func TestPatchMerges(t *testing.T) {
	ts := newTestServer(t)
	call(t, ts, http.MethodPost, "/api/v1.1/acme/people", map[string]any{"~id": "1", "name": "Mat", "age": 30, "city": "Boulder"})

	status, doc := call(t, ts, http.MethodPatch, "/api/v1.1/acme/people/1", map[string]any{"age": 31, "city": nil})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1", firstDelta(t, doc)["~id"])

	_, doc = call(t, ts, http.MethodGet, "/api/v1.1/acme/people/1", nil)
	data := doc["~data"].(map[string]any)
	assert.Equal(t, "Mat", data["name"])
	assert.Equal(t, float64(31), data["age"])
	assert.NotContains(t, data, "city")
	assert.Equal(t, float64(1234), data["~created"])
}

func TestPatchMissing(t *testing.T) {
	ts := newTestServer(t)
	status, doc := call(t, ts, http.MethodPatch, "/api/v1.1/acme/people/404", map[string]any{"age": 1})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Resource not found.", errorMessage(doc))
}

func TestDelete(t *testing.T) {
	ts := newTestServer(t)
	call(t, ts, http.MethodPost, "/api/v1.1/acme/people", map[string]any{"~id": "1"})
	call(t, ts, http.MethodPost, "/api/v1.1/acme/people", map[string]any{"~id": "2"})

	status, doc := call(t, ts, http.MethodDelete, "/api/v1.1/acme/people/1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), doc["~changes"].(map[string]any)["~deleted"])

	status, _ = call(t, ts, http.MethodDelete, "/api/v1.1/acme/people/1", nil)
	assert.Equal(t, http.StatusNotFound, status)

	_, doc = call(t, ts, http.MethodDelete, "/api/v1.1/acme/people", nil)
	assert.Equal(t, float64(1), doc["~changes"].(map[string]any)["~deleted"])
}

func TestReadMissing(t *testing.T) {
	ts := newTestServer(t)
	status, doc := call(t, ts, http.MethodGet, "/api/v1.1/acme/people/asdf", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Resource not found.", errorMessage(doc))
}

func TestMethodNotSupported(t *testing.T) {
	ts := newTestServer(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1.1/acme/people/1"},
		{http.MethodPut, "/api/v1.1/acme/people"},
		{http.MethodPatch, "/api/v1.1/acme/people"},
	} {
		status, doc := call(t, ts, tc.method, tc.path, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, MethodNotSupported, errorMessage(doc))
	}
}

func TestProjectsAreIsolated(t *testing.T) {
	ts := newTestServer(t)
	call(t, ts, http.MethodPost, "/api/v1.1/acme/people", map[string]any{"~id": "1"})
	status, _ := call(t, ts, http.MethodGet, "/api/v1.1/other/people/1", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestNestedCollections(t *testing.T) {
	ts := newTestServer(t)
	status, _ := call(t, ts, http.MethodPost, "/api/v1.1/acme/groups/1/people", map[string]any{"~id": "7"})
	require.Equal(t, http.StatusCreated, status)
	status, _ = call(t, ts, http.MethodGet, "/api/v1.1/acme/groups/1/people/7", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, ts, http.MethodGet, "/api/v1.1/acme/people/7", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIKeyRequired(t *testing.T) {
	ts := newTestServer(t, WithAPIKey("secret"))

	status, doc := call(t, ts, http.MethodGet, "/api/v1.1/acme/people", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid API key.", errorMessage(doc))

	status, _ = call(t, ts, http.MethodGet, "/api/v1.1/acme/people?~key=secret", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestUnknownEndpoint(t *testing.T) {
	ts := newTestServer(t)
	status, _ := call(t, ts, http.MethodGet, "/elsewhere", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListenAndServeShutsDown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New().ListenAndServe(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/v1.1/acme/people")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
