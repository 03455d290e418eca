// Package fakeserver is a local stand-in for the Stretchr data service. It
// speaks the same URL layout and response envelopes over HTTP, keeps data in
// memory, and is used by `stretchsync serve` and by end-to-end tests.
package fakeserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	cerr "github.com/cockroachdb/errors"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/envelope"
)

const (
	// PathPrefix is the API root; the project follows it.
	PathPrefix = "/api/v1.1"

	// MethodNotSupported is reported for verbs a path does not accept.
	MethodNotSupported = "HTTP Method not supported."

	maxBodyBytes = 1 << 20
)

// Server serves Stretchr-style CRUD over an in-memory Store.
type Server struct {
	store  *Store
	apiKey string
	now    func() time.Time
	log    *zap.Logger
	router *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithAPIKey requires every request to carry ~key=key.
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = key }
}

// WithClock replaces the clock used for ~created and ~updated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithStore serves an existing store.
func WithStore(st *Store) Option {
	return func(s *Server) { s.store = st }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New returns a server with an empty store.
func New(opts ...Option) *Server {
	s := &Server{
		store: NewStore(),
		now:   time.Now,
		log:   zap.L(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = mux.NewRouter()
	api := s.router.PathPrefix(PathPrefix + "/{project}").Subrouter()
	api.Use(s.logRequests, s.requireKey)
	api.PathPrefix("/").HandlerFunc(s.handle)
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusNotFound, "Unknown endpoint.")
	})
	return s
}

// Store exposes the backing store.
func (s *Server) Store() *Store {
	return s.store
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Fake Stretchr server listening", zap.String("addr", addr), zap.String("prefix", PathPrefix))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return cerr.Wrapf(err, "listen on %s", addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("Shutting down fake Stretchr server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return cerr.Wrap(err, "shutdown")
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		next.ServeHTTP(w, r)
		s.log.Debug("Handled request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", r.Header.Get("X-Request-Id")),
			zap.Duration("elapsed", s.now().Sub(start)))
	})
}

func (s *Server) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.URL.Query().Get("~key") != s.apiKey {
			writeFailure(w, http.StatusUnauthorized, "Invalid API key.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resource splits the request path below the project into a collection key
// and an optional id. Odd segment counts name a collection.
func resource(r *http.Request) (coll, id string, ok bool) {
	project := mux.Vars(r)["project"]
	rest := strings.TrimPrefix(r.URL.Path, PathPrefix+"/"+project)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return "", "", false
	}
	segments := strings.Split(rest, "/")
	if len(segments)%2 == 0 {
		id = segments[len(segments)-1]
		segments = segments[:len(segments)-1]
	}
	return project + "/" + strings.Join(segments, "/"), id, true
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	coll, id, ok := resource(r)
	if !ok {
		writeFailure(w, http.StatusNotFound, "No collection given.")
		return
	}

	switch {
	case r.Method == http.MethodGet && id == "":
		s.readMany(w, r, coll)
	case r.Method == http.MethodGet:
		s.readOne(w, coll, id)
	case r.Method == http.MethodPost && id == "":
		s.create(w, r, coll)
	case r.Method == http.MethodPut && id != "":
		s.replace(w, r, coll, id)
	case r.Method == http.MethodPatch && id != "":
		s.patch(w, r, coll, id)
	case r.Method == http.MethodDelete && id == "":
		s.deleteAll(w, coll)
	case r.Method == http.MethodDelete:
		s.deleteOne(w, coll, id)
	default:
		writeFailure(w, http.StatusBadRequest, MethodNotSupported)
	}
}

func (s *Server) readOne(w http.ResponseWriter, coll, id string) {
	doc, ok := s.store.Get(coll, id)
	if !ok {
		writeFailure(w, http.StatusNotFound, "Resource not found.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		envelope.KeyStatus: http.StatusOK,
		envelope.KeyData:   doc,
	})
}

func (s *Server) readMany(w http.ResponseWriter, r *http.Request, coll string) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	items := s.store.List(coll, q.matches)
	total := len(items)
	items = q.page(items)

	list := make([]any, len(items))
	for i, item := range items {
		list[i] = item
	}
	writeJSON(w, http.StatusOK, map[string]any{
		envelope.KeyStatus: http.StatusOK,
		envelope.KeyData: map[string]any{
			envelope.KeyCount: len(list),
			"~total":          total,
			envelope.KeyItems: list,
		},
	})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, coll string) {
	raw, err := readBody(w, r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	// a single document or an array of documents
	var docs []map[string]any
	if trimmed := strings.TrimSpace(string(raw)); strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(raw, &docs)
	} else {
		var doc map[string]any
		err = json.Unmarshal(raw, &doc)
		docs = []map[string]any{doc}
	}
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Request body is not a JSON object.")
		return
	}

	stamp := s.stamp()
	deltas := make([]any, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			doc = map[string]any{}
		}
		id, _ := doc[envelope.KeyID].(string)
		if id == "" {
			id = uuid.New().String()
		}
		doc[envelope.KeyID] = id
		doc[envelope.KeyCreated] = stamp
		doc[envelope.KeyUpdated] = stamp
		s.store.Put(coll, id, doc)
		deltas = append(deltas, map[string]any{
			envelope.KeyID:      id,
			envelope.KeyCreated: stamp,
			envelope.KeyUpdated: stamp,
		})
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		envelope.KeyStatus: http.StatusCreated,
		envelope.KeyChanges: map[string]any{
			envelope.KeyCreated: len(deltas),
			envelope.KeyDeltas:  deltas,
		},
	})
}

func (s *Server) replace(w http.ResponseWriter, r *http.Request, coll, id string) {
	raw, err := readBody(w, r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		writeFailure(w, http.StatusBadRequest, "Request body is not a JSON object.")
		return
	}

	stamp := s.stamp()
	created := stamp
	if existing, ok := s.store.Get(coll, id); ok {
		if c, ok := existing[envelope.KeyCreated]; ok {
			created = toStamp(c)
		}
	}
	doc[envelope.KeyID] = id
	doc[envelope.KeyCreated] = created
	doc[envelope.KeyUpdated] = stamp
	isNew := s.store.Put(coll, id, doc)

	changes := map[string]any{
		envelope.KeyDeltas: []any{map[string]any{
			envelope.KeyID:      id,
			envelope.KeyUpdated: stamp,
		}},
	}
	if isNew {
		changes[envelope.KeyCreated] = 1
	} else {
		changes[envelope.KeyReplaced] = 1
	}
	writeJSON(w, http.StatusOK, map[string]any{
		envelope.KeyStatus:  http.StatusOK,
		envelope.KeyChanges: changes,
	})
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request, coll, id string) {
	existing, ok := s.store.Get(coll, id)
	if !ok {
		writeFailure(w, http.StatusNotFound, "Resource not found.")
		return
	}
	raw, err := readBody(w, r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	original, err := json.Marshal(existing)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "Stored document cannot be encoded.")
		return
	}
	merged, err := jsonpatch.MergePatch(original, raw)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Request body is not a valid merge patch.")
		return
	}
	var doc map[string]any
	if err := json.Unmarshal(merged, &doc); err != nil || doc == nil {
		writeFailure(w, http.StatusBadRequest, "Request body is not a JSON object.")
		return
	}

	stamp := s.stamp()
	doc[envelope.KeyID] = id
	doc[envelope.KeyCreated] = existing[envelope.KeyCreated]
	doc[envelope.KeyUpdated] = stamp
	s.store.Put(coll, id, doc)

	writeJSON(w, http.StatusOK, map[string]any{
		envelope.KeyStatus: http.StatusOK,
		envelope.KeyChanges: map[string]any{
			envelope.KeyUpdated: 1,
			envelope.KeyDeltas: []any{map[string]any{
				envelope.KeyID:      id,
				envelope.KeyUpdated: stamp,
			}},
		},
	})
}

func (s *Server) deleteOne(w http.ResponseWriter, coll, id string) {
	if !s.store.Delete(coll, id) {
		writeFailure(w, http.StatusNotFound, "Resource not found.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		envelope.KeyStatus:  http.StatusOK,
		envelope.KeyChanges: map[string]any{envelope.KeyDeleted: 1},
	})
}

func (s *Server) deleteAll(w http.ResponseWriter, coll string) {
	n := s.store.DeleteAll(coll)
	writeJSON(w, http.StatusOK, map[string]any{
		envelope.KeyStatus:  http.StatusOK,
		envelope.KeyChanges: map[string]any{envelope.KeyDeleted: n},
	})
}

// stamp is the current time in Unix milliseconds.
func (s *Server) stamp() int64 {
	return s.now().UnixMilli()
}

func toStamp(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case int:
		return int64(n)
	default:
		return 0
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, cerr.New("Request body could not be read.")
	}
	return raw, nil
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		envelope.KeyStatus: status,
		envelope.KeyErrors: []any{map[string]any{envelope.KeyMessage: message}},
	})
}
