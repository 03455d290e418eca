// Package syncadapter redirects entity persistence intents to a remote
// Stretchr session and maps the response envelopes back to the entity's
// callbacks and lifecycle events.
//
// For every Sync call the adapter:
//  1. resolves the intent (read without id becomes readAll)
//  2. resolves the session (entity first, then its collection)
//  3. emits "request", issues exactly one request
//  4. on success emits "sync" and calls Options.Success with the result
//  5. on failure emits "error" and calls Options.Error with the failure
//
// The adapter never retries, never times requests out on its own and never
// mutates the entity.
package syncadapter

import (
	"context"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/entity"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/telemetry"
)

// Adapter implements entity.Syncer on top of a remote session.
type Adapter struct {
	handlers map[intent]handler
	metrics  *telemetry.SyncMetrics
	now      func() time.Time
}

var _ entity.Syncer = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithMetrics records request counts and durations on m.
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

// New returns an adapter with the read, readAll, create, update, patch and
// delete handlers registered.
func New(opts ...Option) *Adapter {
	a := &Adapter{
		handlers: defaultHandlers(),
		metrics:  telemetry.DefaultSyncMetrics(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Sync dispatches method for e. The error return mirrors the callbacks:
// ErrMethodUndefined for an intent without a handler, ErrNoSession when no
// session resolves, *RemoteError when the request failed.
func (a *Adapter) Sync(ctx context.Context, method entity.Method, e entity.Entity, opts *entity.Options) error {
	if opts == nil {
		opts = &entity.Options{}
	}
	logger := otelzap.Ctx(ctx)

	in := resolveIntent(method, e)
	h, ok := a.handlers[in]
	if !ok {
		logger.Warn("Sync method has no handler",
			zap.String("method", method.String()),
			zap.String("path", e.URL()))
		e.Trigger(entity.EventError, e, MethodUndefinedMessage, opts)
		return cerr.Wrapf(ErrMethodUndefined, "method %s", method)
	}

	session, err := ResolveSession(e)
	if err != nil {
		return cerr.WithHint(err, "attach a session to the model or to its collection")
	}

	path := e.URL()
	ctx, span := telemetry.Start(ctx, "stretchsync.sync",
		attribute.String("sync.intent", in.String()),
		attribute.String("sync.path", path))
	defer span.End()

	logger.Debug("Dispatching sync request",
		zap.String("intent", in.String()),
		zap.String("path", path))

	e.Trigger(entity.EventRequest, e, nil, opts)

	start := a.now()
	out := h(ctx, session, e)
	elapsed := a.now().Sub(start)

	if !out.ok {
		a.metrics.Record(ctx, in.String(), telemetry.OutcomeFailure, elapsed)
		span.SetStatus(codes.Error, "sync request failed")
		logger.Debug("Sync request failed",
			zap.String("intent", in.String()),
			zap.String("path", path),
			zap.Duration("elapsed", elapsed),
			zap.Any("failure", out.failure))

		e.Trigger(entity.EventError, e, out.failure, opts)
		if opts.Error != nil {
			opts.Error(out.failure)
		}
		return &RemoteError{Intent: in.String(), Path: path, StatusCode: out.status, Value: out.failure}
	}

	a.metrics.Record(ctx, in.String(), telemetry.OutcomeSuccess, elapsed)
	logger.Debug("Sync request completed",
		zap.String("intent", in.String()),
		zap.String("path", path),
		zap.Duration("elapsed", elapsed))

	e.Trigger(entity.EventSync, e, out.data, opts)
	if opts.Success != nil {
		opts.Success(out.data)
	}
	return nil
}
