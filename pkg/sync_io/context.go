// pkg/sync_io/context.go

package sync_io

import (
	"context"
	"os"
	"runtime"
	"strings"
	"time"

	cerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/sync_err"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/telemetry"
)

// RuntimeContext carries the per-command context, logger and span.
type RuntimeContext struct {
	Ctx         context.Context
	Log         *zap.Logger
	Timestamp   time.Time
	Span        trace.Span
	Command     string
	OperationID string
	Attributes  map[string]string
}

// NewContext starts the command span and a logger tagged with the command
// name, trace id and operation id.
func NewContext(parent context.Context, cmdName string) *RuntimeContext {
	if parent == nil {
		parent = context.Background()
	}
	ctx, span := telemetry.Start(parent, cmdName)
	opID := telemetry.NewOperationID()

	log := logger.L().With(
		zap.String("command", cmdName),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("operation_id", opID),
	)

	return &RuntimeContext{
		Ctx:         ctx,
		Log:         log,
		Timestamp:   time.Now(),
		Span:        span,
		Command:     cmdName,
		OperationID: opID,
		Attributes:  make(map[string]string),
	}
}

// HandlePanic recovers panics, logs them, and converts to an error.
func (rc *RuntimeContext) HandlePanic(errPtr *error) {
	if r := recover(); r != nil {
		*errPtr = cerr.AssertionFailedf("panic: %v", r)
		rc.Log.Error("Panic recovered", zap.Any("panic", r))
	}
}

// End logs the outcome, records it on the span and flushes the logger.
func (rc *RuntimeContext) End(errPtr *error) {
	defer rc.Span.End()

	var err error
	if errPtr != nil {
		err = *errPtr
	}
	duration := time.Since(rc.Timestamp)

	switch {
	case err == nil:
		rc.Log.Debug("Command completed", zap.Duration("duration", duration))
	case sync_err.IsExpectedUserError(err):
		rc.Log.Warn("Command stopped", zap.Duration("duration", duration), zap.Error(err))
	default:
		rc.Log.Error("Command failed", zap.Duration("duration", duration), zap.Error(err))
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("success", err == nil),
		attribute.Int64("duration_ms", duration.Milliseconds()),
		attribute.String("os", runtime.GOOS),
		attribute.String("args", strings.Join(os.Args[1:], " ")),
		attribute.String("error_type", classifyError(err)),
	}
	for k, v := range rc.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	rc.Span.SetAttributes(attrs...)
	if err != nil {
		rc.Span.SetStatus(codes.Error, err.Error())
	}

	logger.Sync()
}

func classifyError(err error) string {
	if err == nil {
		return ""
	}
	if sync_err.IsExpectedUserError(err) {
		return "user"
	}
	var classified *sync_err.ClassifiedError
	if cerr.As(err, &classified) {
		return classified.Category.String()
	}
	return "system"
}
