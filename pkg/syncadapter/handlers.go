// pkg/syncadapter/handlers.go

package syncadapter

import (
	"context"

	cerr "github.com/cockroachdb/errors"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/entity"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/envelope"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/remote"
)

// errEmptyEnvelope is reported when a builder returns neither envelope nor error.
var errEmptyEnvelope = cerr.New("remote session returned no response")

// outcome is the normalized completion of one handler. Exactly one of data
// (when ok) or failure (when !ok) is meaningful.
type outcome struct {
	ok      bool
	status  int
	data    any
	failure any
}

// handler issues one request for an intent and normalizes the envelope.
type handler func(ctx context.Context, s remote.Session, e entity.Entity) outcome

func defaultHandlers() map[intent]handler {
	return map[intent]handler{
		intentRead:    readOne,
		intentReadAll: readAll,
		intentCreate:  create,
		intentUpdate:  update,
		intentPatch:   patch,
		intentDelete:  remove,
	}
}

func readOne(ctx context.Context, s remote.Session, e entity.Entity) outcome {
	req := applyParams(s.At(e.URL()), e.Params())
	env, err := req.Read(ctx)
	return complete(env, err, func(env envelope.Envelope) any {
		return env.Data()
	})
}

func readAll(ctx context.Context, s remote.Session, e entity.Entity) outcome {
	req := applyParams(s.At(e.URL()), e.Params())
	env, err := req.Read(ctx)
	return complete(env, err, func(env envelope.Envelope) any {
		items := env.Items()
		if items == nil {
			items = []any{}
		}
		return items
	})
}

func create(ctx context.Context, s remote.Session, e entity.Entity) outcome {
	env, err := s.At(e.URL()).Create(ctx, e.Attributes())
	return complete(env, err, firstDelta)
}

// update sends the full attribute set so locally removed fields are removed
// remotely.
func update(ctx context.Context, s remote.Session, e entity.Entity) outcome {
	env, err := s.At(e.URL()).Update(ctx, e.Attributes())
	return complete(env, err, firstDelta)
}

func patch(ctx context.Context, s remote.Session, e entity.Entity) outcome {
	env, err := s.At(e.URL()).Patch(ctx, e.ChangedAttributes())
	return complete(env, err, firstDelta)
}

func remove(ctx context.Context, s remote.Session, e entity.Entity) outcome {
	env, err := s.At(e.URL()).Remove(ctx)
	return complete(env, err, func(envelope.Envelope) any {
		return nil
	})
}

func firstDelta(env envelope.Envelope) any {
	if d := envelope.FirstDelta(env.Deltas()); d != nil {
		return d
	}
	return nil
}

func complete(env envelope.Envelope, err error, extract func(envelope.Envelope) any) outcome {
	switch {
	case err != nil:
		return outcome{failure: err}
	case env == nil:
		return outcome{failure: errEmptyEnvelope}
	case !env.OK():
		return outcome{status: env.Status(), failure: env.Failure()}
	default:
		return outcome{ok: true, status: env.Status(), data: extract(env)}
	}
}
