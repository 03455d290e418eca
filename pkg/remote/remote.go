// Package remote declares the capability set the sync adapter needs from a
// backend SDK session: resolve a request builder for a resource path, attach
// query parameters and issue one CRUD request.
//
// A request builder returns an envelope whenever the backend answered, even
// with a failure status. A non-nil error means no envelope was produced
// (transport failure, cancelled context, undecodable body).
package remote

import (
	"context"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/envelope"
)

// Session is a handle to the backend bound to a project and credentials.
type Session interface {
	At(path string) RequestBuilder
}

// RequestBuilder accumulates parameters for a single request.
type RequestBuilder interface {
	// Param appends one value for key; repeated calls add repeated entries.
	Param(key string, value any) RequestBuilder

	Read(ctx context.Context) (envelope.Envelope, error)
	Create(ctx context.Context, body map[string]any) (envelope.Envelope, error)
	// Update replaces the remote resource with body.
	Update(ctx context.Context, body map[string]any) (envelope.Envelope, error)
	// Patch merges body into the remote resource.
	Patch(ctx context.Context, body map[string]any) (envelope.Envelope, error)
	Remove(ctx context.Context) (envelope.Envelope, error)
}
