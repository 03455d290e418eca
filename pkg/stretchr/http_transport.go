// pkg/stretchr/http_transport.go

package stretchr

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/httpclient"
)

// ProjectPlaceholder in a base URL is replaced with the client's project.
const ProjectPlaceholder = "{project}"

// KeyParam carries the API key on every request.
const KeyParam = "~key"

// HTTPTransport sends requests to a Stretchr endpoint over HTTP.
type HTTPTransport struct {
	baseURL string
	client  *httpclient.Client
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport returns a transport for baseURL. The base URL may contain
// the {project} placeholder; without it the project is appended as a path
// segment.
func NewHTTPTransport(baseURL string, client *httpclient.Client) *HTTPTransport {
	return &HTTPTransport{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// ExpandBaseURL resolves base for project.
func ExpandBaseURL(base, project string) string {
	base = strings.TrimRight(base, "/")
	if strings.Contains(base, ProjectPlaceholder) {
		return strings.ReplaceAll(base, ProjectPlaceholder, project)
	}
	return base + "/" + project
}

// URL returns the full request URL including query and API key.
func (t *HTTPTransport) URL(req *Request) string {
	c := req.Client()
	target := ExpandBaseURL(t.baseURL, c.Project()) + "/" + strings.TrimLeft(req.Path(), "/")

	query := req.Query().Encode()
	if c.APIKey() != "" {
		key := NewParamSet()
		key.Add(KeyParam, c.APIKey())
		if query != "" {
			query += "&"
		}
		query += key.Encode()
	}
	if query != "" {
		target += "?" + query
	}
	return target
}

// Do sends req and decodes the JSON response document. A non-JSON body with
// a failure status decodes to an empty document so the HTTP status is used.
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Payload, error) {
	target := t.URL(req)
	requestID := uuid.New().String()

	var body []byte
	if req.Payload() != nil && req.Method() != GET && req.Method() != DELETE {
		var err error
		body, err = json.Marshal(req.Payload())
		if err != nil {
			return nil, cerr.Wrap(err, "failed to encode request body")
		}
	}

	headers := map[string]string{
		"Accept":       "application/json",
		"X-Request-Id": requestID,
	}
	if body != nil {
		headers["Content-Type"] = "application/json"
	}

	otelzap.Ctx(ctx).Debug("Sending Stretchr request",
		zap.String("method", req.Method()),
		zap.String("path", req.Path()),
		zap.String("request_id", requestID))

	resp, err := t.client.Do(ctx, req.Method(), target, body, headers)
	if err != nil {
		return nil, err
	}

	doc := map[string]any{}
	if len(bytes.TrimSpace(resp.Body)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(resp.Body))
		if err := dec.Decode(&doc); err != nil {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil, cerr.Wrapf(err, "failed to decode response from %s", req.Path())
			}
			doc = map[string]any{}
		}
	}

	return &Payload{StatusCode: resp.StatusCode, Body: doc}, nil
}
