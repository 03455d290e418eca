// pkg/httpclient/httpclient.go

package httpclient

import (
	"bytes"
	"context"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"slices"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/sony/gobreaker"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrCircuitOpen is returned while the breaker rejects requests.
var ErrCircuitOpen = cerr.New("circuit breaker is open")

// Client is an HTTP client with retries, rate limiting and a circuit breaker.
type Client struct {
	config  *Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// statusError carries a server-side failure through the breaker so the
// response is still returned to the caller.
type statusError struct {
	resp *Response
}

func (e *statusError) Error() string {
	return http.StatusText(e.resp.StatusCode)
}

// NewClient builds a Client from cfg; a nil cfg uses DefaultConfig.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, cerr.Wrap(err, "invalid client configuration")
	}

	tlsConfig, err := buildTLSConfig(cfg.TLSConfig)
	if err != nil {
		return nil, cerr.Wrap(err, "failed to build TLS config")
	}

	pool := cfg.PoolConfig
	if pool == nil {
		pool = DefaultConfig().PoolConfig
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     tlsConfig,
		MaxIdleConns:        pool.MaxIdleConns,
		MaxIdleConnsPerHost: pool.MaxIdleConnsPerHost,
		MaxConnsPerHost:     pool.MaxConnsPerHost,
		IdleConnTimeout:     pool.IdleConnTimeout,
		DialContext: (&net.Dialer{
			Timeout:   pool.DialTimeout,
			KeepAlive: pool.KeepAlive,
		}).DialContext,
	}

	c := &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout, Transport: transport},
	}

	if rl := cfg.RateLimitConfig; rl != nil {
		c.limiter = rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), rl.BurstSize)
	}

	if bc := cfg.BreakerConfig; bc != nil && bc.MaxFailures > 0 {
		maxFailures := bc.MaxFailures
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "stretchsync-http",
			MaxRequests: bc.HalfOpenRequests,
			Timeout:     bc.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				zap.L().Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}

	return c, nil
}

// Config returns the configuration the client was built with.
func (c *Client) Config() *Config {
	return c.config
}

// Do sends one logical request, retrying retryable statuses and transport
// errors with exponential backoff. Non-idempotent methods are only retried
// when the server cannot have acted on the request. The last response is returned even when
// its status indicates failure; err is non-nil only when no response exists.
func (c *Client) Do(ctx context.Context, method, target string, body []byte, headers map[string]string) (*Response, error) {
	logger := otelzap.Ctx(ctx)

	maxRetries := 0
	if c.config.RetryConfig != nil {
		maxRetries = c.config.RetryConfig.MaxRetries
	}

	var (
		resp *Response
		err  error
	)
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			logger.Debug("Retrying HTTP request",
				zap.String("method", method),
				zap.String("url", target),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			if waitErr := sleep(ctx, delay); waitErr != nil {
				return nil, cerr.Wrap(waitErr, "request cancelled during backoff")
			}
		}

		if c.limiter != nil {
			if waitErr := c.limiter.Wait(ctx); waitErr != nil {
				return nil, cerr.Wrap(waitErr, "rate limiter wait failed")
			}
		}

		resp, err = c.execute(ctx, method, target, body, headers)
		if cerr.Is(err, ErrCircuitOpen) {
			return nil, err
		}
		if !c.shouldRetry(ctx, method, resp, err) {
			break
		}
	}

	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) execute(ctx context.Context, method, target string, body []byte, headers map[string]string) (*Response, error) {
	if c.breaker == nil {
		return c.once(ctx, method, target, body, headers)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.once(ctx, method, target, body, headers)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, &statusError{resp: resp}
		}
		return resp, nil
	})

	var se *statusError
	switch {
	case cerr.As(err, &se):
		return se.resp, nil
	case cerr.Is(err, gobreaker.ErrOpenState), cerr.Is(err, gobreaker.ErrTooManyRequests):
		return nil, cerr.WithHint(cerr.Wrapf(ErrCircuitOpen, "%s %s", method, target),
			"the backend failed repeatedly; wait for the breaker to reset")
	case err != nil:
		return nil, err
	}
	return out.(*Response), nil
}

func (c *Client) once(ctx context.Context, method, target string, body []byte, headers map[string]string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, cerr.Wrap(err, "failed to create request")
	}

	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if err := c.applyAuth(ctx, req); err != nil {
		return nil, err
	}

	logCfg := c.config.LogConfig
	logger := otelzap.Ctx(ctx)
	if logCfg != nil && logCfg.LogRequests {
		logger.Debug("HTTP request", zap.String("method", method), zap.String("url", target))
	}

	start := time.Now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, cerr.Wrapf(err, "%s %s", method, target)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, cerr.Wrap(err, "failed to read response body")
	}

	if logCfg != nil && logCfg.LogResponses {
		logger.Debug("HTTP response",
			zap.String("method", method),
			zap.String("url", target),
			zap.Int("status", httpResp.StatusCode),
			zap.Duration("elapsed", time.Since(start)))
	}

	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}, nil
}

func (c *Client) applyAuth(ctx context.Context, req *http.Request) error {
	auth := c.config.AuthConfig
	if auth == nil {
		return nil
	}

	switch auth.Type {
	case AuthTypeBearer:
		token := auth.Token
		if auth.RefreshFunc != nil {
			fresh, err := auth.RefreshFunc(ctx)
			if err != nil {
				return cerr.Wrap(err, "failed to refresh token")
			}
			token = fresh
		}
		header := auth.TokenHeader
		if header == "" {
			header = "Authorization"
		}
		prefix := auth.TokenPrefix
		if prefix == "" {
			prefix = "Bearer"
		}
		req.Header.Set(header, prefix+" "+token)
	case AuthTypeBasic:
		req.SetBasicAuth(auth.Username, auth.Password)
	case AuthTypeAPIKey:
		header := auth.TokenHeader
		if header == "" || header == "Authorization" {
			header = "X-API-Key"
		}
		req.Header.Set(header, auth.Token)
	case AuthTypeCustom:
		for k, v := range auth.CustomHeaders {
			req.Header.Set(k, v)
		}
	}
	return nil
}

func (c *Client) shouldRetry(ctx context.Context, method string, resp *Response, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	idempotent := isIdempotent(method)
	if err != nil {
		if !idempotent {
			// the request never left the client
			var opErr *net.OpError
			return cerr.As(err, &opErr) && opErr.Op == "dial"
		}
		// only transport failures are retried
		var urlErr *url.Error
		return cerr.As(err, &urlErr)
	}
	if c.config.RetryConfig == nil {
		return false
	}
	if !idempotent && resp.StatusCode != http.StatusTooManyRequests {
		return false
	}
	return slices.Contains(c.config.RetryConfig.RetryableStatus, resp.StatusCode)
}

// isIdempotent reports whether repeating method leaves the backend unchanged.
// PATCH bodies are JSON merge patches, which apply the same way twice.
func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions,
		http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}

// backoff returns the delay before the given retry attempt (1-based).
func (c *Client) backoff(attempt int) time.Duration {
	rc := c.config.RetryConfig
	delay := float64(rc.InitialDelay) * math.Pow(rc.Multiplier, float64(attempt-1))
	if rc.MaxDelay > 0 && delay > float64(rc.MaxDelay) {
		delay = float64(rc.MaxDelay)
	}
	if rc.Jitter {
		delay = delay/2 + rand.Float64()*delay/2
	}
	return time.Duration(delay)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
