// pkg/httpclient/config.go

package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

// Config represents HTTP client configuration options
type Config struct {
	Timeout   time.Duration     `json:"timeout" yaml:"timeout"`
	UserAgent string            `json:"user_agent" yaml:"user_agent"`
	Headers   map[string]string `json:"headers" yaml:"headers"`

	RetryConfig     *RetryConfig     `json:"retry" yaml:"retry"`
	TLSConfig       *TLSConfig       `json:"tls" yaml:"tls"`
	AuthConfig      *AuthConfig      `json:"auth" yaml:"auth"`
	RateLimitConfig *RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	BreakerConfig   *BreakerConfig   `json:"breaker" yaml:"breaker"`
	PoolConfig      *PoolConfig      `json:"pool" yaml:"pool"`
	LogConfig       *LogConfig       `json:"log" yaml:"log"`
}

// RetryConfig defines retry behavior for failed requests
type RetryConfig struct {
	MaxRetries      int           `json:"max_retries" yaml:"max_retries"`
	InitialDelay    time.Duration `json:"initial_delay" yaml:"initial_delay"`
	MaxDelay        time.Duration `json:"max_delay" yaml:"max_delay"`
	Multiplier      float64       `json:"multiplier" yaml:"multiplier"`
	Jitter          bool          `json:"jitter" yaml:"jitter"`
	RetryableStatus []int         `json:"retryable_status" yaml:"retryable_status"`
}

// TLSConfig defines TLS security settings
type TLSConfig struct {
	InsecureSkipVerify bool     `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	MinVersion         uint16   `json:"min_version" yaml:"min_version"`
	CipherSuites       []uint16 `json:"cipher_suites" yaml:"cipher_suites"`
	RootCAFile         string   `json:"root_ca_file" yaml:"root_ca_file"`
	ClientCertFile     string   `json:"client_cert_file" yaml:"client_cert_file"`
	ClientKeyFile      string   `json:"client_key_file" yaml:"client_key_file"`
}

// AuthConfig defines authentication settings
type AuthConfig struct {
	Type          AuthType          `json:"type" yaml:"type"`
	Token         string            `json:"token" yaml:"token"`
	Username      string            `json:"username" yaml:"username"`
	Password      string            `json:"password" yaml:"password"`
	CustomHeaders map[string]string `json:"custom_headers" yaml:"custom_headers"`
	RefreshFunc   TokenRefreshFunc  `json:"-" yaml:"-"`
	TokenHeader   string            `json:"token_header" yaml:"token_header"`
	TokenPrefix   string            `json:"token_prefix" yaml:"token_prefix"`
}

// RateLimitConfig defines client-side rate limiting
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int     `json:"burst_size" yaml:"burst_size"`
}

// BreakerConfig trips the circuit after MaxFailures consecutive failures.
// A zero MaxFailures disables the breaker.
type BreakerConfig struct {
	MaxFailures      uint32        `json:"max_failures" yaml:"max_failures"`
	OpenTimeout      time.Duration `json:"open_timeout" yaml:"open_timeout"`
	HalfOpenRequests uint32        `json:"half_open_requests" yaml:"half_open_requests"`
}

// PoolConfig defines connection pool settings
type PoolConfig struct {
	MaxIdleConns        int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `json:"max_idle_conns_per_host" yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `json:"max_conns_per_host" yaml:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `json:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	DialTimeout         time.Duration `json:"dial_timeout" yaml:"dial_timeout"`
	KeepAlive           time.Duration `json:"keep_alive" yaml:"keep_alive"`
}

// LogConfig defines logging behavior
type LogConfig struct {
	LogRequests  bool `json:"log_requests" yaml:"log_requests"`
	LogResponses bool `json:"log_responses" yaml:"log_responses"`
}

// AuthType represents different authentication methods
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeCustom AuthType = "custom"
	AuthTypeAPIKey AuthType = "api_key"
)

// TokenRefreshFunc returns a fresh bearer token before each request
type TokenRefreshFunc func(ctx context.Context) (string, error)

// DefaultConfig returns a secure default configuration
func DefaultConfig() *Config {
	return &Config{
		Timeout:   30 * time.Second,
		UserAgent: "stretchsync/1.0",
		Headers:   make(map[string]string),

		RetryConfig: &RetryConfig{
			MaxRetries:   3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
			Jitter:       true,
			RetryableStatus: []int{
				http.StatusTooManyRequests,
				http.StatusInternalServerError,
				http.StatusBadGateway,
				http.StatusServiceUnavailable,
				http.StatusGatewayTimeout,
			},
		},

		TLSConfig: &TLSConfig{
			MinVersion: tls.VersionTLS12,
			CipherSuites: []uint16{
				tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
				tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
			},
		},

		AuthConfig: &AuthConfig{
			Type:          AuthTypeNone,
			CustomHeaders: make(map[string]string),
			TokenHeader:   "Authorization",
			TokenPrefix:   "Bearer",
		},

		RateLimitConfig: &RateLimitConfig{
			RequestsPerSecond: 10.0,
			BurstSize:         20,
		},

		BreakerConfig: &BreakerConfig{
			MaxFailures:      5,
			OpenTimeout:      30 * time.Second,
			HalfOpenRequests: 1,
		},

		PoolConfig: &PoolConfig{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			MaxConnsPerHost:     50,
			IdleConnTimeout:     90 * time.Second,
			DialTimeout:         5 * time.Second,
			KeepAlive:           30 * time.Second,
		},

		LogConfig: &LogConfig{},
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *Config {
	config := DefaultConfig()

	config.TLSConfig.InsecureSkipVerify = true
	config.Timeout = 5 * time.Second
	config.PoolConfig.DialTimeout = 1 * time.Second

	// No retries, no breaker and no throttling in tests
	config.RetryConfig.MaxRetries = 0
	config.BreakerConfig = nil
	config.RateLimitConfig = nil

	config.LogConfig.LogRequests = true
	config.LogConfig.LogResponses = true

	return config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return &ConfigError{Field: "Timeout", Message: "must be positive"}
	}

	if c.RetryConfig != nil {
		if c.RetryConfig.MaxRetries < 0 {
			return &ConfigError{Field: "RetryConfig.MaxRetries", Message: "cannot be negative"}
		}
		if c.RetryConfig.MaxRetries > 0 {
			if c.RetryConfig.InitialDelay <= 0 {
				return &ConfigError{Field: "RetryConfig.InitialDelay", Message: "must be positive"}
			}
			if c.RetryConfig.Multiplier <= 1.0 {
				return &ConfigError{Field: "RetryConfig.Multiplier", Message: "must be greater than 1.0"}
			}
		}
	}

	if c.RateLimitConfig != nil {
		if c.RateLimitConfig.RequestsPerSecond <= 0 {
			return &ConfigError{Field: "RateLimitConfig.RequestsPerSecond", Message: "must be positive"}
		}
		if c.RateLimitConfig.BurstSize <= 0 {
			return &ConfigError{Field: "RateLimitConfig.BurstSize", Message: "must be positive"}
		}
	}

	if c.BreakerConfig != nil && c.BreakerConfig.MaxFailures > 0 && c.BreakerConfig.OpenTimeout < 0 {
		return &ConfigError{Field: "BreakerConfig.OpenTimeout", Message: "cannot be negative"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config field %s: %s", e.Field, e.Message)
}
