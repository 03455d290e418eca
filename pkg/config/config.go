// pkg/config/config.go
//
// Runtime configuration for stretchsync. Values resolve, lowest precedence
// first, from built-in defaults, stretchsync.yaml, a .env file, STRETCHSYNC_
// environment variables and command flags bound into the same viper
// instance.

package config

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/cli"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/envelope"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/httpclient"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/stretchr"
)

const (
	// EnvPrefix prefixes every environment variable read by stretchsync.
	EnvPrefix = "STRETCHSYNC"
	// FileName is the config file name searched without extension.
	FileName = "stretchsync"
	// DefaultBaseURL is the hosted Stretchr endpoint.
	DefaultBaseURL = "https://{project}.stretchr.com/api/v1.1"
)

// SearchPaths are the directories searched for stretchsync.yaml.
var SearchPaths = []string{".", "$HOME/.stretchsync", "/etc/stretchsync"}

// Config is the resolved runtime configuration.
type Config struct {
	Project   string     `mapstructure:"project" yaml:"project" validate:"required"`
	APIKey    string     `mapstructure:"api_key" yaml:"api_key" validate:"required"`
	BaseURL   string     `mapstructure:"base_url" yaml:"base_url" validate:"required"`
	Envelope  string     `mapstructure:"envelope" yaml:"envelope" validate:"oneof=accessor raw"`
	HTTP      HTTPConfig `mapstructure:"http" yaml:"http"`
	LogLevel  string     `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	Telemetry bool       `mapstructure:"telemetry" yaml:"telemetry"`
}

// HTTPConfig tunes the session transport.
type HTTPConfig struct {
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	MaxRetries      int           `mapstructure:"max_retries" yaml:"max_retries" validate:"gte=0,lte=10"`
	RateLimit       float64       `mapstructure:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
	Burst           int           `mapstructure:"burst" yaml:"burst" validate:"gte=0"`
	BreakerFailures uint32        `mapstructure:"breaker_failures" yaml:"breaker_failures"`
	InsecureTLS     bool          `mapstructure:"insecure_tls" yaml:"insecure_tls"`
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("project", "")
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("envelope", string(envelope.ShapeAccessor))
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.rate_limit", 10.0)
	v.SetDefault("http.burst", 20)
	v.SetDefault("http.breaker_failures", 5)
	v.SetDefault("http.insecure_tls", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("telemetry", false)
}

// NewViper returns a viper instance with defaults, config search paths and
// the environment prefix applied.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	for _, p := range SearchPaths {
		v.AddConfigPath(os.ExpandEnv(p))
	}
	cli.SetViperEnvPrefix(v, EnvPrefix)
	return v
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return cerr.Wrapf(err, "failed to load %s", filepath.Clean(p))
		}
	}
	return nil
}

// Decode reads the config file, if any, and decodes v without validating.
func Decode(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, cerr.Wrap(err, "failed to read config file")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, cerr.Wrap(err, "failed to decode configuration")
	}
	cfg.Envelope = strings.ToLower(strings.TrimSpace(cfg.Envelope))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	return cfg, nil
}

// Load decodes and validates v.
func Load(v *viper.Viper) (*Config, error) {
	cfg, err := Decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var result error

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return cerr.Wrap(err, "failed to validate configuration")
		}
		for _, fe := range fieldErrs {
			result = multierror.Append(result, fieldError(fe))
		}
	}

	if c.BaseURL != "" {
		u, err := url.Parse(c.ResolvedBaseURL())
		if err != nil || u.Scheme == "" || u.Host == "" {
			result = multierror.Append(result, cerr.Newf("base_url: %q is not an absolute URL", c.BaseURL))
		}
	}

	return result
}

func fieldError(fe validator.FieldError) error {
	key := keyFor(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return cerr.Newf("%s: is required", key)
	case "oneof":
		return cerr.Newf("%s: must be one of [%s], got %q", key, fe.Param(), fe.Value())
	default:
		return cerr.Newf("%s: failed %s=%s (value %v)", key, fe.Tag(), fe.Param(), fe.Value())
	}
}

// keyFor maps a validator namespace ("Config.HTTP.MaxRetries") to the
// configuration key ("http.max_retries").
func keyFor(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	switch s {
	case "APIKey":
		return "api_key"
	case "BaseURL":
		return "base_url"
	case "HTTP":
		return "http"
	case "InsecureTLS":
		return "insecure_tls"
	}
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ResolvedBaseURL is the base URL with the project substituted.
func (c *Config) ResolvedBaseURL() string {
	return stretchr.ExpandBaseURL(c.BaseURL, c.Project)
}

// EnvelopeShape returns the configured response shape.
func (c *Config) EnvelopeShape() envelope.Shape {
	shape, err := envelope.ParseShape(c.Envelope)
	if err != nil {
		return envelope.ShapeAccessor
	}
	return shape
}

// HTTPClientConfig derives the transport configuration.
func (c *Config) HTTPClientConfig() *httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.Timeout = c.HTTP.Timeout
	hc.RetryConfig.MaxRetries = c.HTTP.MaxRetries
	hc.TLSConfig.InsecureSkipVerify = c.HTTP.InsecureTLS

	if c.HTTP.RateLimit > 0 {
		burst := c.HTTP.Burst
		if burst <= 0 {
			burst = 1
		}
		hc.RateLimitConfig = &httpclient.RateLimitConfig{RequestsPerSecond: c.HTTP.RateLimit, BurstSize: burst}
	} else {
		hc.RateLimitConfig = nil
	}

	if c.HTTP.BreakerFailures > 0 {
		hc.BreakerConfig.MaxFailures = c.HTTP.BreakerFailures
	} else {
		hc.BreakerConfig = nil
	}

	hc.LogConfig.LogRequests = c.LogLevel == "debug"
	hc.LogConfig.LogResponses = c.LogLevel == "debug"
	return hc
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	out.APIKey = redact(c.APIKey)
	return &out
}

func redact(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 4:
		return "****"
	default:
		return "****" + secret[len(secret)-4:]
	}
}

// YAML renders the redacted configuration.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return nil, cerr.Wrap(err, "failed to render configuration")
	}
	return out, nil
}
