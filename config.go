package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/apiclient/cache"
	"github.com/jonwraymond/apiclient/observe"
	"github.com/jonwraymond/apiclient/transport"
)

// EnvBaseURL overrides Config.BaseURL when set.
const EnvBaseURL = "APICLIENT_BASE_URL"

// Config is the file representation of a Client.
type Config struct {
	// BaseURL is the backend base URL.
	// Default: "/_api"
	BaseURL string `yaml:"base_url"`

	Transport transport.HTTPConfig `yaml:"transport"`
	Monitor   MonitorConfig        `yaml:"monitor"`
	Cache     CacheConfig          `yaml:"cache"`

	// Observe enables telemetry when set.
	Observe *observe.Config `yaml:"observe"`
}

// MonitorConfig configures connection monitoring.
type MonitorConfig struct {
	// ProbeTimeout bounds every probe.
	// Default: 10 seconds
	ProbeTimeout time.Duration `yaml:"probe_timeout"`

	// Manual disables the polling loop until CheckConnection is called.
	Manual bool `yaml:"manual"`
}

// CacheConfig configures the offline read cache for stores.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
	MaxTTL     time.Duration `yaml:"max_ttl"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BaseURL != "" && !strings.HasPrefix(c.BaseURL, "/") {
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("%w: base_url: %w", ErrInvalidConfig, err)
		}
		if !slices.Contains([]string{"http", "https"}, u.Scheme) || u.Host == "" {
			return fmt.Errorf("%w: base_url %q must be a path or an http(s) URL", ErrInvalidConfig, c.BaseURL)
		}
	}
	if c.Monitor.ProbeTimeout < 0 {
		return fmt.Errorf("%w: monitor.probe_timeout must not be negative", ErrInvalidConfig)
	}
	if c.Transport.Timeout < 0 {
		return fmt.Errorf("%w: transport.timeout must not be negative", ErrInvalidConfig)
	}
	if c.Cache.DefaultTTL < 0 || c.Cache.MaxTTL < 0 {
		return fmt.Errorf("%w: cache TTLs must not be negative", ErrInvalidConfig)
	}
	if c.Observe != nil {
		if err := c.Observe.Validate(); err != nil {
			return fmt.Errorf("%w: observe: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// LoadConfig reads a YAML config file. See ParseConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("apiclient: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML after strict environment expansion. Unknown keys
// are rejected, and EnvBaseURL overrides base_url.
func ParseConfig(data []byte) (Config, error) {
	expanded, err := ExpandEnvStrict(string(data))
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("apiclient: decode config: %w", err)
	}

	if v, ok := os.LookupEnv(EnvBaseURL); ok && v != "" {
		cfg.BaseURL = v
	}
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict expands $VAR and ${VAR}; $$ produces a literal $.
// Only the braced form is strict: if ${VAR} is present but VAR is unset it
// errors, listing every such name. A bare $VAR that is unset expands to "".
func ExpandEnvStrict(s string) (string, error) {
	const dollar = "\x00APICLIENT_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollar)

	var missing []string
	for _, match := range envVarPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(match[1]); !ok && !slices.Contains(missing, match[1]) {
			missing = append(missing, match[1])
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	s = os.ExpandEnv(s)
	return strings.ReplaceAll(s, dollar, "$"), nil
}

// Options converts the configuration into client options. It builds the
// observer when Observe is set; the returned client owns it.
func (c Config) Options(ctx context.Context) ([]Option, error) {
	opts := []Option{
		WithBaseURL(c.BaseURL),
		WithHTTPConfig(c.Transport),
		WithProbeTimeout(c.Monitor.ProbeTimeout),
	}
	if c.Monitor.Manual {
		opts = append(opts, WithoutAutoStart())
	}
	if c.Cache.Enabled {
		policy := cache.DefaultPolicy()
		if c.Cache.DefaultTTL > 0 {
			policy.DefaultTTL = c.Cache.DefaultTTL
		}
		if c.Cache.MaxTTL > 0 {
			policy.MaxTTL = c.Cache.MaxTTL
		}
		opts = append(opts, WithStoreCache(cache.NewMemoryCache(policy), policy))
	}
	if c.Observe != nil {
		obs, err := observe.NewObserver(ctx, *c.Observe)
		if err != nil {
			return nil, err
		}
		opts = append(opts, withOwnedObserver(obs))
	}
	return opts, nil
}

// NewFromConfig validates cfg and creates a Client from it. opts are
// applied after the configuration and win over it.
func NewFromConfig(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := cfg.Options(ctx)
	if err != nil {
		return nil, err
	}

	return New(append(base, opts...)...)
}
