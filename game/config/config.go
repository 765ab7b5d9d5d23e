package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/wricardo/mao-client/game/session"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MAO_"

// Config is the full client configuration
type Config struct {
	URL               string        `json:"url"`
	KeepaliveInterval time.Duration `json:"keepalive_interval"`
	WriteTimeout      time.Duration `json:"write_timeout"`
	HandshakeTimeout  time.Duration `json:"handshake_timeout"`
	ReadLimit         int64         `json:"read_limit"`
	Backoff           Backoff       `json:"backoff"`

	HTTPAddr   string `json:"http_addr"`
	QueueDir   string `json:"queue_dir"`
	PlayerName string `json:"player_name"`
	GameID     string `json:"game_id"`
	LogLevel   string `json:"log_level"`
	LogFormat  string `json:"log_format"`
}

// Backoff is the reconnect schedule
type Backoff struct {
	Base        time.Duration `json:"base"`
	Max         time.Duration `json:"max"`
	MaxExponent int           `json:"max_exponent"`
	Jitter      time.Duration `json:"jitter"`
}

// Default returns the production defaults.
func Default() Config {
	sc := session.DefaultConfig()
	return Config{
		URL:               sc.URL,
		KeepaliveInterval: sc.KeepaliveInterval,
		WriteTimeout:      sc.WriteTimeout,
		HandshakeTimeout:  sc.HandshakeTimeout,
		ReadLimit:         sc.ReadLimit,
		Backoff: Backoff{
			Base:        sc.Backoff.BaseDelay,
			Max:         sc.Backoff.MaxDelay,
			MaxExponent: sc.Backoff.MaxExponent,
			Jitter:      sc.Backoff.Jitter,
		},
		HTTPAddr:  "127.0.0.1:8080",
		LogLevel:  "info",
		LogFormat: "console",
	}
}

type fileConfig struct {
	URL               string      `toml:"url"`
	KeepaliveInterval string      `toml:"keepalive_interval"`
	WriteTimeout      string      `toml:"write_timeout"`
	HandshakeTimeout  string      `toml:"handshake_timeout"`
	ReadLimit         int64       `toml:"read_limit"`
	Backoff           fileBackoff `toml:"backoff"`
	HTTPAddr          string      `toml:"http_addr"`
	QueueDir          string      `toml:"queue_dir"`
	PlayerName        string      `toml:"player_name"`
	GameID            string      `toml:"game_id"`
	LogLevel          string      `toml:"log_level"`
	LogFormat         string      `toml:"log_format"`
}

type fileBackoff struct {
	Base        string `toml:"base"`
	Max         string `toml:"max"`
	MaxExponent int    `toml:"max_exponent"`
	Jitter      string `toml:"jitter"`
}

// Load returns the defaults overlaid with the TOML file at path.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %s", ErrInvalidConfig, undecoded[0])
	}

	strs := []struct {
		key string
		src string
		dst *string
	}{
		{"url", raw.URL, &cfg.URL},
		{"http_addr", raw.HTTPAddr, &cfg.HTTPAddr},
		{"queue_dir", raw.QueueDir, &cfg.QueueDir},
		{"player_name", raw.PlayerName, &cfg.PlayerName},
		{"game_id", raw.GameID, &cfg.GameID},
		{"log_level", raw.LogLevel, &cfg.LogLevel},
		{"log_format", raw.LogFormat, &cfg.LogFormat},
	}
	for _, s := range strs {
		if meta.IsDefined(s.key) {
			*s.dst = strings.TrimSpace(s.src)
		}
	}

	durations := []struct {
		key []string
		src string
		dst *time.Duration
	}{
		{[]string{"keepalive_interval"}, raw.KeepaliveInterval, &cfg.KeepaliveInterval},
		{[]string{"write_timeout"}, raw.WriteTimeout, &cfg.WriteTimeout},
		{[]string{"handshake_timeout"}, raw.HandshakeTimeout, &cfg.HandshakeTimeout},
		{[]string{"backoff", "base"}, raw.Backoff.Base, &cfg.Backoff.Base},
		{[]string{"backoff", "max"}, raw.Backoff.Max, &cfg.Backoff.Max},
		{[]string{"backoff", "jitter"}, raw.Backoff.Jitter, &cfg.Backoff.Jitter},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key...) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.src))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", strings.Join(d.key, "."), err)
		}
		*d.dst = v
	}

	if meta.IsDefined("read_limit") {
		cfg.ReadLimit = raw.ReadLimit
	}
	if meta.IsDefined("backoff", "max_exponent") {
		cfg.Backoff.MaxExponent = raw.Backoff.MaxExponent
	}

	return cfg, nil
}

// ApplyEnv overrides cfg with MAO_* environment variables that are set.
func ApplyEnv(cfg *Config) error {
	strs := map[string]*string{
		"URL":         &cfg.URL,
		"HTTP_ADDR":   &cfg.HTTPAddr,
		"QUEUE_DIR":   &cfg.QueueDir,
		"PLAYER_NAME": &cfg.PlayerName,
		"GAME_ID":     &cfg.GameID,
		"LOG_LEVEL":   &cfg.LogLevel,
		"LOG_FORMAT":  &cfg.LogFormat,
	}
	for name, dst := range strs {
		if v, ok := lookupEnv(name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"KEEPALIVE_INTERVAL": &cfg.KeepaliveInterval,
		"WRITE_TIMEOUT":      &cfg.WriteTimeout,
		"HANDSHAKE_TIMEOUT":  &cfg.HandshakeTimeout,
		"BACKOFF_BASE":       &cfg.Backoff.Base,
		"BACKOFF_MAX":        &cfg.Backoff.Max,
		"BACKOFF_JITTER":     &cfg.Backoff.Jitter,
	}
	for name, dst := range durations {
		v, ok := lookupEnv(name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
	}

	if v, ok := lookupEnv("READ_LIMIT"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse %sREAD_LIMIT: %w", EnvPrefix, err)
		}
		cfg.ReadLimit = n
	}
	if v, ok := lookupEnv("BACKOFF_MAX_EXPONENT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %sBACKOFF_MAX_EXPONENT: %w", EnvPrefix, err)
		}
		cfg.Backoff.MaxExponent = n
	}

	return nil
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Validate checks that cfg can drive a session.
func (c Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil || c.URL == "" {
		return fmt.Errorf("%w: url %q", ErrInvalidConfig, c.URL)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%w: url scheme must be ws or wss, got %q", ErrInvalidConfig, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: url %q has no host", ErrInvalidConfig, c.URL)
	}
	if c.KeepaliveInterval < 0 {
		return fmt.Errorf("%w: keepalive_interval must not be negative", ErrInvalidConfig)
	}
	if c.WriteTimeout < 0 || c.HandshakeTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	if c.ReadLimit < 0 {
		return fmt.Errorf("%w: read_limit must not be negative", ErrInvalidConfig)
	}
	if c.Backoff.Base <= 0 {
		return fmt.Errorf("%w: backoff.base must be positive", ErrInvalidConfig)
	}
	if c.Backoff.Max < c.Backoff.Base {
		return fmt.Errorf("%w: backoff.max %v is below backoff.base %v", ErrInvalidConfig, c.Backoff.Max, c.Backoff.Base)
	}
	if c.Backoff.MaxExponent < 0 {
		return fmt.Errorf("%w: backoff.max_exponent must not be negative", ErrInvalidConfig)
	}
	if c.Backoff.Jitter < 0 {
		return fmt.Errorf("%w: backoff.jitter must not be negative", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log_format must be console or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// SessionConfig converts c to session settings.
func (c Config) SessionConfig() session.Config {
	return session.Config{
		URL:               c.URL,
		KeepaliveInterval: c.KeepaliveInterval,
		WriteTimeout:      c.WriteTimeout,
		HandshakeTimeout:  c.HandshakeTimeout,
		ReadLimit:         c.ReadLimit,
		Backoff: session.BackoffConfig{
			BaseDelay:   c.Backoff.Base,
			MaxDelay:    c.Backoff.Max,
			MaxExponent: c.Backoff.MaxExponent,
			Jitter:      c.Backoff.Jitter,
		},
	}
}
