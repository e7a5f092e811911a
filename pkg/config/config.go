package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/history/pkg/adapters/process"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Confirm policies for string veto messages.
const (
	ConfirmAllow   = "allow"
	ConfirmDeny    = "deny"
	ConfirmPrompt  = "prompt"
	ConfirmProcess = "process"
)

// Defaults.
const (
	DefaultKeyLength = 6
	MaxKeyLength     = 11
	DefaultHTTPAddr  = ":8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Config is the application configuration, read from YAML or decoded from a map.
type Config struct {
	KeyLength int    `yaml:"key_length" mapstructure:"key_length"`
	LogLevel  string `yaml:"log_level" mapstructure:"log_level"`
	LogFormat string `yaml:"log_format" mapstructure:"log_format"`

	Store StoreConfig `yaml:"store" mapstructure:"store"`
	HTTP  HTTPConfig  `yaml:"http" mapstructure:"http"`

	// Guards veto transitions into path prefixes.
	Guards []Guard `yaml:"guards" mapstructure:"guards"`

	// Hooks are external processes consulted before each transition.
	Hooks []ProcessConfig `yaml:"hooks" mapstructure:"hooks"`

	// Confirm answers string veto messages: allow, deny, prompt or process.
	Confirm        string         `yaml:"confirm" mapstructure:"confirm"`
	ConfirmCommand *ProcessConfig `yaml:"confirm_command,omitempty" mapstructure:"confirm_command"`
}

// StoreConfig selects and configures the snapshot store.
type StoreConfig struct {
	Backend       string        `yaml:"backend" mapstructure:"backend"`
	Dir           string        `yaml:"dir" mapstructure:"dir"`
	RedisAddr     string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string        `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int           `yaml:"redis_db" mapstructure:"redis_db"`
	Prefix        string        `yaml:"prefix" mapstructure:"prefix"`
	TTL           time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Lock          bool          `yaml:"lock" mapstructure:"lock"`

	// EncryptionKey enables AES-GCM snapshot encryption. Base64 of 32 bytes.
	EncryptionKey string `yaml:"encryption_key" mapstructure:"encryption_key"`
	// PIIPatterns mask matching state keys before snapshots are written.
	PIIPatterns []string `yaml:"pii_patterns" mapstructure:"pii_patterns"`
}

// HTTPConfig configures the HTTP adapter.
type HTTPConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// Guard vetoes transitions whose pathname starts with Prefix, using Message.
// An empty Message rejects outright.
type Guard struct {
	Prefix  string `yaml:"prefix" mapstructure:"prefix"`
	Message string `yaml:"message" mapstructure:"message"`
}

// ProcessConfig describes an external command.
type ProcessConfig = process.Config

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		KeyLength: DefaultKeyLength,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Store: StoreConfig{
			Backend: BackendMemory,
			Dir:     filepath.Join(".history", "sessions"),
		},
		HTTP:    HTTPConfig{Addr: DefaultHTTPAddr},
		Confirm: ConfirmAllow,
	}
}

// Load reads a YAML file over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	// Durations are written as "30s"; go through a map so mapstructure can convert them.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return Decode(raw)
}

// Decode builds a Config from a generic map (flags, env, a parsed document) over the defaults.
func Decode(raw map[string]any) (Config, error) {
	cfg := Default()
	if raw == nil {
		return cfg, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return cfg, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Normalize replaces invalid values with defaults, logging a warning for each.
func (c *Config) Normalize(logger *slog.Logger) {
	warn := func(field string, value any, fallback any) {
		logger.Warn("invalid config value, using default",
			"field", field,
			"value", value,
			"default", fallback,
		)
	}

	if c.KeyLength < 1 || c.KeyLength > MaxKeyLength {
		warn("key_length", c.KeyLength, DefaultKeyLength)
		c.KeyLength = DefaultKeyLength
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		warn("log_level", c.LogLevel, DefaultLogLevel)
		c.LogLevel = DefaultLogLevel
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
		c.LogFormat = strings.ToLower(c.LogFormat)
	default:
		warn("log_format", c.LogFormat, DefaultLogFormat)
		c.LogFormat = DefaultLogFormat
	}

	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		warn("store.backend", c.Store.Backend, BackendMemory)
		c.Store.Backend = BackendMemory
	}
	if c.Store.TTL < 0 {
		warn("store.ttl", c.Store.TTL, time.Duration(0))
		c.Store.TTL = 0
	}

	if c.HTTP.Addr == "" {
		warn("http.addr", c.HTTP.Addr, DefaultHTTPAddr)
		c.HTTP.Addr = DefaultHTTPAddr
	}

	switch c.Confirm {
	case ConfirmAllow, ConfirmDeny, ConfirmPrompt:
	case ConfirmProcess:
		if c.ConfirmCommand == nil || c.ConfirmCommand.Command == "" {
			warn("confirm", c.Confirm+" without confirm_command", ConfirmAllow)
			c.Confirm = ConfirmAllow
		}
	default:
		warn("confirm", c.Confirm, ConfirmAllow)
		c.Confirm = ConfirmAllow
	}

	guards := c.Guards[:0]
	for _, g := range c.Guards {
		if g.Prefix == "" {
			warn("guards.prefix", g.Prefix, "guard dropped")
			continue
		}
		guards = append(guards, g)
	}
	c.Guards = guards

	hooks := c.Hooks[:0]
	for _, h := range c.Hooks {
		if h.Command == "" {
			warn("hooks.command", h.Name, "hook dropped")
			continue
		}
		hooks = append(hooks, h)
	}
	c.Hooks = hooks
}

// Level returns the parsed log level. Call Normalize first.
func (c *Config) Level() slog.Level {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.LogLevel))
	return level
}
