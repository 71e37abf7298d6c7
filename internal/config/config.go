// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Host kinds.
const (
	HostMemory = "memory"
	HostWire   = "wire"
	HostCDP    = "cdp"
)

// Interface exposes read access to the configuration so components can take it as a
// dependency without reaching for viper.
type Interface interface {
	Logger() LoggerConfig
	Bridge() BridgeConfig
	Host() HostConfig
	Runtime() RuntimeConfig
	Dispatch() DispatchConfig

	SetHostKind(kind string)
	SetHostCommand(command []string)
	SetCDPURL(url string)
	SetCDPHeadless(headless bool)
	SetScriptTimeout(d time.Duration)
	SetIsolateListenerErrors(isolate bool)
	SetBridgeLogCalls(enabled bool)
}

// Config holds the resolved settings for a run.
type Config struct {
	logger   LoggerConfig
	bridge   BridgeConfig
	host     HostConfig
	runtime  RuntimeConfig
	dispatch DispatchConfig
}

var _ Interface = (*Config)(nil)

// settings is the shape viper decodes into. Config keeps its fields private, so
// decoding goes through this mirror.
type settings struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Bridge   BridgeConfig   `mapstructure:"bridge" yaml:"bridge"`
	Host     HostConfig     `mapstructure:"host" yaml:"host"`
	Runtime  RuntimeConfig  `mapstructure:"runtime" yaml:"runtime"`
	Dispatch DispatchConfig `mapstructure:"dispatch" yaml:"dispatch"`
}

// LoggerConfig controls log level, format and the optional rotated log file.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig names the console color for each level.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BridgeConfig shapes the caller chain between the document and the host.
type BridgeConfig struct {
	LogCalls bool `mapstructure:"log_calls" yaml:"log_calls"`
	// RateLimit is in calls per second. Zero disables limiting.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst" yaml:"rate_burst"`
}

// HostConfig selects the engine that owns the real node tree.
type HostConfig struct {
	Kind    string    `mapstructure:"kind" yaml:"kind"`
	Command []string  `mapstructure:"command" yaml:"command"`
	CDP     CDPConfig `mapstructure:"cdp" yaml:"cdp"`
}

// CDPConfig configures the Chrome DevTools host. An empty URL launches a local browser.
type CDPConfig struct {
	URL      string        `mapstructure:"url" yaml:"url"`
	Headless bool          `mapstructure:"headless" yaml:"headless"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type RuntimeConfig struct {
	ScriptTimeout time.Duration `mapstructure:"script_timeout" yaml:"script_timeout"`
}

type DispatchConfig struct {
	// IsolateListenerErrors keeps running later listeners after one fails.
	IsolateListenerErrors bool `mapstructure:"isolate_listener_errors" yaml:"isolate_listener_errors"`
}

func (c *Config) Logger() LoggerConfig { return c.logger }
func (c *Config) Bridge() BridgeConfig { return c.bridge }
func (c *Config) Host() HostConfig { return c.host }
func (c *Config) Runtime() RuntimeConfig { return c.runtime }
func (c *Config) Dispatch() DispatchConfig { return c.dispatch }

func (c *Config) SetHostKind(kind string) { c.host.Kind = kind }
func (c *Config) SetHostCommand(command []string) { c.host.Command = command }
func (c *Config) SetCDPURL(url string) { c.host.CDP.URL = url }
func (c *Config) SetCDPHeadless(headless bool) { c.host.CDP.Headless = headless }
func (c *Config) SetScriptTimeout(d time.Duration) { c.runtime.ScriptTimeout = d }
func (c *Config) SetIsolateListenerErrors(on bool) { c.dispatch.IsolateListenerErrors = on }
func (c *Config) SetBridgeLogCalls(enabled bool) { c.bridge.LogCalls = enabled }

// NewDefaultConfig returns a configuration built from the defaults alone.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		// Defaults are static; failing here is a programming error.
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "domfacade")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	v.SetDefault("bridge.log_calls", false)
	v.SetDefault("bridge.rate_limit", 0.0)
	v.SetDefault("bridge.rate_burst", 1)

	v.SetDefault("host.kind", HostMemory)
	v.SetDefault("host.command", []string{})
	v.SetDefault("host.cdp.url", "")
	v.SetDefault("host.cdp.headless", true)
	v.SetDefault("host.cdp.timeout", "10s")

	v.SetDefault("runtime.script_timeout", "30s")

	v.SetDefault("dispatch.isolate_listener_errors", false)
}

// EnvKeyReplacer maps nested keys to environment names, so host.cdp.url is read
// from DOMFACADE_HOST_CDP_URL.
func EnvKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// NewConfigFromViper decodes and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg := &Config{
		logger:   s.Logger,
		bridge:   s.Bridge,
		host:     s.Host,
		runtime:  s.Runtime,
		dispatch: s.Dispatch,
	}
	cfg.host.Kind = strings.ToLower(strings.TrimSpace(cfg.host.Kind))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be 'console' or 'json', got %q", c.logger.Format)
	}
	if err := c.bridge.Validate(); err != nil {
		return err
	}
	if err := c.host.Validate(); err != nil {
		return err
	}
	if c.runtime.ScriptTimeout <= 0 {
		return fmt.Errorf("runtime.script_timeout must be a positive duration")
	}
	return nil
}

// Validate checks the rate limit settings.
func (b BridgeConfig) Validate() error {
	if b.RateLimit < 0 {
		return fmt.Errorf("bridge.rate_limit must not be negative")
	}
	if b.RateLimit > 0 && b.RateBurst < 1 {
		return fmt.Errorf("bridge.rate_burst must be a positive integer when bridge.rate_limit is set")
	}
	return nil
}

// Validate checks the host kind and the settings that kind needs.
func (h HostConfig) Validate() error {
	switch h.Kind {
	case HostMemory:
	case HostWire:
		if len(h.Command) == 0 || strings.TrimSpace(h.Command[0]) == "" {
			return fmt.Errorf("host.command is required when host.kind is %q", HostWire)
		}
	case HostCDP:
		if h.CDP.Timeout <= 0 {
			return fmt.Errorf("host.cdp.timeout must be a positive duration")
		}
	default:
		return fmt.Errorf("host.kind must be one of %q, %q, %q; got %q", HostMemory, HostWire, HostCDP, h.Kind)
	}
	return nil
}
