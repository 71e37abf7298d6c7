// internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "domfacade", cfg.Logger().ServiceName)
	assert.Empty(t, cfg.Logger().LogFile)
	assert.Equal(t, HostMemory, cfg.Host().Kind)
	assert.True(t, cfg.Host().CDP.Headless)
	assert.Equal(t, 10*time.Second, cfg.Host().CDP.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Runtime().ScriptTimeout)
	assert.False(t, cfg.Dispatch().IsolateListenerErrors)
	assert.Zero(t, cfg.Bridge().RateLimit)
}

func TestConfigFromYAML(t *testing.T) {
	yaml := []byte(`
logger:
  level: debug
  format: json
bridge:
  log_calls: true
  rate_limit: 50
  rate_burst: 5
host:
  kind: WIRE
  command: ["domfacade", "serve", "--page", "page.html"]
runtime:
  script_timeout: 2s
dispatch:
  isolate_listener_errors: true
`)
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBuffer(yaml)))

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger().Level)
	assert.Equal(t, "json", cfg.Logger().Format)
	assert.Equal(t, "green", cfg.Logger().Colors.Info, "unset keys keep their defaults")
	assert.Equal(t, BridgeConfig{LogCalls: true, RateLimit: 50, RateBurst: 5}, cfg.Bridge())
	assert.Equal(t, HostWire, cfg.Host().Kind, "kind is normalized")
	assert.Equal(t, []string{"domfacade", "serve", "--page", "page.html"}, cfg.Host().Command)
	assert.Equal(t, 2*time.Second, cfg.Runtime().ScriptTimeout)
	assert.True(t, cfg.Dispatch().IsolateListenerErrors)
}

func TestConfigFromEnvironment(t *testing.T) {
	t.Setenv("DOMFACADE_HOST_KIND", "cdp")
	t.Setenv("DOMFACADE_HOST_CDP_URL", "ws://127.0.0.1:9222/devtools/browser/x")

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("DOMFACADE")
	v.SetEnvKeyReplacer(EnvKeyReplacer())
	v.AutomaticEnv()

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, HostCDP, cfg.Host().Kind)
	assert.Equal(t, "ws://127.0.0.1:9222/devtools/browser/x", cfg.Host().CDP.URL)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.logger.Format = "xml" },
			wantErr: "logger.format must be 'console' or 'json'",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.bridge.RateLimit = -1 },
			wantErr: "bridge.rate_limit must not be negative",
		},
		{
			name: "rate limit without burst",
			mutate: func(c *Config) {
				c.bridge.RateLimit = 10
				c.bridge.RateBurst = 0
			},
			wantErr: "bridge.rate_burst must be a positive integer",
		},
		{
			name:    "unknown host kind",
			mutate:  func(c *Config) { c.SetHostKind("webkit") },
			wantErr: `host.kind must be one of`,
		},
		{
			name:    "wire host without command",
			mutate:  func(c *Config) { c.SetHostKind(HostWire) },
			wantErr: "host.command is required",
		},
		{
			name: "wire host with command",
			mutate: func(c *Config) {
				c.SetHostKind(HostWire)
				c.SetHostCommand([]string{"host-engine"})
			},
		},
		{
			name: "cdp host without timeout",
			mutate: func(c *Config) {
				c.SetHostKind(HostCDP)
				c.host.CDP.Timeout = 0
			},
			wantErr: "host.cdp.timeout must be a positive duration",
		},
		{
			name:    "zero script timeout",
			mutate:  func(c *Config) { c.SetScriptTimeout(0) },
			wantErr: "runtime.script_timeout must be a positive duration",
		},
		{
			name: "first invalid field wins",
			mutate: func(c *Config) {
				c.logger.Format = "xml"
				c.SetScriptTimeout(0)
			},
			wantErr: "logger.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewConfigFromViper_Invalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("runtime.script_timeout", "0s")

	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration: runtime.script_timeout")
}

func TestSetters(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetCDPHeadless(false)
	cfg.SetCDPURL("ws://remote")
	cfg.SetIsolateListenerErrors(true)
	cfg.SetBridgeLogCalls(true)

	assert.False(t, cfg.Host().CDP.Headless)
	assert.Equal(t, "ws://remote", cfg.Host().CDP.URL)
	assert.True(t, cfg.Dispatch().IsolateListenerErrors)
	assert.True(t, cfg.Bridge().LogCalls)
}
