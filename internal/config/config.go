// Package config provides configuration for alertlink.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ALERTLINK_SERVER_HTTP_PORT.
const EnvPrefix = "ALERTLINK"

// Config holds the alertlink configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	WebSocket WebSocketConfig `mapstructure:"ws"`
	Log       LogConfig       `mapstructure:"log"`

	// MOCK swaps the LLM client for a canned one.
	Mode string `mapstructure:"mode"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	HTTPPort int    `mapstructure:"http_port"` // dispatch API
	WSPort   int    `mapstructure:"ws_port"`   // websocket channel
	LockFile string `mapstructure:"lock_file"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// LLMConfig holds advisory generation settings.
type LLMConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// DispatchConfig holds delivery settings.
type DispatchConfig struct {
	SendTimeoutMS int `mapstructure:"send_timeout_ms"`
}

// TelegramConfig holds Telegram bot settings. An empty token disables the channel.
type TelegramConfig struct {
	Token          string `mapstructure:"token"`
	PollTimeoutSec int    `mapstructure:"poll_timeout_sec"`
}

// WebSocketConfig holds websocket channel settings.
type WebSocketConfig struct {
	APIKey          string `mapstructure:"api_key"` // required in hello when set
	PingIntervalMS  int    `mapstructure:"ping_interval_ms"`
	WriteTimeoutMS  int    `mapstructure:"write_timeout_ms"`
	ReadTimeoutMS   int    `mapstructure:"read_timeout_ms"`
	MaxMessageBytes int64  `mapstructure:"max_message_size"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console, json or auto
}

// Load reads configuration from defaults, an optional config file and the
// environment. An empty path searches for alertlink.{toml,yaml,json} in the
// working directory; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("alertlink")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "")

	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.ws_port", 8090)
	v.SetDefault("server.lock_file", "alertlink.lock")

	v.SetDefault("database.url", "file:alertlink.db?cache=shared&mode=rwc")

	v.SetDefault("llm.base_url", "http://localhost:4000")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout_ms", 30000)

	v.SetDefault("dispatch.send_timeout_ms", 10000)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.poll_timeout_sec", 60)

	v.SetDefault("ws.api_key", "")
	v.SetDefault("ws.ping_interval_ms", 30000)
	v.SetDefault("ws.write_timeout_ms", 10000)
	v.SetDefault("ws.read_timeout_ms", 60000)
	v.SetDefault("ws.max_message_size", 65536)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")
}

// GenerationTimeout bounds one advisory generation call.
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutMS) * time.Millisecond
}

// SendTimeout bounds one channel send.
func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.Dispatch.SendTimeoutMS) * time.Millisecond
}

// PingInterval is the websocket keepalive period.
func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.WebSocket.PingIntervalMS) * time.Millisecond
}

// WriteTimeout bounds one websocket frame write.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WebSocket.WriteTimeoutMS) * time.Millisecond
}

// ReadTimeout is how long a websocket may stay silent before it is dropped.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.WebSocket.ReadTimeoutMS) * time.Millisecond
}

// TelegramEnabled reports whether the Telegram channel should run.
func (c *Config) TelegramEnabled() bool {
	return strings.TrimSpace(c.Telegram.Token) != ""
}
