package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Altair Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Logging   LoggingConfig   `yaml:"logging"`
	Sync      SyncConfig      `yaml:"sync"`
	Security  SecurityConfig  `yaml:"security"`
	Devices   []DeviceConfig  `yaml:"devices"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// MQTTConfig contains settings for the optional MQTT state feed.
// When Enabled is false, no broker connection is attempted.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SyncConfig contains the device synchronization engine settings.
//
// Durations are expressed in milliseconds in YAML to keep the file free of
// unit suffixes; accessor methods return time.Duration.
type SyncConfig struct {
	// StateTTL is the minimum age before the consolidated devicestate
	// endpoint is re-queried during a refresh cycle.
	StateTTL int `yaml:"state_ttl"`

	// FastInterval / SlowInterval are the cadence group polling intervals.
	FastInterval int `yaml:"fast_interval"`
	SlowInterval int `yaml:"slow_interval"`

	// BurstInterval replaces FastInterval while burst mode is active
	// (e.g. during an exposure or a slew).
	BurstInterval int `yaml:"burst_interval"`

	// HTTPTimeout is the per-call timeout for device protocol requests.
	HTTPTimeout int `yaml:"http_timeout"`

	// FailureThreshold is the number of consecutive failures after which a
	// property is demoted to unsupported.
	FailureThreshold int `yaml:"failure_threshold"`

	// FaultThreshold is the number of consecutive fully-failed refresh
	// cycles after which a device is moved to the Faulted state.
	FaultThreshold int `yaml:"fault_threshold"`

	// ConnectAttempts is how many times the initial probe is retried
	// before a connect is declared failed.
	ConnectAttempts int `yaml:"connect_attempts"`

	// ConnectRetryDelay is the pause between probe attempts.
	ConnectRetryDelay int `yaml:"connect_retry_delay"`
}

// SecurityConfig contains API security settings.
type SecurityConfig struct {
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig contains optional bearer-token authentication settings.
// When Enabled is false the API is open; intended for trusted LAN setups.
type AuthConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	JWTSecret      string `yaml:"jwt_secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"` // minutes
}

// DeviceConfig describes one device endpoint handed to the core.
// This list stands in for the external discovery collaborator: entries are
// immutable descriptors, the core never edits them.
type DeviceConfig struct {
	// Name is an optional stable identifier; defaults to "{type}-{number}@{address}".
	Name string `yaml:"name"`

	// Type is the device protocol type (camera, telescope, filterwheel,
	// dome, focuser, rotator).
	Type string `yaml:"type"`

	// Address is the host:port of the device's protocol server.
	Address string `yaml:"address"`

	// Number is the device instance number on that server.
	Number int `yaml:"number"`
}

// Load reads, parses, and validates a configuration file.
//
// Missing fields fall back to defaults; environment variables override
// file values afterwards.
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8600,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "altair-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Sync: SyncConfig{
			StateTTL:          500,
			FastInterval:      1000,
			SlowInterval:      10000,
			BurstInterval:     500,
			HTTPTimeout:       3000,
			FailureThreshold:  3,
			FaultThreshold:    5,
			ConnectAttempts:   3,
			ConnectRetryDelay: 1000,
		},
		Security: SecurityConfig{
			Auth: AuthConfig{
				Enabled:        false,
				AccessTokenTTL: 15,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ALTAIR_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// API
	if v := os.Getenv("ALTAIR_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("ALTAIR_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// MQTT
	if v := os.Getenv("ALTAIR_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ALTAIR_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ALTAIR_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Security - JWT secret (always override in production)
	if v := os.Getenv("ALTAIR_JWT_SECRET"); v != "" {
		cfg.Security.Auth.JWTSecret = v
	}
}

// validDeviceTypes are the device protocol types the core knows how to
// synchronize. Kept in sync with the catalog package tables.
var validDeviceTypes = map[string]bool{
	"camera":      true,
	"telescope":   true,
	"filterwheel": true,
	"dome":        true,
	"focuser":     true,
	"rotator":     true,
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Sync validation
	if c.Sync.FailureThreshold < 1 {
		errs = append(errs, "sync.failure_threshold must be at least 1")
	}
	if c.Sync.FaultThreshold < 1 {
		errs = append(errs, "sync.fault_threshold must be at least 1")
	}
	if c.Sync.FastInterval < 1 {
		errs = append(errs, "sync.fast_interval must be positive")
	}
	if c.Sync.SlowInterval < c.Sync.FastInterval {
		errs = append(errs, "sync.slow_interval must not be shorter than sync.fast_interval")
	}
	if c.Sync.BurstInterval < 1 || c.Sync.BurstInterval > c.Sync.FastInterval {
		errs = append(errs, "sync.burst_interval must be positive and not longer than sync.fast_interval")
	}
	if c.Sync.ConnectAttempts < 1 {
		errs = append(errs, "sync.connect_attempts must be at least 1")
	}

	// Device validation
	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if !validDeviceTypes[strings.ToLower(d.Type)] {
			errs = append(errs, fmt.Sprintf("devices[%d].type %q is not a supported device type", i, d.Type))
		}
		if d.Address == "" {
			errs = append(errs, fmt.Sprintf("devices[%d].address is required", i))
		}
		if d.Number < 0 {
			errs = append(errs, fmt.Sprintf("devices[%d].number must not be negative", i))
		}
		if d.Name != "" {
			if seen[d.Name] {
				errs = append(errs, fmt.Sprintf("devices[%d].name %q is duplicated", i, d.Name))
			}
			seen[d.Name] = true
		}
	}

	// Security validation - a JWT secret is required once auth is enabled.
	const minJWTSecretLength = 32
	if c.Security.Auth.Enabled {
		switch {
		case c.Security.Auth.JWTSecret == "":
			errs = append(errs, "security.auth.jwt_secret is required when auth is enabled (set ALTAIR_JWT_SECRET)")
		case len(c.Security.Auth.JWTSecret) < minJWTSecretLength:
			errs = append(errs, "security.auth.jwt_secret must be at least 32 characters")
		}
		if c.Security.Auth.Username == "" || c.Security.Auth.Password == "" {
			errs = append(errs, "security.auth.username and security.auth.password are required when auth is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetStateTTL returns the consolidated state TTL as a Duration.
func (c *SyncConfig) GetStateTTL() time.Duration {
	return time.Duration(c.StateTTL) * time.Millisecond
}

// GetFastInterval returns the fast cadence interval as a Duration.
func (c *SyncConfig) GetFastInterval() time.Duration {
	return time.Duration(c.FastInterval) * time.Millisecond
}

// GetSlowInterval returns the slow cadence interval as a Duration.
func (c *SyncConfig) GetSlowInterval() time.Duration {
	return time.Duration(c.SlowInterval) * time.Millisecond
}

// GetBurstInterval returns the burst cadence interval as a Duration.
func (c *SyncConfig) GetBurstInterval() time.Duration {
	return time.Duration(c.BurstInterval) * time.Millisecond
}

// GetHTTPTimeout returns the device protocol call timeout as a Duration.
func (c *SyncConfig) GetHTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeout) * time.Millisecond
}

// GetConnectRetryDelay returns the pause between connect probes as a Duration.
func (c *SyncConfig) GetConnectRetryDelay() time.Duration {
	return time.Duration(c.ConnectRetryDelay) * time.Millisecond
}
