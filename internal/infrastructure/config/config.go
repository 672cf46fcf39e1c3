package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Gray Logic input service.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Input     InputConfig     `yaml:"input"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// InputConfig selects which input devices are bound and how.
type InputConfig struct {
	// Autodetect binds every enumerable device with all feature categories.
	// Devices is ignored when set.
	Autodetect bool `yaml:"autodetect"`

	// PollInterval is how often a device goroutine checks for cancellation.
	// It bounds how long a detached device keeps running.
	// Default: 1s
	PollInterval time.Duration `yaml:"poll_interval"`

	// AggregateFeatures also creates one "any-device" node per feature.
	// Default: true
	AggregateFeatures bool `yaml:"aggregate_features"`

	// HealthInterval is how often health is published to MQTT.
	// Default: 30s
	HealthInterval time.Duration `yaml:"health_interval"`

	// Devices lists devices to bind when Autodetect is off.
	Devices []InputDeviceConfig `yaml:"devices"`
}

// InputDeviceConfig is one configured input device.
// Active and every Autodetect* flag default to true.
type InputDeviceConfig struct {
	Name                   string `yaml:"name"`
	Path                   string `yaml:"path"`
	Active                 bool   `yaml:"active"`
	AutodetectKeys         bool   `yaml:"autodetect_keys"`
	AutodetectLEDs         bool   `yaml:"autodetect_leds"`
	AutodetectRelativeAxes bool   `yaml:"autodetect_relative_axes"`
	AutodetectAbsoluteAxes bool   `yaml:"autodetect_absolute_axes"`
	AutodetectSwitches     bool   `yaml:"autodetect_switches"`
}

// UnmarshalYAML applies the per-device defaults before decoding.
func (d *InputDeviceConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain InputDeviceConfig
	p := plain{
		Active:                 true,
		AutodetectKeys:         true,
		AutodetectLEDs:         true,
		AutodetectRelativeAxes: true,
		AutodetectAbsoluteAxes: true,
		AutodetectSwitches:     true,
	}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*d = InputDeviceConfig(p)
	return nil
}

// DatabaseConfig contains SQLite database settings.
// The database persists the node graph across restarts.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// PayloadFormat is "json" or "cbor".
	PayloadFormat string `yaml:"payload_format"`
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

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
	MDNS     MDNSConfig       `yaml:"mdns"`
}

// APITimeoutConfig contains HTTP timeout settings.
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

// MDNSConfig controls DNS-SD advertisement of the API.
type MDNSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"`

	// Interface restricts advertisement to one network interface.
	// Empty means all multicast-capable interfaces.
	Interface string `yaml:"interface"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYLOGIC_SECTION_KEY
// For example: GRAYLOGIC_DATABASE_PATH, GRAYLOGIC_INPUT_AUTODETECT
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults. It is what Load starts
// from, and what the CLI runs with when no file exists.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "Gray Logic",
		},
		Input: InputConfig{
			PollInterval:      time.Second,
			AggregateFeatures: true,
			HealthInterval:    30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:        "./data/graylogic-input.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-input",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
			PayloadFormat: "json",
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			MDNS: MDNSConfig{
				Instance: "graylogic-input",
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYLOGIC_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	// Database
	if v := os.Getenv("GRAYLOGIC_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GRAYLOGIC_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("GRAYLOGIC_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Input
	if v := os.Getenv("GRAYLOGIC_INPUT_AUTODETECT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GRAYLOGIC_INPUT_AUTODETECT: %w", err)
		}
		cfg.Input.Autodetect = b
	}

	return nil
}

// Validate checks the configuration for errors.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []string

	// Site validation
	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// Input validation
	if c.Input.PollInterval <= 0 {
		errs = append(errs, "input.poll_interval must be positive")
	}
	if c.Input.HealthInterval <= 0 {
		errs = append(errs, "input.health_interval must be positive")
	}
	seen := make(map[string]bool, len(c.Input.Devices))
	for i, d := range c.Input.Devices {
		if d.Path == "" {
			errs = append(errs, fmt.Sprintf("input.devices[%d].path is required", i))
			continue
		}
		if seen[d.Path] {
			errs = append(errs, fmt.Sprintf("input.devices[%d].path %q is listed twice", i, d.Path))
		}
		seen[d.Path] = true
	}

	// Database validation
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	switch c.MQTT.PayloadFormat {
	case "json", "cbor":
	default:
		errs = append(errs, fmt.Sprintf("mqtt.payload_format must be json or cbor, got %q", c.MQTT.PayloadFormat))
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
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
