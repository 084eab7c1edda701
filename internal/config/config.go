package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"periph.io/x/conn/v3/physic"
)

// Transports accepted by TRANSPORT.
const (
	TransportDevMem = "devmem"
	TransportPeriph = "periph"
	TransportSim    = "sim"
)

// EnvPrefix prefixes environment overrides: ACCELCTL_TRANSPORT=sim.
const EnvPrefix = "ACCELCTL"

// Config holds all application configuration values.
type Config struct {
	// Sensor transport
	Transport          string
	I2CBus             string // periph bus name, "" for the first bus
	I2CAddr            uint16
	TransportTimeoutMS int
	PollIntervalUS     int

	// Sensor setup
	AccelRateHz      float64
	AccelRangeG      int
	AccelFullRes     bool
	CalibrateOnStart bool
	OffsetsFile      string

	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicSample string
	TopicTap    string
	TopicPose   string

	// Timing
	SampleInterval     int // milliseconds
	ConsoleLogInterval int // milliseconds

	// Web Server
	WebServerPort         int
	RegisterDebugPort     int
	RegisterDebugWritable string // e.g. "0x1D-0x2A,0x2C-0x2F"; "" allows every RW register

	// Display
	DisplayI2CBus         string
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds

	Debug bool
}

// defaults doubles as the list of known keys.
var defaults = map[string]string{
	"TRANSPORT":               TransportDevMem,
	"I2C_BUS":                 "",
	"I2C_ADDR":                "0x53",
	"TRANSPORT_TIMEOUT_MS":    "100",
	"POLL_INTERVAL_US":        "50",
	"ACCEL_RATE_HZ":           "12.5",
	"ACCEL_RANGE_G":           "16",
	"ACCEL_FULL_RES":          "false",
	"CALIBRATE_ON_START":      "true",
	"OFFSETS_FILE":            "accel_offsets.yaml",
	"MQTT_BROKER":             "tcp://localhost:1883",
	"MQTT_CLIENT_ID_PRODUCER": "accel-producer",
	"MQTT_CLIENT_ID_CONSOLE":  "accel-console",
	"MQTT_CLIENT_ID_WEB":      "accel-web",
	"MQTT_CLIENT_ID_DISPLAY":  "accel-display",
	"TOPIC_SAMPLE":            "accel/sample",
	"TOPIC_TAP":               "accel/tap",
	"TOPIC_POSE":              "accel/pose",
	"SAMPLE_INTERVAL":         "20",
	"CONSOLE_LOG_INTERVAL":    "500",
	"WEB_SERVER_PORT":         "8080",
	"REGISTER_DEBUG_PORT":     "8081",
	"REGISTER_DEBUG_WRITABLE": "",
	"DISPLAY_I2C_BUS":         "",
	"DISPLAY_I2C_ADDR":        "0x3C",
	"DISPLAY_UPDATE_INTERVAL": "200",
	"DEBUG":                   "false",
}

// Singleton state: InitGlobal sets globalConfig once under the write lock,
// Get reads it under the read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

func newViper() *viper.Viper {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads a KEY=VALUE configuration file, applies ACCELCTL_ environment
// overrides and defaults, and validates the result. An empty path uses
// defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var unknown []string
	for _, k := range v.AllKeys() {
		if _, ok := defaults[strings.ToUpper(k)]; !ok {
			unknown = append(unknown, strings.ToUpper(k))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown config key(s): %s", strings.Join(unknown, ", "))
	}

	cfg := &Config{}
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := cfg.setValue(k, strings.TrimSpace(v.GetString(k))); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// Sensor transport
	case "TRANSPORT":
		c.Transport = strings.ToLower(value)
	case "I2C_BUS":
		c.I2CBus = value
	case "I2C_ADDR":
		c.I2CAddr, err = parseAddr(key, value)
	case "TRANSPORT_TIMEOUT_MS":
		c.TransportTimeoutMS, err = parseInt(key, value)
	case "POLL_INTERVAL_US":
		c.PollIntervalUS, err = parseInt(key, value)

	// Sensor setup
	case "ACCEL_RATE_HZ":
		c.AccelRateHz, err = parseHz(key, value)
	case "ACCEL_RANGE_G":
		c.AccelRangeG, err = parseInt(key, value)
	case "ACCEL_FULL_RES":
		c.AccelFullRes, err = parseBool(key, value)
	case "CALIBRATE_ON_START":
		c.CalibrateOnStart, err = parseBool(key, value)
	case "OFFSETS_FILE":
		c.OffsetsFile = value

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_SAMPLE":
		c.TopicSample = value
	case "TOPIC_TAP":
		c.TopicTap = value
	case "TOPIC_POSE":
		c.TopicPose = value

	// Timing
	case "SAMPLE_INTERVAL":
		c.SampleInterval, err = parseInt(key, value)
	case "CONSOLE_LOG_INTERVAL":
		c.ConsoleLogInterval, err = parseInt(key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value)
	case "REGISTER_DEBUG_PORT":
		c.RegisterDebugPort, err = parseInt(key, value)
	case "REGISTER_DEBUG_WRITABLE":
		c.RegisterDebugWritable = value

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_I2C_ADDR":
		c.DisplayI2CAddr, err = parseAddr(key, value)
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseInt(key, value)

	case "DEBUG":
		c.Debug, err = parseBool(key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}
	return err
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func parseAddr(key, value string) (uint16, error) {
	addr, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return uint16(addr), nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

// parseHz accepts a plain number of hertz ("12.5") or a frequency with
// unit ("12.5Hz", "1.6kHz").
func parseHz(key, value string) (float64, error) {
	if hz, err := strconv.ParseFloat(value, 64); err == nil {
		return hz, nil
	}
	var f physic.Frequency
	if err := f.Set(value); err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return float64(f) / float64(physic.Hertz), nil
}

// SSD1306Addr is the OLED address; the display driver does not take another.
const SSD1306Addr = 0x3C

// validate checks values that cannot work at all. Unsupported ranges and
// rates are left to the driver, which falls back to its defaults.
func (c *Config) validate() error {
	switch c.Transport {
	case TransportDevMem, TransportPeriph, TransportSim:
	default:
		return fmt.Errorf("TRANSPORT must be one of %s, %s, %s; got %q", TransportDevMem, TransportPeriph, TransportSim, c.Transport)
	}
	if c.TransportTimeoutMS <= 0 {
		return fmt.Errorf("TRANSPORT_TIMEOUT_MS must be positive, got %d", c.TransportTimeoutMS)
	}
	if c.PollIntervalUS < 0 {
		return fmt.Errorf("POLL_INTERVAL_US must not be negative, got %d", c.PollIntervalUS)
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("SAMPLE_INTERVAL must be positive, got %d", c.SampleInterval)
	}
	if c.ConsoleLogInterval <= 0 {
		return fmt.Errorf("CONSOLE_LOG_INTERVAL must be positive, got %d", c.ConsoleLogInterval)
	}
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.DisplayI2CAddr != SSD1306Addr {
		return fmt.Errorf("DISPLAY_I2C_ADDR must be 0x%02X, the only address the SSD1306 driver talks to; got 0x%02X", SSD1306Addr, c.DisplayI2CAddr)
	}
	return nil
}

// TransportTimeout bounds every bus transaction and hardware wait.
func (c *Config) TransportTimeout() time.Duration {
	return time.Duration(c.TransportTimeoutMS) * time.Millisecond
}

// PollInterval is the pause between hardware status polls.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalUS) * time.Microsecond
}

// InitGlobal initializes the global configuration from file. Only the first
// call loads anything.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration, or nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
