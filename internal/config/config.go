package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// EnvPrefix marks environment variables that override file values,
// e.g. GAIT_STRATEGY=classifier.
const EnvPrefix = "GAIT_"

// Config holds all application configuration values.
type Config struct {
	// Sensor ingress
	SensorSource    string // http, mqtt or mock
	SensorURL       string
	SensorTimeoutMS int
	SensorAxis      string // av, ax..gz or accel_mag

	// Pipeline
	BufferCapacity    int
	TargetRateHz      float64
	TickInterval      int // milliseconds
	EvaluationSamples int
	InitialThreshold  float64

	// Decision
	Strategy         string // threshold or classifier
	ActiveMetrics    []string
	ClassifierMode   string // per_metric or per_dimension
	FeatureBins      int
	MaxDepth         int
	ClaimedIdentity  string
	FailedTickPolicy string // deny or none

	// Dataset
	DatasetBackend string // none, csv or redis
	DatasetDir     string
	RedisAddr      string
	RedisDB        int

	// Actuation
	Actuators  []string // serial, gpio, mqtt, log
	SerialPort string
	SerialBaud int
	GPIOPin    string

	// MQTT
	MQTTBroker     string
	MQTTClientID   string
	TopicSamples   string
	TopicDecision  string
	TopicCalibrate string

	// Control surface
	ControlPort int
	ProfilePath string
	DeviceID    string
}

// Package-level singleton, set once by InitGlobal and read through Get.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration of a single-enrollee door unit.
func Default() *Config {
	return &Config{
		SensorSource:    "http",
		SensorURL:       "http://192.168.4.1",
		SensorTimeoutMS: 8000,
		SensorAxis:      "av",

		BufferCapacity:    1000,
		TargetRateHz:      100,
		TickInterval:      3000,
		EvaluationSamples: 4,
		InitialThreshold:  0.75,

		Strategy:         "threshold",
		ActiveMetrics:    []string{"msq", "jaccard", "cossim", "correlation", "spectral_energy"},
		ClassifierMode:   "per_metric",
		FeatureBins:      16,
		MaxDepth:         10,
		ClaimedIdentity:  "me",
		FailedTickPolicy: "deny",

		DatasetBackend: "none",
		DatasetDir:     "gait_data",
		RedisAddr:      "localhost:6379",

		Actuators:  []string{"log"},
		SerialPort: "/dev/ttyACM0",
		SerialBaud: 9600,

		MQTTBroker:     "tcp://localhost:1883",
		MQTTClientID:   "gait-lock",
		TopicSamples:   "gait/samples",
		TopicDecision:  "gait/decision",
		TopicCalibrate: "gait/calibrate",

		ControlPort: 8888,
		ProfilePath: "calibration_profile.json",
		DeviceID:    "door",
	}
}

// Load reads a KEY=VALUE configuration file on top of the defaults, then
// applies GAIT_* environment overrides. An empty path skips the file.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		values, err := godotenv.Read(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.apply(values); err != nil {
			return nil, err
		}
	}

	env := map[string]string{}
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(key, EnvPrefix) {
			env[strings.TrimPrefix(key, EnvPrefix)] = value
		}
	}
	if err := cfg.apply(env); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) apply(values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := c.setValue(strings.TrimSpace(k), strings.TrimSpace(values[k])); err != nil {
			return fmt.Errorf("config key %s: %w", k, err)
		}
	}
	return nil
}

func atoi(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func positive(key, value string) (int, error) {
	v, err := atoi(key, value)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, v)
	}
	return v, nil
}

func list(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func oneOf(key, value string, allowed ...string) (string, error) {
	v := strings.ToLower(value)
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s must be one of %s, got %q", key, strings.Join(allowed, "|"), value)
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// Sensor ingress
	case "SENSOR_SOURCE":
		c.SensorSource, err = oneOf(key, value, "http", "mqtt", "mock")
	case "SENSOR_URL":
		c.SensorURL = value
	case "SENSOR_TIMEOUT_MS":
		c.SensorTimeoutMS, err = positive(key, value)
	case "SENSOR_AXIS":
		c.SensorAxis, err = oneOf(key, value, "av", "ax", "ay", "az", "gx", "gy", "gz", "accel_mag")

	// Pipeline
	case "BUFFER_CAPACITY":
		c.BufferCapacity, err = positive(key, value)
	case "TARGET_RATE_HZ":
		rate, perr := strconv.ParseFloat(value, 64)
		if perr != nil {
			return fmt.Errorf("invalid TARGET_RATE_HZ %q: %w", value, perr)
		}
		if rate <= 0 {
			return fmt.Errorf("TARGET_RATE_HZ must be positive, got %v", rate)
		}
		c.TargetRateHz = rate
	case "TICK_INTERVAL":
		c.TickInterval, err = positive(key, value)
	case "EVALUATION_SAMPLES":
		c.EvaluationSamples, err = positive(key, value)
	case "INITIAL_THRESHOLD":
		th, perr := strconv.ParseFloat(value, 64)
		if perr != nil {
			return fmt.Errorf("invalid INITIAL_THRESHOLD %q: %w", value, perr)
		}
		c.InitialThreshold = th

	// Decision
	case "STRATEGY":
		c.Strategy, err = oneOf(key, value, "threshold", "classifier")
	case "ACTIVE_METRICS":
		c.ActiveMetrics = list(value)
	case "CLASSIFIER_MODE":
		c.ClassifierMode, err = oneOf(key, value, "per_metric", "per_dimension")
	case "FEATURE_BINS":
		c.FeatureBins, err = positive(key, value)
	case "MAX_DEPTH":
		c.MaxDepth, err = positive(key, value)
	case "CLAIMED_IDENTITY":
		c.ClaimedIdentity = value
	case "FAILED_TICK_POLICY":
		c.FailedTickPolicy, err = oneOf(key, value, "deny", "none")

	// Dataset
	case "DATASET_BACKEND":
		c.DatasetBackend, err = oneOf(key, value, "none", "csv", "redis")
	case "DATASET_DIR":
		c.DatasetDir = value
	case "REDIS_ADDR":
		c.RedisAddr = value
	case "REDIS_DB":
		c.RedisDB, err = atoi(key, value)

	// Actuation
	case "ACTUATORS":
		c.Actuators = list(value)
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		c.SerialBaud, err = positive(key, value)
	case "GPIO_PIN":
		c.GPIOPin = value

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "TOPIC_SAMPLES":
		c.TopicSamples = value
	case "TOPIC_DECISION":
		c.TopicDecision = value
	case "TOPIC_CALIBRATE":
		c.TopicCalibrate = value

	// Control surface
	case "CONTROL_PORT":
		c.ControlPort, err = positive(key, value)
	case "PROFILE_PATH":
		c.ProfilePath = value
	case "DEVICE_ID":
		c.DeviceID = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}
	return err
}

// MaxFeatureBins is the shortest spectrum a walk can produce, one minimal
// gait cycle.
const MaxFeatureBins = 20

// validate checks cross-field requirements.
func (c *Config) validate() error {
	switch c.SensorSource {
	case "http":
		if c.SensorURL == "" {
			return fmt.Errorf("SENSOR_URL is required for SENSOR_SOURCE=http")
		}
	case "mqtt":
		if c.MQTTBroker == "" || c.TopicSamples == "" {
			return fmt.Errorf("MQTT_BROKER and TOPIC_SAMPLES are required for SENSOR_SOURCE=mqtt")
		}
	}
	if len(c.ActiveMetrics) == 0 {
		return fmt.Errorf("ACTIVE_METRICS must name at least one metric")
	}
	if c.FeatureBins > MaxFeatureBins {
		return fmt.Errorf("FEATURE_BINS must be at most %d, got %d", MaxFeatureBins, c.FeatureBins)
	}
	if c.Strategy == "classifier" {
		if c.DatasetBackend == "none" {
			return fmt.Errorf("STRATEGY=classifier needs DATASET_BACKEND csv or redis")
		}
		if c.ClaimedIdentity == "" {
			return fmt.Errorf("CLAIMED_IDENTITY is required for STRATEGY=classifier")
		}
	}
	if c.DatasetBackend == "csv" && c.DatasetDir == "" {
		return fmt.Errorf("DATASET_DIR is required for DATASET_BACKEND=csv")
	}
	if c.DatasetBackend == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required for DATASET_BACKEND=redis")
	}
	for _, a := range c.Actuators {
		switch a {
		case "log":
		case "serial":
			if c.SerialPort == "" {
				return fmt.Errorf("SERIAL_PORT is required for the serial actuator")
			}
		case "gpio":
			if c.GPIOPin == "" {
				return fmt.Errorf("GPIO_PIN is required for the gpio actuator")
			}
		case "mqtt":
			if c.MQTTBroker == "" || c.TopicDecision == "" {
				return fmt.Errorf("MQTT_BROKER and TOPIC_DECISION are required for the mqtt actuator")
			}
		default:
			return fmt.Errorf("unknown actuator %q", a)
		}
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
