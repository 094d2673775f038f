package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete swarmflow configuration.
type Config struct {
	// Tree selects where worker trees are loaded from.
	Tree TreeConfig `yaml:"tree" env:"TREE"`

	// Database configures the relational backend for tree and event
	// storage.
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`

	// Redis configures the Redis backend for event trails.
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Delegation bounds the control loop.
	Delegation DelegationConfig `yaml:"delegation" env:"DELEGATION"`

	// Evaluation configures the quality gate and its judge.
	Evaluation EvaluationConfig `yaml:"evaluation" env:"EVALUATION"`

	// Events selects the event trail backend.
	Events EventsConfig `yaml:"events" env:"EVENTS"`

	// Metrics configures the Prometheus exporter.
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log" env:"LOG"`
}

// TreeConfig selects the worker tree source.
type TreeConfig struct {
	// Source is "file" or "database".
	Source string `yaml:"source" env:"SOURCE"`
	// Path is the YAML tree file for the file source.
	Path string `yaml:"path" env:"PATH"`
	// Tenant is the default tenant requests run under.
	Tenant string `yaml:"tenant" env:"TENANT"`
}

// DatabaseConfig configures the relational store.
type DatabaseConfig struct {
	// Driver is currently "sqlite".
	Driver string `yaml:"driver" env:"DRIVER"`
	// DSN is the driver-specific connection string.
	DSN string `yaml:"dsn" env:"DSN"`
}

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	PoolSize int    `yaml:"pool_size" env:"POOL_SIZE"`
}

// DelegationConfig bounds one request.
type DelegationConfig struct {
	MaxFailuresPerWorker int           `yaml:"max_failures_per_worker" env:"MAX_FAILURES_PER_WORKER"`
	MaxDepth             int           `yaml:"max_depth" env:"MAX_DEPTH"`
	MaxGlobalFailures    int           `yaml:"max_global_failures" env:"MAX_GLOBAL_FAILURES"`
	PerCallTimeout       time.Duration `yaml:"per_call_timeout" env:"PER_CALL_TIMEOUT"`
	MaxSteps             int           `yaml:"max_steps" env:"MAX_STEPS"`
}

// EvaluationConfig configures the quality gate.
type EvaluationConfig struct {
	AcceptanceThreshold float64       `yaml:"acceptance_threshold" env:"ACCEPTANCE_THRESHOLD"`
	ScoreMin            float64       `yaml:"score_min" env:"SCORE_MIN"`
	ScoreMax            float64       `yaml:"score_max" env:"SCORE_MAX"`
	JudgeModel          string        `yaml:"judge_model" env:"JUDGE_MODEL"`
	JudgeTimeout        time.Duration `yaml:"judge_timeout" env:"JUDGE_TIMEOUT"`
}

// EventsConfig selects the event trail backend.
type EventsConfig struct {
	// Backend is "memory", "redis", or "database".
	Backend string `yaml:"backend" env:"BACKEND"`
	// KeyPrefix namespaces Redis keys.
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
	// TTL expires Redis trails; zero keeps them forever.
	TTL time.Duration `yaml:"ttl" env:"TTL"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or console.
	Format string `yaml:"format" env:"FORMAT"`
	// OutputPaths lists zap output targets.
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// Loader loads configuration with builder-style setup.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the SWARMFLOW env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "SWARMFLOW"}
}

// WithConfigPath sets the YAML file to load.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator appends a validation step run after loading.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load resolves the configuration: defaults, then file, then env.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}
		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}
	return nil
}

// Validate rejects configurations the runtime cannot act on.
func (c *Config) Validate() error {
	switch c.Tree.Source {
	case "file":
		if c.Tree.Path == "" {
			return fmt.Errorf("tree.path is required for the file source")
		}
	case "database":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the database source")
		}
	default:
		return fmt.Errorf("unknown tree source %q", c.Tree.Source)
	}

	switch c.Events.Backend {
	case "memory", "database":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis events backend")
		}
	default:
		return fmt.Errorf("unknown events backend %q", c.Events.Backend)
	}

	if c.Evaluation.ScoreMax <= c.Evaluation.ScoreMin {
		return fmt.Errorf("evaluation score range [%v, %v] is empty",
			c.Evaluation.ScoreMin, c.Evaluation.ScoreMax)
	}
	if t := c.Evaluation.AcceptanceThreshold; t < c.Evaluation.ScoreMin || t > c.Evaluation.ScoreMax {
		return fmt.Errorf("acceptance threshold %v outside score range", t)
	}
	return nil
}

// MustLoad loads configuration from path, panicking on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}
