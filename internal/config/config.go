// Package config loads service configuration from defaults, an optional YAML
// file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"reuseit/delivery/types"
	"reuseit/internal/codegen"
)

const (
	defaultTemporalHost = "localhost:7233"
	defaultNamespace    = "default"
	defaultTaskQueue    = "delivery-task-queue"
	defaultGatewayAddr  = ":8088"
	defaultRedisPrefix  = "reuseit"
)

// Config holds runtime configuration shared by the worker, starter and gateway
type Config struct {
	Temporal struct {
		HostPort  string `yaml:"host_port"`
		Namespace string `yaml:"namespace"`
		TaskQueue string `yaml:"task_queue"`
	} `yaml:"temporal"`
	Redis struct {
		// Addr empty keeps archive and pickup points in memory
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Gateway struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"gateway"`
	Codes struct {
		Issuer string            `yaml:"issuer"`
		Static map[string]string `yaml:"static"`
	} `yaml:"codes"`
	Timing struct {
		ConfirmDelay   time.Duration `yaml:"confirm_delay"`
		ExitDelay      time.Duration `yaml:"exit_delay"`
		SessionTimeout time.Duration `yaml:"session_timeout"`
	} `yaml:"timing"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Search struct {
		RegionMarkers []string      `yaml:"region_markers"`
		Debounce      time.Duration `yaml:"debounce"`
	} `yaml:"search"`
	Seed Seed `yaml:"seed"`
}

// Default returns the configuration used when nothing overrides it
func Default() Config {
	var cfg Config
	cfg.Temporal.HostPort = defaultTemporalHost
	cfg.Temporal.Namespace = defaultNamespace
	cfg.Temporal.TaskQueue = defaultTaskQueue
	cfg.Redis.Prefix = defaultRedisPrefix
	cfg.Gateway.Addr = defaultGatewayAddr
	cfg.Gateway.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	cfg.Codes.Issuer = codegen.KindRandom
	cfg.Codes.Static = map[string]string{
		string(types.FlowPurchase):     "ABC-789",
		string(types.FlowSale):         "554-129",
		string(types.FlowDisposal):     "RCS-123",
		string(types.FlowRepairPickup): "REP-552",
	}
	cfg.Timing.ConfirmDelay = types.DefaultConfirmDelay
	cfg.Timing.ExitDelay = types.DefaultExitDelay
	cfg.Timing.SessionTimeout = types.DefaultSessionTimeout
	cfg.Log.Level = "info"
	cfg.Search.RegionMarkers = []string{"Area", "Regione"}
	return cfg
}

// Load builds the configuration. path may be empty; missing env files are
// skipped.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	readString("TEMPORAL_HOST", &c.Temporal.HostPort)
	readString("TEMPORAL_NAMESPACE", &c.Temporal.Namespace)
	readString("DELIVERY_TASK_QUEUE", &c.Temporal.TaskQueue)
	readString("REDIS_ADDR", &c.Redis.Addr)
	readString("REDIS_PASSWORD", &c.Redis.Password)
	readString("REDIS_PREFIX", &c.Redis.Prefix)
	readString("GATEWAY_ADDR", &c.Gateway.Addr)
	readString("CODE_ISSUER", &c.Codes.Issuer)
	readString("LOG_LEVEL", &c.Log.Level)

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse REDIS_DB: %w", err)
		}
		c.Redis.DB = db
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Gateway.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("REGION_MARKERS"); v != "" {
		c.Search.RegionMarkers = splitList(v)
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CONFIRM_DELAY", &c.Timing.ConfirmDelay},
		{"EXIT_DELAY", &c.Timing.ExitDelay},
		{"SESSION_TIMEOUT", &c.Timing.SessionTimeout},
		{"SEARCH_DEBOUNCE", &c.Search.Debounce},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("parse %s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}
	return nil
}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	if c.Temporal.HostPort == "" {
		return errors.New("temporal host_port is required")
	}
	if c.Temporal.TaskQueue == "" {
		return errors.New("temporal task_queue is required")
	}
	if _, err := codegen.New(c.Codes.Issuer, c.Codes.Static); err != nil {
		return err
	}
	if c.Timing.ConfirmDelay < 0 || c.Timing.ExitDelay < 0 || c.Timing.SessionTimeout < 0 {
		return errors.New("timing durations must not be negative")
	}
	if c.Search.Debounce < 0 {
		return errors.New("search debounce must not be negative")
	}
	return nil
}

// WorkflowTiming converts the timing section for workflow input
func (c Config) WorkflowTiming() types.Timing {
	return types.Timing{
		ConfirmDelay:   c.Timing.ConfirmDelay,
		ExitDelay:      c.Timing.ExitDelay,
		SessionTimeout: c.Timing.SessionTimeout,
	}.WithDefaults()
}

func readString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
