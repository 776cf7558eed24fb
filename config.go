package sliqsim

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config configures the provider, its job pool and the simulator lookup.
type Config struct {
	Executable        string
	SearchPaths       []string
	Workers           int
	QueueSize         int
	SchedulingTimeout time.Duration
	// JobTimeout bounds a whole job. Zero means no limit.
	JobTimeout time.Duration
	ResultTTL  time.Duration
	Breaker    CircuitBreakerConfig
	LogLevel   string
}

func NewConfig() *Config {
	return &Config{
		SearchPaths:       DefaultSearchPaths(),
		Workers:           2,
		QueueSize:         64,
		SchedulingTimeout: 10 * time.Second,
		ResultTTL:         time.Hour,
		Breaker: CircuitBreakerConfig{
			MaxFailures:  5,
			ResetTimeout: 30 * time.Second,
			HalfOpenMax:  1,
		},
		LogLevel: "info",
	}
}

func executableName() string {
	if runtime.GOOS == "windows" {
		return "SliQSim.exe"
	}
	return "SliQSim"
}

// DefaultSearchPaths lists where a SliQSim build is usually found.
func DefaultSearchPaths() []string {
	paths := []string{
		filepath.Join("build", "lib", "sliqsim", executableName()),
	}
	if self, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(self), executableName()))
	}
	return paths
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("executable", cfg.Executable)
	v.SetDefault("search_paths", cfg.SearchPaths)
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("queue_size", cfg.QueueSize)
	v.SetDefault("scheduling_timeout", cfg.SchedulingTimeout)
	v.SetDefault("job_timeout", cfg.JobTimeout)
	v.SetDefault("result_ttl", cfg.ResultTTL)
	v.SetDefault("breaker.max_failures", cfg.Breaker.MaxFailures)
	v.SetDefault("breaker.reset_timeout", cfg.Breaker.ResetTimeout)
	v.SetDefault("breaker.half_open_max", cfg.Breaker.HalfOpenMax)
	v.SetDefault("log_level", cfg.LogLevel)
}

/*
LoadConfig reads configuration from path (any format viper understands) and
from SLIQSIM_ prefixed environment variables, on top of NewConfig's
defaults. An empty path only applies the environment.
*/
func LoadConfig(path string) (*Config, error) {
	return loadConfig(viper.New(), path)
}

func loadConfig(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v, NewConfig())

	v.SetEnvPrefix("sliqsim")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Executable:        v.GetString("executable"),
		SearchPaths:       v.GetStringSlice("search_paths"),
		Workers:           v.GetInt("workers"),
		QueueSize:         v.GetInt("queue_size"),
		SchedulingTimeout: v.GetDuration("scheduling_timeout"),
		JobTimeout:        v.GetDuration("job_timeout"),
		ResultTTL:         v.GetDuration("result_ttl"),
		Breaker: CircuitBreakerConfig{
			MaxFailures:  v.GetInt("breaker.max_failures"),
			ResetTimeout: v.GetDuration("breaker.reset_timeout"),
			HalfOpenMax:  v.GetInt("breaker.half_open_max"),
		},
		LogLevel: v.GetString("log_level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue_size must be >= 1, got %d", c.QueueSize)
	}
	if c.SchedulingTimeout <= 0 {
		return fmt.Errorf("scheduling_timeout must be positive, got %v", c.SchedulingTimeout)
	}
	if c.JobTimeout < 0 {
		return fmt.Errorf("job_timeout must be >= 0, got %v", c.JobTimeout)
	}
	if c.Breaker.MaxFailures < 1 || c.Breaker.HalfOpenMax < 1 {
		return fmt.Errorf("breaker max_failures and half_open_max must be >= 1")
	}
	return nil
}
