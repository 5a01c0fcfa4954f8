// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Engine EngineConfig `mapstructure:"engine" yaml:"engine"`
	Demo   DemoConfig   `mapstructure:"demo" yaml:"demo"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// EngineConfig holds the marquee engine defaults applied when the caller
// does not override them per engine.
type EngineConfig struct {
	Direction        string        `mapstructure:"direction" yaml:"direction"`
	Step             float64       `mapstructure:"step" yaml:"step"`
	StepWait         time.Duration `mapstructure:"step_wait" yaml:"step_wait"`
	Rows             int           `mapstructure:"rows" yaml:"rows"`
	Cols             int           `mapstructure:"cols" yaml:"cols"`
	HoverStop        bool          `mapstructure:"hover_stop" yaml:"hover_stop"`
	MinCountToScroll int           `mapstructure:"min_count_to_scroll" yaml:"min_count_to_scroll"`
	ContentSize      float64       `mapstructure:"content_size" yaml:"content_size"`
	ContainerSize    float64       `mapstructure:"container_size" yaml:"container_size"`
}

// DemoConfig drives the `marquee demo` command.
type DemoConfig struct {
	Items    []string      `mapstructure:"items" yaml:"items"`
	Duration time.Duration `mapstructure:"duration" yaml:"duration"`
	Browser  bool          `mapstructure:"browser" yaml:"browser"`
	PageURL  string        `mapstructure:"page_url" yaml:"page_url"`
}

// SetDefaults registers every configuration default on the given viper
// instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "marquee")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", true)

	v.SetDefault("engine.direction", "left")
	v.SetDefault("engine.step", 1.0)
	v.SetDefault("engine.step_wait", 16*time.Millisecond)
	v.SetDefault("engine.rows", 1)
	v.SetDefault("engine.cols", 1)
	v.SetDefault("engine.hover_stop", true)
	v.SetDefault("engine.min_count_to_scroll", 1)
	v.SetDefault("engine.content_size", 600.0)
	v.SetDefault("engine.container_size", 300.0)

	v.SetDefault("demo.items", []string{"alpha", "bravo", "charlie", "delta"})
	v.SetDefault("demo.duration", 5*time.Second)
	v.SetDefault("demo.browser", false)
	v.SetDefault("demo.page_url", "about:blank")
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults, but stay safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Load reads configuration from the given file (or the standard search
// paths when empty), overlays MARQUEE_* environment variables, and
// unmarshals the result.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName("marquee")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("MARQUEE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
