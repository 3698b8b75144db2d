package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wmbridge/errors"
	"github.com/wippyai/wmbridge/events"
)

// EnvPrefix prefixes every environment override, e.g. WMBRIDGE_LOG_LEVEL.
const EnvPrefix = "WMBRIDGE"

// Config holds bridge settings.
type Config struct {
	Events   EventsConfig
	Log      LogConfig
	Script   ScriptConfig
	Registry RegistryConfig
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	Capacity int
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string
}

// ScriptConfig holds scripting settings.
type ScriptConfig struct {
	RC string
}

// RegistryConfig holds reference tracking settings.
type RegistryConfig struct {
	FailOnLeak bool `mapstructure:"fail_on_leak"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Events:   EventsConfig{Capacity: events.DefaultCapacity},
		Log:      LogConfig{Level: "info", Format: "console"},
		Script:   ScriptConfig{RC: "rc.lua"},
		Registry: RegistryConfig{FailOnLeak: false},
	}
}

// Load reads configuration from path, or from WMBRIDGE_CONFIG, or from
// $HOME/.config/wmbridge/config.{toml,yaml,json}. A missing default file is not an
// error; a missing explicit file is. Env var overrides use prefix WMBRIDGE_.
func Load(path string) (Config, error) {
	def := Default()
	v := viper.New()

	v.SetDefault("events.capacity", def.Events.Capacity)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("script.rc", def.Script.RC)
	v.SetDefault("registry.fail_on_leak", def.Registry.FailOnLeak)

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("toml")
		}
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "wmbridge"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !stderrors.As(err, &notFound) {
			return Config{}, errors.Load(errors.PhaseConfig, "read config", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Load(errors.PhaseConfig, "unmarshal config", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Events.Capacity < 0 {
		return errors.InvalidInput(errors.PhaseConfig, "events.capacity must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log.level")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.InvalidInput(errors.PhaseConfig, "log.format must be console or json")
	}
	return nil
}

// Logger builds a zap logger writing to stderr.
func (c LogConfig) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log.level")
	}

	var zc zap.Config
	switch c.Format {
	case "json":
		zc = zap.NewProductionConfig()
	case "console", "":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, errors.InvalidInput(errors.PhaseConfig, "log.format must be console or json")
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	log, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "build logger")
	}
	return log, nil
}
