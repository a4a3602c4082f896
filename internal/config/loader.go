package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const envPrefix = "LIGHTFLOW"

// ConfigLoader loads a Config from compiled-in defaults, a YAML file, and
// environment variables prefixed LIGHTFLOW_, in ascending priority.
type ConfigLoader struct {
	v          *viper.Viper
	configFile string
}

// ConfigLoaderOption configures a ConfigLoader.
type ConfigLoaderOption func(*ConfigLoader)

// WithConfigFile points the loader at an explicit YAML file instead of the
// default search path (lightflow.yaml in ., $HOME/.config/lightflow, then
// /etc/lightflow).
func WithConfigFile(path string) ConfigLoaderOption {
	return func(l *ConfigLoader) { l.configFile = path }
}

// NewConfigLoader builds a ConfigLoader around an existing viper instance,
// so tests can pass in a fresh viper.New() and assert on isolated state.
func NewConfigLoader(v *viper.Viper, opts ...ConfigLoaderOption) *ConfigLoader {
	l := &ConfigLoader{v: v}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves the configuration: defaults, then the config file if one is
// found, then environment variable overrides.
func (l *ConfigLoader) Load() (*Config, error) {
	l.v.SetEnvPrefix(envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows, so bind every
	// scalar key explicitly; an environment-only override then still applies.
	for _, key := range []string{
		"workflows", "libraries",
		"signal.host", "signal.port", "signal.database", "signal.password", "signal.polling_time",
		"store.host", "store.port", "store.database", "store.username", "store.password",
		"graph.workflow_polling_time", "graph.dag_polling_time",
	} {
		_ = l.v.BindEnv(key)
	}

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName("lightflow")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		l.v.AddConfigPath("$HOME/.config/lightflow")
		l.v.AddConfigPath("/etc/lightflow")
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	cfg := defaults()
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := l.v.Unmarshal(cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return cfg, nil
}

// Load is a convenience wrapper building a default ConfigLoader around a
// fresh viper instance.
func Load(opts ...ConfigLoaderOption) (*Config, error) {
	return NewConfigLoader(viper.New(), opts...).Load()
}
