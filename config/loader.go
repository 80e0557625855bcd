package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mcuadros/go-defaults"
	"github.com/spf13/viper"
)

// keys that can be set from the environment without a config file, e.g.
// BATCHBOARD_SERVE_DB_DSN
var envKeys = []string{
	"version",
	"log.level",
	"serve.port",
	"serve.db.dsn",
	"serve.db.min_open_connection",
	"serve.db.max_open_connection",
	"auth.token_secret",
	"reconciler.enabled",
	"reconciler.interval_in_minutes",
}

// LoadServerConfig reads the yaml file at path, or ./config.yaml when path is
// empty, then applies BATCHBOARD_ environment overrides. A missing default
// file is not an error.
func LoadServerConfig(path string) (*ServerConfig, error) {
	conf := &ServerConfig{}
	defaults.SetDefaults(conf)

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if path != EmptyPath {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFilename, ".yaml"))
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != EmptyPath || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if conf.Publisher != nil {
		defaults.SetDefaults(conf.Publisher)
	}
	return conf, nil
}
