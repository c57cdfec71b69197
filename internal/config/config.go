package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	// glow: where the document store lives
	StoreURL string `mapstructure:"storeUrl"`
	// "lat,lng", used to resolve sunrise/sunset schedule times
	GeoLocation string `mapstructure:"geoLocation"`

	// glowd
	ListenAddress     string `mapstructure:"listenAddress"`
	DatabasePath      string `mapstructure:"databasePath"`
	RequestsPerMinute int    `mapstructure:"requestsPerMinute"`

	LogLevel string `mapstructure:"logLevel"`
	// empty logs to stderr
	LogFile string `mapstructure:"logFile"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storeUrl", "http://localhost:8484")
	v.SetDefault("geoLocation", "")
	v.SetDefault("listenAddress", ":8484")
	v.SetDefault("databasePath", "glow.db")
	v.SetDefault("requestsPerMinute", 600)
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFile", "")
}

// ReadConfig loads config.json from the usual places (or configFile if given),
// then applies GLOW_* environment overrides. A missing config file is fine.
func ReadConfig(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")              // name of config file (without extension)
		v.SetConfigType("json")                // REQUIRED if the config file does not have the extension in the name
		v.AddConfigPath("/etc/glow/")          // path to look for the config file in
		v.AddConfigPath("$HOME/.config/glow/") // call multiple times to add many search paths
		v.AddConfigPath(".")                   // optionally look for config in the working directory
	}

	v.SetEnvPrefix("glow")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	return &cfg, nil
}
