package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds monitor runtime configuration.
type Config struct {
	Backend BackendConfig
	Log     LogConfig
}

// BackendConfig holds backend API connection configuration.
type BackendConfig struct {
	URL   string
	Token string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("monitor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("backend.url", "http://localhost:8080")
	v.SetDefault("backend.token", "")
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; using defaults
	}

	var config Config
	config.Backend.URL = v.GetString("backend.url")
	config.Backend.Token = v.GetString("backend.token")
	config.Log.Level = v.GetString("log.level")

	return &config, nil
}
