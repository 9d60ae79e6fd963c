// Package config loads the two values the remote client needs: the
// backend endpoint URL and the access credential.
//
// Values come from the environment (ROWSET_ENDPOINT, ROWSET_API_KEY)
// or from an optional rowset.yaml file in the working directory, with
// the environment taking precedence. The core query logic never reads
// configuration; only remote-client construction consumes it.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// envPrefix namespaces the environment variables: ROWSET_ENDPOINT,
// ROWSET_API_KEY.
const envPrefix = "ROWSET"

// Config carries remote-backend connection settings.
type Config struct {
	// Endpoint is the backend's REST base URL,
	// e.g. "https://example.supabase.co/rest/v1".
	Endpoint string `mapstructure:"endpoint"`

	// APIKey is the access credential sent with every request.
	APIKey string `mapstructure:"api_key"`
}

// ErrMissing reports absent required configuration.
var ErrMissing = errors.New("missing configuration")

// Load reads configuration from the environment and the optional
// config file. Both endpoint and api_key are required; absence is an
// error, never a panic.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	// Optional file; absence is fine, a malformed file is not.
	v.SetConfigName("rowset")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	// Bind explicitly so env vars resolve without file keys present.
	_ = v.BindEnv("endpoint")
	_ = v.BindEnv("api_key")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Endpoint == "" {
		return Config{}, fmt.Errorf("%w: endpoint (set %s_ENDPOINT)", ErrMissing, envPrefix)
	}
	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("%w: api_key (set %s_API_KEY)", ErrMissing, envPrefix)
	}

	return cfg, nil
}
