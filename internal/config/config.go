package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all stackpick configuration. The service-account credentials
// stay server-side; they are injected into the gateway at startup and never
// leave the process.
type Config struct {
	// Server settings
	HTTPAddress string

	// Upstream API settings
	APIBaseURL  string
	AuthBaseURL string
	APIKey      string
	Email       string
	Password    string

	// Connection selection
	ConnectionProvider string
}

// LoadConfig loads configuration from files and environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Configure environment variables - do this BEFORE reading config
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set up explicit mappings between struct fields and environment variables
	envMappings := map[string]string{
		"HTTPAddress":        "HTTP_ADDRESS",
		"APIBaseURL":         "STACKAI_API_URL",
		"AuthBaseURL":        "STACKAI_AUTH_URL",
		"APIKey":             "STACKAI_API_KEY",
		"Email":              "STACKAI_EMAIL",
		"Password":           "STACKAI_PASSWORD",
		"ConnectionProvider": "CONNECTION_PROVIDER",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("stackpick")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.stackpick")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTPAddress", ":8080")
	v.SetDefault("APIBaseURL", "https://api.stack-ai.com")
	v.SetDefault("AuthBaseURL", "https://sb.stack-ai.com")
	v.SetDefault("ConnectionProvider", "gdrive")
}

// validateConfig validates the required configuration fields
func validateConfig(config *Config) error {
	var missingVars []string

	if config.APIKey == "" {
		missingVars = append(missingVars, "STACKAI_API_KEY")
	}

	if config.Email == "" {
		missingVars = append(missingVars, "STACKAI_EMAIL")
	}

	if config.Password == "" {
		missingVars = append(missingVars, "STACKAI_PASSWORD")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missingVars, ", "))
	}

	return nil
}
