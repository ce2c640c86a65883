// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Telegram struct {
		Token string
	}
	GPT struct {
		APIKey string
		Model  string
	}
	Storage struct {
		Dir string
	}
	Server struct {
		Port string
	}
	ShutdownTimeout time.Duration
}

// Load loads the configuration
func Load() (*Config, error) {
	_ = godotenv.Load()

	// Create a new viper instance
	v := viper.New()

	// Set the config name (without extension)
	v.SetConfigName("config")

	// Add supported config file types
	v.SetConfigType("yaml")
	v.SetConfigType("json")

	// Add paths where to look for the config file
	v.AddConfigPath(".")                 // Look in current directory
	v.AddConfigPath("./config")          // Look in config subdirectory
	v.AddConfigPath("$HOME/.meal-agent") // Look in home directory

	// Set default values
	v.SetDefault("ShutdownTimeout", 10*time.Second)
	v.SetDefault("GPT.Model", "gpt-4o")
	v.SetDefault("Storage.Dir", "./data")
	v.SetDefault("Server.Port", "8080")

	// Enable environment variables to override config values
	v.AutomaticEnv()

	// Try to read config file
	err := v.ReadInConfig()

	// If there is no config file, fall back to environment variables
	if err != nil {
		cfg := &Config{}

		cfg.Telegram.Token = os.Getenv("TELEGRAM_TOKEN")
		cfg.GPT.APIKey = os.Getenv("GPT_API_KEY")
		cfg.GPT.Model = getEnvOr("GPT_MODEL", "gpt-4o")
		cfg.Storage.Dir = getEnvOr("DATA_DIR", "./data")
		cfg.Server.Port = getEnvOr("SERVER_PORT", "8080")
		cfg.ShutdownTimeout = 10 * time.Second

		return cfg, nil
	}

	// Process any ${ENV_VAR} syntax in the config values
	for _, key := range v.AllKeys() {
		value := v.GetString(key)
		if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
			envVar := strings.TrimPrefix(strings.TrimSuffix(value, "}"), "${")
			envValue := os.Getenv(envVar)
			if envValue != "" {
				v.Set(key, envValue)
			}
		}
	}

	// Unmarshal config to struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Helper function to get environment variable with default value
func getEnvOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
