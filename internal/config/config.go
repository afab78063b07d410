package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds server configuration.
type Config struct {
	Addr            string
	DBPath          string
	LogLevel        string
	ProviderTimeout time.Duration
	GeminiAPIKey    string
}

// Load reads configuration from the environment (DEVFLOW_ prefix) with
// sensible defaults. GEMINI_API_KEY is also honored without the prefix; it
// only seeds the default model row.
func Load() Config {
	v := viper.New()
	v.SetEnvPrefix("DEVFLOW")
	v.AutomaticEnv()

	v.SetDefault("addr", ":3000")
	v.SetDefault("db_path", "devflow.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("provider_timeout_seconds", 120)
	v.BindEnv("gemini_api_key", "DEVFLOW_GEMINI_API_KEY", "GEMINI_API_KEY")

	return Config{
		Addr:            v.GetString("addr"),
		DBPath:          v.GetString("db_path"),
		LogLevel:        v.GetString("log_level"),
		ProviderTimeout: time.Duration(v.GetInt("provider_timeout_seconds")) * time.Second,
		GeminiAPIKey:    v.GetString("gemini_api_key"),
	}
}
