// Package config loads service configuration from a JSON config file,
// a .env file, and SIKILAT_* environment variables, in that order of
// precedence (environment wins).
package config

import (
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Assistant AssistantConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	// Driver selects the record-store backend: "sqlite" or "redis".
	Driver        string
	DataDir       string
	RedisAddr     string
	RedisPassword string
}

type AssistantConfig struct {
	// APIKey for the generative service. Empty disables the assistant;
	// the chat service falls back to local rules only.
	APIKey         string
	BaseURL        string
	ChatModel      string
	ReasoningModel string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4800,
		},
		Storage: StorageConfig{
			Driver:    "sqlite",
			DataDir:   defaultDataDir(),
			RedisAddr: "127.0.0.1:6379",
		},
		Assistant: AssistantConfig{
			ChatModel:      "gemini-2.0-flash",
			ReasoningModel: "gemini-2.0-pro",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration. A .env file in the working directory is
// applied to the environment first, so containerized and local runs
// configure the same way.
func Load() (Config, error) {
	_ = godotenv.Load()
	return loadWith(newFileBackend())
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}
