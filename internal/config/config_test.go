package config

import (
	"strings"
	"testing"
)

// memBackend is an in-memory config backend for tests.
type memBackend struct {
	data map[string]any
	err  error
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string]any)}
}

func (b *memBackend) GetString(key string) (string, bool, error) {
	if b.err != nil {
		return "", false, b.err
	}
	v, ok := b.data[key]
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (b *memBackend) GetInt(key string) (int, bool, error) {
	if b.err != nil {
		return 0, false, b.err
	}
	v, ok := b.data[key]
	if !ok {
		return 0, false, nil
	}
	return v.(int), true, nil
}

func (b *memBackend) SetString(key, val string) error {
	b.data[key] = val
	return nil
}

func (b *memBackend) SetInt(key string, val int) error {
	b.data[key] = val
	return nil
}

func (b *memBackend) Delete(key string) error {
	delete(b.data, key)
	return nil
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		if s.env != "" {
			t.Setenv(s.env, "")
		}
	}
}

// TestDefaults verifies default values when nothing is configured.
func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMemBackend())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4800 {
		t.Errorf("Server.Port = %d, want 4800", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, "sqlite")
	}
	if cfg.Storage.RedisAddr != "127.0.0.1:6379" {
		t.Errorf("Storage.RedisAddr = %q, want %q", cfg.Storage.RedisAddr, "127.0.0.1:6379")
	}
	if cfg.Assistant.ChatModel != "gemini-2.0-flash" {
		t.Errorf("Assistant.ChatModel = %q, want %q", cfg.Assistant.ChatModel, "gemini-2.0-flash")
	}
	if cfg.Assistant.ReasoningModel != "gemini-2.0-pro" {
		t.Errorf("Assistant.ReasoningModel = %q, want %q", cfg.Assistant.ReasoningModel, "gemini-2.0-pro")
	}
	if cfg.Assistant.APIKey != "" {
		t.Errorf("Assistant.APIKey = %q, want empty", cfg.Assistant.APIKey)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
}

// TestBackendValues verifies that stored values override defaults.
func TestBackendValues(t *testing.T) {
	clearEnv(t)

	b := newMemBackend()
	b.data["server.port"] = 9000
	b.data["storage.driver"] = "redis"
	b.data["storage.redis_addr"] = "redis.internal:6380"
	b.data["assistant.chat_model"] = "gemini-2.5-flash"
	b.data["log.level"] = "debug"

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "redis" {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, "redis")
	}
	if cfg.Storage.RedisAddr != "redis.internal:6380" {
		t.Errorf("Storage.RedisAddr = %q", cfg.Storage.RedisAddr)
	}
	if cfg.Assistant.ChatModel != "gemini-2.5-flash" {
		t.Errorf("Assistant.ChatModel = %q", cfg.Assistant.ChatModel)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
}

// TestEnvOverride verifies environment variables win over stored values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)

	b := newMemBackend()
	b.data["server.port"] = 9000
	b.data["storage.driver"] = "redis"

	t.Setenv("SIKILAT_SERVER_PORT", "7100")
	t.Setenv("SIKILAT_STORAGE_DRIVER", "sqlite")
	t.Setenv("SIKILAT_GENAI_API_KEY", "env-secret")

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 7100 {
		t.Errorf("Server.Port = %d, want 7100", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, "sqlite")
	}
	if cfg.Assistant.APIKey != "env-secret" {
		t.Errorf("Assistant.APIKey = %q, want %q", cfg.Assistant.APIKey, "env-secret")
	}
}

// TestEnvOverrideBadInt verifies an unparseable integer env var keeps the
// previous value instead of failing the load.
func TestEnvOverrideBadInt(t *testing.T) {
	clearEnv(t)

	t.Setenv("SIKILAT_SERVER_PORT", "not-a-number")

	cfg, err := loadWith(newMemBackend())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 4800 {
		t.Errorf("Server.Port = %d, want default 4800", cfg.Server.Port)
	}
}

// TestSecretsSkipBackend verifies secret keys are never read from the
// backend, only from the environment.
func TestSecretsSkipBackend(t *testing.T) {
	clearEnv(t)

	b := newMemBackend()
	b.data["assistant.api_key"] = "file-secret"
	b.data["storage.redis_password"] = "file-password"

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Assistant.APIKey != "" {
		t.Errorf("Assistant.APIKey = %q, want empty", cfg.Assistant.APIKey)
	}
	if cfg.Storage.RedisPassword != "" {
		t.Errorf("Storage.RedisPassword = %q, want empty", cfg.Storage.RedisPassword)
	}
}

func TestShowAllOmitsSecrets(t *testing.T) {
	cfg := defaults()
	for _, info := range ShowAll(cfg) {
		if info.Key == "assistant.api_key" || info.Key == "storage.redis_password" {
			t.Errorf("ShowAll exposed secret key %q", info.Key)
		}
	}
}

func TestValidKeysOmitSecrets(t *testing.T) {
	for _, k := range ValidKeys() {
		if strings.Contains(k, "api_key") || strings.Contains(k, "password") {
			t.Errorf("ValidKeys included secret %q", k)
		}
	}
}

func TestSetKeyRejectsSecret(t *testing.T) {
	err := SetKey("assistant.api_key", "oops")
	if err == nil {
		t.Fatal("expected error setting a secret key, got nil")
	}
	if !strings.Contains(err.Error(), "SIKILAT_GENAI_API_KEY") {
		t.Errorf("error = %q, want it to mention the environment variable", err)
	}
}

func TestSetKeyUnknown(t *testing.T) {
	err := SetKey("no.such.key", "x")
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
	if !strings.Contains(err.Error(), "server.port") {
		t.Errorf("error = %q, want the valid keys listed", err)
	}
}

// TestAPITokenStable verifies a generated token is persisted and returned
// unchanged on subsequent calls.
func TestAPITokenStable(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("SIKILAT_API_TOKEN", "")

	first, err := GetAPIToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(first))
	}

	second, err := GetAPIToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != first {
		t.Errorf("token changed between calls: %q vs %q", first, second)
	}
}

func TestAPITokenEnvOverride(t *testing.T) {
	t.Setenv("SIKILAT_API_TOKEN", "override-token")

	tok, err := GetAPIToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "override-token" {
		t.Errorf("token = %q, want %q", tok, "override-token")
	}
}
