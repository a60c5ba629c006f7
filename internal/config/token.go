package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// The dashboard API is protected by a locally generated bearer token kept
// in a secrets file next to the data directory. SIKILAT_API_TOKEN
// overrides it for deployments that manage secrets elsewhere.

const tokenEnv = "SIKILAT_API_TOKEN"

func secretsFilePath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "sikilat", "secrets.json")
}

// GetAPIToken returns the API bearer token, generating and persisting one
// on first use.
func GetAPIToken() (string, error) {
	if t := os.Getenv(tokenEnv); t != "" {
		return t, nil
	}

	p := secretsFilePath()
	secrets := map[string]string{}
	if data, err := os.ReadFile(p); err == nil {
		_ = json.Unmarshal(data, &secrets)
	}
	if t := secrets["api_token"]; t != "" {
		return t, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating API token: %w", err)
	}
	token := hex.EncodeToString(buf)
	secrets["api_token"] = token

	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return "", fmt.Errorf("creating secrets dir: %w", err)
	}
	out, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(p, out, 0o600); err != nil {
		return "", fmt.Errorf("writing secrets file: %w", err)
	}
	return token, nil
}
