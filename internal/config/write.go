package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigDir returns the recap config directory path.
// Uses $XDG_CONFIG_HOME/recap if set, otherwise ~/.config/recap.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "recap")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "recap")
}

// WriteDefault writes a default config.toml storing data under dataDir.
// Returns the config file path. Skips if config.toml already exists.
func WriteDefault(dataDir string) (string, error) {
	dir := ConfigDir()
	path := filepath.Join(dir, "config.toml")

	if _, err := os.Stat(path); err == nil {
		return path, nil // already exists
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}

	content := fmt.Sprintf(`listen_addr = ":4000"
data_dir = %q
timezone = "Local"

[model]
base_url = "https://api.groq.com/openai/v1"
model = "llama-3.1-8b-instant"
api_key_env = "GROQ_API_KEY"
temperature = 0.1
timeout_seconds = 30
max_retries = 2

[quota]
daily_allotment = 3

[input]
min_chars = 5

[auth]
mode = "jwt"
jwt_secret_env = "RECAP_JWT_SECRET"
user_header = "X-User-ID"

[persistence]
strict = false

[salvage]
repair = false

[diagnostics]
enabled = true
compress = true

[log]
level = "info"
file = ""
max_size_mb = 50
max_backups = 3
max_age_days = 28
`, CompressHome(dataDir))

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}

	return path, nil
}

// CompressHome replaces $HOME prefix with ~/ for portable config values.
func CompressHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if strings.HasPrefix(path, home+"/") {
		return "~/" + path[len(home)+1:]
	}
	if path == home {
		return "~"
	}
	return path
}
