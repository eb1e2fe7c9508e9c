package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rendis/composiotools/internal/composio"
	"github.com/rendis/composiotools/internal/secrets"
	"github.com/rendis/composiotools/pkg/schema"
)

const envPrefix = "COMPOSIOTOOLS_"

// Config holds all composiotools configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	BaseURL     string `json:"base_url"`
	DBPath      string `json:"db_path"`
	LogLevel    string `json:"log_level"`
	HTTPTimeout string `json:"http_timeout"`
	VaultSalt   string `json:"vault_salt"`

	// Env only; never read from or written to settings.json.
	VaultPassphrase string `json:"-"`
	APIKey          string `json:"-"`
}

func defaultConfig() Config {
	return Config{
		BaseURL:     composio.DefaultBaseURL,
		DBPath:      filepath.Join(configDir(), "composiotools.db"),
		LogLevel:    "info",
		HTTPTimeout: "30s",
		VaultSalt:   "composiotools-vault",
	}
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".composiotools"
	}
	return filepath.Join(home, ".composiotools")
}

func settingsPath() string {
	return filepath.Join(configDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	overrides := []struct {
		name string
		dst  *string
	}{
		{"BASE_URL", &cfg.BaseURL},
		{"DB_PATH", &cfg.DBPath},
		{"LOG_LEVEL", &cfg.LogLevel},
		{"HTTP_TIMEOUT", &cfg.HTTPTimeout},
		{"VAULT_SALT", &cfg.VaultSalt},
		{"VAULT_PASSPHRASE", &cfg.VaultPassphrase},
		{"API_KEY", &cfg.APIKey},
	}
	for _, o := range overrides {
		if v := os.Getenv(envPrefix + o.name); v != "" {
			*o.dst = v
		}
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("COMPOSIO_API_KEY")
	}

	return cfg
}

// timeout parses HTTPTimeout, falling back to 30s on bad input.
func (c Config) timeout() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// dsn returns the libSQL data source for DBPath.
func (c Config) dsn() string {
	return "file:" + c.DBPath
}

// vaultConfig returns the vault key settings, or a CONFIG_ERROR when no
// passphrase is configured.
func (c Config) vaultConfig() (secrets.VaultConfig, error) {
	if c.VaultPassphrase == "" {
		return secrets.VaultConfig{}, schema.NewErrorf(schema.ErrCodeConfig,
			"%sVAULT_PASSPHRASE is not set; api keys cannot be stored", envPrefix)
	}
	return secrets.VaultConfig{
		Passphrase: c.VaultPassphrase,
		Salt:       []byte(c.VaultSalt),
	}, nil
}
