// File path: internal/looker/config.go
package looker

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"time"
)

// Config carries the connection settings for a Looker instance.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string

	HTTPTimeout time.Duration
}

// LoadConfig reads the Looker connection settings from the environment. The
// variable names match the original deployment (.env driven).
func LoadConfig() (Config, error) {
	cfg := Config{
		BaseURL:      strings.TrimSpace(os.Getenv("LOOKER_BASE_URL")),
		ClientID:     strings.TrimSpace(os.Getenv("LOOKER_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv("LOOKER_CLIENT_SECRET")),
		HTTPTimeout:  30 * time.Second,
	}
	if timeout := strings.TrimSpace(os.Getenv("LOOKER_HTTP_TIMEOUT")); timeout != "" {
		if parsed, err := time.ParseDuration(timeout); err == nil && parsed > 0 {
			cfg.HTTPTimeout = parsed
		}
	}
	var missing []string
	if cfg.BaseURL == "" {
		missing = append(missing, "LOOKER_BASE_URL")
	}
	if cfg.ClientID == "" {
		missing = append(missing, "LOOKER_CLIENT_ID")
	}
	if cfg.ClientSecret == "" {
		missing = append(missing, "LOOKER_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return Config{}, errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}
	return cfg, nil
}

// InstanceID derives a stable identifier from the catalog endpoint so one
// cache can serve multiple instances without collision.
func InstanceID(baseURL string) string {
	normalized := strings.ToLower(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:8])
}
