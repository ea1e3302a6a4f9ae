// Package sheets exchanges raw price sheets with Google Sheets.
package sheets

import (
	"fmt"
	"os"
	"time"

	"github.com/Veraticus/tariff/internal/common"
)

// Config holds the configuration for the Google Sheets client.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	TokenFile          string
	RetryAttempts      int
	RetryDelay         time.Duration
	// FormatHeaders bolds and freezes the metadata block on export.
	FormatHeaders bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		FormatHeaders: true,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

// LoadFromEnv fills unset fields from GOOGLE_SHEETS_* environment variables.
func (c *Config) LoadFromEnv() {
	setFromEnv := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	setFromEnv(&c.ClientID, "GOOGLE_SHEETS_CLIENT_ID")
	setFromEnv(&c.ClientSecret, "GOOGLE_SHEETS_CLIENT_SECRET")
	setFromEnv(&c.RefreshToken, "GOOGLE_SHEETS_REFRESH_TOKEN")
	setFromEnv(&c.ServiceAccountPath, "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH")
	setFromEnv(&c.SpreadsheetID, "GOOGLE_SHEETS_SPREADSHEET_ID")
}

// HasOAuth reports whether a complete set of OAuth2 credentials is configured.
func (c *Config) HasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasServiceAccount := c.ServiceAccountPath != ""

	if !c.HasOAuth() && !hasServiceAccount {
		return fmt.Errorf("%w: no authentication method configured", common.ErrMissingConfig)
	}
	if c.HasOAuth() && hasServiceAccount {
		return fmt.Errorf("%w: multiple authentication methods configured; use either OAuth2 or service account", common.ErrInvalidConfig)
	}
	if c.SpreadsheetID == "" {
		return fmt.Errorf("%w: spreadsheet ID is required", common.ErrMissingConfig)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("%w: retry attempts cannot be negative", common.ErrInvalidConfig)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay cannot be negative", common.ErrInvalidConfig)
	}

	return nil
}
