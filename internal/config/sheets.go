package config

import (
	"github.com/Veraticus/tariff/internal/sheets"
	"github.com/spf13/viper"
)

// DefaultSheetName is the tab read and written when none is configured.
const DefaultSheetName = "Prices"

// LoadSheetsConfig loads Google Sheets configuration. It follows this precedence:
// 1. Viper configuration (from config file or TARIFF_SHEETS_* env vars)
// 2. Direct environment variables (GOOGLE_SHEETS_*)
// 3. Default values
func LoadSheetsConfig() (*sheets.Config, error) {
	config := sheets.DefaultConfig()

	config.ServiceAccountPath = ExpandPath(viper.GetString("sheets.service_account_path"))
	config.ClientID = viper.GetString("sheets.client_id")
	config.ClientSecret = viper.GetString("sheets.client_secret")
	config.RefreshToken = viper.GetString("sheets.refresh_token")
	config.SpreadsheetID = viper.GetString("sheets.spreadsheet_id")
	config.TokenFile = ExpandPath(viper.GetString("sheets.token_file"))
	if viper.IsSet("sheets.format_headers") {
		config.FormatHeaders = viper.GetBool("sheets.format_headers")
	}

	config.LoadFromEnv()
	config.ServiceAccountPath = ExpandPath(config.ServiceAccountPath)

	// A saved token from `tariff auth` stands in for a configured refresh token.
	if config.RefreshToken == "" && config.TokenFile != "" {
		if token, err := sheets.LoadToken(config.TokenFile); err == nil {
			config.RefreshToken = token.RefreshToken
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// SheetName returns the configured tab name, or fallback when set.
func SheetName(fallback string) string {
	if fallback != "" {
		return fallback
	}
	if name := viper.GetString("sheets.sheet_name"); name != "" {
		return name
	}
	return DefaultSheetName
}
