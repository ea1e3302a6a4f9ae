package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/tariff/internal/common"
	"github.com/Veraticus/tariff/internal/sheets"
	"github.com/Veraticus/tariff/internal/tabular"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func clearSheetsEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
		"GOOGLE_SHEETS_SPREADSHEET_ID",
	} {
		t.Setenv(key, "")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("TARIFF_TEST_DIR", "/srv/tariff")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/tariff.db", filepath.Join(home, "tariff.db")},
		{"$TARIFF_TEST_DIR/tariff.db", "/srv/tariff/tariff.db"},
		{"/abs/path.db", "/abs/path.db"},
		{"~other/x", "~other/x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandPath(tt.in), tt.in)
	}
}

func TestDatabasePath(t *testing.T) {
	resetViper(t)
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".local/share/tariff/tariff.db"), DatabasePath())

	viper.Set("database.path", "/tmp/prices.db")
	assert.Equal(t, "/tmp/prices.db", DatabasePath())
}

func TestLoadLocale(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		resetViper(t)
		locale, err := LoadLocale()
		require.NoError(t, err)
		assert.Equal(t, tabular.DefaultLocale.MonthNames, locale.MonthNames)
		assert.Equal(t, "ON REQUEST", locale.OnRequestToken)
	})

	t.Run("french sheet", func(t *testing.T) {
		resetViper(t)
		viper.Set("locale.months", []string{
			"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
			"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
		})
		viper.Set("locale.on_request_token", "SUR DEMANDE")
		viper.Set("locale.people_words", []string{"Personnes"})
		viper.Set("locale.nights_word", "Nuits")
		viper.Set("locale.decimal_separator", ",")
		viper.Set("locale.thousands_separator", " ")

		locale, err := LoadLocale()
		require.NoError(t, err)
		assert.Equal(t, "Juin", locale.MonthNames[5])
		assert.Equal(t, "SUR DEMANDE", locale.OnRequestToken)
		assert.Equal(t, []string{"Personnes"}, locale.PeopleWords)
		assert.Equal(t, ",", locale.DecimalSeparator)
		assert.Equal(t, []string{"People", "Persons", "Pax", "Guests"}, tabular.DefaultLocale.PeopleWords, "defaults untouched")
	})

	t.Run("wrong month count", func(t *testing.T) {
		resetViper(t)
		viper.Set("locale.months", []string{"Jan", "Feb"})
		_, err := LoadLocale()
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})

	t.Run("ambiguous separators", func(t *testing.T) {
		resetViper(t)
		viper.Set("locale.decimal_separator", ",")
		_, err := LoadLocale()
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
		assert.ErrorIs(t, err, tabular.ErrInvalidLocale)
	})
}

func TestLoadSheetsConfig(t *testing.T) {
	t.Run("from viper", func(t *testing.T) {
		resetViper(t)
		clearSheetsEnv(t)
		viper.Set("sheets.service_account_path", "/keys/sa.json")
		viper.Set("sheets.spreadsheet_id", "sheet-123")
		viper.Set("sheets.format_headers", false)

		config, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.Equal(t, "/keys/sa.json", config.ServiceAccountPath)
		assert.Equal(t, "sheet-123", config.SpreadsheetID)
		assert.False(t, config.FormatHeaders)
	})

	t.Run("environment fallback", func(t *testing.T) {
		resetViper(t)
		clearSheetsEnv(t)
		t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "/env/sa.json")
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "env-sheet")

		config, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.Equal(t, "/env/sa.json", config.ServiceAccountPath)
		assert.Equal(t, "env-sheet", config.SpreadsheetID)
	})

	t.Run("saved token", func(t *testing.T) {
		resetViper(t)
		clearSheetsEnv(t)
		tokenFile := filepath.Join(t.TempDir(), "token.json")
		require.NoError(t, sheets.SaveToken(tokenFile, &oauth2.Token{RefreshToken: "saved-refresh"}))

		viper.Set("sheets.client_id", "id")
		viper.Set("sheets.client_secret", "secret")
		viper.Set("sheets.spreadsheet_id", "sheet-123")
		viper.Set("sheets.token_file", tokenFile)

		config, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.Equal(t, "saved-refresh", config.RefreshToken)
	})

	t.Run("nothing configured", func(t *testing.T) {
		resetViper(t)
		clearSheetsEnv(t)
		_, err := LoadSheetsConfig()
		assert.ErrorIs(t, err, common.ErrMissingConfig)
	})
}

func TestSheetName(t *testing.T) {
	resetViper(t)
	assert.Equal(t, DefaultSheetName, SheetName(""))
	viper.Set("sheets.sheet_name", "Tarifs")
	assert.Equal(t, "Tarifs", SheetName(""))
	assert.Equal(t, "Alpine", SheetName("Alpine"))
}
