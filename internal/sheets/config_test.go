package sheets

import (
	"testing"
	"time"

	"github.com/Veraticus/tariff/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		errMsg  string
		config  Config
	}{
		{
			name: "service account",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				SpreadsheetID:      "sheet-id",
				RetryAttempts:      3,
				RetryDelay:         time.Second,
			},
		},
		{
			name: "partial oauth credentials",
			config: Config{
				ClientID:      "test-client",
				RefreshToken:  "test-token",
				SpreadsheetID: "sheet-id",
			},
			wantErr: common.ErrMissingConfig,
			errMsg:  "no authentication method configured",
		},
		{
			name: "both methods",
			config: Config{
				ClientID:           "id",
				ClientSecret:       "secret",
				RefreshToken:       "token",
				ServiceAccountPath: "/path/to/key.json",
				SpreadsheetID:      "sheet-id",
			},
			wantErr: common.ErrInvalidConfig,
			errMsg:  "multiple authentication methods",
		},
		{
			name: "missing spreadsheet",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
			},
			wantErr: common.ErrMissingConfig,
			errMsg:  "spreadsheet ID is required",
		},
		{
			name: "zero retry delay is valid",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				SpreadsheetID:      "sheet-id",
			},
		},
		{
			name: "negative retry delay",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				SpreadsheetID:      "sheet-id",
				RetryDelay:         -1 * time.Second,
			},
			wantErr: common.ErrInvalidConfig,
			errMsg:  "retry delay cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "env-client")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "env-secret")
	t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "env-token")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "env-sheet")
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")

	config := DefaultConfig()
	config.SpreadsheetID = "configured-sheet"
	config.LoadFromEnv()

	assert.Equal(t, "env-client", config.ClientID)
	assert.Equal(t, "configured-sheet", config.SpreadsheetID, "configured values win")
	assert.True(t, config.HasOAuth())
	assert.NoError(t, config.Validate())
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.True(t, config.FormatHeaders)
	assert.Equal(t, 3, config.RetryAttempts)
	assert.Equal(t, time.Second, config.RetryDelay)
}
