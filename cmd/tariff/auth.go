package main

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/tariff/internal/cli"
	"github.com/Veraticus/tariff/internal/common"
	"github.com/Veraticus/tariff/internal/config"
	"github.com/Veraticus/tariff/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Connect tariff to Google Sheets",
	}
	cmd.AddCommand(authSheetsCmd())
	return cmd
}

func authSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Authorize access to the price spreadsheet",
		Long: `Run the Google OAuth2 consent flow and store the refresh token.

Open the printed URL, approve access and the browser is sent back to a
local callback server. The token is written to sheets.token_file and the
refresh token to the config file. Not needed with a service account.`,
		Args: cobra.NoArgs,
		RunE: runAuthSheets,
	}

	cmd.Flags().String("client-id", "", "OAuth2 client ID (overrides sheets.client_id)")
	cmd.Flags().String("client-secret", "", "OAuth2 client secret (overrides sheets.client_secret)")
	cmd.Flags().String("listen", "localhost:8080", "address for the OAuth2 callback server")

	return cmd
}

func runAuthSheets(cmd *cobra.Command, _ []string) error {
	clientID, clientSecret, err := oauthCredentials(cmd)
	if err != nil {
		return err
	}
	tokenFile, err := tokenFilePath()
	if err != nil {
		return err
	}
	listen, _ := cmd.Flags().GetString("listen")

	common.LogInfo("Starting Google Sheets authorization", common.Fields{"token_file": tokenFile, "listen": listen})

	token, err := sheets.AuthenticateOAuth2Interactive(cmd.Context(), sheets.OAuth2Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenFile:    tokenFile,
		ListenAddr:   listen,
	})
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	viper.Set("sheets.refresh_token", token.RefreshToken)
	viper.Set("sheets.token_file", tokenFile)

	out := cmd.OutOrStdout()
	if err := saveConfig(); err != nil {
		common.LogWarn("Failed to write refresh token to config", common.Fields{"error": err})
		fmt.Fprintln(out, cli.FormatWarning("Config file not updated; the token is kept in "+tokenFile))
		return nil
	}

	fmt.Fprintln(out, cli.FormatSuccess("Google Sheets connected. Use 'tariff import --sheet' and 'tariff export --sheets'."))
	return nil
}

// oauthCredentials picks the client ID and secret from flags, then config,
// then the GOOGLE_SHEETS_* environment.
func oauthCredentials(cmd *cobra.Command) (string, string, error) {
	flagID, _ := cmd.Flags().GetString("client-id")
	flagSecret, _ := cmd.Flags().GetString("client-secret")

	clientID := cmp.Or(flagID, viper.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID"))
	clientSecret := cmp.Or(flagSecret, viper.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))

	if clientID == "" || clientSecret == "" {
		return "", "", common.NewUserError(
			"OAuth2 client credentials missing: set sheets.client_id and sheets.client_secret or pass --client-id and --client-secret",
			common.ErrMissingConfig)
	}
	return clientID, clientSecret, nil
}

// tokenFilePath returns sheets.token_file, defaulting next to the config file.
func tokenFilePath() (string, error) {
	if path := viper.GetString("sheets.token_file"); path != "" {
		return config.ExpandPath(path), nil
	}

	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "tariff", "sheets-token.json"), nil
}

// saveConfig writes the current settings back to the config file in use, or
// to the default location when none was read.
func saveConfig() error {
	path := viper.ConfigFileUsed()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(home, ".config", "tariff", "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	return viper.WriteConfigAs(path)
}
