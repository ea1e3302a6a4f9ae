package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Veraticus/tariff/internal/cli"
	"github.com/Veraticus/tariff/internal/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tariff",
		Short: "Seasonal travel package pricing",
		Long: `tariff: import seasonal price sheets for travel packages, quote bookings
against them and keep an audit trail of every price change.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/tariff/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(
		importCmd(),
		exportCmd(),
		quoteCmd(),
		quotesCmd(),
		requoteCmd(),
		packagesCmd(),
		historyCmd(),
		migrateCmd(),
		authCmd(),
		versionCmd(),
	)

	return rootCmd
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupts
		common.LogInfo("Interrupted, stopping", nil)
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err == nil {
		return
	}

	msg := err.Error()
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		msg = userErr.UserMessage
	}
	fmt.Fprintln(os.Stderr, cli.FormatError(msg))
	os.Exit(1)
}

// initConfig reads the config file and TARIFF_* environment, then sets up
// logging. Nested keys map to env names with dots replaced by underscores,
// so database.path is TARIFF_DATABASE_PATH.
func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		viper.AddConfigPath(filepath.Join(home, ".config", "tariff"))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TARIFF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("failed to read config: %w", err)
	}

	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if err := common.SetupLogger(level, viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tariff version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tariff version %s\n", version)
		},
	}
}
