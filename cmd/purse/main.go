package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Veraticus/purse/internal/common"
	"github.com/Veraticus/purse/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

// app carries the configuration shared by all commands of one root.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	cfgFile string
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "purse",
		Short: "👛 Personal wallet ledger",
		Long: `purse: a personal ledger that tracks income and expense by category,
watches budgets, moves money between users and reports on any period.`,
		PersistentPreRunE: a.initConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: $HOME/.config/purse/config.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("db", "", "database path (default: "+config.DefaultDatabasePath+")")
	flags.String("login", "", "login for wallet commands")
	flags.String("password", "", "password for wallet commands")

	_ = a.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("logging.format", flags.Lookup("log-format"))
	_ = a.v.BindPFlag("database.path", flags.Lookup("db"))
	_ = a.v.BindPFlag("session.login", flags.Lookup("login"))
	_ = a.v.BindPFlag("session.password", flags.Lookup("password"))

	rootCmd.AddCommand(registerCmd(a))
	rootCmd.AddCommand(whoamiCmd(a))
	rootCmd.AddCommand(usersCmd(a))
	rootCmd.AddCommand(categoryCmd(a))
	rootCmd.AddCommand(budgetCmd(a))
	rootCmd.AddCommand(recordCmd(a, "income"))
	rootCmd.AddCommand(recordCmd(a, "expense"))
	rootCmd.AddCommand(sumCmd(a))
	rootCmd.AddCommand(transferCmd(a))
	rootCmd.AddCommand(statsCmd(a))
	rootCmd.AddCommand(importOFXCmd(a))
	rootCmd.AddCommand(shellCmd(a))
	rootCmd.AddCommand(serveCmd(a))
	rootCmd.AddCommand(migrateCmd(a))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, userErr.UserMessage)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func (a *app) initConfig(_ *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		a.v.AddConfigPath(fmt.Sprintf("%s/.config/purse", home))
		a.v.AddConfigPath(".")
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
	}

	config.SetDefaults(a.v)
	a.v.SetEnvPrefix("PURSE")
	a.v.SetEnvKeyReplacer(config.NewEnvReplacer())
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := setupLogging(cfg.Logging); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func setupLogging(c config.LoggingConfig) error {
	level, err := common.ParseLevel(c.Level)
	if err != nil {
		return err
	}
	return common.SetupLogger(level, c.Format)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "purse %s\n", version)
		},
	}
}
