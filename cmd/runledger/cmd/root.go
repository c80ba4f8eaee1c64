package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/runledger/runledger/internal/config"
	"github.com/runledger/runledger/internal/store"
	"github.com/runledger/runledger/pkg/logging"
)

var (
	// Version information set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "runledger",
	Short: "Running data ingestion and export",
	Long: `Runledger ingests running and sleep data from Strava, Garmin, and
Oura export archives into a relational store, reconciles overlapping
activity records across sources, and re-exports the result to flat
files, object storage, or HTTP event endpoints.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("data-dir", config.DefaultDataDir, "directory holding provider export archives")
	rootCmd.PersistentFlags().String("db", "", "database location (file path for sqlite, DSN for postgres)")
	rootCmd.PersistentFlags().String("db-driver", store.DriverSQLite, "database driver (sqlite or postgres)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log warnings and errors")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(fmt.Sprintf("Failed to bind global flags: %v", err))
	}
}

// initConfig reads in ENV variables and .env files.
func initConfig() {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	viper.SetEnvPrefix("RUNLEDGER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	configureLogging()
}

// configureLogging sets up the logging system based on flags and environment.
func configureLogging() {
	level := zerolog.InfoLevel
	if viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	if viper.GetBool("quiet") {
		level = zerolog.WarnLevel
	}
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		if parsed, err := zerolog.ParseLevel(envLevel); err == nil {
			level = parsed
		}
	}

	zerolog.SetGlobalLevel(level)
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		if err := godotenv.Overload(envFile); err == nil && viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Loaded %s\n", envFile)
		}
	}
}

// loadConfig resolves the runtime configuration from bound flags and env.
func loadConfig() (*config.Config, error) {
	return config.FromViper(viper.GetViper())
}

// openStore opens the configured database backend.
func openStore(cfg *config.Config) (*store.Store, error) {
	return store.Open(cfg.Database.Driver, cfg.Database.DSN, logging.Default())
}
