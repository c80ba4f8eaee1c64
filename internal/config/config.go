// Package config resolves runtime configuration from flags, environment
// variables, and an optional .env file, in that precedence order.
package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/runledger/runledger/internal/store"
	"github.com/runledger/runledger/pkg/errors"
)

// Defaults for the file-backed layout the ingesters expect.
const (
	DefaultDataDir   = "data"
	DefaultDatabase  = "running.db"
	DefaultExportDir = "exports"
)

// Database selects the storage backend and how to reach it.
type Database struct {
	Driver string // "sqlite" or "postgres"
	DSN    string // file path for sqlite, connection string for postgres
}

// Export holds destinations for the export commands.
type Export struct {
	Dir    string   // output directory for flat files
	Tables []string // tables to export
	Token  string   // auth token for streaming endpoints
}

// Config is the resolved runtime configuration.
type Config struct {
	DataDir  string
	Database Database
	Export   Export
}

// FromViper builds a Config from bound flags and environment variables.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DataDir: v.GetString("data-dir"),
		Database: Database{
			Driver: v.GetString("db-driver"),
			DSN:    v.GetString("db"),
		},
		Export: Export{
			Dir:    v.GetString("output-dir"),
			Tables: splitTables(v.GetString("tables")),
			Token:  v.GetString("token"),
		},
	}

	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = store.DriverSQLite
	}
	if cfg.Database.DSN == "" {
		if cfg.Database.Driver != store.DriverSQLite {
			return nil, errors.NewConfigError("database", "dsn required for driver "+cfg.Database.Driver, nil)
		}
		cfg.Database.DSN = DefaultDatabase
	}
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = DefaultExportDir
	}
	if cfg.Export.Token == "" {
		// The streaming endpoints historically read their token from
		// CRIBL_TOKEN, so honor it as a fallback.
		cfg.Export.Token = os.Getenv("CRIBL_TOKEN")
	}

	switch cfg.Database.Driver {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		return nil, errors.NewConfigError("database", "unknown driver "+cfg.Database.Driver, nil)
	}

	return cfg, nil
}

func splitTables(raw string) []string {
	if raw == "" {
		return nil
	}
	var tables []string
	for _, table := range strings.Split(raw, ",") {
		if table = strings.TrimSpace(table); table != "" {
			tables = append(tables, table)
		}
	}
	return tables
}
