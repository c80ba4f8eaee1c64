package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runledger/runledger/internal/store"
	"github.com/runledger/runledger/pkg/errors"
)

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, store.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, DefaultDatabase, cfg.Database.DSN)
	assert.Equal(t, DefaultExportDir, cfg.Export.Dir)
	assert.Nil(t, cfg.Export.Tables)
}

func TestFromViperExplicitValues(t *testing.T) {
	v := viper.New()
	v.Set("data-dir", "/srv/running")
	v.Set("db-driver", "postgres")
	v.Set("db", "postgres://localhost/running")
	v.Set("tables", "runs, sleep,run_with_sleep")
	v.Set("token", "secret")

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "/srv/running", cfg.DataDir)
	assert.Equal(t, store.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/running", cfg.Database.DSN)
	assert.Equal(t, []string{"runs", "sleep", "run_with_sleep"}, cfg.Export.Tables)
	assert.Equal(t, "secret", cfg.Export.Token)
}

func TestFromViperPostgresRequiresDSN(t *testing.T) {
	v := viper.New()
	v.Set("db-driver", "postgres")

	_, err := FromViper(v)
	require.Error(t, err)

	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestFromViperRejectsUnknownDriver(t *testing.T) {
	v := viper.New()
	v.Set("db-driver", "oracle")
	v.Set("db", "whatever")

	_, err := FromViper(v)
	require.Error(t, err)

	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestFromViperTokenFromEnv(t *testing.T) {
	t.Setenv("CRIBL_TOKEN", "env-token")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Export.Token)
}
