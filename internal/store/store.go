// Package store persists the reconciled running dataset to a relational
// backend, either an embedded SQLite file or a networked Postgres reachable
// by connection string. Schema and conflict-resolution semantics are
// identical across both backends; only the SQL dialect differs, and the
// dialect-specific fragments are injected via Dialect rather than branched
// through the write paths.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // register the embedded sqlite driver

	"github.com/runledger/runledger/internal/models"
	"github.com/runledger/runledger/pkg/errors"
)

// stravaColumns are the Run columns owned by Strava ingestion. A conflicting
// insert replaces exactly these; the Garmin enrichment columns are excluded
// from the update set so enrichment survives re-ingestion.
var stravaColumns = []string{
	"date", "name", "distance_km", "duration_sec", "pace_min_km",
	"avg_hr", "max_hr", "elevation_gain", "temp_c", "humidity", "weather",
	"relative_effort", "hour_of_day", "day_of_week", "calories",
	"gels_estimated", "carbs_g",
}

// enrichmentColumns are the Run columns owned by the matcher.
var enrichmentColumns = []string{
	"garmin_activity_id", "aerobic_te", "anaerobic_te", "vo2max",
	"training_load", "avg_power", "max_power", "avg_run_cadence",
	"avg_ground_contact_ms", "avg_stride_length_cm", "avg_vertical_osc_cm",
	"hr_zone_1_sec", "hr_zone_2_sec", "hr_zone_3_sec", "hr_zone_4_sec",
	"hr_zone_5_sec",
}

// sleepColumns are the SleepRecord columns replaced on conflict.
var sleepColumns = []string{
	"sleep_score", "readiness_score", "hrv", "resting_hr",
	"deep_sleep_min", "rem_sleep_min", "light_sleep_min", "total_sleep_min",
}

// Store is the only owner of the persisted tables. All mutation goes through
// its per-table conflict policies; each write method runs in one transaction
// so a mid-batch failure applies zero rows, never a silently partial set.
type Store struct {
	db      *bun.DB
	dialect Dialect
	log     *zerolog.Logger
}

// Open connects to the backend selected by driver (DriverSQLite or
// DriverPostgres) using the given DSN. For SQLite the DSN is a file path or
// ":memory:"; for Postgres a connection string.
func Open(driver, dsn string, log *zerolog.Logger) (*Store, error) {
	var (
		sqldb   *sql.DB
		db      *bun.DB
		dialect Dialect
		err     error
	)

	switch driver {
	case DriverSQLite:
		sqldb, err = sql.Open("sqlite", dsn)
		if err == nil {
			db = bun.NewDB(sqldb, sqlitedialect.New())
			dialect = sqliteDialect{}
		}
	case DriverPostgres:
		sqldb, err = sql.Open("pgx", dsn)
		if err == nil {
			db = bun.NewDB(sqldb, pgdialect.New())
			dialect = postgresDialect{}
		}
	default:
		return nil, errors.NewConfigError("store", fmt.Sprintf("unknown database driver %q", driver), nil)
	}
	if err != nil {
		return nil, errors.WrapStorage("open", "", err)
	}

	return &Store{db: db, dialect: dialect, log: log}, nil
}

// DB exposes the underlying bun handle for read-only consumers (exporters).
func (s *Store) DB() *bun.DB { return s.db }

// Dialect returns the active SQL dialect.
func (s *Store) Dialect() Dialect { return s.dialect }

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the three tables when they do not exist yet. The derived
// run-with-sleep view is computed per query and never materialized, so no
// view object is created.
func (s *Store) Migrate(ctx context.Context) error {
	tables := []any{
		(*models.Run)(nil),
		(*models.GarminRun)(nil),
		(*models.SleepRecord)(nil),
	}
	for _, table := range tables {
		if _, err := s.db.NewCreateTable().Model(table).IfNotExists().Exec(ctx); err != nil {
			return errors.WrapStorage("migrate", fmt.Sprintf("%T", table), err)
		}
	}
	return nil
}

// UpsertRuns writes Strava runs in one transaction. On key conflict the
// Strava-owned columns are fully replaced; enrichment columns are untouched.
func (s *Store) UpsertRuns(ctx context.Context, runs []models.Run) error {
	if len(runs) == 0 {
		return nil
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		insert := tx.NewInsert().
			Model(&runs).
			Column(append([]string{"id"}, stravaColumns...)...).
			On("CONFLICT (id) DO UPDATE")
		for _, column := range stravaColumns {
			insert = insert.Set(fmt.Sprintf("%s = EXCLUDED.%s", column, column))
		}
		_, err := insert.Exec(ctx)
		return err
	})
	return errors.WrapStorage("upsert", "runs", err)
}

// InsertGarminRuns stages Garmin activities in one transaction. The table is
// append-only: an already-stored activity identifier is ignored, never
// corrected in place.
func (s *Store) InsertGarminRuns(ctx context.Context, runs []models.GarminRun) error {
	if len(runs) == 0 {
		return nil
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&runs).
			On("CONFLICT (activity_id) DO NOTHING").
			Exec(ctx)
		return err
	})
	return errors.WrapStorage("insert", "garmin_runs", err)
}

// UpsertSleep writes sleep records in one transaction, fully replacing any
// existing row for the same calendar date.
func (s *Store) UpsertSleep(ctx context.Context, records []models.SleepRecord) error {
	if len(records) == 0 {
		return nil
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		insert := tx.NewInsert().
			Model(&records).
			On("CONFLICT (date) DO UPDATE")
		for _, column := range sleepColumns {
			insert = insert.Set(fmt.Sprintf("%s = EXCLUDED.%s", column, column))
		}
		_, err := insert.Exec(ctx)
		return err
	})
	return errors.WrapStorage("upsert", "sleep", err)
}

// ApplyEnrichment copies the Garmin metric snapshot carried by run into the
// enrichment columns of the existing row, leaving Strava-owned columns
// untouched. One transaction per batch.
func (s *Store) ApplyEnrichment(ctx context.Context, runs []models.Run) error {
	if len(runs) == 0 {
		return nil
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for i := range runs {
			_, err := tx.NewUpdate().
				Model(&runs[i]).
				Column(enrichmentColumns...).
				WherePK().
				Exec(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
	return errors.WrapStorage("update", "runs", err)
}

// UnenrichedRuns returns runs whose enrichment reference is still absent, in
// a stable order so matching is deterministic across invocations.
func (s *Store) UnenrichedRuns(ctx context.Context) ([]models.Run, error) {
	var runs []models.Run
	err := s.db.NewSelect().
		Model(&runs).
		Where("garmin_activity_id IS NULL").
		OrderExpr("date, id").
		Scan(ctx)
	if err != nil {
		return nil, errors.WrapStorage("query", "runs", err)
	}
	return runs, nil
}

// GarminRunsOn returns the staged Garmin activities for one calendar date,
// ordered by activity identifier.
func (s *Store) GarminRunsOn(ctx context.Context, date string) ([]models.GarminRun, error) {
	var runs []models.GarminRun
	err := s.db.NewSelect().
		Model(&runs).
		Where("date = ?", date).
		OrderExpr("activity_id").
		Scan(ctx)
	if err != nil {
		return nil, errors.WrapStorage("query", "garmin_runs", err)
	}
	return runs, nil
}

// Runs returns all runs ordered by date then identifier.
func (s *Store) Runs(ctx context.Context) ([]models.Run, error) {
	var runs []models.Run
	if err := s.db.NewSelect().Model(&runs).OrderExpr("date, id").Scan(ctx); err != nil {
		return nil, errors.WrapStorage("query", "runs", err)
	}
	return runs, nil
}

// GarminRuns returns all staged Garmin activities ordered by identifier.
func (s *Store) GarminRuns(ctx context.Context) ([]models.GarminRun, error) {
	var runs []models.GarminRun
	if err := s.db.NewSelect().Model(&runs).OrderExpr("activity_id").Scan(ctx); err != nil {
		return nil, errors.WrapStorage("query", "garmin_runs", err)
	}
	return runs, nil
}

// SleepRecords returns all sleep records ordered by date.
func (s *Store) SleepRecords(ctx context.Context) ([]models.SleepRecord, error) {
	var records []models.SleepRecord
	if err := s.db.NewSelect().Model(&records).OrderExpr("date").Scan(ctx); err != nil {
		return nil, errors.WrapStorage("query", "sleep", err)
	}
	return records, nil
}
