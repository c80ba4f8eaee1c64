package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"github.com/runledger/runledger/internal/models"
	"github.com/runledger/runledger/pkg/logging"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "test.db"), logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testRun(id int64, date string, km float64) models.Run {
	return models.Run{
		ID:          id,
		Date:        date,
		Name:        null.StringFrom("Test Run"),
		DistanceKm:  null.FloatFrom(km),
		DurationSec: null.IntFrom(3000),
		PaceMinKm:   null.FloatFrom((3000.0 / 60) / km),
		HourOfDay:   8,
		DayOfWeek:   "Saturday",
	}
}

func TestUpsertRunsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	batch := []models.Run{
		testRun(1, "2024-06-01", 10.0),
		testRun(2, "2024-06-02", 16.0),
	}

	require.NoError(t, s.UpsertRuns(ctx, batch))
	once, err := s.Runs(ctx)
	require.NoError(t, err)

	require.NoError(t, s.UpsertRuns(ctx, batch))
	twice, err := s.Runs(ctx)
	require.NoError(t, err)

	assert.Len(t, twice, 2)
	assert.Equal(t, once, twice)
}

func TestUpsertRunsReplacesStravaColumnsOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := testRun(1, "2024-06-01", 10.0)
	require.NoError(t, s.UpsertRuns(ctx, []models.Run{run}))

	// Enrich the run out of band, as the matcher would.
	enriched := run
	enriched.GarminActivityID = null.IntFrom(555)
	enriched.VO2Max = null.FloatFrom(52.0)
	enriched.HRZone2Sec = null.IntFrom(1800)
	require.NoError(t, s.ApplyEnrichment(ctx, []models.Run{enriched}))

	// A fresh Strava ingestion rewrites the base fields.
	replaced := testRun(1, "2024-06-01", 10.2)
	replaced.Name = null.StringFrom("Renamed Run")
	require.NoError(t, s.UpsertRuns(ctx, []models.Run{replaced}))

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, "Renamed Run", got.Name.String)
	assert.InDelta(t, 10.2, got.DistanceKm.Float64, 1e-9)

	// Enrichment survives because it is not part of the replace set.
	assert.Equal(t, int64(555), got.GarminActivityID.Int64)
	assert.InDelta(t, 52.0, got.VO2Max.Float64, 1e-9)
	assert.Equal(t, int64(1800), got.HRZone2Sec.Int64)
}

func TestInsertGarminRunsIgnoresConflicts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	original := models.GarminRun{
		ActivityID:   101,
		Date:         "2024-06-01",
		ActivityType: "running",
		DistanceKm:   null.FloatFrom(10.3),
		VO2Max:       null.FloatFrom(51.0),
	}
	require.NoError(t, s.InsertGarminRuns(ctx, []models.GarminRun{original}))

	// Staging data is never corrected in place.
	conflicting := original
	conflicting.DistanceKm = null.FloatFrom(99.9)
	require.NoError(t, s.InsertGarminRuns(ctx, []models.GarminRun{conflicting}))

	runs, err := s.GarminRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.InDelta(t, 10.3, runs[0].DistanceKm.Float64, 1e-9)
}

func TestUpsertSleepFullReplace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := models.SleepRecord{
		Date:         "2024-06-01",
		SleepScore:   null.IntFrom(82),
		DeepSleepMin: null.IntFrom(90),
	}
	require.NoError(t, s.UpsertSleep(ctx, []models.SleepRecord{first}))

	second := models.SleepRecord{
		Date:       "2024-06-01",
		SleepScore: null.IntFrom(75),
		// DeepSleepMin absent in the replacement row
	}
	require.NoError(t, s.UpsertSleep(ctx, []models.SleepRecord{second}))

	records, err := s.SleepRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(75), records[0].SleepScore.Int64)
	assert.False(t, records[0].DeepSleepMin.Valid, "full replace must clear columns absent from the new row")
}

func TestRunsWithSleep(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	morning := testRun(1, "2024-06-02", 10.0)
	morning.HourOfDay = 8
	evening := testRun(2, "2024-06-02", 8.0)
	evening.HourOfDay = 19
	orphanMorning := testRun(3, "2024-06-05", 5.0)
	orphanMorning.HourOfDay = 7
	require.NoError(t, s.UpsertRuns(ctx, []models.Run{morning, evening, orphanMorning}))

	require.NoError(t, s.UpsertSleep(ctx, []models.SleepRecord{
		{Date: "2024-06-01", SleepScore: null.IntFrom(70), TotalSleepMin: null.IntFrom(420)},
		{Date: "2024-06-02", SleepScore: null.IntFrom(85), LightSleepMin: null.IntFrom(225), TotalSleepMin: null.IntFrom(460)},
		{Date: "2024-06-04", SleepScore: null.IntFrom(60)},
	}))

	rows, err := s.RunsWithSleep(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	t.Run("morning run uses same-day record", func(t *testing.T) {
		assert.Equal(t, int64(1), rows[0].ID)
		assert.Equal(t, int64(85), rows[0].SleepScore.Int64)
		assert.Equal(t, int64(225), rows[0].LightSleepMin.Int64)
		assert.Equal(t, int64(460), rows[0].TotalSleepMin.Int64)
	})

	t.Run("evening run uses previous day's record", func(t *testing.T) {
		assert.Equal(t, int64(2), rows[1].ID)
		assert.Equal(t, int64(70), rows[1].SleepScore.Int64)
	})

	t.Run("morning run without same-day record gets none", func(t *testing.T) {
		// 2024-06-04 has a record, but a morning run on 2024-06-05 must not
		// fall back to it.
		assert.Equal(t, int64(3), rows[2].ID)
		assert.False(t, rows[2].SleepScore.Valid)
	})
}

func TestSummarize(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	long := testRun(2, "2024-06-08", 16.0)
	long.GelsEstimated = null.IntFrom(3)
	long.CarbsG = null.IntFrom(90)
	require.NoError(t, s.UpsertRuns(ctx, []models.Run{
		testRun(1, "2024-06-01", 10.0),
		long,
	}))
	require.NoError(t, s.UpsertSleep(ctx, []models.SleepRecord{
		{Date: "2024-06-08", SleepScore: null.IntFrom(80)},
	}))

	enriched := long
	enriched.GarminActivityID = null.IntFrom(42)
	require.NoError(t, s.ApplyEnrichment(ctx, []models.Run{enriched}))

	summary, err := s.Summarize(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.RunCount)
	assert.Equal(t, "2024-06-01", summary.MinDate.String)
	assert.Equal(t, "2024-06-08", summary.MaxDate.String)
	assert.InDelta(t, 26.0, summary.TotalKm.Float64, 1e-9)
	assert.Equal(t, 1, summary.RunsWithSleep)
	assert.Equal(t, 1, summary.EnrichedRuns)
	assert.Equal(t, 1, summary.LongRuns)
	assert.Equal(t, int64(3), summary.TotalGels.Int64)
	assert.Equal(t, int64(90), summary.TotalCarbsG.Int64)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "dsn", logging.NewNopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}
