package store

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/guregu/null.v3"

	"github.com/runledger/runledger/internal/models"
	"github.com/runledger/runledger/pkg/errors"
)

// sleepViewColumns are the SleepRecord columns attached to each run by the
// derived view, in output order.
var sleepViewColumns = []string{
	"sleep_score", "readiness_score", "hrv", "resting_hr",
	"deep_sleep_min", "rem_sleep_min", "light_sleep_min", "total_sleep_min",
}

// runWithSleepSQL builds the read-time join. A morning run (started before
// noon) takes the same-day sleep record, because the tracker files last
// night's sleep under today's date; any later run takes the prior day's
// record. There is no fallback between the two: a morning run with no
// same-day record gets no sleep data at all.
func runWithSleepSQL(dialect Dialect) string {
	var cols strings.Builder
	for _, column := range sleepViewColumns {
		fmt.Fprintf(&cols,
			",\n  CASE WHEN r.hour_of_day < 12 THEN s_same.%[1]s ELSE s_prev.%[1]s END AS %[1]s",
			column)
	}

	return fmt.Sprintf(`SELECT r.*%s
FROM runs AS r
LEFT JOIN sleep AS s_same ON s_same.date = r.date
LEFT JOIN sleep AS s_prev ON s_prev.date = %s
ORDER BY r.date, r.id`, cols.String(), dialect.DateSubDay("r.date"))
}

// RunsWithSleep computes the derived view: every run joined to the sleep
// record attributable to the night before it. Recomputed per query, never
// persisted.
func (s *Store) RunsWithSleep(ctx context.Context) ([]models.RunWithSleep, error) {
	var rows []models.RunWithSleep
	if err := s.db.NewRaw(runWithSleepSQL(s.dialect)).Scan(ctx, &rows); err != nil {
		return nil, errors.WrapStorage("query", "run_with_sleep", err)
	}
	return rows, nil
}

// Summary aggregates the user-visible ingestion totals.
type Summary struct {
	RunCount      int
	MinDate       null.String
	MaxDate       null.String
	TotalKm       null.Float
	RunsWithSleep int
	EnrichedRuns  int
	LongRuns      int
	TotalGels     null.Int
	TotalCarbsG   null.Int
}

// Summarize computes the final summary printed after every successful
// ingestion: date range, total distance, sleep-join and enrichment counts,
// and long-run fueling totals.
func (s *Store) Summarize(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	err := s.db.NewRaw(
		`SELECT COUNT(*), MIN(date), MAX(date), SUM(distance_km) FROM runs`,
	).Scan(ctx, &summary.RunCount, &summary.MinDate, &summary.MaxDate, &summary.TotalKm)
	if err != nil {
		return nil, errors.WrapStorage("query", "runs", err)
	}

	joined := fmt.Sprintf(`SELECT COUNT(*)
FROM runs AS r
LEFT JOIN sleep AS s_same ON s_same.date = r.date
LEFT JOIN sleep AS s_prev ON s_prev.date = %s
WHERE (CASE WHEN r.hour_of_day < 12 THEN s_same.sleep_score ELSE s_prev.sleep_score END) IS NOT NULL`,
		s.dialect.DateSubDay("r.date"))
	if err := s.db.NewRaw(joined).Scan(ctx, &summary.RunsWithSleep); err != nil {
		return nil, errors.WrapStorage("query", "run_with_sleep", err)
	}

	err = s.db.NewRaw(
		`SELECT COUNT(*) FROM runs WHERE garmin_activity_id IS NOT NULL`,
	).Scan(ctx, &summary.EnrichedRuns)
	if err != nil {
		return nil, errors.WrapStorage("query", "runs", err)
	}

	err = s.db.NewRaw(
		`SELECT COUNT(*), SUM(gels_estimated), SUM(carbs_g) FROM runs WHERE gels_estimated IS NOT NULL`,
	).Scan(ctx, &summary.LongRuns, &summary.TotalGels, &summary.TotalCarbsG)
	if err != nil {
		return nil, errors.WrapStorage("query", "runs", err)
	}

	return summary, nil
}
