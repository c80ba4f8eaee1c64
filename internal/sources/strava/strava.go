// Package strava parses Strava account exports (export_*/activities.csv)
// into Run candidate records, filtering out non-run activities.
package strava

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/runledger/runledger/internal/convert"
	"github.com/runledger/runledger/internal/models"
	"github.com/runledger/runledger/internal/sources"
	"github.com/runledger/runledger/pkg/errors"
)

// Strava writes activity dates in a fixed 12-hour format, e.g.
// "Oct 12, 2023, 1:24:12 PM".
const dateLayout = "Jan 2, 2006, 3:04:05 PM"

const (
	exportDirPattern = "export_*"
	activitiesFile   = "activities.csv"
)

// Parser reads a Strava export directory.
type Parser struct {
	log *zerolog.Logger
}

// New returns a Strava parser that logs skipped records to the given logger.
func New(log *zerolog.Logger) *Parser {
	return &Parser{log: log}
}

// Name identifies the source in logs and summaries.
func (p *Parser) Name() string { return sources.Strava }

// Parse reads export_*/activities.csv under dataDir and yields one Run per
// CSV row tagged "Run". Records with an unparsable date or without a usable
// activity ID are dropped with a diagnostic; a missing export directory is
// reported as a SourceError so ingestion of other sources can continue.
func (p *Parser) Parse(dataDir string) ([]models.Run, sources.Stats, error) {
	var stats sources.Stats

	matches, err := filepath.Glob(filepath.Join(dataDir, exportDirPattern))
	if err != nil || len(matches) == 0 {
		return nil, stats, errors.NewSourceError(sources.Strava, exportDirPattern, err)
	}
	sort.Strings(matches)

	path := filepath.Join(matches[0], activitiesFile)
	if _, err := os.Stat(path); err != nil {
		return nil, stats, errors.NewSourceError(sources.Strava, path, err)
	}

	records, err := sources.ReadCSV(path)
	if err != nil {
		return nil, stats, err
	}

	var runs []models.Run
	for _, record := range records {
		if record.Get("Activity Type") != "Run" {
			continue
		}

		rawDate := record.Get("Activity Date")
		startedAt, err := time.Parse(dateLayout, rawDate)
		if err != nil {
			p.log.Warn().
				Str("source", sources.Strava).
				Str("raw_date", rawDate).
				Msg("Could not parse activity date, skipping record")
			stats.Skipped++
			continue
		}

		// The activity ID is the primary key: no identifier means no row.
		activityID := convert.Int(record.Get("Activity ID"))
		if !activityID.Valid || activityID.Int64 == 0 {
			p.log.Warn().
				Str("source", sources.Strava).
				Str("raw_id", record.Get("Activity ID")).
				Str("name", record.Get("Activity Name")).
				Msg("Missing activity ID, skipping record")
			stats.Skipped++
			continue
		}

		distanceKm := convert.MetersToKm(convert.Float(record.Get("Distance")))
		movingTime := convert.Float(record.Get("Moving Time"))
		gels, carbs := convert.Fueling(distanceKm)

		runs = append(runs, models.Run{
			ID:             activityID.Int64,
			Date:           startedAt.Format("2006-01-02"),
			Name:           convert.String(record.Get("Activity Name")),
			DistanceKm:     distanceKm,
			DurationSec:    convert.Int(record.Get("Moving Time")),
			PaceMinKm:      convert.Pace(distanceKm, movingTime),
			AvgHR:          convert.Int(record.Get("Average Heart Rate")),
			MaxHR:          convert.Int(record.Get("Max Heart Rate")),
			ElevationGain:  convert.Float(record.Get("Elevation Gain")),
			TempC:          convert.Float(record.Get("Weather Temperature")),
			Humidity:       convert.Float(record.Get("Humidity")),
			Weather:        convert.String(record.Get("Weather Condition")),
			RelativeEffort: convert.Int(record.Get("Relative Effort")),
			HourOfDay:      startedAt.Hour(),
			DayOfWeek:      startedAt.Weekday().String(),
			Calories:       convert.Int(record.Get("Calories")),
			GelsEstimated:  gels,
			CarbsG:         carbs,
		})
		stats.Parsed++
	}

	return runs, stats, nil
}
