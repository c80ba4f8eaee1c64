// Package garmin parses Garmin Connect full-account exports. The activity
// summaries live in a nested JSON file whose top-level array wraps a single
// object holding the real activity list.
package garmin

import (
	"encoding/json"
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

// Garmin buries the activity summaries deep inside the account export.
const summariesPattern = "garmin_*/DI_CONNECT/DI-Connect-Fitness/*summarizedActivities.json"

// Activity types counted as runs.
var runTypes = map[string]bool{
	"running":           true,
	"treadmill_running": true,
}

// export mirrors the top-level JSON shape: an array whose first element
// carries the activity list.
type export struct {
	SummarizedActivitiesExport []activity `json:"summarizedActivitiesExport"`
}

// activity keeps raw values loosely typed; every numeric passes through the
// field normalizer so absent keys become NULL columns.
type activity map[string]any

// Parser reads a Garmin account export directory.
type Parser struct {
	log *zerolog.Logger
}

// New returns a Garmin parser that logs skipped records to the given logger.
func New(log *zerolog.Logger) *Parser {
	return &Parser{log: log}
}

// Name identifies the source in logs and summaries.
func (p *Parser) Name() string { return sources.Garmin }

// Parse reads the summarized activities JSON under dataDir and yields one
// GarminRun per running or treadmill-running activity. Distance arrives in
// centimeters and duration in milliseconds; heart-rate-zone durations stay
// in milliseconds (the matcher converts them on enrichment). Activities
// without both a begin timestamp and an activity ID are skipped.
func (p *Parser) Parse(dataDir string) ([]models.GarminRun, sources.Stats, error) {
	var stats sources.Stats

	matches, err := filepath.Glob(filepath.Join(dataDir, summariesPattern))
	if err != nil || len(matches) == 0 {
		return nil, stats, errors.NewSourceError(sources.Garmin, summariesPattern, err)
	}
	sort.Strings(matches)
	path := matches[0]

	f, err := os.Open(path)
	if err != nil {
		return nil, stats, errors.WrapIO("open", path, err)
	}
	defer f.Close()

	decoder := json.NewDecoder(f)
	decoder.UseNumber()

	var exports []export
	if err := decoder.Decode(&exports); err != nil {
		return nil, stats, errors.WrapParse("json", path, err)
	}
	if len(exports) == 0 {
		return nil, stats, nil
	}

	var runs []models.GarminRun
	for _, act := range exports[0].SummarizedActivitiesExport {
		activityType, _ := act["activityType"].(string)
		if !runTypes[activityType] {
			continue
		}

		beginTimestamp := convert.Int(act["beginTimestamp"])
		activityID := convert.Int(act["activityId"])
		if !beginTimestamp.Valid || !activityID.Valid {
			p.log.Warn().
				Str("source", sources.Garmin).
				Interface("raw_id", act["activityId"]).
				Interface("raw_timestamp", act["beginTimestamp"]).
				Msg("Missing activity ID or begin timestamp, skipping record")
			stats.Skipped++
			continue
		}

		startedAt := time.UnixMilli(beginTimestamp.Int64).UTC()

		runs = append(runs, models.GarminRun{
			ActivityID:         activityID.Int64,
			Date:               startedAt.Format("2006-01-02"),
			Name:               convert.String(act["name"]),
			ActivityType:       activityType,
			DistanceKm:         convert.CmToKm(convert.Float(act["distance"])),
			DurationSec:        convert.MsToSec(convert.Int(act["duration"])),
			AvgHR:              convert.Int(act["avgHr"]),
			MaxHR:              convert.Int(act["maxHr"]),
			Calories:           convert.Int(act["calories"]),
			AerobicTE:          convert.Float(act["aerobicTrainingEffect"]),
			AnaerobicTE:        convert.Float(act["anaerobicTrainingEffect"]),
			VO2Max:             convert.Float(act["vO2MaxValue"]),
			TrainingLoad:       convert.Float(act["activityTrainingLoad"]),
			AvgPower:           convert.Float(act["avgPower"]),
			MaxPower:           convert.Float(act["maxPower"]),
			AvgRunCadence:      convert.Float(act["avgRunCadence"]),
			AvgGroundContactMs: convert.Float(act["avgGroundContactTime"]),
			AvgStrideLengthCm:  convert.Float(act["avgStrideLength"]),
			AvgVerticalOscCm:   convert.Float(act["avgVerticalOscillation"]),
			HRZone1Ms:          convert.Int(act["hrTimeInZone_1"]),
			HRZone2Ms:          convert.Int(act["hrTimeInZone_2"]),
			HRZone3Ms:          convert.Int(act["hrTimeInZone_3"]),
			HRZone4Ms:          convert.Int(act["hrTimeInZone_4"]),
			HRZone5Ms:          convert.Int(act["hrTimeInZone_5"]),
		})
		stats.Parsed++
	}

	return runs, stats, nil
}
