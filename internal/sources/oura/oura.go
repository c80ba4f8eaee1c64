// Package oura parses Oura daily trends exports (oura_*_trends.csv) into
// one SleepRecord per calendar day.
package oura

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/runledger/runledger/internal/convert"
	"github.com/runledger/runledger/internal/models"
	"github.com/runledger/runledger/internal/sources"
	"github.com/runledger/runledger/pkg/errors"
)

const trendsPattern = "oura_*_trends.csv"

// Parser reads an Oura trends export.
type Parser struct {
	log *zerolog.Logger
}

// New returns an Oura parser that logs skipped records to the given logger.
func New(log *zerolog.Logger) *Parser {
	return &Parser{log: log}
}

// Name identifies the source in logs and summaries.
func (p *Parser) Name() string { return sources.Oura }

// Parse reads oura_*_trends.csv under dataDir and yields one SleepRecord
// per row with a non-empty date. Sleep-stage durations arrive in seconds
// and are converted to whole minutes; absent durations stay absent.
func (p *Parser) Parse(dataDir string) ([]models.SleepRecord, sources.Stats, error) {
	var stats sources.Stats

	matches, err := filepath.Glob(filepath.Join(dataDir, trendsPattern))
	if err != nil || len(matches) == 0 {
		return nil, stats, errors.NewSourceError(sources.Oura, trendsPattern, err)
	}
	sort.Strings(matches)

	records, err := sources.ReadCSV(matches[0])
	if err != nil {
		return nil, stats, err
	}

	var sleep []models.SleepRecord
	for _, record := range records {
		date := strings.TrimSpace(record.Get("date"))
		if date == "" {
			stats.Skipped++
			continue
		}

		sleep = append(sleep, models.SleepRecord{
			Date:           date,
			SleepScore:     convert.Int(record.Get("Sleep Score")),
			ReadinessScore: convert.Int(record.Get("Readiness Score")),
			HRV:            convert.Int(record.Get("Average HRV")),
			RestingHR:      convert.Int(record.Get("Average Resting Heart Rate")),
			DeepSleepMin:   convert.SecToMin(convert.Int(record.Get("Deep Sleep Duration"))),
			RemSleepMin:    convert.SecToMin(convert.Int(record.Get("REM Sleep Duration"))),
			LightSleepMin:  convert.SecToMin(convert.Int(record.Get("Light Sleep Duration"))),
			TotalSleepMin:  convert.SecToMin(convert.Int(record.Get("Total Sleep Duration"))),
		})
		stats.Parsed++
	}

	return sleep, stats, nil
}
