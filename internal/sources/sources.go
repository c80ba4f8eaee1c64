// Package sources contains the provider export parsers. Each provider
// (Strava, Garmin, Oura) gets its own subpackage exposing a Parser that
// reads one export format and yields normalized candidate records.
// Parsers are pure: the same input file content always produces the same
// records in input row order.
package sources

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/runledger/runledger/pkg/errors"
)

// Source names used in logs and diagnostics.
const (
	Strava = "strava"
	Garmin = "garmin"
	Oura   = "oura"
)

// Stats summarizes one parse pass over a provider export.
type Stats struct {
	Parsed  int // records yielded
	Skipped int // malformed records dropped with a diagnostic
}

// Record is one CSV row keyed by header name, mirroring the shape of the
// provider exports (named columns, free row order).
type Record map[string]string

// Get returns the raw value for a column, or "" when the column is absent.
func (r Record) Get(column string) string {
	return r[column]
}

// ReadCSV reads a headered CSV file into records keyed by column name.
// Rows with a different field count than the header are tolerated
// (variable-length rows appear in real Strava exports).
func ReadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.WrapParse("csv", path, err)
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapParse("csv", path, err)
		}

		record := make(Record, len(header))
		for i, column := range header {
			if i < len(row) {
				record[column] = row[i]
			}
		}
		records = append(records, record)
	}

	return records, nil
}
