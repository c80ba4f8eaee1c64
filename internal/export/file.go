package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/runledger/runledger/pkg/errors"
)

// Output formats for flat-file export.
const (
	FormatCSV     = "csv"
	FormatJSON    = "json"
	FormatNDJSON  = "ndjson"
	FormatParquet = "parquet"
)

// FileWriter writes datasets to flat files under one output directory.
type FileWriter struct {
	reader *Reader
	log    *zerolog.Logger
}

// NewFileWriter builds a flat-file exporter over a dataset reader.
func NewFileWriter(reader *Reader, log *zerolog.Logger) *FileWriter {
	return &FileWriter{reader: reader, log: log}
}

// WriteTables exports the named tables in the given format into dir,
// returning the paths written. Empty tables are skipped, matching the
// summary-style reporting downstream consumers expect.
func (f *FileWriter) WriteTables(ctx context.Context, tables []string, format, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}

	var written []string
	for _, table := range tables {
		dataset, err := f.reader.Dataset(ctx, table)
		if err != nil {
			return nil, err
		}
		if dataset.Empty() {
			f.log.Info().Str("table", table).Msg("Table empty, skipping")
			continue
		}

		path := filepath.Join(dir, fmt.Sprintf("%s.%s", table, format))
		if err := writeFile(dataset, format, path); err != nil {
			return nil, err
		}

		f.log.Info().Str("table", table).Int("rows", len(dataset.Rows)).Str("path", path).
			Msg("Exported table")
		written = append(written, path)
	}
	return written, nil
}

func writeFile(dataset *Dataset, format, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer out.Close()

	switch format {
	case FormatCSV:
		err = WriteCSV(dataset, out)
	case FormatJSON:
		err = WriteJSON(dataset, out, true)
	case FormatNDJSON:
		err = WriteNDJSON(dataset, out)
	case FormatParquet:
		err = WriteParquet(dataset, out)
	default:
		return errors.NewConfigError("export", fmt.Sprintf("unknown format %q", format), nil)
	}
	if err != nil {
		return err
	}
	return errors.WrapIO("close", path, out.Close())
}

// WriteCSV renders the dataset with a header row. Absent values become
// empty cells.
func WriteCSV(dataset *Dataset, w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(dataset.Columns); err != nil {
		return errors.NewExportError("file", dataset.Table, 0, err)
	}

	row := make([]string, len(dataset.Columns))
	for _, record := range dataset.Rows {
		for i, column := range dataset.Columns {
			row[i] = cell(record[column])
		}
		if err := writer.Write(row); err != nil {
			return errors.NewExportError("file", dataset.Table, 0, err)
		}
	}

	writer.Flush()
	return errors.WrapExport("file", dataset.Table, writer.Error())
}

// WriteJSON renders the dataset as one JSON array of row objects.
func WriteJSON(dataset *Dataset, w io.Writer, pretty bool) error {
	encoder := json.NewEncoder(w)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(dataset.Rows); err != nil {
		return errors.NewExportError("file", dataset.Table, 0, err)
	}
	return nil
}

// WriteNDJSON renders one JSON object per line.
func WriteNDJSON(dataset *Dataset, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for _, record := range dataset.Rows {
		if err := encoder.Encode(record); err != nil {
			return errors.NewExportError("file", dataset.Table, 0, err)
		}
	}
	return nil
}

// cell renders a single CSV cell; nil (absent) renders as empty.
func cell(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprint(value)
	}
}
