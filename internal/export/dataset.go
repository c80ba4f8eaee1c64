// Package export re-exports the reconciled tables to flat files and external
// ingestion endpoints. Exporters treat the store as read-only and reproduce
// every row and column without transformation.
package export

import (
	"context"
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"

	"github.com/runledger/runledger/internal/store"
	"github.com/runledger/runledger/pkg/errors"
)

// Table names addressable by the exporters.
const (
	TableRuns         = "runs"
	TableGarminRuns   = "garmin_runs"
	TableSleep        = "sleep"
	TableRunWithSleep = "run_with_sleep"
)

// DefaultTables mirrors what the ingest summary reports on.
var DefaultTables = []string{TableRuns, TableSleep, TableRunWithSleep}

// Dataset is one table snapshot: ordered column names plus rows keyed by
// column. Null columns appear as nil values so every writer can render
// "absent" its own way.
type Dataset struct {
	Table   string
	Columns []string
	Rows    []map[string]any
}

// Empty reports whether the dataset has no rows.
func (d *Dataset) Empty() bool { return len(d.Rows) == 0 }

// Reader extracts datasets from the store.
type Reader struct {
	store *store.Store
}

// NewReader wraps a store for read-only extraction.
func NewReader(s *store.Store) *Reader {
	return &Reader{store: s}
}

// Dataset reads one table (or the derived view) in full.
func (r *Reader) Dataset(ctx context.Context, table string) (*Dataset, error) {
	switch table {
	case TableRuns:
		rows, err := r.store.Runs(ctx)
		if err != nil {
			return nil, err
		}
		return toDataset(table, rows), nil
	case TableGarminRuns:
		rows, err := r.store.GarminRuns(ctx)
		if err != nil {
			return nil, err
		}
		return toDataset(table, rows), nil
	case TableSleep:
		rows, err := r.store.SleepRecords(ctx)
		if err != nil {
			return nil, err
		}
		return toDataset(table, rows), nil
	case TableRunWithSleep:
		rows, err := r.store.RunsWithSleep(ctx)
		if err != nil {
			return nil, err
		}
		return toDataset(table, rows), nil
	default:
		return nil, errors.NewConfigError("export", fmt.Sprintf("unknown table %q", table), nil)
	}
}

// toDataset flattens a slice of bun-tagged model structs into column-keyed
// rows, preserving struct field order as column order. Optional (null) values
// become nil so downstream writers keep "absent" distinct from zero.
func toDataset[T any](table string, rows []T) *Dataset {
	var zero T
	columns := columnNames(reflect.TypeOf(zero))

	dataset := &Dataset{Table: table, Columns: columns}
	for i := range rows {
		record := make(map[string]any, len(columns))
		flattenValue(reflect.ValueOf(rows[i]), record)
		dataset.Rows = append(dataset.Rows, record)
	}
	return dataset
}

// columnNames walks the struct (including embedded models) collecting bun
// column names in declaration order.
func columnNames(t reflect.Type) []string {
	var columns []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			if field.Type.Kind() == reflect.Struct && field.Type.Name() != "BaseModel" {
				columns = append(columns, columnNames(field.Type)...)
			}
			continue
		}
		if name := bunColumn(field); name != "" {
			columns = append(columns, name)
		}
	}
	return columns
}

// flattenValue writes one struct's column values into record.
func flattenValue(v reflect.Value, record map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			if field.Type.Kind() == reflect.Struct && field.Type.Name() != "BaseModel" {
				flattenValue(v.Field(i), record)
			}
			continue
		}
		name := bunColumn(field)
		if name == "" {
			continue
		}
		record[name] = plainValue(v.Field(i))
	}
}

// bunColumn extracts the column name from a bun field tag.
func bunColumn(field reflect.StructField) string {
	tag := field.Tag.Get("bun")
	if tag == "" || strings.HasPrefix(tag, "table:") {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	return name
}

// plainValue unwraps optional values: a driver.Valuer yields its underlying
// value or nil, everything else passes through as-is.
func plainValue(v reflect.Value) any {
	if valuer, ok := v.Interface().(driver.Valuer); ok {
		value, err := valuer.Value()
		if err != nil {
			return nil
		}
		return value
	}
	return v.Interface()
}
