package export

import (
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/runledger/runledger/pkg/errors"
)

// WriteParquet renders the dataset as a parquet file. The schema is
// inferred from the first non-nil value seen per column; columns that
// never carry a value fall back to optional strings.
func WriteParquet(dataset *Dataset, w io.Writer) error {
	group := parquet.Group{}
	for _, column := range dataset.Columns {
		group[column] = parquet.Optional(columnNode(dataset, column))
	}

	schema := parquet.NewSchema(dataset.Table, group)
	writer := parquet.NewGenericWriter[map[string]any](w, schema)

	rows := make([]map[string]any, 0, len(dataset.Rows))
	for _, record := range dataset.Rows {
		row := make(map[string]any, len(record))
		for column, value := range record {
			if value != nil {
				row[column] = value
			}
		}
		rows = append(rows, row)
	}

	if _, err := writer.Write(rows); err != nil {
		return errors.NewExportError("file", dataset.Table, 0, err)
	}
	return errors.WrapExport("file", dataset.Table, writer.Close())
}

func columnNode(dataset *Dataset, column string) parquet.Node {
	for _, record := range dataset.Rows {
		switch record[column].(type) {
		case nil:
			continue
		case float64:
			return parquet.Leaf(parquet.DoubleType)
		case int64, int:
			return parquet.Leaf(parquet.Int64Type)
		case bool:
			return parquet.Leaf(parquet.BooleanType)
		default:
			return parquet.String()
		}
	}
	return parquet.String()
}
