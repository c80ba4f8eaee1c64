package store

import "fmt"

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Dialect supplies the backend-specific SQL fragments the reconciliation
// queries need. Everything else (upsert clauses, placeholders) is handled
// uniformly by bun; date arithmetic is the one piece that genuinely differs,
// so it is injected here instead of branched through business logic.
type Dialect interface {
	// Name returns the driver name this dialect belongs to.
	Name() string

	// DateSubDay returns a SQL expression for the calendar day before the
	// given ISO-date column expression, formatted as YYYY-MM-DD.
	DateSubDay(expr string) string
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return DriverSQLite }

func (sqliteDialect) DateSubDay(expr string) string {
	return fmt.Sprintf("date(%s, '-1 day')", expr)
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return DriverPostgres }

func (postgresDialect) DateSubDay(expr string) string {
	return fmt.Sprintf("to_char(%s::date - interval '1 day', 'YYYY-MM-DD')", expr)
}
