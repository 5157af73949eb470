package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect abstracts the differences between the supported database engines.
type Dialect interface {
	// DriverName returns the driver name passed to sql.Open
	DriverName() string

	// DSN builds the data source name from the connection config
	DSN(config DialectConfig) string

	// RewriteQuery adjusts placeholder syntax where the engine needs it
	// (postgres wants $1, $2 instead of ?)
	RewriteQuery(query string) string

	// SupportsLastInsertId reports whether the driver implements LastInsertId()
	SupportsLastInsertId() bool

	// ConfigureConnection applies engine-specific pool and pragma settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the per-engine subdirectory under migrations/
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL for the migrations tracking table
	CreateMigrationsTableQuery() string

	// BoolValue returns the SQL literal for a boolean
	BoolValue(b bool) string

	// InsertIgnore rewrites a plain INSERT so rows conflicting with an
	// existing key are skipped instead of erroring. Callers inspect
	// RowsAffected to learn whether the row was actually written.
	InsertIgnore(query string) string
}

// DialectConfig holds connection details; Path is used by SQLite,
// URL by PostgreSQL and MySQL.
type DialectConfig struct {
	Path string
	URL  string
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}
