package sqlload

import (
	"fmt"
	"strings"
)

// Dialect selects identifier quoting and placeholder syntax for a target
// database. The zero value is not usable; use one of the package constants.
type Dialect int

const (
	// DialectMySQL targets MySQL/MariaDB: backtick identifiers, ? placeholders.
	DialectMySQL Dialect = iota
	// DialectPostgreSQL targets PostgreSQL: double-quoted identifiers, $n placeholders.
	DialectPostgreSQL
	// DialectSQLite targets SQLite: backtick identifiers, ? placeholders.
	DialectSQLite
)

// String returns the driver-style name of the dialect.
func (d Dialect) String() string {
	switch d {
	case DialectMySQL:
		return "mysql"
	case DialectPostgreSQL:
		return "postgres"
	case DialectSQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// DialectFromDriverName maps a database/sql driver name to a Dialect.
func DialectFromDriverName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgreSQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return 0, fmt.Errorf("unknown driver name %q", name)
	}
}

// quoteRune returns the identifier quote character for the dialect.
func (d Dialect) quoteRune() byte {
	if d == DialectPostgreSQL {
		return '"'
	}
	return '`'
}

// placeholder returns the positional placeholder for the 1-based index.
func (d Dialect) placeholder(index int) string {
	if d == DialectPostgreSQL {
		return fmt.Sprintf("$%d", index)
	}
	return "?"
}
