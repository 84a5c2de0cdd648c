package database

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Dialect isolates the handful of places where the supported engines differ.
// Statement templates are written with '?' placeholders and rebound once per table.
type Dialect interface {
	Name() string
	DriverName() string
	// DSN turns the configured URL into what the driver expects.
	DSN(url, authToken string) string
	Rebind(query string) string
	// TableExistsQuery takes the table name as its only argument and yields a count.
	TableExistsQuery() string
	DropTableSQL(table string) string
	IsDuplicateObject(err error) bool
	Classify(err error) (code string, kind ErrorKind)
	// HaltSQL is run once on shutdown; empty when the engine is not embedded.
	HaltSQL() string
}

// DialectFor picks the dialect from the URL scheme.
func DialectFor(url string) Dialect {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgresDialect{}
	case strings.HasPrefix(url, "libsql://"), strings.HasPrefix(url, "https://"), strings.HasPrefix(url, "http://"),
		strings.HasPrefix(url, "wss://"), strings.HasPrefix(url, "ws://"):
		return sqliteDialect{driver: "libsql"}
	default:
		return sqliteDialect{driver: "sqlite3"}
	}
}

type sqliteDialect struct {
	driver string
}

func (d sqliteDialect) Name() string {
	if d.driver == "libsql" {
		return "libsql"
	}
	return "sqlite"
}

func (d sqliteDialect) DriverName() string { return d.driver }

func (d sqliteDialect) DSN(url, authToken string) string {
	if d.driver == "libsql" {
		if authToken == "" {
			return url
		}
		return url + "?authToken=" + authToken
	}

	path := strings.TrimPrefix(url, "sqlite://")
	path = strings.TrimPrefix(path, "file:")
	params := "_foreign_keys=on&_busy_timeout=5000"
	if path == ":memory:" {
		// Every pooled connection must see the same in-memory database.
		return "file::memory:?cache=shared&" + params
	}
	if !strings.Contains(path, "_journal_mode") {
		params += "&_journal_mode=WAL"
	}
	if strings.Contains(path, "?") {
		return "file:" + path + "&" + params
	}
	return "file:" + path + "?" + params
}

func (sqliteDialect) Rebind(query string) string { return query }

func (sqliteDialect) TableExistsQuery() string {
	return "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
}

func (sqliteDialect) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + table
}

func (sqliteDialect) IsDuplicateObject(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}

func (sqliteDialect) Classify(err error) (string, ErrorKind) {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		code := strconv.Itoa(int(sqliteErr.ExtendedCode))
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
			return code, KindDuplicateKey
		case sqlite3.ErrConstraintForeignKey:
			return code, KindMissingReference
		default:
			return code, KindOther
		}
	}
	if err == nil {
		return "", KindOther
	}
	// Remote libsql errors only carry the engine message.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return strconv.Itoa(int(sqlite3.ErrConstraintUnique)), KindDuplicateKey
	case strings.Contains(msg, "PRIMARY KEY constraint failed"):
		return strconv.Itoa(int(sqlite3.ErrConstraintPrimaryKey)), KindDuplicateKey
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return strconv.Itoa(int(sqlite3.ErrConstraintForeignKey)), KindMissingReference
	}
	return "", KindOther
}

func (d sqliteDialect) HaltSQL() string {
	if d.driver == "libsql" {
		return ""
	}
	return "PRAGMA wal_checkpoint(TRUNCATE)"
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) DriverName() string { return "pgx" }

func (postgresDialect) DSN(url, _ string) string { return url }

func (postgresDialect) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (postgresDialect) TableExistsQuery() string {
	return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1"
}

func (postgresDialect) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + table + " CASCADE"
}

func (postgresDialect) IsDuplicateObject(err error) bool {
	var pgErr *pgconn.PgError
	// 42P07 duplicate_table, 23505 when two sessions race on the catalog row.
	return errors.As(err, &pgErr) && (pgErr.Code == "42P07" || pgErr.Code == "23505")
}

func (postgresDialect) Classify(err error) (string, ErrorKind) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", KindOther
	}
	switch pgErr.Code {
	case "23505":
		return pgErr.Code, KindDuplicateKey
	case "23503":
		return pgErr.Code, KindMissingReference
	default:
		return pgErr.Code, KindOther
	}
}

func (postgresDialect) HaltSQL() string { return "" }
