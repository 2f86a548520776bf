package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/ext/unicode"
)

// Every SQLite connection gets Unicode aware lower() and LIKE, so name search
// folds case beyond ASCII.
func init() {
	sqlite3.AutoExtension(unicode.Register)
}

// Dialect isolates the statements that differ between backends. Queries in
// this package are written with "double-quoted" identifiers and ? placeholders;
// Rebind adapts them to the backend.
type Dialect interface {
	Name() string
	DriverName() string
	Schema() []string
	Rebind(query string) string
	// UpsertAttribute takes (id, friend_id, key, value, created_at, updated_at).
	UpsertAttribute() string
	// Bool encodes a flag for a bound parameter.
	Bool(b bool) any
}

// SQLite is the embedded default backend.
type SQLite struct{}

func (SQLite) Name() string       { return "sqlite" }
func (SQLite) DriverName() string { return "sqlite3" }
func (SQLite) Schema() []string   { return []string{SQLiteSchema} }

func (SQLite) Rebind(query string) string { return query }

func (SQLite) UpsertAttribute() string {
	return `INSERT INTO attributes (id, friend_id, "key", value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(friend_id, "key") DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`
}

func (SQLite) Bool(b bool) any { return strconv.FormatBool(b) }

// SQLiteDSN builds the connection string for a database file, creating its
// parent directory if needed.
func SQLiteDSN(path string) (string, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create data dir: %w", err)
		}
	}
	return "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_txlock=immediate", nil
}

// MySQL is the server backend.
type MySQL struct{}

func (MySQL) Name() string       { return "mysql" }
func (MySQL) DriverName() string { return "mysql" }

func (d MySQL) Schema() []string {
	stmts := make([]string, len(MySQLSchema))
	for i, stmt := range MySQLSchema {
		stmts[i] = d.Rebind(stmt)
	}
	return stmts
}

func (MySQL) Rebind(query string) string {
	return strings.ReplaceAll(query, `"`, "`")
}

func (d MySQL) UpsertAttribute() string {
	return d.Rebind(`INSERT INTO attributes (id, friend_id, "key", value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			value = VALUES(value),
			updated_at = VALUES(updated_at)`)
}

func (MySQL) Bool(b bool) any { return b }

// MySQLConfig holds connection settings for the MySQL backend.
type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// MySQLDSN formats the connection string. ClientFoundRows makes UPDATE report
// matched rather than changed rows, which the not-found checks rely on.
func MySQLDSN(c MySQLConfig) string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	cfg.DBName = c.Database
	cfg.ClientFoundRows = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// normalizeMySQLDSN forces ClientFoundRows on a user supplied DSN.
func normalizeMySQLDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

// dialectFor resolves a configured driver name.
func dialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "sqlite", "sqlite3":
		return SQLite{}, nil
	case "mysql":
		return MySQL{}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q (use sqlite or mysql)", name)
	}
}

// parseFlag reads a stored flag: 'true'/'false' text on SQLite, 1/0 on MySQL.
func parseFlag(raw string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && b
}
