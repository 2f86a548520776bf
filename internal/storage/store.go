package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// timeLayout is fixed-width so stored timestamps sort lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Config selects and configures the backing database.
type Config struct {
	Driver          string
	SQLitePath      string
	MySQL           MySQLConfig
	MySQLDSN        string // overrides MySQL when set
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store owns the friends, attributes and notes tables. It is safe for
// concurrent use; every operation acquires its own connection or transaction
// from the pool.
type Store struct {
	db       *sql.DB
	dialect  Dialect
	log      logrus.FieldLogger
	now      func() time.Time
	validate *validator.Validate
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the logger used for lenient-decode messages.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock overrides the time source used for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open connects to the configured backend, verifies the connection and
// creates the schema if it does not exist.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	var dsn string
	switch d.(type) {
	case MySQL:
		dsn = MySQLDSN(cfg.MySQL)
		if cfg.MySQLDSN != "" {
			if dsn, err = normalizeMySQLDSN(cfg.MySQLDSN); err != nil {
				return nil, err
			}
		}
	default:
		dsn, err = SQLiteDSN(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, &StorageError{Op: "open db", Err: err}
	}
	applyPool(db, cfg)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &StorageError{Op: "ping db", Err: err}
	}

	s := New(db, d, opts...)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func applyPool(db *sql.DB, cfg Config) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

// New wraps an already opened database. The schema is not touched.
func New(db *sql.DB, d Dialect, opts ...Option) *Store {
	s := &Store{
		db:       db,
		dialect:  d,
		log:      logrus.StandardLogger(),
		now:      time.Now,
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates any missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &StorageError{Op: "migrate " + s.dialect.Name(), Err: err}
		}
	}
	return nil
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &StorageError{Op: "ping db", Err: err}
	}
	return nil
}

// DB exposes the pool for stats collection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the backend in use.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

func (s *Store) q(query string) string {
	return s.dialect.Rebind(query)
}

func newID() string {
	return uuid.New().String()
}

// withTx runs fn in a transaction that is rolled back unless fn succeeds and
// the commit goes through. Errors other than validation/not-found come back
// as *StorageError tagged with op.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: op, Err: fmt.Errorf("begin tx: %w", err)}
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return storageErr(op, err)
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Op: op, Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

// friendExists checks for a friend inside tx.
func (s *Store) friendExists(ctx context.Context, tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, s.q(`SELECT 1 FROM friends WHERE id = ?`), id).Scan(&one)
	if err == sql.ErrNoRows {
		return &NotFoundError{Entity: "friend", ID: id}
	}
	if err != nil {
		return fmt.Errorf("lookup friend: %w", err)
	}
	return nil
}
