package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/erazemk/donacije/internal/metrics"
	"github.com/erazemk/donacije/internal/model"
)

// Querier is the subset of *sql.DB, *sql.Conn and *sql.Tx used by the store
// package, so the same query code runs inside and outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store hands out scoped transactions over a bounded connection pool.
type Store struct {
	DB             *sql.DB
	acquireTimeout time.Duration
}

// NewStore limits db to maxConns open connections. Callers wait up to
// acquireTimeout for a free connection before failing with
// model.ErrResourceExhausted.
func NewStore(db *sql.DB, maxConns int, acquireTimeout time.Duration) *Store {
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	return &Store{DB: db, acquireTimeout: acquireTimeout}
}

// WithTx runs fn inside a transaction on a dedicated connection. The
// transaction commits when fn returns nil and rolls back on any error or
// panic; the connection is returned to the pool on every path. Errors that do
// not already carry a model error kind are reported as model.ErrStorage.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	start := time.Now()

	conn, err := s.acquire(ctx)
	if err != nil {
		if errors.Is(err, model.ErrResourceExhausted) {
			metrics.ObserveTx(metrics.TxExhausted, time.Since(start))
		}
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("beginning transaction: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			metrics.ObserveTx(metrics.TxRolledBack, time.Since(start))
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Error("rolling back transaction", "error", rbErr)
		}
		metrics.ObserveTx(metrics.TxRolledBack, time.Since(start))
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		metrics.ObserveTx(metrics.TxRolledBack, time.Since(start))
		return classify(fmt.Errorf("committing transaction: %w", err))
	}

	metrics.ObserveTx(metrics.TxCommitted, time.Since(start))
	return nil
}

// Ping checks that a connection can be acquired and used.
func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.PingContext(ctx)
}

func (s *Store) acquire(ctx context.Context) (*sql.Conn, error) {
	actx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()

	conn, err := s.DB.Conn(actx)
	if err == nil {
		return conn, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("acquiring connection: %w", ctx.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: no database connection free within %s", model.ErrResourceExhausted, s.acquireTimeout)
	}
	return nil, fmt.Errorf("%w: acquiring connection: %w", model.ErrStorage, err)
}

// domainErrors are the error kinds passed through WithTx unchanged.
var domainErrors = []error{
	model.ErrValidation,
	model.ErrAuthorization,
	model.ErrAuthentication,
	model.ErrNotFound,
	model.ErrConflict,
	model.ErrResourceExhausted,
	model.ErrStorage,
	context.Canceled,
	context.DeadlineExceeded,
}

func classify(err error) error {
	for _, kind := range domainErrors {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", model.ErrStorage, err)
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY
// constraint failure.
func IsUniqueViolation(err error) bool {
	code, ok := sqliteCode(err)
	return ok && (code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
}

// IsForeignKeyViolation reports whether err is a FOREIGN KEY constraint failure.
func IsForeignKeyViolation(err error) bool {
	code, ok := sqliteCode(err)
	return ok && code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

func sqliteCode(err error) (int, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return 0, false
	}
	return se.Code(), true
}
