package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gps-ingest/internal/db"
	"github.com/sells-group/gps-ingest/internal/model"
	"github.com/sells-group/gps-ingest/internal/resilience"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS %s (
	id               BIGSERIAL PRIMARY KEY,
	ordem            TEXT NOT NULL,
	linha            TEXT NOT NULL,
	datahora         BIGINT NOT NULL,
	datahoraenvio    BIGINT NOT NULL,
	datahoraservidor BIGINT NOT NULL,
	velocidade       INTEGER NOT NULL,
	longitude        DOUBLE PRECISION NOT NULL,
	latitude         DOUBLE PRECISION NOT NULL,
	geom             geometry(Point, %d) NOT NULL,
	UNIQUE (ordem, linha, datahora, datahoraenvio, datahoraservidor, velocidade, longitude, latitude)
)`

const (
	createGeomIndexSQL   = `CREATE INDEX IF NOT EXISTS %s ON %s USING gist (geom)`
	createServerIndexSQL = `CREATE INDEX IF NOT EXISTS %s ON %s (datahoraservidor)`
)

// lockSQL serializes DDL per table name across concurrent workers and
// processes; the lock is released when the transaction ends.
const lockSQL = `SELECT pg_advisory_xact_lock(hashtext($1))`

// CreateTableSQL renders the table DDL.
func CreateTableSQL(table string) string {
	return fmt.Sprintf(createTableSQL, db.QuoteTable(table), model.SRID)
}

// IndexSQL renders the spatial and server-timestamp index DDL.
func IndexSQL(table string) []string {
	base := table
	if i := strings.LastIndex(table, "."); i >= 0 {
		base = table[i+1:]
	}
	quoted := db.QuoteTable(table)
	return []string{
		fmt.Sprintf(createGeomIndexSQL, pgx.Identifier{base + "_geom_idx"}.Sanitize(), quoted),
		fmt.Sprintf(createServerIndexSQL, pgx.Identifier{base + "_datahoraservidor_idx"}.Sanitize(), quoted),
	}
}

// EnsureTable creates table if it does not exist. Safe to call repeatedly
// and from concurrent workers.
func EnsureTable(ctx context.Context, b db.Beginner, table string) error {
	err := lockedDDL(ctx, b, table, []string{CreateTableSQL(table)})
	if err != nil {
		return wrapDDL(err, "store: ensure table %s", table)
	}
	zap.L().Debug("table ready", zap.String("component", "store"), zap.String("table", table))
	return nil
}

// EnsureIndexes creates the GiST index on geom and the btree index on
// datahoraservidor if they do not exist.
func EnsureIndexes(ctx context.Context, b db.Beginner, table string) error {
	if err := lockedDDL(ctx, b, table, IndexSQL(table)); err != nil {
		return wrapDDL(err, "store: ensure indexes on %s", table)
	}
	zap.L().Debug("indexes ready", zap.String("component", "store"), zap.String("table", table))
	return nil
}

func lockedDDL(ctx context.Context, b db.Beginner, table string, stmts []string) error {
	return db.WithTx(ctx, b, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, lockSQL, table); err != nil {
			return classifyDDL(err)
		}
		for _, stmt := range stmts {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return classifyDDL(err)
			}
		}
		return nil
	})
}

// retryableDDL lists SQLSTATEs raised by lock conflicts between concurrent
// schema changes: deadlock_detected, serialization_failure, lock_not_available.
var retryableDDL = map[string]bool{
	"40P01": true,
	"40001": true,
	"55P03": true,
}

func classifyDDL(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && retryableDDL[pgErr.Code] {
		return resilience.NewTransientError(err)
	}
	return err
}

// wrapDDL adds context while keeping a transient mark on the outside.
func wrapDDL(err error, format string, args ...any) error {
	wrapped := eris.Wrapf(err, format, args...)
	if _, ok := err.(*resilience.TransientError); ok {
		return resilience.NewTransientError(wrapped)
	}
	return wrapped
}
