// Package session owns the store connection for one ingestion run: bounded
// connect retry while the store starts, transactional units of work, and
// release at shutdown.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gps-ingest/internal/db"
	"github.com/sells-group/gps-ingest/internal/resilience"
	"github.com/sells-group/gps-ingest/internal/store"
)

// ErrStoreUnavailable is returned by Connect when the store never became
// reachable within the retry bound.
var ErrStoreUnavailable = eris.New("session: store unavailable")

// ErrNotConnected is returned when a unit of work starts before Connect.
var ErrNotConnected = eris.New("session: not connected")

// Config controls how the session connects.
type Config struct {
	ConnString  string
	Pool        store.PoolConfig
	MaxAttempts int           // default 10
	Delay       time.Duration // default 3s
	Clock       clockwork.Clock
}

// DialFunc opens a pool. The default dials ConnString with store.Open.
type DialFunc func(ctx context.Context) (db.Pool, error)

// Manager holds the session for a run.
type Manager struct {
	cfg       Config
	dial      DialFunc
	pool      db.Pool
	closeOnce sync.Once
	log       *zap.Logger
}

// New creates a Manager. A nil dial uses store.Open with cfg.ConnString.
func New(cfg Config, dial DialFunc) *Manager {
	if dial == nil {
		dial = func(ctx context.Context) (db.Pool, error) {
			return store.Open(ctx, cfg.ConnString, &cfg.Pool)
		}
	}
	return &Manager{
		cfg:  cfg,
		dial: dial,
		log:  zap.L().With(zap.String("component", "session")),
	}
}

// Connect opens the session. Errors that mean the store is not listening yet
// are retried up to MaxAttempts with a fixed Delay; any other failure
// returns immediately. Exhausting the retries returns ErrStoreUnavailable.
func (m *Manager) Connect(ctx context.Context) error {
	retryCfg := resilience.FromConnectConfig(m.cfg.MaxAttempts, m.cfg.Delay)
	retryCfg.Clock = m.cfg.Clock
	retryCfg.OnRetry = resilience.RetryLogger("session", "connect", retryCfg.MaxAttempts, retryCfg.InitialBackoff)

	attempts := 0
	pool, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (db.Pool, error) {
		attempts++
		m.log.Info("connecting to store",
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", retryCfg.MaxAttempts),
		)
		return m.dial(ctx)
	})
	if err != nil {
		if resilience.IsNotReady(err) {
			return eris.Wrapf(ErrStoreUnavailable, "gave up after %d attempts: %v", attempts, err)
		}
		return eris.Wrap(err, "session: connect")
	}

	m.pool = pool
	m.log.Info("connected to store", zap.Int("attempts", attempts))
	return nil
}

// Pool returns the connected pool, or nil before Connect.
func (m *Manager) Pool() db.Pool {
	return m.pool
}

// Begin starts a unit of work.
func (m *Manager) Begin(ctx context.Context) (*Tx, error) {
	if m.pool == nil {
		return nil, ErrNotConnected
	}
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "session: begin")
	}
	return &Tx{tx: tx}, nil
}

// WithTx runs fn in a unit of work, committing when fn returns nil and
// rolling back when fn returns an error or panics. A panic is re-raised after
// the rollback.
func (m *Manager) WithTx(ctx context.Context, fn func(ctx context.Context, q db.Querier) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err := fn(ctx, tx.Querier()); err != nil {
		// The entry deadline may already have passed; the rollback must still reach the store.
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return eris.Wrapf(err, "session: rollback failed: %v", rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}

// Close releases the session. It is safe to call more than once and before
// Connect.
func (m *Manager) Close() {
	if m.pool == nil {
		return
	}
	m.closeOnce.Do(func() {
		m.pool.Close()
		m.log.Info("session closed")
	})
}

// Tx is one unit of work. After Commit or Rollback, further Rollback calls
// are no-ops.
type Tx struct {
	tx       pgx.Tx
	finished bool
}

// Querier exposes the transaction for statements.
func (t *Tx) Querier() db.Querier {
	return t.tx
}

// Commit commits the unit of work.
func (t *Tx) Commit(ctx context.Context) error {
	if t.finished {
		return eris.New("session: commit on finished transaction")
	}
	t.finished = true
	return eris.Wrap(t.tx.Commit(ctx), "session: commit")
}

// Rollback discards the unit of work.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.finished {
		return nil
	}
	t.finished = true
	return eris.Wrap(t.tx.Rollback(ctx), "session: rollback")
}
