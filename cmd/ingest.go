package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/sells-group/gps-ingest/internal/config"
	"github.com/sells-group/gps-ingest/internal/ingest"
	"github.com/sells-group/gps-ingest/internal/loader"
	"github.com/sells-group/gps-ingest/internal/session"
	"github.com/sells-group/gps-ingest/internal/store"
	"github.com/sells-group/gps-ingest/internal/validate"
)

// newSession is swapped in tests.
var newSession = func(c *config.Config) *session.Manager {
	return session.New(sessionConfig(c), nil)
}

func sessionConfig(c *config.Config) session.Config {
	maxConns := c.Store.MaxConns
	if w := int32(c.Ingest.Workers); maxConns < w {
		maxConns = w
	}
	return session.Config{
		ConnString:  c.Store.DSN(),
		Pool:        store.PoolConfig{MaxConns: maxConns},
		MaxAttempts: c.Connect.MaxAttempts,
		Delay:       c.Connect.Delay,
	}
}

func walkerOptions(c *config.Config) (ingest.Options, error) {
	filter, err := ingest.FilterByName(c.Ingest.EntryFilter)
	if err != nil {
		return ingest.Options{}, err
	}
	return ingest.Options{
		RootDir:      c.Ingest.RootDir,
		Table:        c.Ingest.Table,
		TableMode:    c.Ingest.TableMode,
		Filter:       filter,
		EnsureSchema: c.Ingest.EnsureSchema,
		Workers:      c.Ingest.Workers,
		EntryTimeout: c.Ingest.EntryTimeout,
	}, nil
}

// runIngest performs one complete walk: connect, ingest every archive, close.
func runIngest(ctx context.Context, c *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "ingest"))

	if err := c.Validate(); err != nil {
		return err
	}
	opts, err := walkerOptions(c)
	if err != nil {
		return err
	}
	if err := ingest.CheckRoot(opts.RootDir); err != nil {
		log.Error("root directory missing", zap.String("root_dir", opts.RootDir))
		return err
	}

	sess := newSession(c)
	if err := sess.Connect(ctx); err != nil {
		log.Error("store unavailable", zap.Error(err))
		return fmt.Errorf("connect: %w", err)
	}
	defer sess.Close()

	w, err := ingest.NewWalker(opts, sess, validate.New(nil), loader.New())
	if err != nil {
		return err
	}

	summary, err := w.Run(ctx)
	if err != nil {
		return err
	}

	log.Info("run complete",
		zap.String("run_id", summary.RunID),
		zap.Int("entries_committed", summary.EntriesCommitted),
		zap.Int("entries_rolled_back", summary.EntriesRolledBack),
		zap.Int64("rows_inserted", summary.RowsInserted),
	)
	return nil
}
