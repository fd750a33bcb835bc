package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/gps-ingest/internal/archive"
	"github.com/sells-group/gps-ingest/internal/db"
	"github.com/sells-group/gps-ingest/internal/model"
	"github.com/sells-group/gps-ingest/internal/resilience"
	"github.com/sells-group/gps-ingest/internal/store"
	"github.com/sells-group/gps-ingest/internal/validate"
)

// ErrRootMissing is returned when the configured root directory does not
// exist or is not a directory.
var ErrRootMissing = eris.New("ingest: root directory missing")

// Table modes.
const (
	TableShared     = "shared"
	TablePerArchive = "per_archive"
)

// Session is the unit-of-work surface the walker needs.
type Session interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, q db.Querier) error) error
	Pool() db.Pool
}

// Validator classifies raw records.
type Validator interface {
	Validate(raw model.RawRecord) validate.Result
}

// Loader persists one batch.
type Loader interface {
	Load(ctx context.Context, q db.Querier, table string, records []model.Position) (int64, error)
}

// Options configures a Walker.
type Options struct {
	RootDir      string
	Table        string // shared-mode table
	TableMode    string // TableShared or TablePerArchive
	Filter       EntryFilter
	EnsureSchema bool // shared mode: create table and indexes if absent
	Workers      int  // archives processed concurrently
	EntryTimeout time.Duration
	// DDLRetry governs schema steps; zero uses resilience.DefaultRetryConfig.
	DDLRetry resilience.RetryConfig
}

// Walker runs the ingestion pipeline over a root directory.
type Walker struct {
	opts      Options
	sess      Session
	validator Validator
	loader    Loader
	runID     string
	log       *zap.Logger
}

// NewWalker validates opts and returns a Walker.
func NewWalker(opts Options, sess Session, v Validator, l Loader) (*Walker, error) {
	switch opts.TableMode {
	case "":
		opts.TableMode = TableShared
	case TableShared, TablePerArchive:
	default:
		return nil, eris.Errorf("ingest: unknown table mode %q", opts.TableMode)
	}
	if opts.TableMode == TableShared && opts.Table == "" {
		return nil, eris.New("ingest: shared table mode requires a table name")
	}
	if opts.Filter == nil {
		opts.Filter = HourlyEntries
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.DDLRetry.MaxAttempts == 0 {
		opts.DDLRetry = resilience.DefaultRetryConfig()
	}

	runID := uuid.NewString()
	return &Walker{
		opts:      opts,
		sess:      sess,
		validator: v,
		loader:    l,
		runID:     runID,
		log: zap.L().With(
			zap.String("component", "ingest.walker"),
			zap.String("run_id", runID),
		),
	}, nil
}

// CheckRoot returns ErrRootMissing unless dir is an existing directory.
func CheckRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return eris.Wrapf(ErrRootMissing, "%s", dir)
	}
	return nil
}

// Run walks every archive once. Entry-level failures are logged, rolled back
// and counted; the returned error is non-nil only when the root directory is
// missing or ctx is cancelled.
func (w *Walker) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: w.runID}

	if err := CheckRoot(w.opts.RootDir); err != nil {
		return summary, err
	}

	listing, err := archive.List(w.opts.RootDir)
	if err != nil {
		return summary, eris.Wrap(err, "ingest: list archives")
	}
	for _, name := range listing.Skipped {
		w.log.Info("skipping non-archive file", zap.String("file", name))
	}
	summary.Archives = len(listing.Archives)
	summary.ArchivesSkipped = len(listing.Skipped)

	w.log.Info("starting ingestion",
		zap.String("root_dir", w.opts.RootDir),
		zap.Int("archives", len(listing.Archives)),
		zap.String("table_mode", w.opts.TableMode),
		zap.Int("workers", w.opts.Workers),
	)

	shared := w.opts.TableMode == TableShared
	if shared && w.opts.EnsureSchema {
		// Entries fail individually if the table is still missing.
		if err := w.ensure(ctx, "ensure_table", w.opts.Table, store.EnsureTable); err != nil {
			w.log.Error("could not prepare shared table", zap.String("table", w.opts.Table), zap.Error(err))
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Workers)
	for _, path := range listing.Archives {
		g.Go(func() error {
			res := w.processArchive(gctx, path)
			mu.Lock()
			defer mu.Unlock()
			summary.addArchive(res)
			return nil
		})
	}
	_ = g.Wait()

	if shared && w.opts.EnsureSchema && ctx.Err() == nil {
		if err := w.ensure(ctx, "ensure_indexes", w.opts.Table, store.EnsureIndexes); err != nil {
			w.log.Error("could not prepare shared indexes", zap.String("table", w.opts.Table), zap.Error(err))
		}
	}

	w.log.Info("ingestion finished",
		zap.Int("archives", summary.Archives),
		zap.Int("archives_failed", summary.ArchivesFailed),
		zap.Int("entries_committed", summary.EntriesCommitted),
		zap.Int("entries_rolled_back", summary.EntriesRolledBack),
		zap.Int("entries_skipped", summary.EntriesSkipped),
		zap.Int("records_accepted", summary.RecordsAccepted),
		zap.Int("records_rejected", summary.RecordsRejected),
		zap.Int64("rows_inserted", summary.RowsInserted),
	)

	if err := ctx.Err(); err != nil {
		return summary, eris.Wrap(err, "ingest: run interrupted")
	}
	return summary, nil
}

// ensure runs one schema step, retrying dropped connections and lock
// conflicts with backoff.
func (w *Walker) ensure(ctx context.Context, op, table string, step func(context.Context, db.Beginner, string) error) error {
	cfg := w.opts.DDLRetry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("ingest.walker", op, cfg.MaxAttempts, cfg.InitialBackoff)
	}
	return resilience.Do(ctx, cfg, func(ctx context.Context) error {
		return step(ctx, w.sess.Pool(), table)
	})
}

// archiveResult is what one archive contributes to the Summary.
type archiveResult struct {
	failed         bool
	entries        []EntryResult
	entriesSkipped int
}

// processArchive ingests every qualifying entry of one archive. The result is
// marked failed when the archive could not be opened or its table prepared.
func (w *Walker) processArchive(ctx context.Context, path string) archiveResult {
	var res archiveResult
	name := filepath.Base(path)
	log := w.log.With(zap.String("archive", name))

	a, err := archive.Open(path)
	if err != nil {
		log.Error("cannot open archive", zap.Error(err))
		res.failed = true
		return res
	}
	defer a.Close() //nolint:errcheck

	table := w.opts.Table
	perArchive := w.opts.TableMode == TablePerArchive
	if perArchive {
		if table, err = store.TableName(path); err != nil {
			log.Error("cannot derive table name", zap.Error(err))
			res.failed = true
			return res
		}
		if err := w.ensure(ctx, "ensure_table", table, store.EnsureTable); err != nil {
			log.Error("cannot prepare archive table", zap.String("table", table), zap.Error(err))
			res.failed = true
			return res
		}
	}
	log = log.With(zap.String("table", table))

	for _, e := range a.Entries() {
		if ctx.Err() != nil {
			break
		}
		if ok, reason := w.opts.Filter(e.Name); !ok {
			log.Info("skipping entry", zap.String("entry", e.Name), zap.String("reason", reason))
			res.entriesSkipped++
			continue
		}
		r := w.processEntry(ctx, log, table, e)
		r.Archive = name
		res.entries = append(res.entries, r)
	}

	if perArchive && ctx.Err() == nil {
		if err := w.ensure(ctx, "ensure_indexes", table, store.EnsureIndexes); err != nil {
			log.Error("cannot prepare archive indexes", zap.Error(err))
		}
	}
	return res
}
