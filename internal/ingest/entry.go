package ingest

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gps-ingest/internal/archive"
	"github.com/sells-group/gps-ingest/internal/db"
	"github.com/sells-group/gps-ingest/internal/model"
	"github.com/sells-group/gps-ingest/internal/validate"
)

// processEntry parses one entry and loads its batch in its own transaction.
// Any error, including a panic, leaves the entry RolledBack.
func (w *Walker) processEntry(ctx context.Context, log *zap.Logger, table string, e archive.Entry) EntryResult {
	res := EntryResult{Name: e.Name, State: StatePending}
	log = log.With(zap.String("entry", e.Name))

	if w.opts.EntryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.EntryTimeout)
		defer cancel()
	}

	err := w.runEntry(ctx, log, table, e, &res)
	if err != nil {
		reached := res.State
		res.State = StateFailed
		res.Err = err
		log.Error("entry failed, rolling back",
			zap.Stringer("reached", reached),
			zap.Error(err),
		)
		res.State = StateRolledBack
		return res
	}

	res.State = StateCommitted
	log.Info("entry committed",
		zap.Int("accepted", res.Accepted),
		zap.Int("skipped", res.Skipped),
		zap.Int("rejected", res.Rejected),
		zap.Int64("inserted", res.Inserted),
	)
	return res
}

func (w *Walker) runEntry(ctx context.Context, log *zap.Logger, table string, e archive.Entry, res *EntryResult) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = eris.Errorf("ingest: panic processing %s: %v", e.Name, p)
		}
	}()

	batch, err := w.parseEntry(ctx, log, e)
	if err != nil {
		return err
	}
	res.State = StateParsed
	res.Accepted = batch.Len()
	res.Skipped = batch.Skipped
	res.Rejected = batch.Rejected

	if batch.Empty() {
		res.State = StateLoaded
		return nil
	}

	return w.sess.WithTx(ctx, func(ctx context.Context, q db.Querier) error {
		n, err := w.loader.Load(ctx, q, table, batch.Records())
		if err != nil {
			return err
		}
		res.Inserted = n
		res.State = StateLoaded
		return nil
	})
}

// parseEntry decodes the entry as a JSON array and validates every element.
// Elements that are not objects are rejected individually; a document that is
// not an array of values fails the whole entry.
func (w *Walker) parseEntry(ctx context.Context, log *zap.Logger, e archive.Entry) (*Batch, error) {
	rc, err := e.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	batch := NewBatch(e.Name)
	index := 0
	err = archive.DecodeArray(ctx, rc, func(item any) error {
		var r validate.Result
		if obj, ok := item.(map[string]any); ok {
			r = w.validator.Validate(model.RawRecord(obj))
		} else {
			r = validate.Result{
				Outcome: validate.OutcomeRejected,
				Reason:  fmt.Sprintf("element is %s, not an object", jsonKind(item)),
			}
		}
		switch r.Outcome {
		case validate.OutcomeRejected:
			log.Warn("record rejected", zap.Int("index", index), zap.String("reason", r.Reason))
		case validate.OutcomeSkipped:
			log.Debug("record skipped", zap.Int("index", index), zap.String("reason", r.Reason))
		}
		batch.Add(r)
		index++
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: parse %s", e.Name)
	}
	return batch, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}
