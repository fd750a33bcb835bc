package ingest

import (
	"github.com/sells-group/gps-ingest/internal/model"
	"github.com/sells-group/gps-ingest/internal/validate"
)

// Batch collects the normalized records of one source entry in encounter
// order, along with per-outcome counts.
type Batch struct {
	Entry    string
	records  []model.Position
	Skipped  int
	Rejected int
}

// NewBatch returns an empty batch for entry.
func NewBatch(entry string) *Batch {
	return &Batch{Entry: entry}
}

// Add records the outcome of one validated item.
func (b *Batch) Add(res validate.Result) {
	switch res.Outcome {
	case validate.OutcomeAccepted:
		b.records = append(b.records, res.Record)
	case validate.OutcomeSkipped:
		b.Skipped++
	default:
		b.Rejected++
	}
}

// Len returns the number of accepted records.
func (b *Batch) Len() int { return len(b.records) }

// Empty reports whether no record was accepted.
func (b *Batch) Empty() bool { return len(b.records) == 0 }

// Records returns the accepted records in encounter order.
func (b *Batch) Records() []model.Position { return b.records }
