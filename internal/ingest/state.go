package ingest

// EntryState tracks one entry through the pipeline.
//
//	Pending -> Parsed -> Loaded -> Committed
//	Pending|Parsed|Loaded -> Failed -> RolledBack
type EntryState int

const (
	// StatePending means the entry passed the name filter and is not yet decoded.
	StatePending EntryState = iota
	// StateParsed means every element was decoded and validated into a batch.
	StateParsed
	// StateLoaded means the batch was written inside the open transaction.
	StateLoaded
	// StateCommitted means the entry's transaction committed.
	StateCommitted
	// StateFailed means an error or panic stopped the entry.
	StateFailed
	// StateRolledBack means the failed entry's writes were discarded.
	StateRolledBack
)

func (s EntryState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateParsed:
		return "parsed"
	case StateLoaded:
		return "loaded"
	case StateCommitted:
		return "committed"
	case StateFailed:
		return "failed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s EntryState) Terminal() bool {
	return s == StateCommitted || s == StateRolledBack
}

// EntryResult is the outcome of one qualifying entry.
type EntryResult struct {
	Archive  string
	Name     string
	State    EntryState
	Accepted int
	Skipped  int
	Rejected int
	Inserted int64
	Err      error
}

// Summary aggregates a run.
type Summary struct {
	RunID             string
	Archives          int
	ArchivesSkipped   int // non-archive files in the root directory
	ArchivesFailed    int // archives that could not be opened or prepared
	EntriesCommitted  int
	EntriesRolledBack int
	EntriesSkipped    int // entries rejected by the name filter
	RecordsAccepted   int
	RecordsSkipped    int
	RecordsRejected   int
	RowsInserted      int64
	Entries           []EntryResult
}

func (s *Summary) addEntry(r EntryResult) {
	s.Entries = append(s.Entries, r)
	s.RecordsAccepted += r.Accepted
	s.RecordsSkipped += r.Skipped
	s.RecordsRejected += r.Rejected
	s.RowsInserted += r.Inserted
	if r.State == StateCommitted {
		s.EntriesCommitted++
	} else {
		s.EntriesRolledBack++
	}
}

func (s *Summary) addArchive(r archiveResult) {
	if r.failed {
		s.ArchivesFailed++
	}
	s.EntriesSkipped += r.entriesSkipped
	for _, e := range r.entries {
		s.addEntry(e)
	}
}
