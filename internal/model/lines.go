package model

// LineSet is an immutable set of line identifiers accepted for ingestion.
type LineSet struct {
	ids map[string]struct{}
}

// NewLineSet builds a LineSet from ids. Duplicates are collapsed.
func NewLineSet(ids ...string) *LineSet {
	s := &LineSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is an exact member of the set.
func (s *LineSet) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of identifiers in the set.
func (s *LineSet) Len() int {
	return len(s.ids)
}

var defaultLines = NewLineSet(
	"483", "864", "639", "3", "309", "774", "629", "371", "397", "100",
	"838", "315", "624", "388", "918", "665", "328", "497", "878", "355",
	"138", "606", "457", "550", "803", "917", "638", "2336", "399", "298",
	"867", "553", "565", "422", "756", "292", "554", "634", "232", "415",
	"2803", "324", "852", "557", "759", "343", "779", "905", "108",
)

// DefaultLines returns the process-wide allow-list of bus lines.
func DefaultLines() *LineSet {
	return defaultLines
}
