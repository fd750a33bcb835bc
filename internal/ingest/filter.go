package ingest

import (
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Entry filter names accepted in configuration.
const (
	FilterHourly = "hourly"
	FilterAny    = "any"
)

// Operating-hours window for hourly entries, inclusive.
const (
	firstHour = 6
	lastHour  = 23
)

// EntryFilter decides whether an archive entry should be ingested. A false
// result carries the reason for the skip log.
type EntryFilter func(name string) (ok bool, reason string)

var hourlyPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})_(\d{2})\.json$`)

// HourlyEntries accepts base names of the form YYYY-MM-DD_HH.json with a
// valid calendar date and HH within the operating window.
func HourlyEntries(name string) (bool, string) {
	base := path.Base(name)
	m := hourlyPattern.FindStringSubmatch(base)
	if m == nil {
		return false, "name does not match YYYY-MM-DD_HH.json"
	}
	if _, err := time.Parse(time.DateOnly, m[1]); err != nil {
		return false, "invalid date " + m[1]
	}
	hour, _ := strconv.Atoi(m[2])
	if hour < firstHour || hour > lastHour {
		return false, "hour " + m[2] + " outside operating window"
	}
	return true, ""
}

// AnyJSONEntries accepts every entry whose name ends in .json.
func AnyJSONEntries(name string) (bool, string) {
	if !strings.HasSuffix(path.Base(name), ".json") {
		return false, "not a .json entry"
	}
	return true, ""
}

// FilterByName resolves a configured filter name.
func FilterByName(name string) (EntryFilter, error) {
	switch name {
	case FilterHourly, "":
		return HourlyEntries, nil
	case FilterAny:
		return AnyJSONEntries, nil
	default:
		return nil, eris.Errorf("ingest: unknown entry filter %q", name)
	}
}
