package validate

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/gps-ingest/internal/model"
)

// ParseCoordinate parses a decimal string that may use a comma as its
// fractional separator ("-23,55052" -> -23.55052).
func ParseCoordinate(s string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	// ParseFloat also reads hex floats ("0x1p-2"); only decimal forms are coordinates.
	if strings.ContainsAny(normalized, "xXpP") {
		return 0, eris.Errorf("invalid coordinate %q", s)
	}
	f, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, eris.Errorf("invalid coordinate %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, eris.Errorf("non-finite coordinate %q", s)
	}
	return f, nil
}

func coordinate(raw model.RawRecord, field string) (float64, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return 0, eris.Errorf("%s: missing", field)
	}
	s, ok := v.(string)
	if !ok {
		return 0, eris.Errorf("%s: expected string, got %T", field, v)
	}
	f, err := ParseCoordinate(s)
	if err != nil {
		return 0, eris.Wrap(err, field)
	}
	return f, nil
}

func text(raw model.RawRecord, field string) (string, error) {
	switch v := raw[field].(type) {
	case string:
		if v == "" {
			return "", eris.Errorf("%s: empty", field)
		}
		return v, nil
	case json.Number:
		return v.String(), nil
	case nil:
		return "", eris.Errorf("%s: missing", field)
	default:
		return "", eris.Errorf("%s: unsupported type %T", field, v)
	}
}

// integer coerces numbers and integral strings. Fractional numbers are
// truncated toward zero; fractional strings are rejected.
func integer(raw model.RawRecord, field string) (int64, error) {
	switch v := raw[field].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, eris.Errorf("%s: invalid number %q", field, v.String())
		}
		return truncate(field, f)
	case float64:
		return truncate(field, v)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, eris.Errorf("%s: invalid integer %q", field, v)
		}
		return n, nil
	case nil:
		return 0, eris.Errorf("%s: missing", field)
	default:
		return 0, eris.Errorf("%s: unsupported type %T", field, v)
	}
}

func int32Field(raw model.RawRecord, field string) (int32, error) {
	n, err := integer(raw, field)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, eris.Errorf("%s: %d out of range", field, n)
	}
	return int32(n), nil
}

func truncate(field string, f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, eris.Errorf("%s: %v out of range", field, f)
	}
	return int64(f), nil
}
