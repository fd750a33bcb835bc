// Package validate classifies and normalizes raw vehicle-position records.
//
// Rules run in a fixed order and the first failure wins:
//
//  1. linha must be in the allow-list (otherwise the record is skipped).
//  2. latitude and longitude must be decimal strings; a comma fractional
//     separator is accepted and normalized to a period.
//  3. ordem, the three timestamps and velocidade must coerce to their types.
//
// Validation never returns an error: every outcome is reported in Result.
package validate

import (
	"fmt"

	"github.com/sells-group/gps-ingest/internal/model"
)

// Outcome classifies a validated record.
type Outcome int

const (
	// OutcomeAccepted means the record normalized and should be persisted.
	OutcomeAccepted Outcome = iota
	// OutcomeSkipped means the record is out of scope (line not allow-listed).
	OutcomeSkipped
	// OutcomeRejected means the record is in scope but malformed.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRejected:
		return "rejected"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the outcome of validating one record. Record is only meaningful
// when Outcome is OutcomeAccepted; Reason is set otherwise.
type Result struct {
	Outcome Outcome
	Record  model.Position
	Reason  string
}

// Accepted reports whether the record normalized.
func (r Result) Accepted() bool {
	return r.Outcome == OutcomeAccepted
}

// Validator applies the ingestion rules against a fixed allow-list.
type Validator struct {
	lines *model.LineSet
}

// New returns a Validator sharing lines. A nil set uses model.DefaultLines.
func New(lines *model.LineSet) *Validator {
	if lines == nil {
		lines = model.DefaultLines()
	}
	return &Validator{lines: lines}
}

// Validate classifies raw and, when it passes, returns its normalized form.
func (v *Validator) Validate(raw model.RawRecord) Result {
	linha, ok := raw[model.FieldLinha].(string)
	if !ok {
		return skipped("linha missing or not a string")
	}
	if !v.lines.Contains(linha) {
		return skipped(fmt.Sprintf("linha %q not in allow-list", linha))
	}

	lat, err := coordinate(raw, model.FieldLatitude)
	if err != nil {
		return rejected(err)
	}
	lon, err := coordinate(raw, model.FieldLongitude)
	if err != nil {
		return rejected(err)
	}

	ordem, err := text(raw, model.FieldOrdem)
	if err != nil {
		return rejected(err)
	}

	var stamps [3]int64
	for i, field := range []string{model.FieldDataHora, model.FieldDataHoraEnvio, model.FieldDataHoraServidor} {
		if stamps[i], err = integer(raw, field); err != nil {
			return rejected(err)
		}
	}

	speed, err := int32Field(raw, model.FieldVelocidade)
	if err != nil {
		return rejected(err)
	}

	return Result{
		Outcome: OutcomeAccepted,
		Record: model.Position{
			Ordem:            ordem,
			Linha:            linha,
			DataHora:         stamps[0],
			DataHoraEnvio:    stamps[1],
			DataHoraServidor: stamps[2],
			Velocidade:       speed,
			Longitude:        lon,
			Latitude:         lat,
			Geom:             model.NewPoint(lon, lat),
		},
	}
}

func skipped(reason string) Result {
	return Result{Outcome: OutcomeSkipped, Reason: reason}
}

func rejected(err error) Result {
	return Result{Outcome: OutcomeRejected, Reason: err.Error()}
}
