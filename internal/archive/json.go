package archive

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// DecodeArray decodes a JSON array from r one element at a time, calling fn
// for each. Numbers decode as json.Number. The document must hold exactly
// one array; trailing content is an error.
func DecodeArray[T any](ctx context.Context, r io.Reader, fn func(T) error) error {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	tok, err := decoder.Token()
	if err != nil {
		if err == io.EOF {
			return eris.New("json: empty document")
		}
		return eris.Wrap(err, "json: read opening token")
	}

	delim, ok := tok.(json.Delim)
	if !ok || delim != '[' {
		return eris.Errorf("json: expected '[', got %v", tok)
	}

	for decoder.More() {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "json: context cancelled")
		}

		var item T
		if err := decoder.Decode(&item); err != nil {
			return eris.Wrap(err, "json: decode element")
		}
		if err := fn(item); err != nil {
			return err
		}
	}

	// Consume closing bracket.
	if _, err := decoder.Token(); err != nil {
		return eris.Wrap(err, "json: read closing token")
	}

	if _, err := decoder.Token(); err != io.EOF {
		return eris.New("json: unexpected data after array")
	}
	return nil
}
