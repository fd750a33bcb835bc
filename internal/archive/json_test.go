package archive

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, input string) ([]any, error) {
	t.Helper()
	var items []any
	err := DecodeArray(context.Background(), strings.NewReader(input), func(v any) error {
		items = append(items, v)
		return nil
	})
	return items, err
}

func TestDecodeArray(t *testing.T) {
	items, err := collect(t, `[{"linha":"483","velocidade":12}, {"linha":"999"}]`)
	require.NoError(t, err)
	require.Len(t, items, 2)

	first, ok := items[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "483", first["linha"])
	assert.Equal(t, json.Number("12"), first["velocidade"])
}

func TestDecodeArray_Empty(t *testing.T) {
	items, err := collect(t, "  [ ]  \n")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDecodeArray_Errors(t *testing.T) {
	tests := map[string]string{
		"empty document": "",
		"not an array":   `{"linha":"483"}`,
		"truncated":      `[{"linha":"483"}, {"linha":`,
		"missing comma":  `[{"a":1} {"b":2}]`,
		"trailing data":  `[{"a":1}] extra`,
		"two arrays":     `[][]`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := collect(t, input)
			assert.Error(t, err)
		})
	}
}

func TestDecodeArray_CallbackError(t *testing.T) {
	calls := 0
	err := DecodeArray(context.Background(), strings.NewReader(`[1,2,3]`), func(any) error {
		calls++
		return errors.New("stop")
	})
	assert.EqualError(t, err, "stop")
	assert.Equal(t, 1, calls)
}

func TestDecodeArray_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := DecodeArray(ctx, strings.NewReader(`[1]`), func(any) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}
