package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"-23,55052", -23.55052},
		{"-23.55052", -23.55052},
		{"-43,20", -43.20},
		{"0", 0},
		{" -22,9 ", -22.9},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCoordinate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCoordinate_Invalid(t *testing.T) {
	for _, input := range []string{"", "abc", "-23;55", "1,2,3", "1.2.3", "Inf", "nan", "0x1p-2", "0X1P-2", "0x10", "-0x1,8p1", "1p3"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseCoordinate(input)
			assert.Error(t, err)
		})
	}
}
