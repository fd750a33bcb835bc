package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLines(t *testing.T) {
	lines := DefaultLines()
	assert.Equal(t, 49, lines.Len())
	assert.True(t, lines.Contains("483"))
	assert.True(t, lines.Contains("2336"))
	assert.True(t, lines.Contains("3"))
	assert.False(t, lines.Contains("999"))
	assert.False(t, lines.Contains(""))
}

func TestDefaultLines_Shared(t *testing.T) {
	assert.Same(t, DefaultLines(), DefaultLines())
}

func TestLineSet_ExactMatch(t *testing.T) {
	lines := NewLineSet("483", "100")
	assert.False(t, lines.Contains(" 483"))
	assert.False(t, lines.Contains("0483"))
	assert.False(t, lines.Contains("48"))
	assert.True(t, lines.Contains("100"))
}

func TestNewLineSet_Duplicates(t *testing.T) {
	lines := NewLineSet("1", "1", "2")
	assert.Equal(t, 2, lines.Len())
}
