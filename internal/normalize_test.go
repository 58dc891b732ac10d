package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeShortcode(t *testing.T) {
	assert.Equal(t, "ABC123", NormalizeShortcode("  abc123 "))
	assert.Equal(t, "", NormalizeShortcode("   "))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Year 1 Science", NormalizeName("  Year   1\tScience "))
	// fullwidth letters fold to ASCII
	assert.Equal(t, "ABC", NormalizeName("ＡＢＣ"))
}
