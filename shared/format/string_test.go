package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short", 10))
	assert.Equal(t, "abc...", Preview("abcdef", 3))
	assert.Equal(t, "Amélie", Preview("Amélie", 6))
	assert.Equal(t, "Amé...", Preview("Amélie Poulain", 3))
	assert.Equal(t, "as is", Preview("as is", 0))
}
