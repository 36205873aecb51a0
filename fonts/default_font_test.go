package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelect(t *testing.T) {
	assert.NotNil(t, DefaultFont())
	assert.Same(t, DefaultFont(), Select("", "normal", "normal"))
	assert.Same(t, DefaultFont(), Select("sans", "light", ""))

	bold := Select("", "bold", "normal")
	assert.NotSame(t, DefaultFont(), bold)
	assert.Same(t, bold, Select("", "heavy", ""))

	italic := Select("", "", "oblique")
	assert.NotSame(t, DefaultFont(), italic)
	assert.NotSame(t, bold, italic)

	assert.NotSame(t, italic, Select("", "ultra-bold", "italic"))
	assert.NotSame(t, DefaultFont(), Select("monospace", "", ""))
}
