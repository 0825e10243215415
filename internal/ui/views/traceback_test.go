package views

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jclemens/fieldtm/internal/ui/styles"
)

func TestRenderTracebackNumbersLines(t *testing.T) {
	s := styles.NewStyles()
	msg := "Traceback (most recent call last):\n  in split_by_square\nValueError: empty geometry\n"

	out := RenderTraceback(s, msg)

	assert.Contains(t, out, "1 │")
	assert.Contains(t, out, "2 │")
	assert.Contains(t, out, "3 │")
	assert.NotContains(t, out, "4 │", "trailing newline must not produce an empty numbered line")
	assert.Contains(t, out, "ValueError: empty geometry")
}

func TestRenderTracebackSingleLine(t *testing.T) {
	s := styles.NewStyles()
	out := RenderTraceback(s, "dimension must be greater than zero")

	assert.Contains(t, out, "1 │")
	assert.Contains(t, out, "dimension must be greater than zero")
}
