package console

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Banner("Prompt chaining")
	p.Section("Result")
	p.Field("Topic", "Go")
	p.Line("%d items", 3)

	out := buf.String()
	assert.Contains(t, out, "Prompt chaining")
	assert.Contains(t, out, "╭")
	assert.Contains(t, out, "Result\n------\n")
	assert.Contains(t, out, "Topic: Go\n")
	assert.Contains(t, out, "3 items\n")
	assert.NotContains(t, out, "\x1b[")
	assert.Same(t, &buf, p.Writer())
}

func TestPrinter_Debug(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Debug("after extraction", map[string]string{"cpu": "3.5 GHz"})

	out := buf.String()
	assert.Contains(t, out, "--- DEBUG: after extraction ---")
	assert.Contains(t, out, "Type: map[string]string\n")
	assert.Contains(t, out, "Content: map[cpu:3.5 GHz]\n")
}

func TestPrinter_Nil(t *testing.T) {
	var p *Printer
	assert.NotPanics(t, func() {
		p.Banner("x")
		p.Section("x")
		p.Field("x", 1)
		p.Line("x")
		p.Debug("x", nil)
	})
}
