package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewLineReporter(&buf, "Indexing knowledge base")
	r.Start(2)
	r.Update(1, "ling-ja-keigo")
	r.Update(2, "lit-pantun")
	r.Finish()

	assert.Equal(t,
		"Indexing knowledge base: 2 item(s)\n[1/2] ling-ja-keigo\n[2/2] lit-pantun\nIndexing knowledge base: done\n",
		buf.String())
}

func TestNewReporterInCI(t *testing.T) {
	t.Setenv("CI", "true")
	_, ok := NewReporter("x").(*LineReporter)
	assert.True(t, ok)
}

func TestTerminalReporter(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	r, ok := NewReporter("Indexing").(*TerminalReporter)
	if !assert.True(t, ok) {
		return
	}
	var buf bytes.Buffer
	r.out = &buf
	r.Start(3)
	r.Update(2, "lit-pantun")
	r.Finish()
	assert.NotEmpty(t, buf.String())

	// Update and Finish before Start are no-ops.
	(&TerminalReporter{}).Update(1, "x")
	(&TerminalReporter{}).Finish()
}
