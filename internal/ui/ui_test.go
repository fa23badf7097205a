package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainRenderer_PrintsLabelAndProgress(t *testing.T) {
	// Given a plain renderer writing to a buffer
	var buf bytes.Buffer
	r := NewPlainRenderer(Config{Output: &buf, Label: "solving 12 amounts"})

	// When progress is reported
	require.NoError(t, r.Start(context.Background()))
	r.SetPercent(25)
	r.SetPercent(50)
	r.SetPercent(100)
	r.Finish()

	// Then the label and each whole percent appear once
	out := buf.String()
	assert.Contains(t, out, "solving 12 amounts\n")
	assert.Contains(t, out, "progress: 25%\n")
	assert.Contains(t, out, "progress: 50%\n")
	assert.Contains(t, out, "progress: 100%\n")
}

func TestPlainRenderer_CollapsesSubPercentUpdates(t *testing.T) {
	// Given a plain renderer
	var buf bytes.Buffer
	r := NewPlainRenderer(Config{Output: &buf})
	require.NoError(t, r.Start(context.Background()))

	// When updates change by less than a whole percent
	r.SetPercent(10.1)
	r.SetPercent(10.4)
	r.SetPercent(10.9)

	// Then only one line is printed
	assert.Equal(t, 1, strings.Count(buf.String(), "progress:"))
	assert.Contains(t, buf.String(), "progress: 10%\n")
}

func TestPlainRenderer_IgnoresRegressions(t *testing.T) {
	// Given a renderer that has seen 50%
	var buf bytes.Buffer
	r := NewPlainRenderer(Config{Output: &buf})
	require.NoError(t, r.Start(context.Background()))
	r.SetPercent(50)

	// When a stale lower value arrives
	r.SetPercent(40)

	// Then nothing new is printed
	assert.Equal(t, 1, strings.Count(buf.String(), "progress:"))
}

func TestPlainRenderer_NoOutputAfterFinish(t *testing.T) {
	// Given a finished renderer
	var buf bytes.Buffer
	r := NewPlainRenderer(Config{Output: &buf})
	require.NoError(t, r.Start(context.Background()))
	r.Finish()

	// When more progress arrives
	r.SetPercent(99)

	// Then it is dropped
	assert.NotContains(t, buf.String(), "progress:")
}

func TestIsTTY_FalseForBuffer(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
}

func TestNewRenderer_FallsBackToPlain(t *testing.T) {
	// Given a non-TTY output
	var buf bytes.Buffer

	// When a renderer is chosen
	r := NewRenderer(Config{Output: &buf}, false)

	// Then the plain renderer is used
	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
}

func TestNewRenderer_ForcePlain(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(Config{Output: &buf}, true)
	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
}

func TestNewTUIRenderer_RejectsNonTTY(t *testing.T) {
	_, err := NewTUIRenderer(Config{Output: &bytes.Buffer{}})
	assert.Error(t, err)
}
