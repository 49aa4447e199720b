package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartMarker(t *testing.T) {
	t.Parallel()

	var m StartMarker
	_, ok := m.Time()
	assert.False(t, ok)
	assert.Zero(t, m.Uptime(testStart))

	m.Mark(testStart)
	got, ok := m.Time()
	assert.True(t, ok)
	assert.Equal(t, testStart, got)
	assert.Equal(t, time.Minute, m.Uptime(testStart.Add(time.Minute)))
	assert.Zero(t, m.Uptime(testStart.Add(-time.Minute)))
}

func TestStartMarker_MarkTwicePanics(t *testing.T) {
	t.Parallel()

	m := NewStartMarker(testStart)
	assert.PanicsWithValue(t, ErrStartAlreadyMarked, func() {
		m.Mark(testStart.Add(time.Second))
	})

	got, _ := m.Time()
	assert.Equal(t, testStart, got)
}

func TestStartMarker_NilReadsUnmarked(t *testing.T) {
	t.Parallel()

	var m *StartMarker
	_, ok := m.Time()
	assert.False(t, ok)
	assert.Zero(t, m.Uptime(testStart))
}
