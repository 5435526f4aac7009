package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickReportsOnlyAfterInterval(t *testing.T) {
	p := NewProfiler(WithUpdateInterval(time.Hour))

	assert.False(t, p.Tick())
	assert.False(t, p.Tick())
}

func TestTickReportsOnceIntervalElapses(t *testing.T) {
	p := NewProfiler(WithUpdateInterval(time.Nanosecond))
	time.Sleep(time.Millisecond)

	assert.True(t, p.Tick())
	assert.False(t, p.Tick(), "the sample window restarts after a report")
}

func TestWithUpdateIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithUpdateInterval(0))
	assert.Equal(t, time.Second, p.updateInterval)

	p = NewProfiler(WithUpdateInterval(-time.Second))
	assert.Equal(t, time.Second, p.updateInterval)
}
