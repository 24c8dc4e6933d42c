package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := New("backend", WithFailureThreshold(3))

	for i := 0; i < 2; i++ {
		failFast, change := b.RecordFailure()
		assert.False(t, failFast)
		assert.False(t, change.Opened)
	}

	failFast, change := b.RecordFailure()
	assert.True(t, failFast)
	assert.True(t, change.Opened)
	assert.True(t, b.IsOpen())

	// Already open: no further transition reported.
	failFast, change = b.RecordFailure()
	assert.True(t, failFast)
	assert.False(t, change.Opened)
}

func TestBreakerSuccessResetsFailureStreak(t *testing.T) {
	b := New("backend", WithFailureThreshold(2))

	b.RecordFailure()
	b.RecordSuccess()
	failFast, change := b.RecordFailure()
	assert.False(t, failFast, "streak restarted after a success")
	assert.False(t, change.Opened)
}

func TestBreakerClosesAfterSuccessThreshold(t *testing.T) {
	b := New("backend", WithFailureThreshold(1), WithSuccessThreshold(2))

	b.RecordFailure()
	assert.True(t, b.IsOpen())

	usePrimary, change := b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.False(t, change.Closed)

	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.False(t, b.IsOpen())
}

func TestBreakerReset(t *testing.T) {
	b := New("backend", WithFailureThreshold(1))
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
}
