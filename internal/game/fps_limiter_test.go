package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnlimitedDoesNotBlock(t *testing.T) {
	f := NewFPSLimiter(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		f.Wait(false)
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiterPacesIterations(t *testing.T) {
	f := NewFPSLimiter(100)
	start := time.Now()
	for i := 0; i < 5; i++ {
		f.Wait(false)
	}
	assert.GreaterOrEqual(t, time.Since(start), 45*time.Millisecond)
}

func TestPausedCapsRate(t *testing.T) {
	f := NewFPSLimiter(0)
	start := time.Now()
	f.Wait(true)
	f.Wait(true)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}
