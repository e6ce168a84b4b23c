package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameClock_DefaultStep(t *testing.T) {
	assert.Equal(t, DefaultFrame, NewFrameClock(0).Step())
	assert.Equal(t, DefaultFrame, NewFrameClock(-time.Second).Step())
	assert.Equal(t, 10*time.Millisecond, NewFrameClock(10*time.Millisecond).Step())
}

func TestFrameClock_Split(t *testing.T) {
	clock := NewFrameClock(100 * time.Millisecond)

	// Whole frames then the remainder
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		100 * time.Millisecond,
		50 * time.Millisecond,
	}, clock.Split(250*time.Millisecond))
	assert.Equal(t, 250*time.Millisecond, clock.Elapsed())
	assert.Equal(t, int64(3), clock.Frames())

	// Exact multiple has no remainder
	assert.Len(t, clock.Split(200*time.Millisecond), 2)
	assert.Equal(t, 450*time.Millisecond, clock.Elapsed())
}

func TestFrameClock_SplitZero(t *testing.T) {
	clock := NewFrameClock(0)

	assert.Equal(t, []time.Duration{0}, clock.Split(0))
	assert.Equal(t, []time.Duration{0}, clock.Split(-time.Second))
	assert.Equal(t, time.Duration(0), clock.Elapsed())
	assert.Equal(t, int64(2), clock.Frames())
}

func TestFrameClock_Reset(t *testing.T) {
	clock := NewFrameClock(time.Second)
	clock.Split(3 * time.Second)

	clock.Reset()
	assert.Equal(t, time.Duration(0), clock.Elapsed())
	assert.Equal(t, int64(0), clock.Frames())
}

func TestFrameClock_ThreadSafe(t *testing.T) {
	clock := NewFrameClock(time.Millisecond)
	const numGoroutines = 50

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Split(10 * time.Millisecond)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(numGoroutines*10), clock.Frames())
	assert.Equal(t, time.Duration(numGoroutines)*10*time.Millisecond, clock.Elapsed())
}
