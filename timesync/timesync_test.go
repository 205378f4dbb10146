package timesync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ulinklabs/ulink/timeq"
)

const counterFreq = 1000

// testClock provides a settable counter for a Sync under test.
type testClock struct {
	counter uint64
}

func (c *testClock) read() uint64 {
	return c.counter
}

func newTestSync(t *testing.T) (*Sync, *testClock) {
	t.Helper()
	clk := &testClock{}
	s, err := New(counterFreq, clk.read)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, clk
}

func assertTimeWithin1us(t *testing.T, value, expected int64) {
	t.Helper()
	assert.InDelta(t, expected, value, float64(timeq.Microsecond))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(0, func() uint64 { return 0 })
	assert.ErrorIs(t, err, ErrInvalidFrequency)

	_, err = New(counterFreq, nil)
	assert.ErrorIs(t, err, ErrNilCounter)
}

func TestSync_Initialize(t *testing.T) {
	s, clk := newTestSync(t)
	assert.EqualValues(t, 0, s.Time())

	// before any update, time is the counter scaled by the nominal period
	clk.counter = 60000
	assertTimeWithin1us(t, s.Time(), timeq.Minute)
	assertTimeWithin1us(t, Time(), timeq.Minute)
}

func TestSync_SingleExactUpdate(t *testing.T) {
	s, clk := newTestSync(t)
	clk.counter = 60000
	s.Update(60000, timeq.Hour, timeq.Hour, 60000)
	assertTimeWithin1us(t, s.Time(), timeq.Hour)

	// one counter second later
	clk.counter += counterFreq
	assertTimeWithin1us(t, s.Time(), timeq.Hour+timeq.Second)
}

func TestSync_SingleInexactUpdate(t *testing.T) {
	s, clk := newTestSync(t)
	clk.counter = 60000
	s.Update(59990, timeq.Hour-timeq.Millisecond, timeq.Hour+timeq.Millisecond, 60010)
	assert.Equal(t, timeq.Hour, s.Time())
}

func TestSync_MultipleZeroNoise(t *testing.T) {
	s, clk := newTestSync(t)
	clk.counter = 60000
	tm := timeq.Hour
	for i := 0; i < 32; i++ {
		s.Update(clk.counter-10,
			tm-timeq.Millisecond,
			tm+timeq.Millisecond,
			clk.counter+10)
		assert.Equal(t, tm, s.Time(), "update %d", i)
		clk.counter += 10 * counterFreq
		tm += 10 * timeq.Second
	}
	assert.Equal(t, uint64(32), s.Metrics().UpdateCount.Load())
	assert.Zero(t, s.Metrics().ResyncCount.Load())
}

func TestSync_ScaleTracking(t *testing.T) {
	s, clk := newTestSync(t)

	// remote clock runs 100 ppm fast relative to the nominal counter period
	clk.counter = 60000
	tm := timeq.Hour
	step := 10*timeq.Second + 10*timeq.Second/10000 // 100 ppm
	for i := 0; i < 16; i++ {
		s.Update(clk.counter, tm, tm, clk.counter)
		if i >= 1 {
			// exact samples drive the gain toward one, so the estimate
			// lands on the measurement from the second sample on
			assertTimeWithin1us(t, s.Time(), tm)
		}
		clk.counter += 10 * counterFreq
		tm += step
	}
}

func TestSync_RejectsInvalidSamples(t *testing.T) {
	s, clk := newTestSync(t)
	clk.counter = 60000
	s.Update(60000, timeq.Hour, timeq.Hour, 60000)

	// remote has no time yet
	s.Update(60000, 0, timeq.Hour, 60000)
	s.Update(60000, timeq.Hour, 0, 60000)
	// non-monotonic local counter
	s.Update(60010, timeq.Hour, timeq.Hour, 60000)
	// non-increasing remote time
	s.Update(60000, timeq.Hour+timeq.Second, timeq.Hour, 60000)

	assert.Equal(t, uint64(4), s.Metrics().RejectCount.Load())
	assert.Equal(t, timeq.Hour, s.Time(), "rejected samples must not move time")
}

func TestSync_DivergenceGuard(t *testing.T) {
	s, clk := newTestSync(t)
	clk.counter = 60000
	s.Update(60000, timeq.Hour, timeq.Hour, 60000)

	// outlier: remote time jumped 10 seconds beyond the prediction
	clk.counter = 70000
	s.Update(70000, timeq.Hour+20*timeq.Second, timeq.Hour+20*timeq.Second, 70000)
	assert.Equal(t, uint64(1), s.Metrics().ResyncCount.Load())
	assertTimeWithin1us(t, s.Time(), timeq.Hour+10*timeq.Second,
	)

	// the next sample rebootstraps the filter
	clk.counter = 80000
	s.Update(80000, timeq.Hour+30*timeq.Second, timeq.Hour+30*timeq.Second, 80000)
	assert.Equal(t, timeq.Hour+30*timeq.Second, s.Time())
}

func TestSync_CounterRightShift(t *testing.T) {
	clk := &testClock{}
	s, err := New(100000000, clk.read) // 100 MHz
	require.NoError(t, err)
	defer s.Close()

	clk.counter = 100000000 // one second
	assertTimeWithin1us(t, s.Time(), timeq.Second)

	clk.counter = 60 * 100000000
	s.Update(clk.counter, timeq.Hour, timeq.Hour, clk.counter)
	assertTimeWithin1us(t, s.Time(), timeq.Hour)

	clk.counter += 100000000
	assertTimeWithin1us(t, s.Time(), timeq.Hour+timeq.Second)
}

func TestDefault_Lifecycle(t *testing.T) {
	clk := &testClock{}
	s1, err := New(counterFreq, clk.read)
	require.NoError(t, err)
	assert.Same(t, s1, Default())

	// a second instance does not displace the default
	s2, err := New(counterFreq, clk.read)
	require.NoError(t, err)
	assert.Same(t, s1, Default())

	// closing a non-default instance leaves the default in place
	s2.Close()
	assert.Same(t, s1, Default())

	s1.Close()
	assert.Nil(t, Default())
	assert.EqualValues(t, 0, Time(), "no default instance")
}
