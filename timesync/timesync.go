package timesync

import (
	"math"
	"sync"

	"github.com/ulinklabs/ulink/logger"
	"github.com/ulinklabs/ulink/timeq"
)

const (
	// freqMax is the maximum effective counter frequency. Faster counters
	// are right-shifted to stay within 32-bit interval arithmetic.
	freqMax = 2000000

	updateCount     = 16 // must be a power of 2
	updateIndexMask = updateCount - 1
	// updateProcessMax is how far the filter's reference sample trails the
	// newest sample, which sets the scale measurement window.
	updateProcessMax = 12

	// timeProcessStd is the time process noise in seconds per elapsed
	// second (10 ppb).
	timeProcessStd = 10e-9
	// scaleProcessStd is the scale process noise per elapsed second
	// (10 ppb).
	scaleProcessStd = 10e-9

	// scaleInitStd is the initial relative scale uncertainty (100 ppm).
	scaleInitStd = 100e-6

	// divergenceLimit is the innovation magnitude that trips the force
	// resync, in timeq ticks.
	divergenceLimit = float64(timeq.Second)

	// intervalMax is the maximum sample interval accepted by the filter.
	intervalMax = 1024 * timeq.Second
)

// minTimeVar is the measurement variance floor, (1 µs)² in timeq ticks.
var minTimeVar = float64(timeq.Microsecond) * float64(timeq.Microsecond)

type update struct {
	counter  uint64 // mean counter value, right-shifted
	time     int64  // mean remote time, timeq ticks
	dcounter uint64 // round-trip counter duration, right-shifted
}

// Sync converts a free-running local counter into remote time using
// round-trip timing samples.
//
// Update and Time may be called from different goroutines: the conversion
// coefficients are committed and read under a mutex, so readers never
// observe a torn update. Multiple concurrent Update callers must be
// serialized by the caller.
type Sync struct {
	mu        sync.Mutex
	counterFn func() uint64
	logger    logger.Logger
	metrics   Metrics

	updates     [updateCount]update
	updateHead  uint8
	processHead uint8
	processTail uint8

	counterRightShift uint8
	scaleNom          float64

	// conversion coefficients, guarded by mu
	counterOffset uint64
	timeOffset    int64
	scale         float64 // timeq ticks per (shifted) counter unit

	// filter state, owned by the update path
	timeFrac float64 // sub-tick residual of the committed time estimate
	p        [2][2]float64
}

// Option configures a Sync.
type Option func(*Sync)

// WithLogger sets the logger. The default is the package default logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Sync) { s.logger = l }
}

// New creates a time synchronizer for a counter running at the given
// frequency in Hz. counterFn returns the current free-running counter value
// and should be as close to instantaneous as possible.
//
// The first instance created becomes the process-wide default instance used
// by the package-level Time function.
func New(frequency uint32, counterFn func() uint64, opts ...Option) (*Sync, error) {
	if frequency == 0 {
		return nil, ErrInvalidFrequency
	}
	if counterFn == nil {
		return nil, ErrNilCounter
	}
	s := &Sync{
		counterFn: counterFn,
		logger:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for frequency > freqMax {
		s.counterRightShift++
		frequency >>= 1
	}
	s.scaleNom = float64(timeq.Second) / float64(frequency)
	s.scale = s.scaleNom

	defaultSync.CompareAndSwap(nil, s)
	return s, nil
}

// Close releases the process-wide default instance slot if this instance
// holds it.
func (s *Sync) Close() {
	defaultSync.CompareAndSwap(s, nil)
}

// Metrics returns the synchronizer metrics.
func (s *Sync) Metrics() *Metrics {
	return &s.metrics
}

// Time returns the current remote time estimate in timeq ticks.
//
// The counter read happens outside the lock so the lock hold time never
// delays the sample point.
func (s *Sync) Time() int64 {
	s.mu.Lock()
	counterOffset := s.counterOffset
	timeOffset := s.timeOffset
	scale := s.scale
	s.mu.Unlock()

	counter := s.counterFn() >> s.counterRightShift
	dc := int64(counter - counterOffset)
	return timeOffset + int64(math.Round(scale*float64(dc)))
}

// Update ingests one round-trip timing sample: the local counter when the
// request was sent, the remote time at request receipt, the remote time at
// response transmission, and the local counter at response receipt.
//
// Samples are silently ignored when the remote has no time yet (zero remote
// times) or when monotonicity is violated. Accepted samples are folded into
// the FIFO and the filter catches up to the newest sample before returning.
func (s *Sync) Update(srcTx uint64, tgtRx int64, tgtTx int64, srcRx uint64) {
	if tgtRx == 0 || tgtTx == 0 {
		s.metrics.RejectCount.Add(1)
		return
	}
	if srcTx > srcRx {
		s.metrics.RejectCount.Add(1)
		return
	}
	if tgtRx > tgtTx {
		s.metrics.RejectCount.Add(1)
		return
	}

	next := nextIdx(s.updateHead)
	if next == s.processTail {
		s.logger.Error("sample FIFO overflow, dropping oldest")
		s.metrics.OverflowCount.Add(1)
		s.processTail = nextIdx(s.processTail)
	}
	entry := &s.updates[s.updateHead]
	entry.counter = ((srcTx >> 1) + (srcRx >> 1)) >> s.counterRightShift
	entry.time = (tgtTx >> 1) + (tgtRx >> 1)
	entry.dcounter = (srcRx - srcTx) >> s.counterRightShift
	s.updateHead = next
	s.metrics.UpdateCount.Add(1)

	for s.processOne() {
	}
}

func nextIdx(idx uint8) uint8 {
	return (idx + 1) & updateIndexMask
}

// processOne runs one filter step and reports whether more work may remain.
func (s *Sync) processOne() bool {
	if s.processHead == s.updateHead {
		return false
	}
	current := &s.updates[s.processHead]

	if s.processTail == s.processHead {
		s.bootstrap(current)
		s.processHead = nextIdx(s.processHead)
		return true
	}

	prior := &s.updates[s.processTail]
	if prior.time > current.time || prior.counter > current.counter {
		s.logger.Warn("received past sample, force resync")
		s.resync()
		return true
	}
	dc := current.counter - prior.counter
	dt := current.time - prior.time
	if dc == 0 || dc > math.MaxUint32 {
		s.logger.Warn("counter interval out of range, force resync", "dcounter", dc)
		s.resync()
		return true
	}
	if dt > intervalMax {
		s.logger.Warn("sample interval exceeds 1024 seconds, force resync")
		s.resync()
		return true
	}

	// Predict the state at the current sample. All time arithmetic is
	// relative to the committed offsets to preserve float precision.
	dcStep := float64(current.counter - s.counterOffset)
	dtSec := timeq.ToFloat64(dt)
	tPred := s.timeFrac + s.scale*dcStep
	sPred := s.scale

	// Covariance predict with transition F = [[1, dcStep], [0, 1]], plus
	// process noise scaled by elapsed wall time.
	p00 := s.p[0][0] + dcStep*(s.p[0][1]+s.p[1][0]) + dcStep*dcStep*s.p[1][1]
	p01 := s.p[0][1] + dcStep*s.p[1][1]
	p10 := s.p[1][0] + dcStep*s.p[1][1]
	p11 := s.p[1][1]
	qt := timeProcessStd * dtSec * float64(timeq.Second)
	qs := scaleProcessStd * dtSec * sPred
	p00 += qt * qt
	p11 += qs * qs

	// Measurements: the sample time, and the scale over the window back to
	// the reference sample.
	zt := float64(current.time - s.timeOffset)
	zs := float64(dt) / float64(dc)
	yt := zt - tPred
	ys := zs - sPred

	if math.Abs(yt) > divergenceLimit {
		// A wild outlier must not poison the covariance. Skip it and
		// rebootstrap from the next sample.
		s.logger.Warn("time divergence, force resync", "innovation_seconds", yt/float64(timeq.Second))
		s.metrics.ResyncCount.Add(1)
		s.processHead = nextIdx(s.processHead)
		s.processTail = s.processHead
		return true
	}

	// Measurement noise from the estimated one-way delay.
	delay := float64(current.dcounter) * 0.5 * sPred
	rt := delay*delay + minTimeVar
	rs := 2 * rt / (float64(dc) * float64(dc))

	// Kalman gain K = P (P + R)^-1 with the closed-form 2x2 inverse.
	a00 := p00 + rt
	a01 := p01
	a10 := p10
	a11 := p11 + rs
	det := a00*a11 - a01*a10
	i00 := a11 / det
	i01 := -a01 / det
	i10 := -a10 / det
	i11 := a00 / det
	k00 := p00*i00 + p01*i10
	k01 := p00*i01 + p01*i11
	k10 := p10*i00 + p11*i10
	k11 := p10*i01 + p11*i11

	tEst := tPred + k00*yt + k01*ys
	sEst := sPred + k10*yt + k11*ys

	// Covariance update P = (I - K) P.
	s.p[0][0] = (1-k00)*p00 - k01*p10
	s.p[0][1] = (1-k00)*p01 - k01*p11
	s.p[1][0] = -k10*p00 + (1-k11)*p10
	s.p[1][1] = -k10*p01 + (1-k11)*p11

	// Rebase: commit the corrected coefficients at the current sample.
	tInt := int64(math.Round(tEst))
	s.timeFrac = tEst - float64(tInt)
	s.commit(current.counter, s.timeOffset+tInt, sEst)

	s.processHead = nextIdx(s.processHead)
	for (s.processHead-s.processTail)&updateIndexMask > updateProcessMax {
		s.processTail = nextIdx(s.processTail)
	}
	return true
}

// bootstrap initializes the filter directly from the first sample with the
// nominal scale.
func (s *Sync) bootstrap(current *update) {
	delay := float64(current.dcounter) * 0.5 * s.scaleNom
	sigmaS := s.scaleNom * scaleInitStd
	s.p = [2][2]float64{
		{delay*delay + minTimeVar, 0},
		{0, sigmaS * sigmaS},
	}
	s.timeFrac = 0
	s.commit(current.counter, current.time, s.scaleNom)
}

// resync discards the filter history so the next step bootstraps from the
// current sample.
func (s *Sync) resync() {
	s.metrics.ResyncCount.Add(1)
	s.processTail = s.processHead
}

func (s *Sync) commit(counterOffset uint64, timeOffset int64, scale float64) {
	s.mu.Lock()
	s.counterOffset = counterOffset
	s.timeOffset = timeOffset
	s.scale = scale
	s.mu.Unlock()
}
