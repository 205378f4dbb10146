// Package pattern generates and tracks a 32-bit test pattern for data
// path verification.
//
// The pattern interleaves two sub-patterns that alternate with each
// 32-bit word. The first is a single walking bit shifted from the least
// significant bit up through the most significant bit and then to zero,
// with a period of 33 words. It gives rapid detection of stuck, shorted
// or open data lines. The second is a 16-bit counter carried in the low
// half of the word with its bit inverse in the high half, with a period
// of 65536 words. It reliably detects lost and duplicated words.
//
// Since 33 and 65536 are coprime, the combined period is
// 33 * 65536 * 2 = 4325376 words, where the factor of 2 accounts for the
// interleaving. The receiver resynchronizes from any two consecutive
// correct words and classifies discontinuities up to half the period as
// missing words. Longer jumps are presumed to be duplicates.
package pattern

import "math/bits"

// Period is the total pattern period in 32-bit words.
const Period = 4325376

// shiftPeriod is the walking-bit sub-pattern period (zero plus 32 bit
// positions).
const shiftPeriod = 33

// Generator produces the test pattern. The zero value is ready to use
// and starts at the beginning of the pattern.
type Generator struct {
	shift   uint32
	counter uint16
	// counterNext selects the sub-pattern for the next word:
	// false emits the walking bit, true emits the counter word.
	counterNext bool
}

// Reset restarts the generator from the beginning of the pattern.
func (g *Generator) Reset() {
	*g = Generator{}
}

func (g *Generator) peekCounter() uint32 {
	return uint32(^g.counter)<<16 | uint32(g.counter)
}

// Peek returns the next pattern word without advancing.
func (g *Generator) Peek() uint32 {
	if g.counterNext {
		return g.peekCounter()
	}
	return g.shift
}

// Next returns the next pattern word and advances the generator.
func (g *Generator) Next() uint32 {
	value := g.Peek()
	if g.counterNext {
		g.counter++
	} else if g.shift == 0 {
		g.shift = 1
	} else {
		g.shift <<= 1
	}
	g.counterNext = !g.counterNext
	return value
}

// Fill fills buf with the next words in the pattern.
func (g *Generator) Fill(buf []uint32) {
	for i := range buf {
		buf[i] = g.Next()
	}
}

type rxState uint8

const (
	// stateUnsync holds until the first word arrives.
	stateUnsync rxState = iota
	// stateUnsync2 attempts the initial synchronization from the first
	// word pair. Missing and error counts are cleared on success so the
	// transmitter's head start is not counted against the link.
	stateUnsync2
	// stateWord2 attempts resynchronization after an unexpected word.
	stateWord2
	// stateSync compares each word against the local generator.
	stateSync
)

// Receiver tracks a received test pattern and accumulates link quality
// metrics. The zero value is ready to use.
//
// Receiver is not safe for concurrent use. The metrics may be read
// concurrently with Next.
type Receiver struct {
	gen      Generator
	metrics  Metrics
	syncword uint32
	state    rxState
}

// Reset returns the receiver to the unsynchronized state and clears all
// metrics.
func (r *Receiver) Reset() {
	r.gen.Reset()
	r.metrics.reset()
	r.syncword = 0
	r.state = stateUnsync
}

// Metrics returns the receiver metrics.
func (r *Receiver) Metrics() *Metrics {
	return &r.metrics
}

// Synchronized returns true when the receiver is locked to the pattern.
func (r *Receiver) Synchronized() bool {
	return r.state == stateSync
}

// Next processes the next received word.
func (r *Receiver) Next(value uint32) {
	switch r.state {
	case stateUnsync:
		r.syncword = value
		r.state = stateUnsync2
	case stateUnsync2:
		if r.resync(r.syncword, value) {
			r.metrics.MissingCount.Store(0)
			r.metrics.ErrorCount.Store(0)
			r.state = stateSync
		} else {
			r.metrics.ErrorCount.Add(1)
			r.syncword = value
			r.state = stateWord2
		}
	case stateWord2:
		if r.resync(r.syncword, value) {
			r.state = stateSync
		} else {
			r.metrics.ErrorCount.Add(1)
			r.syncword = value
		}
	case stateSync:
		if value != r.gen.Peek() {
			r.metrics.ResyncCount.Add(1)
			r.metrics.ErrorCount.Add(1)
			r.syncword = value
			r.state = stateWord2
		} else {
			r.gen.Next()
		}
	}
	r.metrics.ReceiveCount.Add(1)
}

// Process processes the received words in buf.
func (r *Receiver) Process(buf []uint32) {
	for _, value := range buf {
		r.Next(value)
	}
}

func isCounterValue(value uint32) bool {
	return (^value)>>16 == value&0xffff
}

// resync attempts to relock the generator from two consecutive words,
// where v1 arrived before v2. It classifies the discontinuity against
// the previous generator state as missing or duplicated words.
func (r *Receiver) resync(v1, v2 uint32) bool {
	old := r.gen
	v1Counter := isCounterValue(v1)
	v2Counter := isCounterValue(v2)
	if v1Counter == v2Counter {
		return false
	}

	// The generator holds the next expected values, so lock to the
	// sub-pattern positions of v1.
	if v2Counter {
		r.gen.shift = v1
		r.gen.counter = uint16(v2)
		r.gen.counterNext = false
	} else {
		r.gen.counter = uint16(v1)
		r.gen.shift = v2
		r.gen.counterNext = true
	}

	// Both states must point at the same sub-pattern to compare.
	var incr uint32
	if old.counterNext != r.gen.counterNext {
		old.Next()
		incr = 1
	}

	// Find the closest pattern offset consistent with both sub-patterns.
	delta := uint32(r.gen.counter - old.counter)
	posNow := uint32(bits.Len32(r.gen.shift))
	posOld := uint32(bits.Len32(old.shift))
	for (posOld+delta)%shiftPeriod != posNow {
		delta += 1 << 16
	}
	delta *= 2

	if delta > Period/2 {
		r.metrics.DuplicateCount.Add(uint64(Period - delta - incr))
	} else {
		r.metrics.MissingCount.Add(uint64(incr + delta))
	}

	// Skip past v1 and v2 to the next expected word.
	r.gen.Next()
	r.gen.Next()
	return true
}
