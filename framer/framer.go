package framer

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/ulinklabs/ulink/logger"
)

type parseState uint8

const (
	stateSOF1 parseState = iota
	stateSOF2
	stateFrameType
	stateDataHeader
	stateStore
)

// Callbacks contains the upper-layer callbacks invoked by the framer.
// All callbacks are invoked synchronously from Recv. Nil callbacks are
// skipped.
type Callbacks struct {
	// Data is called once for each validated data frame. The payload slice
	// aliases the framer's internal buffer and is only valid for the
	// duration of the callback.
	Data func(frameID uint16, metadata uint16, payload []byte)

	// Link is called once for each validated link frame.
	Link func(frameType FrameType, frameID uint16)

	// FramingError is called once per desynchronization episode. It does not
	// repeat while the framer remains out of sync.
	FramingError func()
}

// Metrics contains atomic counters for a framer instance.
// Metrics can be used as the value of a prometheus CounterFunc.
type Metrics struct {
	// TotalBytes indicates the total number of bytes fed to Recv.
	TotalBytes atomic.Uint64
	// IgnoredBytes indicates the number of bytes discarded while searching
	// for frame synchronization.
	IgnoredBytes atomic.Uint64
	// ResyncCount indicates the number of desynchronization episodes.
	ResyncCount atomic.Uint64
}

// Counters returns a snapshot of the metrics for telemetry export.
func (m *Metrics) Counters() map[string]uint64 {
	return map[string]uint64{
		"total_bytes":   m.TotalBytes.Load(),
		"ignored_bytes": m.IgnoredBytes.Load(),
		"resync_count":  m.ResyncCount.Load(),
	}
}

// Framer converts an unreliable byte stream into validated data and link
// frames.
//
// The framer drives a byte-at-a-time state machine over a fixed internal
// buffer. It performs no heap allocation on the receive path. The framer has
// no internal locking; the caller must serialize calls to Recv and Reset.
type Framer struct {
	cb      Callbacks
	logger  logger.Logger
	metrics Metrics

	state  parseState
	isSync bool
	length int
	offset int
	// buf holds one maximum-size frame plus the trailing EOF byte.
	buf [MaxFrameSize + 1]byte
}

// Option configures a Framer.
type Option func(*Framer)

// WithLogger sets the logger for the framer. The default is the package
// default logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Framer) { f.logger = l }
}

// New creates a new framer with the given callbacks.
func New(cb Callbacks, opts ...Option) *Framer {
	f := &Framer{
		cb:     cb,
		logger: logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Recv feeds a chunk of newly received bytes to the framer.
//
// The chunk may be any length, including a partial frame or many frames.
// The framer invokes at most one callback per recognized frame and recovers
// from corrupted data by re-scanning the buffered bytes.
func (f *Framer) Recv(data []byte) {
	f.metrics.TotalBytes.Add(uint64(len(data)))
	f.recv(data)
}

// Reset re-zeroes the parse state and metrics. Registered callbacks are
// retained. A reset mid-frame does not signal a framing error.
func (f *Framer) Reset() {
	f.state = stateSOF1
	f.isSync = false
	f.length = 0
	f.offset = 0
	f.metrics.TotalBytes.Store(0)
	f.metrics.IgnoredBytes.Store(0)
	f.metrics.ResyncCount.Store(0)
}

// Metrics returns the framer metrics.
func (f *Framer) Metrics() *Metrics {
	return &f.metrics
}

func (f *Framer) recv(data []byte) {
	for len(data) > 0 {
		b := data[0]
		data = data[1:]
		f.buf[f.offset] = b
		f.offset++

		switch f.state {
		case stateSOF1:
			f.length = 0
			if b == SOF1 {
				f.state = stateSOF2
			} else {
				if f.isSync {
					f.logger.Warn("expected SOF1", "byte", b)
				}
				f.errorDiscard()
			}

		case stateSOF2:
			f.length = 0
			switch b {
			case SOF2:
				f.state = stateFrameType
			case SOF1:
				// repeated SOF1 bytes between frames are allowed
				f.offset = 1
				f.metrics.IgnoredBytes.Add(1)
			default:
				if f.isSync {
					f.logger.Warn("expected SOF2", "byte", b)
				}
				f.errorDiscard()
			}

		case stateFrameType:
			switch ft := parseFrameType(f.buf[:]); {
			case ft == FrameTypeData:
				f.state = stateDataHeader
			case ft.IsLink():
				f.state = stateStore
				f.length = LinkSize + 1
			default:
				if f.isSync {
					f.logger.Warn("invalid frame type", "byte", f.buf[2])
				}
				f.errorDiscard()
			}

		case stateDataHeader:
			if f.offset < 6 {
				break
			}
			if LengthCRC(f.buf[4]) != f.buf[5] {
				if f.isSync {
					f.logger.Warn("length crc mismatch", "length", f.buf[4])
				}
				f.errorDiscard()
				break
			}
			f.length = parseDataPayloadLength(f.buf[:]) + OverheadSize + 1
			f.state = stateStore

		case stateStore:
			if len(data) > 0 && f.offset < f.length {
				n := min(f.length-f.offset, len(data))
				copy(f.buf[f.offset:], data[:n])
				f.offset += n
				data = data[n:]
			}
			if f.offset >= f.length {
				f.completeFrame()
			}
		}
	}
}

// completeFrame validates the fully buffered frame and dispatches it. The
// buffered length includes the EOF byte, which doubles as the next frame's
// SOF1 and primes the buffer for the next parse.
func (f *Framer) completeFrame() {
	frameSize := f.length - 1
	if f.buf[frameSize] != SOF1 || !f.validateCheck(frameSize) {
		f.reprocess()
		return
	}
	f.isSync = true
	frameID := parseFrameID(f.buf[:])
	if ft := parseFrameType(f.buf[:]); ft == FrameTypeData {
		if f.cb.Data != nil {
			payloadLen := parseDataPayloadLength(f.buf[:])
			f.cb.Data(frameID, parseDataMetadata(f.buf[:]), f.buf[HeaderSize:HeaderSize+payloadLen])
		}
	} else {
		if f.cb.Link != nil {
			f.cb.Link(ft, frameID)
		}
	}
	f.buf[0] = SOF1
	f.offset = 1
	f.length = 0
	f.state = stateSOF2
}

func (f *Framer) validateCheck(frameSize int) bool {
	var span int
	if parseFrameType(f.buf[:]) == FrameTypeData {
		span = HeaderSize + parseDataPayloadLength(f.buf[:])
	} else {
		span = LinkSize - FooterSize
	}
	got := binary.LittleEndian.Uint32(f.buf[frameSize-FooterSize : frameSize])
	return FrameCRC(0, f.buf[2:span]) == got
}

// framingError marks the start of a desynchronization episode. The callback
// and resync counter fire only on the first error after a synced state.
func (f *Framer) framingError() {
	f.state = stateSOF1
	if f.isSync {
		f.metrics.ResyncCount.Add(1)
		f.isSync = false
		if f.cb.FramingError != nil {
			f.cb.FramingError()
		}
	}
}

func (f *Framer) errorDiscard() {
	f.framingError()
	f.metrics.IgnoredBytes.Add(uint64(f.offset))
	f.offset = 0
	f.length = 0
}

// reprocess handles a false frame match: the byte after the original SOF1
// becomes a fresh SOF1 candidate and the buffered bytes are re-scanned.
// Writes into the buffer always trail the re-scan read position, so the
// in-place replay is safe.
func (f *Framer) reprocess() {
	f.framingError()
	n := f.offset
	f.metrics.IgnoredBytes.Add(1)
	f.offset = 0
	f.length = 0
	f.state = stateSOF1
	f.recv(f.buf[1:n])
}
