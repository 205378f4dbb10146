package framer

import (
	"encoding/binary"

	"github.com/ulinklabs/ulink/crc"
)

const (
	// SOF1 is the first start-of-frame byte. It doubles as the EOF byte,
	// so back-to-back frames share a single byte on the wire.
	SOF1 byte = 0x55
	// SOF2 is the second start-of-frame byte.
	SOF2 byte = 0x00

	// HeaderSize is the data frame header size in bytes.
	HeaderSize = 8
	// FooterSize is the frame check size in bytes.
	FooterSize = 4
	// OverheadSize is the data frame overhead excluding payload and EOF.
	OverheadSize = HeaderSize + FooterSize
	// PayloadMaxSize is the maximum payload size in bytes.
	PayloadMaxSize = 256
	// MaxFrameSize is the maximum data frame size in bytes, excluding EOF.
	MaxFrameSize = OverheadSize + PayloadMaxSize
	// LinkSize is the fixed link frame size in bytes, excluding EOF.
	LinkSize = 8
	// FrameIDMax is the maximum frame id (11 bits).
	FrameIDMax = (1 << 11) - 1
)

// FrameType is the 5-bit frame type codepoint.
//
// The values are chosen so that the data frame type requires at least 4 bit
// flips to become any link frame type, and link frame types are separated by
// at least 2 bit flips. This spacing is part of the error detection design
// and must not be changed.
type FrameType uint8

const (
	FrameTypeData             FrameType = 0x00
	FrameTypeAckAll           FrameType = 0x0F
	FrameTypeAckOne           FrameType = 0x17
	FrameTypeNackFrameID      FrameType = 0x1B
	FrameTypeNackFramingError FrameType = 0x1D
	FrameTypeReset            FrameType = 0x1E
)

// IsLink returns true if the frame type is a valid link frame type.
func (t FrameType) IsLink() bool {
	switch t {
	case FrameTypeAckAll, FrameTypeAckOne, FrameTypeNackFrameID, FrameTypeNackFramingError, FrameTypeReset:
		return true
	default:
		return false
	}
}

// String returns the string representation of the frame type.
func (t FrameType) String() string {
	switch t {
	case FrameTypeData:
		return "data"
	case FrameTypeAckAll:
		return "ack_all"
	case FrameTypeAckOne:
		return "ack_one"
	case FrameTypeNackFrameID:
		return "nack_frame_id"
	case FrameTypeNackFramingError:
		return "nack_framing_error"
	case FrameTypeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// lengthCRCTable is the CRC-8 0xD7 lookup table for the length field.
// The polynomial gives Hamming distance 5 over the 8-bit length.
var lengthCRCTable [256]uint8

func init() {
	for i := 0; i < 256; i++ {
		c := uint8(i)
		for k := 0; k < 8; k++ {
			if c&0x80 != 0 {
				c = (c << 1) ^ 0xD7
			} else {
				c <<= 1
			}
		}
		lengthCRCTable[i] = c
	}
}

// FrameCRC computes the 32-bit frame check, chainable in the manner of the
// crc package. It may be replaced during program initialization to
// interoperate with links using a different 32-bit check, including
// hardware-accelerated implementations. Both frame construction and frame
// validation use it, so all framers in a process share one check.
var FrameCRC = crc.CRC32

// LengthCRC returns the CRC-8 for the length header field.
//
// The framer populates and checks this field automatically; this function is
// exported primarily for testing and interoperability checks.
func LengthCRC(length uint8) uint8 {
	return lengthCRCTable[length]
}

// ValidateData returns true if the frame id and payload size are valid for
// a data frame.
func ValidateData(frameID uint16, payload []byte) bool {
	if len(payload) < 1 || len(payload) > PayloadMaxSize {
		return false
	}
	return frameID <= FrameIDMax
}

// ValidateLink returns true if the frame type and frame id are valid for a
// link frame.
func ValidateLink(frameType FrameType, frameID uint16) bool {
	return frameType.IsLink() && frameID <= FrameIDMax
}

// ConstructData encodes a data frame into a new buffer.
//
// The returned frame does not include the trailing EOF byte. The EOF byte is
// shared with the next frame's SOF1, so senders append one SOF1 byte after
// the final frame of a burst (see AppendEOF).
func ConstructData(frameID uint16, metadata uint16, payload []byte) ([]byte, error) {
	if !ValidateData(frameID, payload) {
		return nil, ErrParameterInvalid
	}
	b := make([]byte, len(payload)+OverheadSize)
	b[0] = SOF1
	b[1] = SOF2
	b[2] = byte(FrameTypeData)<<3 | byte(frameID>>8)&0x07
	b[3] = byte(frameID)
	b[4] = byte(len(payload) - 1)
	b[5] = LengthCRC(b[4])
	binary.LittleEndian.PutUint16(b[6:8], metadata)
	copy(b[HeaderSize:], payload)
	c := FrameCRC(0, b[2:HeaderSize+len(payload)])
	binary.LittleEndian.PutUint32(b[HeaderSize+len(payload):], c)
	return b, nil
}

// ConstructLink encodes a link frame into a new buffer.
//
// The returned frame does not include the trailing EOF byte.
func ConstructLink(frameType FrameType, frameID uint16) ([]byte, error) {
	if !ValidateLink(frameType, frameID) {
		return nil, ErrParameterInvalid
	}
	b := make([]byte, LinkSize)
	b[0] = SOF1
	b[1] = SOF2
	b[2] = byte(frameType)<<3 | byte(frameID>>8)&0x07
	b[3] = byte(frameID)
	c := FrameCRC(0, b[2:4])
	binary.LittleEndian.PutUint32(b[4:8], c)
	return b, nil
}

// AppendEOF appends the EOF byte to an encoded frame. The EOF byte doubles
// as the next frame's SOF1, so it is only required after the final frame of
// a transmission burst.
func AppendEOF(frame []byte) []byte {
	return append(frame, SOF1)
}

// FrameIDSubtract returns a - b modulo the 11-bit frame id space, as a
// signed distance in [-1024, 1023].
func FrameIDSubtract(a, b uint16) int {
	d := int(a-b) & FrameIDMax
	if d > FrameIDMax/2 {
		d -= FrameIDMax + 1
	}
	return d
}

func parseFrameType(buf []byte) FrameType {
	return FrameType(buf[2] >> 3)
}

func parseFrameID(buf []byte) uint16 {
	return uint16(buf[2]&0x07)<<8 | uint16(buf[3])
}

func parseDataPayloadLength(buf []byte) int {
	return int(buf[4]) + 1
}

func parseDataMetadata(buf []byte) uint16 {
	return binary.LittleEndian.Uint16(buf[6:8])
}
