package crc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	msgZeros = []byte{0x00, 0x00, 0x00, 0x00}
	msg00    = []byte{0x00}
	msg01    = []byte{0x01}
	msgFF    = []byte{0xff}
	msgABC   = []byte("abc")
	msgAscii = []byte("01234567012345670123456701234567")
	msgCheck = []byte("123456789")
)

func TestCCITT8_WellKnown(t *testing.T) {
	assert.Equal(t, uint8(0x74), CCITT8(0, msgZeros))
	assert.Equal(t, uint8(0x30), CCITT8(0, msg00))
	assert.Equal(t, uint8(0xa1), CCITT8(0, msg01))
	assert.Equal(t, uint8(0xff), CCITT8(0, msgFF))
	assert.Equal(t, uint8(0xdb), CCITT8(0, msgABC))
	assert.Equal(t, uint8(0xe4), CCITT8(0, msgAscii))
	assert.Equal(t, uint8(0x2f), CCITT8(0, msgCheck))
}

func TestCCITT8_Incremental(t *testing.T) {
	crc := CCITT8(0, msgCheck[:5])
	crc = CCITT8(crc, msgCheck[5:])
	assert.Equal(t, uint8(0x2f), crc)
}

func TestCCITT8_EmptyData(t *testing.T) {
	assert.Equal(t, uint8(0), CCITT8(0, nil))
	assert.Equal(t, uint8(0), CCITT8(0, []byte{}))
	assert.Equal(t, uint8(0x42), CCITT8(0x42, nil))
}

func TestCCITT16_WellKnown(t *testing.T) {
	assert.Equal(t, uint16(0x7b3f), CCITT16(0, msgZeros))
	assert.Equal(t, uint16(0x1e0f), CCITT16(0, msg00))
	assert.Equal(t, uint16(0x0e2e), CCITT16(0, msg01))
	assert.Equal(t, uint16(0x00ff), CCITT16(0, msgFF))
	assert.Equal(t, uint16(0xaeb5), CCITT16(0, msgABC))
	assert.Equal(t, uint16(0x39f9), CCITT16(0, msgAscii))
	assert.Equal(t, ^uint16(0x29b1), CCITT16(0, msgCheck))
}

func TestCCITT16_Incremental(t *testing.T) {
	crc := CCITT16(0, msgCheck[:5])
	crc = CCITT16(crc, msgCheck[5:])
	assert.Equal(t, ^uint16(0x29b1), crc)
}

func TestCCITT16_EmptyData(t *testing.T) {
	assert.Equal(t, uint16(0), CCITT16(0, nil))
	assert.Equal(t, uint16(0x1234), CCITT16(0x1234, nil))
}

func TestCRC32_WellKnown(t *testing.T) {
	assert.Equal(t, uint32(0x2144df1c), CRC32(0, msgZeros))
	assert.Equal(t, uint32(0xd202ef8d), CRC32(0, msg00))
	assert.Equal(t, uint32(0xa505df1b), CRC32(0, msg01))
	assert.Equal(t, uint32(0xff000000), CRC32(0, msgFF))
	assert.Equal(t, uint32(0x352441c2), CRC32(0, msgABC))
	assert.Equal(t, uint32(0x08053b40), CRC32(0, msgAscii))
	assert.Equal(t, uint32(0xcbf43926), CRC32(0, msgCheck))
}

func TestCRC32_Incremental(t *testing.T) {
	crc := CRC32(0, msgCheck[:5])
	crc = CRC32(crc, msgCheck[5:])
	assert.Equal(t, uint32(0xcbf43926), crc)
}

func TestCRC32_EmptyData(t *testing.T) {
	assert.Equal(t, uint32(0), CRC32(0, nil))
	assert.Equal(t, uint32(0xdeadbeef), CRC32(0xdeadbeef, nil))
}
