// Package crc implements the cyclic redundancy checks used by the link
// stack wire protocol.
//
// All functions are chainable: pass 0 for the first block and the previous
// return value for continued block computations. Passing empty data returns
// the crc argument unchanged.
package crc

import "hash/crc32"

// ccitt8Poly is the reflected CRC-8/CCITT polynomial.
const ccitt8Poly = 0xe0

// ccitt16Poly is the CRC-16/CCITT polynomial.
const ccitt16Poly = 0x1021

var (
	ccitt8Table  [256]uint8
	ccitt16Table [256]uint16
)

func init() {
	for i := 0; i < 256; i++ {
		c := uint8(i)
		for k := 0; k < 8; k++ {
			if c&1 != 0 {
				c = (c >> 1) ^ ccitt8Poly
			} else {
				c >>= 1
			}
		}
		ccitt8Table[i] = c
	}

	for i := 0; i < 256; i++ {
		c := uint16(i) << 8
		for k := 0; k < 8; k++ {
			if c&0x8000 != 0 {
				c = (c << 1) ^ ccitt16Poly
			} else {
				c <<= 1
			}
		}
		ccitt16Table[i] = c
	}
}

// CCITT8 computes the CRC-8/CCITT over data.
//
// The output is complemented so that calls may be chained: pass the previous
// return value as crc for continued block computations, starting from 0.
func CCITT8(crc uint8, data []byte) uint8 {
	if len(data) == 0 {
		return crc
	}

	c := ^crc
	for _, b := range data {
		c = ccitt8Table[c^b]
	}

	return ^c
}

// CCITT16 computes the CRC-16/CCITT in one's-complement form.
//
// Although this uses the CCITT 0x1021 polynomial, the output is XOR'ed with
// 0xffff so that calls may be chained, starting from 0.
func CCITT16(crc uint16, data []byte) uint16 {
	if len(data) == 0 {
		return crc
	}

	c := ^crc
	for _, b := range data {
		c = (c << 8) ^ ccitt16Table[(c>>8)^uint16(b)]
	}

	return ^c
}

// CRC32 computes the CRC-32 (IEEE 802.3) over data.
//
// Chainable like the other functions: CRC32(0, data) equals
// crc32.ChecksumIEEE(data).
func CRC32(crc uint32, data []byte) uint32 {
	if len(data) == 0 {
		return crc
	}

	return crc32.Update(crc, crc32.IEEETable, data)
}
