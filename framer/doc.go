// Package framer implements reliable message framing over unreliable byte
// streams such as UART.
//
// The wire format uses two frame variants that share a common prefix:
//
// Data frame (variable length, payload 1..256 bytes):
//
//	SOF1 | SOF2 | frame_type[4:0] frame_id[10:8] | frame_id[7:0] |
//	length-1 | length_crc | metadata[7:0] | metadata[15:8] |
//	payload... | frame_crc (4 bytes, little-endian) | EOF
//
// Link frame (fixed 8 bytes plus EOF):
//
//	SOF1 | SOF2 | frame_type[4:0] frame_id[10:8] | frame_id[7:0] |
//	link_check (4 bytes, little-endian) | EOF
//
// The EOF byte equals SOF1 and is not consumed: it primes the parse of the
// next frame, so back-to-back frames share a single byte. Repeated SOF1
// bytes between frames are ignored and may be used for autobaud detection.
//
// Error detection layers five independent checks: the two SOF bytes, the
// frame type codebook, the CRC-8 over the length field (Hamming distance 5),
// the 32-bit frame check, and the EOF byte. The checks compound
// multiplicatively, driving the false frame detection rate on random data
// below 1e-19 per frame.
package framer
