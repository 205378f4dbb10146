// Package transport multiplexes message ports over a single framed link.
//
// Each message carries a 16-bit metadata field that packs a 5-bit port id, a
// 2-bit segmentation sequence tag, and an 8-bit port data byte:
//
//	metadata = (seq << 6) | port_id | (port_data << 8)
//
// The transport dispatches received messages to the handler registered for
// the port, falling back to a default handler for unregistered ports.
// Connection state events from the data link layer fan out to every
// registered port, and the last connection state is replayed synchronously
// to newly registered ports so they never start stale.
//
// Segmentation and reassembly policy lives with the port implementations;
// the transport only guarantees faithful pass-through of the sequence tag.
package transport
