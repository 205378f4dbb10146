package transport

// Event represents a connection state event signalled by the data link layer
// to the ports.
type Event uint8

const (
	// EventUnknown indicates an unknown event (should never happen).
	EventUnknown Event = iota
	// EventResetRequest indicates that the remote issued a reset command.
	EventResetRequest
	// EventDisconnected indicates that the remote device is no longer
	// responding to transmissions.
	EventDisconnected
	// EventConnected indicates that the remote device established a
	// transmit connection.
	EventConnected
	// EventTransportConnected indicates that the transport layer connection
	// is established. It is injected with EventInject.
	EventTransportConnected
	// EventAppConnected indicates that the application is connected. It is
	// injected with EventInject. Ports other than port 0 and the pubsub
	// port should wait for this event before communicating.
	EventAppConnected
)

// String returns the string representation of the event.
func (e Event) String() string {
	switch e {
	case EventUnknown:
		return "unknown"
	case EventResetRequest:
		return "reset_request"
	case EventDisconnected:
		return "disconnected"
	case EventConnected:
		return "connected"
	case EventTransportConnected:
		return "transport_connected"
	case EventAppConnected:
		return "app_connected"
	default:
		return "invalid"
	}
}

// Seq is the 2-bit segmentation sequence tag carried in the message
// metadata. The transport passes it through unchanged; reassembly policy
// belongs to the port implementation.
type Seq uint8

const (
	// SeqMiddle marks a middle segment of a multi-frame message.
	SeqMiddle Seq = 0
	// SeqStop marks the final segment of a multi-frame message.
	SeqStop Seq = 1
	// SeqStart marks the first segment of a multi-frame message.
	SeqStart Seq = 2
	// SeqSingle marks a complete single-frame message.
	SeqSingle Seq = 3
)

// String returns the string representation of the sequence tag.
func (s Seq) String() string {
	switch s {
	case SeqMiddle:
		return "middle"
	case SeqStop:
		return "stop"
	case SeqStart:
		return "start"
	case SeqSingle:
		return "single"
	default:
		return "invalid"
	}
}
