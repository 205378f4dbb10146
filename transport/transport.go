package transport

import (
	"encoding/json"

	"github.com/ulinklabs/ulink/logger"
)

const (
	// PortIDMax is the maximum port id (5 bits).
	PortIDMax = 0x1F
	// NumPorts is the number of port slots.
	NumPorts = PortIDMax + 1
)

// EventFunc is called on connection state events.
type EventFunc func(event Event)

// RecvFunc is called on received messages for a port. The msg slice is only
// valid for the duration of the callback.
type RecvFunc func(portID uint8, seq Seq, portData uint8, msg []byte)

// SendFunc forwards an encoded message to the lower layer, normally the
// data link send queue.
type SendFunc func(metadata uint16, msg []byte) error

type port struct {
	meta    string
	eventFn EventFunc
	recvFn  RecvFunc
}

// Transport dispatches messages between a single framed link and up to 32
// message ports.
//
// The transport has no internal locking; the caller must serialize calls.
// Typical usage feeds OnRecv and OnEvent from a single event loop.
type Transport struct {
	send      SendFunc
	ports     [NumPorts]port
	def       port
	lastEvent Event
	logger    logger.Logger
	metrics   Metrics
}

// Option configures a Transport.
type Option func(*Transport)

// WithLogger sets the logger for the transport. The default is the package
// default logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Transport) { t.logger = l }
}

// New creates a new transport that forwards outgoing messages with send.
func New(send SendFunc, opts ...Option) *Transport {
	t := &Transport{
		send:      send,
		lastEvent: EventDisconnected,
		logger:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RegisterPort installs the handlers for a port and replays the last known
// connection state event to eventFn, so a late registrant is never stale.
//
// meta describes the port as a JSON object with at minimum a "type" key,
// e.g. {"type": "pubsub"}. An empty meta is allowed. Registering a port
// replaces any existing handlers for that port. Nil handlers are allowed.
func (t *Transport) RegisterPort(portID uint8, meta string, eventFn EventFunc, recvFn RecvFunc) error {
	if portID > PortIDMax {
		return ErrInvalidPortID
	}
	if meta != "" {
		if err := validateMeta(meta); err != nil {
			return err
		}
	}
	t.ports[portID] = port{
		meta:    meta,
		eventFn: eventFn,
		recvFn:  recvFn,
	}
	if eventFn != nil {
		eventFn(t.lastEvent)
	}
	return nil
}

// DeregisterPort removes the handlers for a port.
func (t *Transport) DeregisterPort(portID uint8) error {
	if portID > PortIDMax {
		return ErrInvalidPortID
	}
	t.ports[portID] = port{}
	return nil
}

// RegisterDefault installs the catch-all handlers invoked for ports without
// registered handlers. The last known connection state event is replayed to
// eventFn.
func (t *Transport) RegisterDefault(eventFn EventFunc, recvFn RecvFunc) error {
	t.def = port{
		eventFn: eventFn,
		recvFn:  recvFn,
	}
	if eventFn != nil {
		eventFn(t.lastEvent)
	}
	return nil
}

// Send packs the metadata and forwards the message to the lower layer.
func (t *Transport) Send(portID uint8, seq Seq, portData uint8, msg []byte) error {
	if portID > PortIDMax {
		return ErrInvalidPortID
	}
	if t.send == nil {
		return ErrNoSender
	}
	metadata := uint16(seq&0x3)<<6 | uint16(portID&PortIDMax) | uint16(portData)<<8
	if err := t.send(metadata, msg); err != nil {
		return err
	}
	t.metrics.SendCount.Add(1)
	return nil
}

// OnEvent handles a connection state event from the data link layer. It
// caches connection lifecycle events for replay to future registrants, then
// fans the event out to every registered port and the default handler.
func (t *Transport) OnEvent(event Event) {
	switch event {
	case EventConnected, EventDisconnected, EventTransportConnected, EventAppConnected:
		t.lastEvent = event
	default:
	}
	t.metrics.EventCount.Add(1)
	for i := range t.ports {
		if t.ports[i].eventFn != nil {
			t.ports[i].eventFn(event)
		}
	}
	if t.def.eventFn != nil {
		t.def.eventFn(event)
	}
}

// EventInject injects a connection state event into the distribution path.
// Only EventTransportConnected and EventAppConnected may be injected; other
// events are ignored. Port 0 normally injects the transport connected event
// and the pubsub port injects the app connected event.
func (t *Transport) EventInject(event Event) {
	switch event {
	case EventTransportConnected, EventAppConnected:
		t.OnEvent(event)
	default:
	}
}

// OnRecv handles a received message from the data link layer. The metadata
// is unpacked and the message dispatched to the port's recv handler, falling
// back to the default handler, else dropped silently.
func (t *Transport) OnRecv(metadata uint16, msg []byte) {
	portID := uint8(metadata & PortIDMax)
	seq := Seq(metadata>>6) & 0x3
	portData := uint8(metadata >> 8)
	switch {
	case t.ports[portID].recvFn != nil:
		t.ports[portID].recvFn(portID, seq, portData, msg)
		t.metrics.RecvCount.Add(1)
	case t.def.recvFn != nil:
		t.def.recvFn(portID, seq, portData, msg)
		t.metrics.RecvCount.Add(1)
	default:
		t.logger.Debug("message dropped, no handler", "port_id", portID)
		t.metrics.DropCount.Add(1)
	}
}

// PortMeta returns the metadata string registered for a port. It returns an
// empty string for unregistered ports.
func (t *Transport) PortMeta(portID uint8) (string, error) {
	if portID > PortIDMax {
		return "", ErrInvalidPortID
	}
	return t.ports[portID].meta, nil
}

// Metrics returns the transport metrics.
func (t *Transport) Metrics() *Metrics {
	return &t.metrics
}

func validateMeta(meta string) error {
	var m struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(meta), &m); err != nil {
		return ErrInvalidMeta
	}
	if m.Type == "" {
		return ErrInvalidMeta
	}
	return nil
}
