// Package ofctrl implements the connection state machine, the
// reconciliation engine, the configuration-generation tracker, the
// packet injector, and the top-level driver loop. It consumes the
// flowtable package for desired/installed bookkeeping and the ofp
// package for message construction; everything it needs from the
// outside world is expressed as an interface: the ones below, plus
// conntrack.Zones and logging.Logger.
package ofctrl

import (
	"context"

	"github.com/ovnflow/controller/internal/ofp"
)

// Transport is the reconnecting OpenFlow message channel injected at
// init. The core treats it as an opaque bidirectional message channel
// with a reconnect-sequence counter; dialing, framing, and the wire
// codec all live on the other side of this seam.
type Transport interface {
	// Connect (re)establishes the session with target (e.g. a unix
	// socket path). Calling Connect again with the same target while
	// already connected is a no-op.
	Connect(ctx context.Context, target string) error

	// Send transmits env and returns the xid it went out with. If
	// env.XID is already set (a reply echoing a request's xid, e.g. an
	// echo reply), that value is preserved; otherwise a fresh xid is
	// assigned.
	Send(ctx context.Context, env ofp.Envelope) (xid uint32, err error)

	// Recv returns the next received message, or ok==false if none is
	// currently available. It never blocks.
	Recv() (env ofp.Envelope, ok bool, err error)

	// IsConnected reports whether the session is currently established.
	IsConnected() bool

	// Version returns the negotiated OpenFlow protocol version, or 0 if
	// none has been negotiated yet.
	Version() int

	// ConnectionSeqno returns the number of times this transport has
	// (re)connected since process start. The driver compares this
	// against its last-seen value to detect a reconnect.
	ConnectionSeqno() int

	// TxInFlight returns the number of messages queued for transmission
	// but not yet flushed to the wire.
	TxInFlight() int
}

// MeterCatalog resolves a meter name to its unit and bands. Names
// beginning with the sentinel prefix bypass this lookup entirely (see
// ReservedMeterPrefix).
type MeterCatalog interface {
	Lookup(name string) (unit ofp.MeterUnit, bands []ofp.MeterBand, ok bool)
}

// ReservedMeterPrefix marks a meter name as an inline spec rather than a
// catalog lookup key: the bytes after the prefix (starting at
// ReservedMeterPrefixLen) encode the meter directly.
const ReservedMeterPrefix = "__string: "

// ReservedMeterPrefixLen is the byte offset into a sentinel meter name
// where the inline spec begins.
const ReservedMeterPrefixLen = len(ReservedMeterPrefix)

// BridgeRecord exposes the bridge's port/interface list so the packet
// injector can translate a logical ingress-port register into a
// physical OpenFlow port number.
type BridgeRecord interface {
	// OFPortByIfaceID returns the ofport of the interface carrying the
	// given external iface-id, or ok==false if none matches.
	OFPortByIfaceID(ifaceID string) (ofport uint32, ok bool)
}
