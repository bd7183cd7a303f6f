// Package transport implements ofctrl.Transport over a Unix domain
// socket, the management-connection style the teacher's OFPConn wraps
// around a generic net.Conn (see the bufio.ReadWriter framing in
// netrack-openflow's net.go). Wire encoding/decoding of OpenFlow message
// bodies is treated as a black-box codec by the core's external
// interfaces; this package supplies only the minimal Codec needed to
// exercise the connection state machine and the reconciliation engine's
// control messages, via the pluggable Codec field.
package transport

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/cenkalti/backoff/v4"

	"github.com/ovnflow/controller/internal/ofp"
)

// Codec turns a wire header into a concrete message body. The default,
// DefaultCodec, covers only the handful of types the reconciliation core
// dispatches on; a real deployment would inject the actual OXM/multipart
// codec the spec treats as external.
type Codec interface {
	Decode(h ofp.Header, body []byte) (ofp.Message, error)
}

// DefaultCodec produces zero-value bodies keyed by header type, enough
// to drive the connection state machine's dispatch table in the absence
// of a real OpenFlow parser.
type DefaultCodec struct{}

func (DefaultCodec) Decode(h ofp.Header, body []byte) (ofp.Message, error) {
	switch h.Type {
	case ofp.TypeHello:
		return ofp.Hello{}, nil
	case ofp.TypeEchoRequest:
		return ofp.EchoRequest{Data: body}, nil
	case ofp.TypeEchoReply:
		return ofp.EchoReply{Data: body}, nil
	case ofp.TypeBarrierReply:
		return ofp.BarrierReply{}, nil
	case ofp.TypeError:
		return ofp.Error{XID: h.XID}, nil
	case ofp.TypeExperimenter:
		return ofp.TLVTableReply{}, nil
	default:
		return nil, fmt.Errorf("transport: no decoder for message type %v", h.Type)
	}
}

// Conn is a reconnecting Unix-socket Transport. Version is set to
// ofp.Version as soon as Connect dials the socket, before any Hello is
// exchanged; ConnectionSeqno increments every time Connect establishes a
// fresh session.
type Conn struct {
	Codec Codec

	mu     sync.Mutex
	target string
	rwc    net.Conn
	rw     *bufio.ReadWriter
	seqno  int
	ver    int

	xid     uint32
	pending int32

	recvCh chan ofp.Envelope
}

// New returns an unconnected Conn using DefaultCodec.
func New() *Conn {
	return &Conn{Codec: DefaultCodec{}, recvCh: make(chan ofp.Envelope, 256)}
}

// Connect dials target if not already connected to it, retrying with
// exponential backoff until ctx is cancelled or the backoff's default
// maximum elapsed time (15 minutes) runs out (grounded in the
// cenkalti/backoff retry pattern the storage layer's reconnect logic
// uses elsewhere in the example corpus).
func (c *Conn) Connect(ctx context.Context, target string) error {
	c.mu.Lock()
	if c.rwc != nil && c.target == target {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)

	var conn net.Conn
	err := backoff.Retry(func() error {
		var dialErr error
		conn, dialErr = net.Dial("unix", target)
		return dialErr
	}, bo)
	if err != nil {
		return fmt.Errorf("transport: connect %s: %w", target, err)
	}

	c.mu.Lock()
	if c.rwc != nil {
		c.rwc.Close()
	}
	c.rwc = conn
	c.rw = bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))
	c.target = target
	c.seqno++
	c.ver = int(ofp.Version)
	c.mu.Unlock()

	go c.readLoop(conn)

	_, err = c.Send(ctx, ofp.NewEnvelope(ofp.Hello{}))
	return err
}

func (c *Conn) readLoop(conn net.Conn) {
	r := bufio.NewReader(conn)
	for {
		var h ofp.Header
		if _, err := h.ReadFrom(r); err != nil {
			return
		}
		body := make([]byte, 0)
		if h.Length > 8 {
			body = make([]byte, h.Length-8)
			if _, err := r.Read(body); err != nil {
				return
			}
		}

		msg, err := c.Codec.Decode(h, body)
		if err != nil {
			continue
		}

		select {
		case c.recvCh <- ofp.Envelope{XID: h.XID, Body: msg}:
		default:
		}
	}
}

// Send assigns a transaction id, writes the header, and flushes
// immediately: the minimal stand-in codec has no multi-message batching
// of its own, so TxInFlight is only ever non-zero for the instant the
// write is in progress.
func (c *Conn) Send(ctx context.Context, env ofp.Envelope) (uint32, error) {
	xid := env.XID
	if xid == 0 {
		xid = atomic.AddUint32(&c.xid, 1)
	}

	c.mu.Lock()
	rw := c.rw
	c.mu.Unlock()
	if rw == nil {
		return 0, fmt.Errorf("transport: not connected")
	}

	atomic.AddInt32(&c.pending, 1)
	defer atomic.AddInt32(&c.pending, -1)

	h := ofp.Header{Version: ofp.Version, Type: env.Body.MessageType(), Length: 8, XID: xid}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := h.WriteTo(c.rw); err != nil {
		return 0, err
	}
	if err := c.rw.Flush(); err != nil {
		return 0, err
	}
	return xid, nil
}

// Recv returns the next decoded envelope, or ok==false if none is
// currently buffered.
func (c *Conn) Recv() (ofp.Envelope, bool, error) {
	select {
	case env := <-c.recvCh:
		return env, true, nil
	default:
		return ofp.Envelope{}, false, nil
	}
}

// IsConnected reports whether Connect has succeeded and Close has not
// since been called.
func (c *Conn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rwc != nil
}

// Version returns the negotiated protocol version, or 0 before the
// first successful Connect.
func (c *Conn) Version() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ver
}

// ConnectionSeqno returns how many times Connect has (re)established a
// session.
func (c *Conn) ConnectionSeqno() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seqno
}

// TxInFlight returns the number of Send calls currently writing to the
// wire.
func (c *Conn) TxInFlight() int {
	return int(atomic.LoadInt32(&c.pending))
}

// Close releases the underlying socket.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rwc == nil {
		return nil
	}
	err := c.rwc.Close()
	c.rwc = nil
	c.rw = nil
	return err
}
