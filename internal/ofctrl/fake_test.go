package ofctrl_test

import (
	"context"

	"github.com/ovnflow/controller/internal/ofp"
)

// fakeTransport is an in-memory stand-in for ofctrl.Transport: it
// records every envelope sent (with an assigned xid) and lets tests
// queue up envelopes to be returned from Recv, in lieu of a real
// OpenFlow wire connection (spec §6 treats Transport as an opaque
// seam for exactly this reason).
type fakeTransport struct {
	sent       []ofp.Envelope
	nextXID    uint32
	version    int
	seqno      int
	txInFlight int
	recvQueue  []ofp.Envelope

	connectErr   error
	connectCalls int
	connectedTo  string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{version: int(ofp.Version), seqno: 1}
}

func (f *fakeTransport) Connect(ctx context.Context, target string) error {
	f.connectCalls++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connectedTo = target
	return nil
}

func (f *fakeTransport) Send(ctx context.Context, env ofp.Envelope) (uint32, error) {
	if env.XID == 0 {
		f.nextXID++
		env.XID = f.nextXID
	}
	f.sent = append(f.sent, env)
	return env.XID, nil
}

func (f *fakeTransport) Recv() (ofp.Envelope, bool, error) {
	if len(f.recvQueue) == 0 {
		return ofp.Envelope{}, false, nil
	}
	env := f.recvQueue[0]
	f.recvQueue = f.recvQueue[1:]
	return env, true, nil
}

func (f *fakeTransport) IsConnected() bool    { return true }
func (f *fakeTransport) Version() int         { return f.version }
func (f *fakeTransport) ConnectionSeqno() int { return f.seqno }
func (f *fakeTransport) TxInFlight() int      { return f.txInFlight }

func (f *fakeTransport) queue(env ofp.Envelope) {
	f.recvQueue = append(f.recvQueue, env)
}

func (f *fakeTransport) bodies() []ofp.Message {
	out := make([]ofp.Message, len(f.sent))
	for i, e := range f.sent {
		out[i] = e.Body
	}
	return out
}

type fakeMeterCatalog struct {
	meters map[string]struct {
		unit  ofp.MeterUnit
		bands []ofp.MeterBand
	}
}

func (c fakeMeterCatalog) Lookup(name string) (ofp.MeterUnit, []ofp.MeterBand, bool) {
	m, ok := c.meters[name]
	if !ok {
		return "", nil, false
	}
	return m.unit, m.bands, true
}

type fakeBridge struct {
	ports map[string]uint32
}

func (b fakeBridge) OFPortByIfaceID(ifaceID string) (uint32, bool) {
	p, ok := b.ports[ifaceID]
	return p, ok
}
