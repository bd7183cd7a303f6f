package ofctrl

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/ovnflow/controller/internal/ofp"
)

// packetSize is the fixed frame length the injector composes, matching
// a minimal Ethernet II frame with no payload beyond the bare flow
// descriptor fields.
const packetSize = 64

// MicroflowDescriptor is the already-parsed form of the human-readable
// microflow expression the translation layer hands the injector; parsing
// the expression itself, and resolving its symbol, address, and
// port-group tables, happens upstream and is out of scope here.
type MicroflowDescriptor struct {
	Dst       [6]byte
	Src       [6]byte
	EtherType uint16
}

// composeFrame renders d as a fixed-size Ethernet II frame, grounded in
// the teacher's net.EthernetII header layout, padded with zero bytes to
// packetSize.
func composeFrame(d MicroflowDescriptor) []byte {
	var buf bytes.Buffer
	buf.Write(d.Dst[:])
	buf.Write(d.Src[:])
	binary.Write(&buf, binary.BigEndian, d.EtherType)

	out := buf.Bytes()
	if len(out) < packetSize {
		out = append(out, make([]byte, packetSize-len(out))...)
	}
	return out[:packetSize]
}

// Inject composes a packet matching d and sends it into the pipeline as
// if it had arrived on the bridge interface carrying ifaceID, resubmitting
// to table 0 so the packet is processed exactly as a real arrival would
// be.
func (c *Controller) Inject(ctx context.Context, ifaceID string, d MicroflowDescriptor) error {
	ofport, ok := c.Bridge.OFPortByIfaceID(ifaceID)
	if !ok {
		return fmt.Errorf("packet inject: no ofport for iface-id %q", ifaceID)
	}

	actions := ofp.EncodeActions(ofp.ActionResubmit{Table: 0, InPort: true})
	po := ofp.PacketOut{
		BufferID: ofp.NoBuffer,
		InPort:   ofport,
		Actions:  actions,
		Data:     composeFrame(d),
	}

	if _, err := c.Transport.Send(ctx, ofp.NewEnvelope(po)); err != nil {
		return fmt.Errorf("packet inject: %w", err)
	}
	return nil
}
