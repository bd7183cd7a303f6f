package ofp

import "encoding/binary"

// ActionType identifies the kind of a single flow/group/packet-out action.
type ActionType uint16

const (
	ActionTypeOutput ActionType = iota
	ActionTypeGroup
	ActionTypeSetField
	ActionTypeResubmit ActionType = 0xffff // Nicira vendor extension
)

// Action is implemented by every action this package encodes.
type Action interface {
	ActionType() ActionType
	encode() []byte
}

// ActionOutput sends the packet out a single port.
type ActionOutput struct {
	Port uint32
}

func (a ActionOutput) ActionType() ActionType { return ActionTypeOutput }

func (a ActionOutput) encode() []byte {
	b := make([]byte, 6)
	binary.BigEndian.PutUint16(b[0:2], uint16(ActionTypeOutput))
	binary.BigEndian.PutUint32(b[2:6], a.Port)
	return b
}

// ActionResubmit re-enters the pipeline at a given table, keeping the
// original in_port. It is the Nicira NXAST_RESUBMIT_TABLE action the
// packet injector uses to hand an injected microflow to table 0.
type ActionResubmit struct {
	Table uint8
	// InPort, when true, preserves the packet's original ingress port
	// instead of rewriting it.
	InPort bool
}

func (a ActionResubmit) ActionType() ActionType { return ActionTypeResubmit }

func (a ActionResubmit) encode() []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint16(b[0:2], uint16(ActionTypeResubmit))
	b[2] = a.Table
	if a.InPort {
		b[3] = 1
	}
	return b
}

// EncodeActions concatenates a list of actions into the opaque action
// blob FlowMod/GroupMod/PacketOut carry. This is the seam the assumed
// action-expression codec would normally fill; here it is just a
// deterministic concatenation so the desired flow table's append and
// action-equality semantics have something concrete to operate on.
func EncodeActions(actions ...Action) []byte {
	var out []byte
	for _, a := range actions {
		out = append(out, a.encode()...)
	}
	return out
}

// PacketOut injects a single raw packet into the pipeline as if it had
// arrived on InPort.
type PacketOut struct {
	BufferID uint32
	InPort   uint32
	Actions  []byte
	Data     []byte
}

func (PacketOut) MessageType() Type { return TypePacketOut }
