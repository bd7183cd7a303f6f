// Package ofp defines the OpenFlow 1.3 message types the reconciliation
// core constructs and hands to the transport. Wire encoding and decoding
// is treated as a black-box codec per the controller's external-interface
// contract: Header's WriteTo/ReadFrom methods here are a minimal
// stand-in, not a faithful OXM/multipart implementation.
package ofp

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Type identifies the kind of OpenFlow message carried by a Header.
type Type uint8

const (
	TypeHello Type = iota
	TypeError
	TypeEchoRequest
	TypeEchoReply
	TypeExperimenter

	TypeFeaturesRequest
	TypeFeaturesReply

	TypePacketIn
	TypeFlowRemoved

	TypePacketOut
	TypeFlowMod
	TypeGroupMod
	TypeTableMod

	TypeMeterMod

	TypeBarrierRequest
	TypeBarrierReply
)

func (t Type) String() string {
	text, ok := typeText[t]
	if !ok {
		return fmt.Sprintf("Type(%d)", t)
	}
	return text
}

var typeText = map[Type]string{
	TypeHello:           "HELLO",
	TypeError:           "ERROR",
	TypeEchoRequest:     "ECHO_REQUEST",
	TypeEchoReply:       "ECHO_REPLY",
	TypeExperimenter:    "EXPERIMENTER",
	TypeFeaturesRequest: "FEATURES_REQUEST",
	TypeFeaturesReply:   "FEATURES_REPLY",
	TypePacketIn:        "PACKET_IN",
	TypeFlowRemoved:     "FLOW_REMOVED",
	TypePacketOut:       "PACKET_OUT",
	TypeFlowMod:         "FLOW_MOD",
	TypeGroupMod:        "GROUP_MOD",
	TypeTableMod:        "TABLE_MOD",
	TypeMeterMod:        "METER_MOD",
	TypeBarrierRequest:  "BARRIER_REQUEST",
	TypeBarrierReply:    "BARRIER_REPLY",
}

// Version is the wire version byte for OpenFlow 1.3.
const Version uint8 = 0x04

// Header is the 8-byte envelope that precedes every OpenFlow message.
// XID pairs a reply with the request that caused it.
type Header struct {
	Version uint8
	Type    Type
	Length  uint16
	XID     uint32
}

const headerLen = 8

func (h Header) WriteTo(w io.Writer) (int64, error) {
	var buf [headerLen]byte
	buf[0] = h.Version
	buf[1] = uint8(h.Type)
	binary.BigEndian.PutUint16(buf[2:4], h.Length)
	binary.BigEndian.PutUint32(buf[4:8], h.XID)
	n, err := w.Write(buf[:])
	return int64(n), err
}

func (h *Header) ReadFrom(r io.Reader) (int64, error) {
	var buf [headerLen]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		return int64(n), err
	}
	h.Version = buf[0]
	h.Type = Type(buf[1])
	h.Length = binary.BigEndian.Uint16(buf[2:4])
	h.XID = binary.BigEndian.Uint32(buf[4:8])
	return int64(n), nil
}

// Message is implemented by every OpenFlow message body this package
// defines, so the transport layer can address the envelope uniformly.
type Message interface {
	MessageType() Type
}
