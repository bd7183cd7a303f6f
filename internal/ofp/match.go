package ofp

import "fmt"

// Match is an opaque, hashable, equality-comparable OpenFlow 1.3 OXM
// wildcarded match. The core never inspects match contents; it only
// hashes and compares them, so any codec-produced implementation of
// this interface can be plugged in without touching the reconciler.
type Match interface {
	fmt.Stringer

	// Hash returns a 32-bit digest of the match contents.
	Hash() uint32

	// Equal reports structural equality with another Match.
	Equal(Match) bool
}

// OXMMatch is the default Match implementation: a flat, pre-encoded OXM
// field list. Two OXMMatch values are equal iff their encoded bytes are
// identical; this mirrors the codec's "semantic equality after
// normalization" guarantee closely enough for the reconciliation core,
// since normalization is assumed to have already happened upstream.
type OXMMatch struct {
	Fields []byte
}

func (m OXMMatch) String() string {
	return fmt.Sprintf("oxm(%d bytes)", len(m.Fields))
}

func (m OXMMatch) Hash() uint32 {
	return fnv32(m.Fields)
}

func (m OXMMatch) Equal(other Match) bool {
	o, ok := other.(OXMMatch)
	if !ok {
		return false
	}
	if len(m.Fields) != len(o.Fields) {
		return false
	}
	for i := range m.Fields {
		if m.Fields[i] != o.Fields[i] {
			return false
		}
	}
	return true
}

// fnv32 is the 32-bit FNV-1a hash of the match bytes; the flow key's
// hash mixes this value with its (table, priority) head.
func fnv32(b []byte) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for _, c := range b {
		h ^= uint32(c)
		h *= prime32
	}
	return h
}
