// Package flowtable implements the desired/installed flow bookkeeping
// described by the reconciliation core: a many-to-many link between
// logical source records and desired flows (Desired), a one-to-many
// link from installed flows back to the desired flows that cover them
// (Installed), and a generic dual desired/installed set used for group
// and meter tables (ExtTable).
package flowtable

import (
	"github.com/ovnflow/controller/internal/ofp"
)

// Key canonically identifies a flow table entry: table, priority and
// match together, nothing else. Two keys are equal iff all three
// components are equal.
type Key struct {
	TableID  uint8
	Priority uint16
	Match    ofp.Match
}

// Hash combines the table/priority pair with the match hash into the
// canonical 32-bit digest used to bucket flows by key.
func (k Key) Hash() uint32 {
	head := uint32(k.TableID)<<16 | uint32(k.Priority)
	return combine(head, k.Match.Hash())
}

// Equal reports whether two keys identify the same flow table slot.
func (k Key) Equal(o Key) bool {
	return k.TableID == o.TableID &&
		k.Priority == o.Priority &&
		k.Match.Equal(o.Match)
}

func combine(a, b uint32) uint32 {
	// A simple shift-add-xor mix with the golden-ratio constant; good
	// enough to spread the (table,priority) head across the match
	// hash's bit range without needing a second hash primitive.
	h := a
	h ^= b + 0x9e3779b9 + (h << 6) + (h >> 2)
	return h
}

// ActionEqual compares two action blobs using the codec's semantic
// equality rule rather than raw byte equality. The zero value falls
// back to byte equality, which is what the bundled ofp.EncodeActions
// stand-in codec produces deterministically.
type ActionEqual func(a, b []byte) bool

func defaultActionEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Value is the mutable payload attached to a flow key: the action blob
// and cookie. Cookie mismatches never imply a key mismatch; an action
// change forces a strict modify and a cookie change forces an add (see
// ofctrl's Controller.Put).
type Value struct {
	Actions []byte
	Cookie  uint64
}
