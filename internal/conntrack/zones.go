// Package conntrack models the conntrack-zone map the reconciliation
// engine flushes on each Put pass. The map itself is an external
// collaborator: this package provides the small per-zone state machine
// plus an in-memory implementation good enough for the core and for
// tests; a netlink-backed validator lives alongside it for use on a real
// hypervisor (see netlinkzones.go).
package conntrack

import "sort"

// State is a zone entry's position in the flush lifecycle.
type State int

const (
	// Queued means the zone needs a flush message sent.
	Queued State = iota
	// Sent means a flush message was emitted this Put pass but the
	// barrier that will confirm it has not replied yet.
	Sent
	// DBQueued means the barrier confirmed the flush and the entry is
	// waiting to be written back to external (database) state.
	DBQueued
)

func (s State) String() string {
	switch s {
	case Queued:
		return "QUEUED"
	case Sent:
		return "SENT"
	case DBQueued:
		return "DB_QUEUED"
	default:
		return "UNKNOWN"
	}
}

// Entry is one pending conntrack zone flush.
type Entry struct {
	Zone  uint16
	State State
	// OFXid is the barrier xid the flush message was attached to. It
	// is back-patched from 0 once the reconciliation engine knows the
	// barrier's xid.
	OFXid uint32
}

// Zones is the external mutable map of pending zone flushes the
// reconciliation engine reads and updates every Put pass.
type Zones interface {
	// Pending returns every entry currently tracked, in stable order.
	Pending() []*Entry
	// Promote updates an entry's state and xid in place.
	Promote(zone uint16, state State, xid uint32)
	// DemoteSent resets every entry in the Sent state back to Queued,
	// used when the transport reconnects and any in-flight flush can
	// no longer be trusted to have reached the switch.
	DemoteSent()
}

// InMemory is a Zones implementation backed by a plain map, suitable for
// tests and as the default runtime implementation.
type InMemory struct {
	entries map[uint16]*Entry
}

// NewInMemory allocates an empty in-memory zone map.
func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[uint16]*Entry)}
}

// Add queues a new zone for flushing, or is a no-op if already tracked.
func (m *InMemory) Add(zone uint16) {
	if _, ok := m.entries[zone]; ok {
		return
	}
	m.entries[zone] = &Entry{Zone: zone, State: Queued}
}

func (m *InMemory) Pending() []*Entry {
	out := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Zone < out[j].Zone })
	return out
}

func (m *InMemory) Promote(zone uint16, state State, xid uint32) {
	if e, ok := m.entries[zone]; ok {
		e.State = state
		e.OFXid = xid
	}
}

func (m *InMemory) DemoteSent() {
	for _, e := range m.entries {
		if e.State == Sent {
			e.State = Queued
			e.OFXid = 0
		}
	}
}
