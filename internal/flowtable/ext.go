package flowtable

import "github.com/google/uuid"

// ExtEntry is a single group or meter table entry: an opaque name (the
// group/meter spec string) paired with the small integer id allocated
// for it by the extension table.
type ExtEntry struct {
	Name string
	ID   uint32

	sources map[uuid.UUID]struct{}
}

// ExtTable is the generic desired/installed dual-set used for both the
// group table and the meter table: same id-allocation, same reverse
// index, same desired/installed/sync semantics either way.
type ExtTable struct {
	nextID uint32

	desired  map[string]*ExtEntry
	existing map[string]*ExtEntry
	bySrc    map[uuid.UUID]map[*ExtEntry]struct{}
}

// NewExtTable allocates an empty extension table. firstID is the first
// id the allocator hands out (group/meter id 0 is often reserved).
func NewExtTable(firstID uint32) *ExtTable {
	return &ExtTable{
		nextID:   firstID,
		desired:  make(map[string]*ExtEntry),
		existing: make(map[string]*ExtEntry),
		bySrc:    make(map[uuid.UUID]map[*ExtEntry]struct{}),
	}
}

// AddDesired records that sb wants the named group/meter present,
// allocating an id the first time the name is seen (idempotent by
// name).
func (t *ExtTable) AddDesired(name string, sb uuid.UUID) *ExtEntry {
	e, ok := t.desired[name]
	if !ok {
		e = &ExtEntry{Name: name, ID: t.nextID, sources: make(map[uuid.UUID]struct{})}
		t.nextID++
		t.desired[name] = e
	}

	e.sources[sb] = struct{}{}
	set, ok := t.bySrc[sb]
	if !ok {
		set = make(map[*ExtEntry]struct{})
		t.bySrc[sb] = set
	}
	set[e] = struct{}{}

	return e
}

// RemoveBySource implements flowtable.ExtRemover so Desired.RemoveBySource
// and Desired.FloodRemove can fan a source removal out to this table.
func (t *ExtTable) RemoveBySource(sb uuid.UUID) {
	set := t.bySrc[sb]
	delete(t.bySrc, sb)

	for e := range set {
		delete(e.sources, sb)
		if len(e.sources) == 0 {
			delete(t.desired, e.Name)
		}
	}
}

// Uninstalled returns every desired entry not yet present in the
// existing set — the adds the reconciliation engine must emit.
func (t *ExtTable) Uninstalled() []*ExtEntry {
	var out []*ExtEntry
	for name, e := range t.desired {
		if _, ok := t.existing[name]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// StaleInstalled returns every existing entry no longer desired — the
// deletes the reconciliation engine must emit.
func (t *ExtTable) StaleInstalled() []*ExtEntry {
	var out []*ExtEntry
	for name, e := range t.existing {
		if _, ok := t.desired[name]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// DropExisting removes a stale entry from the existing set, called right
// after the reconciliation engine emits its delete.
func (t *ExtTable) DropExisting(e *ExtEntry) {
	delete(t.existing, e.Name)
}

// Sync copies the desired set onto the existing set, called once the
// switch has been brought up to date within a Put pass.
func (t *ExtTable) Sync() {
	existing := make(map[string]*ExtEntry, len(t.desired))
	for name, e := range t.desired {
		existing[name] = e
	}
	t.existing = existing
}

// ClearExisting empties the existing set without touching desired state,
// used when the connection resets (S_CLEAR) and the switch's group/meter
// tables can no longer be trusted.
func (t *ExtTable) ClearExisting() {
	t.existing = make(map[string]*ExtEntry)
}

// Lookup returns the desired entry for name, if any.
func (t *ExtTable) Lookup(name string) (*ExtEntry, bool) {
	e, ok := t.desired[name]
	return e, ok
}
