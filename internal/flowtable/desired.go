package flowtable

import (
	"github.com/google/uuid"
)

// DesiredFlow is a flow entry the controller wants present on the switch.
// It always carries at least one source reference (invariant D1); when
// the last reference is removed the table destroys it directly, there is
// no tombstone state to observe.
type DesiredFlow struct {
	Key   Key
	Value Value

	sources   map[uuid.UUID]struct{}
	installed *InstalledFlow
}

// Sources returns the current set of source records referencing this
// flow. The caller must not mutate the returned map.
func (d *DesiredFlow) Sources() map[uuid.UUID]struct{} { return d.sources }

// Installed returns the installed flow this desired flow is linked to,
// or nil if none has been reconciled yet.
func (d *DesiredFlow) Installed() *InstalledFlow { return d.installed }

// ExtRemover is implemented by an ExtTable so the desired flow table can
// fan a source removal out to groups and meters without importing their
// concrete types.
type ExtRemover interface {
	RemoveBySource(sb uuid.UUID)
}

// Desired is the desired flow table: flows keyed by match hash, plus the
// reverse index from source record to the flows it references.
type Desired struct {
	byHash map[uint32][]*DesiredFlow
	bySrc  map[uuid.UUID]map[*DesiredFlow]struct{}

	// ActionEqual overrides the default byte-wise action comparison
	// with the codec's semantic equality, if one is configured.
	ActionEqual ActionEqual

	// Externals are consulted by RemoveBySource and FloodRemove so a
	// source's groups and meters are cleaned up alongside its flows.
	Externals []ExtRemover
}

// NewDesired allocates an empty desired flow table.
func NewDesired() *Desired {
	return &Desired{
		byHash: make(map[uint32][]*DesiredFlow),
		bySrc:  make(map[uuid.UUID]map[*DesiredFlow]struct{}),
	}
}

func (t *Desired) actionEqual(a, b []byte) bool {
	if t.ActionEqual != nil {
		return t.ActionEqual(a, b)
	}
	return defaultActionEqual(a, b)
}

// ActionsEqual exposes the table's configured action-equality rule
// (semantic if ActionEqual is set, byte-wise otherwise) to callers
// outside the package, such as the reconciliation engine's
// installed-flow sweep.
func (t *Desired) ActionsEqual(a, b []byte) bool { return t.actionEqual(a, b) }

// findByKey returns the flow at the given key that already references
// sb, if any. A miss means either no flow has that key at all, or one
// exists but from a different source (which add() must treat as a
// distinct, permitted, desired flow).
func (t *Desired) findByKey(k Key, sb uuid.UUID) *DesiredFlow {
	for _, d := range t.byHash[k.Hash()] {
		if d.Key.Equal(k) {
			if _, ok := d.sources[sb]; ok {
				return d
			}
		}
	}
	return nil
}

// findAnyByKey returns the first flow with the given key regardless of
// source, used by AddOrAppend's "append to first match" policy (see
// DESIGN.md for the open question this resolves).
func (t *Desired) findAnyByKey(k Key) *DesiredFlow {
	for _, d := range t.byHash[k.Hash()] {
		if d.Key.Equal(k) {
			return d
		}
	}
	return nil
}

func (t *Desired) insert(d *DesiredFlow) {
	h := d.Key.Hash()
	t.byHash[h] = append(t.byHash[h], d)
}

func (t *Desired) link(sb uuid.UUID, d *DesiredFlow) {
	if d.sources == nil {
		d.sources = make(map[uuid.UUID]struct{})
	}
	d.sources[sb] = struct{}{}

	set, ok := t.bySrc[sb]
	if !ok {
		set = make(map[*DesiredFlow]struct{})
		t.bySrc[sb] = set
	}
	set[d] = struct{}{}
}

// unlinkSource removes sb's reference to d. It does not destroy d even
// if its source set becomes empty; callers decide whether to destroy.
func (t *Desired) unlinkSource(sb uuid.UUID, d *DesiredFlow) {
	delete(d.sources, sb)
	if set, ok := t.bySrc[sb]; ok {
		delete(set, d)
		if len(set) == 0 {
			delete(t.bySrc, sb)
		}
	}
}

// destroy removes d from the hash index entirely. The caller is
// responsible for having already emptied d.sources and unlinked any
// installed flow (invariant D1/D2).
func (t *Desired) destroy(d *DesiredFlow) {
	h := d.Key.Hash()
	list := t.byHash[h]
	for i, cur := range list {
		if cur == d {
			t.byHash[h] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(t.byHash[h]) == 0 {
		delete(t.byHash, h)
	}
	if d.installed != nil {
		d.installed.unlinkDesired(d)
		d.installed = nil
	}
}

// linkInstalled records that d is now covered by the given installed
// flow, maintaining invariant D2 from the desired side. InstalledFlow.link
// maintains the other half.
func (d *DesiredFlow) linkInstalled(i *InstalledFlow) {
	d.installed = i
}

// Add inserts a new desired flow for sb, or is a no-op if sb already has
// an identical-key flow (invariant P7, idempotent add). logDuplicate is
// invoked instead of being silently dropped when non-nil.
func (t *Desired) Add(k Key, v Value, sb uuid.UUID, logDuplicate func(Key, uuid.UUID)) *DesiredFlow {
	if existing := t.findByKey(k, sb); existing != nil {
		if logDuplicate != nil {
			logDuplicate(k, sb)
		}
		return existing
	}

	d := &DesiredFlow{Key: k, Value: v}
	t.insert(d)
	t.link(sb, d)
	return d
}

// AddOrAppend looks up the first desired flow with key k regardless of
// source; if found, it appends v.Actions to the existing flow's actions
// (existing bytes first, per P8) and links sb to it. Otherwise it
// behaves like Add. The "first match" policy is the source's observable
// behavior; see DESIGN.md for why no deterministic tiebreak was added.
func (t *Desired) AddOrAppend(k Key, v Value, sb uuid.UUID) *DesiredFlow {
	if existing := t.findAnyByKey(k); existing != nil {
		existing.Value.Actions = append(
			append([]byte{}, existing.Value.Actions...), v.Actions...)
		t.link(sb, existing)
		return existing
	}

	d := &DesiredFlow{Key: k, Value: v}
	t.insert(d)
	t.link(sb, d)
	return d
}

// RemoveBySource drops sb's reference from every flow it touches,
// destroying any flow whose reference set becomes empty, and fans the
// removal out to groups/meters.
func (t *Desired) RemoveBySource(sb uuid.UUID) {
	set := t.bySrc[sb]
	flows := make([]*DesiredFlow, 0, len(set))
	for d := range set {
		flows = append(flows, d)
	}

	for _, d := range flows {
		t.unlinkSource(sb, d)
		if len(d.sources) == 0 {
			t.destroy(d)
		}
	}

	for _, ext := range t.Externals {
		ext.RemoveBySource(sb)
	}
}

// FloodRemove transitively removes every flow reachable through shared
// source references, seeded by seeds. It is an explicit worklist over
// source uuids with a seen set, rather than a recursive list-detaching
// walk, so it terminates cleanly on cyclic source references.
func (t *Desired) FloodRemove(seeds []uuid.UUID) {
	seen := make(map[uuid.UUID]struct{}, len(seeds))
	work := append([]uuid.UUID{}, seeds...)

	for len(work) > 0 {
		sb := work[0]
		work = work[1:]

		if _, ok := seen[sb]; ok {
			continue
		}
		seen[sb] = struct{}{}

		set := t.bySrc[sb]
		flows := make([]*DesiredFlow, 0, len(set))
		for d := range set {
			flows = append(flows, d)
		}

		for _, d := range flows {
			t.unlinkSource(sb, d)

			if len(d.sources) == 0 {
				t.destroy(d)
				continue
			}

			// Still referenced elsewhere: the flow was reachable from
			// the flood seed set, so it is destroyed regardless. Queue
			// its surviving sources first, so the cascade keeps going,
			// then unlink them before destroying the flow, so the
			// reverse index never points at a dead flow.
			remaining := copySet(d.sources)
			for other := range remaining {
				if _, ok := seen[other]; !ok && !containsUUID(work, other) {
					work = append(work, other)
				}
				t.unlinkSource(other, d)
			}
			t.destroy(d)
		}
	}

	for _, ext := range t.Externals {
		for sb := range seen {
			ext.RemoveBySource(sb)
		}
	}
}

func containsUUID(list []uuid.UUID, v uuid.UUID) bool {
	for _, u := range list {
		if u == v {
			return true
		}
	}
	return false
}

func copySet(m map[uuid.UUID]struct{}) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

// Clear removes every desired flow, as if RemoveBySource had been called
// for every source record currently referenced.
func (t *Desired) Clear() {
	sources := make([]uuid.UUID, 0, len(t.bySrc))
	for sb := range t.bySrc {
		sources = append(sources, sb)
	}
	for _, sb := range sources {
		t.RemoveBySource(sb)
	}
}

// All returns every desired flow currently in the table. Used by the
// reconciliation engine's desired-flow sweep.
func (t *Desired) All() []*DesiredFlow {
	var out []*DesiredFlow
	for _, list := range t.byHash {
		out = append(out, list...)
	}
	return out
}

// ByKey returns every desired flow sharing the given key, possibly from
// distinct sources: multiple sources can independently desire the same
// match/priority/table, each tracked as its own DesiredFlow.
func (t *Desired) ByKey(k Key) []*DesiredFlow {
	var out []*DesiredFlow
	for _, d := range t.byHash[k.Hash()] {
		if d.Key.Equal(k) {
			out = append(out, d)
		}
	}
	return out
}
