package flowtable

// InstalledFlow mirrors a flow entry the controller believes is present
// on the switch. DesiredRefs is kept in insertion order; Primary is
// always its front element by policy, except transiently while a
// primary is being unlinked and a new one chosen.
type InstalledFlow struct {
	Key   Key
	Value Value

	desiredRefs []*DesiredFlow
	primary     *DesiredFlow
}

// DesiredRefs returns the desired flows currently covering this
// installed flow, in reference order.
func (i *InstalledFlow) DesiredRefs() []*DesiredFlow {
	return i.desiredRefs
}

// Primary is the desired flow whose value is actually installed, or nil
// once the installed flow has no covering desired flow left (it is
// destroyed at that point — invariant I1).
func (i *InstalledFlow) Primary() *DesiredFlow {
	return i.primary
}

func (i *InstalledFlow) link(d *DesiredFlow) {
	i.desiredRefs = append(i.desiredRefs, d)
	if i.primary == nil {
		i.primary = i.desiredRefs[0]
	}
	d.linkInstalled(i)
}

// unlinkDesired drops d from this installed flow's reference list and,
// if d was the primary, recomputes it from the new front element.
func (i *InstalledFlow) unlinkDesired(d *DesiredFlow) {
	for idx, cur := range i.desiredRefs {
		if cur == d {
			i.desiredRefs = append(i.desiredRefs[:idx], i.desiredRefs[idx+1:]...)
			break
		}
	}
	if i.primary == d {
		if len(i.desiredRefs) > 0 {
			i.primary = i.desiredRefs[0]
		} else {
			i.primary = nil
		}
	}
}

// unlinkAllRefs resets the reference list and primary, used by the
// reconciliation engine's installed-flow sweep before it recomputes
// links for the new diff pass.
func (i *InstalledFlow) unlinkAllRefs() {
	for _, d := range i.desiredRefs {
		d.linkInstalled(nil)
	}
	i.desiredRefs = nil
	i.primary = nil
}

// Installed is the installed flow table, indexed by flow hash with
// exact-key lookup within a bucket (invariant I2: unique by key).
type Installed struct {
	byHash map[uint32][]*InstalledFlow
}

// NewInstalled allocates an empty installed flow table.
func NewInstalled() *Installed {
	return &Installed{byHash: make(map[uint32][]*InstalledFlow)}
}

// Lookup returns the installed flow at key k, or nil.
func (t *Installed) Lookup(k Key) *InstalledFlow {
	for _, i := range t.byHash[k.Hash()] {
		if i.Key.Equal(k) {
			return i
		}
	}
	return nil
}

// InsertFromDesired creates a new installed flow cloned from d's key and
// value, links d to it as the (only, so primary) reference, and returns
// it.
func (t *Installed) InsertFromDesired(d *DesiredFlow) *InstalledFlow {
	i := &InstalledFlow{Key: d.Key, Value: Value{
		Actions: append([]byte{}, d.Value.Actions...),
		Cookie:  d.Value.Cookie,
	}}
	h := i.Key.Hash()
	t.byHash[h] = append(t.byHash[h], i)
	i.link(d)
	return i
}

// LinkExisting links an already-installed flow to an additional desired
// flow (used when the installed-flow sweep finds a matching desired
// entry for a flow that already exists on the switch).
func (t *Installed) LinkExisting(i *InstalledFlow, d *DesiredFlow) {
	i.link(d)
}

// UnlinkAll resets i's reference list, in preparation for the
// reconciliation engine recomputing it from scratch this pass.
func (t *Installed) UnlinkAll(i *InstalledFlow) {
	i.unlinkAllRefs()
}

// UpdateValue overwrites i's installed action/cookie in place, used when
// the primary desired flow's value changed (strict modify / cookie add).
func (i *InstalledFlow) UpdateValue(v Value) {
	i.Value = Value{Actions: append([]byte{}, v.Actions...), Cookie: v.Cookie}
}

// Delete removes i from the table. The caller must have already
// unlinked every desired reference (invariant I1: empty desiredRefs).
func (t *Installed) Delete(i *InstalledFlow) {
	h := i.Key.Hash()
	list := t.byHash[h]
	for idx, cur := range list {
		if cur == i {
			t.byHash[h] = append(list[:idx], list[idx+1:]...)
			break
		}
	}
	if len(t.byHash[h]) == 0 {
		delete(t.byHash, h)
	}
}

// All returns every installed flow currently tracked.
func (t *Installed) All() []*InstalledFlow {
	var out []*InstalledFlow
	for _, list := range t.byHash {
		out = append(out, list...)
	}
	return out
}

// Clear empties the table without emitting any flow-mods; used when the
// connection resets and the agent can no longer trust what it believes
// is on the switch.
func (t *Installed) Clear() {
	t.byHash = make(map[uint32][]*InstalledFlow)
}
