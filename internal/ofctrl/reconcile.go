package ofctrl

import (
	"context"

	"github.com/ovnflow/controller/internal/conntrack"
	"github.com/ovnflow/controller/internal/flowtable"
	"github.com/ovnflow/controller/internal/ofp"
)

// Put is the reconciliation engine's single entry point: it diffs
// desired against installed state, the group/meter tables, and the
// pending conntrack-zone map, issues the minimum batch of messages to
// converge the switch, and updates the config-generation tracker.
//
// nbCfg is the upstream configuration number this pass is reconciling
// toward; it is recorded against whatever barrier this pass appends (or
// against no barrier at all, if nothing changed).
func (c *Controller) Put(ctx context.Context, nbCfg uint64) error {
	if c.fsm.state != StateUpdate {
		return nil
	}
	if c.Transport.TxInFlight() > 0 {
		return nil
	}
	if c.Transport.Version() == 0 {
		return nil
	}

	// Elision rule: if nothing has changed since the last successful
	// Put and we are not mid-reinstall, skip the diff entirely; step 7
	// still needs to run so a config-number advance with no other
	// change is still observed.
	if !c.forceReinstall && !c.putDirty {
		c.cfg.recordPut(c.Log, false, 0, nbCfg)
		return nil
	}

	var ops []ofp.Message

	// Step 1: conntrack flushes.
	for _, e := range c.Zones.Pending() {
		if e.State != conntrack.Queued {
			continue
		}
		ops = append(ops, ofp.CTFlushZone{Zone: e.Zone})
		c.Zones.Promote(e.Zone, conntrack.Sent, 0)
	}

	// Step 2: new groups, then new meters. Entries whose spec cannot be
	// resolved are kept out of the existing set after Sync, so the next
	// pass tries them again.
	var badGroups, badMeters []*flowtable.ExtEntry
	for _, e := range c.Groups.Uninstalled() {
		gtype, buckets, err := parseGroupSpec(e.Name)
		if err != nil {
			c.Log.RateLimited("group_spec:"+e.Name, "bad group spec %q: %v", e.Name, err)
			badGroups = append(badGroups, e)
			continue
		}
		ops = append(ops, ofp.GroupMod{Command: ofp.GroupAdd, Type: gtype, GroupID: e.ID, Buckets: buckets})
	}
	for _, e := range c.Meter.Uninstalled() {
		unit, bands, err := c.resolveMeter(e.Name)
		if err != nil {
			c.Log.RateLimited("meter_spec:"+e.Name, "bad meter spec %q: %v", e.Name, err)
			badMeters = append(badMeters, e)
			continue
		}
		ops = append(ops, ofp.MeterMod{Command: ofp.MeterAdd, Unit: unit, MeterID: e.ID, Bands: bands})
	}

	// Step 3: installed-flow sweep.
	for _, inst := range c.Inst.All() {
		c.Inst.UnlinkAll(inst)

		matches := c.Flows.ByKey(inst.Key)
		if len(matches) == 0 {
			ops = append(ops, ofp.FlowMod{
				TableID: inst.Key.TableID, Command: ofp.FlowDeleteStrict,
				Priority: inst.Key.Priority, Match: inst.Key.Match,
				OutPort: ofp.PortAny, OutGroup: ofp.GroupAny,
			})
			c.Inst.Delete(inst)
			continue
		}

		for _, d := range matches {
			c.Inst.LinkExisting(inst, d)
		}

		value := inst.Primary().Value
		switch {
		case value.Cookie != inst.Value.Cookie:
			// Strict modify cannot change the cookie; re-add instead.
			ops = append(ops, ofp.FlowMod{
				TableID: inst.Key.TableID, Command: ofp.FlowAdd,
				Priority: inst.Key.Priority, Match: inst.Key.Match,
				Cookie: value.Cookie, Actions: value.Actions,
			})
			inst.UpdateValue(value)
		case !c.Flows.ActionsEqual(value.Actions, inst.Value.Actions):
			ops = append(ops, ofp.FlowMod{
				TableID: inst.Key.TableID, Command: ofp.FlowModifyStrict,
				Priority: inst.Key.Priority, Match: inst.Key.Match,
				Cookie: value.Cookie, Actions: value.Actions,
			})
			inst.UpdateValue(value)
		}
	}

	// Step 4: desired-flow sweep.
	for _, d := range c.Flows.All() {
		if d.Installed() != nil {
			continue
		}
		if existing := c.Inst.Lookup(d.Key); existing != nil {
			c.Inst.LinkExisting(existing, d)
			continue
		}
		c.Inst.InsertFromDesired(d)
		ops = append(ops, ofp.FlowMod{
			TableID: d.Key.TableID, Command: ofp.FlowAdd,
			Priority: d.Key.Priority, Match: d.Key.Match,
			Cookie: d.Value.Cookie, Actions: d.Value.Actions,
		})
	}

	// Step 5: stale extension entries, then sync.
	for _, e := range c.Groups.StaleInstalled() {
		ops = append(ops, ofp.GroupMod{Command: ofp.GroupDelete, GroupID: e.ID})
		c.Groups.DropExisting(e)
	}
	for _, e := range c.Meter.StaleInstalled() {
		ops = append(ops, ofp.MeterMod{Command: ofp.MeterDelete, MeterID: e.ID})
		c.Meter.DropExisting(e)
	}
	c.Groups.Sync()
	c.Meter.Sync()
	for _, e := range badGroups {
		c.Groups.DropExisting(e)
	}
	for _, e := range badMeters {
		c.Meter.DropExisting(e)
	}

	// Step 6: flush the batch and its trailing barrier.
	for _, body := range ops {
		if _, err := c.Transport.Send(ctx, ofp.NewEnvelope(body)); err != nil {
			return err
		}
	}

	produced := len(ops) > 0
	var barrierXID uint32
	if produced {
		xid, err := c.Transport.Send(ctx, ofp.NewEnvelope(ofp.BarrierRequest{}))
		if err != nil {
			return err
		}
		barrierXID = xid

		for _, e := range c.Zones.Pending() {
			if e.State == conntrack.Sent && e.OFXid == 0 {
				c.Zones.Promote(e.Zone, conntrack.Sent, barrierXID)
			}
		}
	}

	// Step 7: configuration tracking.
	c.cfg.recordPut(c.Log, produced, barrierXID, nbCfg)

	c.forceReinstall = false
	c.putDirty = len(badGroups)+len(badMeters) > 0
	return nil
}
