package ofctrl

import (
	"github.com/google/uuid"

	"github.com/ovnflow/controller/internal/flowtable"
)

// The methods below are the translator-facing surface for adding and
// removing desired flows, groups, and meters by source record. They wrap
// the flowtable/ExtTable operations, additionally flagging putDirty so
// Put's elision rule knows something changed since the last pass.

// AddFlow inserts a desired flow for sb, logging (but not rejecting) an
// exact duplicate.
func (c *Controller) AddFlow(k flowtable.Key, v flowtable.Value, sb uuid.UUID) {
	c.Flows.Add(k, v, sb, func(flowtable.Key, uuid.UUID) {
		c.Log.Debugf("duplicate add_flow for sb=%s", sb)
	})
	c.putDirty = true
}

// AddOrAppendFlow appends to the first desired flow sharing k regardless
// of source, or inserts a new one.
func (c *Controller) AddOrAppendFlow(k flowtable.Key, v flowtable.Value, sb uuid.UUID) {
	c.Flows.AddOrAppend(k, v, sb)
	c.putDirty = true
}

// RemoveFlows drops every desired flow (and group/meter) referencing sb.
func (c *Controller) RemoveFlows(sb uuid.UUID) {
	c.Flows.RemoveBySource(sb)
	c.putDirty = true
}

// FloodRemoveFlows transitively removes every flow reachable from seeds
// through shared source references.
func (c *Controller) FloodRemoveFlows(seeds []uuid.UUID) {
	c.Flows.FloodRemove(seeds)
	c.putDirty = true
}

// AddDesiredGroup records that sb wants the named group present.
func (c *Controller) AddDesiredGroup(name string, sb uuid.UUID) {
	c.Groups.AddDesired(name, sb)
	c.putDirty = true
}

// AddDesiredMeter records that sb wants the named meter present. Names
// beginning with ReservedMeterPrefix are encoded inline at Put time
// rather than resolved against the meter catalog.
func (c *Controller) AddDesiredMeter(name string, sb uuid.UUID) {
	c.Meter.AddDesired(name, sb)
	c.putDirty = true
}
