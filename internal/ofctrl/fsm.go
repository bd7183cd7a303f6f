package ofctrl

import (
	"context"

	"github.com/ovnflow/controller/internal/conntrack"
	"github.com/ovnflow/controller/internal/ofp"
)

// State is one of the five connection states the reconciliation core
// cycles through while negotiating the tunnel-metadata option and
// gating Put.
type State int

const (
	StateNew State = iota
	StateTLVReq
	StateTLVMod
	StateClear
	StateUpdate
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "S_NEW"
	case StateTLVReq:
		return "S_TLV_REQ"
	case StateTLVMod:
		return "S_TLV_MOD"
	case StateClear:
		return "S_CLEAR"
	case StateUpdate:
		return "S_UPDATE"
	default:
		return "S_UNKNOWN"
	}
}

// fsmState is the mutable state the Controller keeps for the connection
// state machine: the current State plus the xids it is waiting on and
// the negotiated tunnel-metadata slot.
type fsmState struct {
	state State

	reqXID        uint32
	modXID        uint32
	modBarrierXID uint32

	mffEnabled bool
	mffIndex   uint8
}

// State returns the FSM's current state.
func (c *Controller) State() State { return c.fsm.state }

// Reset forces the FSM back to S_NEW, as happens on transport reconnect.
// mffEnabled is seeded from the controller's configured tunnel-option
// setting, not hardcoded, so a reconnect does not silently re-enable an
// option the operator turned off.
func (c *Controller) Reset() {
	c.fsm = fsmState{state: StateNew, mffEnabled: c.tunnelOptionEnabled}
}

// Tick advances the current state's non-message-driven work: only
// S_NEW and S_CLEAR do anything here, everything else waits on a
// message or on Put.
func (c *Controller) Tick(ctx context.Context) (progressed bool, err error) {
	switch c.fsm.state {
	case StateNew:
		xid, err := c.Transport.Send(ctx, ofp.NewEnvelope(ofp.TLVTableRequest{}))
		if err != nil {
			return false, err
		}
		c.fsm.reqXID = xid
		c.fsm.state = StateTLVReq
		return true, nil

	case StateClear:
		if _, err := c.Transport.Send(ctx, ofp.NewEnvelope(ofp.FlowMod{
			TableID: 0xff, Command: ofp.FlowDelete, OutPort: ofp.PortAny, OutGroup: ofp.GroupAny,
		})); err != nil {
			return false, err
		}
		if _, err := c.Transport.Send(ctx, ofp.NewEnvelope(ofp.GroupMod{
			Command: ofp.GroupDelete, GroupID: ofp.GroupAllID,
		})); err != nil {
			return false, err
		}
		if _, err := c.Transport.Send(ctx, ofp.NewEnvelope(ofp.MeterMod{
			Command: ofp.MeterDelete, MeterID: ofp.MeterAll,
		})); err != nil {
			return false, err
		}

		c.Inst.Clear()
		c.Groups.ClearExisting()
		c.Meter.ClearExisting()
		c.cfg.dropAll()

		c.forceReinstall = true
		c.fsm.state = StateUpdate
		return true, nil

	default:
		return false, nil
	}
}

// Dispatch delivers one received envelope to the current state's
// message handler, falling back to genericDispatch for anything the
// state itself does not care about.
func (c *Controller) Dispatch(ctx context.Context, env ofp.Envelope) (progressed bool, err error) {
	switch body := env.Body.(type) {
	case ofp.TLVTableReply:
		if c.fsm.state == StateTLVReq && env.XID == c.fsm.reqXID {
			return c.handleTLVReply(ctx, body)
		}

	case ofp.BarrierReply:
		switch c.fsm.state {
		case StateTLVMod:
			if env.XID == c.fsm.modBarrierXID {
				c.fsm.state = StateClear
				return true, nil
			}
		case StateUpdate:
			return c.handleUpdateBarrier(env.XID), nil
		}

	case ofp.Error:
		switch c.fsm.state {
		case StateTLVReq:
			if env.XID == c.fsm.reqXID {
				c.Log.Warnf("tlv table request failed: %s; disabling tunnel option", body.Code)
				c.fsm.mffEnabled = false
				c.fsm.state = StateClear
				return true, nil
			}
		case StateTLVMod:
			if env.XID == c.fsm.modXID {
				return c.handleTLVModError(body), nil
			}
		}
	}

	return c.genericDispatch(ctx, env), nil
}

// handleTLVReply implements the S_TLV_REQ row of the state table: adopt
// an existing mapping, allocate a free slot and send a table-mod plus
// barrier, or disable the option if none is free.
func (c *Controller) handleTLVReply(ctx context.Context, reply ofp.TLVTableReply) (bool, error) {
	for _, m := range reply.Mappings {
		if m.OptClass == TunnelOptClass && m.OptType == TunnelOptType && m.OptLen == TunnelOptLen {
			c.fsm.mffIndex = m.Index
			c.fsm.mffEnabled = c.tunnelOptionEnabled
			c.fsm.state = StateClear
			return true, nil
		}
	}

	used := make(map[uint8]bool, len(reply.Mappings))
	for _, m := range reply.Mappings {
		used[m.Index] = true
	}
	var free uint8
	found := false
	for idx := uint8(0); idx < ofp.TLVTableSlots; idx++ {
		if !used[idx] {
			free = idx
			found = true
			break
		}
	}
	if !found {
		c.Log.Warnf("no free tunnel-metadata slot; disabling tunnel option")
		c.fsm.mffEnabled = false
		c.fsm.state = StateClear
		return true, nil
	}

	modXID, err := c.Transport.Send(ctx, ofp.NewEnvelope(ofp.TLVTableMod{
		Command: ofp.TLVTableModAdd,
		Mappings: []ofp.TLVTableMap{{
			OptClass: TunnelOptClass, OptType: TunnelOptType, OptLen: TunnelOptLen, Index: free,
		}},
	}))
	if err != nil {
		return false, err
	}
	barrierXID, err := c.Transport.Send(ctx, ofp.NewEnvelope(ofp.BarrierRequest{}))
	if err != nil {
		return false, err
	}

	c.fsm.modXID = modXID
	c.fsm.modBarrierXID = barrierXID
	c.fsm.mffIndex = free
	c.fsm.state = StateTLVMod
	return true, nil
}

// handleTLVModError implements the S_TLV_MOD error row: a race with
// another controller goes back to S_NEW and retries, anything else
// disables the option.
func (c *Controller) handleTLVModError(e ofp.Error) bool {
	if e.Code == ofp.ErrCodeAlreadyMapped || e.Code == ofp.ErrCodeDupEntry {
		c.Reset()
		return true
	}
	c.Log.Warnf("tlv table mod failed: %s; disabling tunnel option", e.Code)
	c.fsm.mffEnabled = false
	c.fsm.state = StateClear
	return true
}

// handleUpdateBarrier implements the S_UPDATE barrier-reply row: pop the
// in-flight queue if it matches, advance cur_cfg, and promote any
// conntrack-zone entries waiting on this barrier.
func (c *Controller) handleUpdateBarrier(xid uint32) bool {
	progressed := c.cfg.onBarrierReply(xid)

	for _, e := range c.Zones.Pending() {
		if e.State == conntrack.Sent && e.OFXid == xid {
			c.Zones.Promote(e.Zone, conntrack.DBQueued, e.OFXid)
			progressed = true
		}
	}
	return progressed
}

// genericDispatch handles echo and error messages the same way
// regardless of state: echo requests are answered, errors are
// rate-limited logged, and anything else unmatched is rate-limited
// logged too.
func (c *Controller) genericDispatch(ctx context.Context, env ofp.Envelope) bool {
	switch body := env.Body.(type) {
	case ofp.EchoRequest:
		_, _ = c.Transport.Send(ctx, ofp.Envelope{XID: env.XID, Body: ofp.EchoReply{Data: body.Data}})
		return true
	case ofp.Error:
		c.Log.RateLimited("error", "switch error: type=%v code=%s", body.Type, body.Code)
		return false
	default:
		c.Log.RateLimited("unhandled", "unhandled message xid=%d type=%v in state %v", env.XID, env.Type(), c.fsm.state)
		return false
	}
}
