package ofctrl

import (
	"github.com/ovnflow/controller/internal/conntrack"
	"github.com/ovnflow/controller/internal/flowtable"
	"github.com/ovnflow/controller/internal/logging"
)

// TunnelOptClass, TunnelOptType and TunnelOptLen identify the negotiated
// tunnel-metadata option: class 0x0102, type 0x80, length 32, one of 64
// available slots.
const (
	TunnelOptClass = 0x0102
	TunnelOptType  = 0x80
	TunnelOptLen   = 32
)

// MFFTunMetadata0 is the field id reported for slot 0; slot i maps to
// MFFTunMetadata0 + i.
const MFFTunMetadata0 = 1 << 16

// Controller is the explicit context that replaces the source's global
// mutable singletons: every entry point (Tick, Dispatch, Put, Inject)
// takes *Controller instead of touching package-level state.
type Controller struct {
	Transport Transport
	Meters    MeterCatalog
	Bridge    BridgeRecord
	Zones     conntrack.Zones
	Log       logging.Logger

	Flows  *flowtable.Desired
	Inst   *flowtable.Installed
	Groups *flowtable.ExtTable
	Meter  *flowtable.ExtTable

	cfg cfgTracker
	fsm fsmState

	// tunnelOptionEnabled is the operator's configured setting for
	// whether the negotiated tunnel-metadata field id is reported.
	// Reset reseeds fsm.mffEnabled from this value rather than from a
	// hardcoded default, so a transport reconnect cannot silently
	// re-enable an option the operator turned off.
	tunnelOptionEnabled bool

	// currentTarget is the management socket path Run last connected
	// the transport to; Run reconnects when the resolved path changes.
	currentTarget string

	// lastSeenSeqno is the transport's connection-sequence counter as
	// of the last Run call; a change means the transport reconnected
	// underneath us.
	lastSeenSeqno int

	// forceReinstall is set on entering S_CLEAR and cleared after the
	// first successful Put (clear always forces a full reinstall).
	forceReinstall bool

	// putDirty tracks whether anything has changed since the last
	// successful Put, for Put's elision rule.
	putDirty bool
}

// New builds a Controller wired to the given collaborators. Flows, Inst,
// Groups, and Meter are created empty; Groups and Meter are registered
// as flowtable.ExtRemover on Flows so flood-remove and bulk removal
// clean them up too. With tunnelOptionEnabled false the connection
// state machine still runs the tunnel-metadata negotiation and reaches
// S_CLEAR, but GetMFFieldID reports 0.
func New(transport Transport, meters MeterCatalog, bridge BridgeRecord, zones conntrack.Zones, log logging.Logger, tunnelOptionEnabled bool) *Controller {
	flows := flowtable.NewDesired()
	groups := flowtable.NewExtTable(1)
	meterTable := flowtable.NewExtTable(1)
	flows.Externals = []flowtable.ExtRemover{groups, meterTable}

	return &Controller{
		Transport:           transport,
		Meters:              meters,
		Bridge:              bridge,
		Zones:               zones,
		Log:                 log,
		Flows:               flows,
		Inst:                flowtable.NewInstalled(),
		Groups:              groups,
		Meter:               meterTable,
		tunnelOptionEnabled: tunnelOptionEnabled,
		fsm:                 fsmState{state: StateNew, mffEnabled: tunnelOptionEnabled},
	}
}

// GetMFFieldID returns the tunnel-metadata field id callers should embed
// in match/action expressions, or 0 if the option is disabled or the
// connection has not reached a state where the mapping is trustworthy.
func (c *Controller) GetMFFieldID() uint32 {
	switch c.fsm.state {
	case StateClear, StateUpdate:
	default:
		return 0
	}
	if !c.fsm.mffEnabled {
		return 0
	}
	return MFFTunMetadata0 + uint32(c.fsm.mffIndex)
}

// CurCfg returns the highest upstream configuration number fully
// materialized in the switch.
func (c *Controller) CurCfg() uint64 { return c.cfg.curCfg }
