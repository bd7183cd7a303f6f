package ofctrl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ovnflow/controller/internal/conntrack"
	"github.com/ovnflow/controller/internal/logging"
	"github.com/ovnflow/controller/internal/ofctrl"
	"github.com/ovnflow/controller/internal/ofp"
	"github.com/sirupsen/logrus"
)

func newTestController(tr *fakeTransport) *ofctrl.Controller {
	log := logging.New(logrus.New(), logging.Config{})
	return ofctrl.New(tr, fakeMeterCatalog{}, fakeBridge{}, conntrack.NewInMemory(), log, true)
}

func TestNewTickSendsTLVTableRequest(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	c := newTestController(tr)

	require.Equal(t, ofctrl.StateNew, c.State())

	progressed, err := c.Tick(ctx)
	require.NoError(t, err)
	require.True(t, progressed)
	require.Equal(t, ofctrl.StateTLVReq, c.State())
	require.Len(t, tr.sent, 1)
	require.IsType(t, ofp.TLVTableRequest{}, tr.sent[0].Body)
}

func TestTLVReqAdoptsExistingMapping(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	c := newTestController(tr)

	_, err := c.Tick(ctx)
	require.NoError(t, err)
	reqXID := tr.sent[0].XID

	progressed, err := c.Dispatch(ctx, ofp.Envelope{XID: reqXID, Body: ofp.TLVTableReply{
		Mappings: []ofp.TLVTableMap{{OptClass: ofctrl.TunnelOptClass, OptType: ofctrl.TunnelOptType, OptLen: ofctrl.TunnelOptLen, Index: 3}},
	}})
	require.NoError(t, err)
	require.True(t, progressed)
	require.Equal(t, ofctrl.StateClear, c.State())
}

func TestTLVReqAllocatesFreeIndexThenMod(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	c := newTestController(tr)

	_, _ = c.Tick(ctx)
	reqXID := tr.sent[0].XID

	_, err := c.Dispatch(ctx, ofp.Envelope{XID: reqXID, Body: ofp.TLVTableReply{}})
	require.NoError(t, err)
	require.Equal(t, ofctrl.StateTLVMod, c.State())
	require.Len(t, tr.sent, 3) // request, table-mod, barrier

	modBarrierXID := tr.sent[2].XID
	progressed, err := c.Dispatch(ctx, ofp.Envelope{XID: modBarrierXID, Body: ofp.BarrierReply{}})
	require.NoError(t, err)
	require.True(t, progressed)
	require.Equal(t, ofctrl.StateClear, c.State())
}

func TestTLVModRaceReturnsToNew(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	c := newTestController(tr)

	_, _ = c.Tick(ctx)
	reqXID := tr.sent[0].XID
	_, _ = c.Dispatch(ctx, ofp.Envelope{XID: reqXID, Body: ofp.TLVTableReply{}})
	modXID := tr.sent[1].XID

	progressed, err := c.Dispatch(ctx, ofp.Envelope{XID: modXID, Body: ofp.Error{Code: ofp.ErrCodeAlreadyMapped}})
	require.NoError(t, err)
	require.True(t, progressed)
	require.Equal(t, ofctrl.StateNew, c.State())
}

func TestClearTickEmitsDeleteAllAndAdvancesToUpdate(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	c := newTestController(tr)

	_, _ = c.Tick(ctx)
	reqXID := tr.sent[0].XID
	_, _ = c.Dispatch(ctx, ofp.Envelope{XID: reqXID, Body: ofp.Error{Code: "HARD_FAILURE"}})
	require.Equal(t, ofctrl.StateClear, c.State())

	progressed, err := c.Tick(ctx)
	require.NoError(t, err)
	require.True(t, progressed)
	require.Equal(t, ofctrl.StateUpdate, c.State())

	require.IsType(t, ofp.FlowMod{}, tr.sent[1].Body)
	require.Equal(t, ofp.FlowDelete, tr.sent[1].Body.(ofp.FlowMod).Command)
	require.IsType(t, ofp.GroupMod{}, tr.sent[2].Body)
	require.IsType(t, ofp.MeterMod{}, tr.sent[3].Body)
}

// TestTunnelOptionDisabledGatesFieldID drives the same
// allocate-a-free-slot path as TestTLVReqAllocatesFreeIndexThenMod, but
// with the controller configured with the tunnel option disabled: the
// negotiated slot still gets allocated on the wire, yet GetMFFieldID
// must report 0 because mffEnabled was seeded false at New and nothing
// along this path turns it back on.
func TestTunnelOptionDisabledGatesFieldID(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	log := logging.New(logrus.New(), logging.Config{})
	c := ofctrl.New(tr, fakeMeterCatalog{}, fakeBridge{}, conntrack.NewInMemory(), log, false)

	_, _ = c.Tick(ctx)
	reqXID := tr.sent[0].XID
	_, err := c.Dispatch(ctx, ofp.Envelope{XID: reqXID, Body: ofp.TLVTableReply{}})
	require.NoError(t, err)
	require.Equal(t, ofctrl.StateTLVMod, c.State())

	modBarrierXID := tr.sent[2].XID
	_, err = c.Dispatch(ctx, ofp.Envelope{XID: modBarrierXID, Body: ofp.BarrierReply{}})
	require.NoError(t, err)
	require.Equal(t, ofctrl.StateClear, c.State())
	require.Equal(t, uint32(0), c.GetMFFieldID())
}

func TestGenericDispatchAnswersEcho(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	c := newTestController(tr)

	progressed, err := c.Dispatch(ctx, ofp.Envelope{XID: 99, Body: ofp.EchoRequest{Data: []byte("ping")}})
	require.NoError(t, err)
	require.True(t, progressed)

	require.Len(t, tr.sent, 1)
	reply, ok := tr.sent[0].Body.(ofp.EchoReply)
	require.True(t, ok)
	require.Equal(t, []byte("ping"), reply.Data)
	require.Equal(t, uint32(99), tr.sent[0].XID)
}
