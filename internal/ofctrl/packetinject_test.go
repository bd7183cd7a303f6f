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

func TestInjectSendsPacketOutResubmitToTable0(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	log := logging.New(logrus.New(), logging.Config{})
	bridge := fakeBridge{ports: map[string]uint32{"vif-1": 7}}
	c := ofctrl.New(tr, fakeMeterCatalog{}, bridge, conntrack.NewInMemory(), log, true)

	d := ofctrl.MicroflowDescriptor{
		Dst:       [6]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06},
		Src:       [6]byte{0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f},
		EtherType: 0x0800,
	}
	err := c.Inject(ctx, "vif-1", d)
	require.NoError(t, err)

	require.Len(t, tr.sent, 1)
	po, ok := tr.sent[0].Body.(ofp.PacketOut)
	require.True(t, ok)
	require.Equal(t, uint32(7), po.InPort)
	require.Equal(t, ofp.NoBuffer, po.BufferID)
	require.Equal(t, ofp.EncodeActions(ofp.ActionResubmit{Table: 0, InPort: true}), po.Actions)

	require.Len(t, po.Data, 64)
	require.Equal(t, d.Dst[:], po.Data[0:6])
	require.Equal(t, d.Src[:], po.Data[6:12])
	require.Equal(t, byte(0x08), po.Data[12])
	require.Equal(t, byte(0x00), po.Data[13])
	for _, b := range po.Data[14:] {
		require.Equal(t, byte(0), b)
	}
}

func TestInjectUnknownIfaceIDReturnsErrorWithoutSending(t *testing.T) {
	ctx := context.Background()
	tr := newFakeTransport()
	log := logging.New(logrus.New(), logging.Config{})
	bridge := fakeBridge{ports: map[string]uint32{}}
	c := ofctrl.New(tr, fakeMeterCatalog{}, bridge, conntrack.NewInMemory(), log, true)

	err := c.Inject(ctx, "missing-vif", ofctrl.MicroflowDescriptor{})
	require.Error(t, err)
	require.Empty(t, tr.sent)
}
