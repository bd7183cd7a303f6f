package flowtable_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ovnflow/controller/internal/flowtable"
)

func TestExtTableAddDesiredAllocatesIDOncePerName(t *testing.T) {
	tbl := flowtable.NewExtTable(1)
	sbA, sbB := uuid.New(), uuid.New()

	e1 := tbl.AddDesired("group-a", sbA)
	e2 := tbl.AddDesired("group-a", sbB)

	require.Same(t, e1, e2)
	require.Equal(t, uint32(1), e1.ID)

	e3 := tbl.AddDesired("group-b", sbA)
	require.Equal(t, uint32(2), e3.ID)
}

func TestExtTableUninstalledThenSyncMarksExisting(t *testing.T) {
	tbl := flowtable.NewExtTable(1)
	sb := uuid.New()
	tbl.AddDesired("group-a", sb)

	require.Len(t, tbl.Uninstalled(), 1)

	tbl.Sync()
	require.Empty(t, tbl.Uninstalled())
}

func TestExtTableRemoveBySourceDropsEntryWithNoRemainingSources(t *testing.T) {
	tbl := flowtable.NewExtTable(1)
	sbA, sbB := uuid.New(), uuid.New()
	tbl.AddDesired("group-a", sbA)
	tbl.AddDesired("group-a", sbB)

	tbl.RemoveBySource(sbA)
	_, ok := tbl.Lookup("group-a")
	require.True(t, ok, "group-a should still be desired by sbB")

	tbl.RemoveBySource(sbB)
	_, ok = tbl.Lookup("group-a")
	require.False(t, ok, "group-a should be gone once its last source is removed")
}

func TestExtTableStaleInstalledAfterDesiredRemoved(t *testing.T) {
	tbl := flowtable.NewExtTable(1)
	sb := uuid.New()
	e := tbl.AddDesired("group-a", sb)
	tbl.Sync()

	require.Empty(t, tbl.StaleInstalled())

	tbl.RemoveBySource(sb)
	stale := tbl.StaleInstalled()
	require.Len(t, stale, 1)
	require.Equal(t, e.ID, stale[0].ID)

	tbl.DropExisting(stale[0])
	require.Empty(t, tbl.StaleInstalled())
}

func TestExtTableClearExistingKeepsDesired(t *testing.T) {
	tbl := flowtable.NewExtTable(1)
	sb := uuid.New()
	tbl.AddDesired("group-a", sb)
	tbl.Sync()
	require.Empty(t, tbl.Uninstalled())

	tbl.ClearExisting()
	require.Len(t, tbl.Uninstalled(), 1, "clearing existing state should make the desired entry look uninstalled again")
}
