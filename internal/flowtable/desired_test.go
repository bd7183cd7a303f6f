package flowtable_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ovnflow/controller/internal/flowtable"
	"github.com/ovnflow/controller/internal/ofp"
)

func key(priority uint16, fields string) flowtable.Key {
	return flowtable.Key{TableID: 0, Priority: priority, Match: ofp.OXMMatch{Fields: []byte(fields)}}
}

func val(actions string, cookie uint64) flowtable.Value {
	return flowtable.Value{Actions: []byte(actions), Cookie: cookie}
}

// scenario 2: duplicate add.
func TestAddDuplicateIsIdempotent(t *testing.T) {
	d := flowtable.NewDesired()
	sb := uuid.New()
	k := key(100, "m1")

	var dupLogged int
	logDup := func(flowtable.Key, uuid.UUID) { dupLogged++ }

	first := d.Add(k, val("a1", 1), sb, logDup)
	second := d.Add(k, val("a1", 1), sb, logDup)

	require.Same(t, first, second)
	require.Equal(t, 1, dupLogged)
	require.Len(t, d.All(), 1)
	require.Len(t, first.Sources(), 1)
}

// P7: add(k, sb) twice leaves the table bit-identical.
func TestAddIdempotentP7(t *testing.T) {
	d := flowtable.NewDesired()
	sb := uuid.New()
	k := key(100, "m1")

	d.Add(k, val("a1", 1), sb, nil)
	before := d.All()
	d.Add(k, val("a1", 1), sb, nil)
	after := d.All()

	require.Equal(t, before, after)
}

// scenario 3: shared key from two sources.
func TestSharedKeyTwoSources(t *testing.T) {
	d := flowtable.NewDesired()
	sb1, sb2 := uuid.New(), uuid.New()
	k := key(100, "m1")

	f1 := d.Add(k, val("a1", 1), sb1, nil)
	f2 := d.Add(k, val("a2", 2), sb2, nil)

	require.NotSame(t, f1, f2)
	require.Len(t, d.ByKey(k), 2)

	d.RemoveBySource(sb1)
	require.Len(t, d.ByKey(k), 1)
	require.Equal(t, d.ByKey(k)[0], f2)
}

// P8: add_or_append concatenates in call order, existing first.
func TestAddOrAppendConcatenatesP8(t *testing.T) {
	d := flowtable.NewDesired()
	sb1, sb2 := uuid.New(), uuid.New()
	k := key(100, "m1")

	f := d.AddOrAppend(k, val("AAAA", 1), sb1)
	f2 := d.AddOrAppend(k, val("BBBB", 1), sb2)

	require.Same(t, f, f2)
	require.Equal(t, []byte("AAAABBBB"), f.Value.Actions)
	require.Contains(t, f.Sources(), sb1)
	require.Contains(t, f.Sources(), sb2)
}

// scenario 4: flood remove cascades through shared sources, unrelated
// flows survive.
func TestFloodRemoveCascades(t *testing.T) {
	d := flowtable.NewDesired()
	sbA, sbB, sbC := uuid.New(), uuid.New(), uuid.New()

	// F1 referenced by both sbA and sbB: add it for sbA, then again for
	// sbB via AddOrAppend so both land on the same flow instance.
	f1 := d.Add(key(1, "f1"), val("x", 0), sbA, nil)
	d.AddOrAppend(key(1, "f1"), val("", 0), sbB)

	f2 := d.Add(key(2, "f2"), val("y", 0), sbB, nil)
	f3 := d.Add(key(3, "f3"), val("z", 0), sbC, nil)

	d.FloodRemove([]uuid.UUID{sbA})

	require.Empty(t, d.ByKey(f1.Key))
	require.Empty(t, d.ByKey(f2.Key))
	require.Len(t, d.ByKey(f3.Key), 1)
	require.Equal(t, f3, d.ByKey(f3.Key)[0])
}

// P3: no orphans — a source removal that empties a flow's reference set
// destroys it outright; the table should report zero entries for that
// key afterward.
func TestRemoveBySourceDestroysOrphans(t *testing.T) {
	d := flowtable.NewDesired()
	sb := uuid.New()
	k := key(5, "only")

	d.Add(k, val("a", 0), sb, nil)
	d.RemoveBySource(sb)

	require.Empty(t, d.ByKey(k))
	require.Empty(t, d.All())
}

func TestClearRemovesEverySource(t *testing.T) {
	d := flowtable.NewDesired()
	sb1, sb2 := uuid.New(), uuid.New()

	d.Add(key(1, "a"), val("a", 0), sb1, nil)
	d.Add(key(2, "b"), val("b", 0), sb2, nil)

	d.Clear()

	require.Empty(t, d.All())
}
