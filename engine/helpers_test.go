package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/binkit/archive"
	"github.com/joshuapare/binkit/pkg/types"
)

func id(s string) Meta { return Meta{ID: s} }

func newTestTypes(t *testing.T, defs ...*TypeDefinition) *Types {
	t.Helper()
	ts, err := NewTypes(defs...)
	require.NoError(t, err)
	require.NoError(t, ts.Validate())
	return ts
}

// roundTrip writes rid, serializes, reparses and reads the result into a
// fresh store of the same registry.
func roundTrip(t *testing.T, ts *Types, rid types.RecordID) (*archive.Archive, types.RecordID) {
	t.Helper()
	arc, err := WriteArchive(ts, rid, Policy{StrictWritePointers: true})
	require.NoError(t, err)
	raw, err := arc.Serialize()
	require.NoError(t, err)
	back, err := archive.FromBytes(raw)
	require.NoError(t, err)

	typename, err := ts.Typename(rid)
	require.NoError(t, err)
	refs := NewReadReferences()
	out, err := ReadArchive(ts, refs, back, ts.AllocateStore(), typename)
	require.NoError(t, err)
	_, err = refs.Resolve(ts, Policy{})
	require.NoError(t, err)
	return back, out
}

func intItem(name string, f IntFormat) *TypeDefinition {
	return MustTypeDefinition(name, []Field{
		NewInt(IntDesc{Meta: id("v"), Format: f}),
	}, TypeOptions{})
}

func listValues(t *testing.T, ts *Types, rid types.RecordID, fid string) []int64 {
	t.Helper()
	items, err := ts.ListItems(rid, fid)
	require.NoError(t, err)
	out := make([]int64, 0, len(items))
	for _, it := range items {
		v, err := ts.GetInt(it, "v")
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func addItems(t *testing.T, ts *Types, rid types.RecordID, fid string, vals ...int64) {
	t.Helper()
	for _, v := range vals {
		it, err := ts.ListAdd(rid, fid)
		require.NoError(t, err)
		require.NoError(t, ts.SetInt(it, "v", v))
	}
}
