package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/binkit/archive"
	"github.com/joshuapare/binkit/pkg/types"
)

func TestRecord_PointerPlacements(t *testing.T) {
	node := MustTypeDefinition("Node", []Field{
		NewRecord(RecordDesc{Meta: id("a"), Typename: "Leaf", Placement: Pointer{}}),
		NewRecord(RecordDesc{Meta: id("b"), Typename: "Leaf", Placement: SharedPointer{}}),
		NewRecord(RecordDesc{Meta: id("c"), Typename: "Leaf", Placement: SharedPointer{}}),
		NewRecord(RecordDesc{Meta: id("d"), Typename: "Leaf", Placement: InlinePointer{}}),
		NewRecord(RecordDesc{Meta: id("e"), Typename: "Leaf", Placement: Pointer{DeferWrite: true}}),
		NewInt(IntDesc{Meta: id("tail"), Format: U8}),
	}, TypeOptions{})
	ts := newTestTypes(t, intItem("Leaf", I32), node)
	store := ts.AllocateStore()

	n, err := ts.New(store, "Node")
	require.NoError(t, err)
	leaf := func(v int64) types.RecordID {
		rid, err := ts.New(store, "Leaf")
		require.NoError(t, err)
		require.NoError(t, ts.SetInt(rid, "v", v))
		return rid
	}
	shared := leaf(2)
	for fid, rid := range map[string]types.RecordID{"a": leaf(1), "b": shared, "c": shared, "d": leaf(3), "e": leaf(4)} {
		_, err := ts.SetRecord(n, fid, rid)
		require.NoError(t, err)
	}
	require.NoError(t, ts.SetInt(n, "tail", 9))

	arc, err := WriteArchive(ts, n, Policy{})
	require.NoError(t, err)
	require.Equal(t, 37, arc.Size())
	for slot, want := range map[int]int{0: 25, 4: 29, 8: 29, 12: 16, 20: 33} {
		got, ok := arc.Pointer(slot)
		require.True(t, ok, "slot 0x%x", slot)
		assert.Equal(t, want, got, "slot 0x%x", slot)
	}

	_, back := roundTrip(t, ts, n)
	for fid, want := range map[string]int64{"a": 1, "b": 2, "c": 2, "d": 3, "e": 4} {
		child, err := ts.GetRecord(back, fid)
		require.NoError(t, err)
		v, err := ts.GetInt(child, "v")
		require.NoError(t, err)
		assert.Equal(t, want, v, fid)
	}
	b, _ := ts.GetRecord(back, "b")
	c, _ := ts.GetRecord(back, "c")
	assert.Equal(t, b, c, "shared pointee read once")
	tail, err := ts.GetInt(back, "tail")
	require.NoError(t, err)
	assert.Equal(t, int64(9), tail)
}

func TestRecord_NullPointer(t *testing.T) {
	ts := newTestTypes(t, intItem("Leaf", I32), MustTypeDefinition("Node", []Field{
		NewRecord(RecordDesc{Meta: id("p"), Typename: "Leaf", Placement: Pointer{}}),
	}, TypeOptions{}))
	n, err := ts.New(ts.AllocateStore(), "Node")
	require.NoError(t, err)

	arc, back := roundTrip(t, ts, n)
	assert.Equal(t, 4, arc.Size())
	child, err := ts.GetRecord(back, "p")
	require.NoError(t, err)
	assert.True(t, child.IsNull())
}

func TestRecord_DeferToParent(t *testing.T) {
	inner := MustTypeDefinition("Inner", []Field{
		NewRecord(RecordDesc{Meta: id("p"), Typename: "Leaf", Placement: Pointer{DeferWrite: true, DeferToParent: true}}),
	}, TypeOptions{})
	outer := MustTypeDefinition("Outer", []Field{
		NewRecord(RecordDesc{Meta: id("inner"), Typename: "Inner", Placement: Pointer{}}),
		NewRecord(RecordDesc{Meta: id("own"), Typename: "Leaf", Placement: Pointer{}}),
	}, TypeOptions{})
	ts := newTestTypes(t, intItem("Leaf", U8), inner, outer)
	store := ts.AllocateStore()

	o, _ := ts.New(store, "Outer")
	in, _ := ts.New(store, "Inner")
	l1, _ := ts.New(store, "Leaf")
	l2, _ := ts.New(store, "Leaf")
	require.NoError(t, ts.SetInt(l1, "v", 1))
	require.NoError(t, ts.SetInt(l2, "v", 2))
	_, err := ts.SetRecord(o, "inner", in)
	require.NoError(t, err)
	_, err = ts.SetRecord(o, "own", l2)
	require.NoError(t, err)
	_, err = ts.SetRecord(in, "p", l1)
	require.NoError(t, err)

	// Outer(8) Inner(4) Leaf2(1) Leaf1(1): the deferred leaf follows
	// everything Outer writes itself.
	arc, err := WriteArchive(ts, o, Policy{})
	require.NoError(t, err)
	require.Equal(t, 14, arc.Size())
	target, ok := arc.Pointer(8)
	require.True(t, ok)
	assert.Equal(t, 13, target)
	v, err := arc.ReadU8(13)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), v)
}

func TestRecord_ConditionalInline(t *testing.T) {
	holder := MustTypeDefinition("Holder", []Field{
		NewBool(BoolDesc{Meta: id("has"), Condition: "hasExtra"}),
		NewRecord(RecordDesc{Meta: id("extra"), Typename: "Extra", Placement: ConditionalInline{Flag: "hasExtra"}}),
		NewInt(IntDesc{Meta: id("tail"), Format: U8}),
	}, TypeOptions{})
	ts := newTestTypes(t, intItem("Extra", U16), holder)
	store := ts.AllocateStore()

	t.Run("present", func(t *testing.T) {
		h, _ := ts.New(store, "Holder")
		e, _ := ts.New(store, "Extra")
		require.NoError(t, ts.SetInt(e, "v", 0x0102))
		require.NoError(t, ts.SetBool(h, "has", true))
		_, err := ts.SetRecord(h, "extra", e)
		require.NoError(t, err)
		require.NoError(t, ts.SetInt(h, "tail", 7))

		arc, err := WriteArchive(ts, h, Policy{})
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 1, 7}, arc.Bytes())

		_, back := roundTrip(t, ts, h)
		extra, err := ts.GetRecord(back, "extra")
		require.NoError(t, err)
		v, err := ts.GetInt(extra, "v")
		require.NoError(t, err)
		assert.Equal(t, int64(0x0102), v)
	})

	t.Run("absent", func(t *testing.T) {
		h, _ := ts.New(store, "Holder")
		arc, back := roundTrip(t, ts, h)
		assert.Equal(t, 2, arc.Size())
		extra, err := ts.GetRecord(back, "extra")
		require.NoError(t, err)
		assert.True(t, extra.IsNull())
	})

	t.Run("mismatch", func(t *testing.T) {
		h, _ := ts.New(store, "Holder")
		e, _ := ts.New(store, "Extra")
		_, err := ts.SetRecord(h, "extra", e)
		require.NoError(t, err)
		_, err = WriteArchive(ts, h, Policy{})
		require.ErrorIs(t, err, ErrConditionMismatch)
		assert.Equal(t, types.ErrKindFormatContract, types.KindOf(err))
	})
}

func TestRecord_LabelAppendAndAppend(t *testing.T) {
	holder := MustTypeDefinition("Holder", []Field{
		NewInt(IntDesc{Meta: id("x"), Format: U8}),
		NewRecord(RecordDesc{Meta: id("rec"), Typename: "Extra", Placement: LabelAppend{Label: "EXTRA", Offset: 4}}),
		NewRecord(RecordDesc{Meta: id("pad"), Typename: "Extra", Placement: Append{}}),
	}, TypeOptions{})
	ts := newTestTypes(t, intItem("Extra", U16), holder)
	store := ts.AllocateStore()

	h, _ := ts.New(store, "Holder")
	e, _ := ts.New(store, "Extra")
	require.NoError(t, ts.SetInt(e, "v", 0x3344))
	_, err := ts.SetRecord(h, "rec", e)
	require.NoError(t, err)

	arc, back := roundTrip(t, ts, h)
	assert.Equal(t, 1+4+2+2, arc.Size())
	addr, ok := arc.FindLabel("EXTRA")
	require.True(t, ok)
	assert.Equal(t, 1, addr)

	rec, err := ts.GetRecord(back, "rec")
	require.NoError(t, err)
	v, err := ts.GetInt(rec, "v")
	require.NoError(t, err)
	assert.Equal(t, int64(0x3344), v)
	pad, err := ts.GetRecord(back, "pad")
	require.NoError(t, err)
	assert.True(t, pad.IsNull())
}

func TestRecord_InlineRequiresValue(t *testing.T) {
	ts := newTestTypes(t, intItem("Leaf", U8), MustTypeDefinition("Node", []Field{
		NewRecord(RecordDesc{Meta: id("leaf"), Typename: "Leaf"}),
	}, TypeOptions{}))
	rec, err := ts.Instantiate("Node")
	require.NoError(t, err)
	n := ts.Register(ts.AllocateStore(), rec)

	_, err = WriteArchive(ts, n, Policy{})
	require.ErrorIs(t, err, ErrValueRequired)
}

func TestRecord_LabelAppendRequiresValue(t *testing.T) {
	ts := newTestTypes(t, intItem("Tail", U8), MustTypeDefinition("Root", []Field{
		NewInt(IntDesc{Meta: id("x"), Format: U8}),
		NewRecord(RecordDesc{Meta: id("tail"), Typename: "Tail", Placement: LabelAppend{Label: "L"}}),
	}, TypeOptions{}))
	root, err := ts.New(ts.AllocateStore(), "Root")
	require.NoError(t, err)

	_, err = WriteArchive(ts, root, Policy{})
	require.ErrorIs(t, err, ErrValueRequired)
	assert.Equal(t, types.ErrKindFormatContract, types.KindOf(err))
}

func TestRecord_ReadFailureRollsBack(t *testing.T) {
	outer := MustTypeDefinition("Outer", []Field{
		NewRecord(RecordDesc{Meta: id("inner"), Typename: "Inner"}),
		NewInt(IntDesc{Meta: id("more"), Format: U32}),
	}, TypeOptions{})
	ts := newTestTypes(t, intItem("Inner", U32), outer)

	a := archive.New()
	require.NoError(t, a.Allocate(0, 6, false))
	_, err := ReadArchive(ts, NewReadReferences(), a, ts.AllocateStore(), "Outer")
	require.Error(t, err)
	assert.Equal(t, types.ErrKindBounds, types.KindOf(err))
	assert.Equal(t, 0, ts.Len(), "no records survive a failed read")

	var fe *types.FrameError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Outer", fe.Typename)
	assert.Equal(t, "more", fe.Field)
	assert.Equal(t, 4, fe.Offset)
}

func TestRecord_StringFormats(t *testing.T) {
	def := MustTypeDefinition("Named", []Field{
		NewString(StringDesc{Meta: id("ptr")}),
		NewString(StringDesc{Meta: id("inline"), InlineSize: 8}),
		NewMessage(MessageDesc{Meta: id("msg"), Path: "msg/items"}),
	}, TypeOptions{KeyField: "ptr", DisplayField: "inline"})
	ts := newTestTypes(t, def)

	n, _ := ts.New(ts.AllocateStore(), "Named")
	require.NoError(t, ts.SetString(n, "ptr", "IID_鉄の剣"))
	require.NoError(t, ts.SetString(n, "inline", "sword"))
	require.NoError(t, ts.SetMessage(n, "msg", "MSG_SWORD"))

	arc, back := roundTrip(t, ts, n)
	assert.Equal(t, 16, arc.Size())
	for fid, want := range map[string]string{"ptr": "IID_鉄の剣", "inline": "sword"} {
		got, err := ts.GetString(back, fid)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	msg, err := ts.GetMessage(back, "msg")
	require.NoError(t, err)
	assert.Equal(t, "MSG_SWORD", msg)

	name, err := ts.DisplayName(back)
	require.NoError(t, err)
	assert.Equal(t, "sword", name)

	require.NoError(t, ts.SetString(n, "inline", "a very long name"))
	_, err = WriteArchive(ts, n, Policy{})
	assert.Equal(t, types.ErrKindBounds, types.KindOf(err))
}
