package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/binkit/pkg/types"
)

func ownerDefs() []*TypeDefinition {
	return []*TypeDefinition{
		MustTypeDefinition("Child", []Field{
			NewInt(IntDesc{Meta: id("v"), Format: I32}),
			NewRecord(RecordDesc{Meta: id("sub"), Typename: "Sub", Placement: Pointer{}}),
		}, TypeOptions{}),
		intItem("Sub", U8),
		MustTypeDefinition("Parent", []Field{
			NewString(StringDesc{Meta: id("name")}),
			NewInt(IntDesc{Meta: id("secret"), Format: U8}),
			NewRecord(RecordDesc{Meta: id("child"), Typename: "Child", Placement: Pointer{}}),
			NewReference(ReferenceDesc{Meta: id("friend")}),
		}, TypeOptions{KeyField: "name", CopyExcluded: []string{"secret"}}),
	}
}

func TestTypes_RegisterAllocatesMonotonically(t *testing.T) {
	ts := newTestTypes(t, ownerDefs()...)
	s1, s2 := ts.AllocateStore(), ts.AllocateStore()
	require.NotEqual(t, s1, s2)

	a, _ := ts.New(s1, "Sub")
	b, _ := ts.New(s1, "Sub")
	c, _ := ts.New(s2, "Sub")
	assert.Equal(t, types.RecordID{Store: s1, Number: 1}, a)
	assert.Equal(t, types.RecordID{Store: s1, Number: 2}, b)
	assert.Equal(t, types.RecordID{Store: s2, Number: 1}, c)

	require.NoError(t, ts.Delete(b))
	d, _ := ts.New(s1, "Sub")
	assert.Equal(t, uint32(3), d.Number, "numbers are never reused")
	assert.Equal(t, []types.RecordID{a, d}, ts.Instances(s1))

	_, err := ts.Instantiate("Nope")
	assert.Equal(t, types.ErrKindSchema, types.KindOf(err))
}

func TestTypes_OwnershipTransfer(t *testing.T) {
	ts := newTestTypes(t, ownerDefs()...)
	s1, s2 := ts.AllocateStore(), ts.AllocateStore()

	p, _ := ts.New(s1, "Parent")
	c, _ := ts.New(s2, "Child")
	sub, _ := ts.New(s2, "Sub")
	require.NoError(t, ts.SetInt(c, "v", 5))
	require.NoError(t, ts.SetInt(sub, "v", 6))
	_, err := ts.SetRecord(c, "sub", sub)
	require.NoError(t, err)

	moved, err := ts.SetRecord(p, "child", c)
	require.NoError(t, err)
	assert.Equal(t, s1, moved.Store)
	assert.NotEqual(t, c, moved)

	got, err := ts.GetRecord(p, "child")
	require.NoError(t, err)
	assert.Equal(t, moved, got)
	v, err := ts.GetInt(moved, "v")
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)

	_, err = ts.Record(c)
	assert.Equal(t, types.ErrKindState, types.KindOf(err), "old id no longer resolves")

	movedSub, err := ts.GetRecord(moved, "sub")
	require.NoError(t, err)
	assert.Equal(t, s1, movedSub.Store, "owned sub-graph follows")
	assert.False(t, ts.Exists(sub))
	assert.Empty(t, ts.Instances(s2))
}

func TestTypes_ReferenceAssignmentDoesNotTransfer(t *testing.T) {
	ts := newTestTypes(t, ownerDefs()...)
	s1, s2 := ts.AllocateStore(), ts.AllocateStore()
	p, _ := ts.New(s1, "Parent")
	other, _ := ts.New(s2, "Parent")

	require.NoError(t, ts.SetReference(p, "friend", other))
	got, err := ts.GetReference(p, "friend")
	require.NoError(t, err)
	assert.Equal(t, other, got)
	assert.True(t, ts.Exists(other))
}

func TestTypes_SetRecordTypeMismatch(t *testing.T) {
	ts := newTestTypes(t, ownerDefs()...)
	s := ts.AllocateStore()
	p, _ := ts.New(s, "Parent")
	sub, _ := ts.New(s, "Sub")
	_, err := ts.SetRecord(p, "child", sub)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestTypes_CopyAndDuplicate(t *testing.T) {
	ts := newTestTypes(t, ownerDefs()...)
	s1, s2 := ts.AllocateStore(), ts.AllocateStore()

	src, _ := ts.New(s1, "Parent")
	child, _ := ts.New(s1, "Child")
	require.NoError(t, ts.SetInt(child, "v", 77))
	_, err := ts.SetRecord(src, "child", child)
	require.NoError(t, err)
	require.NoError(t, ts.SetString(src, "name", "hero"))
	require.NoError(t, ts.SetInt(src, "secret", 1))

	dst, _ := ts.New(s2, "Parent")
	require.NoError(t, ts.SetInt(dst, "secret", 9))
	require.NoError(t, ts.Copy(src, dst))

	name, _ := ts.GetString(dst, "name")
	assert.Equal(t, "hero", name)
	secret, _ := ts.GetInt(dst, "secret")
	assert.Equal(t, int64(9), secret, "copy-excluded field kept")

	dchild, err := ts.GetRecord(dst, "child")
	require.NoError(t, err)
	assert.Equal(t, s2, dchild.Store)
	assert.NotEqual(t, child, dchild)
	v, _ := ts.GetInt(dchild, "v")
	assert.Equal(t, int64(77), v)

	dup, err := ts.Duplicate(src, s2)
	require.NoError(t, err)
	secret, _ = ts.GetInt(dup, "secret")
	assert.Equal(t, int64(1), secret)

	sub, _ := ts.New(s1, "Sub")
	assert.ErrorIs(t, ts.Copy(sub, dst), ErrTypeMismatch)
}

func TestTypes_DeleteStore(t *testing.T) {
	ts := newTestTypes(t, intItem("Item", U8), MustTypeDefinition("Box", []Field{
		NewList(ListDesc{Meta: id("items"), Typename: "Item", Count: AllRemaining{}}),
	}, TypeOptions{}))
	gone, kept := ts.AllocateStore(), ts.AllocateStore()
	a, err := ts.New(gone, "Box")
	require.NoError(t, err)
	_, err = ts.ListAdd(a, "items")
	require.NoError(t, err)
	b, err := ts.New(kept, "Box")
	require.NoError(t, err)
	require.NoError(t, ts.RegisterTable("A", a, "items"))
	require.NoError(t, ts.RegisterTable("B", b, "items"))

	assert.Equal(t, 2, ts.DeleteStore(gone))
	assert.Empty(t, ts.Instances(gone))
	assert.True(t, ts.Exists(b))
	_, err = ts.TableItems("A")
	require.ErrorIs(t, err, ErrNoTable)
	_, err = ts.TableItems("B")
	require.NoError(t, err)
}

func TestTypes_DeleteTree(t *testing.T) {
	ts := newTestTypes(t, ownerDefs()...)
	s := ts.AllocateStore()
	p, _ := ts.New(s, "Parent")
	c, _ := ts.New(s, "Child")
	sub, _ := ts.New(s, "Sub")
	_, err := ts.SetRecord(c, "sub", sub)
	require.NoError(t, err)
	_, err = ts.SetRecord(p, "child", c)
	require.NoError(t, err)

	require.NoError(t, ts.DeleteTree(p))
	assert.Equal(t, 0, ts.Len())
	assert.Error(t, ts.Delete(p))
}

func TestTypes_ListOpsRenumber(t *testing.T) {
	item := MustTypeDefinition("Item", []Field{
		NewInt(IntDesc{Meta: id("idx"), Format: U8}),
		NewInt(IntDesc{Meta: id("v"), Format: U8}),
	}, TypeOptions{IndexField: "idx"})
	ts := newTestTypes(t, item, MustTypeDefinition("Holder", []Field{
		NewList(ListDesc{Meta: id("items"), Typename: "Item", Count: AllRemaining{}}),
	}, TypeOptions{}))
	s := ts.AllocateStore()
	h, _ := ts.New(s, "Holder")
	addItems(t, ts, h, "items", 10, 11, 12)

	indexes := func() []int64 {
		items, err := ts.ListItems(h, "items")
		require.NoError(t, err)
		var out []int64
		for _, it := range items {
			v, err := ts.GetInt(it, "idx")
			require.NoError(t, err)
			out = append(out, v)
		}
		return out
	}
	assert.Equal(t, []int64{0, 1, 2}, indexes())

	require.NoError(t, ts.ListSwap(h, "items", 0, 2))
	assert.Equal(t, []int64{12, 11, 10}, listValues(t, ts, h, "items"))
	assert.Equal(t, []int64{0, 1, 2}, indexes())

	removed, err := ts.ListRemove(h, "items", 0)
	require.NoError(t, err)
	assert.True(t, ts.Exists(removed))
	assert.Equal(t, []int64{11, 10}, listValues(t, ts, h, "items"))
	assert.Equal(t, []int64{0, 1}, indexes())

	_, err = ts.ListInsert(h, "items", 1, removed)
	require.NoError(t, err)
	assert.Equal(t, []int64{11, 12, 10}, listValues(t, ts, h, "items"))
	assert.Equal(t, []int64{0, 1, 2}, indexes())

	n, err := ts.ListLen(h, "items")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = ts.ListRemove(h, "items", 3)
	assert.Equal(t, types.ErrKindBounds, types.KindOf(err))
	err = ts.ListSwap(h, "items", -1, 0)
	assert.Equal(t, types.ErrKindBounds, types.KindOf(err))

	_, err = ts.ListLen(h, "nope")
	assert.Equal(t, types.ErrKindSchema, types.KindOf(err))
	_, err = ts.ListItems(removed, "v")
	assert.ErrorIs(t, err, types.ErrFieldKind)
}

func TestTypes_ScalarAccessors(t *testing.T) {
	def := MustTypeDefinition("All", []Field{
		NewBool(BoolDesc{Meta: id("flag")}),
		NewInt(IntDesc{Meta: id("small"), Format: U8}),
		NewFloat(FloatDesc{Meta: id("f"), Default: 1.5}),
		NewBytes(BytesDesc{Meta: id("raw"), Size: 3}),
		NewLabel(LabelDesc{Meta: id("lbl")}),
	}, TypeOptions{IconField: "lbl"})
	ts := newTestTypes(t, def)
	rid, _ := ts.New(ts.AllocateStore(), "All")

	f, err := ts.GetFloat(rid, "f")
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f)

	lo, hi, err := ts.IntRange(rid, "small")
	require.NoError(t, err)
	assert.Equal(t, [2]int64{0, 255}, [2]int64{lo, hi})
	assert.Equal(t, types.ErrKindBounds, types.KindOf(ts.SetInt(rid, "small", 256)))

	require.NoError(t, ts.SetByte(rid, "raw", 2, 0xAB))
	b, err := ts.GetByte(rid, "raw", 2)
	require.NoError(t, err)
	assert.Equal(t, byte(0xAB), b)
	_, err = ts.GetByte(rid, "raw", 3)
	assert.Equal(t, types.ErrKindBounds, types.KindOf(err))
	assert.Error(t, ts.SetBytes(rid, "raw", []byte{1}))

	require.NoError(t, ts.SetBool(rid, "flag", true))
	flag, _ := ts.GetBool(rid, "flag")
	assert.True(t, flag)

	require.NoError(t, ts.SetLabel(rid, "lbl", "icon_sword"))
	icon, err := ts.Icon(rid)
	require.NoError(t, err)
	assert.Equal(t, "icon_sword", icon)

	kind, err := ts.FieldKind(rid, "raw")
	require.NoError(t, err)
	assert.Equal(t, KindBytes, kind)

	_, err = ts.GetBool(rid, "small")
	assert.ErrorIs(t, err, types.ErrFieldKind)

	name, err := ts.DisplayName(rid)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("All %s", rid), name)
}

type mapTextTable map[string]string

func (m mapTextTable) Text(path string, localized bool, key string) (string, error) {
	return m[fmt.Sprintf("%s/%t/%s", path, localized, key)], nil
}

func (m mapTextTable) SetText(path string, localized bool, key, text string) error {
	m[fmt.Sprintf("%s/%t/%s", path, localized, key)] = text
	return nil
}

func TestTypes_MessageText(t *testing.T) {
	ts := newTestTypes(t, MustTypeDefinition("Msg", []Field{
		NewMessage(MessageDesc{Meta: id("m"), Path: "m/items", Localized: true}),
	}, TypeOptions{}))
	rid, _ := ts.New(ts.AllocateStore(), "Msg")
	require.NoError(t, ts.SetMessage(rid, "m", "MID_SWORD"))

	_, err := ts.MessageText(rid, "m")
	require.ErrorIs(t, err, ErrNoTextTable)

	tt := mapTextTable{}
	ts.SetTextTable(tt)
	require.NoError(t, ts.SetMessageText(rid, "m", "Iron Sword"))
	assert.Equal(t, "Iron Sword", tt["m/items/true/MID_SWORD"])
	text, err := ts.MessageText(rid, "m")
	require.NoError(t, err)
	assert.Equal(t, "Iron Sword", text)
}

func TestTypes_Validate(t *testing.T) {
	t.Run("unknown list type", func(t *testing.T) {
		ts, err := NewTypes(MustTypeDefinition("Holder", []Field{
			NewList(ListDesc{Meta: id("items"), Typename: "Ghost", Count: Static{Count: 1}}),
		}, TypeOptions{}))
		require.NoError(t, err)
		assert.ErrorIs(t, ts.Validate(), types.ErrUndefinedType)
	})
	t.Run("fields exceed size", func(t *testing.T) {
		ts, err := NewTypes(MustTypeDefinition("Small", []Field{
			NewInt(IntDesc{Meta: id("v"), Format: U32}),
		}, TypeOptions{Size: 2}))
		require.NoError(t, err)
		assert.ErrorIs(t, ts.Validate(), ErrSize)
	})
	t.Run("self inline", func(t *testing.T) {
		ts, err := NewTypes(MustTypeDefinition("Loop", []Field{
			NewRecord(RecordDesc{Meta: id("me"), Typename: "Loop"}),
		}, TypeOptions{}))
		require.NoError(t, err)
		assert.Error(t, ts.Validate())
	})
	t.Run("duplicate field", func(t *testing.T) {
		_, err := NewTypeDefinition("Dup", []Field{
			NewInt(IntDesc{Meta: id("v")}),
			NewInt(IntDesc{Meta: id("v")}),
		}, TypeOptions{})
		assert.ErrorIs(t, err, types.ErrUndefinedField)
	})
	t.Run("padding", func(t *testing.T) {
		ts := newTestTypes(t, MustTypeDefinition("Padded", []Field{
			NewInt(IntDesc{Meta: id("v"), Format: U8}),
		}, TypeOptions{Size: 4}), MustTypeDefinition("Pair", []Field{
			NewRecord(RecordDesc{Meta: id("a"), Typename: "Padded"}),
			NewRecord(RecordDesc{Meta: id("b"), Typename: "Padded"}),
		}, TypeOptions{}))
		n, err := ts.TypeSize("Pair")
		require.NoError(t, err)
		assert.Equal(t, 8, n)

		rid, _ := ts.New(ts.AllocateStore(), "Pair")
		for i, fid := range []string{"a", "b"} {
			c, _ := ts.New(rid.Store, "Padded")
			require.NoError(t, ts.SetInt(c, "v", int64(i+1)))
			_, err := ts.SetRecord(rid, fid, c)
			require.NoError(t, err)
		}
		arc, back := roundTrip(t, ts, rid)
		assert.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0}, arc.Bytes())
		b, _ := ts.GetRecord(back, "b")
		v, _ := ts.GetInt(b, "v")
		assert.Equal(t, int64(2), v)
	})
}
