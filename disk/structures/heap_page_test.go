package structures

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heapdb/catalog"
	"heapdb/catalog/db_types"
	"heapdb/common"
	"heapdb/disk/pages"
)

func twoIntSchema() catalog.Schema {
	return catalog.NewSchema([]catalog.Column{
		catalog.NewColumn("a", db_types.IntegerTypeID),
		catalog.NewColumn("b", db_types.IntegerTypeID),
	})
}

func intTuple(a, b int) *catalog.Tuple {
	return &catalog.Tuple{Values: []*db_types.Value{db_types.NewValue(a), db_types.NewValue(b)}}
}

func TestSlotsPerPage(t *testing.T) {
	// 8 byte tuples cost 65 bits each
	assert.Equal(t, 7, SlotsPerPage(64, 8))
	assert.Equal(t, 504, SlotsPerPage(4096, 8))
	assert.Equal(t, 0, SlotsPerPage(64, 100))
	assert.Equal(t, 1, headerSize(7))
	assert.Equal(t, 63, headerSize(504))
}

func TestHeapPage_Insert_Until_Full(t *testing.T) {
	pid := pages.NewPageID(1, 0)
	hp, err := NewEmptyHeapPage(pid, twoIntSchema(), 64)
	require.NoError(t, err)
	assert.Equal(t, 7, hp.NumSlots())

	for i := 0; i < 7; i++ {
		tuple := intTuple(i, i*10)
		require.NoError(t, hp.InsertTuple(tuple))
		assert.Equal(t, &catalog.RecordID{PageID: pid, Slot: i}, tuple.Rid)
	}
	assert.Equal(t, 0, hp.NumEmptySlots())

	err = hp.InsertTuple(intTuple(8, 8))
	assert.True(t, errors.Is(err, ErrPageFull))
}

func TestHeapPage_Insert_Stores_A_Copy(t *testing.T) {
	pid := pages.NewPageID(1, 0)
	hp, err := NewEmptyHeapPage(pid, twoIntSchema(), 64)
	require.NoError(t, err)

	tuple := intTuple(1, 2)
	require.NoError(t, hp.InsertTuple(tuple))

	tuple.Values[0] = db_types.NewValue(100)
	tuple.Rid.Slot = 5

	stored := hp.GetTuple(0)
	require.NotNil(t, stored)
	assert.Equal(t, int32(1), stored.GetValue(0).AsInt())
	assert.Equal(t, &catalog.RecordID{PageID: pid, Slot: 0}, stored.Rid)
	assert.False(t, hp.IsSlotUsed(5))
}

func TestHeapPage_Header_Is_Lsb_First(t *testing.T) {
	pid := pages.NewPageID(1, 0)
	hp, err := NewEmptyHeapPage(pid, twoIntSchema(), 64)
	require.NoError(t, err)

	first, second := intTuple(1, 2), intTuple(3, 4)
	require.NoError(t, hp.InsertTuple(first))
	require.NoError(t, hp.InsertTuple(second))
	assert.Equal(t, byte(0b11), hp.GetPageData()[0])

	require.NoError(t, hp.DeleteTuple(first))
	data := hp.GetPageData()
	assert.Equal(t, byte(0b10), data[0])
	assert.Len(t, data, 64)

	// slot 1 starts right after the one byte header
	assert.Equal(t, []byte{0, 0, 0, 3, 0, 0, 0, 4}, data[1+8:1+16])
}

func TestHeapPage_Round_Trip(t *testing.T) {
	pid := pages.NewPageID(3, 9)
	schema := catalog.NewSchema([]catalog.Column{
		catalog.NewColumn("id", db_types.IntegerTypeID),
		catalog.NewColumn("name", db_types.FixedLenCharTypeID(12)),
	})
	hp, err := NewEmptyHeapPage(pid, schema, 256)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		tuple, err := catalog.NewTupleWithSchema([]*db_types.Value{db_types.NewValue(i), db_types.NewValue("name")}, schema)
		require.NoError(t, err)
		require.NoError(t, hp.InsertTuple(tuple))
	}
	require.NoError(t, hp.DeleteTuple(hp.GetTuple(2)))

	read, err := NewHeapPage(pid, hp.GetPageData(), schema, 256)
	require.NoError(t, err)
	assert.Equal(t, hp.NumEmptySlots(), read.NumEmptySlots())
	assert.False(t, read.IsSlotUsed(2))
	assert.True(t, read.IsSlotUsed(3))

	tuples := read.Tuples()
	require.Len(t, tuples, 4)
	assert.Equal(t, int32(3), tuples[2].GetValue(0).AsInt())
	assert.Equal(t, 3, tuples[2].Rid.Slot)
	assert.Equal(t, "name", tuples[2].GetValue(1).AsString())
}

func TestHeapPage_Delete_Errors(t *testing.T) {
	pid := pages.NewPageID(1, 0)
	hp, err := NewEmptyHeapPage(pid, twoIntSchema(), 64)
	require.NoError(t, err)

	err = hp.DeleteTuple(intTuple(1, 1))
	assert.True(t, errors.Is(err, common.ErrInvalidState), "no record id")

	other := intTuple(1, 1)
	other.Rid = &catalog.RecordID{PageID: pages.NewPageID(1, 1), Slot: 0}
	err = hp.DeleteTuple(other)
	assert.True(t, errors.Is(err, common.ErrInvalidState), "other page")

	empty := intTuple(1, 1)
	empty.Rid = &catalog.RecordID{PageID: pid, Slot: 4}
	err = hp.DeleteTuple(empty)
	assert.True(t, errors.Is(err, common.ErrInvalidState), "empty slot")
}

func TestNewHeapPage_Rejects_Wrong_Length(t *testing.T) {
	_, err := NewHeapPage(pages.NewPageID(1, 0), make([]byte, 10), twoIntSchema(), 64)
	assert.True(t, errors.Is(err, common.ErrInvalidState))
}
