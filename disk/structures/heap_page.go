package structures

import (
	"sync"

	"github.com/pkg/errors"

	"heapdb/catalog"
	"heapdb/catalog/db_types"
	"heapdb/common"
	"heapdb/disk/pages"
)

var ErrPageFull = errors.New("no empty slot in page")

var _ pages.Page = &HeapPage{}

// HeapPage is a page of fixed width tuple slots preceded by a bitmap header with one bit per slot. Bit i is bit
// i%8 of header byte i/8, least significant bit first. A zero bit marks an empty slot.
//
//	| header (ceil(numSlots/8) bytes) | slot 0 | slot 1 | ... | slot numSlots-1 | padding |
type HeapPage struct {
	pages.DirtyFlag
	latch sync.RWMutex

	pid      pages.PageID
	schema   catalog.Schema
	pageSize int
	numSlots int
	header   []byte
	tuples   []*catalog.Tuple
}

// SlotsPerPage returns the number of tuples of tupleSize bytes a page can hold: each tuple costs tupleSize bytes
// plus one header bit.
func SlotsPerPage(pageSize, tupleSize int) int {
	return (pageSize * 8) / (tupleSize*8 + 1)
}

func headerSize(numSlots int) int {
	return (numSlots + 7) / 8
}

// NewHeapPage parses data as a heap page of schema. data must be exactly pageSize bytes.
func NewHeapPage(pid pages.PageID, data []byte, schema catalog.Schema, pageSize int) (*HeapPage, error) {
	if len(data) != pageSize {
		return nil, errors.Wrapf(common.ErrInvalidState, "page %v has %d bytes, page size is %d", pid, len(data), pageSize)
	}

	numSlots := SlotsPerPage(pageSize, schema.TupleSize())
	if numSlots == 0 {
		return nil, errors.Wrapf(common.ErrInvalidState, "tuple of %d bytes does not fit in a page", schema.TupleSize())
	}

	p := &HeapPage{
		pid:      pid,
		schema:   schema,
		pageSize: pageSize,
		numSlots: numSlots,
		header:   make([]byte, headerSize(numSlots)),
		tuples:   make([]*catalog.Tuple, numSlots),
	}
	copy(p.header, data)

	tupleSize := schema.TupleSize()
	offset := len(p.header)
	for i := 0; i < numSlots; i++ {
		if p.isSlotUsed(i) {
			t := catalog.DeserializeTuple(schema, data[offset+i*tupleSize:])
			t.Rid = &catalog.RecordID{PageID: pid, Slot: i}
			p.tuples[i] = t
		}
	}

	return p, nil
}

// NewEmptyHeapPage returns a page with every slot empty.
func NewEmptyHeapPage(pid pages.PageID, schema catalog.Schema, pageSize int) (*HeapPage, error) {
	return NewHeapPage(pid, CreateEmptyPageData(pageSize), schema, pageSize)
}

// CreateEmptyPageData returns the image of a page with no used slots.
func CreateEmptyPageData(pageSize int) []byte {
	return make([]byte, pageSize)
}

func (p *HeapPage) GetID() pages.PageID {
	return p.pid
}

func (p *HeapPage) NumSlots() int {
	return p.numSlots
}

func (p *HeapPage) NumEmptySlots() int {
	p.latch.RLock()
	defer p.latch.RUnlock()

	n := 0
	for i := 0; i < p.numSlots; i++ {
		if !p.isSlotUsed(i) {
			n++
		}
	}
	return n
}

func (p *HeapPage) IsSlotUsed(i int) bool {
	p.latch.RLock()
	defer p.latch.RUnlock()
	return i >= 0 && i < p.numSlots && p.isSlotUsed(i)
}

// InsertTuple stores a copy of t in the first empty slot and sets t's record id to that slot. The record id only
// names a stored tuple while the inserting transaction has not aborted.
func (p *HeapPage) InsertTuple(t *catalog.Tuple) error {
	if err := t.Validate(p.schema); err != nil {
		return err
	}

	p.latch.Lock()
	defer p.latch.Unlock()

	for i := 0; i < p.numSlots; i++ {
		if p.isSlotUsed(i) {
			continue
		}

		values := make([]*db_types.Value, len(t.Values))
		copy(values, t.Values)
		p.tuples[i] = &catalog.Tuple{Values: values, Rid: &catalog.RecordID{PageID: p.pid, Slot: i}}
		t.Rid = &catalog.RecordID{PageID: p.pid, Slot: i}
		p.setSlot(i, true)
		return nil
	}

	return errors.Wrapf(ErrPageFull, "page %v", p.pid)
}

// DeleteTuple empties the slot t is stored in. t must have been read from this page.
func (p *HeapPage) DeleteTuple(t *catalog.Tuple) error {
	if t.Rid == nil {
		return errors.Wrap(common.ErrInvalidState, "tuple has no record id")
	}
	if t.Rid.PageID != p.pid {
		return errors.Wrapf(common.ErrInvalidState, "tuple is on page %v, not on %v", t.Rid.PageID, p.pid)
	}

	p.latch.Lock()
	defer p.latch.Unlock()

	slot := t.Rid.Slot
	if slot < 0 || slot >= p.numSlots || !p.isSlotUsed(slot) {
		return errors.Wrapf(common.ErrInvalidState, "slot %d of page %v is empty", slot, p.pid)
	}

	p.tuples[slot] = nil
	p.setSlot(slot, false)
	return nil
}

// GetTuple returns the tuple in slot i or nil if the slot is empty.
func (p *HeapPage) GetTuple(i int) *catalog.Tuple {
	p.latch.RLock()
	defer p.latch.RUnlock()

	if i < 0 || i >= p.numSlots {
		return nil
	}
	return p.tuples[i]
}

// Tuples returns the stored tuples in slot order.
func (p *HeapPage) Tuples() []*catalog.Tuple {
	p.latch.RLock()
	defer p.latch.RUnlock()

	res := make([]*catalog.Tuple, 0, p.numSlots)
	for _, t := range p.tuples {
		if t != nil {
			res = append(res, t)
		}
	}
	return res
}

func (p *HeapPage) GetPageData() []byte {
	p.latch.RLock()
	defer p.latch.RUnlock()

	data := make([]byte, p.pageSize)
	copy(data, p.header)

	tupleSize := p.schema.TupleSize()
	offset := len(p.header)
	for i, t := range p.tuples {
		if t != nil {
			t.Serialize(p.schema, data[offset+i*tupleSize:offset+(i+1)*tupleSize])
		}
	}

	return data
}

func (p *HeapPage) isSlotUsed(i int) bool {
	return p.header[i/8]&(1<<(i%8)) != 0
}

func (p *HeapPage) setSlot(i int, used bool) {
	if used {
		p.header[i/8] |= 1 << (i % 8)
	} else {
		p.header[i/8] &^= 1 << (i % 8)
	}
}
