package structures

import (
	"github.com/pkg/errors"

	"heapdb/catalog"
	"heapdb/common"
	"heapdb/disk/pages"
	"heapdb/transaction"
)

var ErrNoMoreTuples = errors.New("iterator has no more tuples")

// HeapFileIterator walks the pages of a heap file in order, reading each with a shared lock, and yields the tuples
// of used slots. It must be opened before use.
type HeapFileIterator struct {
	file   *HeapFile
	tid    transaction.TxnID
	open   bool
	pageNo int
	tuples []*catalog.Tuple
	idx    int
}

func NewHeapFileIterator(file *HeapFile, tid transaction.TxnID) *HeapFileIterator {
	return &HeapFileIterator{file: file, tid: tid}
}

func (it *HeapFileIterator) Open() error {
	it.open = true
	it.pageNo = -1
	it.tuples = nil
	it.idx = 0
	return nil
}

func (it *HeapFileIterator) HasNext() (bool, error) {
	if !it.open {
		return false, errors.Wrap(common.ErrInvalidState, "iterator is not open")
	}

	for it.idx >= len(it.tuples) {
		if it.pageNo+1 >= it.file.NumPages() {
			return false, nil
		}

		it.pageNo++
		hp, err := it.file.heapPage(it.tid, pages.NewPageID(it.file.GetID(), it.pageNo), transaction.ReadOnly)
		if err != nil {
			return false, err
		}
		it.tuples = hp.Tuples()
		it.idx = 0
	}

	return true, nil
}

func (it *HeapFileIterator) Next() (*catalog.Tuple, error) {
	ok, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoMoreTuples
	}

	t := it.tuples[it.idx]
	it.idx++
	return t, nil
}

// Rewind starts the iteration over from the first page.
func (it *HeapFileIterator) Rewind() error {
	if !it.open {
		return errors.Wrap(common.ErrInvalidState, "iterator is not open")
	}
	return it.Open()
}

func (it *HeapFileIterator) Close() {
	it.open = false
	it.tuples = nil
}
