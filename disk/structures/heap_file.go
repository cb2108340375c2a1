package structures

import (
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"heapdb/buffer"
	"heapdb/catalog"
	"heapdb/common"
	"heapdb/disk"
	"heapdb/disk/pages"
	"heapdb/transaction"
)

var _ catalog.DbFile = &HeapFile{}

// HeapFile stores the tuples of one table in no particular order in a file of heap pages. Every page it touches
// is fetched through the buffer pool, so file level mutations are locked like any other access.
type HeapFile struct {
	dm       disk.IDiskManager
	schema   catalog.Schema
	pool     *buffer.BufferPool
	id       int
	pageSize int

	// extendMu serializes appending empty pages so that two inserters do not both grow the file.
	extendMu sync.Mutex
	log      *zap.Logger
}

// TableID returns the id of the table stored at path. It is derived from the absolute path so that reopening the
// same file yields the same id.
func TableID(path string) (int, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, errors.Wrapf(common.ErrStorageIO, "resolve %s: %v", path, err)
	}
	return int(xxhash.Sum64String(abs) & 0x7fffffff), nil
}

func NewHeapFile(dm disk.IDiskManager, schema catalog.Schema, pool *buffer.BufferPool, log *zap.Logger) (*HeapFile, error) {
	id, err := TableID(dm.Path())
	if err != nil {
		return nil, err
	}
	if SlotsPerPage(dm.PageSize(), schema.TupleSize()) == 0 {
		return nil, errors.Wrapf(common.ErrInvalidState, "tuple of %d bytes does not fit in a %d byte page", schema.TupleSize(), dm.PageSize())
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &HeapFile{
		dm:       dm,
		schema:   schema,
		pool:     pool,
		id:       id,
		pageSize: dm.PageSize(),
		log:      log.With(zap.String("file", dm.Path()), zap.Int("table_id", id)),
	}, nil
}

func (f *HeapFile) GetID() int {
	return f.id
}

func (f *HeapFile) GetSchema() catalog.Schema {
	return f.schema
}

func (f *HeapFile) Path() string {
	return f.dm.Path()
}

func (f *HeapFile) NumPages() int {
	return f.dm.NumPages()
}

// ReadPage reads the page from disk bypassing the buffer pool. Only the buffer pool should call it.
func (f *HeapFile) ReadPage(pid pages.PageID) (pages.Page, error) {
	if pid.FileID != f.id {
		return nil, errors.Wrapf(common.ErrInvalidState, "page %v does not belong to table %d", pid, f.id)
	}
	if pid.PageNo < 0 || pid.PageNo >= f.NumPages() {
		return nil, errors.Wrapf(common.ErrInvalidState, "page %v is out of range, file has %d pages", pid, f.NumPages())
	}

	data, err := f.dm.ReadPage(pid.PageNo)
	if err != nil {
		return nil, err
	}

	return NewHeapPage(pid, data, f.schema, f.pageSize)
}

func (f *HeapFile) WritePage(page pages.Page) error {
	pid := page.GetID()
	if pid.FileID != f.id {
		return errors.Wrapf(common.ErrInvalidState, "page %v does not belong to table %d", pid, f.id)
	}

	return f.dm.WritePage(pid.PageNo, page.GetPageData())
}

// InsertTuple puts t on the last page that has room, starting from the last page of the file and appending an
// empty page when every page is full. It returns the page that was modified.
func (f *HeapFile) InsertTuple(tid transaction.TxnID, t *catalog.Tuple) ([]pages.Page, error) {
	if err := t.Validate(f.schema); err != nil {
		return nil, err
	}

	start := f.NumPages() - 1
	if start < 0 {
		start = 0
	}

	for {
		numPages := f.NumPages()
		for pageNo := start; pageNo < numPages; pageNo++ {
			pid := pages.NewPageID(f.id, pageNo)
			heldBefore := f.pool.HoldsLock(tid, pid)

			hp, err := f.heapPage(tid, pid, transaction.ReadWrite)
			if err != nil {
				return nil, err
			}

			if hp.NumEmptySlots() == 0 {
				// only the header was inspected, so a lock taken just for that can be given back
				if !heldBefore {
					f.pool.UnsafeReleasePage(tid, pid)
				}
				continue
			}

			if err := hp.InsertTuple(t); err != nil {
				return nil, err
			}
			return []pages.Page{hp}, nil
		}

		start = numPages
		if err := f.extend(numPages); err != nil {
			return nil, err
		}
	}
}

// DeleteTuple removes t from the page its record id points to.
func (f *HeapFile) DeleteTuple(tid transaction.TxnID, t *catalog.Tuple) ([]pages.Page, error) {
	if t.Rid == nil {
		return nil, errors.Wrap(common.ErrInvalidState, "tuple has no record id")
	}
	if t.Rid.PageID.FileID != f.id {
		return nil, errors.Wrapf(common.ErrInvalidState, "tuple %v is not in table %d", t.Rid, f.id)
	}

	hp, err := f.heapPage(tid, t.Rid.PageID, transaction.ReadWrite)
	if err != nil {
		return nil, err
	}

	if err := hp.DeleteTuple(t); err != nil {
		return nil, err
	}
	return []pages.Page{hp}, nil
}

// Iterator returns an unopened iterator over all tuples of the file, read under tid.
func (f *HeapFile) Iterator(tid transaction.TxnID) *HeapFileIterator {
	return NewHeapFileIterator(f, tid)
}

// extend appends an empty page unless another inserter has already grown the file past seen pages.
func (f *HeapFile) extend(seen int) error {
	f.extendMu.Lock()
	defer f.extendMu.Unlock()

	if f.NumPages() > seen {
		return nil
	}

	if err := f.dm.WritePage(seen, CreateEmptyPageData(f.pageSize)); err != nil {
		return err
	}
	f.log.Debug("appended empty page", zap.Int("page_no", seen))
	return nil
}

func (f *HeapFile) heapPage(tid transaction.TxnID, pid pages.PageID, perm transaction.Permission) (*HeapPage, error) {
	p, err := f.pool.GetPage(tid, pid, perm)
	if err != nil {
		return nil, err
	}

	hp, ok := p.(*HeapPage)
	if !ok {
		return nil, errors.Wrapf(common.ErrInvalidState, "page %v is not a heap page", pid)
	}
	return hp, nil
}
