package pages

import (
	"fmt"
	"sync"

	"heapdb/transaction"
)

// PageID identifies a page by the file it belongs to and its position in that file. It is comparable and is
// used directly as the key of the buffer pool and the lock manager.
type PageID struct {
	FileID int
	PageNo int
}

func NewPageID(fileID, pageNo int) PageID {
	return PageID{FileID: fileID, PageNo: pageNo}
}

func (p PageID) String() string {
	return fmt.Sprintf("%d:%d", p.FileID, p.PageNo)
}

// Page is the unit of caching in the buffer pool. Implementations must be able to produce their on-disk image
// and remember which transaction dirtied them.
type Page interface {
	GetID() PageID

	// GetPageData returns the serialized image of the page. Its length is exactly the page size.
	GetPageData() []byte

	// IsDirty returns the transaction that last dirtied the page and true, or NoTxn and false if the page is
	// clean.
	IsDirty() (transaction.TxnID, bool)
	MarkDirty(dirty bool, tid transaction.TxnID)
}

// DirtyFlag keeps the dirty state of a page. It is embedded by page implementations.
type DirtyFlag struct {
	mu      sync.Mutex
	dirty   bool
	dirtier transaction.TxnID
}

func (d *DirtyFlag) IsDirty() (transaction.TxnID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirtier, d.dirty
}

func (d *DirtyFlag) MarkDirty(dirty bool, tid transaction.TxnID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dirty = dirty
	if dirty {
		d.dirtier = tid
	} else {
		d.dirtier = transaction.NoTxn
	}
}

var _ Page = &RawPage{}

// RawPage is a page whose content is not interpreted. It is a byte array of page size.
type RawPage struct {
	DirtyFlag
	id   PageID
	Data []byte
}

func NewRawPage(id PageID, pageSize int) *RawPage {
	return &RawPage{
		id:   id,
		Data: make([]byte, pageSize),
	}
}

// RawPageFromData wraps data without copying it.
func RawPageFromData(id PageID, data []byte) *RawPage {
	return &RawPage{
		id:   id,
		Data: data,
	}
}

func (p *RawPage) GetID() PageID {
	return p.id
}

func (p *RawPage) GetPageData() []byte {
	return p.Data
}
