package catalog

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"heapdb/disk/pages"
	"heapdb/transaction"
)

var (
	ErrTableNotFound = errors.New("table not found")
	ErrTableExists   = errors.New("table already exists")
)

// DbFile is a table's on-disk storage as seen by the buffer pool. Mutations return the pages they dirtied so
// that the pool can mark them and keep them resident.
type DbFile interface {
	GetID() int
	GetSchema() Schema

	ReadPage(pid pages.PageID) (pages.Page, error)
	WritePage(page pages.Page) error
	NumPages() int

	InsertTuple(tid transaction.TxnID, t *Tuple) ([]pages.Page, error)
	DeleteTuple(tid transaction.TxnID, t *Tuple) ([]pages.Page, error)
}

type TableInfo struct {
	Name string
	File DbFile
}

type Catalog interface {
	AddTable(file DbFile, name string) error
	GetDbFile(tableID int) (DbFile, error)
	GetSchema(tableID int) (Schema, error)
	GetTableID(name string) (int, error)
	GetTableName(tableID int) (string, error)
	TableIDs() []int
}

var _ Catalog = &InMemCatalog{}

// InMemCatalog maps table ids and names to their files. It is safe for concurrent use.
type InMemCatalog struct {
	mu         sync.RWMutex
	tables     map[int]*TableInfo
	tableNames map[string]int
}

func NewCatalog() *InMemCatalog {
	return &InMemCatalog{
		tables:     make(map[int]*TableInfo),
		tableNames: make(map[string]int),
	}
}

func (c *InMemCatalog) AddTable(file DbFile, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tableNames[name]; ok {
		return errors.Wrap(ErrTableExists, name)
	}
	if _, ok := c.tables[file.GetID()]; ok {
		return errors.Wrapf(ErrTableExists, "table id %d", file.GetID())
	}

	c.tables[file.GetID()] = &TableInfo{Name: name, File: file}
	c.tableNames[name] = file.GetID()
	return nil
}

func (c *InMemCatalog) GetDbFile(tableID int) (DbFile, error) {
	info, err := c.get(tableID)
	if err != nil {
		return nil, err
	}
	return info.File, nil
}

func (c *InMemCatalog) GetSchema(tableID int) (Schema, error) {
	info, err := c.get(tableID)
	if err != nil {
		return nil, err
	}
	return info.File.GetSchema(), nil
}

func (c *InMemCatalog) GetTableID(name string) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.tableNames[name]
	if !ok {
		return 0, errors.Wrap(ErrTableNotFound, name)
	}
	return id, nil
}

func (c *InMemCatalog) GetTableName(tableID int) (string, error) {
	info, err := c.get(tableID)
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

// TableIDs returns ids of all tables in ascending order.
func (c *InMemCatalog) TableIDs() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]int, 0, len(c.tables))
	for id := range c.tables {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (c *InMemCatalog) get(tableID int) (*TableInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, ok := c.tables[tableID]
	if !ok {
		return nil, errors.Wrapf(ErrTableNotFound, "table id %d", tableID)
	}
	return info, nil
}
