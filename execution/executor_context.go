package execution

import (
	"heapdb/buffer"
	"heapdb/catalog"
	"heapdb/transaction"
)

// ExecutorContext carries what every executor of a query needs: the transaction it runs in, the catalog to resolve
// tables and the buffer pool all page accesses go through.
type ExecutorContext struct {
	Txn     transaction.TxnID
	Catalog catalog.Catalog
	Pool    *buffer.BufferPool
}

func NewExecutorContext(txn transaction.TxnID, catalog catalog.Catalog, pool *buffer.BufferPool) *ExecutorContext {
	return &ExecutorContext{
		Txn:     txn,
		Catalog: catalog,
		Pool:    pool,
	}
}
