package concurrency

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heapdb/buffer"
	"heapdb/catalog"
	"heapdb/catalog/db_types"
	"heapdb/common"
	"heapdb/disk"
	"heapdb/disk/structures"
	"heapdb/locker"
	"heapdb/transaction"
)

func setup(t *testing.T) (*TxnManagerImpl, *structures.HeapFile) {
	dm, _, err := disk.NewDiskManager(filepath.Join(t.TempDir(), uuid.New().String()), 512)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dm.Close() })

	cat := catalog.NewCatalog()
	pool := buffer.NewBufferPool(8, cat, locker.NewLockManager(100*time.Millisecond))
	schema := catalog.NewSchema([]catalog.Column{catalog.NewColumn("v", db_types.IntegerTypeID)})
	file, err := structures.NewHeapFile(dm, schema, pool, nil)
	require.NoError(t, err)
	require.NoError(t, cat.AddTable(file, "t"))

	return NewTxnManager(pool, nil), file
}

func insert(pool *buffer.BufferPool, txn *Transaction, file *structures.HeapFile, v int) error {
	return pool.InsertTuple(txn.GetID(), file.GetID(), &catalog.Tuple{Values: []*db_types.Value{db_types.NewValue(v)}})
}

func count(t *testing.T, tm *TxnManagerImpl, file *structures.HeapFile) int {
	n := 0
	require.NoError(t, tm.Run(func(txn *Transaction) error {
		it := file.Iterator(txn.GetID())
		if err := it.Open(); err != nil {
			return err
		}
		defer it.Close()
		for {
			ok, err := it.HasNext()
			if err != nil || !ok {
				return err
			}
			if _, err := it.Next(); err != nil {
				return err
			}
			n++
		}
	}))
	return n
}

func TestTxnManager_Tracks_Active_Transactions(t *testing.T) {
	tm, _ := setup(t)

	t1, t2 := tm.Begin(), tm.Begin()
	assert.Equal(t, []transaction.TxnID{t1.GetID(), t2.GetID()}, tm.ActiveTransactions())

	require.NoError(t, tm.Commit(t1))
	require.NoError(t, tm.Abort(t2))
	assert.Empty(t, tm.ActiveTransactions())

	err := tm.Commit(t1)
	assert.True(t, errors.Is(err, common.ErrInvalidState))
	err = tm.AbortByID(transaction.NewTxnID())
	assert.True(t, errors.Is(err, common.ErrInvalidState))
}

func TestTxnManager_Commit_And_Abort(t *testing.T) {
	tm, file := setup(t)

	committed := tm.Begin()
	require.NoError(t, insert(tm.pool, committed, file, 1))
	require.NoError(t, tm.Commit(committed))

	aborted := tm.Begin()
	require.NoError(t, insert(tm.pool, aborted, file, 2))
	require.NoError(t, tm.Abort(aborted))

	assert.Equal(t, 1, count(t, tm, file))
}

func TestTxnManager_Run_Aborts_On_Error(t *testing.T) {
	tm, file := setup(t)
	boom := errors.New("boom")

	err := tm.Run(func(txn *Transaction) error {
		if err := insert(tm.pool, txn, file, 1); err != nil {
			return err
		}
		return boom
	})
	assert.Equal(t, boom, err)
	assert.Empty(t, tm.ActiveTransactions())
	assert.Equal(t, 0, count(t, tm, file))

	require.NoError(t, tm.Run(func(txn *Transaction) error {
		return insert(tm.pool, txn, file, 1)
	}))
	assert.Equal(t, 1, count(t, tm, file))
}
