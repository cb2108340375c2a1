package optimizer

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
	"heapdb/disk"
	"heapdb/disk/pages"
	"heapdb/disk/structures"
	"heapdb/locker"
	"heapdb/transaction"
)

func TestComputeTableStats(t *testing.T) {
	dm, _, err := disk.NewDiskManager(filepath.Join(t.TempDir(), uuid.New().String()), 512)
	require.NoError(t, err)
	defer dm.Close()

	cat := catalog.NewCatalog()
	pool := buffer.NewBufferPool(4, cat, locker.NewLockManager(time.Second))
	schema := catalog.NewSchema([]catalog.Column{
		catalog.NewColumn("id", db_types.IntegerTypeID),
		catalog.NewColumn("name", db_types.FixedLenCharTypeID(8)),
	})
	file, err := structures.NewHeapFile(dm, schema, pool, nil)
	require.NoError(t, err)
	require.NoError(t, cat.AddTable(file, "people"))

	tid := transaction.NewTxnID()
	for i := 0; i < 100; i++ {
		tuple := &catalog.Tuple{Values: []*db_types.Value{db_types.NewValue(i), db_types.NewValue("x")}}
		require.NoError(t, pool.InsertTuple(tid, file.GetID(), tuple))
	}
	require.NoError(t, pool.TransactionComplete(tid, true))

	stats, err := ComputeTableStats(pool, file, 1000, 10)
	require.NoError(t, err)

	assert.Equal(t, 100, stats.TotalTuples())
	assert.Equal(t, float64(file.NumPages()*1000), stats.EstimateScanCost())
	assert.Equal(t, 50, stats.EstimateCardinality(0.5))
	assert.Equal(t, 100, stats.EstimateCardinality(3))

	sel, err := stats.EstimateSelectivity(0, db_types.Equal, db_types.NewValue(50))
	require.NoError(t, err)
	assert.InDelta(t, 0.01, sel, 1e-9)

	sel, err = stats.EstimateSelectivity(0, db_types.LessThan, db_types.NewValue(25))
	require.NoError(t, err)
	assert.InDelta(t, 0.25, sel, 1e-9)

	_, err = stats.EstimateSelectivity(1, db_types.Equal, db_types.NewValue("x"))
	assert.True(t, errors.Is(err, ErrNoHistogram))

	// the scan transaction released its locks, a writer gets every page right away
	writer := transaction.NewTxnID()
	for pageNo := 0; pageNo < file.NumPages(); pageNo++ {
		_, err := pool.GetPage(writer, pages.NewPageID(file.GetID(), pageNo), transaction.ReadWrite)
		require.NoError(t, err)
	}
	require.NoError(t, pool.TransactionComplete(writer, true))
}
