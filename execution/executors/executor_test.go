package executors

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heapdb/buffer"
	"heapdb/catalog"
	dt "heapdb/catalog/db_types"
	"heapdb/disk"
	"heapdb/disk/structures"
	"heapdb/execution"
	"heapdb/execution/expressions"
	"heapdb/execution/plans"
	"heapdb/locker"
	"heapdb/transaction"
)

func poolAndCatalog(t *testing.T) (*buffer.BufferPool, *catalog.InMemCatalog) {
	ctg := catalog.NewCatalog()
	pool := buffer.NewBufferPool(50, ctg, locker.NewLockManager(200*time.Millisecond))
	return pool, ctg
}

func createTable(t *testing.T, pool *buffer.BufferPool, ctg *catalog.InMemCatalog, name string) int {
	dm, _, err := disk.NewDiskManager(filepath.Join(t.TempDir(), uuid.New().String()+".dat"), 4096)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dm.Close() })

	schema := catalog.NewSchema([]catalog.Column{
		catalog.NewColumn("id", dt.IntegerTypeID),
		catalog.NewColumn("name", dt.FixedLenCharTypeID(10)),
		catalog.NewColumn("age", dt.IntegerTypeID),
	})
	file, err := structures.NewHeapFile(dm, schema, pool, nil)
	require.NoError(t, err)
	require.NoError(t, ctg.AddTable(file, name))
	return file.GetID()
}

// insertRows inserts n rows (i, "selam_%04d", i%20) and commits.
func insertRows(t *testing.T, pool *buffer.BufferPool, ctg *catalog.InMemCatalog, tableID, n int) {
	rows := make([][]*dt.Value, 0)
	for i := 0; i < n; i++ {
		values := make([]*dt.Value, 3) // 3 is number of columns
		values[0] = dt.NewValue(int32(i))
		values[1] = dt.NewValue(fmt.Sprintf("selam_%04d", i))
		values[2] = dt.NewValue(int32(i % 20))
		rows = append(rows, values)
	}

	txn := transaction.NewTxnID()
	ctx := execution.NewExecutorContext(txn, ctg, pool)
	exec := NewInsertExecutor(ctx, plans.NewRawInsertPlanNode(rows, tableID), nil)
	require.NoError(t, exec.Init())

	res, err := exec.Next()
	require.NoError(t, err)
	assert.Equal(t, int32(n), res.GetValue(0).AsInt())

	_, err = exec.Next()
	require.ErrorIs(t, err, ErrNoTuple{})
	require.NoError(t, pool.TransactionComplete(txn, true))
}

func scanPlan(t *testing.T, ctg *catalog.InMemCatalog, tableID int, pred expressions.IPredicate) *plans.SeqScanPlanNode {
	plan, err := plans.NewSeqScanPlanNode(ctg, tableID, "", pred)
	require.NoError(t, err)
	return plan
}

func TestSeqScanExecutor_Equal_Comparison(t *testing.T) {
	pool, ctg := poolAndCatalog(t)
	tableID := createTable(t, pool, ctg, "myTable")
	insertRows(t, pool, ctg, tableID, 1000)

	pred := expressions.NewCompExpression(dt.Equal,
		expressions.NewGetColumnExpression(1),
		expressions.NewConstExpression(dt.NewValue("selam_0010")))

	txn := transaction.NewTxnID()
	ctx := execution.NewExecutorContext(txn, ctg, pool)
	seqExec := NewSeqScanExecutor(ctx, scanPlan(t, ctg, tableID, pred))
	require.NoError(t, seqExec.Init())

	tup, err := seqExec.Next()
	require.NoError(t, err)
	assert.Equal(t, int32(10), tup.GetValue(0).AsInt())
	require.NotNil(t, tup.Rid)

	_, err = seqExec.Next()
	require.ErrorIs(t, err, ErrNoTuple{})
	seqExec.Close()
	require.NoError(t, pool.TransactionComplete(txn, true))
}

func TestSeqScanExecutor_Greater_Than_Comparison(t *testing.T) {
	pool, ctg := poolAndCatalog(t)
	tableID := createTable(t, pool, ctg, "myTable")
	insertRows(t, pool, ctg, tableID, 1000)

	pred := expressions.NewCompExpression(dt.GreaterThanOrEqual,
		expressions.NewGetColumnExpression(1),
		expressions.NewConstExpression(dt.NewValue("selam_0990")))

	txn := transaction.NewTxnID()
	res, err := Drain(NewSeqScanExecutor(execution.NewExecutorContext(txn, ctg, pool), scanPlan(t, ctg, tableID, pred)))
	require.NoError(t, err)
	require.NoError(t, pool.TransactionComplete(txn, true))

	assert.Len(t, res, 10)
	for _, tup := range res {
		assert.GreaterOrEqual(t, tup.GetValue(0).AsInt(), int32(990))
	}
}

func TestSeqScanExecutor_Prefixes_Column_Names(t *testing.T) {
	pool, ctg := poolAndCatalog(t)
	tableID := createTable(t, pool, ctg, "people")

	plan := scanPlan(t, ctg, tableID, nil)
	idx, err := plan.GetOutSchema().GetColIdx("people.age")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	aliased, err := plans.NewSeqScanPlanNode(ctg, tableID, "p", nil)
	require.NoError(t, err)
	assert.Equal(t, "p.name", aliased.GetOutSchema().GetColumn(1).Name)

	_, err = plans.NewSeqScanPlanNode(ctg, tableID+1, "", nil)
	assert.True(t, errors.Is(err, catalog.ErrTableNotFound))
}

func TestSeqScanExecutor_Empty_Table(t *testing.T) {
	pool, ctg := poolAndCatalog(t)
	tableID := createTable(t, pool, ctg, "empty")

	txn := transaction.NewTxnID()
	res, err := Drain(NewSeqScanExecutor(execution.NewExecutorContext(txn, ctg, pool), scanPlan(t, ctg, tableID, nil)))
	require.NoError(t, err)
	assert.Empty(t, res)
	require.NoError(t, pool.TransactionComplete(txn, true))
}

func TestFilterExecutor(t *testing.T) {
	pool, ctg := poolAndCatalog(t)
	tableID := createTable(t, pool, ctg, "myTable")
	insertRows(t, pool, ctg, tableID, 200)

	pred := expressions.NewAndExpression(
		expressions.NewCompExpression(dt.Equal, expressions.NewGetColumnExpression(2), expressions.NewConstExpression(dt.NewValue(3))),
		expressions.NewCompExpression(dt.LessThan, expressions.NewGetColumnExpression(0), expressions.NewConstExpression(dt.NewValue(100))),
	)
	plan := plans.NewFilterPlanNode(scanPlan(t, ctg, tableID, nil), pred)

	txn := transaction.NewTxnID()
	exec, err := CreateExecutor(execution.NewExecutorContext(txn, ctg, pool), plan)
	require.NoError(t, err)
	res, err := Drain(exec)
	require.NoError(t, err)
	require.NoError(t, pool.TransactionComplete(txn, true))

	ids := make([]int32, 0)
	for _, tup := range res {
		ids = append(ids, tup.GetValue(0).AsInt())
	}
	assert.Equal(t, []int32{3, 23, 43, 63, 83}, ids)
}

func TestInsertExecutor_From_Child(t *testing.T) {
	pool, ctg := poolAndCatalog(t)
	src := createTable(t, pool, ctg, "src")
	dst := createTable(t, pool, ctg, "dst")
	insertRows(t, pool, ctg, src, 100)

	pred := expressions.NewCompExpression(dt.LessThan, expressions.NewGetColumnExpression(2), expressions.NewConstExpression(dt.NewValue(5)))
	plan := plans.NewInsertPlanNode(scanPlan(t, ctg, src, pred), dst)

	txn := transaction.NewTxnID()
	ctx := execution.NewExecutorContext(txn, ctg, pool)
	exec, err := CreateExecutor(ctx, plan)
	require.NoError(t, err)
	res, err := Drain(exec)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, int32(25), res[0].GetValue(0).AsInt())

	copied, err := Drain(NewSeqScanExecutor(ctx, scanPlan(t, ctg, dst, nil)))
	require.NoError(t, err)
	assert.Len(t, copied, 25)
	for _, tup := range copied {
		assert.Less(t, tup.GetValue(2).AsInt(), int32(5))
		assert.Equal(t, dst, tup.Rid.PageID.FileID)
	}
	require.NoError(t, pool.TransactionComplete(txn, true))
}

func TestInsertExecutor_Rejects_Schema_Mismatch(t *testing.T) {
	pool, ctg := poolAndCatalog(t)
	tableID := createTable(t, pool, ctg, "myTable")

	rows := [][]*dt.Value{{dt.NewValue(1), dt.NewValue(2), dt.NewValue(3)}}
	txn := transaction.NewTxnID()
	exec := NewInsertExecutor(execution.NewExecutorContext(txn, ctg, pool), plans.NewRawInsertPlanNode(rows, tableID), nil)
	require.NoError(t, exec.Init())

	_, err := exec.Next()
	assert.True(t, errors.Is(err, catalog.ErrSchemaMismatch))
	require.NoError(t, pool.TransactionComplete(txn, false))
}

func TestDeleteExecutor(t *testing.T) {
	pool, ctg := poolAndCatalog(t)
	tableID := createTable(t, pool, ctg, "myTable")
	insertRows(t, pool, ctg, tableID, 300)

	pred := expressions.NewCompExpression(dt.Equal, expressions.NewGetColumnExpression(2), expressions.NewConstExpression(dt.NewValue(7)))
	plan := plans.NewDeletePlanNode(scanPlan(t, ctg, tableID, pred))

	txn := transaction.NewTxnID()
	ctx := execution.NewExecutorContext(txn, ctg, pool)
	exec, err := CreateExecutor(ctx, plan)
	require.NoError(t, err)
	res, err := Drain(exec)
	require.NoError(t, err)
	assert.Equal(t, int32(15), res[0].GetValue(0).AsInt())
	require.NoError(t, pool.TransactionComplete(txn, true))

	reader := transaction.NewTxnID()
	left, err := Drain(NewSeqScanExecutor(execution.NewExecutorContext(reader, ctg, pool), scanPlan(t, ctg, tableID, nil)))
	require.NoError(t, err)
	assert.Len(t, left, 285)
	for _, tup := range left {
		assert.NotEqual(t, int32(7), tup.GetValue(2).AsInt())
	}
	require.NoError(t, pool.TransactionComplete(reader, true))
}

func TestDeleteExecutor_Abort_Restores_Rows(t *testing.T) {
	pool, ctg := poolAndCatalog(t)
	tableID := createTable(t, pool, ctg, "myTable")
	insertRows(t, pool, ctg, tableID, 50)

	txn := transaction.NewTxnID()
	exec, err := CreateExecutor(execution.NewExecutorContext(txn, ctg, pool), plans.NewDeletePlanNode(scanPlan(t, ctg, tableID, nil)))
	require.NoError(t, err)
	res, err := Drain(exec)
	require.NoError(t, err)
	assert.Equal(t, int32(50), res[0].GetValue(0).AsInt())
	require.NoError(t, pool.TransactionComplete(txn, false))

	reader := transaction.NewTxnID()
	left, err := Drain(NewSeqScanExecutor(execution.NewExecutorContext(reader, ctg, pool), scanPlan(t, ctg, tableID, nil)))
	require.NoError(t, err)
	assert.Len(t, left, 50)
	require.NoError(t, pool.TransactionComplete(reader, true))
}
