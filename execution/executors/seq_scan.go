package executors

import (
	"github.com/pkg/errors"

	"heapdb/catalog"
	"heapdb/common"
	"heapdb/disk/structures"
	"heapdb/execution"
	"heapdb/execution/plans"
	"heapdb/transaction"
)

// scannable is implemented by table files that can be iterated tuple by tuple.
type scannable interface {
	Iterator(tid transaction.TxnID) *structures.HeapFileIterator
}

type SeqScanExecutor struct {
	BaseExecutor
	plan      *plans.SeqScanPlanNode
	tableIter *structures.HeapFileIterator
}

func (e *SeqScanExecutor) Init() error {
	file, err := e.executorCtx.Catalog.GetDbFile(e.plan.GetTableID())
	if err != nil {
		return err
	}

	table, ok := file.(scannable)
	if !ok {
		return errors.Wrapf(common.ErrInvalidState, "table %d cannot be scanned", e.plan.GetTableID())
	}

	if e.tableIter != nil {
		e.tableIter.Close()
	}
	e.tableIter = table.Iterator(e.executorCtx.Txn)
	return e.tableIter.Open()
}

func (e *SeqScanExecutor) GetOutSchema() catalog.Schema {
	return e.plan.OutSchema
}

func (e *SeqScanExecutor) Next() (*catalog.Tuple, error) {
	if e.tableIter == nil {
		return nil, errors.Wrap(common.ErrInvalidState, "executor is not initialized")
	}

	for {
		t, err := e.tableIter.Next()
		if errors.Is(err, structures.ErrNoMoreTuples) {
			return nil, ErrNoTuple{}
		}
		if err != nil {
			return nil, err
		}

		pred := e.plan.GetPredicate()
		if pred != nil && !pred.Test(t, e.GetOutSchema()) {
			continue
		}

		return t, nil
	}
}

func (e *SeqScanExecutor) Close() {
	if e.tableIter != nil {
		e.tableIter.Close()
		e.tableIter = nil
	}
}

func NewSeqScanExecutor(ctx *execution.ExecutorContext, plan *plans.SeqScanPlanNode) *SeqScanExecutor {
	return &SeqScanExecutor{
		BaseExecutor: BaseExecutor{
			executorCtx: ctx,
		},
		plan: plan,
	}
}
