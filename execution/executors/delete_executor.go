package executors

import (
	"heapdb/catalog"
	"heapdb/catalog/db_types"
	"heapdb/execution"
	"heapdb/execution/plans"
)

// DeleteExecutor deletes every tuple its child yields and then yields one tuple holding the number of deleted
// rows.
type DeleteExecutor struct {
	BaseExecutor
	plan          *plans.DeletePlanNode
	childExecutor IExecutor
	done          bool
}

func (e *DeleteExecutor) Init() error {
	e.done = false
	return e.childExecutor.Init()
}

func (e *DeleteExecutor) GetOutSchema() catalog.Schema {
	return e.plan.OutSchema
}

func (e *DeleteExecutor) Next() (*catalog.Tuple, error) {
	if e.done {
		return nil, ErrNoTuple{}
	}
	e.done = true

	count := 0
	for {
		t, err := e.childExecutor.Next()
		if _, ok := err.(ErrNoTuple); ok {
			break
		}
		if err != nil {
			return nil, err
		}

		if err := e.executorCtx.Pool.DeleteTuple(e.executorCtx.Txn, t); err != nil {
			return nil, err
		}
		count++
	}

	return &catalog.Tuple{Values: []*db_types.Value{db_types.NewValue(count)}}, nil
}

func (e *DeleteExecutor) Close() {
	e.childExecutor.Close()
}

func NewDeleteExecutor(ctx *execution.ExecutorContext, plan *plans.DeletePlanNode, childExecutor IExecutor) *DeleteExecutor {
	return &DeleteExecutor{
		BaseExecutor: BaseExecutor{
			executorCtx: ctx,
		},
		plan:          plan,
		childExecutor: childExecutor,
	}
}
