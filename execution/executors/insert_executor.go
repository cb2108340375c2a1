package executors

import (
	"heapdb/catalog"
	"heapdb/catalog/db_types"
	"heapdb/execution"
	"heapdb/execution/plans"
)

// InsertExecutor inserts either the raw values of its plan or every tuple of its child. On the first call to Next
// it does all the work and yields one tuple holding the number of inserted rows; later calls return ErrNoTuple.
type InsertExecutor struct {
	BaseExecutor
	plan          *plans.InsertPlanNode
	childExecutor IExecutor
	done          bool
}

func (e *InsertExecutor) Init() error {
	e.done = false
	if !e.plan.IsRawInsert() {
		return e.childExecutor.Init()
	}
	return nil
}

func (e *InsertExecutor) GetOutSchema() catalog.Schema {
	return e.plan.OutSchema
}

func (e *InsertExecutor) Next() (*catalog.Tuple, error) {
	if e.done {
		return nil, ErrNoTuple{}
	}
	e.done = true

	tableID := e.plan.GetTableID()
	schema, err := e.executorCtx.Catalog.GetSchema(tableID)
	if err != nil {
		return nil, err
	}

	count := 0
	insert := func(values []*db_types.Value) error {
		t, err := catalog.NewTupleWithSchema(values, schema)
		if err != nil {
			return err
		}
		if err := e.executorCtx.Pool.InsertTuple(e.executorCtx.Txn, tableID, t); err != nil {
			return err
		}
		count++
		return nil
	}

	if e.plan.IsRawInsert() {
		for _, values := range e.plan.RawValues() {
			if err := insert(values); err != nil {
				return nil, err
			}
		}
	} else {
		for {
			t, err := e.childExecutor.Next()
			if _, ok := err.(ErrNoTuple); ok {
				break
			}
			if err != nil {
				return nil, err
			}
			if err := insert(t.Values); err != nil {
				return nil, err
			}
		}
	}

	return &catalog.Tuple{Values: []*db_types.Value{db_types.NewValue(count)}}, nil
}

func (e *InsertExecutor) Close() {
	if e.childExecutor != nil {
		e.childExecutor.Close()
	}
}

func NewInsertExecutor(ctx *execution.ExecutorContext, plan *plans.InsertPlanNode, childExecutor IExecutor) *InsertExecutor {
	return &InsertExecutor{
		BaseExecutor: BaseExecutor{
			executorCtx: ctx,
		},
		plan:          plan,
		childExecutor: childExecutor,
	}
}
