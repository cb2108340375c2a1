package executors

import (
	"heapdb/catalog"
	"heapdb/catalog/db_types"
	"heapdb/execution"
	"heapdb/execution/plans"
)

// AggregateExecutor drains its child on Init and then yields one tuple per group.
type AggregateExecutor struct {
	BaseExecutor
	plan          *plans.AggregationPlanNode
	childExecutor IExecutor
	results       []*catalog.Tuple
	idx           int
}

func (e *AggregateExecutor) Init() error {
	if err := e.childExecutor.Init(); err != nil {
		return err
	}

	agg, err := e.newAggregator()
	if err != nil {
		return err
	}

	for {
		t, err := e.childExecutor.Next()
		if _, ok := err.(ErrNoTuple); ok {
			break
		}
		if err != nil {
			return err
		}
		if err := agg.MergeTupleIntoGroup(t); err != nil {
			return err
		}
	}

	e.results = agg.Results()
	e.idx = 0
	return nil
}

func (e *AggregateExecutor) newAggregator() (Aggregator, error) {
	in := e.childExecutor.GetOutSchema()
	if in.GetColumn(e.plan.AggField()).TypeId.KindID == db_types.IntegerKind {
		return NewIntegerAggregator(e.plan.GroupField(), e.plan.AggField(), e.plan.Op())
	}
	return NewStringAggregator(e.plan.GroupField(), e.plan.AggField(), e.plan.Op())
}

func (e *AggregateExecutor) GetOutSchema() catalog.Schema {
	return e.plan.OutSchema
}

func (e *AggregateExecutor) Next() (*catalog.Tuple, error) {
	if e.idx >= len(e.results) {
		return nil, ErrNoTuple{}
	}

	t := e.results[e.idx]
	e.idx++
	return t, nil
}

func (e *AggregateExecutor) Close() {
	e.childExecutor.Close()
	e.results = nil
}

func NewAggregateExecutor(ctx *execution.ExecutorContext, plan *plans.AggregationPlanNode, childExecutor IExecutor) *AggregateExecutor {
	return &AggregateExecutor{
		BaseExecutor: BaseExecutor{
			executorCtx: ctx,
		},
		plan:          plan,
		childExecutor: childExecutor,
	}
}
