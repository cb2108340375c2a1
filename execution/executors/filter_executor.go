package executors

import (
	"heapdb/catalog"
	"heapdb/execution"
	"heapdb/execution/plans"
)

type FilterExecutor struct {
	BaseExecutor
	plan          *plans.FilterPlanNode
	childExecutor IExecutor
}

func (e *FilterExecutor) Init() error {
	return e.childExecutor.Init()
}

func (e *FilterExecutor) GetOutSchema() catalog.Schema {
	return e.plan.OutSchema
}

func (e *FilterExecutor) Next() (*catalog.Tuple, error) {
	for {
		t, err := e.childExecutor.Next()
		if err != nil {
			return nil, err
		}

		if e.plan.GetPredicate().Test(t, e.GetOutSchema()) {
			return t, nil
		}
	}
}

func (e *FilterExecutor) Close() {
	e.childExecutor.Close()
}

func NewFilterExecutor(ctx *execution.ExecutorContext, plan *plans.FilterPlanNode, childExecutor IExecutor) *FilterExecutor {
	return &FilterExecutor{
		BaseExecutor: BaseExecutor{
			executorCtx: ctx,
		},
		plan:          plan,
		childExecutor: childExecutor,
	}
}
