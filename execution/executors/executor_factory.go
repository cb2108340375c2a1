package executors

import (
	"github.com/pkg/errors"

	"heapdb/catalog"
	"heapdb/common"
	"heapdb/execution"
	"heapdb/execution/plans"
)

// CreateExecutor builds the executor tree for plan.
func CreateExecutor(ctx *execution.ExecutorContext, plan plans.IPlanNode) (IExecutor, error) {
	children := make([]IExecutor, 0, len(plan.GetChildren()))
	for _, child := range plan.GetChildren() {
		e, err := CreateExecutor(ctx, child)
		if err != nil {
			return nil, err
		}
		children = append(children, e)
	}

	switch p := plan.(type) {
	case *plans.SeqScanPlanNode:
		return NewSeqScanExecutor(ctx, p), nil
	case *plans.FilterPlanNode:
		return NewFilterExecutor(ctx, p, children[0]), nil
	case *plans.InsertPlanNode:
		if p.IsRawInsert() {
			return NewInsertExecutor(ctx, p, nil), nil
		}
		return NewInsertExecutor(ctx, p, children[0]), nil
	case *plans.DeletePlanNode:
		return NewDeleteExecutor(ctx, p, children[0]), nil
	case *plans.AggregationPlanNode:
		return NewAggregateExecutor(ctx, p, children[0]), nil
	default:
		return nil, errors.Wrapf(common.ErrInvalidState, "no executor for plan type %v", plan.GetType())
	}
}

// Drain initializes e, collects every tuple it yields and closes it.
func Drain(e IExecutor) ([]*catalog.Tuple, error) {
	if err := e.Init(); err != nil {
		return nil, err
	}
	defer e.Close()

	res := make([]*catalog.Tuple, 0)
	for {
		t, err := e.Next()
		if _, ok := err.(ErrNoTuple); ok {
			return res, nil
		}
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
}
