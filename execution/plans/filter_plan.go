package plans

import "heapdb/execution/expressions"

type FilterPlanNode struct {
	BasePlanNode
	predicate expressions.IPredicate
}

func (n *FilterPlanNode) GetType() PlanType {
	return Filter
}

func (n *FilterPlanNode) GetPredicate() expressions.IPredicate {
	return n.predicate
}

func NewFilterPlanNode(child IPlanNode, predicate expressions.IPredicate) *FilterPlanNode {
	return &FilterPlanNode{
		BasePlanNode: BasePlanNode{
			OutSchema: child.GetOutSchema(),
			Children:  []IPlanNode{child},
		},
		predicate: predicate,
	}
}
