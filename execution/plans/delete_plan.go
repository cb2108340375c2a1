package plans

// DeletePlanNode deletes every tuple its child yields. Tuples must come from a scan so that they carry record ids.
type DeletePlanNode struct {
	BasePlanNode
}

func (n *DeletePlanNode) GetType() PlanType {
	return Delete
}

func NewDeletePlanNode(child IPlanNode) *DeletePlanNode {
	return &DeletePlanNode{
		BasePlanNode: BasePlanNode{
			OutSchema: countSchema(),
			Children:  []IPlanNode{child},
		},
	}
}
