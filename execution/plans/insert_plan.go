package plans

import (
	"heapdb/catalog/db_types"
)

type InsertPlanNode struct {
	BasePlanNode
	tableID int
	values  [][]*db_types.Value
}

func (n *InsertPlanNode) GetType() PlanType {
	return Insert
}

func (n *InsertPlanNode) IsRawInsert() bool {
	return len(n.GetChildren()) == 0
}

func (n *InsertPlanNode) RawValuesAt(idx int) []*db_types.Value {
	return n.values[idx]
}

func (n *InsertPlanNode) RawValues() [][]*db_types.Value {
	return n.values
}

func (n *InsertPlanNode) GetTableID() int {
	return n.tableID
}

// NewRawInsertPlanNode creates a new insert plan node for inserting raw values.
func NewRawInsertPlanNode(values [][]*db_types.Value, tableID int) *InsertPlanNode {
	return &InsertPlanNode{
		BasePlanNode: BasePlanNode{
			OutSchema: countSchema(),
			Children:  []IPlanNode{},
		},
		tableID: tableID,
		values:  values,
	}
}

// NewInsertPlanNode creates an insert plan node that inserts every tuple yielded by child.
func NewInsertPlanNode(child IPlanNode, tableID int) *InsertPlanNode {
	return &InsertPlanNode{
		BasePlanNode: BasePlanNode{
			OutSchema: countSchema(),
			Children:  []IPlanNode{child},
		},
		tableID: tableID,
		values:  [][]*db_types.Value{},
	}
}
