package plans

import (
	"heapdb/catalog"
	"heapdb/catalog/db_types"
)

type PlanType int

const (
	SeqScan PlanType = iota
	Filter
	Insert
	Delete
	Aggregation
)

func (t PlanType) String() string {
	switch t {
	case SeqScan:
		return "SeqScan"
	case Filter:
		return "Filter"
	case Insert:
		return "Insert"
	case Delete:
		return "Delete"
	case Aggregation:
		return "Aggregation"
	default:
		return "Unknown"
	}
}

type IPlanNode interface {
	GetType() PlanType
	GetOutSchema() catalog.Schema
	GetChildren() []IPlanNode
}

type BasePlanNode struct {
	// OutSchema is the schema of the tuples this node yields. In the volcano model every node yields tuples, and this
	// tells the parent what they look like.
	OutSchema catalog.Schema
	Children  []IPlanNode
}

func (n *BasePlanNode) GetChildAt(idx int) IPlanNode {
	return n.Children[idx]
}

func (n *BasePlanNode) GetChildren() []IPlanNode {
	return n.Children
}

func (n *BasePlanNode) GetOutSchema() catalog.Schema {
	return n.OutSchema
}

// countSchema is the out schema of nodes that modify a table. They yield a single tuple holding the number of
// affected rows.
func countSchema() catalog.Schema {
	return catalog.NewSchema([]catalog.Column{catalog.NewColumn("count", db_types.IntegerTypeID)})
}
