package plans

import (
	"fmt"

	"github.com/pkg/errors"

	"heapdb/catalog"
	"heapdb/catalog/db_types"
)

// NoGrouping is passed as group field when the aggregate is computed over all input tuples.
const NoGrouping = -1

var ErrUnsupportedAggregate = errors.New("unsupported aggregate")

type AggOp int

const (
	Count AggOp = iota
	Sum
	Avg
	Min
	Max
)

func (o AggOp) String() string {
	switch o {
	case Count:
		return "count"
	case Sum:
		return "sum"
	case Avg:
		return "avg"
	case Min:
		return "min"
	case Max:
		return "max"
	default:
		return "unknown"
	}
}

type AggregationPlanNode struct {
	BasePlanNode
	aggField   int
	groupField int
	op         AggOp
}

func (n *AggregationPlanNode) GetType() PlanType {
	return Aggregation
}

func (n *AggregationPlanNode) AggField() int {
	return n.aggField
}

func (n *AggregationPlanNode) GroupField() int {
	return n.groupField
}

func (n *AggregationPlanNode) Op() AggOp {
	return n.op
}

// NewAggregationPlanNode computes op over column aggField of child's tuples, grouped by column groupField. The out
// schema is (group, aggregate) or just (aggregate) when groupField is NoGrouping. Aggregate values are always
// integers.
func NewAggregationPlanNode(child IPlanNode, aggField, groupField int, op AggOp) (*AggregationPlanNode, error) {
	in := child.GetOutSchema()
	n := len(in.GetColumns())
	if aggField < 0 || aggField >= n {
		return nil, errors.Wrapf(catalog.ErrColumnNotFound, "aggregate field %d", aggField)
	}
	if groupField != NoGrouping && (groupField < 0 || groupField >= n) {
		return nil, errors.Wrapf(catalog.ErrColumnNotFound, "group field %d", groupField)
	}

	aggCol := in.GetColumn(aggField)
	if aggCol.TypeId.KindID != db_types.IntegerKind && op != Count {
		return nil, errors.Wrapf(ErrUnsupportedAggregate, "%v over %v column %q", op, aggCol.TypeId, aggCol.Name)
	}

	cols := make([]catalog.Column, 0, 2)
	if groupField != NoGrouping {
		groupCol := in.GetColumn(groupField)
		cols = append(cols, catalog.NewColumn(groupCol.Name, groupCol.TypeId))
	}
	cols = append(cols, catalog.NewColumn(fmt.Sprintf("%v(%s)", op, aggCol.Name), db_types.IntegerTypeID))

	return &AggregationPlanNode{
		BasePlanNode: BasePlanNode{
			OutSchema: catalog.NewSchema(cols),
			Children:  []IPlanNode{child},
		},
		aggField:   aggField,
		groupField: groupField,
		op:         op,
	}, nil
}
