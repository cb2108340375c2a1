package plans

import (
	"heapdb/catalog"
	"heapdb/execution/expressions"
)

type SeqScanPlanNode struct {
	BasePlanNode
	predicate expressions.IPredicate
	tableID   int
	alias     string
}

func (n *SeqScanPlanNode) GetType() PlanType {
	return SeqScan
}

// GetPredicate returns the filter applied while scanning, nil means every tuple is yielded.
func (n *SeqScanPlanNode) GetPredicate() expressions.IPredicate {
	return n.predicate
}

func (n *SeqScanPlanNode) GetTableID() int {
	return n.tableID
}

func (n *SeqScanPlanNode) GetAlias() string {
	return n.alias
}

// NewSeqScanPlanNode creates a scan over tableID. Column names of the out schema are prefixed with alias, or with
// the table name when alias is empty, as in "alias.column".
func NewSeqScanPlanNode(ctg catalog.Catalog, tableID int, alias string, predicate expressions.IPredicate) (*SeqScanPlanNode, error) {
	schema, err := ctg.GetSchema(tableID)
	if err != nil {
		return nil, err
	}

	if alias == "" {
		if alias, err = ctg.GetTableName(tableID); err != nil {
			return nil, err
		}
	}

	cols := make([]catalog.Column, 0, len(schema.GetColumns()))
	for _, col := range schema.GetColumns() {
		cols = append(cols, catalog.NewColumn(alias+"."+col.Name, col.TypeId))
	}

	return &SeqScanPlanNode{
		BasePlanNode: BasePlanNode{
			OutSchema: catalog.NewSchema(cols),
			Children:  []IPlanNode{},
		},
		predicate: predicate,
		tableID:   tableID,
		alias:     alias,
	}, nil
}
