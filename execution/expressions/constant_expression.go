package expressions

import (
	"heapdb/catalog"
	"heapdb/catalog/db_types"
)

type ConstExpression struct {
	BaseExpression
	Val *db_types.Value
}

func NewConstExpression(val *db_types.Value) *ConstExpression {
	return &ConstExpression{Val: val}
}

func (e *ConstExpression) Eval(*catalog.Tuple, catalog.Schema) *db_types.Value {
	return e.Val
}

func (e *ConstExpression) String() string {
	return e.Val.String()
}
