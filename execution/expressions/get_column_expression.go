package expressions

import (
	"fmt"

	"heapdb/catalog"
	"heapdb/catalog/db_types"
)

type GetColumnExpression struct {
	BaseExpression
	ColIdx int
}

func NewGetColumnExpression(colIdx int) *GetColumnExpression {
	return &GetColumnExpression{ColIdx: colIdx}
}

func (e *GetColumnExpression) Eval(t *catalog.Tuple, s catalog.Schema) *db_types.Value {
	return t.GetValue(e.ColIdx)
}

func (e *GetColumnExpression) String() string {
	return fmt.Sprintf("$%d", e.ColIdx)
}
