package expressions

import (
	"fmt"

	"heapdb/catalog"
	"heapdb/catalog/db_types"
)

var _ IPredicate = &CompExpression{}

// CompExpression compares its two children. Its value is 1 when the comparison holds and 0 otherwise.
type CompExpression struct {
	BaseExpression
	CompType db_types.CompOp
}

func NewCompExpression(op db_types.CompOp, lhs, rhs IExpression) *CompExpression {
	return &CompExpression{
		BaseExpression: BaseExpression{Children: []IExpression{lhs, rhs}},
		CompType:       op,
	}
}

func (e *CompExpression) Eval(t *catalog.Tuple, s catalog.Schema) *db_types.Value {
	if e.Test(t, s) {
		return db_types.NewValue(1)
	}
	return db_types.NewValue(0)
}

func (e *CompExpression) Test(t *catalog.Tuple, s catalog.Schema) bool {
	lhs := e.GetChildAt(0).Eval(t, s)
	rhs := e.GetChildAt(1).Eval(t, s)
	return lhs.Compare(e.CompType, rhs)
}

func (e *CompExpression) String() string {
	return fmt.Sprintf("(%v %v %v)", e.GetChildAt(0), e.CompType, e.GetChildAt(1))
}
