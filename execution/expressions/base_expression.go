package expressions

import (
	"heapdb/catalog"
	"heapdb/catalog/db_types"
)

// IExpression is the node in expression tree
type IExpression interface {
	Eval(*catalog.Tuple, catalog.Schema) *db_types.Value
	GetChildAt(idx int) IExpression
	GetChildren() []IExpression
}

// IPredicate is an expression that evaluates to true or false.
type IPredicate interface {
	Test(*catalog.Tuple, catalog.Schema) bool
}

// BaseExpression implements trivial methods needed for each type implementing IExpression interface such as
// tree traversal methods
type BaseExpression struct {
	Children []IExpression
}

func (e *BaseExpression) GetChildAt(idx int) IExpression {
	return e.Children[idx]
}

func (e *BaseExpression) GetChildren() []IExpression {
	return e.Children
}
