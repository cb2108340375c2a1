package expressions

import (
	"heapdb/catalog"
	"heapdb/catalog/db_types"
)

var _ IPredicate = &AndExpression{}

// AndExpression holds when every child predicate holds. Children are evaluated in order and evaluation stops at the
// first false one.
type AndExpression struct {
	BaseExpression
	predicates []IPredicate
}

func NewAndExpression(predicates ...IPredicate) *AndExpression {
	return &AndExpression{predicates: predicates}
}

func (e *AndExpression) Eval(t *catalog.Tuple, s catalog.Schema) *db_types.Value {
	if e.Test(t, s) {
		return db_types.NewValue(1)
	}
	return db_types.NewValue(0)
}

func (e *AndExpression) Test(t *catalog.Tuple, s catalog.Schema) bool {
	for _, p := range e.predicates {
		if !p.Test(t, s) {
			return false
		}
	}
	return true
}
