package executors

import (
	"math"

	"github.com/pkg/errors"

	"heapdb/catalog"
	"heapdb/catalog/db_types"
	"heapdb/execution/plans"
)

// ErrAggregateOverflow is returned when a SUM or COUNT no longer fits the integer column it is emitted as.
var ErrAggregateOverflow = errors.New("aggregate value out of integer range")

// Aggregator folds tuples into per group aggregate values.
type Aggregator interface {
	// MergeTupleIntoGroup adds t to the group it belongs to.
	MergeTupleIntoGroup(t *catalog.Tuple) error

	// Results returns one tuple per group in the order groups were first seen. Each tuple is (group, value), or
	// just (value) when there is no grouping.
	Results() []*catalog.Tuple
}

// groups keeps group states in first seen order, keyed by the group value.
type groups[S any] struct {
	groupField int
	index      map[interface{}]int
	keys       []*db_types.Value
	states     []*S
}

func newGroups[S any](groupField int) groups[S] {
	return groups[S]{
		groupField: groupField,
		index:      make(map[interface{}]int),
	}
}

// get returns the state of t's group, creating it with init when the group is new.
func (g *groups[S]) get(t *catalog.Tuple, init func() *S) *S {
	var key *db_types.Value
	var mapKey interface{}
	if g.groupField != plans.NoGrouping {
		key = t.GetValue(g.groupField)
		mapKey = key.GetAsInterface()
	}

	if idx, ok := g.index[mapKey]; ok {
		return g.states[idx]
	}

	s := init()
	g.index[mapKey] = len(g.states)
	g.keys = append(g.keys, key)
	g.states = append(g.states, s)
	return s
}

func (g *groups[S]) tuple(i int, val int64) *catalog.Tuple {
	v := db_types.NewValue(int32(val))
	if g.groupField == plans.NoGrouping {
		return &catalog.Tuple{Values: []*db_types.Value{v}}
	}
	return &catalog.Tuple{Values: []*db_types.Value{g.keys[i], v}}
}

type intAggState struct {
	count int64
	sum   int64
	min   int32
	max   int32
}

// IntegerAggregator computes COUNT, SUM, AVG, MIN or MAX over an integer column. AVG is the integer quotient of
// sum and count.
type IntegerAggregator struct {
	aggField int
	op       plans.AggOp
	groups   groups[intAggState]
}

func NewIntegerAggregator(groupField, aggField int, op plans.AggOp) (*IntegerAggregator, error) {
	switch op {
	case plans.Count, plans.Sum, plans.Avg, plans.Min, plans.Max:
	default:
		return nil, errors.Wrapf(plans.ErrUnsupportedAggregate, "%v", op)
	}

	return &IntegerAggregator{
		aggField: aggField,
		op:       op,
		groups:   newGroups[intAggState](groupField),
	}, nil
}

func (a *IntegerAggregator) MergeTupleIntoGroup(t *catalog.Tuple) error {
	val := t.GetValue(a.aggField)
	if val.Kind() != db_types.IntegerKind {
		return errors.Wrapf(catalog.ErrSchemaMismatch, "aggregate field %d is not an integer", a.aggField)
	}
	v := val.AsInt()

	s := a.groups.get(t, func() *intAggState {
		return &intAggState{min: v, max: v}
	})
	s.count++
	s.sum += int64(v)
	if err := a.checkRange(s); err != nil {
		return err
	}
	if v < s.min {
		s.min = v
	}
	if v > s.max {
		s.max = v
	}
	return nil
}

// checkRange fails once the emitted value of s would not fit an int32. AVG, MIN and MAX always fit.
func (a *IntegerAggregator) checkRange(s *intAggState) error {
	var val int64
	switch a.op {
	case plans.Count:
		val = s.count
	case plans.Sum:
		val = s.sum
	default:
		return nil
	}
	if val > math.MaxInt32 || val < math.MinInt32 {
		return errors.Wrapf(ErrAggregateOverflow, "%v reached %d", a.op, val)
	}
	return nil
}

func (a *IntegerAggregator) Results() []*catalog.Tuple {
	// an ungrouped count or sum over no input is still a value
	if len(a.groups.states) == 0 && a.groups.groupField == plans.NoGrouping && (a.op == plans.Count || a.op == plans.Sum) {
		return []*catalog.Tuple{a.groups.tuple(0, 0)}
	}

	res := make([]*catalog.Tuple, 0, len(a.groups.states))
	for i, s := range a.groups.states {
		var val int64
		switch a.op {
		case plans.Count:
			val = s.count
		case plans.Sum:
			val = s.sum
		case plans.Avg:
			val = s.sum / s.count
		case plans.Min:
			val = int64(s.min)
		case plans.Max:
			val = int64(s.max)
		}
		res = append(res, a.groups.tuple(i, val))
	}
	return res
}

// StringAggregator counts the values of a string column. It supports no other aggregate.
type StringAggregator struct {
	aggField int
	groups   groups[int64]
}

func NewStringAggregator(groupField, aggField int, op plans.AggOp) (*StringAggregator, error) {
	if op != plans.Count {
		return nil, errors.Wrapf(plans.ErrUnsupportedAggregate, "%v over strings", op)
	}

	return &StringAggregator{
		aggField: aggField,
		groups:   newGroups[int64](groupField),
	}, nil
}

func (a *StringAggregator) MergeTupleIntoGroup(t *catalog.Tuple) error {
	if t.GetValue(a.aggField).Kind() != db_types.FixedLenCharKind {
		return errors.Wrapf(catalog.ErrSchemaMismatch, "aggregate field %d is not a string", a.aggField)
	}

	count := a.groups.get(t, func() *int64 { return new(int64) })
	if *count == math.MaxInt32 {
		return errors.Wrapf(ErrAggregateOverflow, "count exceeds %d", math.MaxInt32)
	}
	*count++
	return nil
}

func (a *StringAggregator) Results() []*catalog.Tuple {
	if len(a.groups.states) == 0 && a.groups.groupField == plans.NoGrouping {
		return []*catalog.Tuple{a.groups.tuple(0, 0)}
	}

	res := make([]*catalog.Tuple, 0, len(a.groups.states))
	for i, count := range a.groups.states {
		res = append(res, a.groups.tuple(i, *count))
	}
	return res
}
