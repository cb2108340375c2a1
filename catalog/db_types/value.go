package db_types

import (
	"fmt"
	"strconv"
)

// Value is a single field of a tuple. Its kind decides how it is compared; its width is decided by the column
// it is stored in.
type Value struct {
	kind  uint8
	value interface{}
}

func NewIntValue(v int32) *Value {
	return &Value{kind: IntegerKind, value: v}
}

func NewStringValue(s string) *Value {
	return &Value{kind: FixedLenCharKind, value: s}
}

// NewValue creates a value from a go value. Only int32, int and string are supported.
func NewValue(src interface{}) *Value {
	switch v := src.(type) {
	case int32:
		return NewIntValue(v)
	case int:
		return NewIntValue(int32(v))
	case string:
		return NewStringValue(v)
	default:
		panic(fmt.Sprintf("not supported type: %T", src))
	}
}

func (v *Value) Kind() uint8 {
	return v.kind
}

func (v *Value) AsInt() int32 {
	return v.value.(int32)
}

func (v *Value) AsString() string {
	return v.value.(string)
}

func (v *Value) GetAsInterface() interface{} {
	return v.value
}

func (v *Value) Less(than *Value) bool {
	if v.kind == IntegerKind {
		return v.AsInt() < than.AsInt()
	}
	return v.AsString() < than.AsString()
}

func (v *Value) Equals(other *Value) bool {
	return v.kind == other.kind && v.value == other.value
}

// Compare evaluates "v op other". Values of different kinds are never equal and never ordered.
func (v *Value) Compare(op CompOp, other *Value) bool {
	if v.kind != other.kind {
		return op == NotEqual
	}

	switch op {
	case Equal:
		return v.Equals(other)
	case NotEqual:
		return !v.Equals(other)
	case LessThan:
		return v.Less(other)
	case LessThanOrEqual:
		return !other.Less(v)
	case GreaterThan:
		return other.Less(v)
	case GreaterThanOrEqual:
		return !v.Less(other)
	default:
		panic(fmt.Sprintf("unknown comparison: %v", op))
	}
}

func (v *Value) String() string {
	if v.kind == IntegerKind {
		return strconv.Itoa(int(v.AsInt()))
	}
	return v.AsString()
}
