package catalog

import "heapdb/catalog/db_types"

type Column struct {
	Name   string
	TypeId db_types.TypeID

	// Offset is the columns offset in the serialized tuple
	Offset uint32
}

func NewColumn(name string, typeID db_types.TypeID) Column {
	return Column{Name: name, TypeId: typeID}
}

// InlinedSize returns the number of bytes the column occupies in a serialized tuple.
func (c *Column) InlinedSize() uint32 {
	return uint32(db_types.GetInstance(c.TypeId).Length())
}
