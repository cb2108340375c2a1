package db_types

import "encoding/binary"

// IntegerType is a 4 byte big endian signed integer.
type IntegerType struct{}

func (i *IntegerType) Less(this *Value, than *Value) bool {
	return this.AsInt() < than.AsInt()
}

func (i *IntegerType) Serialize(dest []byte, src *Value) {
	binary.BigEndian.PutUint32(dest, uint32(src.AsInt()))
}

func (i *IntegerType) Deserialize(src []byte) *Value {
	return NewIntValue(int32(binary.BigEndian.Uint32(src)))
}

func (i *IntegerType) Length() int {
	return 4
}

func (i *IntegerType) TypeId() TypeID {
	return IntegerTypeID
}
