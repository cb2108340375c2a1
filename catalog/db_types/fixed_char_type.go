package db_types

import "encoding/binary"

// FixedLenCharType is a string stored in a fixed width slot: a 4 byte length followed by Size bytes. Longer
// strings are truncated to Size bytes.
type FixedLenCharType struct {
	Size uint32
}

func (c *FixedLenCharType) Less(this *Value, than *Value) bool {
	return this.AsString() < than.AsString()
}

func (c *FixedLenCharType) Serialize(dest []byte, src *Value) {
	str := src.AsString()
	if uint32(len(str)) > c.Size {
		str = str[:c.Size]
	}

	binary.BigEndian.PutUint32(dest, uint32(len(str)))
	n := copy(dest[4:4+c.Size], str)
	clear(dest[4+n : 4+c.Size])
}

func (c *FixedLenCharType) Deserialize(src []byte) *Value {
	n := binary.BigEndian.Uint32(src)
	if n > c.Size {
		n = c.Size
	}
	return NewStringValue(string(src[4 : 4+n]))
}

func (c *FixedLenCharType) Length() int {
	return 4 + int(c.Size)
}

func (c *FixedLenCharType) TypeId() TypeID {
	return FixedLenCharTypeID(c.Size)
}
