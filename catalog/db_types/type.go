package db_types

const (
	IntegerKind      uint8 = 1
	FixedLenCharKind uint8 = 3
)

// DefaultCharSize is the number of bytes reserved for a string column unless the schema says otherwise.
const DefaultCharSize = 128

type TypeID struct {
	KindID uint8
	Size   uint32 // for fixed len array like types such as char[20]
}

var IntegerTypeID = TypeID{KindID: IntegerKind}

func FixedLenCharTypeID(size uint32) TypeID {
	return TypeID{KindID: FixedLenCharKind, Size: size}
}

// DbType is the interface that should be implemented to make a type storable in a fixed width record.
type DbType interface {
	Less(this *Value, than *Value) bool
	Serialize(dest []byte, src *Value)
	Deserialize(src []byte) *Value

	// Length returns the number of bytes the type always occupies when serialized.
	Length() int

	TypeId() TypeID
}

// GetInstance returns the DbType for typeID or nil if the kind is not supported.
func GetInstance(typeID TypeID) DbType {
	switch typeID.KindID {
	case IntegerKind:
		return &IntegerType{}
	case FixedLenCharKind:
		return &FixedLenCharType{Size: typeID.Size}
	default:
		return nil
	}
}

func (t TypeID) String() string {
	switch t.KindID {
	case IntegerKind:
		return "int"
	case FixedLenCharKind:
		return "string"
	default:
		return "unknown"
	}
}
