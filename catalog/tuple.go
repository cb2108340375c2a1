package catalog

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"heapdb/catalog/db_types"
	"heapdb/disk/pages"
)

var ErrSchemaMismatch = errors.New("tuple does not match schema")

// RecordID is the location of a stored tuple: the page it lives on and its slot in that page.
type RecordID struct {
	PageID pages.PageID
	Slot   int
}

func (r RecordID) String() string {
	return fmt.Sprintf("%v#%d", r.PageID, r.Slot)
}

// Tuple is one row. Rid is nil until the tuple is stored on a page.
type Tuple struct {
	Values []*db_types.Value
	Rid    *RecordID
}

func NewTupleWithSchema(values []*db_types.Value, schema Schema) (*Tuple, error) {
	t := &Tuple{Values: values}
	if err := t.Validate(schema); err != nil {
		return nil, err
	}

	return t, nil
}

// Validate checks that the tuple has one value per column and every value has the kind of its column.
func (t *Tuple) Validate(schema Schema) error {
	cols := schema.GetColumns()
	if len(t.Values) != len(cols) {
		return errors.Wrapf(ErrSchemaMismatch, "schema has %d columns, tuple has %d values", len(cols), len(t.Values))
	}

	for i, col := range cols {
		if t.Values[i] == nil || t.Values[i].Kind() != col.TypeId.KindID {
			return errors.Wrapf(ErrSchemaMismatch, "column %q expects %v", col.Name, col.TypeId)
		}
	}

	return nil
}

func (t *Tuple) GetValue(columnIdx int) *db_types.Value {
	return t.Values[columnIdx]
}

// Serialize writes the tuple into dest which must be at least schema.TupleSize() bytes.
func (t *Tuple) Serialize(schema Schema, dest []byte) {
	for i, col := range schema.GetColumns() {
		typ := db_types.GetInstance(col.TypeId)
		typ.Serialize(dest[col.Offset:col.Offset+uint32(typ.Length())], t.Values[i])
	}
}

// DeserializeTuple reads a tuple of the given schema from src.
func DeserializeTuple(schema Schema, src []byte) *Tuple {
	cols := schema.GetColumns()
	values := make([]*db_types.Value, len(cols))
	for i, col := range cols {
		values[i] = db_types.GetInstance(col.TypeId).Deserialize(src[col.Offset:])
	}

	return &Tuple{Values: values}
}

// Equals compares values only, record ids are ignored.
func (t *Tuple) Equals(other *Tuple) bool {
	if len(t.Values) != len(other.Values) {
		return false
	}
	for i := range t.Values {
		if !t.Values[i].Equals(other.Values[i]) {
			return false
		}
	}
	return true
}

func (t *Tuple) String() string {
	parts := make([]string, len(t.Values))
	for i, v := range t.Values {
		parts[i] = v.String()
	}
	return strings.Join(parts, "\t")
}
