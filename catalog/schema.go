package catalog

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var ErrColumnNotFound = errors.New("column does not exist")

type Schema interface {
	GetColumns() []Column
	GetColumn(idx int) *Column
	GetColIdx(name string) (int, error)

	// TupleSize returns the fixed number of bytes a tuple of this schema occupies on a page.
	TupleSize() int
}

type SchemaImpl struct {
	columns []Column
	size    int
}

func (s *SchemaImpl) GetColIdx(name string) (int, error) {
	for i, column := range s.columns {
		if column.Name == name {
			return i, nil
		}
	}

	return 0, errors.Wrap(ErrColumnNotFound, name)
}

func (s *SchemaImpl) GetColumns() []Column {
	return s.columns
}

func (s *SchemaImpl) GetColumn(idx int) *Column {
	return &s.columns[idx]
}

func (s *SchemaImpl) TupleSize() int {
	return s.size
}

func (s *SchemaImpl) String() string {
	parts := make([]string, 0, len(s.columns))
	for _, c := range s.columns {
		parts = append(parts, fmt.Sprintf("%s %s", c.Name, c.TypeId))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func NewSchema(cols []Column) Schema {
	// set offsets of each column
	var offset uint32 = 0
	for i := 0; i < len(cols); i++ {
		cols[i].Offset = offset
		offset += cols[i].InlinedSize()
	}

	return &SchemaImpl{
		columns: cols,
		size:    int(offset),
	}
}
