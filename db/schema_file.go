package db

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"heapdb/catalog"
	"heapdb/catalog/db_types"
)

const schemaFileName = "tables.yaml"

var ErrInvalidSchema = errors.New("invalid schema")

type columnDef struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Size uint32 `yaml:"size,omitempty"`
}

type tableDef struct {
	Name    string      `yaml:"name"`
	Columns []columnDef `yaml:"columns"`
}

// schemaFile lists the tables of a data directory so that they can be reopened. Page files carry no schema.
type schemaFile struct {
	Tables []tableDef `yaml:"tables"`
}

func readSchemaFile(path string) (*schemaFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &schemaFile{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	sf := &schemaFile{}
	if err := yaml.Unmarshal(data, sf); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return sf, nil
}

// writeSchemaFile replaces the file at path atomically.
func writeSchemaFile(path string, sf *schemaFile) error {
	data, err := yaml.Marshal(sf)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", tmp)
	}
	return errors.Wrapf(os.Rename(tmp, path), "failed to replace %s", path)
}

func toTableDef(name string, schema catalog.Schema) tableDef {
	def := tableDef{Name: name}
	for _, col := range schema.GetColumns() {
		cd := columnDef{Name: col.Name, Type: col.TypeId.String()}
		if col.TypeId.KindID == db_types.FixedLenCharKind {
			cd.Size = col.TypeId.Size
		}
		def.Columns = append(def.Columns, cd)
	}
	return def
}

func (d tableDef) schema() (catalog.Schema, error) {
	cols := make([]catalog.Column, 0, len(d.Columns))
	for _, cd := range d.Columns {
		typeID, err := parseType(cd.Type, cd.Size)
		if err != nil {
			return nil, errors.Wrapf(err, "table %s column %s", d.Name, cd.Name)
		}
		cols = append(cols, catalog.NewColumn(cd.Name, typeID))
	}
	return catalog.NewSchema(cols), nil
}

func parseType(name string, size uint32) (db_types.TypeID, error) {
	switch strings.ToLower(name) {
	case "int":
		return db_types.IntegerTypeID, nil
	case "string":
		if size == 0 {
			size = db_types.DefaultCharSize
		}
		return db_types.FixedLenCharTypeID(size), nil
	default:
		return db_types.TypeID{}, errors.Wrapf(ErrInvalidSchema, "unknown type %q", name)
	}
}

// ParseSchema parses a column list like "id:int,name:string:32,age:int". String columns without a size hold
// db_types.DefaultCharSize bytes.
func ParseSchema(def string) (catalog.Schema, error) {
	if strings.TrimSpace(def) == "" {
		return nil, errors.Wrap(ErrInvalidSchema, "no columns")
	}

	seen := make(map[string]bool)
	cols := make([]catalog.Column, 0)
	for _, part := range strings.Split(def, ",") {
		fields := strings.Split(strings.TrimSpace(part), ":")
		if len(fields) < 2 || len(fields) > 3 || fields[0] == "" {
			return nil, errors.Wrapf(ErrInvalidSchema, "bad column %q, expected name:type[:size]", part)
		}

		var size uint64
		if len(fields) == 3 {
			var err error
			if size, err = strconv.ParseUint(fields[2], 10, 32); err != nil || size == 0 {
				return nil, errors.Wrapf(ErrInvalidSchema, "bad size in column %q", part)
			}
		}

		typeID, err := parseType(fields[1], uint32(size))
		if err != nil {
			return nil, err
		}
		if seen[fields[0]] {
			return nil, errors.Wrapf(ErrInvalidSchema, "duplicate column %q", fields[0])
		}
		seen[fields[0]] = true
		cols = append(cols, catalog.NewColumn(fields[0], typeID))
	}

	return catalog.NewSchema(cols), nil
}

// ParseValues parses one row of comma separated values against schema.
func ParseValues(schema catalog.Schema, row string) ([]*db_types.Value, error) {
	fields := strings.Split(row, ",")
	cols := schema.GetColumns()
	if len(fields) != len(cols) {
		return nil, errors.Wrapf(catalog.ErrSchemaMismatch, "expected %d values, got %d", len(cols), len(fields))
	}

	values := make([]*db_types.Value, 0, len(cols))
	for i, col := range cols {
		field := strings.TrimSpace(fields[i])
		if col.TypeId.KindID == db_types.IntegerKind {
			v, err := strconv.ParseInt(field, 10, 32)
			if err != nil {
				return nil, errors.Wrapf(catalog.ErrSchemaMismatch, "column %s: %q is not an int", col.Name, field)
			}
			values = append(values, db_types.NewValue(int32(v)))
			continue
		}
		values = append(values, db_types.NewValue(field))
	}
	return values, nil
}
