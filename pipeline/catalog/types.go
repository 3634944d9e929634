package catalog

import "strings"

// ColumnType classifies an Oracle declared type for projection purposes
type ColumnType int

const (
	TypeOther ColumnType = iota
	TypeGeometry
	TypeNumeric
	TypeLargeObject
)

func (t ColumnType) String() string {
	switch t {
	case TypeGeometry:
		return "GEOMETRY"
	case TypeNumeric:
		return "NUMERIC"
	case TypeLargeObject:
		return "LOB"
	default:
		return "OTHER"
	}
}

// TableDescriptor identifies one table of a schema owner
type TableDescriptor struct {
	Owner string
	Name  string
}

func (t TableDescriptor) String() string {
	return t.Owner + "." + t.Name
}

// ColumnDescriptor is one row of ALL_TAB_COLUMNS
type ColumnDescriptor struct {
	Name     string
	DataType string // declared type as reported by the catalog
	Type     ColumnType
}

// ClassifyDataType maps an ALL_TAB_COLUMNS.DATA_TYPE value to a ColumnType
func ClassifyDataType(dataType string) ColumnType {
	switch strings.ToUpper(strings.TrimSpace(dataType)) {
	case "SDO_GEOMETRY":
		return TypeGeometry
	case "NUMBER", "FLOAT", "DECIMAL", "BINARY_FLOAT", "BINARY_DOUBLE":
		return TypeNumeric
	case "CLOB", "NCLOB", "BLOB":
		return TypeLargeObject
	default:
		return TypeOther
	}
}
