package schema

import (
	"fmt"
)

type TypeName string

const (
	Byte     TypeName = "BYTE"
	Int16    TypeName = "INT16"
	Int32    TypeName = "INT32"
	Int64    TypeName = "INT64"
	Float    TypeName = "FLOAT"
	Double   TypeName = "DOUBLE"
	String   TypeName = "STRING"
	Boolean  TypeName = "BOOLEAN"
	Bytes    TypeName = "BYTES"
	DateTime TypeName = "DATETIME"
	Array    TypeName = "ARRAY"
	Map      TypeName = "MAP"
	Row      TypeName = "ROW"
)

// IsPrimitive reports whether values of the type are never null on their own.
func (tn TypeName) IsPrimitive() bool {
	switch tn {
	case Byte, Int16, Int32, Int64, Float, Double, Boolean:
		return true
	}
	return false
}

func (tn TypeName) IsComposite() bool {
	return tn == Array || tn == Map || tn == Row
}

type FieldType struct {
	TypeName TypeName `json:"type"`
	Nullable bool     `json:"nullable"`
	// Unsigned qualifies BYTE, INT16, INT32 and INT64 bound to unsigned Go
	// integers
	Unsigned bool `json:"unsigned,omitempty"`
	// ElementType is set for ARRAY
	ElementType *FieldType `json:"element,omitempty"`
	// MapKeyType and MapValueType are set for MAP
	MapKeyType   *FieldType `json:"key,omitempty"`
	MapValueType *FieldType `json:"value,omitempty"`
	// RowSchema is set for ROW
	RowSchema *Schema `json:"schema,omitempty"`
}

func Primitive(tn TypeName) FieldType {
	return FieldType{TypeName: tn}
}

// UnsignedOf is the unsigned variant of an integer type.
func UnsignedOf(tn TypeName) FieldType {
	return FieldType{TypeName: tn, Unsigned: true}
}

func ArrayOf(elem FieldType) FieldType {
	return FieldType{TypeName: Array, ElementType: &elem}
}

func MapOf(key, value FieldType) FieldType {
	return FieldType{TypeName: Map, MapKeyType: &key, MapValueType: &value}
}

func RowOf(s *Schema) FieldType {
	return FieldType{TypeName: Row, RowSchema: s}
}

func (ft FieldType) WithNullable(nullable bool) FieldType {
	ft.Nullable = nullable
	return ft
}

func (ft FieldType) Equals(other FieldType) bool {
	if ft.TypeName != other.TypeName || ft.Nullable != other.Nullable || ft.Unsigned != other.Unsigned {
		return false
	}
	switch ft.TypeName {
	case Array:
		return ptrEquals(ft.ElementType, other.ElementType)
	case Map:
		return ptrEquals(ft.MapKeyType, other.MapKeyType) && ptrEquals(ft.MapValueType, other.MapValueType)
	case Row:
		if ft.RowSchema == nil || other.RowSchema == nil {
			return ft.RowSchema == other.RowSchema
		}
		return ft.RowSchema.Equals(other.RowSchema)
	}
	return true
}

func ptrEquals(a, b *FieldType) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equals(*b)
}

// String renders the type the way it is stored in the catalog, e.g.
// `ARRAY<STRING>`, `MAP<STRING, INT64>`, `ROW<id INT32 NOT NULL>`, `INT16 UNSIGNED NOT NULL`.
func (ft FieldType) String() string {
	var s string
	switch ft.TypeName {
	case Array:
		s = fmt.Sprintf("ARRAY<%s>", ft.ElementType)
	case Map:
		s = fmt.Sprintf("MAP<%s, %s>", ft.MapKeyType, ft.MapValueType)
	case Row:
		s = "ROW" + ft.RowSchema.String()
	default:
		s = string(ft.TypeName)
	}
	if ft.Unsigned {
		s += " UNSIGNED"
	}
	if !ft.Nullable {
		s += " NOT NULL"
	}
	return s
}
