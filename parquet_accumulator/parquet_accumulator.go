package parquet_accumulator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danthegoodman1/rowbind/schema"
)

type (
	// ParquetSchemaAccumulator holds the parquet-go schema of one row schema.
	ParquetSchemaAccumulator struct {
		source *schema.Schema
		schema ParquetSchema
	}

	ParquetSchema struct {
		TagStructs SchemaTag        `json:"-,omitempty"`
		Fields     []*ParquetSchema `json:",omitempty"`
	}

	ParquetJSONSchema struct {
		Tag    string               `json:",omitempty"`
		Fields []*ParquetJSONSchema `json:",omitempty"`
	}

	SchemaTag struct {
		Name           string         `json:"name,omitempty"`
		Type           string         `json:"type,omitempty"`
		ConvertedType  string         `json:"convertedtype,omitempty"`
		RepetitionType RepetitionType `json:"repetitiontype,omitempty"`
		Encoding       string         `json:"encoding,omitempty"`
	}

	RepetitionType string
)

var (
	Optional RepetitionType = "OPTIONAL"
	Required RepetitionType = "REQUIRED"
)

func NewParquetAccumulator(s *schema.Schema) (*ParquetSchemaAccumulator, error) {
	pa := &ParquetSchemaAccumulator{
		source: s,
		schema: ParquetSchema{
			TagStructs: SchemaTag{
				Name:           "parquet_go_root",
				RepetitionType: Required,
			},
		},
	}
	for _, f := range s.Fields() {
		fieldSchema, err := getParquetSchema(f.Name, f.Type)
		if err != nil {
			return nil, fmt.Errorf("error in getParquetSchema for %s: %w", f.Name, err)
		}
		pa.schema.Fields = append(pa.schema.Fields, fieldSchema)
	}
	return pa, nil
}

func repetition(ft schema.FieldType) RepetitionType {
	if ft.Nullable {
		return Optional
	}
	return Required
}

// getParquetSchema maps a field onto parquet-go's JSON schema tags
func getParquetSchema(name string, ft schema.FieldType) (*ParquetSchema, error) {
	ps := &ParquetSchema{
		TagStructs: SchemaTag{
			Name:           name,
			RepetitionType: repetition(ft),
		},
	}
	tag := &ps.TagStructs

	switch {
	case ft.Unsigned:
		switch ft.TypeName {
		case schema.Byte:
			tag.Type, tag.ConvertedType = "INT32", "UINT_8"
		case schema.Int16:
			tag.Type, tag.ConvertedType = "INT32", "UINT_16"
		case schema.Int32:
			tag.Type, tag.ConvertedType = "INT32", "UINT_32"
		case schema.Int64:
			tag.Type, tag.ConvertedType = "INT64", "UINT_64"
		default:
			return nil, fmt.Errorf("%w: unsigned %s", ErrUnsupportedType, ft.TypeName)
		}
		return ps, nil
	}

	switch ft.TypeName {
	case schema.Byte:
		tag.Type, tag.ConvertedType = "INT32", "INT_8"
	case schema.Int16:
		tag.Type, tag.ConvertedType = "INT32", "INT_16"
	case schema.Int32:
		tag.Type = "INT32"
	case schema.Int64:
		tag.Type = "INT64"
	case schema.Float:
		tag.Type = "FLOAT"
	case schema.Double:
		tag.Type = "DOUBLE"
	case schema.Boolean:
		tag.Type = "BOOLEAN"
	case schema.String:
		tag.Type = "BYTE_ARRAY"
		tag.ConvertedType = "UTF8"
		tag.Encoding = "PLAIN"
	case schema.Bytes:
		tag.Type = "BYTE_ARRAY"
	case schema.DateTime:
		tag.Type, tag.ConvertedType = "INT64", "TIMESTAMP_MILLIS"
	case schema.Array:
		tag.Type = "LIST"
		elem, err := getParquetSchema("Element", *ft.ElementType)
		if err != nil {
			return nil, err
		}
		ps.Fields = append(ps.Fields, elem)
	case schema.Map:
		tag.Type = "MAP"
		key, err := getParquetSchema("Key", ft.MapKeyType.WithNullable(false))
		if err != nil {
			return nil, err
		}
		if key.TagStructs.Type == "" || key.TagStructs.Type == "LIST" || key.TagStructs.Type == "MAP" {
			return nil, fmt.Errorf("%w: map key %s", ErrUnsupportedType, ft.MapKeyType)
		}
		value, err := getParquetSchema("Value", *ft.MapValueType)
		if err != nil {
			return nil, err
		}
		ps.Fields = append(ps.Fields, key, value)
	case schema.Row:
		// a tag without a type is a group
		for _, f := range ft.RowSchema.Fields() {
			child, err := getParquetSchema(f.Name, f.Type)
			if err != nil {
				return nil, err
			}
			ps.Fields = append(ps.Fields, child)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ft.TypeName)
	}
	return ps, nil
}

func (pa *ParquetSchemaAccumulator) GetColumnNames() []string {
	var cols []string
	for _, field := range pa.schema.Fields {
		cols = append(cols, field.TagStructs.Name)
	}
	return cols
}

// GetColumnTypes returns the types of columns in the same order, as rendered
// by schema.FieldType, e.g. `ARRAY<STRING>`
func (pa *ParquetSchemaAccumulator) GetColumnTypes() []string {
	var cols []string
	for _, field := range pa.source.Fields() {
		cols = append(cols, field.Type.String())
	}
	return cols
}

// ToParquetJSONSchema recursively converts
func (ps *ParquetSchema) ToParquetJSONSchema() *ParquetJSONSchema {
	var tagArr []string
	if ps.TagStructs.Type != "" {
		tagArr = append(tagArr, "type="+ps.TagStructs.Type)
	}
	if ps.TagStructs.ConvertedType != "" {
		tagArr = append(tagArr, "convertedtype="+ps.TagStructs.ConvertedType)
	}
	if ps.TagStructs.Encoding != "" {
		tagArr = append(tagArr, "encoding="+ps.TagStructs.Encoding)
	}
	if ps.TagStructs.Name != "" {
		tagArr = append(tagArr, "name="+ps.TagStructs.Name)
	}
	if string(ps.TagStructs.RepetitionType) != "" {
		tagArr = append(tagArr, "repetitiontype="+string(ps.TagStructs.RepetitionType))
	}
	var fields []*ParquetJSONSchema
	for _, field := range ps.Fields {
		fields = append(fields, field.ToParquetJSONSchema())
	}
	return &ParquetJSONSchema{
		Tag:    strings.Join(tagArr, ", "),
		Fields: fields,
	}
}

// GetSchemaString returns the JSON formatted schema string
func (pa *ParquetSchemaAccumulator) GetSchemaString() (string, error) {
	b, err := json.Marshal(pa.schema.ToParquetJSONSchema())
	if err != nil {
		return "", fmt.Errorf("error in json.Marshal: %w", err)
	}
	return string(b), nil
}
