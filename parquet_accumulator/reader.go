package parquet_accumulator

import (
	"fmt"
	"reflect"
	"time"

	"github.com/danthegoodman1/rowbind/schema"
	"github.com/danthegoodman1/rowbind/table"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/reader"
)

// ReadRows reads a parquet file written by WriteRows back into rows of the
// accumulator schema.
func (pa *ParquetSchemaAccumulator) ReadRows(data []byte) ([]*table.Row, error) {
	parquetSchema, err := pa.GetSchemaString()
	if err != nil {
		return nil, fmt.Errorf("error in GetSchemaString: %w", err)
	}

	fr, err := buffer.NewBufferFile(data)
	if err != nil {
		return nil, fmt.Errorf("error in buffer.NewBufferFile: %w", err)
	}
	pr, err := reader.NewParquetReader(fr, parquetSchema, 4)
	if err != nil {
		return nil, fmt.Errorf("error in NewParquetReader: %w", err)
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	if num == 0 {
		return nil, nil
	}
	records, err := pr.ReadByNumber(num)
	if err != nil {
		return nil, fmt.Errorf("error in ReadByNumber: %w", err)
	}

	rows := make([]*table.Row, len(records))
	for i, record := range records {
		rows[i], err = decodeRow(reflect.ValueOf(record), pa.source)
		if err != nil {
			return nil, fmt.Errorf("error decoding row %d: %w", i, err)
		}
	}
	return rows, nil
}

// decodeRow turns one of the structs built by the parquet reader back into a
// row. Struct fields are named after the columns the way parquet-go names them.
func decodeRow(rv reflect.Value, s *schema.Schema) (*table.Row, error) {
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: expected a struct, got %s", ErrSchemaMismatch, rv.Type())
	}
	vals := make([]any, s.Len())
	for i, f := range s.Fields() {
		fv := rv.FieldByName(common.StringToVariableName(f.Name))
		if !fv.IsValid() {
			return nil, fmt.Errorf("%w: missing column %s", ErrSchemaMismatch, f.Name)
		}
		v, err := decodeValue(fv, f.Type)
		if err != nil {
			return nil, fmt.Errorf("error decoding column %s: %w", f.Name, err)
		}
		vals[i] = v
	}
	return table.NewRow(s, vals)
}

func decodeValue(rv reflect.Value, ft schema.FieldType) (any, error) {
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	if ft.Unsigned {
		// stored as the bits of the signed physical type
		switch ft.TypeName {
		case schema.Byte:
			return uint8(rv.Int()), nil
		case schema.Int16:
			return uint16(rv.Int()), nil
		case schema.Int32:
			return uint32(rv.Int()), nil
		case schema.Int64:
			return uint64(rv.Int()), nil
		}
	}

	switch ft.TypeName {
	case schema.Row:
		return decodeRow(rv, ft.RowSchema)
	case schema.Array:
		if rv.IsNil() {
			return nil, nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			v, err := decodeValue(rv.Index(i), *ft.ElementType)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case schema.Map:
		if rv.IsNil() {
			return nil, nil
		}
		out := make(map[any]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := decodeValue(iter.Key(), *ft.MapKeyType)
			if err != nil {
				return nil, err
			}
			v, err := decodeValue(iter.Value(), *ft.MapValueType)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	case schema.DateTime:
		return time.UnixMilli(rv.Int()).UTC(), nil
	case schema.Bytes:
		return []byte(rv.String()), nil
	case schema.Byte:
		return int8(rv.Int()), nil
	case schema.Int16:
		return int16(rv.Int()), nil
	}
	return rv.Interface(), nil
}
