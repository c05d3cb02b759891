package parquet_accumulator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/danthegoodman1/rowbind/schema"
	"github.com/danthegoodman1/rowbind/table"
	"github.com/xitongsys/parquet-go/writer"
)

var (
	ErrUnsupportedType = errors.New("type cannot be written to parquet")
	ErrSchemaMismatch  = errors.New("row does not have the accumulator schema")
)

// WriteRows writes rows as one parquet file to w. Every row must carry the
// schema the accumulator was built from.
func (pa *ParquetSchemaAccumulator) WriteRows(w io.Writer, rows []*table.Row) error {
	parquetSchema, err := pa.GetSchemaString()
	if err != nil {
		return fmt.Errorf("error in GetSchemaString: %w", err)
	}

	pw, err := writer.NewJSONWriterFromWriter(parquetSchema, w, 4)
	if err != nil {
		return fmt.Errorf("error in NewJSONWriterFromWriter: %w", err)
	}

	for _, row := range rows {
		if !row.Schema.Equals(pa.source) {
			return fmt.Errorf("%w: expected %s, got %s", ErrSchemaMismatch, pa.source, row.Schema)
		}
		rowBytes, err := json.Marshal(encodeRow(row))
		if err != nil {
			return fmt.Errorf("error in json.Marshal of row: %w", err)
		}
		err = pw.Write(rowBytes)
		if err != nil {
			return fmt.Errorf("error in pw.Write for row %s: %w", string(rowBytes), err)
		}
	}

	err = pw.WriteStop()
	if err != nil {
		return fmt.Errorf("error in pw.WriteStop: %w", err)
	}
	return nil
}

// encodeRow renders a row as the JSON object parquet-go expects. DATETIME
// becomes epoch millis and BYTES a plain string.
func encodeRow(row *table.Row) map[string]any {
	m := make(map[string]any, len(row.ColNames))
	for i, f := range row.Schema.Fields() {
		m[f.Name] = encodeValue(row.ColVals[i], f.Type)
	}
	return m
}

func encodeValue(v any, ft schema.FieldType) any {
	if r, ok := v.(*table.Row); ok {
		if r == nil {
			return nil
		}
		return encodeRow(r)
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	v = rv.Interface()

	switch ft.TypeName {
	case schema.DateTime:
		if t, ok := v.(time.Time); ok {
			return t.UnixMilli()
		}
	case schema.Bytes:
		if b, ok := v.([]byte); ok {
			return string(b)
		}
	case schema.Array:
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return v
		}
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = encodeValue(rv.Index(i).Interface(), *ft.ElementType)
		}
		return out
	case schema.Map:
		if rv.Kind() != reflect.Map {
			return v
		}
		if rv.IsNil() {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = encodeValue(iter.Value().Interface(), *ft.MapValueType)
		}
		return out
	}
	return v
}
