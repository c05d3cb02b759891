package table

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/danthegoodman1/gojsonutils"
	"github.com/danthegoodman1/rowbind/schema"
)

type (
	Row struct {
		Schema *schema.Schema

		// The list of column names, same order as ColVals and the schema
		ColNames []string
		// The list of column values. ROW columns hold a *Row, ARRAY columns of
		// rows hold []any and MAP columns of rows hold map[any]any.
		ColVals []any
	}
)

var (
	ErrNotFlatMap = errors.New("not a flat map")
)

// NewRow pairs vals with the fields of s.
func NewRow(s *schema.Schema, vals []any) (*Row, error) {
	if len(vals) != s.Len() {
		return nil, fmt.Errorf("schema %s has %d fields, got %d values", s, s.Len(), len(vals))
	}
	return &Row{
		Schema:   s,
		ColNames: s.FieldNames(),
		ColVals:  vals,
	}, nil
}

// Get returns the value of the named column and whether it exists.
func (r *Row) Get(name string) (any, bool) {
	i := r.Schema.IndexOf(name)
	if i < 0 {
		return nil, false
	}
	return r.ColVals[i], true
}

// Map renders the row as nested JSON compatible maps. Nested rows become
// objects, arrays become []any and map keys are formatted as strings.
func (r *Row) Map() map[string]any {
	m := make(map[string]any, len(r.ColNames))
	for i, name := range r.ColNames {
		m[name] = plain(r.ColVals[i])
	}
	return m
}

// FlatMap is Map with nested objects flattened into top level keys.
func (r *Row) FlatMap() (map[string]any, error) {
	flat, err := gojsonutils.Flatten(r.Map(), nil)
	if err != nil {
		return nil, fmt.Errorf("error in gojsonutils.Flatten: %w", err)
	}
	flatMap, ok := flat.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %+v", ErrNotFlatMap, flat)
	}
	return flatMap, nil
}

func plain(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case *Row:
		if val == nil {
			return nil
		}
		return val.Map()
	case []byte:
		return val
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = plain(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = plain(iter.Value().Interface())
		}
		return out
	}
	return v
}
