package table

import (
	"fmt"
	"reflect"

	"github.com/danthegoodman1/rowbind/registry"
	"github.com/danthegoodman1/rowbind/schema"
	"github.com/danthegoodman1/rowbind/utils"
)

// Converter moves between beans and rows using the entries of a Registry.
type Converter struct {
	Registry *registry.Registry
}

var ErrNotARow = utils.PermError("value is not a row")

func NewConverter(r *registry.Registry) *Converter {
	return &Converter{Registry: r}
}

// ToRow decomposes obj, a T or *T, into a row. Nested beans, including those
// inside arrays and maps, become nested rows.
func (c *Converter) ToRow(obj any) (*Row, error) {
	if obj == nil {
		return nil, fmt.Errorf("%w: nil", ErrNotARow)
	}
	e, err := c.Registry.Get(reflect.TypeOf(obj))
	if err != nil {
		return nil, fmt.Errorf("error in Registry.Get: %w", err)
	}
	vals, err := e.Extract(obj)
	if err != nil {
		return nil, fmt.Errorf("error extracting %s: %w", e.Name, err)
	}
	for i, f := range e.Schema.Fields() {
		vals[i], err = c.toValue(vals[i], f.Type)
		if err != nil {
			return nil, fmt.Errorf("error converting field %s of %s: %w", f.Name, e.Name, err)
		}
	}
	return NewRow(e.Schema, vals)
}

func (c *Converter) toValue(v any, ft schema.FieldType) (any, error) {
	if v == nil || !containsRow(ft) {
		return v, nil
	}
	if isNilCollection(v) {
		return nil, nil
	}
	switch ft.TypeName {
	case schema.Row:
		return c.ToRow(v)
	case schema.Array:
		rv := reflect.ValueOf(v)
		out := make([]any, rv.Len())
		for i := range out {
			elem, err := c.toValue(deref(rv.Index(i)), *ft.ElementType)
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	case schema.Map:
		rv := reflect.ValueOf(v)
		out := make(map[any]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			val, err := c.toValue(deref(iter.Value()), *ft.MapValueType)
			if err != nil {
				return nil, err
			}
			out[iter.Key().Interface()] = val
		}
		return out, nil
	}
	return v, nil
}

// FromRow builds a new *T from row, where t is T or *T. Columns are matched by
// name; columns missing from the row are treated as null.
func (c *Converter) FromRow(t reflect.Type, row *Row) (any, error) {
	if row == nil {
		return nil, fmt.Errorf("%w: nil", ErrNotARow)
	}
	return c.fromColumns(t, row.Get)
}

// FromMap is FromRow for decoded JSON objects. Nested objects are read as
// nested rows.
func (c *Converter) FromMap(t reflect.Type, m map[string]any) (any, error) {
	return c.fromColumns(t, func(name string) (any, bool) {
		v, ok := m[name]
		return v, ok
	})
}

func (c *Converter) fromColumns(t reflect.Type, get func(string) (any, bool)) (any, error) {
	e, err := c.Registry.Get(t)
	if err != nil {
		return nil, fmt.Errorf("error in Registry.Get: %w", err)
	}
	vals := make([]any, len(e.Setters))
	for i, s := range e.Setters {
		v, _ := get(s.Name)
		vals[i], err = c.fromValue(v, s.FieldType, s.GoType)
		if err != nil {
			return nil, fmt.Errorf("error converting field %s of %s: %w", s.Name, e.Name, err)
		}
	}
	return e.Create(vals)
}

func (c *Converter) fromValue(v any, ft schema.FieldType, goType reflect.Type) (any, error) {
	if v == nil || !containsRow(ft) {
		return v, nil
	}
	if isNilCollection(v) {
		return nil, nil
	}
	for goType.Kind() == reflect.Pointer {
		goType = goType.Elem()
	}
	switch ft.TypeName {
	case schema.Row:
		switch nested := v.(type) {
		case *Row:
			return c.FromRow(goType, nested)
		case Row:
			return c.FromRow(goType, &nested)
		case map[string]any:
			return c.FromMap(goType, nested)
		}
		if reflect.TypeOf(v) == goType || reflect.TypeOf(v) == reflect.PointerTo(goType) {
			return v, nil
		}
		return nil, fmt.Errorf("%w: got %T for %s", ErrNotARow, v, goType)
	case schema.Array:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return v, nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			elem, err := c.fromValue(rv.Index(i).Interface(), *ft.ElementType, goType.Elem())
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	case schema.Map:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Map {
			return v, nil
		}
		out := make(map[any]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			val, err := c.fromValue(iter.Value().Interface(), *ft.MapValueType, goType.Elem())
			if err != nil {
				return nil, err
			}
			out[iter.Key().Interface()] = val
		}
		return out, nil
	}
	return v, nil
}

// As is FromRow with the result typed as *T.
func As[T any](c *Converter, row *Row) (*T, error) {
	obj, err := c.FromRow(reflect.TypeOf((*T)(nil)).Elem(), row)
	if err != nil {
		return nil, err
	}
	return obj.(*T), nil
}

func containsRow(ft schema.FieldType) bool {
	switch ft.TypeName {
	case schema.Row:
		return true
	case schema.Array:
		return containsRow(*ft.ElementType)
	case schema.Map:
		return containsRow(*ft.MapValueType)
	}
	return false
}

func deref(v reflect.Value) any {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}

func isNilCollection(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.IsNil()
	}
	return false
}
