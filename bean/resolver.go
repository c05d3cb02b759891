package bean

import (
	"errors"
	"reflect"
	"time"

	"github.com/danthegoodman1/rowbind/schema"
)

// FieldTypeDescriptor is one resolved accessor: the field it serves, the Go type
// it reads or writes, and the schema type that Go type maps to.
type FieldTypeDescriptor struct {
	Name      string
	GoType    reflect.Type
	FieldType schema.FieldType
	Method    reflect.Method
	Kind      AccessorKind
}

func (d FieldTypeDescriptor) Nullable() bool {
	return d.FieldType.Nullable
}

var (
	timeType  = reflect.TypeOf(time.Time{})
	bytesType = reflect.TypeOf([]byte(nil))
)

// resolveCtx carries the types whose schemas are being derived, outermost
// first, so nested records can detect cycles.
type resolveCtx struct {
	binder *Binder
	path   []reflect.Type
}

func (b *Binder) newResolveCtx() *resolveCtx {
	return &resolveCtx{binder: b}
}

// GetterTypes resolves the getters of t by field name.
func (b *Binder) GetterTypes(t reflect.Type) (map[string]FieldTypeDescriptor, error) {
	st, err := structType(t)
	if err != nil {
		return nil, err
	}
	return b.newResolveCtx().resolve(st, GetterKind)
}

// SetterTypes resolves the setters of t by field name.
func (b *Binder) SetterTypes(t reflect.Type) (map[string]FieldTypeDescriptor, error) {
	st, err := structType(t)
	if err != nil {
		return nil, err
	}
	return b.newResolveCtx().resolve(st, SetterKind)
}

func (c *resolveCtx) resolve(t reflect.Type, kind AccessorKind) (map[string]FieldTypeDescriptor, error) {
	types := make(map[string]FieldTypeDescriptor)
	for _, m := range Methods(t) {
		acc, ok := c.binder.classify(t, m)
		if !ok || acc.Kind != kind || acc.Field == "" {
			continue
		}
		if prev, exists := types[acc.Field]; exists {
			return nil, &DuplicateFieldError{
				Type:    t,
				Field:   acc.Field,
				Kind:    kind,
				Methods: [2]string{prev.Method.Name, m.Name},
			}
		}

		var goType reflect.Type
		if kind == SetterKind {
			goType = m.Type.In(1)
		} else {
			goType = m.Type.Out(0)
		}
		ft, err := c.fieldType(goType)
		if err != nil {
			var ute *UnsupportedTypeError
			if errors.As(err, &ute) && ute.Field == "" {
				ute.Type, ute.Field = t, acc.Field
			}
			return nil, err
		}
		types[acc.Field] = FieldTypeDescriptor{
			Name:      acc.Field,
			GoType:    goType,
			FieldType: ft,
			Method:    m,
			Kind:      kind,
		}
	}
	return types, nil
}

// fieldType maps a Go type onto the schema type system. Primitive scalars are
// the only non-nullable types.
func (c *resolveCtx) fieldType(t reflect.Type) (schema.FieldType, error) {
	switch {
	case t.Kind() == reflect.Pointer:
		ft, err := c.fieldType(t.Elem())
		return ft.WithNullable(true), err
	case t == timeType:
		return schema.Primitive(schema.DateTime).WithNullable(true), nil
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		return schema.Primitive(schema.Bytes).WithNullable(true), nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return schema.Primitive(schema.Boolean), nil
	case reflect.Int8:
		return schema.Primitive(schema.Byte), nil
	case reflect.Int16:
		return schema.Primitive(schema.Int16), nil
	case reflect.Int32:
		return schema.Primitive(schema.Int32), nil
	case reflect.Int, reflect.Int64:
		return schema.Primitive(schema.Int64), nil
	case reflect.Uint8:
		return schema.UnsignedOf(schema.Byte), nil
	case reflect.Uint16:
		return schema.UnsignedOf(schema.Int16), nil
	case reflect.Uint32:
		return schema.UnsignedOf(schema.Int32), nil
	case reflect.Uint, reflect.Uint64:
		return schema.UnsignedOf(schema.Int64), nil
	case reflect.Float32:
		return schema.Primitive(schema.Float), nil
	case reflect.Float64:
		return schema.Primitive(schema.Double), nil
	case reflect.String:
		return schema.Primitive(schema.String).WithNullable(true), nil
	case reflect.Slice, reflect.Array:
		elem, err := c.fieldType(t.Elem())
		if err != nil {
			return schema.FieldType{}, err
		}
		return schema.ArrayOf(elem).WithNullable(true), nil
	case reflect.Map:
		key, err := c.fieldType(t.Key())
		if err != nil {
			return schema.FieldType{}, err
		}
		value, err := c.fieldType(t.Elem())
		if err != nil {
			return schema.FieldType{}, err
		}
		return schema.MapOf(key, value).WithNullable(true), nil
	case reflect.Struct:
		s, err := c.derive(t)
		if err != nil {
			return schema.FieldType{}, err
		}
		return schema.RowOf(s).WithNullable(true), nil
	}
	return schema.FieldType{}, &UnsupportedTypeError{FieldType: t}
}

// nullableKind mirrors fieldType's nullability without resolving nested schemas.
func nullableKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return false
	}
	return true
}
