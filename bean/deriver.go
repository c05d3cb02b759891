package bean

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/danthegoodman1/rowbind/schema"
)

// DeriveSchema builds the schema of t from its getters. Fields are ordered by
// ascending field name, whatever order the methods were found in.
func (b *Binder) DeriveSchema(t reflect.Type) (*schema.Schema, error) {
	st, err := structType(t)
	if err != nil {
		return nil, err
	}
	return b.newResolveCtx().derive(st)
}

func (c *resolveCtx) derive(t reflect.Type) (*schema.Schema, error) {
	for _, inProgress := range c.path {
		if inProgress == t {
			path := make([]reflect.Type, len(c.path))
			copy(path, c.path)
			return nil, &CyclicSchemaError{Type: t, Path: path}
		}
	}
	c.path = append(c.path, t)
	defer func() {
		c.path = c.path[:len(c.path)-1]
	}()

	types, err := c.resolve(t, GetterKind)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]schema.Field, len(names))
	for i, name := range names {
		fields[i] = schema.Field{
			Name: name,
			Type: types[name].FieldType,
		}
	}

	s, err := schema.NewSchema(fields...)
	if err != nil {
		return nil, fmt.Errorf("error in schema.NewSchema for %s: %w", t, err)
	}
	return s, nil
}
