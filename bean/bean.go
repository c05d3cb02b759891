// Package bean derives row schemas from Go types that expose getter and setter
// methods, and binds schema-ordered accessor tables and instance creators for
// them.
//
// A bean is a struct type T whose *T method set carries GetX/IsX getters and
// SetX setters. The schema is derived from the getters alone and ordered by
// field name; getters and setters are then projected onto that order, so
//
//	s, _ := bean.DeriveSchema(reflect.TypeOf(User{}))
//	getters, _ := bean.BindGetters(reflect.TypeOf(User{}), s)
//	setters, _ := bean.BindSetters(reflect.TypeOf(User{}), s)
//	create, _ := bean.MakeCreator(reflect.TypeOf(User{}), setters)
//
//	vals, _ := getters.Extract(u)
//	u2, _ := create(vals) // *User equal to u
//
// Nothing is cached here; see the registry package for that.
package bean

import (
	"fmt"
	"reflect"

	"github.com/danthegoodman1/rowbind/schema"
)

type (
	Binder struct {
		classify Classifier
	}

	Option func(*Binder)
)

func WithClassifier(c Classifier) Option {
	return func(b *Binder) {
		b.classify = c
	}
}

func NewBinder(opts ...Option) *Binder {
	b := &Binder{
		classify: NamingConvention,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var defaultBinder = NewBinder()

func DeriveSchema(t reflect.Type) (*schema.Schema, error) {
	return defaultBinder.DeriveSchema(t)
}

func BindGetters(t reflect.Type, s *schema.Schema) (GetterTable, error) {
	return defaultBinder.BindGetters(t, s)
}

func BindSetters(t reflect.Type, s *schema.Schema) (SetterTable, error) {
	return defaultBinder.BindSetters(t, s)
}

// structType accepts T or *T and returns T.
func structType(t reflect.Type) (reflect.Type, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrInstanceType)
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t == timeType {
		return nil, &UnsupportedTypeError{FieldType: t}
	}
	return t, nil
}
