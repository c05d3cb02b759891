package bean

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/danthegoodman1/rowbind/utils"
)

// Every structural error below is permanent: binding the same type again can
// only fail the same way.

var (
	ErrValueCount   = utils.PermError("value count does not match schema")
	ErrInstanceType = utils.PermError("instance has the wrong type")
	ErrNilInstance  = utils.PermError("nil instance")
	// ErrAccessorPanic is returned when a getter or setter panics, e.g. when it
	// is promoted through a nil embedded pointer
	ErrAccessorPanic = utils.PermError("accessor panicked")
)

type DuplicateFieldError struct {
	Type    reflect.Type
	Field   string
	Kind    AccessorKind
	Methods [2]string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("duplicate field %q on %s: %s methods %s and %s", e.Field, e.Type, e.Kind, e.Methods[0], e.Methods[1])
}

func (e *DuplicateFieldError) IsPermanent() bool { return true }

type MissingAccessorError struct {
	Type  reflect.Type
	Field string
	Kind  AccessorKind
}

func (e *MissingAccessorError) Error() string {
	return fmt.Sprintf("missing %s for field %q on %s", e.Kind, e.Field, e.Type)
}

func (e *MissingAccessorError) IsPermanent() bool { return true }

type TypeMismatchError struct {
	Type     reflect.Type
	Field    string
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch for field %q on %s: expected %s, got %s", e.Field, e.Type, e.Expected, e.Actual)
}

func (e *TypeMismatchError) IsPermanent() bool { return true }

type NoDefaultConstructorError struct {
	Type   reflect.Type
	Reason string
}

func (e *NoDefaultConstructorError) Error() string {
	return fmt.Sprintf("no default constructor for %s: %s", e.Type, e.Reason)
}

func (e *NoDefaultConstructorError) IsPermanent() bool { return true }

type CyclicSchemaError struct {
	Type reflect.Type
	// Path is the chain of types being derived when Type was reached again
	Path []reflect.Type
}

func (e *CyclicSchemaError) Error() string {
	names := make([]string, 0, len(e.Path)+1)
	for _, t := range e.Path {
		names = append(names, t.String())
	}
	names = append(names, e.Type.String())
	return fmt.Sprintf("cyclic schema for %s: %s", e.Type, strings.Join(names, " -> "))
}

func (e *CyclicSchemaError) IsPermanent() bool { return true }

type UnsupportedTypeError struct {
	Type      reflect.Type
	Field     string
	FieldType reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("unsupported type %s", e.FieldType)
	}
	return fmt.Sprintf("unsupported type %s for field %q on %s", e.FieldType, e.Field, e.Type)
}

func (e *UnsupportedTypeError) IsPermanent() bool { return true }
