package bean

import (
	"reflect"
	"strings"

	"github.com/danthegoodman1/rowbind/utils"
)

type AccessorKind int

const (
	GetterKind AccessorKind = iota + 1
	SetterKind
)

func (k AccessorKind) String() string {
	switch k {
	case GetterKind:
		return "getter"
	case SetterKind:
		return "setter"
	default:
		return "accessor"
	}
}

type (
	// Accessor is what a Classifier makes of a method.
	Accessor struct {
		Field string
		Kind  AccessorKind
	}

	// Classifier decides whether a method of owner is a getter or setter and for
	// which field. It must be a pure function of the method signature.
	Classifier func(owner reflect.Type, m reflect.Method) (Accessor, bool)
)

var boolType = reflect.TypeOf(false)

// Methods returns the exported methods callable on a *T, where t is the struct
// type T. Methods promoted from embedded types are included; when an outer type
// redeclares a promoted method only the outer one is present.
func Methods(t reflect.Type) []reflect.Method {
	pt := reflect.PointerTo(t)
	methods := make([]reflect.Method, 0, pt.NumMethod())
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		if !m.IsExported() {
			continue
		}
		methods = append(methods, m)
	}
	return methods
}

// NamingConvention is the default Classifier:
//
//	GetX() T          getter for x
//	IsX() bool        getter for x
//	SetX(T)           setter for x
//	SetX(T) *Owner    fluent setter for x (Owner or *Owner)
//
// The receiver is In(0) of m.Type.
func NamingConvention(owner reflect.Type, m reflect.Method) (Accessor, bool) {
	mt := m.Type
	switch {
	case mt.NumIn() == 1 && mt.NumOut() == 1:
		if x, ok := cutPrefix(m.Name, "Get"); ok {
			return Accessor{Field: utils.LowerFirst(x), Kind: GetterKind}, true
		}
		if x, ok := cutPrefix(m.Name, "Is"); ok && mt.Out(0) == boolType {
			return Accessor{Field: utils.LowerFirst(x), Kind: GetterKind}, true
		}
	case mt.NumIn() == 2 && (mt.NumOut() == 0 || (mt.NumOut() == 1 && isOwner(owner, mt.Out(0)))):
		if x, ok := cutPrefix(m.Name, "Set"); ok {
			return Accessor{Field: utils.LowerFirst(x), Kind: SetterKind}, true
		}
	}
	return Accessor{}, false
}

// cutPrefix requires a non-empty remainder
func cutPrefix(name, prefix string) (string, bool) {
	x, ok := strings.CutPrefix(name, prefix)
	return x, ok && x != ""
}

func isOwner(owner, t reflect.Type) bool {
	return t == owner || t == reflect.PointerTo(owner)
}
