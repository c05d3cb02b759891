package bean

import (
	"fmt"
	"reflect"

	"github.com/danthegoodman1/rowbind/schema"
)

type (
	Getter struct {
		Name      string
		GoType    reflect.Type
		FieldType schema.FieldType
		owner     reflect.Type
		method    reflect.Method
	}

	// GetterTable is index aligned with the schema it was bound against.
	GetterTable []Getter

	Setter struct {
		Name      string
		GoType    reflect.Type
		FieldType schema.FieldType
		owner     reflect.Type
		method    reflect.Method
	}

	// SetterTable is index aligned with the schema it was bound against.
	SetterTable []Setter
)

// BindGetters projects the getters of t onto the field order of s.
func (b *Binder) BindGetters(t reflect.Type, s *schema.Schema) (GetterTable, error) {
	st, descs, err := b.bind(t, s, GetterKind)
	if err != nil {
		return nil, err
	}
	table := make(GetterTable, len(descs))
	for i, d := range descs {
		table[i] = Getter{
			Name:      d.Name,
			GoType:    d.GoType,
			FieldType: d.FieldType,
			owner:     st,
			method:    d.Method,
		}
	}
	return table, nil
}

// BindSetters projects the setters of t onto the field order of s.
func (b *Binder) BindSetters(t reflect.Type, s *schema.Schema) (SetterTable, error) {
	st, descs, err := b.bind(t, s, SetterKind)
	if err != nil {
		return nil, err
	}
	table := make(SetterTable, len(descs))
	for i, d := range descs {
		table[i] = Setter{
			Name:      d.Name,
			GoType:    d.GoType,
			FieldType: d.FieldType,
			owner:     st,
			method:    d.Method,
		}
	}
	return table, nil
}

func (b *Binder) bind(t reflect.Type, s *schema.Schema, kind AccessorKind) (reflect.Type, []FieldTypeDescriptor, error) {
	st, err := structType(t)
	if err != nil {
		return nil, nil, err
	}
	types, err := b.newResolveCtx().resolve(st, kind)
	if err != nil {
		return nil, nil, err
	}

	descs := make([]FieldTypeDescriptor, 0, s.Len())
	for _, f := range s.Fields() {
		d, ok := types[f.Name]
		if !ok {
			return nil, nil, &MissingAccessorError{Type: st, Field: f.Name, Kind: kind}
		}
		descs = append(descs, d)
	}
	return st, descs, nil
}

// Get reads the field from obj, which may be a T or a *T. Pointer results are
// dereferenced; nil pointers come back as nil.
func (g Getter) Get(obj any) (any, error) {
	recv, err := receiver(g.owner, obj)
	if err != nil {
		return nil, err
	}
	return g.get(recv)
}

func (g Getter) get(recv reflect.Value) (any, error) {
	results, err := call(g.owner, g.method, recv)
	if err != nil {
		return nil, err
	}
	out := results[0]
	for out.Kind() == reflect.Pointer || out.Kind() == reflect.Interface {
		if out.IsNil() {
			return nil, nil
		}
		out = out.Elem()
	}
	return out.Interface(), nil
}

// call runs m with args and turns a panic inside it into ErrAccessorPanic.
func call(owner reflect.Type, m reflect.Method, args ...reflect.Value) (results []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s.%s: %v", ErrAccessorPanic, owner, m.Name, r)
		}
	}()
	return m.Func.Call(args), nil
}

func (gt GetterTable) Names() []string {
	names := make([]string, len(gt))
	for i, g := range gt {
		names[i] = g.Name
	}
	return names
}

// Extract decomposes obj into its field values in table order.
func (gt GetterTable) Extract(obj any) ([]any, error) {
	if len(gt) == 0 {
		return []any{}, nil
	}
	recv, err := receiver(gt[0].owner, obj)
	if err != nil {
		return nil, err
	}
	vals := make([]any, len(gt))
	for i, g := range gt {
		v, err := g.get(recv)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// Set applies value to target, which must be a non-nil *T.
func (s Setter) Set(target any, value any) error {
	recv := reflect.ValueOf(target)
	if target == nil || recv.Type() != reflect.PointerTo(s.owner) {
		return fmt.Errorf("%w: expected *%s, got %T", ErrInstanceType, s.owner, target)
	}
	if recv.IsNil() {
		return ErrNilInstance
	}
	return s.set(recv, value)
}

func (s Setter) set(recv reflect.Value, value any) error {
	arg, ok := coerce(value, s.GoType, s.FieldType.Nullable)
	if !ok {
		return &TypeMismatchError{
			Type:     s.owner,
			Field:    s.Name,
			Expected: s.GoType.String(),
			Actual:   typeString(value),
		}
	}
	_, err := call(s.owner, s.method, recv, arg)
	return err
}

func (st SetterTable) Names() []string {
	names := make([]string, len(st))
	for i, s := range st {
		names[i] = s.Name
	}
	return names
}

func receiver(owner reflect.Type, obj any) (reflect.Value, error) {
	if obj == nil {
		return reflect.Value{}, ErrNilInstance
	}
	v := reflect.ValueOf(obj)
	switch v.Type() {
	case reflect.PointerTo(owner):
		if v.IsNil() {
			return reflect.Value{}, ErrNilInstance
		}
		return v, nil
	case owner:
		p := reflect.New(owner)
		p.Elem().Set(v)
		return p, nil
	}
	return reflect.Value{}, fmt.Errorf("%w: expected %s, got %s", ErrInstanceType, owner, v.Type())
}

func typeString(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
