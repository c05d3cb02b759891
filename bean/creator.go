package bean

import (
	"fmt"
	"reflect"
)

// Creator builds a new *T from values given in schema order.
type Creator func(values []any) (any, error)

// MakeCreator is the package level MakeCreator; creation does not depend on
// the classifier.
func (b *Binder) MakeCreator(t reflect.Type, setters SetterTable) (Creator, error) {
	return MakeCreator(t, setters)
}

// MakeCreator wraps setters, bound for t, into a Creator. Every call allocates
// a fresh zero T and applies setters[i] to values[i].
func MakeCreator(t reflect.Type, setters SetterTable) (Creator, error) {
	if t == nil {
		return nil, &NoDefaultConstructorError{Type: t, Reason: "nil type"}
	}
	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		return nil, &NoDefaultConstructorError{Type: t, Reason: "only struct types can be allocated from their zero value"}
	}
	for _, s := range setters {
		if s.owner != st {
			return nil, &NoDefaultConstructorError{Type: t, Reason: fmt.Sprintf("setter %q was bound for %s", s.Name, s.owner)}
		}
	}
	var sealed []reflect.Type
	sealedEmbeds(st, map[reflect.Type]bool{}, &sealed)
	for _, et := range sealed {
		for _, s := range setters {
			if _, ok := et.MethodByName(s.method.Name); ok {
				return nil, &NoDefaultConstructorError{Type: t, Reason: fmt.Sprintf("setter %s is promoted through embedded %s, which cannot be allocated", s.method.Name, et)}
			}
		}
	}

	table := make(SetterTable, len(setters))
	copy(table, setters)

	return func(values []any) (any, error) {
		if len(values) != len(table) {
			return nil, fmt.Errorf("%w: %s has %d fields, got %d values", ErrValueCount, st, len(table), len(values))
		}
		p := reflect.New(st)
		allocEmbeds(p.Elem(), map[reflect.Type]bool{})
		for i, s := range table {
			if err := s.set(p, values[i]); err != nil {
				return nil, err
			}
		}
		return p.Interface(), nil
	}, nil
}

// allocEmbeds points the nil embedded struct pointers of v at new zero values,
// so methods promoted through them have a receiver.
func allocEmbeds(v reflect.Value, seen map[reflect.Type]bool) {
	t := v.Type()
	seen[t] = true
	defer delete(seen, t)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		fv := v.Field(i)
		switch {
		case f.Type.Kind() == reflect.Struct:
			allocEmbeds(fv, seen)
		case f.Type.Kind() == reflect.Pointer && f.Type.Elem().Kind() == reflect.Struct:
			if seen[f.Type.Elem()] {
				continue
			}
			if fv.IsNil() {
				if !fv.CanSet() {
					continue
				}
				fv.Set(reflect.New(f.Type.Elem()))
			}
			allocEmbeds(fv.Elem(), seen)
		}
	}
}

// sealedEmbeds collects the embedded struct pointers of t that allocEmbeds
// cannot set: unexported ones.
func sealedEmbeds(t reflect.Type, seen map[reflect.Type]bool, out *[]reflect.Type) {
	seen[t] = true
	defer delete(seen, t)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		switch {
		case f.Type.Kind() == reflect.Struct:
			sealedEmbeds(f.Type, seen, out)
		case f.Type.Kind() == reflect.Pointer && f.Type.Elem().Kind() == reflect.Struct:
			if seen[f.Type.Elem()] {
				continue
			}
			if !f.IsExported() {
				*out = append(*out, f.Type)
				continue
			}
			sealedEmbeds(f.Type.Elem(), seen, out)
		}
	}
}
