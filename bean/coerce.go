package bean

import (
	"math"
	"reflect"
	"time"
)

// coerce converts v into a value assignable to target. Conversions are only
// made when no information is lost, apart from float64 -> float32 rounding.
// RFC 3339 strings are accepted for time.Time so JSON input can be bound.
func coerce(v any, target reflect.Type, nullable bool) (reflect.Value, bool) {
	if v == nil {
		return zeroFor(target, nullable)
	}
	return coerceValue(reflect.ValueOf(v), target, nullable)
}

func zeroFor(target reflect.Type, nullable bool) (reflect.Value, bool) {
	if nullable || nullableKind(target) {
		return reflect.Zero(target), true
	}
	return reflect.Value{}, false
}

func coerceValue(rv reflect.Value, target reflect.Type, nullable bool) (reflect.Value, bool) {
	if !rv.IsValid() {
		return zeroFor(target, nullable)
	}
	if rv.Type().AssignableTo(target) {
		return rv, true
	}

	// unbox
	if rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return zeroFor(target, nullable)
		}
		return coerceValue(rv.Elem(), target, nullable)
	}

	// box
	if target.Kind() == reflect.Pointer {
		elem, ok := coerceValue(rv, target.Elem(), true)
		if !ok {
			return reflect.Value{}, false
		}
		p := reflect.New(target.Elem())
		p.Elem().Set(elem)
		return p, true
	}

	switch {
	case target == timeType && rv.Kind() == reflect.String:
		t, err := time.Parse(time.RFC3339Nano, rv.String())
		if err != nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(t), true
	case isNumber(rv.Kind()) && isNumber(target.Kind()):
		return convertNumber(rv, target)
	case rv.Kind() == target.Kind() && (rv.Kind() == reflect.String || rv.Kind() == reflect.Bool || rv.Kind() == reflect.Struct):
		if rv.Type().ConvertibleTo(target) {
			return rv.Convert(target), true
		}
	case target.Kind() == reflect.Slice && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array):
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return reflect.Zero(target), true
		}
		out := reflect.MakeSlice(target, rv.Len(), rv.Len())
		if !coerceElements(rv, out, target.Elem()) {
			return reflect.Value{}, false
		}
		return out, true
	case target.Kind() == reflect.Array && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Len() == target.Len():
		out := reflect.New(target).Elem()
		if !coerceElements(rv, out, target.Elem()) {
			return reflect.Value{}, false
		}
		return out, true
	case target.Kind() == reflect.Map && rv.Kind() == reflect.Map:
		if rv.IsNil() {
			return reflect.Zero(target), true
		}
		out := reflect.MakeMapWithSize(target, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, ok := coerceValue(iter.Key(), target.Key(), false)
			if !ok {
				return reflect.Value{}, false
			}
			v, ok := coerceValue(iter.Value(), target.Elem(), nullableKind(target.Elem()))
			if !ok {
				return reflect.Value{}, false
			}
			out.SetMapIndex(k, v)
		}
		return out, true
	}
	return reflect.Value{}, false
}

func coerceElements(src, dst reflect.Value, elemType reflect.Type) bool {
	nullable := nullableKind(elemType)
	for i := 0; i < src.Len(); i++ {
		v, ok := coerceValue(src.Index(i), elemType, nullable)
		if !ok {
			return false
		}
		dst.Index(i).Set(v)
	}
	return true
}

func convertNumber(rv reflect.Value, target reflect.Type) (reflect.Value, bool) {
	if !rv.Type().ConvertibleTo(target) {
		return reflect.Value{}, false
	}
	switch {
	case isSigned(rv.Kind()) && isUnsigned(target.Kind()) && rv.Int() < 0,
		isFloat(rv.Kind()) && isUnsigned(target.Kind()) && rv.Float() < 0:
		return reflect.Value{}, false
	}

	out := rv.Convert(target)
	if isUnsigned(rv.Kind()) && isSigned(target.Kind()) && out.Int() < 0 {
		return reflect.Value{}, false
	}
	if isFloat(rv.Kind()) && isFloat(target.Kind()) {
		if math.IsInf(out.Float(), 0) && !math.IsInf(rv.Float(), 0) {
			return reflect.Value{}, false
		}
		return out, true
	}
	if out.Convert(rv.Type()).Interface() != rv.Interface() {
		return reflect.Value{}, false
	}
	return out, true
}

func isSigned(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUnsigned(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isNumber(k reflect.Kind) bool {
	return isSigned(k) || isUnsigned(k) || isFloat(k)
}
