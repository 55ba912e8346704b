package state

import "reflect"

// defaultEquals provides type-appropriate equality checking.
// Uses == for basic kinds and reflect.DeepEqual for others.
func defaultEquals[T any](a, b T) bool {
	av, bv := any(a), any(b)
	if av == nil || bv == nil {
		return av == nil && bv == nil
	}
	ta := reflect.TypeOf(av)
	if ta != reflect.TypeOf(bv) {
		return false
	}
	switch ta.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return av == bv
	default:
		// Slices, maps, structs, pointers and friends compare structurally.
		return reflect.DeepEqual(av, bv)
	}
}

// erase adapts a typed equivalence to the scope's untyped cache.
func erase[T any](eq func(a, b T) bool) func(a, b any) bool {
	if eq == nil {
		eq = defaultEquals[T]
	}
	return func(a, b any) bool {
		return eq(as[T](a), as[T](b))
	}
}

// as returns v as T, or the zero T when v is nil or of another type.
func as[T any](v any) T {
	t, _ := v.(T)
	return t
}
