package reactive

import "reflect"

// defaultEquals provides type-appropriate equality checking.
// Uses == for basic kinds and reflect.DeepEqual for everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		bv, ok := any(b).(int)
		return ok && av == bv
	case int8:
		bv, ok := any(b).(int8)
		return ok && av == bv
	case int16:
		bv, ok := any(b).(int16)
		return ok && av == bv
	case int32:
		bv, ok := any(b).(int32)
		return ok && av == bv
	case int64:
		bv, ok := any(b).(int64)
		return ok && av == bv
	case uint:
		bv, ok := any(b).(uint)
		return ok && av == bv
	case uint8:
		bv, ok := any(b).(uint8)
		return ok && av == bv
	case uint16:
		bv, ok := any(b).(uint16)
		return ok && av == bv
	case uint32:
		bv, ok := any(b).(uint32)
		return ok && av == bv
	case uint64:
		bv, ok := any(b).(uint64)
		return ok && av == bv
	case float32:
		bv, ok := any(b).(float32)
		return ok && av == bv
	case float64:
		bv, ok := any(b).(float64)
		return ok && av == bv
	case string:
		bv, ok := any(b).(string)
		return ok && av == bv
	case bool:
		bv, ok := any(b).(bool)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}

// eraseEquals adapts a typed equality function to the engine's untyped
// representation.
func eraseEquals[T any](fn func(T, T) bool) func(x, y any) bool {
	return func(x, y any) bool {
		av, _ := x.(T)
		bv, _ := y.(T)
		return fn(av, bv)
	}
}

// sameError compares errors by identity. Errors whose dynamic type is not
// comparable are never the same.
func sameError(a, b error) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}
