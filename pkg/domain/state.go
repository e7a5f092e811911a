package domain

import (
	"fmt"
	"reflect"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// maxStateDepth bounds ValidateState on self-referencing pointers.
const maxStateDepth = 64

// StatesAreEqual compares two JSON-like state values structurally.
// Maps compare by key set and values (unordered), slices and arrays by length and
// elements (ordered). Numbers compare by value regardless of their Go kind, so
// state that went through a JSON round-trip still matches.
//
// A function or time.Time on either side is a contract violation: StatesAreEqual
// panics with an *InvariantError instead of returning false.
func StatesAreEqual(a, b any) bool {
	return statesEqual(reflect.ValueOf(a), reflect.ValueOf(b))
}

func statesEqual(a, b reflect.Value) bool {
	a = unwrap(a)
	b = unwrap(b)

	assertSerializable(a)
	assertSerializable(b)

	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}

	switch {
	case isNumber(a.Kind()) && isNumber(b.Kind()):
		return numbersEqual(a, b)
	case isList(a.Kind()) && isList(b.Kind()):
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !statesEqual(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	}

	if a.Kind() != b.Kind() {
		return false
	}

	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.String:
		return a.String() == b.String()
	case reflect.Map:
		if a.Len() != b.Len() {
			return false
		}
		keyType := b.Type().Key()
		iter := a.MapRange()
		for iter.Next() {
			k := iter.Key()
			if !k.Type().AssignableTo(keyType) {
				if k.Kind() != reflect.String || keyType.Kind() != reflect.String {
					return false
				}
				k = k.Convert(keyType)
			}
			other := b.MapIndex(k)
			if !other.IsValid() {
				return false
			}
			if !statesEqual(iter.Value(), other) {
				return false
			}
		}
		return true
	case reflect.Struct:
		if a.Type() != b.Type() {
			return false
		}
		for i := 0; i < a.NumField(); i++ {
			if !a.Type().Field(i).IsExported() {
				continue
			}
			if !statesEqual(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	}

	return a.CanInterface() && b.CanInterface() && reflect.DeepEqual(a.Interface(), b.Interface())
}

// unwrap follows interfaces and pointers. Nil pointers, maps, slices and interfaces
// collapse to the invalid Value, which plays the role of JSON null.
func unwrap(v reflect.Value) reflect.Value {
	for v.IsValid() {
		switch v.Kind() {
		case reflect.Interface, reflect.Pointer:
			if v.IsNil() {
				return reflect.Value{}
			}
			v = v.Elem()
		case reflect.Map, reflect.Slice:
			if v.IsNil() {
				return reflect.Value{}
			}
			return v
		default:
			return v
		}
	}
	return v
}

func assertSerializable(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	if v.Kind() == reflect.Func {
		panic(&InvariantError{Reason: "functions must not be stored in location state"})
	}
	if v.Type() == timeType {
		panic(&InvariantError{Reason: "time.Time values must not be stored in location state"})
	}
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isList(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array
}

func numbersEqual(a, b reflect.Value) bool {
	switch {
	case a.CanInt() && b.CanInt():
		return a.Int() == b.Int()
	case a.CanUint() && b.CanUint():
		return a.Uint() == b.Uint()
	}
	return toFloat(a) == toFloat(b)
}

func toFloat(v reflect.Value) float64 {
	switch {
	case v.CanInt():
		return float64(v.Int())
	case v.CanUint():
		return float64(v.Uint())
	}
	return v.Float()
}

// ValidateState reports whether v can be stored as location state.
// It returns an error wrapping ErrInvalidState for functions, channels and time.Time
// values found anywhere inside v.
func ValidateState(v any) error {
	return validate(reflect.ValueOf(v), "state", 0)
}

func validate(v reflect.Value, path string, depth int) error {
	if depth > maxStateDepth {
		return nil
	}
	v = unwrap(v)
	if !v.IsValid() {
		return nil
	}
	if v.Type() == timeType {
		return fmt.Errorf("%w: %s is a time.Time", ErrInvalidState, path)
	}

	switch v.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fmt.Errorf("%w: %s is a %s", ErrInvalidState, path, v.Kind())
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := validate(iter.Value(), fmt.Sprintf("%s.%v", path, iter.Key()), depth+1); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := validate(v.Index(i), fmt.Sprintf("%s[%d]", path, i), depth+1); err != nil {
				return err
			}
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			f := v.Type().Field(i)
			if !f.IsExported() {
				continue
			}
			if err := validate(v.Field(i), path+"."+f.Name, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
