package template

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// toNumber returns v as float64 when v holds a numeric kind.
// Strings and booleans are not numbers here.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, !math.IsNaN(n)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f, !math.IsNaN(f)
	case reflect.Pointer:
		if rv.IsNil() {
			return 0, false
		}
		return toNumber(rv.Elem().Interface())
	}
	return 0, false
}

// coerceNumber is toNumber plus the conversions a loosely typed caller expects:
// numeric strings parse, booleans become 1 and 0.
func coerceNumber(v any) (float64, bool) {
	if f, ok := toNumber(v); ok {
		return f, true
	}
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// coerceInt converts helper arguments such as lengths and counts.
func coerceInt(v any) (int, bool) {
	f, ok := coerceNumber(v)
	if !ok || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// truthy follows the falsy set of the template data producers:
// nil, false, 0, NaN and "".
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if f, ok := toNumber(v); ok {
		return f != 0
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		return !rv.IsNil()
	}
	if rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64 {
		return false // NaN
	}
	return true
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	if f, ok := toNumber(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// looseEqual compares values the way form- and JSON-sourced data expects:
// "1" equals 1, true equals 1, nil only equals nil.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return isNil(a) && isNil(b)
	}
	if fa, ok := toNumber(a); ok {
		if fb, ok := coerceNumber(b); ok {
			return fa == fb
		}
		return false
	}
	if fb, ok := toNumber(b); ok {
		if fa, ok := coerceNumber(a); ok {
			return fa == fb
		}
		return false
	}
	switch x := a.(type) {
	case string:
		switch y := b.(type) {
		case string:
			return x == y
		case bool:
			fa, ok := coerceNumber(x)
			fb, _ := coerceNumber(y)
			return ok && fa == fb
		}
	case bool:
		switch y := b.(type) {
		case bool:
			return x == y
		case string:
			fa, _ := coerceNumber(x)
			fb, ok := coerceNumber(y)
			return ok && fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// collectionLen returns the length of slices, arrays and maps.
func collectionLen(v any) (int, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}
