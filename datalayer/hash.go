package datalayer

import (
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/gnames/gnuuid"
	"github.com/rmera/goff"
)

// Hash returns a digest of value that is the same for values that only
// differ beyond the tol-th decimal of their floats. Ints hash as the
// equivalent floats, -0 as 0, and slices and arrays with the same elements
// hash the same. Maps are hashed in sorted key order. Only numbers, strings,
// bools, and slices, arrays and string-keyed maps of those, are supported.
func Hash(value any, tol int) (string, error) {
	var b strings.Builder
	if err := canonical(&b, reflect.ValueOf(value), tol); err != nil {
		return "", err
	}
	return gnuuid.New(b.String()).String(), nil
}

func formatFloat(f float64, tol int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', tol, 64)
	if strings.HasPrefix(s, "-") && strings.Trim(s[1:], "0.") == "" {
		return s[1:]
	}
	return s
}

func canonical(b *strings.Builder, v reflect.Value, tol int) error {
	if !v.IsValid() {
		b.WriteString("nil")
		return nil
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			b.WriteString("nil")
			return nil
		}
		return canonical(b, v.Elem(), tol)
	case reflect.Float32, reflect.Float64:
		b.WriteString(formatFloat(v.Float(), tol))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(formatFloat(float64(v.Int()), tol))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		b.WriteString(formatFloat(float64(v.Uint()), tol))
	case reflect.String:
		b.WriteString(strconv.Quote(v.String()))
	case reflect.Bool:
		b.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.Slice, reflect.Array:
		b.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := canonical(b, v.Index(i), tol); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("%w: can't hash a map with %s keys", goff.ErrType, v.Type().Key())
		}
		keys := make(map[string]reflect.Value, v.Len())
		for _, k := range v.MapKeys() {
			keys[k.String()] = k
		}
		b.WriteByte('{')
		for i, k := range slices.Sorted(maps.Keys(keys)) {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			if err := canonical(b, v.MapIndex(keys[k]), tol); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return fmt.Errorf("%w: can't hash a value of type %s", goff.ErrType, v.Type())
	}
	return nil
}

// FindLowestHole returns the smallest non-negative integer not in keys.
func FindLowestHole(keys []int) int {
	taken := make(map[int]bool, len(keys))
	for _, k := range keys {
		taken[k] = true
	}
	for i := 0; ; i++ {
		if !taken[i] {
			return i
		}
	}
}
