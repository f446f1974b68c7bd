package fingerprint

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	// opaqueToken stands in for values with no stable external
	// representation. All such values share it.
	opaqueToken = "!opaque"

	// cycleToken terminates traversal when a node is revisited while still
	// on the traversal stack.
	cycleToken = "!cycle"
)

var emptyStruct = reflect.TypeOf(struct{}{})

// Key returns the cache key for v: the xxhash64 digest of Canonical(v),
// hex encoded.
func Key(v any) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(Canonical(v)))
}

// Canonical returns a deterministic textual encoding of v. Equal values
// produce equal encodings within a process run; see the package
// documentation for the equality rules.
func Canonical(v any) string {
	var b strings.Builder
	writeValue(&b, reflect.ValueOf(v), make(map[uintptr]bool))
	return b.String()
}

// writeValue dispatches on a closed set of shape categories: primitive,
// ordered sequence, set, keyed mapping, and opaque. seen holds the pointers
// of containers currently on the traversal stack, for cycle detection.
func writeValue(b *strings.Builder, v reflect.Value, seen map[uintptr]bool) {
	if !v.IsValid() {
		b.WriteByte('z')
		return
	}
	switch v.Kind() {
	case reflect.Bool:
		b.WriteString("b:")
		b.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString("i:")
		b.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		b.WriteString("u:")
		b.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		b.WriteString("f:")
		b.WriteString(strconv.FormatFloat(v.Float(), 'g', -1, 64))
	case reflect.Complex64, reflect.Complex128:
		b.WriteString("c:")
		b.WriteString(strconv.FormatComplex(v.Complex(), 'g', -1, 128))
	case reflect.String:
		b.WriteString("s:")
		b.WriteString(strconv.Quote(v.String()))
	case reflect.Slice:
		if v.IsNil() {
			b.WriteByte('z')
			return
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b.WriteString("y:")
			b.WriteString(strconv.Quote(string(v.Bytes())))
			return
		}
		ptr := v.Pointer()
		if ptr != 0 && v.Len() > 0 {
			if seen[ptr] {
				b.WriteString(cycleToken)
				return
			}
			seen[ptr] = true
			defer delete(seen, ptr)
		}
		writeSequence(b, v, seen)
	case reflect.Array:
		writeSequence(b, v, seen)
	case reflect.Map:
		if v.IsNil() {
			b.WriteByte('z')
			return
		}
		ptr := v.Pointer()
		if seen[ptr] {
			b.WriteString(cycleToken)
			return
		}
		seen[ptr] = true
		defer delete(seen, ptr)
		if v.Type().Elem() == emptyStruct {
			writeSet(b, v, seen)
			return
		}
		writeMapping(b, v, seen)
	case reflect.Struct:
		writeStruct(b, v, seen)
	case reflect.Pointer:
		if v.IsNil() {
			b.WriteByte('z')
			return
		}
		ptr := v.Pointer()
		if seen[ptr] {
			b.WriteString(cycleToken)
			return
		}
		seen[ptr] = true
		defer delete(seen, ptr)
		writeValue(b, v.Elem(), seen)
	case reflect.Interface:
		if v.IsNil() {
			b.WriteByte('z')
			return
		}
		writeValue(b, v.Elem(), seen)
	default:
		// Func, Chan, UnsafePointer.
		b.WriteString(opaqueToken)
	}
}

// writeSequence encodes an ordered sequence. Element order is part of the
// identity.
func writeSequence(b *strings.Builder, v reflect.Value, seen map[uintptr]bool) {
	b.WriteString("l[")
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		writeValue(b, v.Index(i), seen)
	}
	b.WriteByte(']')
}

// writeSet encodes a map[T]struct{} as an unordered collection: member
// encodings are sorted before joining, so insertion order is irrelevant.
func writeSet(b *strings.Builder, v reflect.Value, seen map[uintptr]bool) {
	members := make([]string, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		var mb strings.Builder
		writeValue(&mb, iter.Key(), seen)
		members = append(members, mb.String())
	}
	sort.Strings(members)
	b.WriteString("t{")
	b.WriteString(strings.Join(members, ","))
	b.WriteByte('}')
}

// writeMapping encodes a keyed mapping with entries sorted by their encoded
// key, so iteration and insertion order are irrelevant.
func writeMapping(b *strings.Builder, v reflect.Value, seen map[uintptr]bool) {
	pairs := make([]string, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		var pb strings.Builder
		writeValue(&pb, iter.Key(), seen)
		pb.WriteByte('=')
		writeValue(&pb, iter.Value(), seen)
		pairs = append(pairs, pb.String())
	}
	sort.Strings(pairs)
	b.WriteString("m{")
	b.WriteString(strings.Join(pairs, ","))
	b.WriteByte('}')
}

// writeStruct encodes exported fields sorted by name. Unexported fields are
// skipped: they are not part of a value's external identity and cannot be
// read portably.
func writeStruct(b *strings.Builder, v reflect.Value, seen map[uintptr]bool) {
	t := v.Type()
	names := make([]string, 0, t.NumField())
	index := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		names = append(names, f.Name)
		index[f.Name] = i
	}
	sort.Strings(names)
	b.WriteString("o{")
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte('=')
		writeValue(b, v.Field(index[name]), seen)
	}
	b.WriteByte('}')
}
