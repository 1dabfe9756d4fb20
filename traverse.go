package funcpipes

import (
	"context"
	"iter"
	"reflect"
)

// Discard recursively walks nested containers (slices, arrays, maps) purely
// to force evaluation of any lazy sequences inside, discarding every result.
// Strings and byte slices are atomic and not walked. The only thing Discard
// returns is a fault propagated from a forced element.
func Discard(values ...any) error {
	for _, v := range values {
		if err := discardValue(v); err != nil {
			return err
		}
	}
	return nil
}

func discardValue(v any) error {
	switch s := v.(type) {
	case nil, string, []byte:
		return nil
	case Seq:
		for item, err := range s {
			if err != nil {
				return err
			}
			if derr := discardValue(item); derr != nil {
				return derr
			}
		}
		return nil
	case iter.Seq[any]:
		for item := range s {
			if err := discardValue(item); err != nil {
				return err
			}
		}
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := discardValue(rv.Index(i).Interface()); err != nil {
				return err
			}
		}
	case reflect.Map:
		it := rv.MapRange()
		for it.Next() {
			if err := discardValue(it.Value().Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Collect recursively walks the same container shapes as Discard, rebuilding
// each container in its original concrete type with every lazily-produced
// element eagerly materialized. A lone lazy sequence becomes a []any; single
// non-container values pass through unchanged; several values collect into a
// []any of their collected forms. Collect is idempotent.
func Collect(values ...any) (any, error) {
	switch len(values) {
	case 0:
		return nil, nil
	case 1:
		return collectValue(values[0])
	}
	out := make([]any, len(values))
	for i, v := range values {
		collected, err := collectValue(v)
		if err != nil {
			return nil, err
		}
		out[i] = collected
	}
	return out, nil
}

func collectValue(v any) (any, error) {
	switch s := v.(type) {
	case nil, string, []byte:
		return v, nil
	case Seq:
		var out []any
		for item, err := range s {
			if err != nil {
				return nil, err
			}
			collected, cerr := collectValue(item)
			if cerr != nil {
				return nil, cerr
			}
			out = append(out, collected)
		}
		return out, nil
	case iter.Seq[any]:
		return collectValue(FromSeq(s))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return collectSequence(rv)
	case reflect.Map:
		return collectMap(rv)
	}
	return v, nil
}

// collectSequence rebuilds a slice or array in its own concrete type. When a
// collected element no longer fits the element type (a lazy sequence turned
// into []any), the container degrades to []any.
func collectSequence(rv reflect.Value) (any, error) {
	n := rv.Len()
	collected := make([]any, n)
	fits := true
	elem := rv.Type().Elem()
	for i := 0; i < n; i++ {
		c, err := collectValue(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		collected[i] = c
		if fits && !assignable(c, elem) {
			fits = false
		}
	}
	if !fits {
		return collected, nil
	}
	var out reflect.Value
	if rv.Kind() == reflect.Array {
		out = reflect.New(rv.Type()).Elem()
	} else {
		out = reflect.MakeSlice(rv.Type(), n, n)
	}
	for i, c := range collected {
		out.Index(i).Set(conformed(c, elem))
	}
	return out.Interface(), nil
}

func collectMap(rv reflect.Value) (any, error) {
	elem := rv.Type().Elem()
	type entry struct {
		key       reflect.Value
		collected any
	}
	entries := make([]entry, 0, rv.Len())
	fits := true
	it := rv.MapRange()
	for it.Next() {
		c, err := collectValue(it.Value().Interface())
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{key: it.Key(), collected: c})
		if fits && !assignable(c, elem) {
			fits = false
		}
	}
	if !fits {
		out := make(map[any]any, len(entries))
		for _, e := range entries {
			out[e.key.Interface()] = e.collected
		}
		return out, nil
	}
	out := reflect.MakeMapWithSize(rv.Type(), len(entries))
	for _, e := range entries {
		out.SetMapIndex(e.key, conformed(e.collected, elem))
	}
	return out.Interface(), nil
}

func assignable(v any, t reflect.Type) bool {
	if v == nil {
		switch t.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return true
		}
		return false
	}
	return reflect.TypeOf(v).AssignableTo(t)
}

func conformed(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(v)
}

// Now is the canonical "force evaluation here" pipeline terminator: a pipe
// that deep-collects its input, materializing every lazy sequence into a
// fixed ordered slice.
//
//	Flow(ctx, []any{1, 2, 3}, double.Map(), Now)
var Now = Must("now", func(_ context.Context, call *Args) (any, error) {
	pos := call.Positional()
	if len(pos) == 1 {
		return Collect(pos[0])
	}
	return Collect(pos...)
})

// Drain is the discarding terminator: it forces every lazy sequence in its
// input for side effects and returns nothing.
var Drain = Must("drain", func(_ context.Context, call *Args) (any, error) {
	return nil, Discard(call.Positional()...)
})
