package funcpipes

import (
	"context"
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"
)

// To wraps fn as a pipe, or returns fn verbatim when it already is one.
// It panics on a non-callable value; use New when the error should be
// handled instead.
func To(fn any) *Pipe {
	if p, ok := fn.(*Pipe); ok {
		return p
	}
	return Must("to", fn)
}

// Method returns a method-call pipe: applied to arguments (a1, ..., ak, obj),
// it invokes obj's method name with (a1, ..., ak). The receiver is supplied
// last so the method's other arguments can be partially applied before the
// receiver is known.
//
//	stamp := Method("Format").Partial(time.RFC3339)  // receiver still open
//	Flow(ctx, time.Now(), stamp)                     // now.Format(time.RFC3339)
//
// Lookup tries name verbatim and then with its first rune upper-cased, so
// Method("format") finds Format. The receiver must be a value with methods;
// builtin types like string have none. Methods with pointer receivers are
// only found when obj is already a pointer.
func Method(name string) *Pipe {
	return Must(Name("to."+name), func(ctx context.Context, call *Args) (any, error) {
		if len(call.keyword) > 0 {
			return nil, fmt.Errorf("method %s cannot bind keyword values: %w", name, ErrKeywordValues)
		}
		pos := call.Positional()
		if len(pos) == 0 {
			return nil, fmt.Errorf("method %s needs a receiver as its last argument", name)
		}
		obj := pos[len(pos)-1]
		args := pos[:len(pos)-1]

		m, err := methodByName(obj, name)
		if err != nil {
			return nil, err
		}
		return invoke(ctx, m, args)
	})
}

func methodByName(obj any, name string) (reflect.Value, error) {
	if obj == nil {
		return reflect.Value{}, fmt.Errorf("cannot call method %q on nil", name)
	}
	rv := reflect.ValueOf(obj)
	if m := rv.MethodByName(name); m.IsValid() {
		return m, nil
	}
	if exported := exportedName(name); exported != name {
		if m := rv.MethodByName(exported); m.IsValid() {
			return m, nil
		}
	}
	return reflect.Value{}, fmt.Errorf("%T has no method %q", obj, name)
}

func exportedName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// Get is the attribute-getter pipe. Applied to (name, obj) it returns obj's
// attribute name; applied to (name, fallback, obj) it returns fallback when
// the attribute is missing. An attribute is a struct field, a map entry under
// a string key, or a method value, in that order of preference. A slice of
// names yields a slice of values.
//
// The receiver comes last, so GetAttr builds field accessors by currying:
//
//	stdout := GetAttr("Stdout")                 // Get.Partial("Stdout")
//	Flow(ctx, cmd, stdout)
var Get = Must("get", func(_ context.Context, call *Args) (any, error) {
	pos := call.Positional()

	var name, fallback, obj any
	hasFallback := false
	switch len(pos) {
	case 2:
		name, obj = pos[0], pos[1]
	case 3:
		name, fallback, obj = pos[0], pos[1], pos[2]
		hasFallback = true
	default:
		return nil, fmt.Errorf("get expects (name, object) or (name, fallback, object), got %d arguments", len(pos))
	}

	names, many := attrNames(name)
	if !many {
		return getAttr(obj, names[0], fallback, hasFallback)
	}
	out := make([]any, len(names))
	for i, n := range names {
		v, err := getAttr(obj, n, fallback, hasFallback)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
})

// GetAttr returns a pipe retrieving the named attribute of its argument.
// Several names retrieve a slice of values.
func GetAttr(names ...string) *Pipe {
	if len(names) == 1 {
		return Get.Partial(names[0])
	}
	return Get.Partial(names)
}

func attrNames(name any) ([]string, bool) {
	switch n := name.(type) {
	case string:
		return []string{n}, false
	case []string:
		return n, true
	case []any:
		out := make([]string, len(n))
		for i, v := range n {
			out[i] = fmt.Sprint(v)
		}
		return out, true
	default:
		return []string{fmt.Sprint(name)}, false
	}
}

func getAttr(obj any, name string, fallback any, hasFallback bool) (any, error) {
	if v, ok := lookupAttr(obj, name); ok {
		return v, nil
	}
	if hasFallback {
		return fallback, nil
	}
	return nil, fmt.Errorf("%T has no attribute %q", obj, name)
}

func lookupAttr(obj any, name string) (any, bool) {
	if obj == nil {
		return nil, false
	}
	rv := reflect.ValueOf(obj)

	elem := rv
	for elem.Kind() == reflect.Pointer {
		if elem.IsNil() {
			return nil, false
		}
		elem = elem.Elem()
	}

	switch elem.Kind() {
	case reflect.Struct:
		for _, candidate := range []string{name, exportedName(name)} {
			if f := elem.FieldByName(candidate); f.IsValid() && isExportedField(elem.Type(), candidate) {
				return f.Interface(), true
			}
		}
	case reflect.Map:
		if elem.Type().Key().Kind() == reflect.String {
			if v := elem.MapIndex(reflect.ValueOf(name).Convert(elem.Type().Key())); v.IsValid() {
				return v.Interface(), true
			}
		}
	}

	if m, err := methodByName(obj, name); err == nil {
		return m.Interface(), true
	}
	return nil, false
}

func isExportedField(t reflect.Type, name string) bool {
	f, ok := t.FieldByName(name)
	return ok && f.PkgPath == ""
}
