package funcpipes

import (
	"context"
	"fmt"
	"reflect"
)

// Target is the canonical callable shape every pipe executes: a function
// taking a resolved argument bundle and returning a single result. Ordinary
// Go functions are lifted into this shape by Lift.
type Target func(ctx context.Context, call *Args) (any, error)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Lift coerces fn into a Target. It accepts:
//
//   - a Target (or any func with the Target signature), used as-is
//   - a *Pipe, whose target is reused
//   - any other Go function, invoked through reflection: an optional leading
//     context.Context parameter receives the call context, positional values
//     are bound to the remaining parameters in order (variadic functions
//     accepted), and a trailing error result is split off. Functions with
//     several non-error results return their results as a []any.
//
// Reflection-lifted functions have no way to bind keyword values; applying a
// bundle that carries them fails with ErrKeywordValues.
//
// Lift fails with ErrNotCallable for anything that is not a function.
func Lift(fn any) (Target, error) {
	switch f := fn.(type) {
	case nil:
		return nil, fmt.Errorf("<nil>: %w", ErrNotCallable)
	case Target:
		return f, nil
	case func(context.Context, *Args) (any, error):
		return f, nil
	case *Pipe:
		return f.Target(), nil
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("%T: %w", fn, ErrNotCallable)
	}
	return reflectTarget(v), nil
}

// reflectTarget builds a Target that binds a bundle's positional values to
// the parameters of fn and invokes it.
func reflectTarget(fn reflect.Value) Target {
	t := fn.Type()
	return func(ctx context.Context, call *Args) (any, error) {
		if len(call.keyword) > 0 {
			return nil, fmt.Errorf("%s cannot bind keyword values: %w", t, ErrKeywordValues)
		}
		return invoke(ctx, fn, call.positional)
	}
}

// invoke calls fn with the given positional arguments, threading ctx into a
// leading context.Context parameter when fn declares one.
func invoke(ctx context.Context, fn reflect.Value, args []any) (any, error) {
	t := fn.Type()

	in := make([]reflect.Value, 0, t.NumIn())
	offset := 0
	if t.NumIn() > 0 && t.In(0) == contextType {
		in = append(in, reflect.ValueOf(ctx))
		offset = 1
	}

	want := t.NumIn() - offset
	if t.IsVariadic() {
		if len(args) < want-1 {
			return nil, fmt.Errorf("%s expects at least %d arguments, got %d", t, want-1, len(args))
		}
	} else if len(args) != want {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", t, want, len(args))
	}

	for i, arg := range args {
		var param reflect.Type
		if t.IsVariadic() && i+offset >= t.NumIn()-1 {
			param = t.In(t.NumIn() - 1).Elem()
		} else {
			param = t.In(i + offset)
		}
		v, err := conform(arg, param)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in = append(in, v)
	}

	return splitResults(t, fn.Call(in))
}

// conform adapts arg to the parameter type, allowing Go's usual assignments
// and conversions.
func conform(arg any, param reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch param.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return reflect.Zero(param), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use nil as %s", param)
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(param) {
		return v, nil
	}
	if v.Type().ConvertibleTo(param) {
		return v.Convert(param), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", arg, param)
}

// splitResults separates a trailing error result from the function's values.
func splitResults(t reflect.Type, out []reflect.Value) (any, error) {
	var err error
	if n := t.NumOut(); n > 0 && t.Out(n-1) == errorType {
		if e := out[n-1].Interface(); e != nil {
			err = e.(error) //nolint:errcheck // type checked above
		}
		out = out[:n-1]
	}
	switch len(out) {
	case 0:
		return nil, err
	case 1:
		return out[0].Interface(), err
	}
	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, err
}
