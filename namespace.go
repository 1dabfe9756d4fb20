package funcpipes

import (
	"fmt"
	"reflect"
	"sort"
)

// Namespace is a structural copy of a module- or class-like value whose
// callable attributes have been replaced by pipes. It is produced by Pipify.
type Namespace struct {
	description string
	attrs       map[string]any
}

// Attr returns the attribute stored under name.
func (n *Namespace) Attr(name string) (any, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// Pipe returns the attribute under name when it is a pipe.
func (n *Namespace) Pipe(name string) (*Pipe, bool) {
	p, ok := n.attrs[name].(*Pipe)
	return p, ok
}

// Set stores an attribute, replacing any existing value under name.
func (n *Namespace) Set(name string, value any) {
	n.attrs[name] = value
}

// Names returns the attribute names in sorted order.
func (n *Namespace) Names() []string {
	names := make([]string, 0, len(n.attrs))
	for name := range n.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String identifies the namespace by the value it was copied from.
func (n *Namespace) String() string {
	return fmt.Sprintf("Namespace(%s)", n.description)
}

// PipifyOption configures Pipify.
type PipifyOption func(*pipifyConfig)

type pipifyConfig struct {
	maxDepth int
}

// MaxDepth limits how deep Pipify recurses into nested namespaces. The
// default is unlimited; a depth of zero disables recursion entirely, copying
// nested namespaces as plain attributes.
func MaxDepth(depth int) PipifyOption {
	return func(c *pipifyConfig) {
		c.maxDepth = depth
	}
}

// Pipify produces a shallow structural copy of a namespace-like value - a
// struct, pointer to struct, or string-keyed map - in which every callable
// attribute is wrapped as a pipe and every nested namespace attribute is
// recursively transformed. Cycles are broken by a memo keyed on object
// identity, so a namespace referencing itself (directly or through another
// transformed namespace) is processed once and shared at every reference
// site.
//
//	funcs := map[string]any{
//	    "add": func(x, y int) int { return x + y },
//	    "mul": func(x, y int) int { return x * y },
//	}
//	ns, _ := Pipify(funcs)
//	add, _ := ns.Pipe("add")
//	Flow(ctx, 4, add.Partial(1))   // 5
func Pipify(namespace any, opts ...PipifyOption) (*Namespace, error) {
	cfg := pipifyConfig{maxDepth: -1}
	for _, opt := range opts {
		opt(&cfg)
	}
	return pipify(namespace, cfg.maxDepth, map[uintptr]*Namespace{})
}

func pipify(namespace any, depth int, memo map[uintptr]*Namespace) (*Namespace, error) {
	rv := reflect.ValueOf(namespace)
	key, identified := identity(rv)
	if identified {
		if ns, seen := memo[key]; seen {
			return ns, nil
		}
	}

	attrs, err := namespaceAttrs(rv)
	if err != nil {
		return nil, err
	}

	ns := &Namespace{
		description: fmt.Sprintf("%T", namespace),
		attrs:       make(map[string]any, len(attrs)),
	}
	// Publish before walking children so self-references resolve to ns.
	if identified {
		memo[key] = ns
	}

	for name, value := range attrs {
		transformed, terr := pipifyAttr(name, value, depth, memo)
		if terr != nil {
			return nil, terr
		}
		ns.attrs[name] = transformed
	}
	return ns, nil
}

func pipifyAttr(name string, value any, depth int, memo map[uintptr]*Namespace) (any, error) {
	if value == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Func {
		return New(Name(name), value)
	}
	if depth != 0 && isNamespaceLike(rv) {
		return pipify(value, depth-1, memo)
	}
	return value, nil
}

// identity returns a stable key for values that have one. Only values with
// pointer identity can participate in cycles, so plain struct values need no
// memo entry.
func identity(rv reflect.Value) (uintptr, bool) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map:
		if rv.IsNil() {
			return 0, false
		}
		return rv.Pointer(), true
	default:
		return 0, false
	}
}

func isNamespaceLike(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Struct:
		return true
	case reflect.Pointer:
		return !rv.IsNil() && rv.Elem().Kind() == reflect.Struct
	case reflect.Map:
		return rv.Type().Key().Kind() == reflect.String
	default:
		return false
	}
}

func namespaceAttrs(rv reflect.Value) (map[string]any, error) {
	elem := rv
	if elem.Kind() == reflect.Pointer {
		if elem.IsNil() {
			return nil, fmt.Errorf("cannot pipify nil pointer")
		}
		elem = elem.Elem()
	}

	switch elem.Kind() {
	case reflect.Struct:
		t := elem.Type()
		attrs := make(map[string]any, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue
			}
			attrs[f.Name] = elem.Field(i).Interface()
		}
		// Bound methods count as callable attributes, the closest Go
		// analog of functions defined on a class.
		rt := rv.Type()
		for i := 0; i < rt.NumMethod(); i++ {
			m := rt.Method(i)
			if m.PkgPath != "" {
				continue
			}
			attrs[m.Name] = rv.Method(i).Interface()
		}
		return attrs, nil
	case reflect.Map:
		if elem.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("cannot pipify %s: keys are not strings", elem.Type())
		}
		attrs := make(map[string]any, elem.Len())
		it := elem.MapRange()
		for it.Next() {
			attrs[it.Key().String()] = it.Value().Interface()
		}
		return attrs, nil
	default:
		if !rv.IsValid() {
			return nil, fmt.Errorf("cannot pipify nil")
		}
		return nil, fmt.Errorf("cannot pipify %s", rv.Type())
	}
}
