package funcpipes

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"strings"
)

// Args is an immutable, ordered capture of positional and keyword call
// arguments. It is deliberately distinct from a plain slice so that "a set of
// arguments to apply" can be told apart from "a single argument that happens
// to be a slice".
//
// Args values are created at call boundaries (NewArgs, or by the Identity
// pipe collecting its inputs) and consumed by Apply. All With* methods return
// a new bundle and never mutate the receiver.
type Args struct {
	positional []any
	keyword    map[string]any
	inert      bool
}

// NewArgs captures the given positional values as a bundle.
func NewArgs(positional ...any) *Args {
	return &Args{positional: positional}
}

// Hold captures the given positional values as an inert bundle: applying it
// to a target returns the bundle itself instead of invoking the target. It is
// a placeholder that can still carry state through a chain of pipes.
func Hold(positional ...any) *Args {
	return &Args{positional: positional, inert: true}
}

// Nothing is the empty inert bundle. Piping it through any pipe yields
// Nothing again.
var Nothing = Hold()

// Resolve normalizes loose call arguments into a single bundle. A lone *Args
// passes through verbatim, so a chain can forward a pre-built bundle without
// re-wrapping it. Mixing a bundle with other arguments is an error
// (ErrMixedBundle). Anything else is captured as a new positional bundle.
func Resolve(args ...any) (*Args, error) {
	for _, arg := range args {
		if bundle, ok := arg.(*Args); ok {
			if len(args) != 1 {
				return nil, fmt.Errorf("%s: %w", bundle, ErrMixedBundle)
			}
			return bundle, nil
		}
	}
	return NewArgs(args...), nil
}

// WithKeyword returns a copy of the bundle with one keyword value added.
// An existing value under the same name is replaced.
func (a *Args) WithKeyword(name string, value any) *Args {
	keyword := make(map[string]any, len(a.keyword)+1)
	for k, v := range a.keyword {
		keyword[k] = v
	}
	keyword[name] = value
	return &Args{positional: a.positional, keyword: keyword, inert: a.inert}
}

// WithKeywords returns a copy of the bundle with all given keyword values
// added.
func (a *Args) WithKeywords(values map[string]any) *Args {
	out := a
	for _, name := range sortedKeys(values) {
		out = out.WithKeyword(name, values[name])
	}
	return out
}

// Positional returns a copy of the positional values in order.
func (a *Args) Positional() []any {
	out := make([]any, len(a.positional))
	copy(out, a.positional)
	return out
}

// Keyword returns the value bound under name, if any.
func (a *Args) Keyword(name string) (any, bool) {
	v, ok := a.keyword[name]
	return v, ok
}

// Keywords returns a copy of the keyword values.
func (a *Args) Keywords() map[string]any {
	out := make(map[string]any, len(a.keyword))
	for k, v := range a.keyword {
		out[k] = v
	}
	return out
}

// KeywordNames returns the keyword names in sorted order. Sorting keeps every
// operation that walks keyword values deterministic.
func (a *Args) KeywordNames() []string {
	return sortedKeys(a.keyword)
}

// Len returns the number of positional values.
func (a *Args) Len() int {
	return len(a.positional)
}

// Inert reports whether Apply returns the bundle itself instead of invoking
// the target.
func (a *Args) Inert() bool {
	return a.inert
}

// Apply invokes the target with the bundle's values. An inert bundle returns
// itself unchanged and never invokes the target.
func (a *Args) Apply(ctx context.Context, target Target) (any, error) {
	if a.inert {
		return a, nil
	}
	return target(ctx, a)
}

// Values destructures the bundle into its positional values, in order. It
// fails with ErrKeywordValues if keyword values are present, disambiguating
// "this bundle is positional-only and can be taken apart".
func (a *Args) Values() (iter.Seq[any], error) {
	if len(a.keyword) > 0 {
		return nil, fmt.Errorf("cannot destructure %s: %w", a, ErrKeywordValues)
	}
	return func(yield func(any) bool) {
		for _, v := range a.positional {
			if !yield(v) {
				return
			}
		}
	}, nil
}

// String renders the bundle the way it would be written at a call site.
func (a *Args) String() string {
	parts := make([]string, 0, len(a.positional)+len(a.keyword))
	for _, v := range a.positional {
		parts = append(parts, fmt.Sprintf("%#v", v))
	}
	for _, name := range sortedKeys(a.keyword) {
		parts = append(parts, fmt.Sprintf("%s=%#v", name, a.keyword[name]))
	}
	label := "Args"
	if a.inert {
		label = "Hold"
	}
	return fmt.Sprintf("%s(%s)", label, strings.Join(parts, ", "))
}

// merge appends the call's values after the bound values. Keyword values from
// the call override bound ones of the same name.
func (a *Args) merge(call *Args) *Args {
	positional := make([]any, 0, len(a.positional)+len(call.positional))
	positional = append(positional, a.positional...)
	positional = append(positional, call.positional...)
	merged := &Args{positional: positional, inert: call.inert}
	if len(a.keyword)+len(call.keyword) > 0 {
		keyword := make(map[string]any, len(a.keyword)+len(call.keyword))
		for k, v := range a.keyword {
			keyword[k] = v
		}
		for k, v := range call.keyword {
			keyword[k] = v
		}
		merged.keyword = keyword
	}
	return merged
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
