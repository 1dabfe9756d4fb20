// Package funcpipes provides a small functional-composition layer for Go:
// a wrapper type that lets ordinary functions be combined through named
// transformations instead of nested calls.
//
// # Overview
//
// When functions are used as filters, expressions nest inside out:
//
//	y := f(g(1, h(x), 2), 3)
//
// funcpipes turns the same computation into a left-to-right pipeline of
// wrapped callables:
//
//	h := funcpipes.Must("h", hFn)
//	g := funcpipes.Must("g", gFn).Transpose(1).Partial(1, 2)
//	f := funcpipes.Must("f", fFn).Partial(3).Flip()
//	y, err := funcpipes.Flow(ctx, x, h, g, f)
//
// which reads in the order the data travels.
//
// # Core Concepts
//
// Two entities compose the package:
//
//   - Args: an immutable capture of positional and keyword call arguments,
//     distinct from a plain slice so "a set of arguments to apply" is not
//     confused with "a single argument that happens to be a slice".
//   - Pipe: wraps any callable (lifted by Lift, reflection included) and adds
//     transformations that each return a new Pipe: Star, Map, Partial,
//     Transpose, Flip, Chain, and WithContext.
//
// A value enters a chain of pipes through Flow or Process; each pipe either
// forwards the call to its underlying target directly or first expands it
// through the transformation it was built from. Chain builds a pipe whose
// target invokes two pipes in sequence.
//
// # Laziness
//
// Map and MapOver produce a Seq, a lazy fallible sequence built on the
// standard iter package. Nothing executes until the sequence is consumed, so
// the caller decides when side effects begin by choosing when to force
// evaluation with the Now terminator (or Collect):
//
//	double := funcpipes.Must("double", func(x int) int { return x * 2 })
//	out, err := funcpipes.Flow(ctx, []any{1, 2, 3}, double.Map(), funcpipes.Now)
//	// out == []any{2, 4, 6}
//
// The Until family (UntilCondition, UntilResult, UntilCount, UntilError) and
// Ignore bound or filter sequences; Discard and Drain force evaluation while
// throwing results away.
//
// # Scoped Resources
//
// Arguments implementing Resource (or io.Closer) can be entered for the
// duration of a call. WithContext enters them in argument order, calls the
// pipe with the entered values, and releases everything in reverse order on
// every exit path. Enter runs the same protocol over a curried pipe's bound
// arguments, returning the release stack to the caller.
//
// # Errors
//
// Failures are wrapped into *Error carrying the path of pipes the call
// traveled through, the input arguments, and timing information. The
// underlying error is never renamed or swallowed - errors.Is and errors.As
// reach it - except where swallowing is the documented semantics (UntilError
// and Ignore treating a matched fault as end of sequence). Misuse of the
// surface itself is reported through sentinel errors such as ErrNotCallable,
// ErrMixedBundle, and ErrRepeatedIndex.
//
// # Observability
//
// Every pipe carries its own metrics registry, tracer, and event hooks:
// counters for applications and scope transitions, spans around each
// application, and PipeEvent hooks (OnProcessed, OnScopeEntered,
// OnScopeReleased) for external tracking. Clocks are injectable via
// WithClock for deterministic tests.
package funcpipes
