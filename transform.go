package funcpipes

import (
	"context"
	"fmt"
)

// Star returns a pipe that applies this one by unpacking an argument
// collection: its first argument is an iterable of positional values and its
// optional second argument is a map of keyword values.
//
//	double.Star().Process(ctx, []any{2, 3}) == double.Process(ctx, 2, 3)
func (p *Pipe) Star() *Pipe {
	return p.derive("star", func(ctx context.Context, call *Args) (any, error) {
		pos := call.Positional()
		if len(pos) < 1 || len(pos) > 2 {
			return nil, fmt.Errorf("star expects a sequence and optional keyword map, got %d arguments", len(pos))
		}
		values, err := sliceOf(pos[0])
		if err != nil {
			return nil, err
		}
		bundle := NewArgs(values...)
		if len(pos) == 2 && pos[1] != nil {
			keywords, ok := pos[1].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("star keyword argument must be map[string]any, got %T", pos[1])
			}
			bundle = bundle.WithKeywords(keywords)
		}
		return p.Process(ctx, bundle)
	})
}

// Map returns a pipe that maps this one over each element of an iterable
// argument, producing a lazy Seq. Nothing is invoked until the sequence is
// consumed; the sequence is finite iff the input is, and mirrors the input's
// own exhaustion, so it is not restartable once a stateful source runs dry.
// An element error ends the sequence after being yielded.
func (p *Pipe) Map() *Pipe {
	return p.derive("map", func(ctx context.Context, call *Args) (any, error) {
		pos := call.Positional()
		if len(pos) != 1 {
			return nil, fmt.Errorf("map expects one iterable, got %d arguments", len(pos))
		}
		src, err := toSeq(pos[0])
		if err != nil {
			return nil, err
		}
		return Seq(func(yield func(any, error) bool) {
			for v, serr := range src {
				if serr != nil {
					yield(nil, serr)
					return
				}
				result, perr := p.Process(ctx, v)
				if !yield(result, perr) || perr != nil {
					return
				}
			}
		}), nil
	})
}

// Partial returns a pipe curried with the given positional values; later
// calls supply the remaining arguments.
//
//	add.Partial(1).Process(ctx, 2) == add.Process(ctx, 1, 2)
func (p *Pipe) Partial(args ...any) *Pipe {
	return p.PartialArgs(NewArgs(args...))
}

// PartialArgs is Partial taking a full bundle, so keyword values can be bound
// as well. The bound bundle is recorded: the scoped-entry protocol (Enter)
// uses it to replace resource-valued bound arguments with their entered
// values.
func (p *Pipe) PartialArgs(bound *Args) *Pipe {
	q := p.derive("partial", func(ctx context.Context, call *Args) (any, error) {
		return p.Process(ctx, bound.merge(call))
	})
	q.partial = &partialState{base: p, bound: bound}
	return q
}

// Transpose returns a pipe that permutes positional arguments before calling
// this one. The argument at position k moves to position indices[k]; negative
// indices count from the end of the actual call's argument list. Arguments
// not named by indices fill the lowest unclaimed positions in their original
// relative order.
//
// Repeated indices fail with ErrRepeatedIndex. Range and gap violations
// depend on the call's argument count, so they surface at call time: an index
// outside [-n, n) fails with ErrIndexRange, and a reassignment whose target
// positions do not form a contiguous 0-based range fails with ErrIndexGap.
// Sparse or partial transpositions are intentionally rejected.
func (p *Pipe) Transpose(indices ...int) *Pipe {
	seen := make(map[int]bool, len(indices))
	for _, i := range indices {
		if seen[i] {
			return p.derive("transpose", func(context.Context, *Args) (any, error) {
				return nil, fmt.Errorf("index %d: %w", i, ErrRepeatedIndex)
			})
		}
		seen[i] = true
	}

	return p.derive("transpose", func(ctx context.Context, call *Args) (any, error) {
		pos := call.Positional()
		n := len(pos)

		// slot -> source argument position; -1 marks unclaimed.
		slots := make([]int, n)
		for i := range slots {
			slots[i] = -1
		}
		for k, i := range indices {
			if i < -n || i >= n {
				return nil, fmt.Errorf("index %d with %d arguments: %w", i, n, ErrIndexRange)
			}
			if i < 0 {
				i += n
			}
			if slots[i] != -1 {
				return nil, fmt.Errorf("index %d: %w", i, ErrRepeatedIndex)
			}
			slots[i] = k
		}
		next := len(indices)
		for slot := 0; slot < n && next < n; slot++ {
			if slots[slot] == -1 {
				slots[slot] = next
				next++
			}
		}
		rearranged := make([]any, n)
		for slot, src := range slots {
			if src == -1 {
				return nil, fmt.Errorf("target position %d unfilled: %w", slot, ErrIndexGap)
			}
			rearranged[slot] = pos[src]
		}

		bundle := NewArgs(rearranged...).WithKeywords(call.Keywords())
		return p.Process(ctx, bundle)
	})
}

// Flip swaps the first two positional arguments. It is Transpose(1, 0).
//
//	div.Flip().Process(ctx, 2, 4) == div.Process(ctx, 4, 2)
func (p *Pipe) Flip() *Pipe {
	return p.Transpose(1, 0)
}

// Chain returns the sequential composition of this pipe and other, this one
// first: the chained pipe computes this pipe's result and feeds it into
// other. A non-pipe other is coerced via Lift; the coercion error, if any,
// surfaces when the chained pipe is applied.
//
//	upper.Chain(split).Process(ctx, "a b") == split.Process(ctx, upper.Process(ctx, "a b"))
func (p *Pipe) Chain(other any) *Pipe {
	next, cerr := coerce(other)
	return p.derive("chain", func(ctx context.Context, call *Args) (any, error) {
		if cerr != nil {
			return nil, cerr
		}
		result, err := p.Process(ctx, call)
		if err != nil {
			return nil, err
		}
		return next.Process(ctx, result)
	})
}

// WithContext returns a pipe that treats every Resource-valued argument as a
// scoped resource: resources are entered in argument order (positional values
// first, then keyword values by name), this pipe is called with the entered
// values substituted in, and all entered resources are released in reverse
// order on every exit path. Non-resource arguments pass through unchanged.
func (p *Pipe) WithContext() *Pipe {
	q := p.derive("with_context", nil)
	q.target = func(ctx context.Context, call *Args) (result any, err error) {
		clock := q.getClock()
		start := clock.Now()

		ctx, span := q.tracer.StartSpan(ctx, PipeScopeSpan)
		defer span.Finish()
		span.SetTag(PipeTagName, string(q.name))

		stack := NewStack()
		defer func() {
			count := stack.Len()
			err = stack.Unwind(err)
			for i := 0; i < count; i++ {
				q.metrics.Counter(ScopeReleasedTotal).Inc()
			}
			_ = q.hooks.Emit(ctx, PipeEventScopeReleased, PipeEvent{ //nolint:errcheck
				Name:      q.name,
				Success:   err == nil,
				Error:     err,
				Resources: count,
				Duration:  clock.Now().Sub(start),
				Timestamp: clock.Now(),
			})
		}()

		entered, eerr := stack.EnterArgs(ctx, call)
		if eerr != nil {
			err = eerr
			return nil, err
		}
		for i := 0; i < stack.Len(); i++ {
			q.metrics.Counter(ScopeEnteredTotal).Inc()
		}
		_ = q.hooks.Emit(ctx, PipeEventScopeEntered, PipeEvent{ //nolint:errcheck
			Name:      q.name,
			Success:   true,
			Resources: stack.Len(),
			Duration:  clock.Now().Sub(start),
			Timestamp: clock.Now(),
		})

		result, err = p.Process(ctx, entered)
		return result, err
	}
	return q
}

// MapOver maps the scoped variant of this pipe over iterable: for each
// element, resource-valued arguments are entered around the call and released
// after it. The result is lazy; force it with Now or Collect.
func (p *Pipe) MapOver(ctx context.Context, iterable any) (Seq, error) {
	result, err := p.WithContext().Map().Process(ctx, iterable)
	if err != nil {
		return nil, err
	}
	return result.(Seq), nil
}

// coerce turns fn into a pipe without panicking on non-callable values.
func coerce(fn any) (*Pipe, error) {
	if p, ok := fn.(*Pipe); ok {
		return p, nil
	}
	return New("to", fn)
}
