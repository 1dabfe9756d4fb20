package funcpipes

import (
	"fmt"
	"iter"
	"reflect"
)

// Seq is a lazy, fallible sequence: elements are produced on demand, and the
// error slot carries a fault raised while producing an element. Mapped pipes,
// the Until family, and Ignore all produce and consume Seqs; a plain range
// loop consumes one directly.
//
// A Seq mirrors its source: sequences over stateful sources (channels,
// generators) are exhausted by consumption and do not restart.
type Seq = iter.Seq2[any, error]

// SeqOf returns a finite sequence of the given values.
func SeqOf(values ...any) Seq {
	return func(yield func(any, error) bool) {
		for _, v := range values {
			if !yield(v, nil) {
				return
			}
		}
	}
}

// FromSlice returns a sequence over the elements of a slice.
func FromSlice[T any](in []T) Seq {
	return func(yield func(any, error) bool) {
		for _, v := range in {
			if !yield(v, nil) {
				return
			}
		}
	}
}

// FromSeq adapts a plain iter.Seq into a fallible sequence.
func FromSeq[T any](in iter.Seq[T]) Seq {
	return func(yield func(any, error) bool) {
		for v := range in {
			if !yield(v, nil) {
				return
			}
		}
	}
}

// FromChan returns a sequence that receives from a channel until it closes.
func FromChan[T any](in <-chan T) Seq {
	return func(yield func(any, error) bool) {
		for v := range in {
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Forever is the unbounded repeat-of-empty-arguments source: it yields an
// empty bundle each time, useful for driving a pipe that needs no input.
// Bound it with UntilCount or a truncating consumer.
var Forever Seq = func(yield func(any, error) bool) {
	empty := NewArgs()
	for yield(empty, nil) {
	}
}

// Count yields from, from+1, from+2, ... without bound.
func Count(from int) Seq {
	return func(yield func(any, error) bool) {
		for i := from; ; i++ {
			if !yield(i, nil) {
				return
			}
		}
	}
}

// toSeq coerces v into a Seq. Sequences pass through; slices, arrays,
// channels, and iter.Seq values are adapted; a positional-only bundle yields
// its values. Strings and byte slices are atomic, not iterable.
func toSeq(v any) (Seq, error) {
	switch s := v.(type) {
	case nil:
		return nil, fmt.Errorf("cannot iterate nil")
	case Seq:
		return s, nil
	case iter.Seq[any]:
		return FromSeq(s), nil
	case []any:
		return FromSlice(s), nil
	case *Args:
		values, err := s.Values()
		if err != nil {
			return nil, err
		}
		return FromSeq(values), nil
	case string, []byte:
		return nil, fmt.Errorf("%T is atomic, not iterable", v)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return func(yield func(any, error) bool) {
			for i := 0; i < rv.Len(); i++ {
				if !yield(rv.Index(i).Interface(), nil) {
					return
				}
			}
		}, nil
	case reflect.Chan:
		return func(yield func(any, error) bool) {
			for {
				item, ok := rv.Recv()
				if !ok {
					return
				}
				if !yield(item.Interface(), nil) {
					return
				}
			}
		}, nil
	case reflect.Map:
		keys := rv.MapKeys()
		return func(yield func(any, error) bool) {
			for _, k := range keys {
				if !yield(k.Interface(), nil) {
					return
				}
			}
		}, nil
	default:
		return nil, fmt.Errorf("cannot iterate %T", v)
	}
}

// sliceOf eagerly materializes an iterable into []any.
func sliceOf(v any) ([]any, error) {
	if s, ok := v.([]any); ok {
		out := make([]any, len(s))
		copy(out, s)
		return out, nil
	}
	seq, err := toSeq(v)
	if err != nil {
		return nil, err
	}
	var out []any
	for item, serr := range seq {
		if serr != nil {
			return nil, serr
		}
		out = append(out, item)
	}
	return out, nil
}
