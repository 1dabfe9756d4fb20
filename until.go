package funcpipes

import (
	"errors"
	"reflect"
)

// UntilCondition yields items from seq in order, stopping without yielding
// the triggering item the first time pred holds. The result is finite iff
// truncation occurs or the input is finite. A fault raised by the source
// propagates and ends the sequence.
func UntilCondition(pred func(any) bool, seq Seq) Seq {
	return func(yield func(any, error) bool) {
		for v, err := range seq {
			if err != nil {
				yield(nil, err)
				return
			}
			if pred(v) {
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// UntilResult yields items from seq until one equals sentinel; the sentinel
// itself is not yielded.
//
//	Collect(UntilResult(5, Count(0))) == []any{0, 1, 2, 3, 4}
func UntilResult(sentinel any, seq Seq) Seq {
	return UntilCondition(func(v any) bool {
		return equal(v, sentinel)
	}, seq)
}

// UntilCount yields at most the first n items of seq.
func UntilCount(n int, seq Seq) Seq {
	return func(yield func(any, error) bool) {
		if n <= 0 {
			return
		}
		taken := 0
		for v, err := range seq {
			if !yield(v, err) {
				return
			}
			if err != nil {
				return
			}
			taken++
			if taken >= n {
				return
			}
		}
	}
}

// UntilError forwards items from seq until an element fault matches one of
// kinds (via errors.Is), at which point the sequence ends normally: the
// matched fault is swallowed, not propagated. With no kinds, any fault ends
// the sequence. A non-matching fault propagates unchanged.
//
// Each behavior of the original shape-dispatched truncation is exposed as its
// own constructor (UntilCondition, UntilResult, UntilCount, UntilError), so
// the choice is explicit at the call site.
func UntilError(seq Seq, kinds ...error) Seq {
	return func(yield func(any, error) bool) {
		for v, err := range seq {
			if err != nil {
				if matchesKind(err, kinds) {
					return
				}
				yield(nil, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Ignore is UntilError repeated indefinitely: after each swallowed matching
// fault the source sequence is re-entered, producing an unbounded sequence
// that skips failures. Sources that track their own position (channels,
// generators) resume where they left off; use it for "retry forever, skip
// failures" consumption and bound it downstream.
func Ignore(seq Seq, kinds ...error) Seq {
	return func(yield func(any, error) bool) {
		for {
			for v, err := range seq {
				if err != nil {
					if matchesKind(err, kinds) {
						break
					}
					yield(nil, err)
					return
				}
				if !yield(v, nil) {
					return
				}
			}
		}
	}
}

func matchesKind(err error, kinds []error) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// equal compares loosely the way a sentinel check should: comparable values
// by ==, everything else structurally.
func equal(a, b any) bool {
	ra := reflect.ValueOf(a)
	if ra.IsValid() && ra.Comparable() {
		rb := reflect.ValueOf(b)
		return rb.IsValid() && rb.Comparable() && a == b
	}
	return reflect.DeepEqual(a, b)
}
