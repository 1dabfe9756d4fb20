package funcpipes

import (
	"errors"
	"testing"
)

var errFlaky = errors.New("flaky source")

// faultAfter yields values then raises fault, then yields rest on re-entry.
func faultAfter(fault error, values []any, rest []any) Seq {
	delivered := 0
	return func(yield func(any, error) bool) {
		for delivered < len(values) {
			v := values[delivered]
			delivered++
			if !yield(v, nil) {
				return
			}
		}
		if delivered == len(values) {
			delivered++
			yield(nil, fault)
			return
		}
		for _, v := range rest {
			if !yield(v, nil) {
				return
			}
		}
	}
}

func collectInts(t *testing.T, seq Seq) []any {
	t.Helper()
	got, err := Collect(seq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return got.([]any)
}

func TestUntilCondition(t *testing.T) {
	t.Run("Stops Before Trigger", func(t *testing.T) {
		got := collectInts(t, UntilCondition(func(v any) bool {
			return v.(int) > 2
		}, SeqOf(1, 2, 3, 4)))
		if len(got) != 2 || got[0] != 1 || got[1] != 2 {
			t.Errorf("unexpected result: %v", got)
		}
	})

	t.Run("Source Fault Propagates", func(t *testing.T) {
		seq := UntilCondition(func(any) bool { return false },
			faultAfter(errFlaky, []any{1}, nil))
		if _, err := Collect(seq); !errors.Is(err, errFlaky) {
			t.Errorf("expected the source fault, got %v", err)
		}
	})
}

func TestUntilResult(t *testing.T) {
	t.Run("Unbounded Counter With Sentinel", func(t *testing.T) {
		got := collectInts(t, UntilResult(5, Count(0)))
		want := []any{0, 1, 2, 3, 4}
		if len(got) != len(want) {
			t.Fatalf("unexpected result: %v", got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("position %d: expected %v, got %v", i, want[i], got[i])
			}
		}
	})

	t.Run("Uncomparable Sentinel", func(t *testing.T) {
		got := collectInts(t, UntilResult([]int{2}, SeqOf([]int{1}, []int{2}, []int{3})))
		if len(got) != 1 {
			t.Errorf("expected one item before the sentinel, got %v", got)
		}
	})
}

func TestUntilCount(t *testing.T) {
	got := collectInts(t, UntilCount(2, SeqOf(1, 2, 3)))
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("unexpected result: %v", got)
	}

	if got := collectInts(t, UntilCount(0, SeqOf(1))); len(got) != 0 {
		t.Errorf("expected nothing, got %v", got)
	}
}

func TestUntilError(t *testing.T) {
	t.Run("Matched Fault Ends Sequence Normally", func(t *testing.T) {
		got := collectInts(t, UntilError(faultAfter(errFlaky, []any{1, 2}, nil), errFlaky))
		if len(got) != 2 || got[0] != 1 || got[1] != 2 {
			t.Errorf("expected (1, 2), got %v", got)
		}
	})

	t.Run("No Kinds Swallows Any Fault", func(t *testing.T) {
		got := collectInts(t, UntilError(faultAfter(errFlaky, []any{1}, nil)))
		if len(got) != 1 {
			t.Errorf("expected (1), got %v", got)
		}
	})

	t.Run("Unmatched Fault Propagates", func(t *testing.T) {
		other := errors.New("other")
		seq := UntilError(faultAfter(errFlaky, []any{1}, nil), other)
		if _, err := Collect(seq); !errors.Is(err, errFlaky) {
			t.Errorf("expected the source fault, got %v", err)
		}
	})
}

func TestIgnore(t *testing.T) {
	t.Run("Resumes After Swallowed Fault", func(t *testing.T) {
		src := faultAfter(errFlaky, []any{1, 2}, []any{3, 4})
		got := collectInts(t, UntilCount(4, Ignore(src, errFlaky)))
		want := []any{1, 2, 3, 4}
		if len(got) != len(want) {
			t.Fatalf("unexpected result: %v", got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("position %d: expected %v, got %v", i, want[i], got[i])
			}
		}
	})

	t.Run("Unmatched Fault Still Propagates", func(t *testing.T) {
		other := errors.New("other")
		src := faultAfter(other, []any{1}, nil)
		seq := UntilCount(3, Ignore(src, errFlaky))
		if _, err := Collect(seq); !errors.Is(err, other) {
			t.Errorf("expected the unmatched fault, got %v", err)
		}
	})
}
