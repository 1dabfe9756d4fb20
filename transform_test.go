package funcpipes

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestStar(t *testing.T) {
	ctx := context.Background()

	t.Run("Sequence Expansion", func(t *testing.T) {
		add := Must("add", func(a, b int) int { return a + b })

		direct, err := add.Process(ctx, 2, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		starred, err := add.Star().Process(ctx, []any{2, 3})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if direct != starred {
			t.Errorf("star law broken: %v vs %v", direct, starred)
		}
	})

	t.Run("Typed Slice Expansion", func(t *testing.T) {
		add := Must("add", func(a, b int) int { return a + b })
		result, err := add.Star().Process(ctx, []int{4, 5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != 9 {
			t.Errorf("expected 9, got %v", result)
		}
	})

	t.Run("Keyword Map", func(t *testing.T) {
		join := Must("join", Target(func(_ context.Context, call *Args) (any, error) {
			sep, _ := call.Keyword("sep")
			parts := make([]string, 0, call.Len())
			for _, v := range call.Positional() {
				parts = append(parts, v.(string))
			}
			return strings.Join(parts, sep.(string)), nil
		}))

		result, err := join.Star().Process(ctx, []any{"a", "b"}, map[string]any{"sep": ","})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != "a,b" {
			t.Errorf("expected a,b, got %v", result)
		}
	})

	t.Run("String Is Atomic", func(t *testing.T) {
		id := Must("id", func(x any) any { return x })
		if _, err := id.Star().Process(ctx, "abc"); err == nil {
			t.Error("expected an error expanding a string")
		}
	})
}

func TestMap(t *testing.T) {
	ctx := context.Background()

	t.Run("Lazy Until Consumed", func(t *testing.T) {
		calls := 0
		double := Must("double", func(x int) int { calls++; return x * 2 })

		result, err := double.Map().Process(ctx, []any{1, 2, 3})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 0 {
			t.Fatalf("map must not invoke before consumption, saw %d calls", calls)
		}

		collected, err := Collect(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls after collection, got %d", calls)
		}
		got := collected.([]any)
		want := []any{2, 4, 6}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("position %d: expected %v, got %v", i, want[i], got[i])
			}
		}
	})

	t.Run("Element Failure Surfaces On Consumption", func(t *testing.T) {
		boom := errors.New("boom")
		picky := Must("picky", func(x int) (int, error) {
			if x == 2 {
				return 0, boom
			}
			return x, nil
		})

		result, err := picky.Map().Process(ctx, []any{1, 2, 3})
		if err != nil {
			t.Fatalf("construction should not fail: %v", err)
		}
		if _, err := Collect(result); !errors.Is(err, boom) {
			t.Errorf("expected boom on consumption, got %v", err)
		}
	})
}

func TestPartial(t *testing.T) {
	ctx := context.Background()

	t.Run("Composition Law", func(t *testing.T) {
		cat := Must("cat", func(a, b, c string) string { return a + b + c })

		curried, err := cat.Partial("x").Partial("y").Process(ctx, "z")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		direct, err := cat.Process(ctx, "x", "y", "z")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if curried != direct {
			t.Errorf("partial law broken: %v vs %v", curried, direct)
		}
	})

	t.Run("Keyword Binding", func(t *testing.T) {
		read := Must("read", Target(func(_ context.Context, call *Args) (any, error) {
			v, _ := call.Keyword("mode")
			return v, nil
		}))
		result, err := read.PartialArgs(NewArgs().WithKeyword("mode", "fast")).Process(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != "fast" {
			t.Errorf("expected fast, got %v", result)
		}
	})
}

func TestTranspose(t *testing.T) {
	ctx := context.Background()
	div := Must("div", func(n, d float64) float64 { return n / d })

	t.Run("Swap", func(t *testing.T) {
		result, err := div.Transpose(1, 0).Process(ctx, 1.0, 2.0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != 2.0 {
			t.Errorf("expected 2, got %v", result)
		}
	})

	t.Run("Round Trip", func(t *testing.T) {
		direct, err := div.Process(ctx, 1.0, 2.0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		twice, err := div.Transpose(1, 0).Transpose(1, 0).Process(ctx, 1.0, 2.0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if direct != twice {
			t.Errorf("transpose round trip broken: %v vs %v", direct, twice)
		}
	})

	t.Run("Single Index Rotates To Front", func(t *testing.T) {
		result, err := div.Transpose(1).Process(ctx, 1.0, 2.0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != 2.0 {
			t.Errorf("expected 2, got %v", result)
		}
	})

	t.Run("Single Index Scatters Over Three Arguments", func(t *testing.T) {
		// The first argument moves to slot 2; the untouched arguments
		// fill the lower slots in their original order.
		cat := Must("cat", func(a, b, c string) string { return a + b + c })
		result, err := cat.Transpose(2).Process(ctx, "a", "b", "c")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != "bca" {
			t.Errorf("expected bca, got %v", result)
		}
	})

	t.Run("Negative Index", func(t *testing.T) {
		result, err := div.Transpose(-1).Process(ctx, 1.0, 2.0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != 2.0 {
			t.Errorf("expected 2, got %v", result)
		}
	})

	t.Run("Repeated Indices Always Fail", func(t *testing.T) {
		_, err := div.Transpose(0, 0).Process(ctx, 1.0, 2.0)
		if !errors.Is(err, ErrRepeatedIndex) {
			t.Errorf("expected ErrRepeatedIndex, got %v", err)
		}
	})

	t.Run("Out Of Range At Call Time", func(t *testing.T) {
		_, err := div.Transpose(2).Process(ctx, 1.0, 2.0)
		if !errors.Is(err, ErrIndexRange) {
			t.Errorf("expected ErrIndexRange, got %v", err)
		}
	})

	t.Run("Normalized Collision Fails", func(t *testing.T) {
		// 1 and -1 name the same slot for two arguments.
		_, err := div.Transpose(1, -1).Process(ctx, 1.0, 2.0)
		if !errors.Is(err, ErrRepeatedIndex) {
			t.Errorf("expected ErrRepeatedIndex, got %v", err)
		}
	})

	t.Run("Varying Argument Counts", func(t *testing.T) {
		last := Must("last", func(vals ...int) int { return vals[len(vals)-1] })
		rotated := last.Transpose(1)

		// Validation happens per call, so one transposed pipe serves
		// several arities.
		if _, err := rotated.Process(ctx, 1, 2); err != nil {
			t.Errorf("two arguments: %v", err)
		}
		if _, err := rotated.Process(ctx, 1, 2, 3); err != nil {
			t.Errorf("three arguments: %v", err)
		}
	})
}

func TestFlip(t *testing.T) {
	ctx := context.Background()
	div := Must("div", func(n, d float64) float64 { return n / d })

	flipped, err := div.Flip().Process(ctx, 1.0, 2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flipped != 2.0 {
		t.Errorf("expected 2, got %v", flipped)
	}

	back, err := div.Flip().Flip().Process(ctx, 1.0, 2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back != 0.5 {
		t.Errorf("expected 0.5, got %v", back)
	}
}

func TestChain(t *testing.T) {
	ctx := context.Background()

	t.Run("Composition Law", func(t *testing.T) {
		upper := Must("upper", strings.ToUpper)
		fields := Must("fields", strings.Fields)

		chained, err := upper.Chain(fields).Process(ctx, "hello world")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		inner, err := upper.Process(ctx, "hello world")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		direct, err := fields.Process(ctx, inner)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := chained.([]string)
		want := direct.([]string)
		if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("chain law broken: %v vs %v", got, want)
		}
	})

	t.Run("Bare Function Is Coerced", func(t *testing.T) {
		upper := Must("upper", strings.ToUpper)
		result, err := upper.Chain(strings.TrimSpace).Process(ctx, "  hi  ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != "HI" {
			t.Errorf("expected HI, got %v", result)
		}
	})

	t.Run("Non Callable Surfaces At Call Time", func(t *testing.T) {
		upper := Must("upper", strings.ToUpper)
		chained := upper.Chain(42)
		if _, err := chained.Process(ctx, "x"); !errors.Is(err, ErrNotCallable) {
			t.Errorf("expected ErrNotCallable, got %v", err)
		}
	})

	t.Run("First Failure Short Circuits", func(t *testing.T) {
		boom := errors.New("boom")
		fail := Must("fail", func(string) (string, error) { return "", boom })
		reached := false
		witness := Must("witness", func(s string) string { reached = true; return s })

		_, err := fail.Chain(witness).Process(ctx, "x")
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if reached {
			t.Error("chain continued past a failure")
		}
	})
}
