package funcpipes

import (
	"context"
	"testing"
)

type calculator struct {
	Precision int
}

func (calculator) Add(x, y int) int { return x + y }

func (calculator) Mul(x, y int) int { return x * y }

func TestPipify(t *testing.T) {
	ctx := context.Background()

	t.Run("Map Namespace", func(t *testing.T) {
		funcs := map[string]any{
			"add": func(x, y int) int { return x + y },
			"mul": func(x, y int) int { return x * y },
		}
		ns, err := Pipify(funcs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		add, ok := ns.Pipe("add")
		if !ok {
			t.Fatal("add was not wrapped")
		}
		result, err := Flow(ctx, 4, add.Partial(1))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != 5 {
			t.Errorf("expected 5, got %v", result)
		}
	})

	t.Run("Struct Namespace Wraps Methods And Fields", func(t *testing.T) {
		ns, err := Pipify(calculator{Precision: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		mul, ok := ns.Pipe("Mul")
		if !ok {
			t.Fatal("Mul was not wrapped")
		}
		result, err := mul.Process(ctx, 4, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != 8 {
			t.Errorf("expected 8, got %v", result)
		}

		precision, ok := ns.Attr("Precision")
		if !ok || precision != 2 {
			t.Errorf("expected plain attribute 2, got %v", precision)
		}
	})

	t.Run("Nested Namespaces Recurse", func(t *testing.T) {
		outer := map[string]any{
			"inner": map[string]any{
				"neg": func(x int) int { return -x },
			},
		}
		ns, err := Pipify(outer)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		inner, ok := ns.Attr("inner")
		if !ok {
			t.Fatal("inner missing")
		}
		neg, ok := inner.(*Namespace).Pipe("neg")
		if !ok {
			t.Fatal("neg was not wrapped")
		}
		result, err := neg.Process(ctx, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != -3 {
			t.Errorf("expected -3, got %v", result)
		}
	})

	t.Run("Zero Depth Disables Recursion", func(t *testing.T) {
		outer := map[string]any{
			"inner": map[string]any{"f": func() {}},
		}
		ns, err := Pipify(outer, MaxDepth(0))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		inner, _ := ns.Attr("inner")
		if _, isNS := inner.(*Namespace); isNS {
			t.Error("depth 0 must not recurse")
		}
	})

	t.Run("Self Reference Terminates And Shares", func(t *testing.T) {
		loop := map[string]any{
			"id": func(x any) any { return x },
		}
		loop["self"] = loop

		ns, err := Pipify(loop)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		self, ok := ns.Attr("self")
		if !ok {
			t.Fatal("self missing")
		}
		if self.(*Namespace) != ns {
			t.Error("self reference must resolve to the same transformed copy")
		}
	})

	t.Run("Mutual References Share One Copy", func(t *testing.T) {
		a := map[string]any{}
		b := map[string]any{"a": a}
		a["b"] = b
		a["f"] = func() {}

		nsA, err := Pipify(a)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		nsB, _ := nsA.Attr("b")
		back, _ := nsB.(*Namespace).Attr("a")
		if back.(*Namespace) != nsA {
			t.Error("cycle through b must come back to the same copy of a")
		}
	})

	t.Run("Rejects Non Namespace", func(t *testing.T) {
		if _, err := Pipify(42); err == nil {
			t.Error("expected an error")
		}
	})
}
