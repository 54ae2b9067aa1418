package event

import (
	"errors"
	"reflect"
	"testing"
)

func record(log *[]string, name string) Callback {
	return func(args ...any) (any, error) {
		*log = append(*log, name)
		return nil, nil
	}
}

func TestBus_PriorityOrder(t *testing.T) {
	b := New()
	var calls []string

	b.AddAction("init", record(&calls, "late"), 20, 1)
	b.AddAction("init", record(&calls, "first"), 10, 1)
	b.AddAction("init", record(&calls, "second"), 10, 1)
	b.AddAction("init", record(&calls, "early"), 0, 1)

	if err := b.DoAction("init"); err != nil {
		t.Fatalf("DoAction() failed: %v", err)
	}

	want := []string{"early", "first", "second", "late"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("call order = %v, want %v", calls, want)
	}
	if got := b.DidAction("init"); got != 1 {
		t.Errorf("DidAction() = %d, want 1", got)
	}
}

func TestBus_AcceptedArgs(t *testing.T) {
	b := New()
	var seen []int

	b.AddAction("save_post", func(args ...any) (any, error) {
		seen = append(seen, len(args))
		return nil, nil
	}, 10, 1)
	b.AddAction("save_post", func(args ...any) (any, error) {
		seen = append(seen, len(args))
		return nil, nil
	}, 10, 3)

	_ = b.DoAction("save_post", 1, "post", true)

	if !reflect.DeepEqual(seen, []int{1, 3}) {
		t.Errorf("argument counts = %v, want [1 3]", seen)
	}
}

func TestBus_ApplyFilters(t *testing.T) {
	b := New()

	b.AddFilter("title", MustAdapt(func(s string) string { return s + "!" }), 10, 1)
	b.AddFilter("title", MustAdapt(func(s, suffix string) string { return s + suffix }), 5, 2)

	got, err := b.ApplyFilters("title", "hello", "?")
	if err != nil {
		t.Fatalf("ApplyFilters() failed: %v", err)
	}
	if got != "hello?!" {
		t.Errorf("ApplyFilters() = %v, want hello?!", got)
	}

	untouched, _ := b.ApplyFilters("missing", 42)
	if untouched != 42 {
		t.Errorf("ApplyFilters() without subscribers = %v, want 42", untouched)
	}
}

func TestBus_StopsAtFirstError(t *testing.T) {
	b := New()
	boom := errors.New("boom")
	var calls []string

	b.AddAction("x", func(...any) (any, error) { return nil, boom }, 1, 0)
	b.AddAction("x", record(&calls, "after"), 2, 0)

	err := b.DoAction("x")
	if !errors.Is(err, boom) {
		t.Fatalf("DoAction() error = %v, want boom", err)
	}
	if len(calls) != 0 {
		t.Errorf("subscriber after failure was called")
	}
}

func TestBus_Remove(t *testing.T) {
	b := New()

	id := b.AddAction("tick", record(new([]string), "a"), 10, 1)
	b.AddFilter("tick", record(new([]string), "b"), 10, 1)

	if !b.Has(id) || !b.HasAction("tick") || !b.HasFilter("tick") {
		t.Fatal("expected subscriptions to be present")
	}
	if !b.Remove(id) {
		t.Fatal("Remove() = false")
	}
	if b.Remove(id) {
		t.Error("second Remove() = true")
	}
	if got := len(b.Subscriptions("tick")); got != 1 {
		t.Errorf("Subscriptions() len = %d, want 1", got)
	}
	if n := b.RemoveAll("tick"); n != 1 {
		t.Errorf("RemoveAll() = %d, want 1", n)
	}
	if b.HasAction("tick") {
		t.Error("expected tag to be empty")
	}
}

func TestBus_Commands(t *testing.T) {
	b := New()

	b.AddCommand("greet", MustAdapt(func(attrs map[string]string, content string) string {
		return "hello " + attrs["name"] + content
	}))

	out, err := b.DoCommand("greet", map[string]string{"name": "axis"}, "!")
	if err != nil {
		t.Fatalf("DoCommand() failed: %v", err)
	}
	if out != "hello axis!" {
		t.Errorf("DoCommand() = %q", out)
	}

	if _, err := b.DoCommand("missing", nil, ""); err == nil {
		t.Error("expected error for unknown command")
	}
	if !b.RemoveCommand("greet") || b.HasCommand("greet") {
		t.Error("RemoveCommand() did not remove the command")
	}
}

func TestBus_SubscribeDuringDispatch(t *testing.T) {
	b := New()
	var calls []string

	b.AddAction("boot", func(...any) (any, error) {
		b.AddAction("boot", record(&calls, "late"), 99, 0)
		return nil, nil
	}, 1, 0)

	if err := b.DoAction("boot"); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 0 {
		t.Error("subscriber added during dispatch ran in the same dispatch")
	}
	if b.Count() != 2 {
		t.Errorf("Count() = %d, want 2", b.Count())
	}
}
