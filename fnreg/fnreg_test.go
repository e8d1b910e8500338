package fnreg

import "testing"

func greetFn() Function {
	return Function{
		Name:       "GREET",
		ReturnType: TypeString,
		Params: []Param{
			{Name: "name", Type: TypeString},
			{Name: "count", Type: TypeNumber},
		},
		Call: func(args map[string]Value) (Value, bool, error) {
			return StringValue(args["name"].Str), true, nil
		},
	}
}

func TestBindAllPositional(t *testing.T) {
	fn := greetFn()

	bound, err := fn.Bind([]Arg{
		{Value: StringValue("Fops")},
		{Value: NumberValue(3)},
	})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	if bound["name"].Str != "Fops" || bound["count"].Num != 3 {
		t.Fatalf("bound = %+v", bound)
	}
}

func TestBindNamedJumpsCursorPastItsParam(t *testing.T) {
	fn := greetFn()

	// "count" (index 1 of 2) bound by name first jumps positionalCursor to
	// 2, one past its own position; the trailing positional argument then
	// has no parameter left at the cursor and must fail, rather than
	// backfilling the still-open "name" slot.
	_, err := fn.Bind([]Arg{
		{Name: "count", Value: NumberValue(7)},
		{Value: StringValue("Wolp")},
	})
	if err == nil {
		t.Fatal("Bind with a trailing positional past a named arg's cursor jump returned no error")
	}
}

func TestBindNamedInMiddleOfPositionalsDivergesFromSkipHeuristic(t *testing.T) {
	fn := Function{
		Name: "TRIPLE",
		Params: []Param{
			{Name: "p0", Type: TypeString},
			{Name: "p1", Type: TypeNumber},
			{Name: "p2", Type: TypeString},
		},
	}

	// (positional x), (named p2=y), (positional z): p0=x at cursor 0,
	// cursor advances to 1; named p2 binds directly and jumps the cursor
	// to 3 (one past p2's index); the trailing positional z then finds no
	// parameter at cursor 3 and must raise UnresolvedFunctionError, even
	// though "p1" is still an open slot a skip-already-claimed scan would
	// have found.
	_, err := fn.Bind([]Arg{
		{Value: StringValue("x")},
		{Name: "p2", Value: StringValue("y")},
		{Value: StringValue("z")},
	})
	if err == nil {
		t.Fatal("Bind with a named arg in the middle of positionals returned no error, want UnresolvedFunctionError")
	}
}

func TestBindNamedFirstStillLetsTrailingPositionalLand(t *testing.T) {
	fn := greetFn()

	// The DEXCL-style ordering: named arg bound first, positional last.
	// "name" is declared at index 0, so the cursor jumps to 1 and the
	// positional lands on "count", the parameter declared right after it.
	bound, err := fn.Bind([]Arg{
		{Name: "name", Value: StringValue("Pure Go Fluent implementation")},
		{Value: NumberValue(42)},
	})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	if bound["name"].Str != "Pure Go Fluent implementation" || bound["count"].Num != 42 {
		t.Fatalf("bound = %+v", bound)
	}
}

func TestBindUnknownNamedParam(t *testing.T) {
	fn := greetFn()

	_, err := fn.Bind([]Arg{{Name: "nope", Value: StringValue("x")}})
	if err == nil {
		t.Fatal("Bind with unknown named parameter returned no error")
	}
}

func TestBindTooManyPositional(t *testing.T) {
	fn := greetFn()

	_, err := fn.Bind([]Arg{
		{Value: StringValue("a")},
		{Value: NumberValue(1)},
		{Value: StringValue("b")},
	})
	if err == nil {
		t.Fatal("Bind with excess positional arguments returned no error")
	}
}

func TestBindTypeMismatch(t *testing.T) {
	fn := greetFn()

	_, err := fn.Bind([]Arg{
		{Value: StringValue("a")},
		{Value: StringValue("not a number")},
	})
	if err == nil {
		t.Fatal("Bind with a type mismatch returned no error")
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewBuilder().Register(greetFn()).Build()

	fn, ok := reg.Lookup("GREET")
	if !ok || fn.Name != "GREET" {
		t.Fatalf("Lookup(GREET) = %+v, %v", fn, ok)
	}

	if _, ok := reg.Lookup("MISSING"); ok {
		t.Fatal("Lookup(MISSING) found a function")
	}

	if got := reg.Names(); len(got) != 1 || got[0] != "GREET" {
		t.Fatalf("Names() = %v", got)
	}
}
