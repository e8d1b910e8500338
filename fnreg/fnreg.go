// Package fnreg is the function registry Fluent FUNCTION() calls resolve
// against: each function declares a name, a return type, and an ordered
// parameter list, and argument binding follows §4.6's matching rules — a
// single source-order pass over call arguments with one positional
// cursor; a named argument binds directly by name and then jumps the
// cursor to one past its parameter's position, so a positional argument
// following it resumes from there rather than backfilling an earlier,
// still-open slot.
package fnreg

import (
	"fmt"

	"github.com/loctree/fluent/fluenterr"
)

// Type is a function parameter or return type.
type Type int

const (
	TypeString Type = iota
	TypeNumber
)

func (t Type) String() string {
	if t == TypeNumber {
		return "NUMBER"
	}

	return "STRING"
}

// Param is one declared parameter of a registered function.
type Param struct {
	Name string
	Type Type
}

// Value is an already-evaluated argument: exactly one of Str/Num is valid,
// selected by Type.
type Value struct {
	Type Type
	Str  string
	Num  float64
}

func StringValue(s string) Value { return Value{Type: TypeString, Str: s} }
func NumberValue(n float64) Value { return Value{Type: TypeNumber, Num: n} }

// Func is a registered function's implementation, called with arguments
// already bound to declared parameter names (args[p.Name] for each
// declared Param the call supplied; a parameter the call left out is
// absent from args). ok is false when the callback has no result to offer
// for these arguments (distinct from an error): the caller renders
// "<missing:name()>" in that case rather than failing evaluation.
type Func func(args map[string]Value) (result Value, ok bool, err error)

// Function is one entry of the Registry.
type Function struct {
	Name       string
	ReturnType Type
	Params     []Param
	Call       Func
}

func (f *Function) param(name string) (Param, bool) {
	for _, p := range f.Params {
		if p.Name == name {
			return p, true
		}
	}

	return Param{}, false
}

func (f *Function) paramAt(i int) (Param, bool) {
	if i < 0 || i >= len(f.Params) {
		return Param{}, false
	}

	return f.Params[i], true
}

// Registry is an ordered, named set of Functions.
type Registry struct {
	byName map[string]*Function
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Function)}
}

// Builder accumulates Functions before freezing them into a Registry.
type Builder struct {
	reg *Registry
}

func NewBuilder() *Builder {
	return &Builder{reg: NewRegistry()}
}

// Register adds fn, returning the Builder for chaining.
func (b *Builder) Register(fn Function) *Builder {
	if _, exists := b.reg.byName[fn.Name]; !exists {
		b.reg.order = append(b.reg.order, fn.Name)
	}

	f := fn
	b.reg.byName[fn.Name] = &f

	return b
}

func (b *Builder) Build() *Registry {
	return b.reg
}

func (r *Registry) Lookup(name string) (*Function, bool) {
	f, ok := r.byName[name]
	return f, ok
}

func (r *Registry) Names() []string {
	return r.order
}

// Arg is one already-evaluated call-site argument: Name is empty for a
// positional argument.
type Arg struct {
	Name  string
	Value Value
}

// Bind matches call-site args against fn's declared parameters per §4.6: a
// single pass over args in source order, carrying one positionalCursor. A
// named argument binds directly by name and advances the cursor to one
// past its parameter's declared position — so a later positional argument
// resumes after it, "jumping" over whatever the named argument claimed. A
// positional argument binds to the parameter currently at the cursor and
// advances it by one. Either kind is a TypeMismatchError if its value's
// type disagrees with the declared parameter type; a named argument
// naming no declared parameter, or a positional argument whose cursor is
// out of range, is an UnresolvedFunctionError.
func (fn *Function) Bind(args []Arg) (map[string]Value, error) {
	bound := make(map[string]Value, len(fn.Params))
	cursor := 0

	for _, a := range args {
		var p Param

		if a.Name != "" {
			found, ok := fn.param(a.Name)
			if !ok {
				return nil, &fluenterr.UnresolvedFunctionError{
					Message: "function \"" + fn.Name + "\" has no parameter named \"" + a.Name + "\"",
				}
			}

			p = found

			for i, decl := range fn.Params {
				if decl.Name == p.Name {
					cursor = i + 1
					break
				}
			}
		} else {
			found, ok := fn.paramAt(cursor)
			if !ok {
				return nil, &fluenterr.UnresolvedFunctionError{
					Message: fmt.Sprintf("function \"%s\" could not match parameter %d", fn.Name, cursor),
				}
			}

			p = found
			cursor++
		}

		if a.Value.Type != p.Type {
			return nil, &fluenterr.TypeMismatchError{Param: p.Name, Expected: p.Type.String(), Actual: a.Value.Type.String()}
		}

		bound[p.Name] = a.Value
	}

	return bound, nil
}
