// Package evalctx holds the EvaluationContext a pattern is rendered
// against and the tree-walking Evaluator that renders it, per §4.5: each
// variant of each expression kind has its own evaluation rule, references
// resolve against the context's message/term/variable/function tables,
// and a parent stack guards against cyclic message/attribute references.
package evalctx

import (
	"strings"

	"github.com/loctree/fluent/ast"
	"github.com/loctree/fluent/fluenterr"
	"github.com/loctree/fluent/fnreg"
)

// Frame is one entry of the parent stack: a message/term name, and for an
// attribute reference, the attribute name too.
type Frame struct {
	EntryName string
	Attr      string
}

func (f Frame) key() string {
	if f.Attr == "" {
		return f.EntryName
	}

	return f.EntryName + "." + f.Attr
}

// Context is an immutable snapshot an Evaluator renders patterns against:
// the message/term tables of a LocalizationFile, a function registry, and
// a set of bound variables. OverlayVariables and OverlayFunctions return a
// new Context with additional
// variables/functions layered non-destructively on top — the receiver is
// never mutated, so a caller holding it can keep reusing it concurrently.
type Context struct {
	Messages  map[string]*ast.Entry
	Terms     map[string]*ast.Entry
	Functions *fnreg.Registry
	Variables map[string]fnreg.Value
	stack     []Frame
}

// New builds a root Context with an empty parent stack.
func New(messages, terms map[string]*ast.Entry, functions *fnreg.Registry, variables map[string]fnreg.Value) *Context {
	return &Context{Messages: messages, Terms: terms, Functions: functions, Variables: variables}
}

// OverlayVariables returns a Context identical to c but with vars layered
// on top of (and taking precedence over) c.Variables.
func (c *Context) OverlayVariables(vars map[string]fnreg.Value) *Context {
	merged := make(map[string]fnreg.Value, len(c.Variables)+len(vars))

	for k, v := range c.Variables {
		merged[k] = v
	}

	for k, v := range vars {
		merged[k] = v
	}

	cp := *c
	cp.Variables = merged

	return &cp
}

// OverlayFunctions returns a Context identical to c but with fns'
// functions additionally available, taking precedence over c.Functions on
// a name collision.
func (c *Context) OverlayFunctions(fns *fnreg.Registry) *Context {
	if fns == nil {
		return c
	}

	b := fnreg.NewBuilder()

	for _, name := range c.Functions.Names() {
		f, _ := c.Functions.Lookup(name)
		b.Register(*f)
	}

	for _, name := range fns.Names() {
		f, _ := fns.Lookup(name)
		b.Register(*f)
	}

	cp := *c
	cp.Functions = b.Build()

	return &cp
}

// Push returns a Context with f pushed onto the parent stack, or a
// CycleError if f is already present. Exported so a façade can seed the
// stack with the entry point itself before formatting, matching §4.5's
// "each Message/Term/Attribute pushes itself before evaluating" rule even
// for the top-level call.
func (c *Context) Push(f Frame) (*Context, error) {
	return c.pushed(f)
}

func (c *Context) pushed(f Frame) (*Context, error) {
	for _, existing := range c.stack {
		if existing.key() == f.key() {
			path := make([]string, 0, len(c.stack)+1)
			for _, fr := range c.stack {
				path = append(path, fr.key())
			}

			path = append(path, f.key())

			return nil, &fluenterr.CycleError{Path: path}
		}
	}

	cp := *c
	cp.stack = append(append([]Frame{}, c.stack...), f)

	return &cp, nil
}

// Evaluator renders patterns and expressions against a Context.
type Evaluator struct{}

func NewEvaluator() *Evaluator { return &Evaluator{} }

// FormatPattern renders elements to their concatenated string form.
func (ev *Evaluator) FormatPattern(c *Context, elements []ast.PatternElement) (string, error) {
	var sb strings.Builder

	for _, el := range elements {
		s, err := ev.formatElement(c, el)
		if err != nil {
			return "", err
		}

		sb.WriteString(s)
	}

	return sb.String(), nil
}

func (ev *Evaluator) formatElement(c *Context, el ast.PatternElement) (string, error) {
	switch el.Kind {
	case ast.ElemText:
		return el.Text, nil
	case ast.ElemBlock:
		inner, err := ev.formatElement(c, *el.Inner)
		if err != nil {
			return "", err
		}

		return "\n" + inner, nil
	case ast.ElemPlaceable:
		return ev.EvaluateExpression(c, el.Expr)
	default:
		return "", &fluenterr.InternalError{Message: "unknown pattern element kind"}
	}
}

// EvaluateExpression evaluates expr to its STRING value per §4.5's
// per-kind rules.
func (ev *Evaluator) EvaluateExpression(c *Context, expr ast.Expression) (string, error) {
	switch e := expr.(type) {
	case *ast.StringLiteral:
		return e.Value, nil

	case *ast.NumberLiteral:
		return e.Format(), nil

	case *ast.Reference:
		return ev.evaluateReference(c, e)

	case *ast.TermReference:
		return ev.evaluateTermReference(c, e)

	case *ast.FunctionReference:
		return ev.evaluateFunctionReference(c, e)

	case *ast.SelectExpression:
		return ev.evaluateSelect(c, e)

	case *ast.CompoundExpression:
		return ev.FormatPattern(c, e.Elements)

	default:
		return "", &fluenterr.InternalError{Message: "unknown expression kind"}
	}
}

func (ev *Evaluator) evaluateReference(c *Context, ref *ast.Reference) (string, error) {
	switch ref.RefKind {
	case ast.RefVariable:
		v, ok := c.Variables[ref.Name]
		if !ok {
			// §4.5: an unbound variable does not fail evaluation.
			return "<missing:" + ref.Name + ">", nil
		}

		return formatValue(v), nil

	case ast.RefMessage:
		entry, ok := c.Messages[ref.Name]
		if !ok {
			return "", &fluenterr.UnresolvedReferenceError{Name: ref.Name}
		}

		next, err := c.pushed(Frame{EntryName: ref.Name})
		if err != nil {
			return "", err
		}

		return ev.FormatPattern(next, entry.Elements)

	case ast.RefAttribute:
		entry, ok := c.Messages[ref.Name]
		if !ok {
			return "", &fluenterr.UnresolvedReferenceError{Name: ref.Name + "." + ref.AttributeName}
		}

		attr, ok := entry.Attributes.Get(ref.AttributeName)
		if !ok {
			return "", &fluenterr.UnresolvedReferenceError{Name: ref.Name + "." + ref.AttributeName}
		}

		next, err := c.pushed(Frame{EntryName: ref.Name, Attr: ref.AttributeName})
		if err != nil {
			return "", err
		}

		return ev.FormatPattern(next, attr.Elements)

	default:
		return "", &fluenterr.InternalError{Message: "unknown reference kind"}
	}
}

// evaluateTermReference only fires when the file was loaded in
// expand-terms-disabled mode (inlining already erases TermReference
// otherwise): it resolves the term lazily, against c.Terms, the same way
// lower.inlineTermReference does ahead of time.
func (ev *Evaluator) evaluateTermReference(c *Context, ref *ast.TermReference) (string, error) {
	term, ok := c.Terms[ref.EntryName]
	if !ok {
		return "", &fluenterr.UnresolvedReferenceError{Name: "-" + ref.EntryName}
	}

	elements := term.Elements

	if ref.AttributeName != "" {
		attr, ok := term.Attributes.Get(ref.AttributeName)
		if !ok {
			return "", &fluenterr.UnresolvedReferenceError{Name: "-" + ref.EntryName + "." + ref.AttributeName}
		}

		elements = attr.Elements
	}

	vars := make(map[string]fnreg.Value, len(ref.Arguments))

	for _, a := range ref.Arguments {
		s, err := ev.EvaluateExpression(c, a.Value)
		if err != nil {
			return "", err
		}

		vars[a.Name] = fnreg.StringValue(s)
	}

	next, err := c.pushed(Frame{EntryName: "-" + ref.EntryName, Attr: ref.AttributeName})
	if err != nil {
		return "", err
	}

	next = next.OverlayVariables(vars)

	return ev.FormatPattern(next, elements)
}

func (ev *Evaluator) evaluateFunctionReference(c *Context, ref *ast.FunctionReference) (string, error) {
	fn, ok := c.Functions.Lookup(ref.Name)
	if !ok {
		return "", &fluenterr.UnresolvedFunctionError{Message: "unknown function \"" + ref.Name + "\""}
	}

	args := make([]fnreg.Arg, len(ref.Arguments))

	for i, a := range ref.Arguments {
		v, err := ev.evaluateTyped(c, a.Value)
		if err != nil {
			return "", err
		}

		args[i] = fnreg.Arg{Name: a.Name, Value: v}
	}

	bound, err := fn.Bind(args)
	if err != nil {
		return "", err
	}

	result, ok, err := fn.Call(bound)
	if err != nil {
		return "", err
	}

	if !ok {
		return "<missing:" + ref.Name + "()>", nil
	}

	return formatValue(result), nil
}

// evaluateTyped evaluates expr to a typed fnreg.Value: numbers stay
// numbers (so a function parameter declared NUMBER can match), everything
// else evaluates to its STRING form.
func (ev *Evaluator) evaluateTyped(c *Context, expr ast.Expression) (fnreg.Value, error) {
	if n, ok := expr.(*ast.NumberLiteral); ok {
		if n.IsFloat {
			return fnreg.NumberValue(n.FltValue), nil
		}

		return fnreg.NumberValue(float64(n.IntValue)), nil
	}

	s, err := ev.EvaluateExpression(c, expr)
	if err != nil {
		return fnreg.Value{}, err
	}

	return fnreg.StringValue(s), nil
}

func (ev *Evaluator) evaluateSelect(c *Context, sel *ast.SelectExpression) (string, error) {
	selector, err := ev.EvaluateExpression(c, sel.Selector)
	if err != nil {
		return "", err
	}

	for _, v := range sel.Variants {
		if v.IsDefault {
			continue
		}

		key, err := ev.EvaluateExpression(c, v.Key)
		if err != nil {
			return "", err
		}

		if key == selector {
			return ev.FormatPattern(c, v.Elements)
		}
	}

	def, ok := sel.DefaultVariant()
	if !ok {
		return "", &fluenterr.InternalError{Message: "select expression has no default variant"}
	}

	return ev.FormatPattern(c, def.Elements)
}

func formatValue(v fnreg.Value) string {
	if v.Type == fnreg.TypeNumber {
		n := ast.NumberLiteral{}
		if v.Num == float64(int64(v.Num)) {
			n.IntValue = int64(v.Num)
		} else {
			n.IsFloat = true
			n.FltValue = v.Num
		}

		return n.Format()
	}

	return v.Str
}
