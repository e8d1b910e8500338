// Package lower turns a parser.ParseTree into the two tables a
// LocalizationFile needs: terms and messages. It runs in two passes, per
// §4.4: a term collector harvests every term entry verbatim (term bodies
// are never expanded against each other ahead of time), then a pattern
// builder walks each message and, in expand-terms mode, inlines term
// references by recursive expansion, substituting parametrized arguments
// and detecting cycles against the stack of terms being expanded.
package lower

import (
	"github.com/loctree/fluent/ast"
	"github.com/loctree/fluent/fluenterr"
	"github.com/loctree/fluent/parser"
)

// Tables is the lowered form of a parsed file: messages and terms keyed by
// name, with declaration order kept in MessageOrder and TermOrder.
type Tables struct {
	Messages     map[string]*ast.Entry
	Terms        map[string]*ast.Entry
	MessageOrder []string
	TermOrder    []string
}

// Lower builds Tables from tree. When expandTerms is true, TermReference
// nodes reachable from a message are inlined into CompoundExpressions;
// when false, term references are left as-is and resolved lazily at
// evaluation time against the term table. The term table and TermOrder
// are returned in both modes.
func Lower(tree *parser.ParseTree, expandTerms bool) (*Tables, error) {
	terms, termOrder, err := collectTerms(tree.Entries)
	if err != nil {
		return nil, err
	}

	messages := make(map[string]*ast.Entry)

	var messageOrder []string

	for _, e := range tree.Entries {
		if e.IsTerm() {
			continue
		}

		if _, dup := messages[e.Name]; dup {
			return nil, &fluenterr.BundleError{Message: "duplicate message: " + e.Name}
		}

		built := e
		if expandTerms {
			built, err = buildPattern(e, terms)
			if err != nil {
				return nil, err
			}
		}

		messages[e.Name] = built
		messageOrder = append(messageOrder, e.Name)
	}

	return &Tables{
		Messages:     messages,
		Terms:        terms,
		MessageOrder: messageOrder,
		TermOrder:    termOrder,
	}, nil
}

// collectTerms is pass 1: it harvests every term entry into a table,
// without looking at any other term's body, exactly as written by the
// parser.
func collectTerms(entries []*ast.Entry) (map[string]*ast.Entry, []string, error) {
	terms := make(map[string]*ast.Entry)

	var order []string

	for _, e := range entries {
		if !e.IsTerm() {
			continue
		}

		if _, dup := terms[e.Name]; dup {
			return nil, nil, &fluenterr.BundleError{Message: "duplicate term: -" + e.Name}
		}

		terms[e.Name] = e
		order = append(order, e.Name)
	}

	return terms, order, nil
}

// buildPattern is pass 2 for a single message: it rewrites e's pattern
// elements, expression tree, and attributes, recursively inlining every
// reachable TermReference, substituting named arguments into the term's
// $variable references and detecting cycles against the stack of
// terms/attributes currently on the expansion path. visited starts empty:
// it tracks only terms and attributes entered while expanding, never the
// originating message itself, so a message and a term sharing a bare
// name (§3 allows this) never collide.
func buildPattern(e *ast.Entry, terms map[string]*ast.Entry) (*ast.Entry, error) {
	var visited []string

	elements, err := expandElements(e.Elements, terms, visited, nil)
	if err != nil {
		return nil, err
	}

	attrs := ast.NewAttributeMap()

	for _, name := range e.Attributes.Names() {
		a, _ := e.Attributes.Get(name)

		expanded, err := expandElements(a.Elements, terms, visited, nil)
		if err != nil {
			return nil, err
		}

		attrs.Add(&ast.Attribute{
			EntryName:  a.EntryName,
			Name:       a.Name,
			Elements:   expanded,
			TokenRange: a.TokenRange,
		})
	}

	return ast.NewEntry(e.Kind, e.Name, elements, attrs, e.TokenRange), nil
}

// expandElements rewrites a pattern's elements, substituting vars (a term
// call's bound arguments) for any matching $variable reference, and
// inlining any TermReference found along the way.
func expandElements(elements []ast.PatternElement, terms map[string]*ast.Entry, visited []string, vars map[string]ast.Expression) ([]ast.PatternElement, error) {
	out := make([]ast.PatternElement, len(elements))

	for i, el := range elements {
		expanded, err := expandElement(el, terms, visited, vars)
		if err != nil {
			return nil, err
		}

		out[i] = expanded
	}

	return out, nil
}

func expandElement(el ast.PatternElement, terms map[string]*ast.Entry, visited []string, vars map[string]ast.Expression) (ast.PatternElement, error) {
	switch el.Kind {
	case ast.ElemText:
		return el, nil
	case ast.ElemBlock:
		inner, err := expandElement(*el.Inner, terms, visited, vars)
		if err != nil {
			return ast.PatternElement{}, err
		}

		return ast.Block(el.TokenRange, inner), nil
	case ast.ElemPlaceable:
		expr, err := expandExpr(el.Expr, terms, visited, vars)
		if err != nil {
			return ast.PatternElement{}, err
		}

		return ast.Placeable(el.TokenRange, expr), nil
	default:
		return el, nil
	}
}

// expandExpr rewrites expr, substituting any bound $variable reference
// with its argument expression and inlining any TermReference into a
// CompoundExpression built from the term's (recursively expanded) pattern.
func expandExpr(expr ast.Expression, terms map[string]*ast.Entry, visited []string, vars map[string]ast.Expression) (ast.Expression, error) {
	switch e := expr.(type) {
	case *ast.Reference:
		if e.RefKind == ast.RefVariable {
			if v, ok := vars[e.Name]; ok {
				return v, nil
			}
		}

		return e, nil

	case *ast.FunctionReference:
		args := make([]ast.NamedArg, len(e.Arguments))

		for i, a := range e.Arguments {
			v, err := expandExpr(a.Value, terms, visited, vars)
			if err != nil {
				return nil, err
			}

			args[i] = ast.NamedArg{Name: a.Name, Value: v}
		}

		return ast.NewFunctionReference(e.TokenRange, e.Name, args), nil

	case *ast.SelectExpression:
		selector, err := expandExpr(e.Selector, terms, visited, vars)
		if err != nil {
			return nil, err
		}

		variants := make([]ast.Variant, len(e.Variants))

		for i, v := range e.Variants {
			elements, err := expandElements(v.Elements, terms, visited, vars)
			if err != nil {
				return nil, err
			}

			variants[i] = ast.Variant{Key: v.Key, Elements: elements, IsDefault: v.IsDefault}
		}

		return ast.NewSelectExpression(e.TokenRange, selector, variants), nil

	case *ast.TermReference:
		return inlineTermReference(e, terms, visited, vars)

	default:
		return expr, nil
	}
}

// inlineTermReference resolves a term call against terms, binds its named
// arguments as the new $variable scope, recursively expands the term's
// pattern (or its addressed attribute's pattern) in that scope, and
// returns the result as a CompoundExpression. visited is the LIFO stack of
// terms/attributes currently being expanded, each rendered per §4.4 as
// "-termName" or "-termName.attribName" (never a bare name, so a term
// never collides with a message of the same name); a repeat produces a
// CycleError.
func inlineTermReference(ref *ast.TermReference, terms map[string]*ast.Entry, visited []string, callerVars map[string]ast.Expression) (ast.Expression, error) {
	key := "-" + ref.EntryName
	if ref.AttributeName != "" {
		key += "." + ref.AttributeName
	}

	for _, step := range visited {
		if step == key {
			return nil, &fluenterr.CycleError{Path: append(append([]string{}, visited...), key)}
		}
	}

	term, ok := terms[ref.EntryName]
	if !ok {
		return nil, &fluenterr.UnresolvedReferenceError{Name: "-" + ref.EntryName}
	}

	elements := term.Elements

	if ref.AttributeName != "" {
		attr, ok := term.Attributes.Get(ref.AttributeName)
		if !ok {
			return nil, &fluenterr.UnresolvedReferenceError{Name: "-" + ref.EntryName + "." + ref.AttributeName}
		}

		elements = attr.Elements
	}

	vars := make(map[string]ast.Expression, len(ref.Arguments))

	for _, a := range ref.Arguments {
		v, err := expandExpr(a.Value, terms, visited, callerVars)
		if err != nil {
			return nil, err
		}

		vars[a.Name] = v
	}

	nextVisited := append(append([]string{}, visited...), key)

	expanded, err := expandElements(elements, terms, nextVisited, vars)
	if err != nil {
		return nil, err
	}

	return ast.NewCompoundExpression(ref.TokenRange, expanded), nil
}
