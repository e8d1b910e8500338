// Package ast defines the Fluent abstract syntax: a tagged-variant
// Expression model (design note: "model as a tagged variant with
// exhaustive match at evaluation; no virtual dispatch required"), the
// Pattern element variants that make up a message or term body, and the
// Message/Term/Attribute entry types.
package ast

import (
	"strconv"
	"strings"

	"github.com/loctree/fluent/srcpos"
)

// Kind discriminates the Expression variants.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindReference
	KindTermReference
	KindFunctionReference
	KindSelect
	KindCompound
)

// Expression is the tagged variant every expression node implements.
// Evaluation dispatches on Kind() with an exhaustive type switch rather
// than virtual methods on each variant.
type Expression interface {
	Kind() Kind
	Range() srcpos.TokenRange
}

type base struct {
	TokenRange srcpos.TokenRange
}

func (b base) Range() srcpos.TokenRange {
	return b.TokenRange
}

// StringLiteral is a literal string expression; its static type is STRING.
type StringLiteral struct {
	base
	Value string
}

func NewStringLiteral(tr srcpos.TokenRange, value string) *StringLiteral {
	return &StringLiteral{base: base{tr}, Value: value}
}

func (*StringLiteral) Kind() Kind { return KindString }

// NumberLiteral is a literal number; its static type is NUMBER. Raw is the
// exact source text. IsFloat is true iff Raw contained a '.'; numbers
// without a dot are parsed as integers, per the invariant in §3.
type NumberLiteral struct {
	base
	Raw      string
	IsFloat  bool
	IntValue int64
	FltValue float64
}

// NewNumberLiteral parses raw (already validated by the lexer/parser to
// match [0-9]+(\.[0-9]+)?) into a NumberLiteral.
func NewNumberLiteral(tr srcpos.TokenRange, raw string) (*NumberLiteral, error) {
	n := &NumberLiteral{base: base{tr}, Raw: raw}

	if strings.Contains(raw, ".") {
		n.IsFloat = true

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, err
		}

		n.FltValue = v

		return n, nil
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}

	n.IntValue = v

	return n, nil
}

func (*NumberLiteral) Kind() Kind { return KindNumber }

// Format renders the number's canonical decimal form: a plain integer
// decimal, or a double's default decimal form.
func (n *NumberLiteral) Format() string {
	if n.IsFloat {
		return strconv.FormatFloat(n.FltValue, 'g', -1, 64)
	}

	return strconv.FormatInt(n.IntValue, 10)
}

// ReferenceKind discriminates what a Reference names.
type ReferenceKind int

const (
	RefMessage ReferenceKind = iota
	RefAttribute
	RefVariable
)

// Reference names a message, a message attribute, or a variable. Its
// static type is always STRING.
type Reference struct {
	base
	RefKind       ReferenceKind
	Name          string
	AttributeName string
}

func NewReference(tr srcpos.TokenRange, kind ReferenceKind, name, attr string) *Reference {
	return &Reference{base: base{tr}, RefKind: kind, Name: name, AttributeName: attr}
}

func (*Reference) Kind() Kind { return KindReference }

// NamedArg is one argument of a term call: Name is empty for a positional
// argument (never produced by the parser for TermReference, which only
// accepts named arguments, but shared with FunctionReference which allows
// both).
type NamedArg struct {
	Name  string
	Value Expression
}

// TermReference calls a term, optionally addressing one of its
// attributes, with an ordered map of named arguments. Its static type is
// always STRING; it is resolved via the term table.
type TermReference struct {
	base
	EntryName     string
	AttributeName string
	Arguments     []NamedArg // always named; order is source order
}

func NewTermReference(tr srcpos.TokenRange, entry, attr string, args []NamedArg) *TermReference {
	return &TermReference{base: base{tr}, EntryName: entry, AttributeName: attr, Arguments: args}
}

func (*TermReference) Kind() Kind { return KindTermReference }

// Arg looks up a named argument, preserving the "first match wins" rule a
// well-formed call never needs (argument names are unique per call).
func (t *TermReference) Arg(name string) (Expression, bool) {
	for _, a := range t.Arguments {
		if a.Name == name {
			return a.Value, true
		}
	}

	return nil, false
}

// FunctionReference calls a registered function with an ordered list of
// (optional name, expression) arguments. Its static type is dictated by
// the function's declared return type, resolved at evaluation time
// against the function registry — not stored here.
type FunctionReference struct {
	base
	Name      string
	Arguments []NamedArg // Name == "" marks a positional argument
}

func NewFunctionReference(tr srcpos.TokenRange, name string, args []NamedArg) *FunctionReference {
	return &FunctionReference{base: base{tr}, Name: name, Arguments: args}
}

func (*FunctionReference) Kind() Kind { return KindFunctionReference }

// Variant is one arm of a SelectExpression.
type Variant struct {
	Key       Expression
	Elements  []PatternElement
	IsDefault bool
}

// SelectExpression evaluates Selector to a string and picks the first
// Variant whose Key evaluates to the same string, falling back to the
// (exactly one) default variant. Its static type is always STRING.
type SelectExpression struct {
	base
	Selector Expression
	Variants []Variant // insertion order is semantically significant
}

func NewSelectExpression(tr srcpos.TokenRange, selector Expression, variants []Variant) *SelectExpression {
	return &SelectExpression{base: base{tr}, Selector: selector, Variants: variants}
}

func (*SelectExpression) Kind() Kind { return KindSelect }

// DefaultVariant returns the one variant with IsDefault set, and whether
// it exists (a well-formed SelectExpression always has exactly one).
func (s *SelectExpression) DefaultVariant() (Variant, bool) {
	for _, v := range s.Variants {
		if v.IsDefault {
			return v, true
		}
	}

	return Variant{}, false
}

// CompoundExpression concatenates its elements. It is produced only by
// term inlining (§4.4), never directly by the parser. Its static type is
// always STRING.
type CompoundExpression struct {
	base
	Elements []PatternElement
}

func NewCompoundExpression(tr srcpos.TokenRange, elements []PatternElement) *CompoundExpression {
	return &CompoundExpression{base: base{tr}, Elements: elements}
}

func (*CompoundExpression) Kind() Kind { return KindCompound }
