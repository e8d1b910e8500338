package ast

import "github.com/loctree/fluent/srcpos"

// ElementKind discriminates the PatternElement variants.
type ElementKind int

const (
	ElemText ElementKind = iota
	ElemBlock
	ElemPlaceable
)

// PatternElement is one element of a message/term/attribute pattern: a
// literal run of text, a newline-prefixed block wrapping another element,
// or a placeable expression evaluated in place.
type PatternElement struct {
	Kind       ElementKind
	Text       string          // ElemText
	Inner      *PatternElement // ElemBlock
	Expr       Expression      // ElemPlaceable
	TokenRange srcpos.TokenRange
}

func Text(tr srcpos.TokenRange, s string) PatternElement {
	return PatternElement{Kind: ElemText, Text: s, TokenRange: tr}
}

func Block(tr srcpos.TokenRange, inner PatternElement) PatternElement {
	return PatternElement{Kind: ElemBlock, Inner: &inner, TokenRange: tr}
}

func Placeable(tr srcpos.TokenRange, expr Expression) PatternElement {
	return PatternElement{Kind: ElemPlaceable, Expr: expr, TokenRange: tr}
}

func (p PatternElement) Range() srcpos.TokenRange {
	return p.TokenRange
}
