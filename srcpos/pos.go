// SPDX-FileCopyrightText: © 2021 The dyml authors <https://github.com/golangee/dyml/blob/main/AUTHORS>
// SPDX-License-Identifier: Apache-2.0

// Package srcpos carries source-position provenance for every AST node: a
// resolved line/column position, a range between two such positions, and a
// range over token indices that is resolved against a file's token vector
// once the whole token stream is known.
package srcpos

import "strconv"

// Node contains access to the start and end positions of a token or a
// resolved AST range.
type Node interface {
	Begin() Pos
	End() Pos
}

// Pos describes a resolved position within a file.
type Pos struct {
	// File contains the path the lexer was given, not necessarily absolute.
	File string
	// Line is the one-based line number in File.
	Line int
	// Col is the one-based column number in Line.
	Col int
}

// String returns the content in the "file:line:col" format.
func (p Pos) String() string {
	return p.File + ":" + strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Col)
}

type defaultNode struct {
	begin, end Pos
}

func (d defaultNode) Begin() Pos {
	return d.begin
}

func (d defaultNode) End() Pos {
	return d.end
}

// NewNode wraps a begin/end position pair as a Node.
func NewNode(begin, end Pos) Node {
	return defaultNode{begin, end}
}

// Range is a resolved [Begin,End) source range, distinct from a TokenRange:
// it has already been looked up against a token vector.
type Range struct {
	BeginPos Pos
	EndPos   Pos
}

func (r Range) Begin() Pos {
	return r.BeginPos
}

func (r Range) End() Pos {
	return r.EndPos
}

// TokenRange spans a half-open [Start,End) range of indices into a file's
// token vector. Every AST node carries one of these rather than a resolved
// Range, so that resolution only happens on demand (e.g. to render an
// error). Two sentinels never resolve against any token vector: Undefined
// (a node built from an unknown origin) and Synthetic (a node built
// programmatically, not from source).
type TokenRange struct {
	Start int
	End   int
}

var (
	Undefined = TokenRange{Start: -1, End: -1}
	Synthetic = TokenRange{Start: -2, End: -2}
)

func (tr TokenRange) IsUndefined() bool {
	return tr == Undefined
}

func (tr TokenRange) IsSynthetic() bool {
	return tr == Synthetic
}

// Resolve turns tr into a concrete Range by looking up the begin position of
// its first token and the end position of its last token (exclusive).
// Resolving an Undefined or Synthetic range, or an out-of-bounds range,
// returns the zero Range.
func Resolve(tr TokenRange, tokens []Node) Range {
	if tr.IsUndefined() || tr.IsSynthetic() {
		return Range{}
	}

	if tr.Start < 0 || tr.Start >= len(tokens) || tr.End <= tr.Start {
		return Range{}
	}

	endIdx := tr.End - 1
	if endIdx >= len(tokens) {
		endIdx = len(tokens) - 1
	}

	return Range{
		BeginPos: tokens[tr.Start].Begin(),
		EndPos:   tokens[endIdx].End(),
	}
}
