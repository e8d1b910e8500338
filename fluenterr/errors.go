// Package fluenterr collects the error kinds the library surfaces, per the
// kinds enumerated in the parser/evaluator design: ParserError (lexer or
// parser rejected input), UnresolvedReference, UnresolvedFunction,
// TypeMismatch, CycleError, BundleError and InternalError.
//
// ParserError follows the positional-error shape used throughout the
// teacher repo (github.com/golangee/tadl, token.PosError): a node, a
// message, an optional wrapped cause, and an Explain() pretty-printer that
// renders a source-line-and-caret view.
package fluenterr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/loctree/fluent/srcpos"
)

// ErrDetail is one entry of a ParserError's explanation chain.
type ErrDetail struct {
	Node    srcpos.Node
	Message string
}

// ParserError represents a lexer or parser rejection, anchored to a
// position in the source.
type ParserError struct {
	Details []ErrDetail
	Cause   error
	Hint    string
	Source  string // the file's full text, used only by Explain
}

// NewParserError creates a ParserError rooted at node with the given
// message.
func NewParserError(node srcpos.Node, msg string) *ParserError {
	return &ParserError{
		Details: []ErrDetail{{Node: node, Message: msg}},
	}
}

func (p *ParserError) WithDetail(node srcpos.Node, msg string) *ParserError {
	p.Details = append(p.Details, ErrDetail{Node: node, Message: msg})
	return p
}

func (p *ParserError) WithCause(err error) *ParserError {
	p.Cause = err
	return p
}

func (p *ParserError) WithHint(hint string) *ParserError {
	p.Hint = hint
	return p
}

func (p *ParserError) WithSource(src string) *ParserError {
	p.Source = src
	return p
}

func (p *ParserError) Unwrap() error {
	return p.Cause
}

func (p *ParserError) firstDetail() ErrDetail {
	if len(p.Details) > 0 {
		return p.Details[0]
	}

	return ErrDetail{}
}

func (p *ParserError) Error() string {
	if p.Cause == nil {
		return p.firstDetail().Message
	}

	return p.firstDetail().Message + ": " + p.Cause.Error()
}

func posLine(lines []string, pos srcpos.Pos) string {
	no := pos.Line - 1
	if no < 0 || no >= len(lines) {
		return ""
	}

	return lines[no]
}

// Explain renders a multi-line, source-line-and-caret view of the error,
// suitable for printing to a console.
func (p *ParserError) Explain() string {
	indent := 0

	for _, d := range p.Details {
		if l := len(strconv.Itoa(d.Node.Begin().Line)); l > indent {
			indent = l
		}
	}

	lines := strings.Split(p.Source, "\n")
	sb := &strings.Builder{}

	for i, d := range p.Details {
		if i == 0 || d.Node.Begin().File != p.Details[i-1].Node.Begin().File {
			sb.WriteString(d.Node.Begin().String())
			sb.WriteString("\n")
		}

		line := posLine(lines, d.Node.Begin())

		fmt.Fprintf(sb, "%"+strconv.Itoa(indent)+"s |\n", "")
		fmt.Fprintf(sb, "%"+strconv.Itoa(indent)+"d |%s\n", d.Node.Begin().Line, line)
		fmt.Fprintf(sb, "%"+strconv.Itoa(indent)+"s |", "")

		width := d.Node.End().Col - d.Node.Begin().Col
		if width <= 1 {
			width = 1
		}

		fmt.Fprintf(sb, "%"+strconv.Itoa(d.Node.Begin().Col-1)+"s", "")
		sb.WriteString(strings.Repeat("^", width))
		sb.WriteString(" ")
		sb.WriteString(d.Message)
		sb.WriteString("\n")

		if i < len(p.Details)-1 {
			sb.WriteString(strings.Repeat(" ", indent))
			sb.WriteString("...\n")
		}
	}

	if p.Hint != "" {
		fmt.Fprintf(sb, "%"+strconv.Itoa(indent)+"s = hint: %s\n", "", p.Hint)
	}

	return sb.String()
}

// Explain renders err with ParserError.Explain if it wraps one, else falls
// back to err.Error().
func Explain(err error) string {
	var perr *ParserError
	if errors.As(err, &perr) {
		return "error: " + err.Error() + "\n" + perr.Explain()
	}

	return err.Error()
}

// UnresolvedReferenceError is raised when a message/attribute/term lookup
// fails at evaluation time.
type UnresolvedReferenceError struct {
	Name string
	Node srcpos.Node
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference: %s", e.Name)
}

// UnresolvedFunctionError is raised when a function name is unknown, or a
// named argument doesn't match a declared parameter, or a positional
// argument index is out of range.
type UnresolvedFunctionError struct {
	Message string
	Node    srcpos.Node
}

func (e *UnresolvedFunctionError) Error() string {
	return e.Message
}

// TypeMismatchError is raised when a function argument's static type
// disagrees with the declared parameter type.
type TypeMismatchError struct {
	Param    string
	Expected string
	Actual   string
	Node     srcpos.Node
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch for parameter %q: expected %s, got %s", e.Param, e.Expected, e.Actual)
}

// CycleError is raised when a named element appears twice on the parent
// stack. Path is the rendered cycle, e.g. "a -> b -> a".
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "cyclic reference detected: " + strings.Join(e.Path, " -> ")
}

// BundleError is raised on a manifest version mismatch or a failed locale
// resolution.
type BundleError struct {
	Message string
}

func (e *BundleError) Error() string {
	return e.Message
}

// InternalError marks a programming error: evaluating a Term directly, or
// asking an unlowered TermReference for its type.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Message
}
