// Package parser implements a recursive-descent parser over the lexer's
// token stream, producing a flat parse tree of raw entries (messages and
// terms, in declaration order, with term references left unexpanded). It
// also assembles each pattern, trimming line-start indentation and
// wrapping continuation lines in Blocks; term inlining is the lower
// package's job.
package parser

import (
	"errors"
	"io"
	"strings"

	"github.com/loctree/fluent/ast"
	"github.com/loctree/fluent/fluenterr"
	"github.com/loctree/fluent/lexer"
	"github.com/loctree/fluent/srcpos"
)

// ParseTree is a file's raw entries plus the full token vector they were
// built from, so later stages can resolve a srcpos.TokenRange back to a
// srcpos.Range for diagnostics.
type ParseTree struct {
	Entries []*ast.Entry
	Tokens  []lexer.Token
}

// Parser wraps a lexer.Lexer with a buffered lookahead (peek, peekAt) and accumulates
// every token it has produced, so TokenRanges recorded during parsing can
// be resolved against the full vector later.
type Parser struct {
	lex      *lexer.Lexer
	filename string
	source   string

	tokens  []lexer.Token
	pending []lexer.Token
	atEOF   bool
}

// New creates a Parser over source, tagged with filename for diagnostics.
func New(filename, source string) *Parser {
	return &Parser{
		lex:      lexer.NewLexer(filename, strings.NewReader(source)),
		filename: filename,
		source:   source,
	}
}

// Parse lexes and parses source (tagged filename) into a ParseTree.
func Parse(filename, source string) (*ParseTree, error) {
	return New(filename, source).ParseFile()
}

func (p *Parser) withSource(err error) error {
	var perr *fluenterr.ParserError
	if errors.As(err, &perr) {
		perr.WithSource(p.source)
	}

	return err
}

// fill ensures at least n+1 tokens are buffered in p.pending, short of EOF.
func (p *Parser) fill(n int) error {
	for len(p.pending) <= n {
		if p.atEOF {
			return io.EOF
		}

		t, err := p.lex.Next()
		if err != nil {
			p.atEOF = true
			return p.withSource(err)
		}

		p.tokens = append(p.tokens, t)
		p.pending = append(p.pending, t)
	}

	return nil
}

// peek returns the next token without consuming it.
func (p *Parser) peek() (lexer.Token, error) {
	if err := p.fill(0); err != nil {
		return lexer.Token{}, err
	}

	return p.pending[0], nil
}

// peekAt returns the token n positions ahead (0 == peek()) without
// consuming anything.
func (p *Parser) peekAt(n int) (lexer.Token, error) {
	if err := p.fill(n); err != nil {
		return lexer.Token{}, err
	}

	return p.pending[n], nil
}

// next consumes and returns the next token.
func (p *Parser) next() (lexer.Token, error) {
	t, err := p.peek()
	if err != nil {
		return t, err
	}

	p.pending = p.pending[1:]

	return t, nil
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	t, err := p.next()
	if err != nil {
		return lexer.Token{}, err
	}

	if t.Type != tt {
		return lexer.Token{}, p.errorAt(t, "expected "+string(tt)+", got "+string(t.Type))
	}

	return t, nil
}

func (p *Parser) errorAt(t lexer.Token, msg string) error {
	return p.withSource(fluenterr.NewParserError(srcpos.NewNode(t.Begin(), t.End()), msg))
}

// index returns the position, within p.tokens, of the next token to be
// consumed (i.e. pending[0] once filled).
func (p *Parser) index() int {
	return len(p.tokens) - len(p.pending)
}

// markStart forces the current token to be peeked (so it is present in
// p.tokens) and returns its index.
func (p *Parser) markStart() (int, error) {
	if _, err := p.peek(); err != nil {
		return p.index(), err
	}

	return p.index(), nil
}

func (p *Parser) markEnd() int {
	return p.index()
}

// ParseFile consumes the entire token stream, returning the accumulated
// entries (messages and terms, comments discarded) in declaration order.
func (p *Parser) ParseFile() (*ParseTree, error) {
	var entries []*ast.Entry

	for {
		t, err := p.peek()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		if t.Type == lexer.COMMENT {
			p.next()
			continue
		}

		entry, err := p.parseEntry()
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return &ParseTree{Entries: entries, Tokens: p.tokens}, nil
}

// parseEntry parses one message or term: an optional leading '-' marks a
// term, then an identifier, an optional "= pattern" (relaxation: a
// declaration-only entry may omit it, per §4.2), then zero or more
// ".name = pattern" attributes.
func (p *Parser) parseEntry() (*ast.Entry, error) {
	start, err := p.markStart()
	if err != nil {
		return nil, err
	}

	kind := ast.EntryMessage

	t, err := p.peek()
	if err != nil {
		return nil, err
	}

	if t.Type == lexer.MINUS {
		p.next()
		kind = ast.EntryTerm
	}

	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}

	var elements []ast.PatternElement

	t, err = p.peek()
	if err == nil && t.Type == lexer.EQ {
		p.next()

		elements, err = p.parsePattern()
		if err != nil {
			return nil, err
		}
	} else if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	attrs := ast.NewAttributeMap()

	for {
		t, err = p.peek()
		if err != nil {
			break
		}

		if t.Type != lexer.DOT {
			break
		}

		attr, err := p.parseAttribute(nameTok.Value)
		if err != nil {
			return nil, err
		}

		attrs.Add(attr)
	}

	end := p.markEnd()

	return ast.NewEntry(kind, nameTok.Value, elements, attrs, srcpos.TokenRange{Start: start, End: end}), nil
}

func (p *Parser) parseAttribute(entryName string) (*ast.Attribute, error) {
	start, err := p.markStart()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.DOT); err != nil {
		return nil, err
	}

	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.EQ); err != nil {
		return nil, err
	}

	elements, err := p.parsePattern()
	if err != nil {
		return nil, err
	}

	end := p.markEnd()

	return &ast.Attribute{
		EntryName:  entryName,
		Name:       nameTok.Value,
		Elements:   elements,
		TokenRange: srcpos.TokenRange{Start: start, End: end},
	}, nil
}

// parsePattern assembles the PatternElement list for an entry/attribute
// value or a select-variant body, consuming tokens while the lexer is
// still producing Value-mode output (BLANK_INLINE, NL, TEXT_CHAR,
// BRACE_OPEN). Leading indentation on each line is trimmed; each run of N
// consecutive newlines wraps the following element in N nested Blocks, so
// a blank continuation line reproduces as an extra leading "\n".
func (p *Parser) parsePattern() ([]ast.PatternElement, error) {
	var elements []ast.PatternElement

	pendingBlocks := 0

	for {
		t, err := p.peek()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		switch t.Type {
		case lexer.BLANK_INLINE:
			p.next()
			continue
		case lexer.NL:
			p.next()
			pendingBlocks++

			continue
		case lexer.TEXT_CHAR:
			idx := p.index()
			p.next()

			tr := srcpos.TokenRange{Start: idx, End: idx + 1}
			el := ast.Text(tr, t.Value)
			el = wrapBlocks(el, pendingBlocks, tr)
			pendingBlocks = 0

			elements = append(elements, el)
		case lexer.BRACE_OPEN:
			start := p.index()

			p.next()

			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}

			if _, err := p.expect(lexer.BRACE_CLOSE); err != nil {
				return nil, err
			}

			tr := srcpos.TokenRange{Start: start, End: len(p.tokens)}
			el := ast.Placeable(tr, expr)
			el = wrapBlocks(el, pendingBlocks, tr)
			pendingBlocks = 0

			elements = append(elements, el)
		default:
			return elements, nil
		}
	}

	return elements, nil
}

func wrapBlocks(el ast.PatternElement, n int, tr srcpos.TokenRange) ast.PatternElement {
	for i := 0; i < n; i++ {
		el = ast.Block(tr, el)
	}

	return el
}
