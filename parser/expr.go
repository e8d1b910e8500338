package parser

import (
	"github.com/loctree/fluent/ast"
	"github.com/loctree/fluent/fluenterr"
	"github.com/loctree/fluent/lexer"
	"github.com/loctree/fluent/srcpos"
)

// parseExpression parses a placeable's content: an inline expression,
// optionally followed by "-> variants" turning it into a SelectExpression.
// The lexer is in Default mode throughout (pushed by the enclosing '{').
func (p *Parser) parseExpression() (ast.Expression, error) {
	start, err := p.markStart()
	if err != nil {
		return nil, err
	}

	selector, err := p.parseInlineExpression()
	if err != nil {
		return nil, err
	}

	t, err := p.peek()
	if err != nil || t.Type != lexer.ARROW {
		return selector, nil
	}

	p.next() // consume '->'

	variants, err := p.parseVariants()
	if err != nil {
		return nil, err
	}

	if err := p.validateExactlyOneDefault(variants, selector); err != nil {
		return nil, err
	}

	end := p.markEnd()

	return ast.NewSelectExpression(srcpos.TokenRange{Start: start, End: end}, selector, variants), nil
}

func (p *Parser) validateExactlyOneDefault(variants []ast.Variant, selector ast.Expression) error {
	defaults := 0

	for _, v := range variants {
		if v.IsDefault {
			defaults++
		}
	}

	if defaults == 1 {
		return nil
	}

	r := srcpos.Resolve(selector.Range(), p.nodeSlice())
	msg := "select expression must have exactly one default variant"

	return p.withSource(fluenterr.NewParserError(r, msg))
}

// nodeSlice adapts p.tokens to []srcpos.Node for srcpos.Resolve.
func (p *Parser) nodeSlice() []srcpos.Node {
	nodes := make([]srcpos.Node, len(p.tokens))
	for i, t := range p.tokens {
		nodes[i] = t
	}

	return nodes
}

// parseVariants parses the variant list of a select expression: zero or
// more "[key] pattern" arms, with exactly one "*[key] pattern" default
// arm, until the enclosing '}' comes into view.
func (p *Parser) parseVariants() ([]ast.Variant, error) {
	var variants []ast.Variant

	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}

		if t.Type == lexer.BRACE_CLOSE {
			return variants, nil
		}

		isDefault := false
		if t.Type == lexer.ASTERISK {
			p.next()
			isDefault = true
		}

		if _, err := p.expect(lexer.BRACKET_OPEN); err != nil {
			return nil, err
		}

		key, err := p.parseVariantKey()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(lexer.BRACKET_CLOSE); err != nil {
			return nil, err
		}

		elements, err := p.parsePattern()
		if err != nil {
			return nil, err
		}

		variants = append(variants, ast.Variant{Key: key, Elements: elements, IsDefault: isDefault})
	}
}

func (p *Parser) parseVariantKey() (ast.Expression, error) {
	t, err := p.peek()
	if err != nil {
		return nil, err
	}

	if t.Type == lexer.NUMBER {
		return p.parseNumberLiteral()
	}

	idTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}

	tr := srcpos.TokenRange{Start: p.index() - 1, End: p.index()}

	return ast.NewStringLiteral(tr, idTok.Value), nil
}

// parseInlineExpression parses a single InlineExpression: string, number,
// variable, term, function, message, or attribute reference.
func (p *Parser) parseInlineExpression() (ast.Expression, error) {
	t, err := p.peek()
	if err != nil {
		return nil, err
	}

	switch t.Type {
	case lexer.QUOTE:
		return p.parseStringLiteral()
	case lexer.NUMBER:
		return p.parseNumberLiteral()
	case lexer.DOLLAR:
		return p.parseVariableReference()
	case lexer.MINUS:
		return p.parseTermReference()
	case lexer.IDENT:
		return p.parseIdentExpression()
	default:
		return nil, p.errorAt(t, "expected an expression, got "+string(t.Type))
	}
}

func (p *Parser) parseStringLiteral() (ast.Expression, error) {
	start, err := p.markStart()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.QUOTE); err != nil {
		return nil, err
	}

	var sb []byte

	for {
		t, err := p.peek()
		if err != nil {
			return nil, err
		}

		if t.Type == lexer.QUOTE {
			p.next()
			break
		}

		tok, err := p.expect(lexer.STRING_TEXT)
		if err != nil {
			return nil, err
		}

		sb = append(sb, tok.Value...)
	}

	end := p.markEnd()

	return ast.NewStringLiteral(srcpos.TokenRange{Start: start, End: end}, string(sb)), nil
}

func (p *Parser) parseNumberLiteral() (ast.Expression, error) {
	start, err := p.markStart()
	if err != nil {
		return nil, err
	}

	tok, err := p.expect(lexer.NUMBER)
	if err != nil {
		return nil, err
	}

	end := p.markEnd()

	return ast.NewNumberLiteral(srcpos.TokenRange{Start: start, End: end}, tok.Value)
}

func (p *Parser) parseVariableReference() (ast.Expression, error) {
	start, err := p.markStart()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.DOLLAR); err != nil {
		return nil, err
	}

	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}

	end := p.markEnd()

	return ast.NewReference(srcpos.TokenRange{Start: start, End: end}, ast.RefVariable, nameTok.Value, ""), nil
}

// parseTermReference parses "-name", "-name.attr", "-name(args)" or
// "-name.attr(args)". A positional argument here is a parser error: term
// calls only ever bind named arguments (§4.3).
func (p *Parser) parseTermReference() (ast.Expression, error) {
	start, err := p.markStart()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.MINUS); err != nil {
		return nil, err
	}

	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}

	attr := ""

	t, err := p.peek()
	if err == nil && t.Type == lexer.DOT {
		p.next()

		attrTok, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}

		attr = attrTok.Value
	}

	var args []ast.NamedArg

	t, err = p.peek()
	if err == nil && t.Type == lexer.PAREN_OPEN {
		args, err = p.parseCallArguments()
		if err != nil {
			return nil, err
		}

		for _, a := range args {
			if a.Name == "" {
				return nil, p.errorAt(nameTok, "term call \""+nameTok.Value+"\" has a positional argument: terms only accept named arguments")
			}
		}
	}

	end := p.markEnd()

	return ast.NewTermReference(srcpos.TokenRange{Start: start, End: end}, nameTok.Value, attr, args), nil
}

// parseIdentExpression parses a bare identifier expression: "name" (message
// reference), "name.attr" (attribute reference), or "NAME(args)" (function
// reference, named and positional arguments freely mixed).
func (p *Parser) parseIdentExpression() (ast.Expression, error) {
	start, err := p.markStart()
	if err != nil {
		return nil, err
	}

	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}

	t, err := p.peek()
	if err == nil && t.Type == lexer.PAREN_OPEN {
		args, err := p.parseCallArguments()
		if err != nil {
			return nil, err
		}

		end := p.markEnd()

		return ast.NewFunctionReference(srcpos.TokenRange{Start: start, End: end}, nameTok.Value, args), nil
	}

	if err == nil && t.Type == lexer.DOT {
		p.next()

		attrTok, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}

		end := p.markEnd()

		return ast.NewReference(srcpos.TokenRange{Start: start, End: end}, ast.RefAttribute, nameTok.Value, attrTok.Value), nil
	}

	end := p.markEnd()

	return ast.NewReference(srcpos.TokenRange{Start: start, End: end}, ast.RefMessage, nameTok.Value, ""), nil
}

// parseCallArguments parses a parenthesized, comma-separated argument
// list. An argument is named when an IDENT is immediately followed by
// ':' (2-token lookahead distinguishes this from a bare message-reference
// expression); otherwise it is positional.
func (p *Parser) parseCallArguments() ([]ast.NamedArg, error) {
	if _, err := p.expect(lexer.PAREN_OPEN); err != nil {
		return nil, err
	}

	var args []ast.NamedArg

	t, err := p.peek()
	if err != nil {
		return nil, err
	}

	for t.Type != lexer.PAREN_CLOSE {
		arg, err := p.parseCallArgument()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		t, err = p.peek()
		if err != nil {
			return nil, err
		}

		if t.Type == lexer.COMMA {
			p.next()

			t, err = p.peek()
			if err != nil {
				return nil, err
			}
		}
	}

	if _, err := p.expect(lexer.PAREN_CLOSE); err != nil {
		return nil, err
	}

	return args, nil
}

func (p *Parser) parseCallArgument() (ast.NamedArg, error) {
	t, err := p.peek()
	if err != nil {
		return ast.NamedArg{}, err
	}

	if t.Type == lexer.IDENT {
		next, err := p.peekAt(1)
		if err == nil && next.Type == lexer.COLON {
			nameTok, _ := p.next()
			p.next() // consume ':'

			value, err := p.parseInlineExpression()
			if err != nil {
				return ast.NamedArg{}, err
			}

			return ast.NamedArg{Name: nameTok.Value, Value: value}, nil
		}
	}

	value, err := p.parseInlineExpression()
	if err != nil {
		return ast.NamedArg{}, err
	}

	return ast.NamedArg{Value: value}, nil
}
