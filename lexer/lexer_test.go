package lexer

import (
	"strings"
	"testing"
)

func tokenize(t *testing.T, src string) []Token {
	t.Helper()

	l := NewLexer("test.ftl", strings.NewReader(src))

	var toks []Token

	for {
		tok, err := l.Next()
		if err != nil {
			break
		}

		toks = append(toks, tok)
	}

	return toks
}

func typesOf(toks []Token) []TokenType {
	types := make([]TokenType, len(toks))
	for i, t := range toks {
		types[i] = t.Type
	}

	return types
}

func TestLexSimpleMessage(t *testing.T) {
	toks := tokenize(t, "msg = Hello world")

	got := typesOf(toks)
	want := []TokenType{IDENT, EQ, BLANK_INLINE, TEXT_CHAR}

	if len(got) != len(want) {
		t.Fatalf("token types = %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if toks[3].Value != "Hello world" {
		t.Fatalf("text = %q, want %q", toks[3].Value, "Hello world")
	}
}

func TestMidTextBlankIsNotTrimmed(t *testing.T) {
	toks := tokenize(t, "msg = Hello world")

	// The blank right after '=' starts the pattern line and is lexed as
	// BLANK_INLINE; any other BLANK_INLINE would mean the space between
	// the words was split out of the text run.
	for i, tok := range toks {
		if tok.Type == BLANK_INLINE && (i == 0 || toks[i-1].Type != EQ) {
			t.Fatalf("unexpected BLANK_INLINE token for mid-text space: %v", toks)
		}
	}
}

func TestLeadingIndentationIsBlankInline(t *testing.T) {
	toks := tokenize(t, "msg =\n    continued")

	foundBlank := false

	for _, tok := range toks {
		if tok.Type == BLANK_INLINE {
			foundBlank = true

			if tok.Value != "    " {
				t.Fatalf("BLANK_INLINE value = %q, want 4 spaces", tok.Value)
			}
		}
	}

	if !foundBlank {
		t.Fatalf("expected a BLANK_INLINE token for line-start indentation, got %v", typesOf(toks))
	}
}

func TestPlaceableAndAttribute(t *testing.T) {
	toks := tokenize(t, "msg = { $x }\n.attr = y")

	got := typesOf(toks)

	want := []TokenType{
		IDENT, EQ, BLANK_INLINE, BRACE_OPEN, DOLLAR, IDENT, BRACE_CLOSE,
		DOT, IDENT, EQ, BLANK_INLINE, TEXT_CHAR,
	}

	if len(got) != len(want) {
		t.Fatalf("token types = %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token[%d] = %s, want %s (full: %v)", i, got[i], want[i], got)
		}
	}
}
