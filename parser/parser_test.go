package parser

import (
	"testing"

	"github.com/loctree/fluent/ast"
)

func mustParse(t *testing.T, source string) *ParseTree {
	t.Helper()

	tree, err := Parse("test.ftl", source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	return tree
}

func entryNamed(t *testing.T, tree *ParseTree, name string) *ast.Entry {
	t.Helper()

	for _, e := range tree.Entries {
		if e.Name == name {
			return e
		}
	}

	t.Fatalf("no entry named %q in %+v", name, tree.Entries)

	return nil
}

func TestParseMessageAndTerm(t *testing.T) {
	tree := mustParse(t, "-my-term = value\nmsg = hello\n")

	if len(tree.Entries) != 2 {
		t.Fatalf("Entries = %d, want 2", len(tree.Entries))
	}

	term := entryNamed(t, tree, "my-term")
	if !term.IsTerm() {
		t.Fatal("-my-term did not parse as a term")
	}

	msg := entryNamed(t, tree, "msg")
	if !msg.IsMessage() {
		t.Fatal("msg did not parse as a message")
	}
}

func TestParseAttribute(t *testing.T) {
	tree := mustParse(t, "msg = body\n    .attr = value\n")

	msg := entryNamed(t, tree, "msg")

	if msg.Attributes.Len() != 1 {
		t.Fatalf("Attributes.Len() = %d, want 1", msg.Attributes.Len())
	}

	attr, ok := msg.Attributes.Get("attr")
	if !ok {
		t.Fatal("attribute \"attr\" not found")
	}

	if len(attr.Elements) != 1 || attr.Elements[0].Kind != ast.ElemText || attr.Elements[0].Text != "value" {
		t.Fatalf("attr elements = %+v", attr.Elements)
	}
}

func TestParsePlaceableWithVariable(t *testing.T) {
	tree := mustParse(t, "msg = Hello { $name }!\n")

	msg := entryNamed(t, tree, "msg")

	var foundRef bool

	for _, el := range msg.Elements {
		if el.Kind == ast.ElemPlaceable {
			ref, ok := el.Expr.(*ast.Reference)
			if !ok || ref.RefKind != ast.RefVariable || ref.Name != "name" {
				t.Fatalf("placeable expr = %+v", el.Expr)
			}

			foundRef = true
		}
	}

	if !foundRef {
		t.Fatalf("no placeable found in elements: %+v", msg.Elements)
	}
}

func TestParseSelectRequiresExactlyOneDefault(t *testing.T) {
	source := "msg = { $n ->\n    [one] A\n    [other] B\n}\n"

	if _, err := Parse("test.ftl", source); err == nil {
		t.Fatal("select with no default variant parsed without error")
	}
}

func TestParseSelectWithDefault(t *testing.T) {
	source := "msg = { $n ->\n    [one] A\n   *[other] B\n}\n"

	tree := mustParse(t, source)

	msg := entryNamed(t, tree, "msg")

	var sel *ast.SelectExpression

	for _, el := range msg.Elements {
		if el.Kind == ast.ElemPlaceable {
			if s, ok := el.Expr.(*ast.SelectExpression); ok {
				sel = s
			}
		}
	}

	if sel == nil {
		t.Fatalf("no select expression found in %+v", msg.Elements)
	}

	def, ok := sel.DefaultVariant()
	if !ok {
		t.Fatal("DefaultVariant() found none")
	}

	if len(def.Elements) != 1 || def.Elements[0].Text != "B" {
		t.Fatalf("default variant elements = %+v", def.Elements)
	}
}

func TestParseTermReferenceRejectsPositionalArgs(t *testing.T) {
	source := `
-t = value
msg = { -t("positional") }
`

	if _, err := Parse("test.ftl", source); err == nil {
		t.Fatal("term reference with a positional argument parsed without error")
	}
}

func TestParseDeclarationOnlyEntry(t *testing.T) {
	tree := mustParse(t, "msg =\n    .attr = value\n")

	msg := entryNamed(t, tree, "msg")

	if len(msg.Elements) != 0 {
		t.Fatalf("declaration-only entry has body elements: %+v", msg.Elements)
	}

	if msg.Attributes.Len() != 1 {
		t.Fatalf("Attributes.Len() = %d, want 1", msg.Attributes.Len())
	}
}
