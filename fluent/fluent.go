// Package fluent is the public façade over the parser, lowering, and
// evaluation layers: LocalizationFile parses one Fluent source file and
// exposes its messages and terms as values that can be formatted against
// caller-supplied variables.
package fluent

import (
	"github.com/loctree/fluent/ast"
	"github.com/loctree/fluent/evalctx"
	"github.com/loctree/fluent/fluenterr"
	"github.com/loctree/fluent/fnreg"
	"github.com/loctree/fluent/lower"
	"github.com/loctree/fluent/parser"
)

// Options configures how a LocalizationFile is built.
type Options struct {
	// Functions, when non-nil, is used as the file's function registry;
	// functions registered here are reachable from every message and
	// term in the file. When nil, the file gets an empty registry.
	Functions *fnreg.Registry

	// GlobalVariables, when non-nil, seeds the variable scope every
	// formatOrNull/format call starts from, before the caller's own
	// per-call variables overlay it.
	GlobalVariables map[string]fnreg.Value

	// DisableTermExpansion controls whether term references are inlined
	// at load time (false, the default) or left in place and resolved
	// lazily at format time (true). The term table (Terms, HasTerm) is
	// kept in both cases.
	DisableTermExpansion bool
}

// LocalizationFile is a parsed, lowered Fluent source file.
type LocalizationFile struct {
	tables    *lower.Tables
	functions *fnreg.Registry
	globals   map[string]fnreg.Value
	evaluator *evalctx.Evaluator
}

// Parse parses and lowers source (tagged filename for diagnostics).
func Parse(filename, source string, opts Options) (*LocalizationFile, error) {
	tree, err := parser.Parse(filename, source)
	if err != nil {
		return nil, err
	}

	tables, err := lower.Lower(tree, !opts.DisableTermExpansion)
	if err != nil {
		return nil, err
	}

	functions := opts.Functions
	if functions == nil {
		functions = fnreg.NewBuilder().Build()
	}

	return &LocalizationFile{
		tables:    tables,
		functions: functions,
		globals:   opts.GlobalVariables,
		evaluator: evalctx.NewEvaluator(),
	}, nil
}

func (lf *LocalizationFile) context(vars map[string]fnreg.Value) *evalctx.Context {
	c := evalctx.New(lf.tables.Messages, lf.tables.Terms, lf.functions, lf.globals)
	if len(vars) > 0 {
		c = c.OverlayVariables(vars)
	}

	return c
}

// HasMessage reports whether name is a declared message.
func (lf *LocalizationFile) HasMessage(name string) bool {
	_, ok := lf.tables.Messages[name]
	return ok
}

// HasTerm reports whether name is a declared term.
func (lf *LocalizationFile) HasTerm(name string) bool {
	_, ok := lf.tables.Terms[name]
	return ok
}

// Get returns the raw message entry named name, if declared.
func (lf *LocalizationFile) Get(name string) (*ast.Entry, bool) {
	e, ok := lf.tables.Messages[name]
	return e, ok
}

// GetAttribute returns entry.attr's raw attribute, if both are declared.
func (lf *LocalizationFile) GetAttribute(entry, attr string) (*ast.Attribute, bool) {
	e, ok := lf.tables.Messages[entry]
	if !ok {
		return nil, false
	}

	return e.Attributes.Get(attr)
}

// Entries returns every declared message name, in declaration order.
func (lf *LocalizationFile) Entries() []string {
	return append([]string{}, lf.tables.MessageOrder...)
}

// Terms returns every declared term name, in declaration order.
func (lf *LocalizationFile) Terms() []string {
	return append([]string{}, lf.tables.TermOrder...)
}

// FormatMessageOrNull formats message name with vars, returning ("", false)
// if name is not declared.
func (lf *LocalizationFile) FormatMessageOrNull(name string, vars map[string]fnreg.Value) (string, bool, error) {
	entry, ok := lf.tables.Messages[name]
	if !ok {
		return "", false, nil
	}

	c, err := lf.context(vars).Push(evalctx.Frame{EntryName: name})
	if err != nil {
		return "", true, err
	}

	s, err := lf.evaluator.FormatPattern(c, entry.Elements)
	if err != nil {
		return "", true, err
	}

	return s, true, nil
}

// FormatAttributeOrNull formats entry.attr with vars, returning ("", false)
// if either entry or attr is not declared.
func (lf *LocalizationFile) FormatAttributeOrNull(entry, attr string, vars map[string]fnreg.Value) (string, bool, error) {
	a, ok := lf.GetAttribute(entry, attr)
	if !ok {
		return "", false, nil
	}

	c, err := lf.context(vars).Push(evalctx.Frame{EntryName: entry, Attr: attr})
	if err != nil {
		return "", true, err
	}

	s, err := lf.evaluator.FormatPattern(c, a.Elements)
	if err != nil {
		return "", true, err
	}

	return s, true, nil
}

// FormatMessage formats message name with vars. If name is not declared,
// it returns the "<name>" placeholder instead of an error.
func (lf *LocalizationFile) FormatMessage(name string, vars map[string]fnreg.Value) (string, error) {
	s, ok, err := lf.FormatMessageOrNull(name, vars)
	if err != nil {
		return "", err
	}

	if !ok {
		return "<" + name + ">", nil
	}

	return s, nil
}

// FormatAttribute formats entry.attr with vars. If either is not declared,
// it returns the "<entry.attr>" placeholder instead of an error.
func (lf *LocalizationFile) FormatAttribute(entry, attr string, vars map[string]fnreg.Value) (string, error) {
	s, ok, err := lf.FormatAttributeOrNull(entry, attr, vars)
	if err != nil {
		return "", err
	}

	if !ok {
		return "<" + entry + "." + attr + ">", nil
	}

	return s, nil
}

// MustFormat formats message name with vars, panicking on error or a
// missing message. Reserved for call sites that have already validated
// the message exists (e.g. build-time checked string tables).
func (lf *LocalizationFile) MustFormat(name string, vars map[string]fnreg.Value) string {
	s, ok, err := lf.FormatMessageOrNull(name, vars)
	if err != nil {
		panic(err)
	}

	if !ok {
		panic(&fluenterr.UnresolvedReferenceError{Name: name})
	}

	return s
}
