package ast

import "github.com/loctree/fluent/srcpos"

// EntryKind discriminates Message from Term.
type EntryKind int

const (
	EntryMessage EntryKind = iota
	EntryTerm
)

// Attribute is a named sub-pattern on an entry, addressed as
// "entry.attrib". It owns its entry's name (a back-pointer modeled as a
// plain string, not an owning reference, so the AST stays acyclic — see
// design note on cyclic AST with back-pointers) and its own name.
type Attribute struct {
	EntryName  string
	Name       string
	Elements   []PatternElement
	TokenRange srcpos.TokenRange
}

// AttributeMap is an insertion-ordered map<name, *Attribute>: iteration
// order must match declaration order, since attributes are presented to
// callers in that order.
type AttributeMap struct {
	names []string
	byName map[string]*Attribute
}

func NewAttributeMap() *AttributeMap {
	return &AttributeMap{byName: make(map[string]*Attribute)}
}

// Add inserts attr, keyed by attr.Name. Re-adding an existing name
// replaces its value in place without disturbing iteration order.
func (m *AttributeMap) Add(attr *Attribute) {
	if _, ok := m.byName[attr.Name]; !ok {
		m.names = append(m.names, attr.Name)
	}

	m.byName[attr.Name] = attr
}

func (m *AttributeMap) Get(name string) (*Attribute, bool) {
	a, ok := m.byName[name]
	return a, ok
}

// Names returns attribute names in declaration order.
func (m *AttributeMap) Names() []string {
	return m.names
}

func (m *AttributeMap) Len() int {
	return len(m.names)
}

// Entry is a Message or a Term: a name, an ordered pattern, and an
// insertion-ordered map of attributes.
type Entry struct {
	Kind       EntryKind
	Name       string
	Elements   []PatternElement
	Attributes *AttributeMap
	TokenRange srcpos.TokenRange
}

func NewEntry(kind EntryKind, name string, elements []PatternElement, attrs *AttributeMap, tr srcpos.TokenRange) *Entry {
	if attrs == nil {
		attrs = NewAttributeMap()
	}

	return &Entry{Kind: kind, Name: name, Elements: elements, Attributes: attrs, TokenRange: tr}
}

func (e *Entry) IsMessage() bool {
	return e.Kind == EntryMessage
}

func (e *Entry) IsTerm() bool {
	return e.Kind == EntryTerm
}
