package reactive

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/loctree/fluent/ast"
	"github.com/loctree/fluent/evalctx"
	"github.com/loctree/fluent/fluent"
	"github.com/loctree/fluent/fnreg"
)

// Flow is a minimal pull/push variable source: Get returns its current
// value as a literal expression, Subscribe registers fn to be called
// whenever that value changes.
type Flow interface {
	Get() ast.Expression
	Subscribe(fn func()) (cancel func())
}

type cacheKey struct {
	name   string
	attr   string
	fnsID  uintptr
	varsID uintptr
}

// string renders key as a singleflight.Group call key.
func (k cacheKey) string() string {
	return fmt.Sprintf("%s\x00%s\x00%x\x00%x", k.name, k.attr, k.fnsID, k.varsID)
}

type cacheEntry struct {
	value      *Value
	generation uint64
	cancels    []func()
}

// Scope owns the memo table: the single shared-mutable resource in this
// package, protected by one mutex (§9). group coalesces concurrent
// first-use Format calls for the same key into a single entry creation
// and initial recompute, per §9: "identical concurrent subscriptions
// share a single underlying computation".
type Scope struct {
	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
	group   singleflight.Group
}

func NewScope() *Scope {
	return &Scope{entries: make(map[cacheKey]*cacheEntry)}
}

func mapIdentity(vars map[string]Flow) uintptr {
	if vars == nil {
		return 0
	}

	return reflect.ValueOf(vars).Pointer()
}

// Format returns the memoized Value for (name, attr, vars, fns) against
// file, creating and wiring it up on first use. attr may be empty to
// format the message itself rather than one of its attributes.
func (s *Scope) Format(file *fluent.LocalizationFile, name, attr string, vars map[string]Flow, fns *fnreg.Registry) *Value {
	var fnsID uintptr
	if fns != nil {
		fnsID = reflect.ValueOf(fns).Pointer()
	}

	key := cacheKey{name: name, attr: attr, fnsID: fnsID, varsID: mapIdentity(vars)}

	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()

	if ok {
		return e.value
	}

	// Concurrent first-use Format calls for an identical key coalesce onto
	// one entry creation and one initial recompute via singleflight,
	// rather than each racing to create and populate its own cacheEntry.
	v, _, _ := s.group.Do(key.string(), func() (interface{}, error) {
		s.mu.Lock()

		if e, ok := s.entries[key]; ok {
			s.mu.Unlock()
			return e, nil
		}

		entry := &cacheEntry{value: newValue()}
		s.entries[key] = entry

		s.mu.Unlock()

		recompute := func() { s.recompute(entry, file, name, attr, vars, fns) }

		for _, flow := range vars {
			cancel := flow.Subscribe(recompute)
			entry.cancels = append(entry.cancels, cancel)
		}

		recompute()

		return entry, nil
	})

	return v.(*cacheEntry).value
}

// recompute bumps entry's generation and runs the format in an
// errgroup.Group of one, so an in-flight computation whose generation is
// superseded before it finishes is simply dropped instead of published.
func (s *Scope) recompute(entry *cacheEntry, file *fluent.LocalizationFile, name, attr string, vars map[string]Flow, fns *fnreg.Registry) {
	gen := atomic.AddUint64(&entry.generation, 1)

	g, _ := errgroup.WithContext(context.Background())

	g.Go(func() error {
		varsByValue := make(map[string]fnreg.Value, len(vars))

		for k, flow := range vars {
			varsByValue[k] = literalToValue(flow.Get())
		}

		root := evalctx.New(messagesOf(file), termsOf(file), effectiveFunctions(fns), varsByValue)

		ev := evalctx.NewEvaluator()

		var (
			s   string
			err error
		)

		if attr == "" {
			pattern, ok := file.Get(name)
			if !ok {
				err = notFoundErr(name, attr)
			} else if c, perr := root.Push(evalctx.Frame{EntryName: name}); perr != nil {
				err = perr
			} else {
				s, err = ev.FormatPattern(c, pattern.Elements)
			}
		} else {
			a, ok := file.GetAttribute(name, attr)
			if !ok {
				err = notFoundErr(name, attr)
			} else if c, perr := root.Push(evalctx.Frame{EntryName: name, Attr: attr}); perr != nil {
				err = perr
			} else {
				s, err = ev.FormatPattern(c, a.Elements)
			}
		}

		if atomic.LoadUint64(&entry.generation) != gen {
			return nil // superseded: drop this result, do not publish
		}

		entry.value.emit(s, err)

		return nil
	})

	_ = g.Wait()
}

func literalToValue(expr ast.Expression) fnreg.Value {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		if e.IsFloat {
			return fnreg.NumberValue(e.FltValue)
		}

		return fnreg.NumberValue(float64(e.IntValue))
	case *ast.StringLiteral:
		return fnreg.StringValue(e.Value)
	default:
		return fnreg.StringValue("")
	}
}

func effectiveFunctions(fns *fnreg.Registry) *fnreg.Registry {
	if fns == nil {
		return fnreg.NewBuilder().Build()
	}

	return fns
}

func messagesOf(file *fluent.LocalizationFile) map[string]*ast.Entry {
	m := make(map[string]*ast.Entry)

	for _, name := range file.Entries() {
		e, _ := file.Get(name)
		m[name] = e
	}

	return m
}

func termsOf(*fluent.LocalizationFile) map[string]*ast.Entry {
	// Terms are already inlined by lower.Lower in the common (expand-terms)
	// path this package assumes; a LocalizationFile built with term
	// expansion disabled would need its own term accessor to populate this.
	return map[string]*ast.Entry{}
}

type notFound struct{ name, attr string }

func (e notFound) Error() string {
	if e.attr == "" {
		return "reactive: no such message " + e.name
	}

	return "reactive: no such attribute " + e.name + "." + e.attr
}

func notFoundErr(name, attr string) error {
	return notFound{name: name, attr: attr}
}
