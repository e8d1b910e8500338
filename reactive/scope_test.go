package reactive

import (
	"sync"
	"testing"

	"github.com/loctree/fluent/ast"
	"github.com/loctree/fluent/fluent"
	"github.com/loctree/fluent/srcpos"
)

// literalFlow is a settable Flow for tests: Set both updates the value and
// fires every subscriber, synchronously.
type literalFlow struct {
	mu    sync.Mutex
	value ast.Expression
	subs  map[int]func()
	next  int
}

func newLiteralFlow(s string) *literalFlow {
	lit := ast.NewStringLiteral(srcpos.TokenRange{}, s)
	return &literalFlow{value: lit, subs: make(map[int]func())}
}

func (f *literalFlow) Get() ast.Expression {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.value
}

func (f *literalFlow) Subscribe(fn func()) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *literalFlow) Set(s string) {
	f.mu.Lock()
	f.value = ast.NewStringLiteral(srcpos.TokenRange{}, s)
	subs := make([]func(), 0, len(f.subs))

	for _, fn := range f.subs {
		subs = append(subs, fn)
	}

	f.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

func parseFile(t *testing.T, source string) *fluent.LocalizationFile {
	t.Helper()

	lf, err := fluent.Parse("test.ftl", source, fluent.Options{})
	if err != nil {
		t.Fatalf("fluent.Parse: %v", err)
	}

	return lf
}

func TestScopeFormatReactsToFlowChange(t *testing.T) {
	lf := parseFile(t, "greeting = Hello { $name }!\n")

	name := newLiteralFlow("Fops")

	scope := NewScope()
	val := scope.Format(lf, "greeting", "", map[string]Flow{"name": name}, nil)

	var (
		mu   sync.Mutex
		last string
	)

	val.Subscribe(func(s string, err error) {
		if err != nil {
			t.Fatalf("Value emitted an error: %v", err)
		}

		mu.Lock()
		last = s
		mu.Unlock()
	})

	mu.Lock()
	got := last
	mu.Unlock()

	if got != "Hello Fops!" {
		t.Fatalf("initial format = %q, want %q", got, "Hello Fops!")
	}

	name.Set("Wolp")

	mu.Lock()
	got = last
	mu.Unlock()

	if got != "Hello Wolp!" {
		t.Fatalf("format after Flow change = %q, want %q", got, "Hello Wolp!")
	}
}

func TestScopeFormatMemoizesByKey(t *testing.T) {
	lf := parseFile(t, "greeting = Hello\n")

	scope := NewScope()

	v1 := scope.Format(lf, "greeting", "", nil, nil)
	v2 := scope.Format(lf, "greeting", "", nil, nil)

	if v1 != v2 {
		t.Fatal("Format returned distinct Values for an identical key")
	}
}

func TestScopeFormatMissingMessage(t *testing.T) {
	lf := parseFile(t, "")

	scope := NewScope()
	val := scope.Format(lf, "nope", "", nil, nil)

	var gotErr error

	val.Subscribe(func(s string, err error) {
		gotErr = err
	})

	if gotErr == nil {
		t.Fatal("Format on a missing message produced no error")
	}
}
