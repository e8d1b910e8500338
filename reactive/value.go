// Package reactive implements §4.5's "any change to any input must
// reformat" contract concretely: a Value is an observable formatted
// string, and a Scope memoizes one Value per (message, attribute,
// variables, functions) key, recomputing it whenever a bound Flow fires
// and coalescing rapid-fire changes with a generation counter.
package reactive

import "sync"

// Value is an observable formatted string. Subscribe registers fn to be
// called with every (string, error) the Value produces, starting with its
// current one if it already has one; the returned cancel func unregisters
// it.
type Value struct {
	mu     sync.Mutex
	subs   map[int]func(string, error)
	nextID int

	hasResult bool
	result    string
	resultErr error
}

func newValue() *Value {
	return &Value{subs: make(map[int]func(string, error))}
}

func (v *Value) Subscribe(fn func(string, error)) (cancel func()) {
	v.mu.Lock()

	id := v.nextID
	v.nextID++
	v.subs[id] = fn

	hasResult, result, resultErr := v.hasResult, v.result, v.resultErr

	v.mu.Unlock()

	if hasResult {
		fn(result, resultErr)
	}

	return func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
}

// emit publishes (s, err) to every current subscriber and records it as
// the Value's current result for future Subscribe calls.
func (v *Value) emit(s string, err error) {
	v.mu.Lock()
	v.hasResult = true
	v.result = s
	v.resultErr = err
	subs := make([]func(string, error), 0, len(v.subs))

	for _, fn := range v.subs {
		subs = append(subs, fn)
	}

	v.mu.Unlock()

	for _, fn := range subs {
		fn(s, err)
	}
}
