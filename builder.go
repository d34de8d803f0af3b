package kjsonquery

import (
	"fmt"

	"github.com/FeiBaoHuYu/KJsonQuery/value"
)

// Builder is a fluent query, deferring execution until one of Execute,
// Map, First, FirstOrNil or Count is called.
type Builder struct {
	handle *Handle
	path   string
	opts   []QueryOption
	preds  []func(value.Value) bool
}

// Select begins a fluent query for path. The returned Builder has no
// target document yet; chain From before executing it.
func Select(path string) *Builder {
	return &Builder{path: path}
}

// From sets the document the query runs against.
func (b *Builder) From(h *Handle) *Builder {
	b.handle = h
	return b
}

// Limit caps the number of values the query returns.
func (b *Builder) Limit(n int) *Builder {
	b.opts = append(b.opts, Limit(n))
	return b
}

// Where adds a predicate every returned value must satisfy. Predicates
// from repeated Where calls combine by logical AND. They are applied to
// the query's results after it has run, not inside the evaluator, so a
// Limit counts values before they are filtered.
func (b *Builder) Where(pred func(value.Value) bool) *Builder {
	b.preds = append(b.preds, pred)
	return b
}

// Execute runs the query and returns its matches.
func (b *Builder) Execute() ([]value.Value, error) {
	if b.handle == nil {
		return nil, fmt.Errorf("kjsonquery: Select(%q) has no document: call From first", b.path)
	}
	results, err := b.handle.Query(b.path, b.opts...)
	if err != nil || len(b.preds) == 0 {
		return results, err
	}
	var out []value.Value
next:
	for _, v := range results {
		for _, pred := range b.preds {
			if !pred(v) {
				continue next
			}
		}
		out = append(out, v)
	}
	return out, nil
}

// Map runs the query and applies fn to every matched value.
func (b *Builder) Map(fn func(value.Value) value.Value) ([]value.Value, error) {
	results, err := b.Execute()
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(results))
	for i, v := range results {
		out[i] = fn(v)
	}
	return out, nil
}

// First runs the query and returns its first match, or an error if it
// matched nothing.
func (b *Builder) First() (value.Value, error) {
	results, err := b.Execute()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("kjsonquery: %q matched no values", b.path)
	}
	return results[0], nil
}

// FirstOrNil runs the query and returns its first match, or nil if it
// matched nothing.
func (b *Builder) FirstOrNil() (value.Value, error) {
	results, err := b.Execute()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// Count runs the query and returns the number of values it matched.
func (b *Builder) Count() (int, error) {
	results, err := b.Execute()
	if err != nil {
		return 0, err
	}
	return len(results), nil
}
