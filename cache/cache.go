// Package cache implements the filtered-array cache: a store of
// already-materialized arrays keyed by the path that selects them, so a
// family of filter queries against the same array can be answered by
// filtering in memory instead of re-walking the document's token stream
// on every call.
package cache

import (
	"fmt"
	"sync"

	"github.com/FeiBaoHuYu/KJsonQuery/eval"
	"github.com/FeiBaoHuYu/KJsonQuery/pathlang"
	"github.com/FeiBaoHuYu/KJsonQuery/value"
)

// Cache maps an array path to the value.Array it resolves to. It is safe
// for concurrent use.
type Cache struct {
	mu     sync.RWMutex
	arrays map[string]value.Array
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{arrays: make(map[string]value.Array)}
}

// Put records arr as the resolved value of arrayPath, replacing any
// previous entry.
func (c *Cache) Put(arrayPath string, arr value.Array) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arrays[arrayPath] = arr
}

// Get returns the cached array for arrayPath, if any.
func (c *Cache) Get(arrayPath string) (value.Array, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	arr, ok := c.arrays[arrayPath]
	return arr, ok
}

// Has reports whether arrayPath currently has a cached entry.
func (c *Cache) Has(arrayPath string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.arrays[arrayPath]
	return ok
}

// Invalidate drops the cached entry for arrayPath, if any.
func (c *Cache) Invalidate(arrayPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.arrays, arrayPath)
}

// Clear drops every cached entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arrays = make(map[string]value.Array)
}

// Split splits a query path at its first `[?(...)]` segment into the
// array-path prefix (the text before the segment), the filter expression
// text inside it (including its enclosing parentheses, ready to pass to
// pathlang.ParseFilter), and the tail path following it. The closing ']'
// is located with a parenthesis-balanced scan so a filter expression may
// itself contain parenthesized sub-expressions. ok is false if path has
// no filter segment, or its brackets are unterminated.
func Split(path string) (arrayPath, filterExpr, tail string, ok bool) {
	i := indexFilterOpen(path)
	if i < 0 {
		return "", "", "", false
	}
	j := i + 2 // just past "[?"
	depth := 0
	for k := j; k < len(path); k++ {
		switch path[k] {
		case '(':
			depth++
		case ')':
			depth--
		case ']':
			if depth == 0 {
				return path[:i], path[j:k], path[k+1:], true
			}
		}
	}
	return "", "", "", false
}

func indexFilterOpen(path string) int {
	for i := 0; i+1 < len(path); i++ {
		if path[i] == '[' && path[i+1] == '?' {
			return i
		}
	}
	return -1
}

// Query filters a previously cached array by filterExpr and continues
// evaluating tail against every matching element, the way a live
// evaluator would continue past a matched filter segment. A non-object
// element of the cached array is silently skipped, since a filter
// condition can never match it.
func (c *Cache) Query(arrayPath, filterExpr, tail string, opts eval.Options) ([]value.Value, error) {
	arr, ok := c.Get(arrayPath)
	if !ok {
		return nil, fmt.Errorf("cache: %q is not cached", arrayPath)
	}
	f := pathlang.ParseFilter(filterExpr)

	var tailSegs []pathlang.Segment
	if tail != "" {
		segs, err := pathlang.Parse("$" + tail)
		if err != nil {
			return nil, err
		}
		tailSegs = segs
	}

	var results []value.Value
	for _, elem := range arr {
		if opts.Limit > 0 && len(results) >= opts.Limit {
			break
		}
		obj, ok := elem.(*value.Object)
		if !ok {
			continue
		}
		if !eval.Matches(obj, f) {
			continue
		}
		eval.Continue(elem, tailSegs, opts, &results)
	}
	return results, nil
}
