package kjsonquery

import (
	"log/slog"

	"github.com/FeiBaoHuYu/KJsonQuery/cache"
	"github.com/FeiBaoHuYu/KJsonQuery/eval"
	"github.com/FeiBaoHuYu/KJsonQuery/pathlang"
	"github.com/FeiBaoHuYu/KJsonQuery/value"
)

// QueryOption configures a single call to Handle.Query.
type QueryOption func(*eval.Options)

// Limit caps the number of values a query returns. Zero or negative
// means unlimited, and is the default.
func Limit(n int) QueryOption {
	return func(o *eval.Options) { o.Limit = n }
}

// Where attaches a predicate applied to each candidate value after the
// path (and any filter segment within it) has already matched it. A
// value the predicate rejects is discarded without counting against any
// Limit.
func Where(pred func(value.Value) bool) QueryOption {
	return func(o *eval.Options) { o.Pred = pred }
}

// Query evaluates path against h's document and returns the matched
// values, in document order.
//
// path and filter expressions are compiled fresh on every call and never
// cause Query itself to fail: a path that fails to compile, or a filter
// expression within it that fails to compile, degrades to an empty
// result and is logged instead. The only failures Query ever surfaces
// are the document's own; by the time a Handle exists, the document has
// already been opened successfully.
func (h *Handle) Query(path string, opts ...QueryOption) ([]value.Value, error) {
	var o eval.Options
	for _, opt := range opts {
		opt(&o)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	arrayPath, filterExpr, tail, hasFilter := cache.Split(path)
	if hasFilter {
		if h.cache.Has(arrayPath) {
			results, err := h.cache.Query(arrayPath, filterExpr, tail, o)
			if err != nil {
				slog.Warn("kjsonquery: query against cached array failed", "path", path, "error", err)
				return nil, nil
			}
			return results, nil
		}
	} else if arr, ok := h.cache.Get(path); ok {
		return applyOptions(arr, o), nil
	}

	segs, err := pathlang.Parse(path)
	if err != nil {
		slog.Warn("kjsonquery: path failed to compile", "path", path, "error", err)
		return nil, nil
	}

	results, err := eval.Run(h.source.Tokenizer(), segs, o)
	if err != nil {
		slog.Warn("kjsonquery: query evaluation failed", "path", path, "error", err)
		return nil, nil
	}
	return unwrapSingleton(results), nil
}

// unwrapSingleton implements the single-element unwrapping rule: a
// one-element result list whose element is itself an Array is replaced
// by that array's elements. A query that happens to match exactly one
// array-valued leaf therefore looks different in shape from one that
// matches two or more; this asymmetry is intentional, not a bug to fix.
func unwrapSingleton(results []value.Value) []value.Value {
	if len(results) == 1 {
		if arr, ok := results[0].(value.Array); ok {
			return arr
		}
	}
	return results
}

// applyOptions re-applies Limit and Where to an already-materialized
// list, for the path where Query is served directly from a whole cached
// array rather than from a live or cached-filter evaluation.
func applyOptions(values value.Array, o eval.Options) []value.Value {
	var out []value.Value
	for _, v := range values {
		if o.Limit > 0 && len(out) >= o.Limit {
			break
		}
		if o.Pred != nil && !o.Pred(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// CacheArray resolves path and stores its result in h's filtered-array
// cache under cacheKey (path itself, if cacheKey is omitted), so later
// queries built on cacheKey — most commonly cacheKey+"[?(...)]" — are
// answered by filtering the cached array in memory instead of re-walking
// the document.
//
// If path resolves to a single-element list whose element is itself an
// Array, that array is what gets cached (so a path like "$.store.book"
// caches the book array, not a one-element wrapper around it). If it
// resolves to more than one value, the result list itself is cached
// directly. If it resolves to nothing, nothing is cached and CacheArray
// returns nil. Like Query, a path or evaluation failure degrades to this
// same nil result rather than propagating an error.
func (h *Handle) CacheArray(path string, cacheKey ...string) []value.Value {
	key := path
	if len(cacheKey) > 0 && cacheKey[0] != "" {
		key = cacheKey[0]
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	segs, err := pathlang.Parse(path)
	if err != nil {
		slog.Warn("kjsonquery: cache array path failed to compile", "path", path, "error", err)
		return nil
	}
	results, err := eval.Run(h.source.Tokenizer(), segs, eval.Options{})
	if err != nil {
		slog.Warn("kjsonquery: cache array evaluation failed", "path", path, "error", err)
		return nil
	}

	var arr value.Array
	switch {
	case len(results) == 1:
		if a, ok := results[0].(value.Array); ok {
			arr = a
		} else {
			arr = value.Array(results)
		}
	case len(results) > 1:
		arr = value.Array(results)
	default:
		return nil
	}

	h.cache.Put(key, arr)
	return []value.Value(arr)
}

// IsArrayCached reports whether cacheKey currently has a cached entry.
func (h *Handle) IsArrayCached(cacheKey string) bool { return h.cache.Has(cacheKey) }

// InvalidateArrayCache drops the cached entry for cacheKey, if any. The
// next Query built on cacheKey re-walks the document instead of
// consulting the cache.
func (h *Handle) InvalidateArrayCache(cacheKey string) { h.cache.Invalidate(cacheKey) }

// ClearArrayCache drops every cached entry for h.
func (h *Handle) ClearArrayCache() { h.cache.Clear() }
