// Package eval implements the streaming path evaluator (walking a token
// stream directly against a compiled path, entering only the subtrees a
// segment can match) and the filter-condition matcher it calls into when a
// path segment is a `[?(...)]` filter.
package eval

import (
	"fmt"
	"io"

	"github.com/FeiBaoHuYu/KJsonQuery/pathlang"
	"github.com/FeiBaoHuYu/KJsonQuery/scan"
	"github.com/FeiBaoHuYu/KJsonQuery/value"
)

// Options controls how Run collects results.
type Options struct {
	// Limit caps the number of values returned. Zero or negative means
	// unlimited.
	Limit int
	// Pred, if set, is applied to each candidate leaf value after the
	// path (and any filter segment) has already matched it; a candidate
	// for which Pred returns false is discarded without counting against
	// Limit.
	Pred func(value.Value) bool
}

func (o Options) full(n int) bool { return o.Limit > 0 && n >= o.Limit }

// Run evaluates segs against the document tokenized by s in a single
// depth-first pass, entering only the subtrees a segment can match and
// skipping everything else without materializing it. An empty document
// (s reports io.EOF on the first token) yields an empty, non-error result,
// per the source's contract for zero-length files.
func Run(s *scan.Scanner, segs []pathlang.Segment, opts Options) ([]value.Value, error) {
	if err := s.Next(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	var results []value.Value
	if err := walk(s, segs, opts, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// walk processes the value at the scanner's current token against segs,
// leaving the scanner positioned at that value's last token on return,
// exactly like value.Read's contract.
func walk(s *scan.Scanner, segs []pathlang.Segment, opts Options, results *[]value.Value) error {
	if len(segs) == 0 {
		return materialize(s, opts, results)
	}
	seg := segs[0]
	rest := segs[1:]
	switch seg.Kind {
	case pathlang.Property:
		return walkProperty(s, seg.Name, rest, opts, results)
	case pathlang.ArrayIndex:
		return walkIndex(s, seg.Index, rest, opts, results)
	case pathlang.AllElements:
		return walkAll(s, rest, opts, results)
	case pathlang.FilterSeg:
		return walkFilter(s, seg.Filter, rest, opts, results)
	default:
		return s.Skip()
	}
}

func materialize(s *scan.Scanner, opts Options, results *[]value.Value) error {
	if opts.full(len(*results)) {
		return s.Skip()
	}
	v, err := value.Read(s)
	if err != nil {
		return err
	}
	if opts.Pred != nil && !opts.Pred(v) {
		return nil
	}
	*results = append(*results, v)
	return nil
}

// skipValue advances past the value at the scanner's current position
// without materializing it, leaving the scanner at that value's last
// token. It is a no-op for scalars.
func skipValue(s *scan.Scanner) error { return s.Skip() }

func walkProperty(s *scan.Scanner, name string, rest []pathlang.Segment, opts Options, results *[]value.Value) error {
	if s.Token() != scan.LBrace {
		return s.Skip()
	}
	return iterateObjectMembers(s, func(key string) error {
		if key == name {
			return walk(s, rest, opts, results)
		}
		return skipValue(s)
	})
}

func walkIndex(s *scan.Scanner, idx int, rest []pathlang.Segment, opts Options, results *[]value.Value) error {
	if s.Token() != scan.LSquare {
		return s.Skip()
	}
	return iterateArrayElements(s, func(i int) error {
		if i == idx {
			return walk(s, rest, opts, results)
		}
		return skipValue(s)
	})
}

func walkAll(s *scan.Scanner, rest []pathlang.Segment, opts Options, results *[]value.Value) error {
	switch s.Token() {
	case scan.LSquare:
		return iterateArrayElements(s, func(int) error {
			return walk(s, rest, opts, results)
		})
	case scan.LBrace:
		return iterateObjectMembers(s, func(string) error {
			return walk(s, rest, opts, results)
		})
	default:
		return s.Skip()
	}
}

// walkFilter tests each array element against f. Because the match test
// itself requires materializing the element, a matching element is not
// re-streamed: the path's remaining segments are evaluated directly
// against the already-materialized value by evalValue instead of being
// walked against the token stream a second time.
func walkFilter(s *scan.Scanner, f *pathlang.Filter, rest []pathlang.Segment, opts Options, results *[]value.Value) error {
	if s.Token() != scan.LSquare {
		return s.Skip()
	}
	return iterateArrayElements(s, func(int) error {
		if opts.full(len(*results)) {
			return skipValue(s)
		}
		v, err := value.Read(s)
		if err != nil {
			return err
		}
		obj, ok := v.(*value.Object)
		if ok && Matches(obj, f) {
			evalValue(v, rest, opts, results)
		}
		return nil
	})
}

// iterateArrayElements walks an array whose opening '[' is the scanner's
// current token, calling fn once per element with its zero-based index.
// fn must leave the scanner positioned at the element's last token.
func iterateArrayElements(s *scan.Scanner, fn func(i int) error) error {
	if err := s.Next(); err != nil {
		return err
	}
	if s.Token() == scan.RSquare {
		return nil
	}
	i := 0
	for {
		if err := fn(i); err != nil {
			return err
		}
		if err := s.Next(); err != nil {
			return err
		}
		switch s.Token() {
		case scan.RSquare:
			return nil
		case scan.Comma:
			if err := s.Next(); err != nil {
				return err
			}
			i++
		default:
			return fmt.Errorf("eval: array element: want ',' or ']', got %v", s.Token())
		}
	}
}

// iterateObjectMembers walks an object whose opening '{' is the scanner's
// current token, calling fn once per member with its decoded key, after
// positioning the scanner at the member's value. fn must leave the
// scanner positioned at that value's last token.
func iterateObjectMembers(s *scan.Scanner, fn func(key string) error) error {
	if err := s.Next(); err != nil {
		return err
	}
	if s.Token() == scan.RBrace {
		return nil
	}
	for {
		if s.Token() != scan.String {
			return fmt.Errorf("eval: object key: want string, got %v", s.Token())
		}
		key, err := value.DecodeKey(s)
		if err != nil {
			return err
		}
		if err := s.Next(); err != nil {
			return err
		}
		if s.Token() != scan.Colon {
			return fmt.Errorf("eval: object member: want ':', got %v", s.Token())
		}
		if err := s.Next(); err != nil {
			return err
		}
		if err := fn(key); err != nil {
			return err
		}
		if err := s.Next(); err != nil {
			return err
		}
		switch s.Token() {
		case scan.RBrace:
			return nil
		case scan.Comma:
			if err := s.Next(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("eval: object member: want ',' or '}', got %v", s.Token())
		}
	}
}

// evalValue continues evaluating segs against an already-materialized
// value, for the tail of a path that follows a filter segment's match.
// It never errors: every branch it can take against an in-memory Value
// tree is total (a segment that doesn't apply to v's shape simply yields
// no results from that branch, the same behavior a token-stream walk
// would have settled into after skipping a non-conforming value).
func evalValue(v value.Value, segs []pathlang.Segment, opts Options, results *[]value.Value) {
	if opts.full(len(*results)) {
		return
	}
	if len(segs) == 0 {
		takeValue(v, opts, results)
		return
	}
	seg := segs[0]
	rest := segs[1:]
	switch seg.Kind {
	case pathlang.Property:
		obj, ok := v.(*value.Object)
		if !ok {
			return
		}
		if fv, ok := obj.Get(seg.Name); ok {
			evalValue(fv, rest, opts, results)
		}
	case pathlang.ArrayIndex:
		arr, ok := v.(value.Array)
		if !ok || seg.Index < 0 || seg.Index >= len(arr) {
			return
		}
		evalValue(arr[seg.Index], rest, opts, results)
	case pathlang.AllElements:
		switch t := v.(type) {
		case value.Array:
			for _, e := range t {
				if opts.full(len(*results)) {
					return
				}
				evalValue(e, rest, opts, results)
			}
		case *value.Object:
			for _, f := range t.Fields() {
				if opts.full(len(*results)) {
					return
				}
				evalValue(f.Value, rest, opts, results)
			}
		}
	case pathlang.FilterSeg:
		arr, ok := v.(value.Array)
		if !ok {
			return
		}
		for _, e := range arr {
			if opts.full(len(*results)) {
				return
			}
			obj, ok := e.(*value.Object)
			if !ok || !Matches(obj, seg.Filter) {
				continue
			}
			evalValue(e, rest, opts, results)
		}
	}
}

// Continue evaluates segs against an already-materialized value, appending
// matches to results subject to opts. It is the same machinery walkFilter
// uses to resume a path after a filter match, exported so the filtered-
// array cache can resume evaluation against a cached array without
// re-tokenizing anything.
func Continue(v value.Value, segs []pathlang.Segment, opts Options, results *[]value.Value) {
	evalValue(v, segs, opts, results)
}

func takeValue(v value.Value, opts Options, results *[]value.Value) {
	if opts.Pred != nil && !opts.Pred(v) {
		return
	}
	*results = append(*results, v)
}
