// Package pathlang implements the JSONPath expression compiler: a lexer
// that turns a textual path into an ordered list of [Segment] values, and a
// recursive-descent parser (in filter.go) that turns the text inside a
// `[?(...)]` segment into a [Filter] tree.
//
// The grammar accepted is deliberately small — root `$`, dotted property
// names, bracketed name/index/wildcard/filter. There is no descendant
// `..` operator, no unions, no slices, and no script functions.
package pathlang

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FeiBaoHuYu/KJsonQuery/internal/escape"
)

// Kind distinguishes the four shapes a Segment can take.
type Kind int

const (
	// Property matches an exact key in an object.
	Property Kind = iota
	// ArrayIndex selects element i of an array.
	ArrayIndex
	// AllElements is the wildcard: every element of an array, or every
	// value of an object.
	AllElements
	// FilterSeg is applicable only inside arrays; it accepts elements whose
	// materialized value satisfies the attached Filter.
	FilterSeg
)

func (k Kind) String() string {
	switch k {
	case Property:
		return "property"
	case ArrayIndex:
		return "index"
	case AllElements:
		return "*"
	case FilterSeg:
		return "filter"
	default:
		return "invalid"
	}
}

// Segment is one navigation step of a compiled path.
type Segment struct {
	Kind   Kind
	Name   string  // set when Kind == Property
	Index  int     // set when Kind == ArrayIndex
	Filter *Filter // set when Kind == FilterSeg
}

// Parse compiles a textual JSONPath into an ordered list of segments.
// Compiling the same path string twice produces equal segment lists
// (field-for-field, including equal Filter trees) since Parse holds no
// state beyond the input text.
func Parse(path string) ([]Segment, error) {
	rest, ok := strings.CutPrefix(path, "$")
	if !ok {
		return nil, fmt.Errorf("pathlang: path must start with %q", "$")
	}
	segs, err := lex(rest)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("pathlang: path has no segments after %q", "$")
	}
	return segs, nil
}

// lex scans the path one character at a time, tracking two boolean
// modes — in-bracket and in-filter — since a filter expression can itself
// contain '.', '[' and ']' that must not be treated as path-level segment
// boundaries. Segment boundaries fall at '.', '[', ']', and, while inside
// a filter, the parenthesis nesting that marks where the filter ends.
func lex(rest string) ([]Segment, error) {
	var segs []Segment
	var ident strings.Builder
	var bracket strings.Builder
	inBracket := false
	inFilter := false
	filterDepth := 0

	flushIdent := func() {
		if ident.Len() > 0 {
			segs = append(segs, Segment{Kind: Property, Name: ident.String()})
			ident.Reset()
		}
	}
	flushBracket := func() error {
		seg, err := parseBracketToken(bracket.String())
		if err != nil {
			return err
		}
		segs = append(segs, seg)
		bracket.Reset()
		return nil
	}

	for i := 0; i < len(rest); i++ {
		ch := rest[i]
		switch {
		case inBracket && inFilter:
			bracket.WriteByte(ch)
			switch ch {
			case '(':
				filterDepth++
			case ')':
				filterDepth--
				if filterDepth == 0 {
					inFilter = false
				}
			}
		case inBracket:
			switch ch {
			case '(':
				inFilter = true
				filterDepth = 1
				bracket.WriteByte(ch)
			case ']':
				inBracket = false
				if err := flushBracket(); err != nil {
					return nil, err
				}
			default:
				bracket.WriteByte(ch)
			}
		default:
			switch ch {
			case '.':
				flushIdent()
			case '[':
				flushIdent()
				inBracket = true
			default:
				ident.WriteByte(ch)
			}
		}
	}
	if inBracket {
		return nil, fmt.Errorf("pathlang: unterminated '[' in path")
	}
	flushIdent()
	return segs, nil
}

// parseBracketToken disambiguates the raw text between '[' and ']' into a
// wildcard, a numeric index, a filter (a leading '?'), or a quoted or
// bare property name.
func parseBracketToken(raw string) (Segment, error) {
	if raw == "*" {
		return Segment{Kind: AllElements}, nil
	}
	if isDigits(raw) {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			return Segment{}, fmt.Errorf("pathlang: invalid array index %q: %w", raw, err)
		}
		return Segment{Kind: ArrayIndex, Index: idx}, nil
	}
	if strings.HasPrefix(raw, "?") {
		expr := strings.TrimSpace(raw[1:])
		return Segment{Kind: FilterSeg, Filter: ParseFilter(expr)}, nil
	}
	return Segment{Kind: Property, Name: unquote(raw)}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// unquote strips a single layer of matching ' or " quotes from a bracketed
// property name and decodes any JSON escape sequences inside it, so
// ['a\tb'] and ["a\tb"] both resolve to the same three-character property
// name. A raw, unquoted bracket token (the common case) is returned as-is.
func unquote(s string) string {
	if dec, ok := escape.UnquoteLiteral(s); ok {
		return dec
	}
	return s
}
