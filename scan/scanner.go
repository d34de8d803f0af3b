// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package scan implements a pull-style lexical tokenizer for JSON text.
//
// Tokenizing JSON correctly is a solved problem, not the interesting part
// of this module, so the scanner is kept deliberately small: it is never
// asked to do more than hand its caller one token at a time, on request.
package scan

import (
	"fmt"
	"io"
	"strings"

	"go4.org/mem"
)

// Token is the type of a lexical token in the JSON grammar.
type Token byte

// Constants defining the valid Token values.
const (
	Invalid Token = iota // invalid token
	LBrace               // left brace "{"
	RBrace               // right brace "}"
	LSquare              // left square bracket "["
	RSquare              // right square bracket "]"
	Comma                // comma ","
	Colon                // colon ":"
	Integer              // number: integer with no fraction or exponent
	Number               // number with fraction and/or exponent
	String               // quoted string
	True                 // constant: true
	False                // constant: false
	Null                 // constant: null
)

var tokenStr = [...]string{
	Invalid: "invalid token",
	LBrace:  `"{"`,
	RBrace:  `"}"`,
	LSquare: `"["`,
	RSquare: `"]"`,
	Comma:   `","`,
	Colon:   `":"`,
	Integer: "integer",
	Number:  "number",
	String:  "string",
	True:    "true",
	False:   "false",
	Null:    "null",
}

func (t Token) String() string {
	v := int(t)
	if v >= len(tokenStr) {
		return tokenStr[Invalid]
	}
	return tokenStr[v]
}

// A Scanner tokenizes an immutable byte slice in place.
//
// Scanner reads directly from the buffer it was constructed with, which is
// expected to back a memory-mapped, read-only file. It performs no copying
// except when the caller asks for one via Copy.
type Scanner struct {
	buf []byte // the entire source; never mutated
	pos int    // byte offset of the next unread byte

	tok      Token
	start    int // start offset of current token
	end      int // end offset of current token (exclusive)
	textFrom int // start offset of token text, for Text()
	err      error
}

// NewScanner constructs a Scanner that reads from buf starting at offset 0.
// buf is retained, not copied; the caller must not mutate it while the
// Scanner is in use.
func NewScanner(buf []byte) *Scanner {
	return &Scanner{buf: buf}
}

// Next advances s to the next token of the input, or reports an error.
// At the end of the input, Next returns io.EOF.
func (s *Scanner) Next() error {
	s.err = nil
	s.tok = Invalid

	for {
		if s.pos >= len(s.buf) {
			return s.setErr(io.EOF)
		}
		ch := s.buf[s.pos]
		if isSpace(ch) {
			s.pos++
			continue
		}
		s.start = s.pos
		if t, ok := selfDelim(ch); ok {
			s.pos++
			s.end = s.pos
			s.tok = t
			s.textFrom = s.start
			return nil
		}
		if ch == '"' {
			return s.scanString()
		}
		if isNumStart(ch) {
			return s.scanNumber()
		}
		switch ch {
		case 't':
			return s.scanKeyword("true", True)
		case 'f':
			return s.scanKeyword("false", False)
		case 'n':
			return s.scanKeyword("null", Null)
		}
		return s.failf("unexpected byte %q", ch)
	}
}

// Token returns the type of the current token.
func (s *Scanner) Token() Token { return s.tok }

// Err returns the last error reported by Next.
func (s *Scanner) Err() error { return s.err }

// Text returns the undecoded text of the current token. For a String token
// this includes the enclosing quotation marks. The slice aliases the
// Scanner's backing buffer and must not be retained past the unmapping of
// the source file; call Copy if the text must outlive the handle.
func (s *Scanner) Text() []byte { return s.buf[s.textFrom:s.end] }

// Copy returns an owned copy of the undecoded text of the current token.
func (s *Scanner) Copy() []byte { return append([]byte(nil), s.Text()...) }

// Pos returns the byte offset at which the current token starts.
func (s *Scanner) Pos() int { return s.start }

// Skip advances past the current value without materializing it. If the
// current token opens an object or array, Skip consumes tokens up to and
// including the matching close bracket; for any other token it is a no-op.
func (s *Scanner) Skip() error {
	switch s.tok {
	case LBrace:
		return s.skipContainer(LBrace, RBrace)
	case LSquare:
		return s.skipContainer(LSquare, RSquare)
	default:
		return nil
	}
}

func (s *Scanner) skipContainer(open, close Token) error {
	depth := 1
	for depth > 0 {
		if err := s.Next(); err != nil {
			return err
		}
		switch s.tok {
		case open:
			depth++
		case close:
			depth--
		}
	}
	return nil
}

func (s *Scanner) scanString() error {
	i := s.pos + 1 // skip opening quote
	for i < len(s.buf) {
		ch := s.buf[i]
		if ch == '\\' {
			i += 2
			continue
		}
		if ch == '"' {
			i++
			s.pos = i
			s.end = i
			s.textFrom = s.start
			s.tok = String
			return nil
		}
		if ch < 0x20 {
			return s.failf("unescaped control byte in string")
		}
		i++
	}
	return s.failf("unterminated string literal")
}

func (s *Scanner) scanNumber() error {
	i := s.pos
	if s.buf[i] == '-' {
		i++
	}
	if i >= len(s.buf) || !isDigit(s.buf[i]) {
		return s.failf("invalid number: missing digits")
	}
	for i < len(s.buf) && isDigit(s.buf[i]) {
		i++
	}
	isFloat := false
	if i < len(s.buf) && s.buf[i] == '.' {
		isFloat = true
		i++
		start := i
		for i < len(s.buf) && isDigit(s.buf[i]) {
			i++
		}
		if i == start {
			return s.failf("invalid number: no digits after decimal point")
		}
	}
	if i < len(s.buf) && (s.buf[i] == 'e' || s.buf[i] == 'E') {
		isFloat = true
		i++
		if i < len(s.buf) && (s.buf[i] == '+' || s.buf[i] == '-') {
			i++
		}
		start := i
		for i < len(s.buf) && isDigit(s.buf[i]) {
			i++
		}
		if i == start {
			return s.failf("invalid number: missing exponent digits")
		}
	}
	s.pos = i
	s.end = i
	s.textFrom = s.start
	if isFloat {
		s.tok = Number
	} else {
		s.tok = Integer
	}
	return nil
}

func (s *Scanner) scanKeyword(word string, tok Token) error {
	end := s.pos + len(word)
	if end > len(s.buf) || !mem.B(s.buf[s.pos:end]).EqualString(word) {
		return s.failf("unknown constant near %q", previewOf(s.buf[s.pos:]))
	}
	s.pos = end
	s.end = end
	s.textFrom = s.start
	s.tok = tok
	return nil
}

func previewOf(b []byte) string {
	const n = 12
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

func (s *Scanner) setErr(err error) error {
	s.err = err
	return err
}

func (s *Scanner) failf(msg string, args ...any) error {
	return s.setErr(&posError{pos: s.pos, err: fmt.Errorf(msg, args...)})
}

type posError struct {
	pos int
	err error
}

func (p *posError) Error() string { return fmt.Sprintf("%s (offset %d)", p.err.Error(), p.pos) }
func (p *posError) Unwrap() error { return p.err }

func isSpace(ch byte) bool    { return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' }
func isDigit(ch byte) bool    { return ch >= '0' && ch <= '9' }
func isNumStart(ch byte) bool { return ch == '-' || isDigit(ch) }

var self = [...]Token{LBrace, RBrace, LSquare, RSquare, Comma, Colon}

func selfDelim(ch byte) (Token, bool) {
	i := strings.IndexByte("{}[],:", ch)
	if i >= 0 {
		return self[i], true
	}
	return Invalid, false
}
