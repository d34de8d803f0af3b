// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package escape decodes JSON string escape sequences, both for object
// keys and values read off the token stream and for quoted text embedded
// in a compiled path — a bracketed property name or a filter condition's
// string literal goes through the same escape grammar as a JSON string,
// so there is one decoder for both.
package escape

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go4.org/mem"
)

// Unquote decodes a byte slice containing the JSON encoding of a string. The
// input must have the enclosing double quotation marks already removed.
//
// Escape sequences are replaced with their unescaped equivalents. Invalid
// escapes are replaced by the Unicode replacement rune. Unquote reports an
// error for an incomplete escape sequence.
func Unquote(src mem.RO) ([]byte, error) {
	return decode(src)
}

// UnquoteLiteral strips a single layer of enclosing ' or " quotes from s,
// if present, and decodes JSON escape sequences in the remaining text. It
// reports ok=false if s is not a quoted literal at all, leaving the
// caller free to try some other interpretation of the raw token (a bare
// property name, a number, a keyword). This is what a path compiler uses
// for both a bracketed property name like ['a\tb'] and a filter
// condition's quoted literal like "a\tb".
func UnquoteLiteral(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	quote := s[0]
	if (quote != '\'' && quote != '"') || s[len(s)-1] != quote {
		return "", false
	}
	inner := s[1 : len(s)-1]
	// A single-quoted literal may escape its own quote as \', which the
	// JSON escape grammar lacks, so that escape is rewritten to a bare '
	// before decoding; every other escape sequence follows JSON's rules
	// (\n, \uXXXX, and so on).
	if quote == '\'' {
		inner = strings.ReplaceAll(inner, `\'`, `'`)
	}
	dec, err := decode(mem.S(inner))
	if err != nil {
		return "", false
	}
	return string(dec), true
}

func decode(src mem.RO) ([]byte, error) {
	dec := make([]byte, 0, src.Len())
	i := mem.IndexByte(src, '\\')
	if i < 0 {
		dec = mem.Append(dec, src)
		return dec, nil
	}

	putByte := func(bs ...byte) { dec = append(dec, bs...) }
	putRune := func(r rune) {
		var buf [6]byte
		n := utf8.EncodeRune(buf[:], r)
		dec = append(dec, buf[:n]...)
	}
	for src.Len() != 0 {
		dec = mem.Append(dec, src.SliceTo(i))

		// Decode the next rune after the escape to figure out what to
		// substitute. There should not be errors here, but if there are, insert
		// replacement runes (utf8.RuneError == '�').
		src = src.SliceFrom(i + 1)
		if src.Len() == 0 {
			return nil, errors.New("incomplete escape sequence")
		}
		r, n := mem.DecodeRune(src)
		if n == 0 {
			n++
		}

		src = src.SliceFrom(n)
		switch r {
		case '"', '\\', '/':
			putByte(byte(r))
		case 'b':
			putByte('\b')
		case 'f':
			putByte('\f')
		case 'n':
			putByte('\n')
		case 'r':
			putByte('\r')
		case 't':
			putByte('\t')
		case 'u':
			if src.Len() < 4 {
				return nil, errors.New("incomplete Unicode escape")
			}
			v, err := parseHex(src.SliceTo(4))
			if err != nil {
				putRune(utf8.RuneError)
			} else {
				putRune(rune(v))
			}
			src = src.SliceFrom(4)
		default:
			putRune(utf8.RuneError)
		}

		// Look for the next escape sequence, and if one is not found we can blit
		// the rest of the input and go home.
		i = mem.IndexByte(src, '\\')
		if i < 0 {
			dec = mem.Append(dec, src)
			break
		}
	}
	return dec, nil
}

func parseHex(data mem.RO) (int64, error) {
	var v int64
	for i := 0; i < data.Len(); i++ {
		b := data.At(i)
		v <<= 4
		if '0' <= b && b <= '9' {
			v += int64(b - '0')
		} else if 'a' <= b && b <= 'f' {
			v += int64(b - 'a' + 10)
		} else if 'A' <= b && b <= 'F' {
			v += int64(b - 'A' + 10)
		} else {
			return 0, fmt.Errorf("invalid hex digit %q", b)
		}
	}
	return v, nil
}
