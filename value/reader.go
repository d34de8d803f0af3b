package value

import (
	"fmt"
	"strconv"

	"go4.org/mem"

	"github.com/FeiBaoHuYu/KJsonQuery/internal/escape"
	"github.com/FeiBaoHuYu/KJsonQuery/scan"
)

// Read materializes the value at the scanner's current token into a Value,
// recursing into objects and arrays. The scanner must already be
// positioned at the first token of the value (as it is immediately after
// Next returns nil); on return it is positioned at the last token
// consumed, so a caller's own subsequent Next resumes at the following
// sibling token rather than re-reading part of the value just materialized.
//
// Unrecognized tokens (there should be none from a conforming tokenizer)
// are treated as Null rather than propagating an error, so a stray token
// the scanner's grammar didn't anticipate degrades a single value instead
// of aborting the whole read.
func Read(s *scan.Scanner) (Value, error) {
	switch s.Token() {
	case scan.LBrace:
		return readObject(s)
	case scan.LSquare:
		return readArray(s)
	case scan.String:
		return readString(s)
	case scan.Integer:
		return readInteger(s)
	case scan.Number:
		return readFloat(s)
	case scan.True:
		return Bool(true), nil
	case scan.False:
		return Bool(false), nil
	case scan.Null:
		return Null{}, nil
	default:
		return Null{}, nil
	}
}

func readObject(s *scan.Scanner) (Value, error) {
	obj := NewObject()
	if err := s.Next(); err != nil {
		return nil, err
	}
	if s.Token() == scan.RBrace {
		return obj, nil
	}
	for {
		if s.Token() != scan.String {
			return nil, fmt.Errorf("object key: want string, got %v", s.Token())
		}
		key, err := DecodeKey(s)
		if err != nil {
			return nil, err
		}
		if err := s.Next(); err != nil {
			return nil, err
		}
		if s.Token() != scan.Colon {
			return nil, fmt.Errorf("object member: want ':', got %v", s.Token())
		}
		if err := s.Next(); err != nil {
			return nil, err
		}
		v, err := Read(s)
		if err != nil {
			return nil, err
		}
		obj.Put(key, v)

		if err := s.Next(); err != nil {
			return nil, err
		}
		switch s.Token() {
		case scan.RBrace:
			return obj, nil
		case scan.Comma:
			if err := s.Next(); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("object member: want ',' or '}', got %v", s.Token())
		}
	}
}

func readArray(s *scan.Scanner) (Value, error) {
	var arr Array
	if err := s.Next(); err != nil {
		return nil, err
	}
	if s.Token() == scan.RSquare {
		return arr, nil
	}
	for {
		v, err := Read(s)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)

		if err := s.Next(); err != nil {
			return nil, err
		}
		switch s.Token() {
		case scan.RSquare:
			return arr, nil
		case scan.Comma:
			if err := s.Next(); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("array element: want ',' or ']', got %v", s.Token())
		}
	}
}

func readString(s *scan.Scanner) (Value, error) {
	str, err := DecodeKey(s)
	if err != nil {
		return nil, err
	}
	return String(str), nil
}

// DecodeKey strips the enclosing quotes from the current String token and
// unescapes its contents. Exported so callers that walk object members
// without materializing every value (the streaming evaluator) can decode
// just the key.
func DecodeKey(s *scan.Scanner) (string, error) {
	text := s.Text()
	if len(text) < 2 {
		return "", fmt.Errorf("malformed string literal %q", text)
	}
	dec, err := escape.Unquote(mem.B(text[1 : len(text)-1]))
	if err != nil {
		return "", err
	}
	return string(dec), nil
}

// readInteger parses the current Integer token, falling back to Float if
// the literal overflows int64, and to the raw literal text as a String
// if it isn't valid floating point either (some exotic but lexically
// valid number shapes overflow float64's exponent range too).
func readInteger(s *scan.Scanner) (Value, error) {
	text := string(s.Text())
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Integer(n), nil
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return Float(f), nil
	}
	return String(text), nil
}

func readFloat(s *scan.Scanner) (Value, error) {
	text := string(s.Text())
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return Float(f), nil
	}
	return String(text), nil
}
