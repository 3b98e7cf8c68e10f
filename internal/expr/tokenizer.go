package expr

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// scanner splits an expression into tokens. It tracks byte offsets so every
// token (and every error) carries the column it starts at.
type scanner struct {
	src string
	off int
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

func (s *scanner) skipSpace() {
	for s.off < len(s.src) {
		switch s.src[s.off] {
		case ' ', '\t', '\n', '\r':
			s.off++
		default:
			return
		}
	}
}

// next returns the following token, or a *ParseError for characters outside
// the grammar.
func (s *scanner) next() (token, error) {
	s.skipSpace()
	if s.off >= len(s.src) {
		return token{kind: tokEOF, pos: Pos(s.off + 1)}, nil
	}
	start := s.off
	pos := Pos(start + 1)
	c := s.src[s.off]

	switch {
	case isDigit(c) || (c == '.' && s.off+1 < len(s.src) && isDigit(s.src[s.off+1])):
		return s.scanNumber(start, pos)
	case isIdentStart(c):
		s.off++
		for s.off < len(s.src) && isIdentPart(s.src[s.off]) {
			s.off++
		}
		return token{kind: tokIdent, pos: pos, text: s.src[start:s.off]}, nil
	}

	s.off++
	switch c {
	case '+':
		return token{kind: tokPlus, pos: pos, text: "+"}, nil
	case '-':
		return token{kind: tokMinus, pos: pos, text: "-"}, nil
	case '*':
		if s.off < len(s.src) && s.src[s.off] == '*' {
			s.off++
			return token{kind: tokPow, pos: pos, text: "**"}, nil
		}
		return token{kind: tokStar, pos: pos, text: "*"}, nil
	case '^':
		// ^ is accepted as an alias for ** to match common calculator input.
		return token{kind: tokPow, pos: pos, text: "^"}, nil
	case '/':
		return token{kind: tokSlash, pos: pos, text: "/"}, nil
	case '(':
		return token{kind: tokLParen, pos: pos, text: "("}, nil
	case ')':
		return token{kind: tokRParen, pos: pos, text: ")"}, nil
	}

	r, _ := utf8.DecodeRuneInString(s.src[start:])
	return token{}, parseErrorf(pos, "unexpected character %q", r)
}

// scanNumber accepts decimal literals with an optional fraction and an
// optional e/E exponent.
func (s *scanner) scanNumber(start int, pos Pos) (token, error) {
	for s.off < len(s.src) && isDigit(s.src[s.off]) {
		s.off++
	}
	if s.off < len(s.src) && s.src[s.off] == '.' {
		s.off++
		for s.off < len(s.src) && isDigit(s.src[s.off]) {
			s.off++
		}
	}
	if s.off < len(s.src) && (s.src[s.off] == 'e' || s.src[s.off] == 'E') {
		mark := s.off
		s.off++
		if s.off < len(s.src) && (s.src[s.off] == '+' || s.src[s.off] == '-') {
			s.off++
		}
		if s.off >= len(s.src) || !isDigit(s.src[s.off]) {
			// A bare "1e" is an identifier boundary, not an exponent.
			s.off = mark
		} else {
			for s.off < len(s.src) && isDigit(s.src[s.off]) {
				s.off++
			}
		}
	}
	text := s.src[start:s.off]
	val, err := strconv.ParseFloat(strings.TrimSuffix(text, "."), 64)
	if err != nil {
		return token{}, parseErrorf(pos, "malformed number %q", text)
	}
	return token{kind: tokNumber, pos: pos, text: text, val: val}, nil
}
