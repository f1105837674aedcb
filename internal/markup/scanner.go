// Package markup scans quasi-HTML snapshots without building a tree. Tokens
// are offset pairs into the scanned document; the document itself is never
// modified in place.
package markup

import (
	"errors"
	"strings"
)

// ErrUnterminatedQuote is reported by Scanner.Err when a double-quoted span
// runs to the end of the input.
var ErrUnterminatedQuote = errors.New("markup: unterminated quote")

// Kind tags a Token.
type Kind int

const (
	Content Kind = iota
	OpeningTag
	ClosingTag
)

func (k Kind) String() string {
	switch k {
	case OpeningTag:
		return "opening"
	case ClosingTag:
		return "closing"
	default:
		return "content"
	}
}

// Token is a view on a span of the document it was scanned from.
type Token struct {
	Kind  Kind
	Start int
	End   int
	// Label is the lower-cased element name for tags, empty for content.
	Label string

	src string
}

// Raw returns the token text.
func (t Token) Raw() string { return t.src[t.Start:t.End] }

// IsTag reports whether the token is an opening or closing tag.
func (t Token) IsTag() bool { return t.Kind != Content }

// SelfClosing reports whether an opening tag is written as <x ... />.
func (t Token) SelfClosing() bool {
	return t.Kind == OpeningTag && strings.HasSuffix(t.Raw(), "/>")
}

// Scanner produces tokens from a document. The zero value is not usable; use
// NewScanner.
type Scanner struct {
	src string
	pos int
	err error
}

// NewScanner returns a scanner positioned at start.
func NewScanner(src string, start int) *Scanner {
	if start < 0 || start > len(src) {
		panic("markup: scanner start out of range")
	}
	return &Scanner{src: src, pos: start}
}

// Pos returns the offset of the next unconsumed byte.
func (s *Scanner) Pos() int { return s.pos }

// Err returns ErrUnterminatedQuote once the scanner stopped on malformed
// quoting. The input from Pos onwards was not tokenized.
func (s *Scanner) Err() error { return s.err }

// Seek repositions the scanner and clears any previous error.
func (s *Scanner) Seek(pos int) {
	if pos < 0 || pos > len(s.src) {
		panic("markup: seek out of range")
	}
	s.pos = pos
	s.err = nil
}

// Next returns the next token. It returns false at end of input or when an
// unterminated quote was hit; the two cases are told apart by Err.
func (s *Scanner) Next() (Token, bool) {
	if s.err != nil || s.pos >= len(s.src) {
		return Token{}, false
	}
	start := s.pos
	i := start
	for i < len(s.src) {
		switch s.src[i] {
		case '\\':
			i += 2
		case '"':
			j, ok := skipQuote(s.src, i)
			if !ok {
				s.err = ErrUnterminatedQuote
				return Token{}, false
			}
			i = j
		case '<':
			end, st := scanTag(s.src, i)
			switch st {
			case tagFound:
				if i > start {
					s.pos = i
					return Token{Kind: Content, Start: start, End: i, src: s.src}, true
				}
				s.pos = end
				return s.tagToken(i, end), true
			case tagUnterminated:
				s.err = ErrUnterminatedQuote
				return Token{}, false
			default:
				i++
			}
		default:
			i++
		}
	}
	s.pos = len(s.src)
	return Token{Kind: Content, Start: start, End: len(s.src), src: s.src}, true
}

// NextTag skips content and returns the next tag.
func (s *Scanner) NextTag() (Token, bool) {
	for {
		tok, ok := s.Next()
		if !ok {
			return Token{}, false
		}
		if tok.IsTag() {
			return tok, true
		}
	}
}

func (s *Scanner) tagToken(start, end int) Token {
	t := Token{Kind: OpeningTag, Start: start, End: end, src: s.src}
	i := start + 1
	if s.src[i] == '/' {
		t.Kind = ClosingTag
		i++
	}
	j := i
	for j < end && !isSpace(s.src[j]) && s.src[j] != '>' && s.src[j] != '/' {
		j++
	}
	t.Label = strings.ToLower(s.src[i:j])
	return t
}

type tagStatus int

const (
	notTag tagStatus = iota
	tagFound
	tagUnterminated
)

// scanTag checks whether a tag starts at pos (which holds '<') and returns the
// offset just past its closing '>'.
func scanTag(s string, pos int) (int, tagStatus) {
	if pos+1 >= len(s) || !(isWordByte(s[pos+1]) || s[pos+1] == '/') {
		return 0, notTag
	}
	i := pos + 1
	for i < len(s) {
		switch s[i] {
		case '\\':
			i += 2
		case '"':
			j, ok := skipQuote(s, i)
			if !ok {
				return 0, tagUnterminated
			}
			i = j
		case '>':
			return i + 1, tagFound
		case '<':
			return 0, notTag
		default:
			i++
		}
	}
	return 0, notTag
}

// skipQuote returns the offset just past the quote closing the one at pos.
func skipQuote(s string, pos int) (int, bool) {
	q := s[pos]
	i := pos + 1
	for i < len(s) {
		switch s[i] {
		case '\\':
			i += 2
		case q:
			return i + 1, true
		default:
			i++
		}
	}
	return len(s), false
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 0x80 ||
		('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// IsBlank reports whether s is empty or whitespace only.
func IsBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isSpace(s[i]) {
			return false
		}
	}
	return true
}
