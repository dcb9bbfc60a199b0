package jinjac

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const wordChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_"
const wordCharsWithDigits = wordChars + "0123456789"
const digitChars = "0123456789"
const symbolClassChars = "-<>,./{}[]!#%*()+=|"

// Lexer turns a source string into a stream of Tokens with precise
// offset/line/column spans. It is shared by the top-level text scanner and
// the expression parser via the `allowStrings` argument to Next, which
// controls whether quote characters start a String token or are treated as
// plain Characters: the top-level scanner that extracts text between
// delimiters runs with allowStrings=false.
type Lexer struct {
	name string
	src  string

	offset int
	line   int
	column int

	// pendingNewline defers the line/column reset for a consumed '\n' to
	// the *next* advance: a newline is detected after advancing past it,
	// so it increments the line count on the next read, not immediately.
	// Preserve this; it affects every end-position that immediately
	// follows a newline.
	pendingNewline bool

	// comments records the span of every `{# ... #}` run consumed by
	// skipComments, in source order. A comment never produces a Token, but
	// the Parser's raw-text scanner reconstructs Text nodes by slicing
	// source bytes directly (Substr), so it needs these spans to cut
	// comment text back out of an otherwise-contiguous run.
	comments []Span
}

// CommentsBetween returns the comment spans lexed strictly within
// [start, end), in source order.
func (l *Lexer) CommentsBetween(start, end int) []Span {
	var out []Span
	for _, c := range l.comments {
		if c.Start.Offset >= start && c.End.Offset <= end {
			out = append(out, c)
		}
	}
	return out
}

func NewLexer(name, src string) *Lexer {
	return &Lexer{name: name, src: src, line: 1, column: 0}
}

func (l *Lexer) pos() Position {
	return Position{Offset: l.offset, Line: l.line, Column: l.column}
}

func (l *Lexer) eos() bool {
	return l.offset >= len(l.src)
}

// chr returns the current rune as a one-rune string, or "" at end of
// stream.
func (l *Lexer) chr() string {
	if l.eos() {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.offset:])
	return string(r)
}

// Substr returns the raw source text between two byte offsets, used by
// the Parser's top-level driver to materialize Text nodes.
func (l *Lexer) Substr(start, end int) string {
	return l.src[start:end]
}

func (l *Lexer) peekRune() rune {
	if l.eos() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.offset:])
	return r
}

func (l *Lexer) advanceRune() rune {
	if l.pendingNewline {
		l.line++
		l.column = 0
		l.pendingNewline = false
	}
	r, w := utf8.DecodeRuneInString(l.src[l.offset:])
	l.offset += w
	l.column++
	if r == '\n' {
		l.pendingNewline = true
	}
	return r
}

func (l *Lexer) skipWhitespace() {
	for !l.eos() {
		switch l.peekRune() {
		case ' ', '\t', '\n', '\r':
			l.advanceRune()
		default:
			return
		}
	}
}

// skipComments discards any run of `{# ... #}` single-line-or-multi-line
// comments at the current position. Comments never produce a token and
// contribute no AST node.
func (l *Lexer) skipComments() error {
	for strings.HasPrefix(l.src[l.offset:], "{#") {
		start := l.pos()
		l.advanceRune()
		l.advanceRune()
		closed := false
		for !l.eos() {
			if strings.HasPrefix(l.src[l.offset:], "#}") {
				l.advanceRune()
				l.advanceRune()
				closed = true
				break
			}
			l.advanceRune()
		}
		if !closed {
			return newSyntaxError(Span{start, l.pos()}, "comment not closed")
		}
		l.comments = append(l.comments, Span{Start: start, End: l.pos()})
		l.skipWhitespace()
	}
	return nil
}

func inClass(r rune, class string) bool {
	return strings.ContainsRune(class, r)
}

// Next scans and returns the single next Token. `allowStrings` selects
// whether a quote character opens a String literal (true, used by the
// expression parser) or is treated as an ordinary Character (false, used
// by the top-level text scanner).
func (l *Lexer) Next(allowStrings bool) (Token, error) {
	l.skipWhitespace()
	if err := l.skipComments(); err != nil {
		return Token{}, err
	}
	l.skipWhitespace()

	start := l.pos()

	if l.eos() {
		return Token{Typ: TokenEOF, Span: Span{Start: start, End: start}}, nil
	}

	r := l.peekRune()

	switch {
	case inClass(r, digitChars):
		for !l.eos() && inClass(l.peekRune(), digitChars) {
			l.advanceRune()
		}
		if !l.eos() && l.peekRune() == '.' {
			l.advanceRune()
			for !l.eos() && inClass(l.peekRune(), digitChars) {
				l.advanceRune()
			}
		}
		end := l.pos()
		lexeme := l.Substr(start.Offset, end.Offset)
		val, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return Token{}, newSyntaxError(Span{start, end}, "malformed number %q", lexeme)
		}
		return Token{Typ: TokenNumber, Val: lexeme, Number: val, Span: Span{Start: start, End: end}}, nil

	case inClass(r, wordChars):
		for !l.eos() && inClass(l.peekRune(), wordCharsWithDigits) {
			l.advanceRune()
		}
		end := l.pos()
		return Token{Typ: TokenIdentifier, Val: l.Substr(start.Offset, end.Offset), Span: Span{Start: start, End: end}}, nil

	case allowStrings && (r == '"' || r == '\''):
		quote := r
		l.advanceRune()
		contentStart := l.pos()
		for {
			if l.eos() {
				return Token{}, newSyntaxError(Span{start, l.pos()}, "string not closed")
			}
			c := l.peekRune()
			if c == quote {
				break
			}
			if c == '\\' {
				l.advanceRune()
				if l.eos() {
					return Token{}, newSyntaxError(Span{start, l.pos()}, "string not closed")
				}
				l.advanceRune()
				continue
			}
			l.advanceRune()
		}
		contentEnd := l.pos()
		l.advanceRune() // closing quote
		end := l.pos()
		return Token{Typ: TokenString, Val: l.Substr(contentStart.Offset, contentEnd.Offset), Span: Span{Start: start, End: end}}, nil

	case inClass(r, symbolClassChars):
		for _, sym := range symbolTable {
			if strings.HasPrefix(l.src[l.offset:], sym) {
				for range []rune(sym) {
					l.advanceRune()
				}
				end := l.pos()
				return Token{Typ: TokenSymbol, Val: sym, Span: Span{Start: start, End: end}}, nil
			}
		}
		// In the symbol class but not in the closed table (e.g. a bare
		// '#' outside a comment): fall through to a plain Character.
		l.advanceRune()
		end := l.pos()
		return Token{Typ: TokenCharacter, Val: l.Substr(start.Offset, end.Offset), Span: Span{Start: start, End: end}}, nil

	default:
		l.advanceRune()
		end := l.pos()
		return Token{Typ: TokenCharacter, Val: l.Substr(start.Offset, end.Offset), Span: Span{Start: start, End: end}}, nil
	}
}
