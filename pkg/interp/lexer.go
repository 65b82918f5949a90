package interp

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// The lexer splits template source into text and ${ expr } placeholders.
// "$${" is a literal "${". Inside a placeholder, brackets and Starlark string
// literals are tracked so that a '}' belonging to the expression does not
// close the placeholder.

var (
	ErrUnterminatedPlaceholder = errors.New("unterminated placeholder")
	ErrUnterminatedString      = errors.New("unterminated string literal")
	ErrEmptyPlaceholder        = errors.New("empty placeholder")
	ErrUnbalanced              = errors.New("unbalanced brackets in placeholder")
)

// Expr is the source of one placeholder and where it starts.
type Expr struct {
	Src  string
	Pos  int // byte offset of the expression (after "${")
	Line int
	Col  int
}

// program returns the expression as Starlark source. The parentheses let
// the expression span lines and start with whitespace.
func (e Expr) program() string {
	return "(" + e.Src + "\n)"
}

type lexer struct {
	name string
	src  string
	i    int
	n    int

	texts []string
	exprs []Expr
}

func newLexer(name, src string) *lexer {
	return &lexer{name: name, src: src, n: len(src)}
}

func (l *lexer) peek() byte {
	if l.i >= l.n {
		return 0
	}
	return l.src[l.i]
}

func (l *lexer) match(s string) bool {
	if strings.HasPrefix(l.src[l.i:], s) {
		l.i += len(s)
		return true
	}
	return false
}

// lex runs to the end of the source. On success len(texts) == len(exprs)+1.
func (l *lexer) lex() error {
	var text strings.Builder
	for l.i < l.n {
		switch {
		case l.match("$${"):
			text.WriteString("${")
		case l.match("${"):
			l.texts = append(l.texts, text.String())
			text.Reset()
			if err := l.lexPlaceholder(); err != nil {
				return err
			}
		default:
			text.WriteByte(l.src[l.i])
			l.i++
		}
	}
	l.texts = append(l.texts, text.String())
	return nil
}

// lexPlaceholder scans one expression; l.i points just past "${".
func (l *lexer) lexPlaceholder() error {
	open := l.i - 2
	start := l.i
	depth := 0
	for l.i < l.n {
		c := l.src[l.i]
		switch c {
		case '\'', '"':
			if err := l.skipString(); err != nil {
				return err
			}
			continue
		case '#':
			for l.i < l.n && l.src[l.i] != '\n' {
				l.i++
			}
			continue
		case '(', '[', '{':
			depth++
		case ')', ']':
			if depth == 0 {
				return l.errorAt(l.i, ErrUnbalanced)
			}
			depth--
		case '}':
			if depth == 0 {
				src := l.src[start:l.i]
				if strings.TrimSpace(src) == "" {
					return l.errorAt(open, ErrEmptyPlaceholder)
				}
				line, col := position(l.src, start)
				l.exprs = append(l.exprs, Expr{Src: src, Pos: start, Line: line, Col: col})
				l.i++
				return nil
			}
			depth--
		}
		l.i++
	}
	return l.errorAt(open, ErrUnterminatedPlaceholder)
}

// skipString advances past a Starlark string literal, including triple
// quoted ones. Prefixes such as r or b are ordinary identifier bytes and
// need no handling here.
func (l *lexer) skipString() error {
	start := l.i
	q := l.src[l.i]
	triple := strings.Repeat(string(q), 3)
	if l.match(triple) {
		for l.i < l.n {
			if l.src[l.i] == '\\' {
				l.i += 2
				continue
			}
			if l.match(triple) {
				return nil
			}
			l.i++
		}
		return l.errorAt(start, ErrUnterminatedString)
	}
	l.i++
	for l.i < l.n {
		switch l.src[l.i] {
		case '\\':
			l.i += 2
			continue
		case '\n':
			return l.errorAt(start, ErrUnterminatedString)
		case q:
			l.i++
			return nil
		}
		l.i++
	}
	return l.errorAt(start, ErrUnterminatedString)
}

func (l *lexer) errorAt(offset int, err error) error {
	line, col := position(l.src, offset)
	return &PosError{Name: l.name, Line: line, Col: col, Err: err}
}

// position converts a byte offset to a 1-based line and rune column.
func position(src string, offset int) (line, col int) {
	offset = min(offset, len(src))
	prefix := src[:offset]
	line = strings.Count(prefix, "\n") + 1
	if nl := strings.LastIndexByte(prefix, '\n'); nl >= 0 {
		prefix = prefix[nl+1:]
	}
	return line, utf8.RuneCountInString(prefix) + 1
}
