package catalog

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"enigma/internal/enigma"
)

// ParseError locates a description error. It unwraps to the underlying
// error, which is always an enigma.ErrConfig.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Token is one whitespace-separated word and the line it came from.
type Token struct {
	Text string
	Line int
}

// Tokenizer splits a description into tokens and offers typed reads over
// them. Reads that fail leave the stream where it was.
type Tokenizer struct {
	toks  []Token
	pos   int
	lines int
}

// NewTokenizer reads all of r.
func NewTokenizer(r io.Reader) (*Tokenizer, error) {
	t := &Tokenizer{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		t.lines++
		for _, f := range strings.Fields(sc.Text()) {
			t.toks = append(t.toks, Token{Text: f, Line: t.lines})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read description: %w", err)
	}
	return t, nil
}

// Done reports whether every token has been consumed.
func (t *Tokenizer) Done() bool { return t.pos >= len(t.toks) }

// Line is the line of the next token, or the last line once the stream is
// exhausted.
func (t *Tokenizer) Line() int {
	if t.Done() {
		return t.lines
	}
	return t.toks[t.pos].Line
}

// Peek returns the next token without consuming it.
func (t *Tokenizer) Peek() (Token, bool) {
	if t.Done() {
		return Token{}, false
	}
	return t.toks[t.pos], true
}

// Next consumes and returns the next token.
func (t *Tokenizer) Next() (Token, error) {
	tok, ok := t.Peek()
	if !ok {
		return Token{}, t.errorf("configuration truncated")
	}
	t.pos++
	return tok, nil
}

// PeekMatches reports whether the next token matches re.
func (t *Tokenizer) PeekMatches(re *regexp.Regexp) bool {
	tok, ok := t.Peek()
	return ok && re.MatchString(tok.Text)
}

// ExpectPattern consumes the next token if it matches re. what names the
// expected item in the error otherwise.
func (t *Tokenizer) ExpectPattern(re *regexp.Regexp, what string) (Token, error) {
	tok, ok := t.Peek()
	if !ok {
		return Token{}, t.errorf("configuration truncated: missing %s", what)
	}
	if !re.MatchString(tok.Text) {
		return Token{}, t.errorf("bad %s %q", what, tok.Text)
	}
	t.pos++
	return tok, nil
}

// PeekInt returns the next token as an integer, if it is one.
func (t *Tokenizer) PeekInt() (int, bool) {
	tok, ok := t.Peek()
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(tok.Text)
	return n, err == nil
}

// NextInt consumes the next token as an integer.
func (t *Tokenizer) NextInt(what string) (int, error) {
	n, ok := t.PeekInt()
	if !ok {
		if t.Done() {
			return 0, t.errorf("configuration truncated: no %s given", what)
		}
		return 0, t.errorf("no %s given", what)
	}
	t.pos++
	return n, nil
}

func (t *Tokenizer) errorf(format string, args ...any) error {
	return atLine(t.Line(), fmt.Errorf("%w: "+format, append([]any{enigma.ErrConfig}, args...)...))
}

func atLine(line int, err error) error {
	return &ParseError{Line: line, Err: err}
}
