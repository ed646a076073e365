package core

import "fmt"

// WordKind records how a word was quoted in the source.
type WordKind int

const (
	WordBare WordKind = iota
	WordQuoted
	WordBraced
)

// Word is one lexical token of a command. Text holds the word's content:
// for braced and quoted words the delimiters are stripped; escape
// processing is deferred to substitution.
type Word struct {
	Text string
	Kind WordKind
	Line int
}

// ParseError is a lexical or syntactic error with the line it occurred on.
type ParseError struct {
	Message string
	Line    int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (line %d)", e.Message, e.Line)
}

// lexer produces words and command boundaries from raw script text.
type lexer struct {
	src  string
	pos  int
	line int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1}
}

// token kinds returned by next.
type tokKind int

const (
	tokWord tokKind = iota
	tokEnd          // newline or ";" terminating the current command
	tokEOF
)

func isHSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' }

// skipSpace consumes horizontal whitespace and line continuations.
// A backslash-newline collapses to a word separator and swallows the
// following horizontal whitespace.
func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if isHSpace(c) {
			l.pos++
			continue
		}
		if c == '\\' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '\n' {
			l.pos += 2
			l.line++
			for l.pos < len(l.src) && isHSpace(l.src[l.pos]) {
				l.pos++
			}
			continue
		}
		return
	}
}

// skipCommandGaps consumes blank lines, command separators and comments
// between commands. Called only where a new command may start.
func (l *lexer) skipCommandGaps() {
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			return
		}
		switch l.src[l.pos] {
		case '\n':
			l.pos++
			l.line++
		case ';':
			l.pos++
		case '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				// Backslash-newline continues a comment.
				if l.src[l.pos] == '\\' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '\n' {
					l.pos++
					l.line++
				}
				l.pos++
			}
		default:
			return
		}
	}
}

// next returns the next word of the current command, or a command
// terminator, or end of input.
func (l *lexer) next() (Word, tokKind, error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return Word{}, tokEOF, nil
	}
	c := l.src[l.pos]
	switch {
	case c == '\n':
		l.pos++
		l.line++
		return Word{}, tokEnd, nil
	case c == ';':
		l.pos++
		return Word{}, tokEnd, nil
	case c == '{':
		return l.braceWord()
	case c == '"':
		return l.quotedWord()
	default:
		return l.bareWord()
	}
}

// braceWord consumes a braced word: content copied literally, nested
// braces counted, no substitution. A backslash hides the following
// character from the depth count.
func (l *lexer) braceWord() (Word, tokKind, error) {
	startLine := l.line
	l.pos++ // opening brace
	start := l.pos
	depth := 1
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\\':
			if l.pos+1 < len(l.src) {
				if l.src[l.pos+1] == '\n' {
					l.line++
				}
				l.pos++
			}
		case '\n':
			l.line++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				w := Word{Text: l.src[start:l.pos], Kind: WordBraced, Line: startLine}
				l.pos++
				return w, tokWord, nil
			}
		}
		l.pos++
	}
	return Word{}, tokWord, &ParseError{Message: "missing close-brace", Line: startLine}
}

// quotedWord consumes a quoted word up to the next unescaped double
// quote. Escape recognition is deferred to substitution; the lexer only
// finds the boundary.
func (l *lexer) quotedWord() (Word, tokKind, error) {
	startLine := l.line
	l.pos++ // opening quote
	start := l.pos
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\\':
			if l.pos+1 < len(l.src) {
				if l.src[l.pos+1] == '\n' {
					l.line++
				}
				l.pos++
			}
		case '\n':
			l.line++
		case '"':
			w := Word{Text: l.src[start:l.pos], Kind: WordQuoted, Line: startLine}
			l.pos++
			return w, tokWord, nil
		}
		l.pos++
	}
	return Word{}, tokWord, &ParseError{Message: "missing close-quote", Line: startLine}
}

// bareWord consumes a bare word up to unescaped whitespace or a command
// terminator. A backslash makes the following character non-terminating.
// Command substitution brackets are kept balanced so that separators
// inside "[...]" do not split the word.
func (l *lexer) bareWord() (Word, tokKind, error) {
	startLine := l.line
	start := l.pos
	bracket := 0
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\\' && l.pos+1 < len(l.src) {
			if l.src[l.pos+1] == '\n' {
				// Line continuation terminates the word like space.
				break
			}
			l.pos += 2
			continue
		}
		if bracket == 0 && (isHSpace(c) || c == '\n' || c == ';') {
			break
		}
		switch c {
		case '[':
			bracket++
		case ']':
			if bracket > 0 {
				bracket--
			}
		case '\n':
			l.line++
		}
		l.pos++
	}
	if bracket > 0 {
		return Word{}, tokWord, &ParseError{Message: "missing close-bracket", Line: startLine}
	}
	return Word{Text: l.src[start:l.pos], Kind: WordBare, Line: startLine}, tokWord, nil
}
