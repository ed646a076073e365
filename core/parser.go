package core

// NodeKind discriminates AST node variants.
type NodeKind int

const (
	NodeScript NodeKind = iota
	NodeCommand
	NodeWord
)

// AstNode is a persistent parse tree node. Script nodes hold commands,
// command nodes hold words. AST nodes outlive any single evaluator call
// so that suspended coroutines can resume against them; they must never
// reference transient storage.
type AstNode struct {
	Kind     NodeKind
	Children []*AstNode
	Word     Word // set for NodeWord
	Line     int
}

// MaxCommandWords bounds the number of words in a single command.
// Exceeding it is a parse error.
const MaxCommandWords = 1024

// ParsedCommand collects one command's words on the transient path. The
// slice is reset and reused between commands; callers must not retain it
// across NextCommand calls.
type ParsedCommand struct {
	Words []Word
	Line  int
}

// Parser splits a script into commands. The transient mode fills a
// ParsedCommand per call; ParseScript builds a persistent AST instead,
// for scripts that may be evaluated through the continuation machinery.
type Parser struct {
	lex *lexer
}

// NewParser returns a parser over src.
func NewParser(src string) *Parser {
	return &Parser{lex: newLexer(src)}
}

// NextCommand fills cmd with the next command's words, skipping blank
// lines and comments. It returns false with a nil error at end of input.
func (p *Parser) NextCommand(cmd *ParsedCommand) (bool, error) {
	cmd.Words = cmd.Words[:0]
	p.lex.skipCommandGaps()
	cmd.Line = p.lex.line
	for {
		w, kind, err := p.lex.next()
		if err != nil {
			return false, err
		}
		switch kind {
		case tokEOF:
			return len(cmd.Words) > 0, nil
		case tokEnd:
			if len(cmd.Words) == 0 {
				// Empty command; keep scanning.
				p.lex.skipCommandGaps()
				cmd.Line = p.lex.line
				continue
			}
			return true, nil
		case tokWord:
			if len(cmd.Words) >= MaxCommandWords {
				return false, &ParseError{Message: "too many words in command", Line: w.Line}
			}
			cmd.Words = append(cmd.Words, w)
		}
	}
}

// CheckScript parses src without evaluating it and returns the first
// syntax error, if any. REPLs use it to decide whether input is ready.
func CheckScript(src string) error {
	_, err := ParseScript(src)
	return err
}

// Incomplete reports whether a parse error means the input ends inside
// an open brace, quote or bracket, so more input could complete it.
func Incomplete(err error) bool {
	pe, ok := err.(*ParseError)
	if !ok {
		return false
	}
	switch pe.Message {
	case "missing close-brace", "missing close-quote", "missing close-bracket":
		return true
	}
	return false
}

// ParseScript parses src into a persistent AST rooted at a script node.
// Used when a script may later be suspended and resumed: the tree, unlike
// transient ParsedCommands, survives across evaluator invocations.
func ParseScript(src string) (*AstNode, error) {
	p := NewParser(src)
	root := &AstNode{Kind: NodeScript, Line: 1}
	var cmd ParsedCommand
	for {
		ok, err := p.NextCommand(&cmd)
		if err != nil {
			return nil, err
		}
		if !ok {
			return root, nil
		}
		node := &AstNode{Kind: NodeCommand, Line: cmd.Line}
		for _, w := range cmd.Words {
			node.Children = append(node.Children, &AstNode{Kind: NodeWord, Word: w, Line: w.Line})
		}
		root.Children = append(root.Children, node)
	}
}
