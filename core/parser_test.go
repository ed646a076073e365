package core

import "testing"

func words(t *testing.T, src string) [][]string {
	t.Helper()
	p := NewParser(src)
	var out [][]string
	var cmd ParsedCommand
	for {
		ok, err := p.NextCommand(&cmd)
		if err != nil {
			t.Fatalf("NextCommand(%q): %v", src, err)
		}
		if !ok {
			return out
		}
		var ws []string
		for _, w := range cmd.Words {
			ws = append(ws, w.Text)
		}
		out = append(out, ws)
	}
}

func TestParserSplitsCommands(t *testing.T) {
	cmds := words(t, "set x 1\nset y 2; set z 3")
	if len(cmds) != 3 {
		t.Fatalf("got %d commands, want 3", len(cmds))
	}
	if cmds[2][2] != "3" {
		t.Errorf("cmds = %v", cmds)
	}
}

func TestParserSkipsCommentsAndBlanks(t *testing.T) {
	cmds := words(t, "# a comment\n\n  ;; \nset x 1\n# trailing")
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1: %v", len(cmds), cmds)
	}
}

func TestParserCommentOnlyAtCommandStart(t *testing.T) {
	cmds := words(t, "set x #notacomment")
	if len(cmds) != 1 || cmds[0][2] != "#notacomment" {
		t.Errorf("cmds = %v; # inside a command is an ordinary character", cmds)
	}
}

func TestParserBracedWord(t *testing.T) {
	cmds := words(t, "set x {a {nested} b}")
	if cmds[0][2] != "a {nested} b" {
		t.Errorf("braced = %q", cmds[0][2])
	}
}

func TestParserQuotedWord(t *testing.T) {
	cmds := words(t, `set x "two words; still one"`)
	if len(cmds) != 1 || cmds[0][2] != "two words; still one" {
		t.Errorf("cmds = %v", cmds)
	}
}

func TestParserBareWordKeepsBrackets(t *testing.T) {
	cmds := words(t, "set x [cmd a; b]\n")
	if cmds[0][2] != "[cmd a; b]" {
		t.Errorf("word = %q; separators inside brackets must not split", cmds[0][2])
	}
}

func TestParserLineContinuation(t *testing.T) {
	cmds := words(t, "set x \\\n    1")
	if len(cmds) != 1 || len(cmds[0]) != 3 {
		t.Errorf("cmds = %v; backslash-newline continues the command", cmds)
	}
}

func TestParserErrors(t *testing.T) {
	cases := []struct {
		src  string
		msg  string
		line int
	}{
		{"set x {", "missing close-brace", 1},
		{"set x \"abc", "missing close-quote", 1},
		{"set x [abc", "missing close-bracket", 1},
		{"ok 1\nset x {", "missing close-brace", 2},
	}
	for _, tc := range cases {
		_, err := ParseScript(tc.src)
		pe, ok := err.(*ParseError)
		if !ok {
			t.Errorf("ParseScript(%q) err = %v, want ParseError", tc.src, err)
			continue
		}
		if pe.Message != tc.msg || pe.Line != tc.line {
			t.Errorf("ParseScript(%q) = %q line %d, want %q line %d", tc.src, pe.Message, pe.Line, tc.msg, tc.line)
		}
	}
}

func TestIncomplete(t *testing.T) {
	if !Incomplete(CheckScript("while {1} {")) {
		t.Error("open brace should be incomplete")
	}
	if Incomplete(CheckScript("set x 1")) {
		t.Error("complete script reported incomplete")
	}
	if Incomplete(nil) {
		t.Error("nil error reported incomplete")
	}
}

func TestParseScriptShape(t *testing.T) {
	root, err := ParseScript("a 1\nb 2 3")
	if err != nil {
		t.Fatal(err)
	}
	if root.Kind != NodeScript || len(root.Children) != 2 {
		t.Fatalf("root = %+v", root)
	}
	second := root.Children[1]
	if second.Kind != NodeCommand || len(second.Children) != 3 {
		t.Fatalf("second command = %+v", second)
	}
	if second.Children[0].Word.Text != "b" {
		t.Errorf("command name = %q", second.Children[0].Word.Text)
	}
}

func TestSplitList(t *testing.T) {
	items, err := SplitList(`a {b c} "d e" f\ g`)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b c", "d e", `f\ g`}
	if len(items) != len(want) {
		t.Fatalf("items = %v", items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("items[%d] = %q, want %q", i, items[i], want[i])
		}
	}
}

func TestSplitListErrors(t *testing.T) {
	if _, err := SplitList("{unclosed"); err == nil {
		t.Error("unclosed brace should error")
	}
	if _, err := SplitList(`"unclosed`); err == nil {
		t.Error("unclosed quote should error")
	}
}

func TestJoinList(t *testing.T) {
	got := JoinList([]string{"a", "b c", "", "d"})
	if got != "a {b c} {} d" {
		t.Errorf("JoinList = %q", got)
	}
}
