package core

// Substitution: bare and quoted words get a single left-to-right scan
// applying backslash escapes, "$name" variable references and "[...]"
// command substitution. Braced words are copied literally. The scanning
// helpers here are shared between the transient recursive path and the
// continuation machine's incremental Word phase.

// substEscape decodes the backslash sequence starting at s[pos] (which
// is '\\') and returns the replacement text and the position after it.
// Unknown sequences pass the escaped character through literally.
func substEscape(s string, pos int) (string, int) {
	if pos+1 >= len(s) {
		return "\\", pos + 1
	}
	c := s[pos+1]
	switch c {
	case 'a':
		return "\a", pos + 2
	case 'b':
		return "\b", pos + 2
	case 'f':
		return "\f", pos + 2
	case 'n':
		return "\n", pos + 2
	case 'r':
		return "\r", pos + 2
	case 't':
		return "\t", pos + 2
	case 'v':
		return "\v", pos + 2
	case '\n':
		// Line continuation: fold to one space and swallow the
		// following horizontal whitespace.
		end := pos + 2
		for end < len(s) && isHSpace(s[end]) {
			end++
		}
		return " ", end
	default:
		return s[pos+1 : pos+2], pos + 2
	}
}

func isVarNameChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// scanVarRef parses the variable reference starting at s[pos] (which is
// '$'). It handles "$name", "${name}" and "$arr(key)"; the array key
// text is taken literally. ok is false when no variable name follows,
// in which case the dollar sign is literal.
func scanVarRef(s string, pos int) (name string, end int, ok bool, err error) {
	i := pos + 1
	if i < len(s) && s[i] == '{' {
		j := i + 1
		for j < len(s) && s[j] != '}' {
			j++
		}
		if j >= len(s) {
			return "", pos, false, &ParseError{Message: "missing close-brace for variable name"}
		}
		return s[i+1 : j], j + 1, true, nil
	}
	j := i
	for j < len(s) {
		if isVarNameChar(s[j]) {
			j++
			continue
		}
		// Namespace separator "::" keeps the name going.
		if s[j] == ':' && j+1 < len(s) && s[j+1] == ':' {
			j += 2
			continue
		}
		break
	}
	if j == i {
		return "", pos, false, nil
	}
	if j < len(s) && s[j] == '(' {
		k := j + 1
		for k < len(s) && s[k] != ')' {
			k++
		}
		if k >= len(s) {
			return "", pos, false, &ParseError{Message: "missing )"}
		}
		return s[i:k] + ")", k + 1, true, nil
	}
	return s[i:j], j, true, nil
}

// scanBracket finds the end of the "[...]" command substitution starting
// at s[pos] (which is '['). It returns the index of the matching close
// bracket. Backslashes hide the following character from the scan.
func scanBracket(s string, pos int) (int, error) {
	depth := 1
	i := pos + 1
	for i < len(s) {
		switch s[i] {
		case '\\':
			i++
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
		i++
	}
	return 0, &ParseError{Message: "missing close-bracket"}
}

// ScanVarRef parses the "$name" variable reference starting at s[pos]
// for callers outside the substitution engine, such as expression
// evaluators.
func ScanVarRef(s string, pos int) (name string, end int, ok bool, err error) {
	return scanVarRef(s, pos)
}

// ScanBracket finds the matching close bracket for the "[...]" starting
// at s[pos], for callers outside the substitution engine.
func ScanBracket(s string, pos int) (int, error) {
	return scanBracket(s, pos)
}

// plainSpan reports how many bytes starting at pos carry no
// substitution marker, so the scanner can copy them in one step.
func plainSpan(s string, pos int) int {
	i := pos
	for i < len(s) {
		c := s[i]
		if c == '\\' || c == '$' || c == '[' {
			break
		}
		i++
	}
	return i - pos
}

// substWord produces the value of one word on the transient path.
// Command substitutions recursively re-enter the evaluator.
func (in *Interp) substWord(w Word) (Obj, Result) {
	if w.Kind == WordBraced {
		return in.host.Intern(w.Text), ResultOK
	}
	s := w.Text

	// A word that is exactly one substitution passes the value through
	// unchanged instead of flattening it to a string.
	if len(s) > 1 && s[0] == '$' {
		if name, end, ok, err := scanVarRef(s, 0); err == nil && ok && end == len(s) {
			return in.lookupVar(name)
		}
	}
	if len(s) > 1 && s[0] == '[' {
		if end, err := scanBracket(s, 0); err == nil && end == len(s)-1 {
			if rc := in.evalString(s[1:end]); rc != ResultOK {
				return 0, rc
			}
			return in.result, ResultOK
		}
	}

	var buf []byte
	pos := 0
	for pos < len(s) {
		if n := plainSpan(s, pos); n > 0 {
			buf = append(buf, s[pos:pos+n]...)
			pos += n
			continue
		}
		switch s[pos] {
		case '\\':
			rep, next := substEscape(s, pos)
			buf = append(buf, rep...)
			pos = next
		case '$':
			name, next, ok, err := scanVarRef(s, pos)
			if err != nil {
				return 0, in.errorf("%s", err.(*ParseError).Message)
			}
			if !ok {
				buf = append(buf, '$')
				pos++
				continue
			}
			val, rc := in.lookupVar(name)
			if rc != ResultOK {
				return 0, rc
			}
			buf = append(buf, in.host.StringOf(val)...)
			pos = next
		case '[':
			end, err := scanBracket(s, pos)
			if err != nil {
				return 0, in.errorf("%s", err.(*ParseError).Message)
			}
			if rc := in.evalString(s[pos+1 : end]); rc != ResultOK {
				return 0, rc
			}
			buf = append(buf, in.host.StringOf(in.result)...)
			pos = end + 1
		}
	}
	return in.host.Intern(string(buf)), ResultOK
}

// lookupVar resolves a variable reference during substitution. An
// unresolved reference is a hard error, never an empty-string default.
func (in *Interp) lookupVar(name string) (Obj, Result) {
	if v, ok := in.GetVar(name); ok {
		return v, ResultOK
	}
	return 0, in.errorf("can't read %q: no such variable", name)
}
