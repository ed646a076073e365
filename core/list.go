package core

import "strings"

// Tcl list syntax helpers. Variable binding, proc parameter lists and the
// host's list shimmering all parse and print the same surface syntax, so
// the splitting lives here in the core.

// SplitList splits a Tcl list string into its elements. Braced and
// quoted elements lose their delimiters; nested braces are kept.
func SplitList(s string) ([]string, error) {
	var items []string
	pos := 0
	for pos < len(s) {
		for pos < len(s) && (s[pos] == ' ' || s[pos] == '\t' || s[pos] == '\n' || s[pos] == '\r') {
			pos++
		}
		if pos >= len(s) {
			break
		}
		switch s[pos] {
		case '{':
			depth := 1
			start := pos + 1
			pos++
			for pos < len(s) && depth > 0 {
				switch s[pos] {
				case '\\':
					pos++
				case '{':
					depth++
				case '}':
					depth--
				}
				pos++
			}
			if depth != 0 {
				return nil, &ParseError{Message: "unmatched open brace in list"}
			}
			items = append(items, s[start:pos-1])
		case '"':
			start := pos + 1
			pos++
			for pos < len(s) && s[pos] != '"' {
				if s[pos] == '\\' && pos+1 < len(s) {
					pos++
				}
				pos++
			}
			if pos >= len(s) {
				return nil, &ParseError{Message: "unmatched open quote in list"}
			}
			items = append(items, s[start:pos])
			pos++
		default:
			start := pos
			for pos < len(s) && s[pos] != ' ' && s[pos] != '\t' && s[pos] != '\n' && s[pos] != '\r' {
				if s[pos] == '\\' && pos+1 < len(s) {
					pos++
				}
				pos++
			}
			items = append(items, s[start:pos])
		}
	}
	return items, nil
}

// QuoteListElem quotes a single element for inclusion in a Tcl list.
func QuoteListElem(s string) string {
	if s == "" {
		return "{}"
	}
	if strings.ContainsAny(s, " \t\n\r{}\"$[]\\;") {
		return "{" + s + "}"
	}
	return s
}

// JoinList builds a Tcl list string from elements.
func JoinList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(QuoteListElem(item))
	}
	return b.String()
}
