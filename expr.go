package plume

import (
	"strconv"
	"strings"

	"github.com/feather-lang/plume/core"
)

// The expression evaluator behind expr and the condition arguments of
// if, while and for. Operands are integers, doubles or strings; "$name"
// reads a variable and "[script]" evaluates a nested script through
// EvalBody, so a yield inside a bracket suspends the whole expression.
// The command owning the expression simply re-evaluates it on resume;
// the suspended bracket picks up its saved continuation, everything
// before it runs again.

type exprKind int

const (
	exprInt exprKind = iota
	exprDouble
	exprString
)

type exprValue struct {
	kind exprKind
	i    int64
	f    float64
	s    string
}

func intValue(v int64) exprValue     { return exprValue{kind: exprInt, i: v} }
func doubleValue(v float64) exprValue { return exprValue{kind: exprDouble, f: v} }
func strValue(s string) exprValue    { return exprValue{kind: exprString, s: s} }

func boolValue(b bool) exprValue {
	if b {
		return intValue(1)
	}
	return intValue(0)
}

func (v exprValue) isNumeric() bool { return v.kind != exprString }

func (v exprValue) asDouble() float64 {
	if v.kind == exprInt {
		return float64(v.i)
	}
	return v.f
}

func (v exprValue) text() string {
	switch v.kind {
	case exprInt:
		return strconv.FormatInt(v.i, 10)
	case exprDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	}
	return v.s
}

// exprEval is one expression evaluation. Parsing and evaluation are
// fused; the skip flag parses without evaluating, which is how the
// short-circuit operators pass over their dead operand.
type exprEval struct {
	i   *Interp
	in  *core.Interp
	s   string
	pos int

	skip      bool
	suspended bool
	failed    bool
	code      core.Result
}

func (e *exprEval) fail(format string, args ...any) exprValue {
	if !e.failed && !e.suspended {
		e.failed = true
		e.code = e.in.Errorf(format, args...)
	}
	return strValue("")
}

func (e *exprEval) bad() bool { return e.failed || e.suspended }

func (e *exprEval) skipSpace() {
	for e.pos < len(e.s) {
		switch e.s[e.pos] {
		case ' ', '\t', '\n', '\r':
			e.pos++
		default:
			return
		}
	}
}

// match consumes op if it appears next. Word operators (eq, ne) only
// match on a word boundary.
func (e *exprEval) match(op string) bool {
	e.skipSpace()
	if !strings.HasPrefix(e.s[e.pos:], op) {
		return false
	}
	if op == "eq" || op == "ne" {
		after := e.pos + len(op)
		if after < len(e.s) && isExprNameChar(e.s[after]) {
			return false
		}
	}
	e.pos += len(op)
	return true
}

func isExprNameChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// evalExpr evaluates an expression string and leaves the result in the
// interpreter's result register.
func (i *Interp) evalExpr(in *core.Interp, s string) core.Result {
	v, rc := i.exprValueOf(in, s)
	if rc != core.ResultOK {
		return rc
	}
	if in.Suspending() {
		return core.ResultOK
	}
	switch v.kind {
	case exprInt:
		in.SetResult(i.handleFor(i.Int(v.i)))
	case exprDouble:
		in.SetResult(i.handleFor(i.Double(v.f)))
	default:
		in.SetResultString(v.s)
	}
	return core.ResultOK
}

// exprBool evaluates an expression as a condition.
func (i *Interp) exprBool(in *core.Interp, s string) (bool, core.Result) {
	v, rc := i.exprValueOf(in, s)
	if rc != core.ResultOK {
		return false, rc
	}
	if in.Suspending() {
		return false, core.ResultOK
	}
	e := &exprEval{i: i, in: in}
	b := e.truthy(v)
	if e.failed {
		return false, e.code
	}
	return b, core.ResultOK
}

func (i *Interp) exprValueOf(in *core.Interp, s string) (exprValue, core.Result) {
	e := &exprEval{i: i, in: in, s: s}
	v := e.parseOr()
	if e.suspended {
		return v, core.ResultOK
	}
	if e.failed {
		return v, e.code
	}
	e.skipSpace()
	if e.pos < len(e.s) {
		return v, in.Errorf("syntax error in expression %q", s)
	}
	return v, core.ResultOK
}

func (i *Interp) cmdExpr(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) == 0 {
		return wrongArgs(in, "expr arg ?arg ...?")
	}
	parts := make([]string, len(args))
	for j, a := range args {
		parts[j] = i.StringOf(a)
	}
	return i.evalExpr(in, strings.Join(parts, " "))
}

// truthy applies TCL boolean rules to an expression value.
func (e *exprEval) truthy(v exprValue) bool {
	switch v.kind {
	case exprInt:
		return v.i != 0
	case exprDouble:
		return v.f != 0
	}
	switch strings.ToLower(strings.TrimSpace(v.s)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	e.fail("expected boolean value but got %q", v.s)
	return false
}

// -----------------------------------------------------------------------------
// Precedence levels
// -----------------------------------------------------------------------------

func (e *exprEval) parseOr() exprValue {
	v := e.parseAnd()
	for !e.bad() && e.match("||") {
		if e.skip {
			e.parseAnd()
			continue
		}
		lb := e.truthy(v)
		if e.bad() {
			return v
		}
		oldSkip := e.skip
		if lb {
			e.skip = true
		}
		r := e.parseAnd()
		e.skip = oldSkip
		if e.bad() {
			return v
		}
		if lb {
			v = boolValue(true)
		} else {
			v = boolValue(e.truthy(r))
		}
	}
	return v
}

func (e *exprEval) parseAnd() exprValue {
	v := e.parseEquality()
	for !e.bad() && e.match("&&") {
		if e.skip {
			e.parseEquality()
			continue
		}
		lb := e.truthy(v)
		if e.bad() {
			return v
		}
		oldSkip := e.skip
		if !lb {
			e.skip = true
		}
		r := e.parseEquality()
		e.skip = oldSkip
		if e.bad() {
			return v
		}
		if !lb {
			v = boolValue(false)
		} else {
			v = boolValue(e.truthy(r))
		}
	}
	return v
}

func (e *exprEval) parseEquality() exprValue {
	v := e.parseRelational()
	for !e.bad() {
		switch {
		case e.match("=="):
			r := e.parseRelational()
			v = e.compareEq(v, r, false)
		case e.match("!="):
			r := e.parseRelational()
			v = e.compareEq(v, r, true)
		case e.match("eq"):
			r := e.parseRelational()
			v = boolValue(v.text() == r.text())
		case e.match("ne"):
			r := e.parseRelational()
			v = boolValue(v.text() != r.text())
		default:
			return v
		}
	}
	return v
}

func (e *exprEval) parseRelational() exprValue {
	v := e.parseAdditive()
	for !e.bad() {
		switch {
		case e.match("<="):
			r := e.parseAdditive()
			v = e.compareOrd(v, r, func(c int) bool { return c <= 0 })
		case e.match(">="):
			r := e.parseAdditive()
			v = e.compareOrd(v, r, func(c int) bool { return c >= 0 })
		case e.match("<"):
			r := e.parseAdditive()
			v = e.compareOrd(v, r, func(c int) bool { return c < 0 })
		case e.match(">"):
			r := e.parseAdditive()
			v = e.compareOrd(v, r, func(c int) bool { return c > 0 })
		default:
			return v
		}
	}
	return v
}

func (e *exprEval) parseAdditive() exprValue {
	v := e.parseMultiplicative()
	for !e.bad() {
		e.skipSpace()
		if e.pos >= len(e.s) {
			return v
		}
		switch e.s[e.pos] {
		case '+':
			e.pos++
			r := e.parseMultiplicative()
			v = e.arith(v, r, '+')
		case '-':
			e.pos++
			r := e.parseMultiplicative()
			v = e.arith(v, r, '-')
		default:
			return v
		}
	}
	return v
}

func (e *exprEval) parseMultiplicative() exprValue {
	v := e.parseUnary()
	for !e.bad() {
		e.skipSpace()
		if e.pos >= len(e.s) {
			return v
		}
		switch e.s[e.pos] {
		case '*':
			e.pos++
			r := e.parseUnary()
			v = e.arith(v, r, '*')
		case '/':
			e.pos++
			r := e.parseUnary()
			v = e.arith(v, r, '/')
		case '%':
			e.pos++
			r := e.parseUnary()
			v = e.arith(v, r, '%')
		default:
			return v
		}
	}
	return v
}

func (e *exprEval) parseUnary() exprValue {
	e.skipSpace()
	if e.pos < len(e.s) {
		switch e.s[e.pos] {
		case '-':
			e.pos++
			v := e.parseUnary()
			if e.bad() || e.skip {
				return v
			}
			v, ok := coerceNumeric(v)
			if !ok {
				return e.fail("can't use non-numeric string as operand of \"-\"")
			}
			if v.kind == exprInt {
				return intValue(-v.i)
			}
			return doubleValue(-v.f)
		case '+':
			e.pos++
			v := e.parseUnary()
			if e.bad() || e.skip {
				return v
			}
			v, ok := coerceNumeric(v)
			if !ok {
				return e.fail("can't use non-numeric string as operand of \"+\"")
			}
			return v
		case '!':
			if e.pos+1 < len(e.s) && e.s[e.pos+1] == '=' {
				break
			}
			e.pos++
			v := e.parseUnary()
			if e.bad() || e.skip {
				return v
			}
			return boolValue(!e.truthy(v))
		}
	}
	return e.parsePrimary()
}

func (e *exprEval) parsePrimary() exprValue {
	e.skipSpace()
	if e.pos >= len(e.s) {
		return e.fail("syntax error in expression %q", e.s)
	}
	c := e.s[e.pos]
	switch {
	case c == '(':
		e.pos++
		v := e.parseOr()
		if e.bad() {
			return v
		}
		e.skipSpace()
		if e.pos >= len(e.s) || e.s[e.pos] != ')' {
			return e.fail("unbalanced open paren in expression")
		}
		e.pos++
		return v

	case c == '$':
		name, end, ok, err := core.ScanVarRef(e.s, e.pos)
		if err != nil || !ok {
			return e.fail("invalid variable reference in expression")
		}
		e.pos = end
		if e.skip {
			return strValue("")
		}
		h, exists := e.in.GetVar(name)
		if !exists {
			return e.fail("can't read %q: no such variable", name)
		}
		return e.classify(e.i.objForHandle(h))

	case c == '[':
		end, err := core.ScanBracket(e.s, e.pos)
		if err != nil {
			return e.fail("missing close-bracket")
		}
		script := e.s[e.pos+1 : end]
		e.pos = end + 1
		if e.skip {
			return strValue("")
		}
		rc := e.in.EvalBody(e.in.Host().Intern(script))
		if rc != core.ResultOK {
			e.failed = true
			e.code = rc
			return strValue("")
		}
		if e.in.Suspending() {
			e.suspended = true
			return strValue("")
		}
		return e.classify(e.i.objForHandle(e.in.Result()))

	case c == '"':
		return e.parseQuoted()

	case c == '{':
		return e.parseBraced()

	case c >= '0' && c <= '9', c == '.':
		return e.parseNumber()

	default:
		return e.parseBareword()
	}
}

func (e *exprEval) parseQuoted() exprValue {
	var b strings.Builder
	pos := e.pos + 1
	for pos < len(e.s) && e.s[pos] != '"' {
		switch e.s[pos] {
		case '\\':
			if pos+1 < len(e.s) {
				switch e.s[pos+1] {
				case 'n':
					b.WriteByte('\n')
				case 't':
					b.WriteByte('\t')
				default:
					b.WriteByte(e.s[pos+1])
				}
				pos += 2
				continue
			}
			b.WriteByte('\\')
			pos++
		case '$':
			name, end, ok, err := core.ScanVarRef(e.s, pos)
			if err == nil && ok {
				pos = end
				if !e.skip {
					h, exists := e.in.GetVar(name)
					if !exists {
						e.pos = pos
						return e.fail("can't read %q: no such variable", name)
					}
					b.WriteString(e.i.StringOf(h))
				}
				continue
			}
			b.WriteByte('$')
			pos++
		default:
			b.WriteByte(e.s[pos])
			pos++
		}
	}
	if pos >= len(e.s) {
		return e.fail("missing close-quote in expression")
	}
	e.pos = pos + 1
	return strValue(b.String())
}

func (e *exprEval) parseBraced() exprValue {
	depth := 1
	pos := e.pos + 1
	start := pos
	for pos < len(e.s) && depth > 0 {
		switch e.s[pos] {
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
		return e.fail("missing close-brace in expression")
	}
	e.pos = pos
	return strValue(e.s[start : pos-1])
}

func (e *exprEval) parseNumber() exprValue {
	start := e.pos
	pos := e.pos
	if pos+1 < len(e.s) && e.s[pos] == '0' && (e.s[pos+1] == 'x' || e.s[pos+1] == 'X') {
		pos += 2
		for pos < len(e.s) && isHexDigit(e.s[pos]) {
			pos++
		}
		e.pos = pos
		v, err := strconv.ParseInt(e.s[start:pos], 0, 64)
		if err != nil {
			return e.fail("invalid number %q", e.s[start:pos])
		}
		return intValue(v)
	}
	isDouble := false
	for pos < len(e.s) {
		c := e.s[pos]
		if c >= '0' && c <= '9' {
			pos++
			continue
		}
		if c == '.' {
			isDouble = true
			pos++
			continue
		}
		if c == 'e' || c == 'E' {
			if pos+1 < len(e.s) && (e.s[pos+1] == '+' || e.s[pos+1] == '-' || (e.s[pos+1] >= '0' && e.s[pos+1] <= '9')) {
				isDouble = true
				pos += 2
				continue
			}
		}
		break
	}
	e.pos = pos
	text := e.s[start:pos]
	if !isDouble {
		v, err := strconv.ParseInt(text, 10, 64)
		if err == nil {
			return intValue(v)
		}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return e.fail("invalid number %q", text)
	}
	return doubleValue(v)
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (e *exprEval) parseBareword() exprValue {
	start := e.pos
	for e.pos < len(e.s) && isExprNameChar(e.s[e.pos]) {
		e.pos++
	}
	word := e.s[start:e.pos]
	switch strings.ToLower(word) {
	case "true", "yes", "on":
		return intValue(1)
	case "false", "no", "off":
		return intValue(0)
	}
	if word == "" {
		return e.fail("syntax error in expression %q", e.s)
	}
	return e.fail("invalid bareword %q in expression", word)
}

// classify turns an evaluated object into an expression operand,
// preferring its existing numeric representation.
func (e *exprEval) classify(o *Obj) exprValue {
	if c, ok := o.InternalRep().(IntoInt); ok {
		if v, ok := c.IntoInt(); ok {
			return intValue(v)
		}
	}
	if c, ok := o.InternalRep().(IntoDouble); ok {
		if v, ok := c.IntoDouble(); ok {
			return doubleValue(v)
		}
	}
	s := o.String()
	t := strings.TrimSpace(s)
	if t != "" {
		if v, err := strconv.ParseInt(t, 0, 64); err == nil {
			return intValue(v)
		}
		if v, err := strconv.ParseFloat(t, 64); err == nil {
			return doubleValue(v)
		}
	}
	return strValue(s)
}

// -----------------------------------------------------------------------------
// Operators
// -----------------------------------------------------------------------------

func (e *exprEval) arith(l, r exprValue, op byte) exprValue {
	if e.bad() || e.skip {
		return l
	}
	l, lok := coerceNumeric(l)
	r, rok := coerceNumeric(r)
	if !lok || !rok {
		return e.fail("can't use non-numeric string as operand of %q", string(op))
	}
	if l.kind == exprInt && r.kind == exprInt {
		switch op {
		case '+':
			return intValue(l.i + r.i)
		case '-':
			return intValue(l.i - r.i)
		case '*':
			return intValue(l.i * r.i)
		case '/':
			if r.i == 0 {
				return e.fail("divide by zero")
			}
			return intValue(floorDiv(l.i, r.i))
		case '%':
			if r.i == 0 {
				return e.fail("divide by zero")
			}
			return intValue(floorMod(l.i, r.i))
		}
	}
	if op == '%' {
		return e.fail("can't use floating-point value as operand of \"%%\"")
	}
	a, b := l.asDouble(), r.asDouble()
	switch op {
	case '+':
		return doubleValue(a + b)
	case '-':
		return doubleValue(a - b)
	case '*':
		return doubleValue(a * b)
	case '/':
		if b == 0 {
			return e.fail("divide by zero")
		}
		return doubleValue(a / b)
	}
	return l
}

// floorDiv matches TCL integer division, which truncates toward
// negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// floorMod gives a remainder with the sign of the divisor.
func floorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

// coerceNumeric re-parses a string operand that looks like a number.
// == and < compare numerically whenever both sides allow it; only eq
// and ne always compare as strings.
func coerceNumeric(v exprValue) (exprValue, bool) {
	if v.isNumeric() {
		return v, true
	}
	t := strings.TrimSpace(v.s)
	if t == "" {
		return v, false
	}
	if n, err := strconv.ParseInt(t, 0, 64); err == nil {
		return intValue(n), true
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return doubleValue(f), true
	}
	return v, false
}

func (e *exprEval) compareEq(l, r exprValue, negate bool) exprValue {
	if e.bad() || e.skip {
		return l
	}
	var eq bool
	ln, lok := coerceNumeric(l)
	rn, rok := coerceNumeric(r)
	if lok && rok {
		eq = ln.asDouble() == rn.asDouble()
	} else {
		eq = l.text() == r.text()
	}
	return boolValue(eq != negate)
}

func (e *exprEval) compareOrd(l, r exprValue, take func(int) bool) exprValue {
	if e.bad() || e.skip {
		return l
	}
	var c int
	ln, lok := coerceNumeric(l)
	rn, rok := coerceNumeric(r)
	if lok && rok {
		a, b := ln.asDouble(), rn.asDouble()
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	} else {
		c = strings.Compare(l.text(), r.text())
	}
	return boolValue(take(c))
}
