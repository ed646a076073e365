package plume

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/feather-lang/plume/core"
)

// The standard command library. Commands that evaluate scripts on the
// interpreter's behalf (the loops, if, catch, eval, apply) follow the
// re-drive protocol: when a yield suspends the script they were driving,
// the suspended level stays attached to the coroutine, the command
// returns, and the resume re-invokes the command with the same
// arguments. The command then asks ReDrive whether a suspended level for
// its body is waiting, finishes that level first and picks up iteration
// where it left off.

func (i *Interp) registerBuiltins() {
	cmds := map[string]core.CommandFunc{
		"set":       i.cmdSet,
		"unset":     i.cmdUnset,
		"incr":      i.cmdIncr,
		"append":    i.cmdAppend,
		"proc":      i.cmdProc,
		"return":    i.cmdReturn,
		"error":     i.cmdError,
		"catch":     i.cmdCatch,
		"break":     i.cmdBreak,
		"continue":  i.cmdContinue,
		"if":        i.cmdIf,
		"while":     i.cmdWhile,
		"for":       i.cmdFor,
		"foreach":   i.cmdForeach,
		"apply":     i.cmdApply,
		"expr":      i.cmdExpr,
		"eval":      i.cmdEval,
		"list":      i.cmdList,
		"llength":   i.cmdLlength,
		"lindex":    i.cmdLindex,
		"lrange":    i.cmdLrange,
		"lappend":   i.cmdLappend,
		"concat":    i.cmdConcat,
		"join":      i.cmdJoin,
		"string":    i.cmdString,
		"dict":      i.cmdDict,
		"puts":      i.cmdPuts,
		"info":      i.cmdInfo,
		"coroutine": i.cmdCoroutine,
		"yield":     i.cmdYield,
		"yieldto":   i.cmdYieldTo,
	}
	for name, fn := range cmds {
		i.commands[name] = fn
	}
}

func wrongArgs(in *core.Interp, usage string) core.Result {
	return in.Errorf("wrong # args: should be %q", usage)
}

// intOf shims a handle to int64.
func (i *Interp) intOf(h core.Obj) (int64, error) {
	return i.objForHandle(h).Int()
}

// -----------------------------------------------------------------------------
// Variables
// -----------------------------------------------------------------------------

func (i *Interp) cmdSet(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	switch len(args) {
	case 1:
		name := i.StringOf(args[0])
		v, ok := in.GetVar(name)
		if !ok {
			return in.Errorf("can't read %q: no such variable", name)
		}
		in.SetResult(v)
		return core.ResultOK
	case 2:
		in.SetVar(i.StringOf(args[0]), args[1])
		in.SetResult(args[1])
		return core.ResultOK
	default:
		return wrongArgs(in, "set varName ?newValue?")
	}
}

func (i *Interp) cmdUnset(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	complain := true
	if len(args) > 0 && i.StringOf(args[0]) == "-nocomplain" {
		complain = false
		args = args[1:]
	}
	for _, a := range args {
		name := i.StringOf(a)
		if !in.UnsetVar(name) && complain {
			return in.Errorf("can't unset %q: no such variable", name)
		}
	}
	in.SetResultString("")
	return core.ResultOK
}

func (i *Interp) cmdIncr(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) < 1 || len(args) > 2 {
		return wrongArgs(in, "incr varName ?increment?")
	}
	name := i.StringOf(args[0])
	delta := int64(1)
	if len(args) == 2 {
		d, err := i.intOf(args[1])
		if err != nil {
			return in.Errorf("%v", err)
		}
		delta = d
	}
	var n int64
	if cur, ok := in.GetVar(name); ok {
		v, err := i.intOf(cur)
		if err != nil {
			return in.Errorf("%v", err)
		}
		n = v
	}
	n += delta
	h := i.handleFor(i.Int(n))
	in.SetVar(name, h)
	in.SetResult(h)
	return core.ResultOK
}

func (i *Interp) cmdAppend(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) < 1 {
		return wrongArgs(in, "append varName ?value ...?")
	}
	name := i.StringOf(args[0])
	var b strings.Builder
	if cur, ok := in.GetVar(name); ok {
		b.WriteString(i.StringOf(cur))
	}
	for _, a := range args[1:] {
		b.WriteString(i.StringOf(a))
	}
	h := in.Host().Intern(b.String())
	in.SetVar(name, h)
	in.SetResult(h)
	return core.ResultOK
}

// -----------------------------------------------------------------------------
// Procedures and completion codes
// -----------------------------------------------------------------------------

func (i *Interp) cmdProc(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) != 3 {
		return wrongArgs(in, "proc name args body")
	}
	name := strings.TrimPrefix(i.StringOf(args[0]), "::")
	i.procs[name] = &procDef{
		params: i.Promote(args[1]),
		body:   i.Promote(args[2]),
	}
	in.SetResultString("")
	return core.ResultOK
}

func (i *Interp) cmdReturn(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	switch len(args) {
	case 0:
		in.SetResultString("")
	case 1:
		in.SetResult(args[0])
	default:
		return wrongArgs(in, "return ?value?")
	}
	return core.ResultReturn
}

func (i *Interp) cmdError(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) != 1 {
		return wrongArgs(in, "error message")
	}
	in.SetResult(args[0])
	return core.ResultError
}

func (i *Interp) cmdCatch(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) < 1 || len(args) > 2 {
		return wrongArgs(in, "catch script ?resultVarName?")
	}
	rc := in.EvalBody(args[0])
	if in.Suspending() {
		return rc
	}
	if len(args) == 2 {
		in.SetVar(i.StringOf(args[1]), in.Result())
	}
	in.SetResultString(strconv.Itoa(int(rc)))
	return core.ResultOK
}

func (i *Interp) cmdBreak(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	in.SetResultString("")
	return core.ResultBreak
}

func (i *Interp) cmdContinue(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	in.SetResultString("")
	return core.ResultContinue
}

// -----------------------------------------------------------------------------
// Control flow
// -----------------------------------------------------------------------------

type ifClause struct {
	cond core.Obj // 0 for the else clause
	body core.Obj
}

func (i *Interp) cmdIf(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	clauses, rc := i.parseIfClauses(in, args)
	if rc != core.ResultOK {
		return rc
	}

	// A resume re-invokes if with the same arguments; the suspended body
	// is finished without retesting any condition.
	for _, cl := range clauses {
		if _, pending := in.ReDrive(cl.body); pending {
			return in.EvalBody(cl.body)
		}
	}

	for _, cl := range clauses {
		take := true
		if cl.cond != 0 {
			b, rc := i.exprBool(in, i.StringOf(cl.cond))
			if rc != core.ResultOK {
				return rc
			}
			if in.Suspending() {
				return core.ResultOK
			}
			take = b
		}
		if take {
			return in.EvalBody(cl.body)
		}
	}
	in.SetResultString("")
	return core.ResultOK
}

func (i *Interp) parseIfClauses(in *core.Interp, args []core.Obj) ([]ifClause, core.Result) {
	var clauses []ifClause
	pos := 0
	for {
		if pos >= len(args) {
			return nil, wrongArgs(in, "if expr ?then? body ?elseif expr ?then? body ...? ?else body?")
		}
		cond := args[pos]
		pos++
		if pos < len(args) && i.StringOf(args[pos]) == "then" {
			pos++
		}
		if pos >= len(args) {
			return nil, in.Errorf("wrong # args: no script following %q argument", i.StringOf(cond))
		}
		clauses = append(clauses, ifClause{cond: cond, body: args[pos]})
		pos++
		if pos >= len(args) {
			return clauses, core.ResultOK
		}
		switch i.StringOf(args[pos]) {
		case "elseif":
			pos++
		case "else":
			pos++
			if pos >= len(args) {
				return nil, in.Errorf("wrong # args: no script following \"else\" argument")
			}
			clauses = append(clauses, ifClause{body: args[pos]})
			pos++
			if pos < len(args) {
				return nil, in.Errorf("wrong # args: extra words after \"else\" clause in \"if\" command")
			}
			return clauses, core.ResultOK
		default:
			return nil, in.Errorf("expected \"elseif\" or \"else\" but got %q", i.StringOf(args[pos]))
		}
	}
}

func (i *Interp) cmdWhile(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) != 2 {
		return wrongArgs(in, "while test command")
	}
	cond, body := args[0], args[1]

	// Finish a suspended iteration before retesting the condition.
	if _, pending := in.ReDrive(body); pending {
		rc := in.EvalBody(body)
		if in.Suspending() {
			return rc
		}
		if rc == core.ResultBreak {
			in.SetResultString("")
			return core.ResultOK
		}
		if rc != core.ResultOK && rc != core.ResultContinue {
			return rc
		}
	}

	for {
		b, rc := i.exprBool(in, i.StringOf(cond))
		if rc != core.ResultOK {
			return rc
		}
		if in.Suspending() {
			return core.ResultOK
		}
		if !b {
			break
		}
		rc = in.EvalBody(body)
		if in.Suspending() {
			return rc
		}
		if rc == core.ResultBreak {
			break
		}
		if rc != core.ResultOK && rc != core.ResultContinue {
			return rc
		}
	}
	in.SetResultString("")
	return core.ResultOK
}

func (i *Interp) cmdFor(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) != 4 {
		return wrongArgs(in, "for start test next command")
	}
	start, cond, next, body := args[0], args[1], args[2], args[3]

	_, bodyPending := in.ReDrive(body)
	_, nextPending := in.ReDrive(next)
	_, startPending := in.ReDrive(start)

	// The init script runs once; on a resume it is only re-entered when
	// the suspension happened inside it.
	if startPending || (!bodyPending && !nextPending) {
		rc := in.EvalBody(start)
		if in.Suspending() {
			return rc
		}
		if rc != core.ResultOK {
			return rc
		}
	}

	skipCond := bodyPending
	runNext := nextPending
	for {
		if !runNext {
			if !skipCond {
				b, rc := i.exprBool(in, i.StringOf(cond))
				if rc != core.ResultOK {
					return rc
				}
				if in.Suspending() {
					return core.ResultOK
				}
				if !b {
					break
				}
			}
			skipCond = false
			rc := in.EvalBody(body)
			if in.Suspending() {
				return rc
			}
			if rc == core.ResultBreak {
				break
			}
			if rc != core.ResultOK && rc != core.ResultContinue {
				return rc
			}
		}
		runNext = false
		rc := in.EvalBody(next)
		if in.Suspending() {
			return rc
		}
		if rc == core.ResultBreak {
			break
		}
		if rc != core.ResultOK {
			return rc
		}
	}
	in.SetResultString("")
	return core.ResultOK
}

func (i *Interp) cmdForeach(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) != 3 {
		return wrongArgs(in, "foreach varList list command")
	}
	vars, err := core.SplitList(i.StringOf(args[0]))
	if err != nil || len(vars) == 0 {
		return in.Errorf("foreach varlist is empty or invalid")
	}
	items, err := core.SplitList(i.StringOf(args[1]))
	if err != nil {
		return in.Errorf("%v", err)
	}
	body := args[2]
	stride := len(vars)
	startIdx := 0

	// A resume finishes the suspended iteration first; the recorded loop
	// position tells us which element it was working on.
	if pos, pending := in.ReDrive(body); pending {
		in.MarkLoop(pos)
		rc := in.EvalBody(body)
		if in.Suspending() {
			return rc
		}
		if rc == core.ResultBreak {
			in.SetResultString("")
			return core.ResultOK
		}
		if rc != core.ResultOK && rc != core.ResultContinue {
			return rc
		}
		startIdx = pos + stride
	}

	for idx := startIdx; idx < len(items); idx += stride {
		for v := 0; v < stride; v++ {
			val := ""
			if idx+v < len(items) {
				val = items[idx+v]
			}
			in.SetVar(vars[v], in.Host().Intern(val))
		}
		in.MarkLoop(idx)
		rc := in.EvalBody(body)
		if in.Suspending() {
			return rc
		}
		if rc == core.ResultBreak {
			break
		}
		if rc != core.ResultOK && rc != core.ResultContinue {
			return rc
		}
	}
	in.SetResultString("")
	return core.ResultOK
}

func (i *Interp) cmdApply(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) < 1 {
		return wrongArgs(in, "apply lambdaExpr ?arg ...?")
	}
	fields, err := core.SplitList(i.StringOf(args[0]))
	if err != nil || len(fields) < 2 {
		return in.Errorf("can't interpret %q as a lambda expression", i.StringOf(args[0]))
	}
	params := in.Host().Intern(fields[0])
	body := in.Host().Intern(fields[1])

	// A resume finishes the suspended body in its original frame.
	if _, pending := in.ReDrive(body); pending {
		rc := in.EvalBody(body)
		if in.Suspending() {
			return rc
		}
		in.PopFrame()
		return in.FinishCallCode(rc)
	}

	invocation := append([]core.Obj{cmd}, args...)
	if _, err := in.PushFrame(core.FrameProc, invocation); err != nil {
		return in.Errorf("%v", err)
	}
	if rc := in.BindParams("apply", params, args[1:]); rc != core.ResultOK {
		in.PopFrame()
		return rc
	}
	rc := in.EvalBody(body)
	if in.Suspending() {
		return rc
	}
	in.PopFrame()
	return in.FinishCallCode(rc)
}

func (i *Interp) cmdEval(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) == 0 {
		return wrongArgs(in, "eval arg ?arg ...?")
	}
	parts := make([]string, len(args))
	for j, a := range args {
		parts[j] = i.StringOf(a)
	}
	return in.EvalBody(in.Host().Intern(strings.Join(parts, " ")))
}

// -----------------------------------------------------------------------------
// Lists
// -----------------------------------------------------------------------------

func (i *Interp) cmdList(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	items := make([]*Obj, len(args))
	for j, a := range args {
		items[j] = i.objForHandle(a)
	}
	in.SetResult(i.handleFor(i.List(items...)))
	return core.ResultOK
}

func (i *Interp) cmdLlength(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) != 1 {
		return wrongArgs(in, "llength list")
	}
	items, err := core.SplitList(i.StringOf(args[0]))
	if err != nil {
		return in.Errorf("%v", err)
	}
	in.SetResultString(strconv.Itoa(len(items)))
	return core.ResultOK
}

// listIndex parses an index that may be "end" or "end-N".
func listIndex(s string, length int) (int, error) {
	if s == "end" {
		return length - 1, nil
	}
	if rest, ok := strings.CutPrefix(s, "end-"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil {
			return 0, fmt.Errorf("bad index %q: must be integer or end?-integer?", s)
		}
		return length - 1 - n, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad index %q: must be integer or end?-integer?", s)
	}
	return n, nil
}

func (i *Interp) cmdLindex(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) < 1 || len(args) > 2 {
		return wrongArgs(in, "lindex list ?index?")
	}
	if len(args) == 1 {
		in.SetResult(args[0])
		return core.ResultOK
	}
	items, err := core.SplitList(i.StringOf(args[0]))
	if err != nil {
		return in.Errorf("%v", err)
	}
	idx, err := listIndex(i.StringOf(args[1]), len(items))
	if err != nil {
		return in.Errorf("%v", err)
	}
	if idx < 0 || idx >= len(items) {
		in.SetResultString("")
		return core.ResultOK
	}
	in.SetResultString(items[idx])
	return core.ResultOK
}

func (i *Interp) cmdLrange(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) != 3 {
		return wrongArgs(in, "lrange list first last")
	}
	items, err := core.SplitList(i.StringOf(args[0]))
	if err != nil {
		return in.Errorf("%v", err)
	}
	first, err := listIndex(i.StringOf(args[1]), len(items))
	if err != nil {
		return in.Errorf("%v", err)
	}
	last, err := listIndex(i.StringOf(args[2]), len(items))
	if err != nil {
		return in.Errorf("%v", err)
	}
	if first < 0 {
		first = 0
	}
	if last >= len(items) {
		last = len(items) - 1
	}
	if first > last {
		in.SetResultString("")
		return core.ResultOK
	}
	in.SetResultString(core.JoinList(items[first : last+1]))
	return core.ResultOK
}

func (i *Interp) cmdLappend(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) < 1 {
		return wrongArgs(in, "lappend varName ?value ...?")
	}
	name := i.StringOf(args[0])
	var b strings.Builder
	if cur, ok := in.GetVar(name); ok {
		b.WriteString(i.StringOf(cur))
	}
	for _, a := range args[1:] {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(core.QuoteListElem(i.StringOf(a)))
	}
	h := in.Host().Intern(b.String())
	in.SetVar(name, h)
	in.SetResult(h)
	return core.ResultOK
}

func (i *Interp) cmdConcat(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	var parts []string
	for _, a := range args {
		s := strings.TrimSpace(i.StringOf(a))
		if s != "" {
			parts = append(parts, s)
		}
	}
	in.SetResultString(strings.Join(parts, " "))
	return core.ResultOK
}

func (i *Interp) cmdJoin(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) < 1 || len(args) > 2 {
		return wrongArgs(in, "join list ?joinString?")
	}
	sep := " "
	if len(args) == 2 {
		sep = i.StringOf(args[1])
	}
	items, err := core.SplitList(i.StringOf(args[0]))
	if err != nil {
		return in.Errorf("%v", err)
	}
	in.SetResultString(strings.Join(items, sep))
	return core.ResultOK
}

// -----------------------------------------------------------------------------
// Strings and dicts
// -----------------------------------------------------------------------------

func (i *Interp) cmdString(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) < 2 {
		return wrongArgs(in, "string subcommand string ?arg ...?")
	}
	sub := i.StringOf(args[0])
	s := i.StringOf(args[1])
	rest := args[2:]
	switch sub {
	case "length":
		in.SetResultString(strconv.Itoa(len(s)))
	case "index":
		if len(rest) != 1 {
			return wrongArgs(in, "string index string charIndex")
		}
		idx, err := listIndex(i.StringOf(rest[0]), len(s))
		if err != nil {
			return in.Errorf("%v", err)
		}
		if idx < 0 || idx >= len(s) {
			in.SetResultString("")
		} else {
			in.SetResultString(s[idx : idx+1])
		}
	case "range":
		if len(rest) != 2 {
			return wrongArgs(in, "string range string first last")
		}
		first, err := listIndex(i.StringOf(rest[0]), len(s))
		if err != nil {
			return in.Errorf("%v", err)
		}
		last, err := listIndex(i.StringOf(rest[1]), len(s))
		if err != nil {
			return in.Errorf("%v", err)
		}
		if first < 0 {
			first = 0
		}
		if last >= len(s) {
			last = len(s) - 1
		}
		if first > last {
			in.SetResultString("")
		} else {
			in.SetResultString(s[first : last+1])
		}
	case "tolower":
		in.SetResultString(strings.ToLower(s))
	case "toupper":
		in.SetResultString(strings.ToUpper(s))
	case "trim":
		cutset := " \t\n\r"
		if len(rest) == 1 {
			cutset = i.StringOf(rest[0])
		}
		in.SetResultString(strings.Trim(s, cutset))
	case "repeat":
		if len(rest) != 1 {
			return wrongArgs(in, "string repeat string count")
		}
		n, err := i.intOf(rest[0])
		if err != nil {
			return in.Errorf("%v", err)
		}
		if n < 0 {
			n = 0
		}
		in.SetResultString(strings.Repeat(s, int(n)))
	case "equal":
		if len(rest) != 1 {
			return wrongArgs(in, "string equal string1 string2")
		}
		if s == i.StringOf(rest[0]) {
			in.SetResultString("1")
		} else {
			in.SetResultString("0")
		}
	default:
		return in.Errorf("unknown or ambiguous subcommand %q: must be equal, index, length, range, repeat, tolower, toupper, or trim", sub)
	}
	return core.ResultOK
}

func (i *Interp) cmdDict(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) < 1 {
		return wrongArgs(in, "dict subcommand ?arg ...?")
	}
	sub := i.StringOf(args[0])
	rest := args[1:]
	switch sub {
	case "create":
		if len(rest)%2 != 0 {
			return wrongArgs(in, "dict create ?key value ...?")
		}
		d := &DictType{Items: make(map[string]*Obj)}
		for j := 0; j < len(rest); j += 2 {
			d.Set(i.StringOf(rest[j]), i.objForHandle(rest[j+1]))
		}
		in.SetResult(i.handleFor(&Obj{intrep: d, interp: i}))
	case "get":
		if len(rest) != 2 {
			return wrongArgs(in, "dict get dictionary key")
		}
		d, err := i.objForHandle(rest[0]).Dict()
		if err != nil {
			return in.Errorf("%v", err)
		}
		key := i.StringOf(rest[1])
		v, ok := d.Items[key]
		if !ok {
			return in.Errorf("key %q not known in dictionary", key)
		}
		in.SetResult(i.handleFor(v))
	case "set":
		if len(rest) != 3 {
			return wrongArgs(in, "dict set dictVarName key value")
		}
		name := i.StringOf(rest[0])
		var d *DictType
		if cur, ok := in.GetVar(name); ok {
			parsed, err := i.objForHandle(cur).Dict()
			if err != nil {
				return in.Errorf("%v", err)
			}
			d = parsed.Dup().(*DictType)
		} else {
			d = &DictType{Items: make(map[string]*Obj)}
		}
		d.Set(i.StringOf(rest[1]), i.objForHandle(rest[2]))
		h := i.handleFor(&Obj{intrep: d, interp: i})
		in.SetVar(name, h)
		in.SetResult(h)
	case "unset":
		if len(rest) != 2 {
			return wrongArgs(in, "dict unset dictVarName key")
		}
		name := i.StringOf(rest[0])
		cur, ok := in.GetVar(name)
		if !ok {
			return in.Errorf("can't read %q: no such variable", name)
		}
		parsed, err := i.objForHandle(cur).Dict()
		if err != nil {
			return in.Errorf("%v", err)
		}
		d := parsed.Dup().(*DictType)
		d.Unset(i.StringOf(rest[1]))
		h := i.handleFor(&Obj{intrep: d, interp: i})
		in.SetVar(name, h)
		in.SetResult(h)
	case "exists":
		if len(rest) != 2 {
			return wrongArgs(in, "dict exists dictionary key")
		}
		d, err := i.objForHandle(rest[0]).Dict()
		if err != nil {
			return in.Errorf("%v", err)
		}
		if _, ok := d.Items[i.StringOf(rest[1])]; ok {
			in.SetResultString("1")
		} else {
			in.SetResultString("0")
		}
	case "keys":
		if len(rest) != 1 {
			return wrongArgs(in, "dict keys dictionary")
		}
		d, err := i.objForHandle(rest[0]).Dict()
		if err != nil {
			return in.Errorf("%v", err)
		}
		in.SetResultString(core.JoinList(d.Order))
	case "values":
		if len(rest) != 1 {
			return wrongArgs(in, "dict values dictionary")
		}
		d, err := i.objForHandle(rest[0]).Dict()
		if err != nil {
			return in.Errorf("%v", err)
		}
		vals := make([]string, len(d.Order))
		for j, k := range d.Order {
			vals[j] = d.Items[k].String()
		}
		in.SetResultString(core.JoinList(vals))
	case "size":
		if len(rest) != 1 {
			return wrongArgs(in, "dict size dictionary")
		}
		d, err := i.objForHandle(rest[0]).Dict()
		if err != nil {
			return in.Errorf("%v", err)
		}
		in.SetResultString(strconv.Itoa(len(d.Items)))
	default:
		return in.Errorf("unknown or ambiguous subcommand %q: must be create, exists, get, keys, set, size, unset, or values", sub)
	}
	return core.ResultOK
}

// -----------------------------------------------------------------------------
// I/O and introspection
// -----------------------------------------------------------------------------

func (i *Interp) cmdPuts(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	newline := true
	if len(args) == 2 && i.StringOf(args[0]) == "-nonewline" {
		newline = false
		args = args[1:]
	}
	if len(args) != 1 {
		return wrongArgs(in, "puts ?-nonewline? string")
	}
	if newline {
		fmt.Fprintln(i.out, i.StringOf(args[0]))
	} else {
		fmt.Fprint(i.out, i.StringOf(args[0]))
	}
	in.SetResultString("")
	return core.ResultOK
}

func (i *Interp) cmdInfo(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) < 1 {
		return wrongArgs(in, "info subcommand ?arg ...?")
	}
	switch sub := i.StringOf(args[0]); sub {
	case "exists":
		if len(args) != 2 {
			return wrongArgs(in, "info exists varName")
		}
		if _, ok := in.GetVar(i.StringOf(args[1])); ok {
			in.SetResultString("1")
		} else {
			in.SetResultString("0")
		}
	case "commands":
		names := make([]string, 0, len(i.commands)+len(i.procs))
		for name := range i.commands {
			names = append(names, name)
		}
		for name := range i.procs {
			names = append(names, name)
		}
		sort.Strings(names)
		in.SetResultString(core.JoinList(names))
	case "procs":
		names := make([]string, 0, len(i.procs))
		for name := range i.procs {
			names = append(names, name)
		}
		sort.Strings(names)
		in.SetResultString(core.JoinList(names))
	case "coroutine":
		in.SetResultString(in.CurrentCoroutine())
	case "level":
		in.SetResultString(strconv.Itoa(in.CurrentFrame().Depth()))
	default:
		return in.Errorf("unknown or ambiguous subcommand %q: must be commands, coroutine, exists, level, or procs", sub)
	}
	return core.ResultOK
}

// -----------------------------------------------------------------------------
// Coroutines
// -----------------------------------------------------------------------------

func (i *Interp) cmdCoroutine(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) < 2 {
		return wrongArgs(in, "coroutine name cmd ?arg ...?")
	}
	return in.CreateCoroutine(args[0], args[1:])
}

func (i *Interp) cmdYield(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	var val core.Obj
	switch len(args) {
	case 0:
	case 1:
		val = args[0]
	default:
		return wrongArgs(in, "yield ?value?")
	}
	return in.Yield(val)
}

func (i *Interp) cmdYieldTo(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
	if len(args) < 1 {
		return wrongArgs(in, "yieldto command ?arg ...?")
	}
	return in.YieldTo(args)
}
