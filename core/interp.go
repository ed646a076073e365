package core

import "fmt"

// DefaultRecursionLimit is the default maximum evaluation depth.
const DefaultRecursionLimit = 1000

// Interp is one interpreter instance. All mutable evaluation state --
// the frame chain, the result register, the coroutine table, the current
// coroutine and the pending-yield flag -- is scoped here, never to the
// process, so independent interpreters do not interfere.
//
// An Interp is not safe for concurrent use from multiple goroutines.
type Interp struct {
	host Host

	global  *Frame
	current *Frame
	result  Obj

	limit int // maximum evaluation depth (0 means default)
	depth int // nested evaluator invocations

	// Coroutine state.
	coros        map[string]*Coroutine
	currentCoro  *Coroutine
	yieldPending bool // a yield is unwinding the machine
	yieldDirect  bool // the level whose dispatch was the yield itself
	loopMark     int  // loop position recorded before the next EvalBody

	// Persistent body ASTs, keyed by script text.
	asts map[string]*AstNode
}

// New creates an interpreter backed by host.
func New(host Host) *Interp {
	in := &Interp{
		host:  host,
		coros: make(map[string]*Coroutine),
		asts:  make(map[string]*AstNode),
	}
	in.global = in.newFrame(nil, FrameGlobal, nil)
	in.current = in.global
	return in
}

// Close releases the interpreter's frames and coroutine state.
func (in *Interp) Close() {
	for name, c := range in.coros {
		in.releaseCoroutine(c)
		delete(in.coros, name)
	}
	in.releaseFrame(in.global)
	in.global = nil
	in.current = nil
}

// Host returns the interpreter's host callback table.
func (in *Interp) Host() Host { return in.host }

// SetRecursionLimit sets the maximum evaluation depth. Non-positive
// values restore the default.
func (in *Interp) SetRecursionLimit(limit int) {
	if limit <= 0 {
		in.limit = DefaultRecursionLimit
		return
	}
	in.limit = limit
}

func (in *Interp) recursionLimit() int {
	if in.limit <= 0 {
		return DefaultRecursionLimit
	}
	return in.limit
}

// Result returns the interpreter's current result value.
func (in *Interp) Result() Obj { return in.result }

// ResultString returns the string form of the current result.
func (in *Interp) ResultString() string { return in.host.StringOf(in.result) }

// SetResult sets the interpreter's result value.
func (in *Interp) SetResult(o Obj) { in.result = o }

// SetResultString sets the result to a transient string value.
func (in *Interp) SetResultString(s string) { in.result = in.host.Intern(s) }

// Errorf sets the result to a formatted error message and returns
// ResultError, the usual way commands report failure.
func (in *Interp) Errorf(format string, args ...any) Result {
	in.result = in.host.Intern(fmt.Sprintf(format, args...))
	return ResultError
}

func (in *Interp) errorf(format string, args ...any) Result {
	return in.Errorf(format, args...)
}

// parseErrorResult converts a parse failure into an error result.
func (in *Interp) parseErrorResult(err error) Result {
	if pe, ok := err.(*ParseError); ok && pe.Line > 0 {
		return in.errorf("%s", pe.Error())
	}
	return in.errorf("%v", err)
}

// Eval evaluates a top-level script. It opens a scratch arena scope for
// the evaluation's transient values and promotes the result before
// releasing the scope, so the result survives for the embedder.
//
// Commands already executed before an error keep their side effects.
func (in *Interp) Eval(script string) Result {
	mark := in.host.ArenaPush()
	rc := in.evalString(script)
	in.result = in.host.Promote(in.result)
	in.host.ArenaPop(mark)
	return rc
}

// EvalBody evaluates a script object on behalf of a command (loop and
// conditional bodies, proc-like callers, catch, eval). Outside a
// coroutine this takes the plain transient path. Inside a coroutine it
// runs a continuation-machine level over a persistent AST; if that level
// suspends, its continuation is saved on the coroutine so a later
// re-invocation of the same command can resume it (see ReDrive).
func (in *Interp) EvalBody(body Obj) Result {
	c := in.currentCoro
	if c == nil {
		return in.evalString(in.host.StringOf(body))
	}
	src := in.host.StringOf(body)
	pos := in.loopMark
	in.loopMark = 0

	var rc Result
	var cont *Continuation
	if ic, ok := c.takeInner(src); ok {
		// Re-dispatching the outer command zeroed the result register;
		// the suspended yield inside this chain pops with the register's
		// value, so the resume value must be put back first.
		in.current = ic.cont.frame
		in.result = c.resumeVal
		rc, cont = in.runChain(ic.cont.top, ic.cont.root)
	} else {
		ast, err := in.bodyAST(src)
		if err != nil {
			return in.parseErrorResult(err)
		}
		if in.depth >= in.recursionLimit() {
			return in.errorf("too many nested evaluations (infinite loop?)")
		}
		in.depth++
		rc, cont = in.runChain(&contFrame{phase: phaseScript, node: ast}, ast)
		in.depth--
	}
	if cont != nil {
		c.inner = append(c.inner, innerCont{cont: cont, script: src, pos: pos})
	}
	return rc
}

// MarkLoop records the loop position to attach to the next suspension
// under EvalBody. Loop commands call it before evaluating their body so
// a resume can restart iteration in the right place.
func (in *Interp) MarkLoop(pos int) { in.loopMark = pos }

// ReDrive reports whether a suspended evaluation of body is waiting
// under the current coroutine, and the loop position recorded when it
// suspended. Commands that evaluate scripts check this when they are
// re-invoked during a resume.
func (in *Interp) ReDrive(body Obj) (int, bool) {
	c := in.currentCoro
	if c == nil {
		return 0, false
	}
	src := in.host.StringOf(body)
	for i := len(c.inner) - 1; i >= 0; i-- {
		if c.inner[i].script == src {
			return c.inner[i].pos, true
		}
	}
	return 0, false
}

// Suspending reports whether a yield is currently unwinding the
// evaluator. Loop commands stop iterating when it is set.
func (in *Interp) Suspending() bool { return in.yieldPending }

// bodyAST returns the cached persistent AST for a script, parsing it on
// first use. ASTs must outlive individual evaluator calls because
// suspended continuations point into them.
func (in *Interp) bodyAST(src string) (*AstNode, error) {
	if ast, ok := in.asts[src]; ok {
		return ast, nil
	}
	ast, err := ParseScript(src)
	if err != nil {
		return nil, err
	}
	in.asts[src] = ast
	return ast, nil
}

// evalString is the transient evaluation path: commands are parsed one
// at a time into reusable word buffers, substituted and dispatched, with
// no persistent AST built.
func (in *Interp) evalString(src string) Result {
	if in.depth >= in.recursionLimit() {
		return in.errorf("too many nested evaluations (infinite loop?)")
	}
	in.depth++
	defer func() { in.depth-- }()

	p := NewParser(src)
	var cmd ParsedCommand
	in.result = 0
	for {
		ok, err := p.NextCommand(&cmd)
		if err != nil {
			return in.parseErrorResult(err)
		}
		if !ok {
			return ResultOK
		}
		if rc := in.evalParsedCommand(&cmd); rc != ResultOK {
			return rc
		}
	}
}

// evalParsedCommand substitutes one command's words and dispatches it.
func (in *Interp) evalParsedCommand(cmd *ParsedCommand) Result {
	args := make([]Obj, 0, len(cmd.Words))
	for _, w := range cmd.Words {
		val, rc := in.substWord(w)
		if rc != ResultOK {
			return rc
		}
		args = append(args, val)
	}
	if len(args) == 0 {
		return ResultOK
	}
	return in.dispatch(args)
}

// dispatch resolves and invokes a fully substituted command. The
// continuation machine has its own dispatch so that procedure calls
// under a coroutine are handled machine-internally; this one serves the
// transient path and direct callers such as yieldto.
func (in *Interp) dispatch(args []Obj) Result {
	name := in.host.StringOf(args[0])
	info := in.host.LookupCommand(name)
	switch info.Kind {
	case CmdBuiltin:
		in.result = 0
		return info.Fn(in, args[0], args[1:])
	case CmdProc:
		return in.callProc(name, info, args)
	default:
		if c := in.findCoroutine(name); c != nil {
			return in.invokeCoroutine(c, args[1:])
		}
		return in.errorf("invalid command name %q", name)
	}
}

// callProc invokes a user-defined procedure on the transient dispatch
// path. Inside a coroutine procs normally run machine-internally
// (machineDispatch), but this path is still reached while a coroutine
// is current for commands dispatched outside the machine, such as a
// yieldto target; the re-drive check keeps a body suspended from such
// a call resumable. If the body suspends, the frame is left in place
// for the resume; a re-invocation during a resume skips frame setup
// and lets EvalBody restore the suspended body evaluation, original
// frame included.
func (in *Interp) callProc(name string, info CmdInfo, args []Obj) Result {
	if _, pending := in.ReDrive(info.Body); pending {
		rc := in.EvalBody(info.Body)
		if in.Suspending() {
			return rc
		}
		in.PopFrame()
		return in.finishCallCode(rc)
	}
	if _, err := in.PushFrame(FrameProc, args); err != nil {
		return in.errorf("%v", err)
	}
	if rc := in.bindParams(name, info.Params, args[1:]); rc != ResultOK {
		in.PopFrame()
		return rc
	}
	rc := in.EvalBody(info.Body)
	if in.Suspending() {
		return rc
	}
	in.PopFrame()
	return in.finishCallCode(rc)
}

// finishCallCode maps a body completion code to the caller-visible code
// at a procedure boundary.
func (in *Interp) finishCallCode(rc Result) Result {
	switch rc {
	case ResultReturn:
		return ResultOK
	case ResultBreak:
		return in.errorf("invoked \"break\" outside of a loop")
	case ResultContinue:
		return in.errorf("invoked \"continue\" outside of a loop")
	}
	return rc
}

// bindParams binds a procedure's formal parameters to call arguments in
// the current frame. The trailing formal "args" collects extra arguments
// as a list; two-element formals carry defaults.
func (in *Interp) bindParams(name string, params Obj, args []Obj) Result {
	specs, err := SplitList(in.host.StringOf(params))
	if err != nil {
		return in.errorf("%v", err)
	}
	usage := func() string {
		parts := []string{name}
		for _, spec := range specs {
			fields, _ := SplitList(spec)
			if len(fields) == 0 {
				continue
			}
			if fields[0] == "args" {
				parts = append(parts, "?arg ...?")
			} else if len(fields) > 1 {
				parts = append(parts, "?"+fields[0]+"?")
			} else {
				parts = append(parts, fields[0])
			}
		}
		return JoinList(parts)
	}
	for i, spec := range specs {
		fields, err := SplitList(spec)
		if err != nil || len(fields) == 0 {
			return in.errorf("procedure %q has argument with no name", name)
		}
		formal := fields[0]
		if formal == "args" && i == len(specs)-1 {
			rest := make([]string, 0, len(args)-i)
			for _, a := range args[i:] {
				rest = append(rest, in.host.StringOf(a))
			}
			in.SetVar("args", in.host.Intern(JoinList(rest)))
			return ResultOK
		}
		if i < len(args) {
			in.SetVar(formal, args[i])
		} else if len(fields) > 1 {
			in.SetVar(formal, in.host.Intern(fields[1]))
		} else {
			return in.errorf("wrong # args: should be %q", usage())
		}
	}
	if len(args) > len(specs) {
		return in.errorf("wrong # args: should be %q", usage())
	}
	return ResultOK
}

// BindParams exposes parameter binding for proc-like commands (apply).
func (in *Interp) BindParams(name string, params Obj, args []Obj) Result {
	return in.bindParams(name, params, args)
}

// FinishCallCode exposes the procedure-boundary code mapping for
// proc-like commands (apply).
func (in *Interp) FinishCallCode(rc Result) Result {
	return in.finishCallCode(rc)
}
