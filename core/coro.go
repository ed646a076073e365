package core

import "strings"

// Coroutine is a named, resumable unit of execution. While suspended it
// owns a Continuation for its base evaluation level plus a stack of
// inner continuations for nested evaluations that builtins were driving
// when the yield happened (see EvalBody and ReDrive).
type Coroutine struct {
	name string
	cmd  Obj
	args []Obj

	base  *Frame // base frame the coroutine runs under
	saved *Frame // frame active at the last suspension

	cont  *Continuation
	inner []innerCont

	started bool
	running bool
	done    bool

	lastValue Obj

	// resumeVal is the value passed to the current resume. The inner
	// evaluation level holding the suspended yield restores it into the
	// result register just before it is re-run (see EvalBody); outer
	// levels that merely re-dispatch their driving command never read it.
	resumeVal Obj
}

// innerCont is a suspended nested evaluation level, tagged with the
// script it was evaluating and the loop position its driving command
// recorded before the suspension.
type innerCont struct {
	cont   *Continuation
	script string
	pos    int
}

// takeInner removes and returns the most recently pushed inner
// continuation for the given script text. Matching is by script content:
// on resume, re-driven commands pass freshly promoted handles, but the
// text is stable.
func (c *Coroutine) takeInner(script string) (innerCont, bool) {
	for i := len(c.inner) - 1; i >= 0; i-- {
		if c.inner[i].script == script {
			ic := c.inner[i]
			c.inner = append(c.inner[:i], c.inner[i+1:]...)
			return ic, true
		}
	}
	return innerCont{}, false
}

// coroKey normalizes a coroutine name: a leading namespace separator is
// insignificant, so "::c" and "c" name the same coroutine.
func coroKey(name string) string {
	return strings.TrimPrefix(name, "::")
}

// findCoroutine resolves a command name to a live coroutine, if any.
func (in *Interp) findCoroutine(name string) *Coroutine {
	return in.coros[coroKey(name)]
}

// CurrentCoroutine returns the name of the running coroutine, or "".
func (in *Interp) CurrentCoroutine() string {
	if in.currentCoro == nil {
		return ""
	}
	return in.currentCoro.name
}

// CreateCoroutine implements the "coroutine" command: it registers a
// named coroutine around cmd and args and immediately runs it until its
// first yield or completion. The interpreter result afterwards is the
// first yielded value, or the coroutine's final result if it never
// suspended.
func (in *Interp) CreateCoroutine(name Obj, cmdAndArgs []Obj) Result {
	nameStr := in.host.StringOf(name)
	key := coroKey(nameStr)
	if _, exists := in.coros[key]; exists {
		return in.errorf("can't create coroutine %q: command already exists", nameStr)
	}
	if in.host.LookupCommand(key).Kind != CmdNotFound {
		return in.errorf("can't create coroutine %q: command already exists", nameStr)
	}
	c := &Coroutine{name: key, cmd: in.host.Promote(cmdAndArgs[0])}
	for _, a := range cmdAndArgs[1:] {
		c.args = append(c.args, in.host.Promote(a))
	}
	in.coros[key] = c
	return in.invokeCoroutine(c, nil)
}

// Yield implements the "yield" command: it flags the pending suspension
// and sets the value the coroutine's invoker will receive. The actual
// capture happens as the machine polls the flag while unwinding.
func (in *Interp) Yield(val Obj) Result {
	if in.currentCoro == nil {
		return in.errorf("yield can only be called in a coroutine")
	}
	in.yieldPending = true
	in.yieldDirect = true
	in.result = val
	return ResultOK
}

// YieldTo implements the "yieldto" command: it runs a command first and
// suspends with that command's result as the yielded value.
func (in *Interp) YieldTo(cmdAndArgs []Obj) Result {
	if in.currentCoro == nil {
		return in.errorf("yieldto can only be called in a coroutine")
	}
	if rc := in.dispatch(cmdAndArgs); rc != ResultOK {
		return rc
	}
	in.yieldPending = true
	in.yieldDirect = true
	return ResultOK
}

// invokeCoroutine starts or resumes a coroutine. The resume value (one
// optional argument) becomes the result of the suspended yield. After
// the evaluator call the coroutine is either suspended again, holding a
// fresh continuation, or done and removed from the table, so a later
// invocation by name fails with "invalid command name".
func (in *Interp) invokeCoroutine(c *Coroutine, args []Obj) Result {
	if c.done {
		return in.errorf("invalid command name %q", c.name)
	}
	if c.running {
		return in.errorf("coroutine is already running")
	}
	var resumeVal Obj
	switch len(args) {
	case 0:
	case 1:
		resumeVal = args[0]
	default:
		return in.errorf("wrong # args: should be %q", c.name+" ?arg?")
	}

	prevCoro := in.currentCoro
	prevFrame := in.current
	in.currentCoro = c
	c.running = true

	var rc Result
	var cont *Continuation
	if !c.started {
		rc, cont = in.startCoroutine(c)
	} else {
		saved := c.cont
		c.cont = nil
		in.current = saved.frame
		in.result = resumeVal
		c.resumeVal = resumeVal
		rc, cont = in.runChain(saved.top, saved.root)
	}

	c.running = false
	in.currentCoro = prevCoro

	if rc == ResultOK && in.yieldPending && cont != nil {
		in.yieldPending = false
		in.yieldDirect = false
		c.cont = cont
		c.saved = in.current
		c.lastValue = in.host.Promote(in.result)
		in.current = prevFrame
		in.result = c.lastValue
		return ResultOK
	}

	// Completed (or errored): the coroutine is done for good.
	in.yieldPending = false
	in.yieldDirect = false
	in.current = prevFrame
	c.done = true
	c.cont = nil
	for i := range c.inner {
		in.releaseChain(c.inner[i].cont)
	}
	c.inner = nil
	c.lastValue = in.host.Promote(in.result)
	in.result = c.lastValue
	delete(in.coros, c.name)
	in.releaseFrame(c.base)
	c.base = nil
	return in.finishCallCode(rc)
}

// startCoroutine performs the first invocation: it builds the base
// frame, resolves the target command and enters the evaluator fresh.
// Procedure targets get their body parsed into the persistent AST and
// run machine-internally; builtin targets run under a synthetic,
// already-substituted command frame.
func (in *Interp) startCoroutine(c *Coroutine) (Result, *Continuation) {
	c.started = true
	invocation := append([]Obj{c.cmd}, c.args...)
	c.base = in.newFrame(in.global, FrameCoroBase, invocation)
	in.current = c.base

	name := in.host.StringOf(c.cmd)
	info := in.host.LookupCommand(name)
	switch info.Kind {
	case CmdProc:
		if rc := in.bindParams(name, info.Params, c.args); rc != ResultOK {
			return rc, nil
		}
		ast, err := in.bodyAST(in.host.StringOf(info.Body))
		if err != nil {
			return in.parseErrorResult(err), nil
		}
		in.result = 0
		return in.runChain(&contFrame{phase: phaseScript, node: ast}, ast)
	case CmdBuiltin:
		in.result = 0
		return in.runChain(&contFrame{phase: phaseCommand, args: invocation}, nil)
	default:
		return in.errorf("invalid command name %q", name), nil
	}
}

// releaseCoroutine frees a coroutine's frames and abandoned
// continuations at interpreter teardown.
func (in *Interp) releaseCoroutine(c *Coroutine) {
	in.releaseChain(c.cont)
	for i := range c.inner {
		in.releaseChain(c.inner[i].cont)
	}
	c.inner = nil
	c.cont = nil
	if c.base != nil {
		in.releaseFrame(c.base)
		c.base = nil
	}
	c.done = true
}
