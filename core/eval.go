package core

// The continuation machine. Inside a coroutine, scripts are evaluated by
// walking their persistent AST with an explicit, heap-resident chain of
// contFrames instead of the native call stack. Suspension then amounts
// to handing the chain back to the coroutine; resuming hands it to
// runChain again. The transient path in interp.go stays the fast route
// for everything that can never suspend.

type phase int

const (
	phaseScript phase = iota
	phaseCommand
	phaseWord
	phaseVarLookup
	phaseCmdSubst
)

// contFrame is one suspended (or in-progress) level of evaluation. A
// chain always bottoms out in a script-phase frame, except for the
// synthetic command frame that starts a builtin-target coroutine.
type contFrame struct {
	phase  phase
	node   *AstNode
	parent *contFrame

	// index is the walk position: next command for script frames, next
	// word for command frames, scan offset for word frames.
	index int

	// Command phase: substituted arguments so far, completion state and
	// the call frame to pop when a machine-internal proc call returns.
	// Arguments are never recomputed on resume; recomputation would
	// re-run side effects such as command substitutions.
	args      []Obj
	done      bool
	code      Result
	callFrame *Frame

	// Word phase: accumulated output and whether the word is exactly
	// one substitution whose value passes through unflattened.
	buf   []byte
	whole bool

	// VarLookup phase: the variable name being resolved.
	varName string
}

// Continuation is a complete suspended-evaluation snapshot: the top of
// the contFrame chain, the AST it walks and the frame that was active
// at suspension. It is owned by exactly one coroutine while suspended.
type Continuation struct {
	top   *contFrame
	root  *AstNode
	frame *Frame
}

// runChain drives a contFrame chain to completion or suspension. On
// suspension it returns ResultOK together with the new continuation and
// leaves the yielded value in the result register; on completion the
// continuation is nil and the result code is the script's.
func (in *Interp) runChain(top *contFrame, root *AstNode) (Result, *Continuation) {
	cf := top
	for cf != nil {
		switch cf.phase {
		case phaseScript, phaseCmdSubst:
			if cf.index >= len(cf.node.Children) {
				cf = in.popDeliver(cf, in.result)
				continue
			}
			cmdNode := cf.node.Children[cf.index]
			cf.index++
			if len(cmdNode.Children) == 0 {
				continue
			}
			cf = &contFrame{phase: phaseCommand, node: cmdNode, parent: cf}

		case phaseCommand:
			if cf.done {
				rc := cf.code
				if rc == ResultOK && in.yieldPending {
					if in.yieldDirect {
						// The dispatched command was the yield itself:
						// it completed, so evaluation resumes after it.
						in.yieldDirect = false
						next := in.popDeliver(cf, in.result)
						return ResultOK, in.capture(next, root)
					}
					// The yield happened inside a nested evaluation
					// driven by this command. Keep the frame, arguments
					// intact, so the resume re-dispatches it and lets it
					// re-drive its body.
					cf.done = false
					return ResultOK, in.capture(cf, root)
				}
				if rc != ResultOK {
					next, out := in.unwind(cf, rc)
					if next == nil {
						return out, nil
					}
					cf = next
					continue
				}
				cf = in.popDeliver(cf, in.result)
				continue
			}
			if cf.node != nil && cf.index < len(cf.node.Children) {
				wnode := cf.node.Children[cf.index]
				cf.index++
				if wnode.Word.Kind == WordBraced {
					cf.args = append(cf.args, in.host.Intern(wnode.Word.Text))
					continue
				}
				cf = &contFrame{phase: phaseWord, node: wnode, parent: cf}
				continue
			}
			if len(cf.args) == 0 {
				cf = in.popDeliver(cf, in.result)
				continue
			}
			cf = in.machineDispatch(cf)

		case phaseWord:
			next, rc := in.stepWord(cf)
			if rc != ResultOK {
				out, code := in.unwind(cf, rc)
				if out == nil {
					return code, nil
				}
				cf = out
				continue
			}
			cf = next

		case phaseVarLookup:
			val, rc := in.lookupVar(cf.varName)
			if rc != ResultOK {
				next, code := in.unwind(cf, rc)
				if next == nil {
					return code, nil
				}
				cf = next
				continue
			}
			cf = in.popDeliver(cf, val)
		}
	}
	return ResultOK, nil
}

// machineDispatch dispatches a command frame whose words are all
// substituted. Procedure calls are handled machine-internally so that a
// yield inside a proc body captures the call frame precisely. Builtins
// run as ordinary Go calls; their completion is recorded on the frame
// and handled by the done branch of runChain.
func (in *Interp) machineDispatch(cf *contFrame) *contFrame {
	name := in.host.StringOf(cf.args[0])
	info := in.host.LookupCommand(name)
	switch info.Kind {
	case CmdProc:
		f, err := in.PushFrame(FrameProc, cf.args)
		if err != nil {
			cf.done, cf.code = true, in.errorf("%v", err)
			return cf
		}
		if rc := in.bindParams(name, info.Params, cf.args[1:]); rc != ResultOK {
			in.PopFrame()
			cf.done, cf.code = true, rc
			return cf
		}
		ast, err := in.bodyAST(in.host.StringOf(info.Body))
		if err != nil {
			in.PopFrame()
			cf.done, cf.code = true, in.parseErrorResult(err)
			return cf
		}
		cf.callFrame = f
		in.result = 0
		return &contFrame{phase: phaseScript, node: ast, parent: cf}

	case CmdBuiltin:
		in.result = 0
		rc := info.Fn(in, cf.args[0], cf.args[1:])
		cf.done, cf.code = true, rc
		return cf

	default:
		var rc Result
		if c := in.findCoroutine(name); c != nil {
			rc = in.invokeCoroutine(c, cf.args[1:])
		} else {
			rc = in.errorf("invalid command name %q", name)
		}
		cf.done, cf.code = true, rc
		return cf
	}
}

// stepWord advances a word frame: it either pushes a child frame for
// the next substitution, or finishes the word and delivers its value.
// A nil next frame with a non-OK code reports a scan error.
func (in *Interp) stepWord(cf *contFrame) (*contFrame, Result) {
	s := cf.node.Word.Text

	// A word that is exactly one substitution delivers the value
	// unflattened, matching the transient path.
	if cf.index == 0 && len(cf.buf) == 0 {
		if len(s) > 1 && s[0] == '$' {
			if name, end, ok, err := scanVarRef(s, 0); err == nil && ok && end == len(s) {
				cf.whole = true
				cf.index = end
				return &contFrame{phase: phaseVarLookup, varName: name, parent: cf}, ResultOK
			}
		}
		if len(s) > 1 && s[0] == '[' {
			if end, err := scanBracket(s, 0); err == nil && end == len(s)-1 {
				sub, perr := in.bodyAST(s[1:end])
				if perr != nil {
					return nil, in.parseErrorResult(perr)
				}
				cf.whole = true
				cf.index = len(s)
				in.result = 0
				return &contFrame{phase: phaseCmdSubst, node: sub, parent: cf}, ResultOK
			}
		}
	}

	for cf.index < len(s) {
		if n := plainSpan(s, cf.index); n > 0 {
			cf.buf = append(cf.buf, s[cf.index:cf.index+n]...)
			cf.index += n
			continue
		}
		switch s[cf.index] {
		case '\\':
			rep, next := substEscape(s, cf.index)
			cf.buf = append(cf.buf, rep...)
			cf.index = next
		case '$':
			name, end, ok, err := scanVarRef(s, cf.index)
			if err != nil {
				return nil, in.errorf("%s", err.(*ParseError).Message)
			}
			if !ok {
				cf.buf = append(cf.buf, '$')
				cf.index++
				continue
			}
			cf.index = end
			return &contFrame{phase: phaseVarLookup, varName: name, parent: cf}, ResultOK
		case '[':
			end, err := scanBracket(s, cf.index)
			if err != nil {
				return nil, in.errorf("%s", err.(*ParseError).Message)
			}
			sub, perr := in.bodyAST(s[cf.index+1 : end])
			if perr != nil {
				return nil, in.parseErrorResult(perr)
			}
			cf.index = end + 1
			in.result = 0
			return &contFrame{phase: phaseCmdSubst, node: sub, parent: cf}, ResultOK
		}
	}
	return in.popDeliver(cf, in.host.Intern(string(cf.buf))), ResultOK
}

// popDeliver completes cf, delivering val to its parent, and returns
// the frame evaluation continues in. The result register always holds
// the delivered value afterwards.
func (in *Interp) popDeliver(cf *contFrame, val Obj) *contFrame {
	in.result = val
	p := cf.parent
	if p == nil {
		return nil
	}
	switch p.phase {
	case phaseScript, phaseCmdSubst:
		return p
	case phaseCommand:
		if cf.phase == phaseScript {
			// A machine-internal proc call's body completed normally.
			in.finishCall(p, ResultOK)
			return p
		}
		p.args = append(p.args, val)
		return p
	case phaseWord:
		if p.whole {
			return in.popDeliver(p, val)
		}
		p.buf = append(p.buf, in.host.StringOf(val)...)
		return p
	}
	return p
}

// finishCall closes a machine-internal proc call: the call frame is
// released and the command frame records its completion code.
func (in *Interp) finishCall(cmd *contFrame, rc Result) {
	if cmd.callFrame != nil {
		in.current = cmd.callFrame.parent
		in.releaseFrame(cmd.callFrame)
		cmd.callFrame = nil
	}
	cmd.done, cmd.code = true, in.finishCallCode(rc)
}

// unwind propagates a non-OK completion code outward. Return, break and
// continue stop at the nearest machine-internal proc boundary; anything
// that escapes the chain is returned to the caller of this machine
// level (a driving builtin, or the coroutine manager).
func (in *Interp) unwind(cf *contFrame, rc Result) (*contFrame, Result) {
	for p := cf.parent; p != nil; p = p.parent {
		if p.phase == phaseCommand && p.callFrame != nil {
			in.finishCall(p, rc)
			return p, p.code
		}
	}
	return nil, rc
}

// capture promotes every value a suspended chain references into
// persistent storage and snapshots it as a Continuation. Transient
// handles die with the top-level arena scope; a continuation spans
// several of those scopes.
func (in *Interp) capture(top *contFrame, root *AstNode) *Continuation {
	for f := top; f != nil; f = f.parent {
		for i := range f.args {
			f.args[i] = in.host.Promote(f.args[i])
		}
		if f.callFrame != nil {
			for i := range f.callFrame.invocation {
				f.callFrame.invocation[i] = in.host.Promote(f.callFrame.invocation[i])
			}
		}
	}
	in.result = in.host.Promote(in.result)
	return &Continuation{top: top, root: root, frame: in.current}
}

// releaseChain frees the call frames an abandoned continuation still
// holds. Used at interpreter teardown.
func (in *Interp) releaseChain(cont *Continuation) {
	if cont == nil {
		return
	}
	for f := cont.top; f != nil; f = f.parent {
		if f.callFrame != nil {
			in.releaseFrame(f.callFrame)
			f.callFrame = nil
		}
	}
}
