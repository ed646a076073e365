package core

import "fmt"

// FrameFlags describe what kind of activation record a frame is.
type FrameFlags uint

const (
	// FrameGlobal marks the interpreter's top-level frame.
	FrameGlobal FrameFlags = 1 << iota
	// FrameProc marks a frame created for a procedure call.
	FrameProc
	// FrameCoroBase marks the base frame of a coroutine.
	FrameCoroBase
)

// Frame is one activation record. Frames form a parent-linked chain from
// the innermost call back to the global frame. Each frame owns a
// host-managed variable table.
type Frame struct {
	parent *Frame
	vars   VarTable
	depth  int
	flags  FrameFlags

	// invocation holds the command and arguments that created this
	// frame, for diagnostics.
	invocation []Obj
}

// Parent returns the calling frame, or nil for the global frame.
func (f *Frame) Parent() *Frame { return f.parent }

// Depth returns the call depth; the global frame is at depth 0.
func (f *Frame) Depth() int { return f.depth }

// IsGlobal reports whether this is the interpreter's global frame.
func (f *Frame) IsGlobal() bool { return f.flags&FrameGlobal != 0 }

// newFrame allocates a frame with a fresh variable table below parent.
func (in *Interp) newFrame(parent *Frame, flags FrameFlags, invocation []Obj) *Frame {
	depth := 0
	if parent != nil {
		depth = parent.depth + 1
	}
	return &Frame{
		parent:     parent,
		vars:       in.host.NewVarTable(),
		depth:      depth,
		flags:      flags,
		invocation: invocation,
	}
}

// releaseFrame returns the frame's variable table to the host.
func (in *Interp) releaseFrame(f *Frame) {
	if f == nil {
		return
	}
	in.host.ReleaseVarTable(f.vars)
	f.vars = 0
}

// PushFrame enters a new procedure-style frame and makes it current.
// Proc-like builtins (apply) that evaluate a script in a fresh scope
// create their frame with this.
func (in *Interp) PushFrame(flags FrameFlags, invocation []Obj) (*Frame, error) {
	if in.current.depth+1 >= in.recursionLimit() {
		return nil, fmt.Errorf("too many nested evaluations (infinite loop?)")
	}
	f := in.newFrame(in.current, flags, invocation)
	in.current = f
	return f, nil
}

// PopFrame leaves the current frame, restoring its parent. Popping the
// global frame is a no-op.
func (in *Interp) PopFrame() {
	if in.current == nil || in.current.IsGlobal() {
		return
	}
	f := in.current
	in.current = f.parent
	in.releaseFrame(f)
}

// CurrentFrame returns the frame evaluation is running in.
func (in *Interp) CurrentFrame() *Frame { return in.current }

// GlobalFrame returns the interpreter's top-level frame.
func (in *Interp) GlobalFrame() *Frame { return in.global }

// resolveVarTable maps a variable name to the table and key it lives in.
// Names with a "::" prefix always address the global table.
func (in *Interp) resolveVarTable(name string) (VarTable, string) {
	if len(name) >= 2 && name[0] == ':' && name[1] == ':' {
		return in.global.vars, name[2:]
	}
	return in.current.vars, name
}

// GetVar reads a variable visible from the current frame. Lookup tries
// the current frame first and falls back to the global frame only when
// the current frame is not already global.
func (in *Interp) GetVar(name string) (Obj, bool) {
	t, key := in.resolveVarTable(name)
	if v, ok := in.host.VarGet(t, key); ok {
		return v, true
	}
	if t != in.global.vars {
		if v, ok := in.host.VarGet(in.global.vars, key); ok {
			return v, true
		}
	}
	return 0, false
}

// SetVar writes a variable in the current frame (or the global frame for
// "::"-prefixed names).
func (in *Interp) SetVar(name string, val Obj) {
	t, key := in.resolveVarTable(name)
	in.host.VarSet(t, key, val)
}

// UnsetVar removes a variable and reports whether it existed.
func (in *Interp) UnsetVar(name string) bool {
	t, key := in.resolveVarTable(name)
	return in.host.VarUnset(t, key)
}
