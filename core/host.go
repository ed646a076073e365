package core

// Obj is a handle to a host-managed value. The core never inspects or
// stores value contents directly; it borrows handles and derives strings
// through the Host. Handle 0 is the nil value.
type Obj uint64

// VarTable is a handle to a host-managed variable table.
type VarTable uint64

// ArenaMark identifies a point in the host's scratch arena. Releasing a
// mark invalidates every transient handle created after it was taken.
type ArenaMark uint64

// CmdKind classifies the result of a command lookup.
type CmdKind int

const (
	CmdNotFound CmdKind = iota
	CmdBuiltin
	CmdProc
)

// CommandFunc is the signature for host command implementations.
// Commands receive the interpreter, the command name and a list of
// argument objects.
//
// In case of an error, the command should set the interpreter's error
// information and return ResultError.
//
// To return a value, the command should set the interpreter's result
// value and return ResultOK.
type CommandFunc func(in *Interp, cmd Obj, args []Obj) Result

// CmdInfo describes a resolved command. For builtins Fn is set; for
// procedures Params and Body hold the formal parameter list and body
// script as persistent objects.
type CmdInfo struct {
	Kind   CmdKind
	Fn     CommandFunc
	Params Obj
	Body   Obj
}

// Host supplies every piece of storage the core needs. The core itself
// never allocates value or variable storage: value construction, scratch
// arena discipline, variable tables and command lookup all go through
// this table. Implementations are not required to be safe for concurrent
// use; an interpreter and its host form a single-threaded unit.
type Host interface {
	// Intern stores s as a transient value. The handle is valid until
	// the enclosing arena scope is released.
	Intern(s string) Obj

	// InternGlobal stores s as a persistent value that survives
	// top-level evaluations. ASTs, continuations and coroutine state
	// must only reference persistent handles.
	InternGlobal(s string) Obj

	// StringOf returns the string form of a value. Every value has a
	// derivable string form; for handle 0 it is the empty string.
	StringOf(o Obj) string

	// Promote copies a value into persistent storage and returns the
	// persistent handle. Promoting a persistent handle is a no-op.
	Promote(o Obj) Obj

	// ArenaPush opens a scratch scope and returns its mark.
	ArenaPush() ArenaMark

	// ArenaPop releases a scratch scope. Scopes are strictly LIFO.
	ArenaPop(m ArenaMark)

	// NewVarTable allocates an empty variable table.
	NewVarTable() VarTable

	// ReleaseVarTable frees a variable table and its contents.
	ReleaseVarTable(t VarTable)

	// VarGet reads a variable. The second result reports existence.
	VarGet(t VarTable, name string) (Obj, bool)

	// VarSet writes a variable, creating it if needed.
	VarSet(t VarTable, name string, val Obj)

	// VarUnset removes a variable and reports whether it existed.
	VarUnset(t VarTable, name string) bool

	// LookupCommand resolves a command name. Kind is CmdNotFound when
	// no such command exists.
	LookupCommand(name string) CmdInfo
}
