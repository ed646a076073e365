package plume

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/feather-lang/plume/core"
)

// Interp is a plume interpreter instance.
//
// Create a new interpreter with [New] and always call [Interp.Close] when done.
// An interpreter is not safe for concurrent use from multiple goroutines.
//
//	interp := plume.New()
//	defer interp.Close()
//	result, err := interp.Eval("expr {2 + 2}")
type Interp struct {
	core *core.Interp

	objects       map[core.Obj]*Obj // persistent storage
	scratch       map[core.Obj]*Obj // scratch arena (released after each eval)
	nextID        core.Obj          // next persistent ID (no high bit)
	scratchNextID core.Obj          // next scratch ID (high bit set)

	vartables    map[core.VarTable]map[string]core.Obj
	nextVarTable core.VarTable

	commands map[string]core.CommandFunc
	procs    map[string]*procDef

	out io.Writer // destination for puts
}

// procDef is a script-defined procedure. Params and body are persistent
// handles so they survive the evaluation that defined them.
type procDef struct {
	params core.Obj
	body   core.Obj
}

// New creates a new interpreter with all standard commands registered.
//
// The interpreter must be closed with [Interp.Close] when no longer needed
// to release resources.
func New() *Interp {
	i := &Interp{
		objects:       make(map[core.Obj]*Obj),
		scratch:       make(map[core.Obj]*Obj),
		nextID:        1,
		scratchNextID: scratchHandleBit | 1,
		vartables:     make(map[core.VarTable]map[string]core.Obj),
		nextVarTable:  1,
		commands:      make(map[string]core.CommandFunc),
		procs:         make(map[string]*procDef),
		out:           os.Stdout,
	}
	i.core = core.New(i)
	i.registerBuiltins()
	return i
}

// Close releases resources associated with the interpreter.
//
// After Close is called, the interpreter and all *Obj values created from it
// become invalid.
func (i *Interp) Close() {
	i.core.Close()
	i.objects = nil
	i.scratch = nil
	i.vartables = nil
	i.commands = nil
	i.procs = nil
}

// Core returns the underlying evaluation core.
//
// Low-level API. Most embedders never need it; command implementations
// receive the core directly.
func (i *Interp) Core() *core.Interp { return i.core }

// SetOutput redirects the output of the puts command. The default is
// os.Stdout.
func (i *Interp) SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	i.out = w
}

// EvalError is the error returned when a script evaluation fails.
type EvalError struct {
	// Message is the interpreter's error message.
	Message string
	// Code is the raw completion code the script finished with.
	Code core.Result
}

func (e *EvalError) Error() string { return e.Message }

// -----------------------------------------------------------------------------
// Object Creation
// -----------------------------------------------------------------------------

// String creates a string object.
func (i *Interp) String(s string) *Obj {
	return &Obj{bytes: s, interp: i}
}

// Int creates an integer object.
func (i *Interp) Int(v int64) *Obj {
	return &Obj{intrep: IntType(v), interp: i}
}

// Double creates a floating-point object.
func (i *Interp) Double(v float64) *Obj {
	return &Obj{intrep: DoubleType(v), interp: i}
}

// Bool creates a boolean object, stored as int 1 (true) or 0 (false).
//
// TCL has no native boolean type; booleans are represented as integers.
func (i *Interp) Bool(v bool) *Obj {
	if v {
		return &Obj{intrep: IntType(1), interp: i}
	}
	return &Obj{intrep: IntType(0), interp: i}
}

// List creates a list object from the given items.
//
//	list := interp.List(interp.String("a"), interp.Int(1))
//	list.String() // "a 1"
func (i *Interp) List(items ...*Obj) *Obj {
	return &Obj{intrep: ListType(items), interp: i}
}

// DictKV creates a dict object from alternating key-value pairs.
//
// Keys should be strings (non-strings are converted via fmt.Sprintf).
// Values are auto-converted based on their Go type.
//
//	dict := interp.DictKV("name", "Alice", "age", 30)
func (i *Interp) DictKV(kvs ...any) *Obj {
	d := &DictType{Items: make(map[string]*Obj)}
	for j := 0; j+1 < len(kvs); j += 2 {
		key, ok := kvs[j].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvs[j])
		}
		d.Set(key, i.anyToObj(kvs[j+1]))
	}
	return &Obj{intrep: d, interp: i}
}

// Obj creates an object with a custom ObjType internal representation.
//
// Use this when implementing custom shimmering types.
func (i *Interp) Obj(intrep ObjType) *Obj {
	return &Obj{intrep: intrep, interp: i}
}

// anyToObj converts any Go value to a *Obj.
func (i *Interp) anyToObj(v any) *Obj {
	switch val := v.(type) {
	case string:
		return i.String(val)
	case int:
		return i.Int(int64(val))
	case int64:
		return i.Int(val)
	case float64:
		return i.Double(val)
	case bool:
		return i.Bool(val)
	case []string:
		items := make([]*Obj, len(val))
		for j, s := range val {
			items[j] = i.String(s)
		}
		return i.List(items...)
	case []any:
		items := make([]*Obj, len(val))
		for j, e := range val {
			items[j] = i.anyToObj(e)
		}
		return i.List(items...)
	case *Obj:
		if val.interp == nil {
			val.interp = i
		}
		return val
	default:
		return i.String(fmt.Sprintf("%v", v))
	}
}

// -----------------------------------------------------------------------------
// Script Evaluation
// -----------------------------------------------------------------------------

// Eval evaluates a TCL script and returns the result.
//
// Multiple commands can be separated by semicolons or newlines.
// Returns an [*EvalError] if the script has a syntax error or a command
// fails. Side effects of commands executed before the failure are kept.
//
//	result, err := interp.Eval("set x 10; expr {$x * 2}")
func (i *Interp) Eval(script string) (*Obj, error) {
	rc := i.core.Eval(script)
	res := i.objForHandle(i.core.Result())
	if rc != core.ResultOK {
		return nil, &EvalError{Message: res.String(), Code: rc}
	}
	return res, nil
}

// Call invokes a single command with the given arguments.
//
// Unlike building a command string for [Interp.Eval], Call quotes each
// argument, so strings with special characters are passed safely.
//
//	result, err := interp.Call("llength", myList)
func (i *Interp) Call(cmd string, args ...any) (*Obj, error) {
	parts := make([]string, len(args)+1)
	parts[0] = quote(cmd)
	for idx, arg := range args {
		parts[idx+1] = toTclString(arg)
	}
	return i.Eval(strings.Join(parts, " "))
}

// -----------------------------------------------------------------------------
// Variables
// -----------------------------------------------------------------------------

// Var returns the value of a global variable.
//
// Returns an empty string object if the variable does not exist.
//
//	interp.SetVar("x", 42)
//	v := interp.Var("x")
//	n, _ := v.Int() // 42
func (i *Interp) Var(name string) *Obj {
	h, ok := i.core.GetVar(name)
	if !ok {
		return i.String("")
	}
	return i.objForHandle(h)
}

// SetVar sets a global variable to a value.
//
// The value is automatically converted from Go types:
// string, int, int64, float64, bool and *Obj are handled directly,
// everything else goes through fmt.Sprintf.
//
//	interp.SetVar("name", "Alice")
//	interp.SetVar("count", 42)
func (i *Interp) SetVar(name string, val any) {
	i.core.SetVar(name, i.handleFor(i.anyToObj(val)))
}

// SetVars sets multiple variables at once from a map.
func (i *Interp) SetVars(vars map[string]any) {
	for name, val := range vars {
		i.SetVar(name, val)
	}
}

// Unset removes a variable and reports whether it existed.
func (i *Interp) Unset(name string) bool {
	return i.core.UnsetVar(name)
}

// -----------------------------------------------------------------------------
// Command Registration
// -----------------------------------------------------------------------------

// CommandFunc is the signature for custom commands registered with
// [Interp.RegisterCommand].
//
// The function receives the interpreter, the command name as invoked and
// the arguments. Return [OK] for success or [Error]/[Errorf] for failure.
type CommandFunc func(i *Interp, cmd *Obj, args []*Obj) Result

// RegisterCommand adds a command using the low-level CommandFunc interface.
//
// Use this when you need full control over argument handling or custom
// error messages. For simpler cases, use [Interp.Register].
func (i *Interp) RegisterCommand(name string, fn CommandFunc) {
	i.commands[strings.TrimPrefix(name, "::")] = func(in *core.Interp, cmd core.Obj, args []core.Obj) core.Result {
		objArgs := make([]*Obj, len(args))
		for j, h := range args {
			objArgs[j] = i.objForHandle(h)
		}
		r := fn(i, i.objForHandle(cmd), objArgs)
		if r.hasObj && r.obj != nil {
			in.SetResult(i.handleFor(r.obj))
		} else {
			in.SetResultString(r.val)
		}
		return r.code
	}
}

// Register adds a command with automatic argument conversion.
//
// The function's signature determines how arguments are converted:
// string, int, int64, float64, bool and []string parameters are parsed
// from the arguments; variadic parameters consume the rest. Return values
// convert back the same way, and a trailing error return fails the
// command.
//
//	interp.Register("greet", func(name string) string {
//	    return "Hello, " + name
//	})
//
//	interp.Register("divide", func(a, b int) (int, error) {
//	    if b == 0 {
//	        return 0, errors.New("division by zero")
//	    }
//	    return a / b, nil
//	})
func (i *Interp) Register(name string, fn any) {
	i.commands[strings.TrimPrefix(name, "::")] = wrapFunc(i, fn)
}

// UnregisterCommand removes a previously registered command or procedure.
func (i *Interp) UnregisterCommand(name string) {
	name = strings.TrimPrefix(name, "::")
	delete(i.commands, name)
	delete(i.procs, name)
}

// -----------------------------------------------------------------------------
// Command Results
// -----------------------------------------------------------------------------

// Result represents the result of a command execution.
//
// Create results using [OK], [Error], or [Errorf].
type Result struct {
	code   core.Result
	val    string // used when obj is nil
	obj    *Obj   // used when non-nil (preserves type)
	hasObj bool
}

// OK returns a successful result with a value.
//
// The value is auto-converted to its TCL representation. Pass a [*Obj]
// directly to preserve its internal type.
func OK(v any) Result {
	if o, ok := v.(*Obj); ok {
		return Result{code: core.ResultOK, obj: o, hasObj: true}
	}
	switch val := v.(type) {
	case string:
		return Result{code: core.ResultOK, val: val}
	case int:
		return Result{code: core.ResultOK, val: fmt.Sprintf("%d", val)}
	case int64:
		return Result{code: core.ResultOK, val: fmt.Sprintf("%d", val)}
	case float64:
		return Result{code: core.ResultOK, val: fmt.Sprintf("%g", val)}
	case bool:
		if val {
			return Result{code: core.ResultOK, val: "1"}
		}
		return Result{code: core.ResultOK, val: "0"}
	default:
		return Result{code: core.ResultOK, val: fmt.Sprintf("%v", v)}
	}
}

// Error returns an error result with a message or *Obj.
func Error(v any) Result {
	if o, ok := v.(*Obj); ok {
		return Result{code: core.ResultError, obj: o, hasObj: true}
	}
	if s, ok := v.(string); ok {
		return Result{code: core.ResultError, val: s}
	}
	return Result{code: core.ResultError, val: fmt.Sprintf("%v", v)}
}

// Errorf returns a formatted error result.
//
//	return plume.Errorf("expected %d args, got %d", want, got)
func Errorf(format string, args ...any) Result {
	return Result{code: core.ResultError, val: fmt.Sprintf(format, args...)}
}

// -----------------------------------------------------------------------------
// Parsing helpers
// -----------------------------------------------------------------------------

// parseList parses a string into list elements. Used by Obj.List for
// shimmering.
func (i *Interp) parseList(s string) ([]*Obj, error) {
	items, err := core.SplitList(s)
	if err != nil {
		return nil, err
	}
	result := make([]*Obj, len(items))
	for j, item := range items {
		result[j] = i.String(item)
	}
	return result, nil
}

// parseDict parses a string into a dict. Used by Obj.Dict for shimmering.
func (i *Interp) parseDict(s string) (*DictType, error) {
	items, err := core.SplitList(s)
	if err != nil {
		return nil, err
	}
	if len(items)%2 != 0 {
		return nil, fmt.Errorf("missing value to go with key")
	}
	d := &DictType{Items: make(map[string]*Obj, len(items)/2)}
	for j := 0; j < len(items); j += 2 {
		d.Set(items[j], i.String(items[j+1]))
	}
	return d, nil
}
