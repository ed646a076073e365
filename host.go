package plume

import (
	"strings"

	"github.com/feather-lang/plume/core"
)

// The default storage host. Values live in two tables: a persistent one
// for handles that must survive top-level evaluations (promoted values,
// procedure bodies, coroutine state) and a scratch one for everything
// created during a single evaluation. Scratch handles carry the high bit
// so the two spaces can never collide, and a whole scratch scope is
// released by deleting every handle at or above its mark.

const scratchHandleBit core.Obj = 1 << 63

// Intern stores s as a transient value valid for the current evaluation.
func (i *Interp) Intern(s string) core.Obj {
	return i.internScratch(&Obj{bytes: s, interp: i})
}

// InternGlobal stores s as a persistent value.
func (i *Interp) InternGlobal(s string) core.Obj {
	return i.internPersistent(&Obj{bytes: s, interp: i})
}

// StringOf returns the string form of a value handle.
func (i *Interp) StringOf(h core.Obj) string {
	return i.objForHandle(h).String()
}

// Promote copies a scratch value into persistent storage. Persistent
// handles pass through unchanged.
func (i *Interp) Promote(h core.Obj) core.Obj {
	if h == 0 || h&scratchHandleBit == 0 {
		return h
	}
	o, ok := i.scratch[h]
	if !ok {
		return 0
	}
	return i.internPersistent(o)
}

// ArenaPush opens a scratch scope.
func (i *Interp) ArenaPush() core.ArenaMark {
	return core.ArenaMark(i.scratchNextID)
}

// ArenaPop releases every scratch handle created since the mark.
func (i *Interp) ArenaPop(m core.ArenaMark) {
	mark := core.Obj(m)
	for h := range i.scratch {
		if h >= mark {
			delete(i.scratch, h)
		}
	}
	i.scratchNextID = mark
}

// NewVarTable allocates an empty variable table.
func (i *Interp) NewVarTable() core.VarTable {
	t := i.nextVarTable
	i.nextVarTable++
	i.vartables[t] = make(map[string]core.Obj)
	return t
}

// ReleaseVarTable frees a variable table.
func (i *Interp) ReleaseVarTable(t core.VarTable) {
	delete(i.vartables, t)
}

// VarGet reads a variable from a table.
func (i *Interp) VarGet(t core.VarTable, name string) (core.Obj, bool) {
	v, ok := i.vartables[t][name]
	return v, ok
}

// VarSet writes a variable. Stored values are promoted so that variables
// survive the scratch scope of the evaluation that set them.
func (i *Interp) VarSet(t core.VarTable, name string, val core.Obj) {
	tab, ok := i.vartables[t]
	if !ok {
		return
	}
	tab[name] = i.Promote(val)
}

// VarUnset removes a variable and reports whether it existed.
func (i *Interp) VarUnset(t core.VarTable, name string) bool {
	tab, ok := i.vartables[t]
	if !ok {
		return false
	}
	if _, exists := tab[name]; !exists {
		return false
	}
	delete(tab, name)
	return true
}

// LookupCommand resolves a command name against the registered builtins
// and procedures. A leading "::" is insignificant.
func (i *Interp) LookupCommand(name string) core.CmdInfo {
	name = strings.TrimPrefix(name, "::")
	if fn, ok := i.commands[name]; ok {
		return core.CmdInfo{Kind: core.CmdBuiltin, Fn: fn}
	}
	if p, ok := i.procs[name]; ok {
		return core.CmdInfo{Kind: core.CmdProc, Params: p.params, Body: p.body}
	}
	return core.CmdInfo{Kind: core.CmdNotFound}
}

// internScratch stores an object in the scratch table.
func (i *Interp) internScratch(o *Obj) core.Obj {
	if o.interp == nil {
		o.interp = i
	}
	h := i.scratchNextID
	i.scratchNextID++
	i.scratch[h] = o
	return h
}

// internPersistent stores an object in the persistent table.
func (i *Interp) internPersistent(o *Obj) core.Obj {
	if o.interp == nil {
		o.interp = i
	}
	h := i.nextID
	i.nextID++
	i.objects[h] = o
	return h
}

// handleFor returns a handle for an object, interning it as a scratch
// value.
func (i *Interp) handleFor(o *Obj) core.Obj {
	if o == nil {
		return 0
	}
	return i.internScratch(o)
}

// objForHandle resolves a handle to its object. Handle 0 and dangling
// handles resolve to the empty string.
func (i *Interp) objForHandle(h core.Obj) *Obj {
	if h == 0 {
		return &Obj{interp: i}
	}
	if h&scratchHandleBit != 0 {
		if o, ok := i.scratch[h]; ok {
			return o
		}
		return &Obj{interp: i}
	}
	if o, ok := i.objects[h]; ok {
		return o
	}
	return &Obj{interp: i}
}
