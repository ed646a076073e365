package core

import (
	"strings"
	"testing"
)

// testHost is a minimal in-memory Host for exercising the evaluator.
type testHost struct {
	objs        map[Obj]string
	scratch     map[Obj]string
	nextID      Obj
	nextScratch Obj

	tabs    map[VarTable]map[string]Obj
	nextTab VarTable

	cmds map[string]CmdInfo
}

const testScratchBit Obj = 1 << 63

func newTestHost() *testHost {
	return &testHost{
		objs:        make(map[Obj]string),
		scratch:     make(map[Obj]string),
		nextID:      1,
		nextScratch: testScratchBit | 1,
		tabs:        make(map[VarTable]map[string]Obj),
		nextTab:     1,
		cmds:        make(map[string]CmdInfo),
	}
}

func (h *testHost) Intern(s string) Obj {
	id := h.nextScratch
	h.nextScratch++
	h.scratch[id] = s
	return id
}

func (h *testHost) InternGlobal(s string) Obj {
	id := h.nextID
	h.nextID++
	h.objs[id] = s
	return id
}

func (h *testHost) StringOf(o Obj) string {
	if o == 0 {
		return ""
	}
	if o&testScratchBit != 0 {
		return h.scratch[o]
	}
	return h.objs[o]
}

func (h *testHost) Promote(o Obj) Obj {
	if o == 0 || o&testScratchBit == 0 {
		return o
	}
	return h.InternGlobal(h.scratch[o])
}

func (h *testHost) ArenaPush() ArenaMark { return ArenaMark(h.nextScratch) }

func (h *testHost) ArenaPop(m ArenaMark) {
	for k := range h.scratch {
		if k >= Obj(m) {
			delete(h.scratch, k)
		}
	}
	h.nextScratch = Obj(m)
}

func (h *testHost) NewVarTable() VarTable {
	t := h.nextTab
	h.nextTab++
	h.tabs[t] = make(map[string]Obj)
	return t
}

func (h *testHost) ReleaseVarTable(t VarTable) { delete(h.tabs, t) }

func (h *testHost) VarGet(t VarTable, name string) (Obj, bool) {
	v, ok := h.tabs[t][name]
	return v, ok
}

func (h *testHost) VarSet(t VarTable, name string, val Obj) {
	if tab, ok := h.tabs[t]; ok {
		tab[name] = h.Promote(val)
	}
}

func (h *testHost) VarUnset(t VarTable, name string) bool {
	tab, ok := h.tabs[t]
	if !ok {
		return false
	}
	if _, exists := tab[name]; !exists {
		return false
	}
	delete(tab, name)
	return true
}

func (h *testHost) LookupCommand(name string) CmdInfo {
	return h.cmds[strings.TrimPrefix(name, "::")]
}

func (h *testHost) defineProc(name, params, body string) {
	h.cmds[name] = CmdInfo{
		Kind:   CmdProc,
		Params: h.InternGlobal(params),
		Body:   h.InternGlobal(body),
	}
}

func (h *testHost) register(name string, fn CommandFunc) {
	h.cmds[name] = CmdInfo{Kind: CmdBuiltin, Fn: fn}
}

// newTestInterp builds an interpreter over a test host with a small set
// of commands: set, emit (records its arguments), yield and coroutine.
func newTestInterp() (*Interp, *testHost, *[]string) {
	h := newTestHost()
	in := New(h)
	log := &[]string{}

	h.register("set", func(in *Interp, cmd Obj, args []Obj) Result {
		switch len(args) {
		case 1:
			name := h.StringOf(args[0])
			v, ok := in.GetVar(name)
			if !ok {
				return in.Errorf("can't read %q: no such variable", name)
			}
			in.SetResult(v)
			return ResultOK
		case 2:
			in.SetVar(h.StringOf(args[0]), args[1])
			in.SetResult(args[1])
			return ResultOK
		}
		return in.Errorf("wrong # args: should be %q", "set varName ?newValue?")
	})
	h.register("emit", func(in *Interp, cmd Obj, args []Obj) Result {
		last := ""
		for _, a := range args {
			last = h.StringOf(a)
			*log = append(*log, last)
		}
		in.SetResultString(last)
		return ResultOK
	})
	h.register("yield", func(in *Interp, cmd Obj, args []Obj) Result {
		var v Obj
		if len(args) > 0 {
			v = args[0]
		}
		return in.Yield(v)
	})
	h.register("coroutine", func(in *Interp, cmd Obj, args []Obj) Result {
		if len(args) < 2 {
			return in.Errorf("wrong # args: should be %q", "coroutine name cmd ?arg ...?")
		}
		return in.CreateCoroutine(args[0], args[1:])
	})
	h.register("fail", func(in *Interp, cmd Obj, args []Obj) Result {
		return in.Errorf("boom")
	})

	return in, h, log
}

func mustEval(t *testing.T, in *Interp, script string) string {
	t.Helper()
	if rc := in.Eval(script); rc != ResultOK {
		t.Fatalf("Eval(%q) = %v, result %q", script, rc, in.ResultString())
	}
	return in.ResultString()
}

func TestEvalTransient(t *testing.T) {
	in, _, log := newTestInterp()
	defer in.Close()

	got := mustEval(t, in, "set x hello; emit $x")
	if got != "hello" {
		t.Errorf("result = %q, want %q", got, "hello")
	}
	if len(*log) != 1 || (*log)[0] != "hello" {
		t.Errorf("log = %v, want [hello]", *log)
	}
}

func TestCommandSubstitution(t *testing.T) {
	in, _, _ := newTestInterp()
	defer in.Close()

	got := mustEval(t, in, "set x [set y inner]")
	if got != "inner" {
		t.Errorf("result = %q, want %q", got, "inner")
	}
	if mustEval(t, in, "set x") != "inner" {
		t.Errorf("x did not receive the substituted value")
	}
}

func TestBracedWordIsLiteral(t *testing.T) {
	in, _, log := newTestInterp()
	defer in.Close()

	mustEval(t, in, "emit {$x [set y]}")
	if (*log)[0] != "$x [set y]" {
		t.Errorf("braced word = %q, want untouched text", (*log)[0])
	}
}

func TestUnknownCommand(t *testing.T) {
	in, _, _ := newTestInterp()
	defer in.Close()

	if rc := in.Eval("nosuchthing"); rc != ResultError {
		t.Fatalf("rc = %v, want error", rc)
	}
	if want := `invalid command name "nosuchthing"`; in.ResultString() != want {
		t.Errorf("error = %q, want %q", in.ResultString(), want)
	}
}

func TestUnsetVariableRead(t *testing.T) {
	in, _, _ := newTestInterp()
	defer in.Close()

	if rc := in.Eval("emit $missing"); rc != ResultError {
		t.Fatalf("rc = %v, want error", rc)
	}
	if want := `can't read "missing": no such variable`; in.ResultString() != want {
		t.Errorf("error = %q, want %q", in.ResultString(), want)
	}
}

func TestErrorStopsScript(t *testing.T) {
	in, _, log := newTestInterp()
	defer in.Close()

	if rc := in.Eval("emit one; fail; emit two"); rc != ResultError {
		t.Fatalf("rc = %v, want error", rc)
	}
	if len(*log) != 1 {
		t.Errorf("log = %v, want only the first emit", *log)
	}
}

func TestProcScopes(t *testing.T) {
	in, h, _ := newTestInterp()
	defer in.Close()

	h.defineProc("inner", "", "set local 1; set ::g fromproc")
	mustEval(t, in, "set g top; set local outer; inner")

	if got := mustEval(t, in, "set g"); got != "fromproc" {
		t.Errorf("g = %q, want fromproc", got)
	}
	// The proc's local must not leak into the global frame.
	if got := mustEval(t, in, "set local"); got != "outer" {
		t.Errorf("local = %q, want outer", got)
	}
}

func TestGlobalFallbackRead(t *testing.T) {
	in, h, log := newTestInterp()
	defer in.Close()

	h.defineProc("reader", "", "emit $g")
	mustEval(t, in, "set g seen; reader")
	if (*log)[0] != "seen" {
		t.Errorf("proc read %q, want global fallback value", (*log)[0])
	}
}

func TestProcParams(t *testing.T) {
	in, h, log := newTestInterp()
	defer in.Close()

	h.defineProc("greet", "name {greeting hi}", "emit $greeting $name")
	mustEval(t, in, "greet bob")
	if (*log)[0] != "hi" || (*log)[1] != "bob" {
		t.Errorf("log = %v", *log)
	}

	if rc := in.Eval("greet"); rc != ResultError {
		t.Fatal("missing required arg should error")
	}
	if !strings.HasPrefix(in.ResultString(), "wrong # args") {
		t.Errorf("error = %q", in.ResultString())
	}
}

func TestProcArgsCollector(t *testing.T) {
	in, h, log := newTestInterp()
	defer in.Close()

	h.defineProc("many", "first args", "emit $first $args")
	mustEval(t, in, "many a b c")
	if (*log)[0] != "a" || (*log)[1] != "b c" {
		t.Errorf("log = %v", *log)
	}
}

func TestRecursionLimit(t *testing.T) {
	in, h, _ := newTestInterp()
	defer in.Close()

	h.defineProc("loop", "", "loop")
	in.SetRecursionLimit(50)
	if rc := in.Eval("loop"); rc != ResultError {
		t.Fatal("infinite recursion should error")
	}
	if !strings.Contains(in.ResultString(), "too many nested evaluations") {
		t.Errorf("error = %q", in.ResultString())
	}
}

func TestParseErrorReportsLine(t *testing.T) {
	in, _, _ := newTestInterp()
	defer in.Close()

	if rc := in.Eval("emit ok\nset x {"); rc != ResultError {
		t.Fatal("unclosed brace should error")
	}
	if !strings.Contains(in.ResultString(), "line 2") {
		t.Errorf("error = %q, want line number", in.ResultString())
	}
}

func TestCoroutineYieldResume(t *testing.T) {
	in, h, log := newTestInterp()
	defer in.Close()

	h.defineProc("gen", "", "yield a; yield b; emit done")

	if got := mustEval(t, in, "coroutine g gen"); got != "a" {
		t.Errorf("create result = %q, want first yield value", got)
	}
	if got := mustEval(t, in, "g"); got != "b" {
		t.Errorf("first resume = %q, want b", got)
	}
	if got := mustEval(t, in, "g"); got != "done" {
		t.Errorf("final resume = %q, want done", got)
	}
	if len(*log) != 1 || (*log)[0] != "done" {
		t.Errorf("log = %v", *log)
	}

	// The coroutine finished; its name is gone.
	if rc := in.Eval("g"); rc != ResultError {
		t.Fatal("resuming a finished coroutine should error")
	}
	if want := `invalid command name "g"`; in.ResultString() != want {
		t.Errorf("error = %q, want %q", in.ResultString(), want)
	}
}

func TestResumeValueBecomesYieldResult(t *testing.T) {
	in, h, log := newTestInterp()
	defer in.Close()

	h.defineProc("gen", "", "set x [yield first]; emit $x")

	mustEval(t, in, "coroutine g gen")
	if got := mustEval(t, in, "g hello"); got != "hello" {
		t.Errorf("resume result = %q, want hello", got)
	}
	if (*log)[0] != "hello" {
		t.Errorf("resume value did not reach the suspended command: %v", *log)
	}
}

func TestResumeValueThroughDrivenBody(t *testing.T) {
	in, h, log := newTestInterp()
	defer in.Close()

	// run drives a body the way loop builtins do: a re-invocation during
	// a resume picks the suspended evaluation back up through EvalBody.
	h.register("run", func(in *Interp, cmd Obj, args []Obj) Result {
		if len(args) != 1 {
			return in.Errorf("wrong # args: should be %q", "run body")
		}
		return in.EvalBody(args[0])
	})
	h.defineProc("gen", "", "run {set x [yield inner]}; emit $x")

	if got := mustEval(t, in, "coroutine g gen"); got != "inner" {
		t.Fatalf("create result = %q", got)
	}
	if got := mustEval(t, in, "g hola"); got != "hola" {
		t.Errorf("resume result = %q, want hola", got)
	}
	if len(*log) != 1 || (*log)[0] != "hola" {
		t.Errorf("resume value did not reach the suspended body: %v", *log)
	}
}

func TestYieldInsideNestedProc(t *testing.T) {
	in, h, log := newTestInterp()
	defer in.Close()

	h.defineProc("outer", "", "set v before; inner; emit $v after")
	h.defineProc("inner", "", "yield paused; emit resumed")

	if got := mustEval(t, in, "coroutine g outer"); got != "paused" {
		t.Fatalf("create result = %q", got)
	}
	mustEval(t, in, "g")
	want := []string{"resumed", "before", "after"}
	if len(*log) != 3 || (*log)[0] != want[0] || (*log)[1] != want[1] || (*log)[2] != want[2] {
		t.Errorf("log = %v, want %v", *log, want)
	}
}

func TestCoroutineLocalsSurviveSuspension(t *testing.T) {
	in, h, _ := newTestInterp()
	defer in.Close()

	h.defineProc("gen", "", "set n zero; yield; set out $n; emit $out")

	mustEval(t, in, "coroutine g gen")
	// Churn the scratch arena between suspension and resume.
	mustEval(t, in, "set junk aaaa; set junk bbbb")
	if got := mustEval(t, in, "g"); got != "zero" {
		t.Errorf("local after resume = %q, want zero", got)
	}
}

func TestCoroutineNameCollision(t *testing.T) {
	in, h, _ := newTestInterp()
	defer in.Close()

	h.defineProc("gen", "", "yield")
	mustEval(t, in, "coroutine g gen")
	if rc := in.Eval("coroutine g gen"); rc != ResultError {
		t.Fatal("duplicate coroutine name should error")
	}
	if want := `can't create coroutine "g": command already exists`; in.ResultString() != want {
		t.Errorf("error = %q, want %q", in.ResultString(), want)
	}

	// Existing command names are also taken.
	if rc := in.Eval("coroutine emit gen"); rc != ResultError {
		t.Fatal("clash with a command name should error")
	}
}

func TestYieldOutsideCoroutine(t *testing.T) {
	in, _, _ := newTestInterp()
	defer in.Close()

	if rc := in.Eval("yield"); rc != ResultError {
		t.Fatal("yield at top level should error")
	}
	if want := "yield can only be called in a coroutine"; in.ResultString() != want {
		t.Errorf("error = %q, want %q", in.ResultString(), want)
	}
}

func TestCoroutineSelfResumeFails(t *testing.T) {
	in, h, _ := newTestInterp()
	defer in.Close()

	h.defineProc("selfish", "", "g")
	if rc := in.Eval("coroutine g selfish"); rc != ResultError {
		t.Fatal("resuming a running coroutine should error")
	}
	if want := "coroutine is already running"; in.ResultString() != want {
		t.Errorf("error = %q, want %q", in.ResultString(), want)
	}
}

func TestCoroutineErrorPropagates(t *testing.T) {
	in, h, _ := newTestInterp()
	defer in.Close()

	h.defineProc("gen", "", "yield ok; fail")
	mustEval(t, in, "coroutine g gen")
	if rc := in.Eval("g"); rc != ResultError {
		t.Fatal("error inside coroutine should propagate to the resumer")
	}
	if in.ResultString() != "boom" {
		t.Errorf("error = %q, want boom", in.ResultString())
	}
	// The failed coroutine is gone.
	if rc := in.Eval("g"); rc != ResultError {
		t.Fatal("failed coroutine should be removed")
	}
}

func TestTwoCoroutinesIndependent(t *testing.T) {
	in, h, _ := newTestInterp()
	defer in.Close()

	h.defineProc("gen", "tag", "yield $tag-1; yield $tag-2; emit $tag-end")

	mustEval(t, in, "coroutine a gen A")
	mustEval(t, in, "coroutine b gen B")
	if got := mustEval(t, in, "a"); got != "A-2" {
		t.Errorf("a = %q", got)
	}
	if got := mustEval(t, in, "b"); got != "B-2" {
		t.Errorf("b = %q", got)
	}
}

func TestCoroutineOverBuiltin(t *testing.T) {
	in, _, log := newTestInterp()
	defer in.Close()

	if got := mustEval(t, in, "coroutine g emit direct"); got != "direct" {
		t.Errorf("result = %q", got)
	}
	if (*log)[0] != "direct" {
		t.Errorf("log = %v", *log)
	}
	// The builtin never yielded, so the coroutine completed immediately.
	if rc := in.Eval("g"); rc != ResultError {
		t.Fatal("completed coroutine should be gone")
	}
}
