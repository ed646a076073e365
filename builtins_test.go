package plume_test

import (
	"strings"
	"testing"

	"github.com/feather-lang/plume"
)

// ev evaluates a script and fails the test on error.
func ev(t *testing.T, interp *plume.Interp, script string) string {
	t.Helper()
	result, err := interp.Eval(script)
	if err != nil {
		t.Fatalf("Eval(%q) failed: %v", script, err)
	}
	return result.String()
}

// evErr evaluates a script that must fail and returns the error message.
func evErr(t *testing.T, interp *plume.Interp, script string) string {
	t.Helper()
	_, err := interp.Eval(script)
	if err == nil {
		t.Fatalf("Eval(%q) should have failed", script)
	}
	return err.Error()
}

func TestSetAndRead(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	if got := ev(t, interp, "set x hello; set x"); got != "hello" {
		t.Errorf("got %q", got)
	}
	msg := evErr(t, interp, "set nope")
	if msg != `can't read "nope": no such variable` {
		t.Errorf("msg = %q", msg)
	}
	msg = evErr(t, interp, "set a b c")
	if msg != `wrong # args: should be "set varName ?newValue?"` {
		t.Errorf("msg = %q", msg)
	}
}

func TestUnsetCommand(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	ev(t, interp, "set x 1; unset x")
	if got := ev(t, interp, "info exists x"); got != "0" {
		t.Errorf("info exists = %q", got)
	}
	msg := evErr(t, interp, "unset nope")
	if msg != `can't unset "nope": no such variable` {
		t.Errorf("msg = %q", msg)
	}
	ev(t, interp, "unset -nocomplain nope")
}

func TestIncr(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	if got := ev(t, interp, "incr fresh"); got != "1" {
		t.Errorf("incr on unset var = %q", got)
	}
	if got := ev(t, interp, "set n 10; incr n 5"); got != "15" {
		t.Errorf("incr n 5 = %q", got)
	}
	if got := ev(t, interp, "incr n -20"); got != "-5" {
		t.Errorf("incr n -20 = %q", got)
	}
	if msg := evErr(t, interp, "set s abc; incr s"); !strings.Contains(msg, "expected integer") {
		t.Errorf("msg = %q", msg)
	}
}

func TestAppendCommand(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	if got := ev(t, interp, "append buf a b c"); got != "abc" {
		t.Errorf("append = %q", got)
	}
	if got := ev(t, interp, "append buf d; set buf"); got != "abcd" {
		t.Errorf("buf = %q", got)
	}
}

func TestIfCommand(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	if got := ev(t, interp, "if {1} {set r yes} else {set r no}"); got != "yes" {
		t.Errorf("got %q", got)
	}
	if got := ev(t, interp, "if {0} {set r a} elseif {1} {set r b} else {set r c}"); got != "b" {
		t.Errorf("got %q", got)
	}
	if got := ev(t, interp, "if 0 then {set r a} else {set r c}"); got != "c" {
		t.Errorf("then keyword: got %q", got)
	}
	// No clause taken, no else: empty result.
	if got := ev(t, interp, "if {0} {set r a}"); got != "" {
		t.Errorf("got %q", got)
	}
	msg := evErr(t, interp, "if {1} {x} bogus {y}")
	if msg != `expected "elseif" or "else" but got "bogus"` {
		t.Errorf("msg = %q", msg)
	}
}

func TestWhileCommand(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	ev(t, interp, `
		set i 0
		set sum 0
		while {$i < 5} {
			incr sum $i
			incr i
		}
	`)
	if got := ev(t, interp, "set sum"); got != "10" {
		t.Errorf("sum = %q", got)
	}
}

func TestWhileBreakContinue(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	ev(t, interp, `
		set i 0
		set sum 0
		while {1} {
			incr i
			if {$i > 10} break
			if {$i % 2} continue
			incr sum $i
		}
	`)
	if got := ev(t, interp, "set sum"); got != "30" {
		t.Errorf("sum = %q (want 2+4+6+8+10)", got)
	}
}

func TestForCommand(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	ev(t, interp, `
		set sum 0
		for {set i 1} {$i <= 4} {incr i} {
			incr sum $i
		}
	`)
	if got := ev(t, interp, "set sum"); got != "10" {
		t.Errorf("sum = %q", got)
	}
	// The next script still runs after continue.
	ev(t, interp, `
		set odd 0
		for {set i 0} {$i < 6} {incr i} {
			if {$i % 2 == 0} continue
			incr odd $i
		}
	`)
	if got := ev(t, interp, "set odd"); got != "9" {
		t.Errorf("odd = %q (want 1+3+5)", got)
	}
}

func TestForeachCommand(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	ev(t, interp, `
		set out ""
		foreach x {a b c} {
			append out $x
		}
	`)
	if got := ev(t, interp, "set out"); got != "abc" {
		t.Errorf("out = %q", got)
	}
}

func TestForeachMultipleVars(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	ev(t, interp, `
		set pairs ""
		foreach {k v} {a 1 b 2 c} {
			lappend pairs "$k=$v"
		}
	`)
	// The trailing odd element pads with an empty value.
	if got := ev(t, interp, "set pairs"); got != "a=1 b=2 c=" {
		t.Errorf("pairs = %q", got)
	}
}

func TestProcAndReturn(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	ev(t, interp, `
		proc square {x} {
			return [expr {$x * $x}]
		}
	`)
	if got := ev(t, interp, "square 7"); got != "49" {
		t.Errorf("square 7 = %q", got)
	}
	// Implicit return: last command's result.
	ev(t, interp, "proc last {} { set a 1; set b 2 }")
	if got := ev(t, interp, "last"); got != "2" {
		t.Errorf("last = %q", got)
	}
}

func TestProcArgsCollector(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	ev(t, interp, "proc count {first args} { llength $args }")
	if got := ev(t, interp, "count a b c d"); got != "3" {
		t.Errorf("count = %q", got)
	}
}

func TestProcRecursion(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	ev(t, interp, `
		proc fib {n} {
			if {$n < 2} { return $n }
			expr {[fib [expr {$n - 1}]] + [fib [expr {$n - 2}]]}
		}
	`)
	if got := ev(t, interp, "fib 10"); got != "55" {
		t.Errorf("fib 10 = %q", got)
	}
}

func TestErrorAndCatch(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	if got := ev(t, interp, "catch {error boom} msg"); got != "1" {
		t.Errorf("catch code = %q", got)
	}
	if got := ev(t, interp, "set msg"); got != "boom" {
		t.Errorf("msg = %q", got)
	}
	if got := ev(t, interp, "catch {set ok fine} msg"); got != "0" {
		t.Errorf("catch code = %q", got)
	}
	if got := ev(t, interp, "catch {return early}"); got != "2" {
		t.Errorf("catch of return = %q", got)
	}
	if got := ev(t, interp, "catch {break}"); got != "3" {
		t.Errorf("catch of break = %q", got)
	}
}

func TestEvalCommand(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	if got := ev(t, interp, "eval set joined 42"); got != "42" {
		t.Errorf("eval = %q", got)
	}
	if got := ev(t, interp, `eval {set x 1; set y 2}`); got != "2" {
		t.Errorf("eval script = %q", got)
	}
}

func TestApplyCommand(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	if got := ev(t, interp, "apply {{x y} {expr {$x + $y}}} 3 4"); got != "7" {
		t.Errorf("apply = %q", got)
	}
	// The lambda body runs in its own scope.
	ev(t, interp, "set x outer")
	ev(t, interp, "apply {{x} {set x inner}} shadowed")
	if got := ev(t, interp, "set x"); got != "outer" {
		t.Errorf("x = %q; lambda frame must not leak", got)
	}
}

func TestListCommands(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	if got := ev(t, interp, "list a {b c} d"); got != "a {b c} d" {
		t.Errorf("list = %q", got)
	}
	if got := ev(t, interp, "llength {a {b c} d}"); got != "3" {
		t.Errorf("llength = %q", got)
	}
	if got := ev(t, interp, "lindex {a b c} 1"); got != "b" {
		t.Errorf("lindex = %q", got)
	}
	if got := ev(t, interp, "lindex {a b c} end"); got != "c" {
		t.Errorf("lindex end = %q", got)
	}
	if got := ev(t, interp, "lindex {a b c} end-1"); got != "b" {
		t.Errorf("lindex end-1 = %q", got)
	}
	if got := ev(t, interp, "lindex {a b c} 9"); got != "" {
		t.Errorf("out-of-range lindex = %q", got)
	}
	if got := ev(t, interp, "lrange {a b c d e} 1 3"); got != "b c d" {
		t.Errorf("lrange = %q", got)
	}
	if got := ev(t, interp, "lrange {a b c} 2 end"); got != "c" {
		t.Errorf("lrange end = %q", got)
	}
	if got := ev(t, interp, "concat {a b} {} {c d}"); got != "a b c d" {
		t.Errorf("concat = %q", got)
	}
	if got := ev(t, interp, "join {a b c} -"); got != "a-b-c" {
		t.Errorf("join = %q", got)
	}
}

func TestLappend(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	ev(t, interp, "lappend acc a")
	ev(t, interp, "lappend acc {b c} d")
	if got := ev(t, interp, "set acc"); got != "a {b c} d" {
		t.Errorf("acc = %q", got)
	}
	if got := ev(t, interp, "llength $acc"); got != "3" {
		t.Errorf("llength = %q", got)
	}
}

func TestStringCommand(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	if got := ev(t, interp, "string length hello"); got != "5" {
		t.Errorf("length = %q", got)
	}
	if got := ev(t, interp, "string index hello 1"); got != "e" {
		t.Errorf("index = %q", got)
	}
	if got := ev(t, interp, "string index hello end"); got != "o" {
		t.Errorf("index end = %q", got)
	}
	if got := ev(t, interp, "string range hello 1 3"); got != "ell" {
		t.Errorf("range = %q", got)
	}
	if got := ev(t, interp, "string toupper hi"); got != "HI" {
		t.Errorf("toupper = %q", got)
	}
	if got := ev(t, interp, "string tolower HI"); got != "hi" {
		t.Errorf("tolower = %q", got)
	}
	if got := ev(t, interp, `string trim "  pad  "`); got != "pad" {
		t.Errorf("trim = %q", got)
	}
	if got := ev(t, interp, "string trim xxpadxx x"); got != "pad" {
		t.Errorf("trim cutset = %q", got)
	}
	if got := ev(t, interp, "string repeat ab 3"); got != "ababab" {
		t.Errorf("repeat = %q", got)
	}
	if got := ev(t, interp, "string equal a a"); got != "1" {
		t.Errorf("equal = %q", got)
	}
	if msg := evErr(t, interp, "string bogus x"); !strings.Contains(msg, "unknown or ambiguous subcommand") {
		t.Errorf("msg = %q", msg)
	}
}

func TestDictCommand(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	ev(t, interp, "set d [dict create a 1 b 2]")
	if got := ev(t, interp, "dict get $d a"); got != "1" {
		t.Errorf("get = %q", got)
	}
	if got := ev(t, interp, "dict size $d"); got != "2" {
		t.Errorf("size = %q", got)
	}
	if got := ev(t, interp, "dict keys $d"); got != "a b" {
		t.Errorf("keys = %q", got)
	}
	if got := ev(t, interp, "dict values $d"); got != "1 2" {
		t.Errorf("values = %q", got)
	}
	ev(t, interp, "dict set d c 3")
	if got := ev(t, interp, "dict get $d c"); got != "3" {
		t.Errorf("after set: %q", got)
	}
	if got := ev(t, interp, "dict exists $d c"); got != "1" {
		t.Errorf("exists = %q", got)
	}
	ev(t, interp, "dict unset d a")
	if got := ev(t, interp, "dict exists $d a"); got != "0" {
		t.Errorf("after unset: %q", got)
	}
	msg := evErr(t, interp, "dict get $d zz")
	if msg != `key "zz" not known in dictionary` {
		t.Errorf("msg = %q", msg)
	}
}

func TestDictKeyOrder(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	ev(t, interp, "set d [dict create x 1 a 2 m 3]")
	// Keys come back in insertion order, not sorted.
	if got := ev(t, interp, "dict keys $d"); got != "x a m" {
		t.Errorf("keys = %q", got)
	}
	ev(t, interp, "dict set d a 9")
	if got := ev(t, interp, "dict keys $d"); got != "x a m" {
		t.Errorf("rewriting a key must not move it: %q", got)
	}
}

func TestInfoCommand(t *testing.T) {
	interp := plume.New()
	defer interp.Close()

	if got := ev(t, interp, "set v 1; info exists v"); got != "1" {
		t.Errorf("info exists = %q", got)
	}
	if got := ev(t, interp, "info exists missing"); got != "0" {
		t.Errorf("info exists = %q", got)
	}
	ev(t, interp, "proc helper {} {}")
	if got := ev(t, interp, "info procs"); got != "helper" {
		t.Errorf("info procs = %q", got)
	}
	commands := ev(t, interp, "info commands")
	for _, want := range []string{"set", "proc", "helper", "coroutine"} {
		if !strings.Contains(commands, want) {
			t.Errorf("info commands missing %q: %q", want, commands)
		}
	}
	if got := ev(t, interp, "info coroutine"); got != "" {
		t.Errorf("info coroutine outside a coroutine = %q", got)
	}
}
