// Package plume provides an embeddable TCL-style scripting core with
// first-class coroutines for Go applications.
//
// # Overview
//
// plume is a minimal implementation of the core TCL language designed
// for embedding. It provides:
//
//   - A clean, idiomatic Go API
//   - Automatic type conversion between Go and script values
//   - Coroutines (coroutine, yield, yieldto) without goroutines: a
//     suspended script is an explicit continuation, resumed by calling
//     the coroutine's name as a command
//   - A storage-agnostic evaluation core (package core) behind a host
//     callback table, with this package as the default host
//
// # Quick Start
//
//	import "github.com/feather-lang/plume"
//
//	func main() {
//	    interp := plume.New()
//	    defer interp.Close()
//
//	    // Evaluate scripts
//	    result, _ := interp.Eval("expr {2 + 2}")
//	    fmt.Println(result.String()) // "4"
//
//	    // Set and get variables
//	    interp.SetVar("name", "World")
//	    result, _ = interp.Eval(`set greeting "Hello, $name!"`)
//
//	    // Register Go functions
//	    interp.Register("double", func(x int) int { return x * 2 })
//	    result, _ = interp.Eval("double 21") // "42"
//	}
//
// # Coroutines
//
// A coroutine wraps a command into a named, resumable evaluation:
//
//	interp.Eval(`
//	    proc counter {} {
//	        set n 0
//	        while {1} {
//	            yield $n
//	            incr n
//	        }
//	    }
//	    coroutine c counter
//	`)
//	v, _ := interp.Eval("c") // "1"
//	v, _ = interp.Eval("c")  // "2"
//
// The yield suspends the whole script, loops and procedure calls
// included, and the next invocation of "c" resumes it exactly where it
// stopped. When the coroutine's body finishes, the command disappears.
//
// # Registering Go Functions
//
// The Register method accepts any Go function and automatically converts
// arguments and return values:
//
//	interp.Register("greet", func(name string) string {
//	    return "Hello, " + name + "!"
//	})
//
//	interp.Register("divide", func(a, b int) (int, error) {
//	    if b == 0 {
//	        return 0, errors.New("division by zero")
//	    }
//	    return a / b, nil
//	})
//
// For full control over arguments and error reporting, use
// [Interp.RegisterCommand] with a [CommandFunc].
//
// # Values
//
// Script values are [*Obj] and follow TCL's dual-representation model:
// every value has a string form, and may carry a typed internal
// representation (int, double, list, dict) that is computed lazily and
// cached. Custom representations implement [ObjType].
//
//	result, _ := interp.Eval("list 1 2 3")
//	items, _ := result.List() // 3 elements
//	n, _ := items[0].Int()    // 1
package plume
