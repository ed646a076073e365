// plume is an interactive shell and script runner for the plume
// interpreter.
//
// Usage:
//
//	plume              # interactive REPL (or eval stdin when piped)
//	plume script.tcl   # run a script file
//	plume -c 'script'  # evaluate a script string
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/feather-lang/plume"
	"github.com/feather-lang/plume/core"
	"golang.org/x/term"
)

func main() {
	i := plume.New()
	defer i.Close()

	args := os.Args[1:]
	if len(args) >= 2 && args[0] == "-c" {
		evalAndPrint(i, args[1])
		return
	}
	if len(args) >= 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "plume: %v\n", err)
			os.Exit(1)
		}
		evalAndPrint(i, string(data))
		return
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		runREPL(i)
		return
	}

	script, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plume: error reading input: %v\n", err)
		os.Exit(1)
	}
	evalAndPrint(i, string(script))
}

func evalAndPrint(i *plume.Interp, script string) {
	result, err := i.Eval(script)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
	if s := result.String(); s != "" {
		fmt.Println(s)
	}
}

func runREPL(i *plume.Interp) {
	ed := NewLineEditor()
	var inputBuffer string

	for {
		prompt := "% "
		if inputBuffer != "" {
			prompt = "> "
		}

		line, err := ed.ReadLine(prompt)
		if errors.Is(err, errInterrupted) {
			inputBuffer = ""
			fmt.Println()
			continue
		}
		if err != nil {
			fmt.Println()
			return
		}

		if inputBuffer != "" {
			inputBuffer += "\n" + line
		} else {
			inputBuffer = line
		}
		if inputBuffer == "" {
			continue
		}

		// Keep reading while the input ends inside an open brace,
		// quote or bracket.
		if perr := core.CheckScript(inputBuffer); perr != nil {
			if core.Incomplete(perr) {
				continue
			}
			fmt.Fprintf(os.Stderr, "error: %s\n", perr.Error())
			inputBuffer = ""
			continue
		}

		ed.AddHistory(inputBuffer)
		result, err := i.Eval(inputBuffer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		} else if s := result.String(); s != "" {
			fmt.Println(s)
		}
		inputBuffer = ""
	}
}
