package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// errInterrupted is returned by ReadLine when the user presses Ctrl-C.
var errInterrupted = errors.New("interrupted")

// LineEditor is a minimal raw-mode line editor with history.
type LineEditor struct {
	fd       int
	oldState *term.State

	line   []rune
	cursor int

	history []string
	histPos int
	saved   string // line being edited before history navigation
}

// NewLineEditor creates a line editor reading from stdin.
func NewLineEditor() *LineEditor {
	return &LineEditor{fd: int(os.Stdin.Fd())}
}

// AddHistory appends an entry to the history.
func (e *LineEditor) AddHistory(s string) {
	if s == "" {
		return
	}
	if n := len(e.history); n > 0 && e.history[n-1] == s {
		return
	}
	e.history = append(e.history, s)
}

// ReadLine reads one line of input with editing. It returns io.EOF when
// the user presses Ctrl-D on an empty line and errInterrupted on Ctrl-C.
func (e *LineEditor) ReadLine(prompt string) (string, error) {
	oldState, err := term.MakeRaw(e.fd)
	if err != nil {
		// Not a terminal after all; fall back to plain reads.
		return e.readPlain(prompt)
	}
	e.oldState = oldState
	defer func() {
		term.Restore(e.fd, e.oldState)
		e.oldState = nil
	}()

	e.line = e.line[:0]
	e.cursor = 0
	e.histPos = len(e.history)
	e.saved = ""
	e.redraw(prompt)

	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return "", err
		}
		switch b := buf[0]; b {
		case '\r', '\n':
			fmt.Print("\r\n")
			return string(e.line), nil
		case 0x03: // Ctrl-C
			return "", errInterrupted
		case 0x04: // Ctrl-D
			if len(e.line) == 0 {
				return "", io.EOF
			}
			e.deleteAt(e.cursor)
		case 0x01: // Ctrl-A
			e.cursor = 0
		case 0x05: // Ctrl-E
			e.cursor = len(e.line)
		case 0x0b: // Ctrl-K
			e.line = e.line[:e.cursor]
		case 0x15: // Ctrl-U
			e.line = append(e.line[:0], e.line[e.cursor:]...)
			e.cursor = 0
		case 0x7f, 0x08: // Backspace
			if e.cursor > 0 {
				e.deleteAt(e.cursor - 1)
				e.cursor--
			}
		case 0x1b: // Escape sequence
			e.handleEscape()
		default:
			if b >= 0x20 {
				e.insert(rune(b))
			}
		}
		e.redraw(prompt)
	}
}

// readPlain is the non-terminal fallback.
func (e *LineEditor) readPlain(prompt string) (string, error) {
	fmt.Print(prompt)
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			if len(line) > 0 && err == io.EOF {
				return string(line), nil
			}
			return "", err
		}
		if n == 0 {
			continue
		}
		if buf[0] == '\n' {
			return string(line), nil
		}
		line = append(line, buf[0])
	}
}

func (e *LineEditor) insert(r rune) {
	e.line = append(e.line, 0)
	copy(e.line[e.cursor+1:], e.line[e.cursor:])
	e.line[e.cursor] = r
	e.cursor++
}

func (e *LineEditor) deleteAt(pos int) {
	if pos < 0 || pos >= len(e.line) {
		return
	}
	e.line = append(e.line[:pos], e.line[pos+1:]...)
}

// handleEscape consumes a CSI sequence (arrows, home, end, delete).
func (e *LineEditor) handleEscape() {
	buf := make([]byte, 1)
	if _, err := os.Stdin.Read(buf); err != nil || buf[0] != '[' {
		return
	}
	if _, err := os.Stdin.Read(buf); err != nil {
		return
	}
	switch buf[0] {
	case 'A':
		e.historyUp()
	case 'B':
		e.historyDown()
	case 'C':
		if e.cursor < len(e.line) {
			e.cursor++
		}
	case 'D':
		if e.cursor > 0 {
			e.cursor--
		}
	case 'H':
		e.cursor = 0
	case 'F':
		e.cursor = len(e.line)
	case '3': // Delete is "ESC [ 3 ~"
		if _, err := os.Stdin.Read(buf); err == nil && buf[0] == '~' {
			e.deleteAt(e.cursor)
		}
	}
}

func (e *LineEditor) historyUp() {
	if e.histPos == 0 {
		return
	}
	if e.histPos == len(e.history) {
		e.saved = string(e.line)
	}
	e.histPos--
	e.setLine(e.history[e.histPos])
}

func (e *LineEditor) historyDown() {
	if e.histPos >= len(e.history) {
		return
	}
	e.histPos++
	if e.histPos == len(e.history) {
		e.setLine(e.saved)
		return
	}
	e.setLine(e.history[e.histPos])
}

func (e *LineEditor) setLine(s string) {
	e.line = []rune(s)
	e.cursor = len(e.line)
}

// redraw repaints the prompt and line, truncated to the terminal width.
func (e *LineEditor) redraw(prompt string) {
	width, _, err := term.GetSize(e.fd)
	if err != nil || width <= 0 {
		width = 80
	}
	line := string(e.line)
	avail := width - len(prompt) - 1
	if avail > 0 && len(line) > avail {
		line = line[:avail]
	}
	fmt.Printf("\r\x1b[K%s%s\r\x1b[%dC", prompt, line, len(prompt)+e.cursor)
}
