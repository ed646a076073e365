package core

// Result is the completion code of a command or script evaluation.
type Result uint

const (
	ResultOK Result = iota
	ResultError
	ResultReturn
	ResultBreak
	ResultContinue
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultError:
		return "error"
	case ResultReturn:
		return "return"
	case ResultBreak:
		return "break"
	case ResultContinue:
		return "continue"
	}
	return "unknown"
}
