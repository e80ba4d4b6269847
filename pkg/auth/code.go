package auth

import "strings"

// CodeLength is the number of digits in a verification code.
const CodeLength = 6

// codeEntry is the six-box code input with its focus.
type codeEntry struct {
	digits    [CodeLength]string
	focus     int
	verifying bool
}

// set stores v at i and advances focus when a digit was typed.
func (e *codeEntry) set(i int, v string) {
	e.digits[i] = v
	if v != "" && i < CodeLength-1 {
		e.focus = i + 1
	}
}

// backspace clears a filled position or, on an empty one, moves focus back.
func (e *codeEntry) backspace(i int) {
	if e.digits[i] != "" {
		e.digits[i] = ""
		e.focus = i
		return
	}
	if i > 0 {
		e.focus = i - 1
	}
}

func (e *codeEntry) reset() {
	e.digits = [CodeLength]string{}
	e.focus = 0
}

func (e *codeEntry) complete() bool {
	for _, d := range e.digits {
		if d == "" {
			return false
		}
	}
	return true
}

func (e *codeEntry) code() string {
	return strings.Join(e.digits[:], "")
}

// isDigitInput accepts the empty string or a single ASCII digit.
func isDigitInput(v string) bool {
	if v == "" {
		return true
	}
	return len(v) == 1 && v[0] >= '0' && v[0] <= '9'
}
