package calc

import (
	"errors"
	"strings"
)

// Supported operator tokens. Multiplication and division use the
// typographic signs, matching what a keypad sends.
const (
	OpAdd      = "+"
	OpSubtract = "-"
	OpMultiply = "×"
	OpDivide   = "÷"
)

// Sentinel errors returned for input outside the engine's token domain.
// The engine state is untouched when one of these is returned.
var (
	ErrInvalidDigit    = errors.New("calc: digit must be '0'-'9' or '.'")
	ErrInvalidOperator = errors.New("calc: operator must be one of + - × ÷")
)

// ErrorDisplay is shown when an evaluation fails. The evaluator is
// total under normal operation, so this is a safety net rather than a
// path callers should expect to hit.
const ErrorDisplay = "Error"

// DefaultHistoryLimit caps retained history entries unless overridden.
const DefaultHistoryLimit = 50

// Config holds engine settings.
type Config struct {
	// HistoryLimit is the maximum number of retained history entries.
	// Zero means DefaultHistoryLimit.
	HistoryLimit int
}

// Engine is the calculator state machine. It owns four pieces of
// mutable state (display, equation, finished flag, history) and
// mutates them only through its operations. A zero-value Engine is
// not ready; use New.
type Engine struct {
	display  string
	equation string
	finished bool
	history  history
}

// New creates an engine in the cleared state: display "0", no pending
// equation, empty history.
func New(cfg Config) *Engine {
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Engine{
		display: "0",
		history: history{limit: limit},
	}
}

// Display returns the digits currently being entered or the most
// recent result. Never empty.
func (e *Engine) Display() string { return e.display }

// Equation returns the accumulated left-hand portion of the
// expression as whitespace-joined tokens, ending with a trailing
// operator and space while an operand is pending. Empty string means
// no pending equation.
func (e *Engine) Equation() string { return e.equation }

// Finished reports whether the engine holds a just-computed result
// that the next digit input will replace rather than extend.
func (e *Engine) Finished() bool { return e.finished }

// History returns the recorded calculations, newest first.
func (e *Engine) History() []Entry { return e.history.snapshot() }

// InputDigit feeds one digit or decimal point into the display.
//
// Immediately after a result the display is replaced, starting a new
// operand. A lone "0" is replaced rather than extended, so no leading
// zeros accumulate. A second decimal point is not rejected; the
// evaluator tolerates the resulting operand by skipping it.
func (e *Engine) InputDigit(d rune) error {
	if !isDigitToken(d) {
		return ErrInvalidDigit
	}
	switch {
	case e.finished:
		e.display = string(d)
		e.finished = false
	case e.display == "0":
		e.display = string(d)
	default:
		e.display += string(d)
	}
	return nil
}

// InputOperator appends an operator to the pending equation.
//
// After a result the operator chains onto it, so "2 + 3 =" followed
// by "×" continues from 5. Pressing a second operator before entering
// an operand replaces the previous one ("last operator wins").
func (e *Engine) InputOperator(op string) error {
	if !IsOperator(op) {
		return ErrInvalidOperator
	}
	switch {
	case e.finished:
		e.equation = e.display + " " + op + " "
		e.finished = false
		e.display = "0"
	case e.display == "0" && e.equation != "":
		tokens := strings.Fields(e.equation)
		tokens[len(tokens)-1] = op
		e.equation = strings.Join(tokens, " ") + " "
	default:
		e.equation += e.display + " " + op + " "
		e.display = "0"
	}
	return nil
}

// Equals evaluates the pending equation against the current display.
// A no-op when nothing is pending. On success the full equation and
// its result are prepended to history, the display shows the result,
// and the engine enters the finished state.
func (e *Engine) Equals() {
	if e.equation == "" {
		return
	}
	full := e.equation + e.display
	result, err := evaluate(full)
	if err != nil {
		e.display = ErrorDisplay
		e.equation = ""
		return
	}
	e.history.push(Entry{Equation: full, Result: result})
	e.display = result
	e.equation = ""
	e.finished = true
}

// Percent divides the displayed value by 100. The pending equation is
// not consulted; "percent of the other operand" semantics were
// considered and rejected for simplicity. An unparseable display is
// left untouched.
func (e *Engine) Percent() {
	v, ok := parseNumber(e.display)
	if !ok {
		return
	}
	e.display = formatNumber(v / 100)
}

// Clear resets display, equation, and the finished flag. History is
// kept; use ClearHistory for that.
func (e *Engine) Clear() {
	e.display = "0"
	e.equation = ""
	e.finished = false
}

// Backspace removes the last entered character. A freshly computed
// result cannot be edited in place, and the display never goes empty:
// the last character collapses back to "0".
func (e *Engine) Backspace() {
	if e.finished {
		return
	}
	if len(e.display) > 1 {
		e.display = e.display[:len(e.display)-1]
		return
	}
	e.display = "0"
}

// ClearHistory drops all recorded calculations.
func (e *Engine) ClearHistory() {
	e.history.clear()
}

// IsOperator reports whether op is a supported operator token.
func IsOperator(op string) bool {
	switch op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		return true
	}
	return false
}

func isDigitToken(d rune) bool {
	return (d >= '0' && d <= '9') || d == '.'
}
