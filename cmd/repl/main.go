// Command repl runs an interactive calculator on the terminal, driving
// the same engine the service uses.
//
// Keys are typed one per line or as a sequence: digits and operators
// directly ("12+3"), "=" to evaluate, "%" for percent, "c" to clear,
// "b" for backspace. "h" prints history, "hc" clears it, "q" quits.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rechner-dev/rechner/pkg/calc"
)

func main() {
	engine := calc.New(calc.Config{})
	scanner := bufio.NewScanner(os.Stdin)

	render(engine)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "q", "quit", "exit":
			return
		case "h", "history":
			printHistory(engine)
			continue
		case "hc":
			engine.ClearHistory()
			fmt.Println("history cleared")
			continue
		case "":
			continue
		}

		for _, ch := range line {
			if err := press(engine, ch); err != nil {
				fmt.Fprintf(os.Stderr, "ignored %q: %v\n", ch, err)
			}
		}
		render(engine)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "read error: %v\n", err)
		os.Exit(1)
	}
}

// press maps one typed character to an engine operation. ASCII '*' and
// '/' stand in for the keypad signs.
func press(engine *calc.Engine, ch rune) error {
	switch ch {
	case '=':
		engine.Equals()
	case '%':
		engine.Percent()
	case 'c', 'C':
		engine.Clear()
	case 'b', 'B':
		engine.Backspace()
	case '+', '-', '×', '÷':
		return engine.InputOperator(string(ch))
	case '*':
		return engine.InputOperator(calc.OpMultiply)
	case '/':
		return engine.InputOperator(calc.OpDivide)
	case ' ':
		// separators are fine
	default:
		return engine.InputDigit(ch)
	}
	return nil
}

func render(engine *calc.Engine) {
	if eq := engine.Equation(); eq != "" {
		fmt.Printf("  %s\n", eq)
	}
	fmt.Printf("  [%s]\n", engine.Display())
}

func printHistory(engine *calc.Engine) {
	entries := engine.History()
	if len(entries) == 0 {
		fmt.Println("no calculations recorded")
		return
	}
	for _, e := range entries {
		fmt.Printf("  %s = %s\n", e.Equation, e.Result)
	}
}
