package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// evaluate folds a whitespace-separated token string of the form
// "number operator number operator ... number" left to right, with no
// operator precedence.
//
// Malformed operand tokens are skipped silently rather than failing;
// this leniency is deliberate. Division by an operand of exactly zero
// forces the accumulator to zero instead of producing Inf or NaN. The
// result is rounded to 8 decimal places to suppress float
// representation noise (0.1 + 0.2 renders as "0.3") and rendered as
// the shortest equivalent decimal string.
//
// The only error case is an accumulator seed that does not parse as a
// number, which cannot be skipped.
func evaluate(expr string) (string, error) {
	tokens := strings.Fields(strings.TrimSpace(expr))
	if len(tokens) == 0 {
		return "0", nil
	}
	if len(tokens) < 3 {
		return tokens[0], nil
	}

	result, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return "", fmt.Errorf("evaluating %q: %w", tokens[0], err)
	}

	for i := 1; i+1 < len(tokens); i += 2 {
		op := tokens[i]
		operand, ok := parseNumber(tokens[i+1])
		if !ok {
			continue
		}
		switch op {
		case OpAdd:
			result += operand
		case OpSubtract:
			result -= operand
		case OpMultiply:
			result *= operand
		case OpDivide:
			if operand == 0 {
				result = 0
			} else {
				result /= operand
			}
		}
	}

	return formatNumber(round8(result)), nil
}

// round8 rounds to 8 decimal places.
func round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// formatNumber renders v as the shortest decimal string that parses
// back to the same value, without trailing zeros or a dangling point.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
