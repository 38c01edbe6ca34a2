package api

// KeyKind classifies a single key press.
type KeyKind string

const (
	KeyDigit     KeyKind = "digit"
	KeyOperator  KeyKind = "operator"
	KeyEquals    KeyKind = "equals"
	KeyPercent   KeyKind = "percent"
	KeyClear     KeyKind = "clear"
	KeyBackspace KeyKind = "backspace"
)

// KeyPress is one user action on the keypad. Value carries the digit
// or operator token for the digit and operator kinds and must be
// empty otherwise.
type KeyPress struct {
	Kind  KeyKind `json:"kind"`
	Value string  `json:"value,omitempty"`
}

// Validate checks the key press for a known kind and a well-formed value.
func (k *KeyPress) Validate() *APIError {
	switch k.Kind {
	case KeyDigit:
		if len(k.Value) != 1 || !isDigitValue(k.Value[0]) {
			return NewInvalidRequestError("value", "digit value must be a single character '0'-'9' or '.'")
		}
	case KeyOperator:
		switch k.Value {
		case "+", "-", "×", "÷":
		default:
			return NewInvalidRequestError("value", "operator value must be one of + - × ÷")
		}
	case KeyEquals, KeyPercent, KeyClear, KeyBackspace:
		if k.Value != "" {
			return NewInvalidRequestError("value", string(k.Kind)+" takes no value")
		}
	default:
		return NewInvalidRequestError("kind", "unknown key kind "+string(k.Kind))
	}
	return nil
}

func isDigitValue(b byte) bool {
	return (b >= '0' && b <= '9') || b == '.'
}

// Session is the observable state of one calculator instance.
type Session struct {
	ID        string `json:"id"`
	Object    string `json:"object"` // always "session"
	Display   string `json:"display"`
	Equation  string `json:"equation"`
	Finished  bool   `json:"finished"`
	CreatedAt int64  `json:"created_at"`
}

// HistoryEntry is one recorded calculation.
type HistoryEntry struct {
	Equation string `json:"equation"`
	Result   string `json:"result"`
}

// HistoryList wraps history entries for JSON serialization.
type HistoryList struct {
	Object string         `json:"object"` // always "list"
	Data   []HistoryEntry `json:"data"`
}

// SessionList is a paginated list of sessions.
type SessionList struct {
	Object  string     `json:"object"` // always "list"
	Data    []*Session `json:"data"`
	FirstID string     `json:"first_id,omitempty"`
	LastID  string     `json:"last_id,omitempty"`
	HasMore bool       `json:"has_more"`
}
