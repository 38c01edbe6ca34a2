package mcptools

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rechner-dev/rechner/pkg/api"
	"github.com/rechner-dev/rechner/pkg/session"
)

func newToolset(t *testing.T) *toolset {
	t.Helper()
	mgr := session.NewManager(session.Options{})
	t.Cleanup(func() { mgr.Close() })
	return &toolset{service: mgr}
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content type %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func TestCreateAndPressKey(t *testing.T) {
	ts := newToolset(t)
	ctx := context.Background()

	res, sess, err := ts.createSession(ctx, nil, struct{}{})
	if err != nil {
		t.Fatalf("create_session: %v", err)
	}
	if res.IsError || sess == nil || sess.Display != "0" {
		t.Fatalf("create result = %v, session = %+v", res, sess)
	}

	for _, in := range []PressKeyInput{
		{SessionID: sess.ID, Kind: "digit", Value: "4"},
		{SessionID: sess.ID, Kind: "operator", Value: "×"},
		{SessionID: sess.ID, Kind: "digit", Value: "5"},
		{SessionID: sess.ID, Kind: "equals"},
	} {
		res, sess, _ = ts.pressKey(ctx, nil, in)
		if res.IsError {
			t.Fatalf("press_key(%+v): %s", in, textOf(t, res))
		}
	}

	if sess.Display != "20" {
		t.Errorf("display = %q, want 20", sess.Display)
	}
}

func TestPressKeyInvalidInput(t *testing.T) {
	ts := newToolset(t)
	ctx := context.Background()

	_, sess, _ := ts.createSession(ctx, nil, struct{}{})

	res, _, err := ts.pressKey(ctx, nil, PressKeyInput{SessionID: sess.ID, Kind: "digit", Value: "x"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Error("expected IsError for invalid digit")
	}
}

func TestCalculateTool(t *testing.T) {
	ts := newToolset(t)
	ctx := context.Background()

	tests := []struct {
		expr string
		want string
	}{
		{"12 + 3", "15"},
		{"2 + 3 × 4", "20"}, // left to right, no precedence
		{"5 ÷ 0", "0"},
		{"2 + 3 * 4", "20"}, // ASCII operator aliases
		{"10 / 4", "2.5"},
		{"7", "7"},
	}
	for _, tt := range tests {
		res, sess, err := ts.calculate(ctx, nil, CalculateInput{Expression: tt.expr})
		if err != nil {
			t.Fatalf("calculate(%q): %v", tt.expr, err)
		}
		if res.IsError {
			t.Fatalf("calculate(%q) error: %s", tt.expr, textOf(t, res))
		}
		if sess.Display != tt.want {
			t.Errorf("calculate(%q) = %q, want %q", tt.expr, sess.Display, tt.want)
		}
	}
}

func TestCalculateCleansUpSession(t *testing.T) {
	mgr := session.NewManager(session.Options{})
	defer mgr.Close()
	ts := &toolset{service: mgr}

	ts.calculate(context.Background(), nil, CalculateInput{Expression: "1 + 1"})

	if mgr.Count() != 0 {
		t.Errorf("sessions after calculate = %d, want 0", mgr.Count())
	}
}

func TestHistoryTools(t *testing.T) {
	ts := newToolset(t)
	ctx := context.Background()

	_, sess, _ := ts.createSession(ctx, nil, struct{}{})
	for _, in := range []PressKeyInput{
		{SessionID: sess.ID, Kind: "digit", Value: "2"},
		{SessionID: sess.ID, Kind: "operator", Value: "+"},
		{SessionID: sess.ID, Kind: "digit", Value: "3"},
		{SessionID: sess.ID, Kind: "equals"},
	} {
		ts.pressKey(ctx, nil, in)
	}

	res, hist, err := ts.getHistory(ctx, nil, SessionInput{SessionID: sess.ID})
	if err != nil || res.IsError {
		t.Fatalf("get_history: %v %v", err, res)
	}
	if len(hist.Data) != 1 || hist.Data[0].Result != "5" {
		t.Errorf("history = %+v, want one entry with result 5", hist.Data)
	}

	res, _, _ = ts.clearHistory(ctx, nil, SessionInput{SessionID: sess.ID})
	if res.IsError {
		t.Fatalf("clear_history: %s", textOf(t, res))
	}
	_, hist, _ = ts.getHistory(ctx, nil, SessionInput{SessionID: sess.ID})
	if len(hist.Data) != 0 {
		t.Errorf("history after clear = %+v, want empty", hist.Data)
	}
}

func TestDeleteSessionTool(t *testing.T) {
	ts := newToolset(t)
	ctx := context.Background()

	_, sess, _ := ts.createSession(ctx, nil, struct{}{})
	res, _, _ := ts.deleteSession(ctx, nil, SessionInput{SessionID: sess.ID})
	if res.IsError {
		t.Fatalf("delete_session: %s", textOf(t, res))
	}

	res, _, _ = ts.readState(ctx, nil, SessionInput{SessionID: sess.ID})
	if !res.IsError {
		t.Error("read_state after delete should report an error")
	}
}

func TestTokenizeExpression(t *testing.T) {
	keys := tokenizeExpression("12 + 3.5")
	want := []api.KeyPress{
		{Kind: api.KeyDigit, Value: "1"},
		{Kind: api.KeyDigit, Value: "2"},
		{Kind: api.KeyOperator, Value: "+"},
		{Kind: api.KeyDigit, Value: "3"},
		{Kind: api.KeyDigit, Value: "."},
		{Kind: api.KeyDigit, Value: "5"},
	}
	if len(keys) != len(want) {
		t.Fatalf("len = %d, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %+v, want %+v", i, keys[i], want[i])
		}
	}
}
